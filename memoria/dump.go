package memoria

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// Volcar escribe en w el contenido de todas las páginas mapeadas, en orden
// creciente de dirección virtual. Devuelve la cantidad de bytes escritos.
func (e *EspacioDirecciones) Volcar(w io.Writer) (int64, error) {
	var total int64
	var errEscritura error

	e.tabla.Recorrer(func(vpn NumPagVirtual, entrada EntradaTabla) {
		if errEscritura != nil {
			return
		}
		n, err := w.Write(e.fisica.Marco(entrada.Marco))
		total += int64(n)
		errEscritura = err
	})

	return total, errEscritura
}

// CrearMemoryDump crea en dir un archivo `<pid>-<timestamp>.dmp` con el
// contenido del espacio de la tarea y devuelve su ruta.
func CrearMemoryDump(dir string, pid int, espacio *EspacioDirecciones) (string, error) {
	utils.InfoLog.Info("Iniciando memory dump", "pid", pid)

	timestamp := time.Now().Format("20060102-150405.000")
	nombreArchivo := fmt.Sprintf("%d-%s.dmp", pid, timestamp)
	rutaCompleta := filepath.Join(dir, nombreArchivo)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "error al crear directorio para dumps %s", dir)
	}

	dumpFile, err := os.Create(rutaCompleta)
	if err != nil {
		return "", errors.Wrapf(err, "error al crear archivo de dump %s", rutaCompleta)
	}
	defer dumpFile.Close()

	buffer := bufio.NewWriter(dumpFile)
	escritos, err := espacio.Volcar(buffer)
	if err == nil {
		err = buffer.Flush()
	}
	if err != nil {
		return "", errors.Wrapf(err, "error al escribir en archivo de dump %s", rutaCompleta)
	}

	// Log obligatorio
	utils.InfoLog.Info(fmt.Sprintf("## PID: %d Memory Dump solicitado", pid))
	utils.InfoLog.Info("Memory dump completado", "pid", pid, "archivo", nombreArchivo, "tamanio_bytes", escritos)

	return rutaCompleta, nil
}
