package kernel

import (
	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// MaxSyscallNum acota los ids de syscall que se cuentan por tarea
const MaxSyscallNum = 500

// KernelConfig define la configuración del módulo Kernel
type KernelConfig struct {
	IPKernel       string `json:"IP_KERNEL"`
	PortKernel     int    `json:"PUERTO_KERNEL"`
	LogLevel       string `json:"LOG_LEVEL"`
	MemorySize     uint64 `json:"TAM_MEMORIA"`        // Tamaño de la memoria en bytes
	PageSize       uint64 `json:"TAM_PAGINA"`         // Tamaño de página en bytes
	NumberOfLevels int    `json:"CANTIDAD_NIVELES"`   // Número de niveles de tabla de páginas
	EntriesPerPage int    `json:"ENTRADAS_POR_TABLA"` // Entradas por tabla
	KernelFrames   uint64 `json:"MARCOS_KERNEL"`      // Marcos que nunca se entregan a las tareas
	UserStackBase  uint64 `json:"DIR_PILA_USUARIO"`   // Dirección virtual de la pila de cada tarea
	UserStackSize  uint64 `json:"TAM_PILA_USUARIO"`   // Tamaño de la pila de cada tarea
	DumpPath       string `json:"DUMP_PATH"`          // Ruta para los archivos de dump
	ScriptsPath    string `json:"SCRIPTS_PATH"`       // Directorio con los scripts a cargar como tareas
}

// ConfigPorDefecto devuelve una configuración con la que el kernel arranca
// sin archivo: 8 MiB de memoria, páginas de 4 KiB y tabla de 3 niveles.
func ConfigPorDefecto() KernelConfig {
	return KernelConfig{
		IPKernel:       "127.0.0.1",
		PortKernel:     8001,
		LogLevel:       "info",
		MemorySize:     8 << 20,
		PageSize:       4096,
		NumberOfLevels: 3,
		EntriesPerPage: 512,
		KernelFrames:   0,
		UserStackBase:  0x4000_0000,
		UserStackSize:  2 * 4096,
		DumpPath:       "dumps",
		ScriptsPath:    "scripts",
	}
}

// CargarConfig lee el archivo sobre los valores por defecto y lo valida
func CargarConfig(ruta string) (KernelConfig, error) {
	config := ConfigPorDefecto()
	if err := utils.CargarConfiguracion(ruta, &config); err != nil {
		return KernelConfig{}, err
	}
	if err := config.Validar(); err != nil {
		return KernelConfig{}, errors.Wrapf(err, "configuración inválida en %s", ruta)
	}
	return config, nil
}

// Geometria arma los parámetros de paginación de la configuración
func (c KernelConfig) Geometria() (memoria.Geometria, error) {
	return memoria.NuevaGeometria(c.PageSize, c.NumberOfLevels, c.EntriesPerPage)
}

// Validar revisa que la memoria y la pila de usuario sean coherentes
func (c KernelConfig) Validar() error {
	geo, err := c.Geometria()
	if err != nil {
		return err
	}
	if c.MemorySize == 0 || c.MemorySize%c.PageSize != 0 {
		return errors.Errorf("TAM_MEMORIA (%d) debe ser múltiplo de TAM_PAGINA (%d)", c.MemorySize, c.PageSize)
	}
	if c.KernelFrames >= c.MemorySize/c.PageSize {
		return errors.Errorf("MARCOS_KERNEL (%d) no deja marcos para las tareas", c.KernelFrames)
	}
	if c.UserStackSize > 0 {
		if !geo.Alineada(memoria.DirVirtual(c.UserStackBase)) {
			return errors.Errorf("DIR_PILA_USUARIO (%#x) no está alineada a página", c.UserStackBase)
		}
		fin := c.UserStackBase + c.UserStackSize
		if fin < c.UserStackBase || geo.PaginaTecho(memoria.DirVirtual(fin)) > memoria.NumPagVirtual(geo.MaxPaginas()) {
			return errors.Errorf("la pila de usuario [%#x, %#x) excede el espacio virtual", c.UserStackBase, fin)
		}
	}
	return nil
}
