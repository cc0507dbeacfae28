package memoria

import (
	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// MemoriaFisica es la memoria principal simulada, dividida en marcos
type MemoriaFisica struct {
	datos []byte
	geo   Geometria
}

// NuevaMemoriaFisica reserva tamTotal bytes de memoria principal
func NuevaMemoriaFisica(tamTotal uint64, geo Geometria) (*MemoriaFisica, error) {
	if tamTotal == 0 || tamTotal%geo.TamPagina != 0 {
		return nil, errors.Errorf("el tamaño de memoria (%d) debe ser múltiplo del tamaño de página (%d)", tamTotal, geo.TamPagina)
	}

	datos, err := reservarMemoria(int(tamTotal))
	if err != nil {
		return nil, errors.Wrapf(err, "no se pudo reservar la memoria principal de %d bytes", tamTotal)
	}

	utils.InfoLog.Info("Memoria principal inicializada",
		"tamaño_bytes", len(datos),
		"tamaño_página", geo.TamPagina,
		"total_marcos", tamTotal/geo.TamPagina)

	return &MemoriaFisica{datos: datos, geo: geo}, nil
}

// CantidadMarcos devuelve cuántos marcos tiene la memoria
func (m *MemoriaFisica) CantidadMarcos() uint64 {
	return uint64(len(m.datos)) / m.geo.TamPagina
}

// Marco devuelve los bytes del marco ppn
func (m *MemoriaFisica) Marco(ppn NumMarco) []byte {
	inicio := uint64(m.geo.DirDeMarco(ppn))
	return m.datos[inicio : inicio+m.geo.TamPagina : inicio+m.geo.TamPagina]
}

// Bytes devuelve n bytes a partir de pa sin cruzar el final del marco
func (m *MemoriaFisica) Bytes(pa DirFisica, n int) ([]byte, error) {
	fin := uint64(pa) + uint64(n)
	finMarco := (uint64(pa)/m.geo.TamPagina + 1) * m.geo.TamPagina
	if n < 0 || fin > uint64(len(m.datos)) || fin > finMarco {
		return nil, errors.Errorf("acceso físico fuera de rango: %#x+%d", uint64(pa), n)
	}
	return m.datos[pa:fin:fin], nil
}

// limpiarMarco pone el marco en ceros
func (m *MemoriaFisica) limpiarMarco(ppn NumMarco) {
	clear(m.Marco(ppn))
}

// Cerrar devuelve la memoria principal al sistema
func (m *MemoriaFisica) Cerrar() error {
	if m.datos == nil {
		return nil
	}
	err := liberarMemoria(m.datos)
	m.datos = nil
	return err
}
