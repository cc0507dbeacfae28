package memoria

import (
	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// Marcos es el contrato del asignador de marcos físicos
type Marcos interface {
	Asignar() (NumMarco, error)
	Liberar(ppn NumMarco) error
	Disponibles() uint64
}

// AsignadorMarcos lleva la cuenta de marcos libres con un bitmap
type AsignadorMarcos struct {
	fisica      *MemoriaFisica
	libres      []bool // true = libre, false = ocupado
	disponibles uint64
	reservados  uint64
	siguiente   int // por dónde sigue la búsqueda de un marco libre
}

// NuevoAsignadorMarcos crea el asignador sobre la memoria física. Los
// primeros `reservados` marcos quedan para el kernel y nunca se asignan.
func NuevoAsignadorMarcos(fisica *MemoriaFisica, reservados uint64) (*AsignadorMarcos, error) {
	total := fisica.CantidadMarcos()
	if reservados >= total {
		return nil, errors.Errorf("se reservan %d marcos para el kernel pero la memoria tiene %d", reservados, total)
	}

	libres := make([]bool, total)
	for i := reservados; i < total; i++ {
		libres[i] = true // Inicialmente, todos los marcos de usuario están libres
	}

	utils.InfoLog.Info("Array de marcos libres inicializado", "total_marcos", total, "reservados_kernel", reservados)

	return &AsignadorMarcos{
		fisica:      fisica,
		libres:      libres,
		disponibles: total - reservados,
		reservados:  reservados,
		siguiente:   int(reservados),
	}, nil
}

// Asignar toma un marco libre y lo entrega en ceros
func (a *AsignadorMarcos) Asignar() (NumMarco, error) {
	if a.disponibles == 0 {
		utils.ErrorLog.Debug("No hay marcos libres disponibles")
		return 0, ErrSinMarcos
	}

	for n := 0; n < len(a.libres); n++ {
		i := (a.siguiente + n) % len(a.libres)
		if !a.libres[i] {
			continue
		}
		a.libres[i] = false
		a.disponibles--
		a.siguiente = (i + 1) % len(a.libres)

		ppn := NumMarco(i)
		a.fisica.limpiarMarco(ppn)

		utils.InfoLog.Debug("Marco asignado", "marco", i, "disponibles", a.disponibles)
		return ppn, nil
	}

	// disponibles > 0 pero el bitmap no tiene libres
	return 0, errors.Errorf("bitmap de marcos inconsistente: %d disponibles sin marcos libres", a.disponibles)
}

// Liberar devuelve un marco asignado. Se limpia para que la próxima tarea
// que lo reciba no vea datos viejos.
func (a *AsignadorMarcos) Liberar(ppn NumMarco) error {
	if uint64(ppn) < a.reservados || uint64(ppn) >= uint64(len(a.libres)) || a.libres[ppn] {
		return errors.Wrapf(ErrMarcoInvalido, "marco %d", ppn)
	}

	a.fisica.limpiarMarco(ppn)
	a.libres[ppn] = true
	a.disponibles++

	utils.InfoLog.Debug("Marco liberado", "marco", uint64(ppn), "disponibles", a.disponibles)
	return nil
}

// Disponibles devuelve la cantidad de marcos que todavía se pueden asignar
func (a *AsignadorMarcos) Disponibles() uint64 {
	return a.disponibles
}

// Total devuelve la cantidad de marcos de la memoria física
func (a *AsignadorMarcos) Total() uint64 {
	return uint64(len(a.libres))
}
