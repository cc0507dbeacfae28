package kernel

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
)

var (
	ErrSinTareaActual      = errors.New("no hay ninguna tarea en ejecución")
	ErrSyscallDesconocida  = errors.New("syscall no soportada")
	ErrVolvioDeExit        = errors.New("la tarea siguió ejecutando después de exit")
	ErrKernelEnEjecucion   = errors.New("el kernel ya está en ejecución")
	ErrTraduccionConfiable = errors.New("puntero de la tarea sin traducción válida")
)

// ErrorFatal es una violación de un invariante del kernel. Se propaga con
// panic desde la tarea que la provocó y detiene la máquina.
type ErrorFatal struct {
	PID   int
	Causa error
}

func (e *ErrorFatal) Error() string {
	return fmt.Sprintf("error fatal del kernel (tarea %d): %v", e.PID, e.Causa)
}

func (e *ErrorFatal) Unwrap() error { return e.Causa }

func (e *ErrorFatal) Cause() error { return e.Causa }

// Is hace que cualquier fallo de traducción sobre un puntero que pasó la
// tarea cuente como ErrTraduccionConfiable.
func (e *ErrorFatal) Is(target error) bool {
	if target != ErrTraduccionConfiable {
		return false
	}
	var errTrad *memoria.ErrorTraduccion
	return errors.As(e.Causa, &errTrad)
}

func fatal(pid int, causa error) {
	panic(&ErrorFatal{PID: pid, Causa: causa})
}
