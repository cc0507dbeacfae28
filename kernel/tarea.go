package kernel

import (
	"fmt"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// EstadoTarea es el estado de una tarea. El valor numérico es el que se
// escribe en TaskInfo.
type EstadoTarea uint32

const (
	TareaNoIniciada EstadoTarea = iota
	TareaLista
	TareaEjecutando
	TareaTerminada
)

func (e EstadoTarea) String() string {
	switch e {
	case TareaNoIniciada:
		return "UNINIT"
	case TareaLista:
		return "READY"
	case TareaEjecutando:
		return "RUNNING"
	case TareaTerminada:
		return "EXITED"
	default:
		return fmt.Sprintf("ESTADO(%d)", uint32(e))
	}
}

// Programa es el código de usuario de una tarea
type Programa func(u *Usuario)

// Tarea es el bloque de control de una tarea
type Tarea struct {
	PID          int
	Estado       EstadoTarea
	Espacio      *memoria.EspacioDirecciones
	VecesSyscall [MaxSyscallNum]uint32
	InicioUs     uint64 // Microsegundos en la primera planificación
	CodigoSalida int32

	programa Programa
	turno    *utils.Semaforo
	iniciada bool
}

func nuevaTarea(pid int, espacio *memoria.EspacioDirecciones, programa Programa) *Tarea {
	t := &Tarea{
		PID:      pid,
		Estado:   TareaNoIniciada,
		Espacio:  espacio,
		programa: programa,
		turno:    utils.NewSemaforo(1, 0),
	}

	utils.InfoLog.Info(fmt.Sprintf("(%d) - Se crea la tarea - Estado: %s", t.PID, t.Estado))
	return t
}

// CambiarEstado registra la transición con el log obligatorio
func (t *Tarea) CambiarEstado(nuevoEstado EstadoTarea) {
	if t.Estado == nuevoEstado {
		return
	}
	estadoAnterior := t.Estado
	t.Estado = nuevoEstado

	utils.InfoLog.Info(fmt.Sprintf("(%d) - Pasa del estado %s al estado %s", t.PID, estadoAnterior, nuevoEstado))
}

// ResumenTarea es la vista de una tarea que se muestra hacia afuera
type ResumenTarea struct {
	PID          int                     `json:"pid"`
	Estado       string                  `json:"estado"`
	InicioUs     uint64                  `json:"inicio_us"`
	CodigoSalida int32                   `json:"codigo_salida"`
	Syscalls     map[int]uint32          `json:"syscalls"`
	Areas        []memoria.ResumenArea   `json:"areas"`
	Paginas      uint64                  `json:"paginas"`
	Metricas     memoria.MetricasEspacio `json:"metricas"`
}

func (t *Tarea) resumen() ResumenTarea {
	syscalls := make(map[int]uint32)
	for id, veces := range t.VecesSyscall {
		if veces > 0 {
			syscalls[id] = veces
		}
	}
	return ResumenTarea{
		PID:          t.PID,
		Estado:       t.Estado.String(),
		InicioUs:     t.InicioUs,
		CodigoSalida: t.CodigoSalida,
		Syscalls:     syscalls,
		Areas:        t.Espacio.Areas(),
		Paginas:      t.Espacio.PaginasMapeadas(),
		Metricas:     t.Espacio.Metricas(),
	}
}
