package kernel

import (
	"fmt"
	"runtime"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// Cada tarea corre en su propia goroutine pero sólo la que tiene el turno
// ejecuta. El turno pasa de una tarea a otra únicamente en yield y exit.

// buscarSiguiente recorre la tabla en ronda a partir de desde+1 y devuelve
// la primera tarea lista (puede ser la misma desde). -1 si no hay ninguna.
func (a *AdministradorTareas) buscarSiguiente(desde int) int {
	n := len(a.tareas)
	for i := 1; i <= n; i++ {
		idx := (desde + i) % n
		if idx < 0 {
			idx += n
		}
		if a.tareas[idx].Estado == TareaLista {
			return idx
		}
	}
	return -1
}

// ejecutar pone en ejecución la tarea idx. Requiere el mutex tomado.
func (a *AdministradorTareas) ejecutar(idx int) *Tarea {
	tarea := a.tareas[idx]
	a.actual = idx
	if !tarea.iniciada {
		tarea.iniciada = true
		tarea.InicioUs = a.reloj.MicrosegundosActuales()
	}
	tarea.CambiarEstado(TareaEjecutando)
	return tarea
}

// esperarTurno bloquea hasta que la tarea vuelva a ser planificada. Si la
// máquina se detiene mientras tanto, la goroutine de la tarea termina.
func (a *AdministradorTareas) esperarTurno(tarea *Tarea) {
	select {
	case <-tarea.turno.Canal():
	case <-a.detenida:
		runtime.Goexit()
	}
}

// Iniciar planifica la primera tarea lista. Sin tareas la máquina se detiene.
func (a *AdministradorTareas) Iniciar() {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.buscarSiguiente(-1)
	if idx < 0 {
		a.actual = -1
		a.Detener(nil)
		return
	}
	a.ejecutar(idx).turno.Signal()
}

func (a *AdministradorTareas) rotar() (actual *Tarea, siguiente *Tarea) {
	a.mu.Lock()
	defer a.mu.Unlock()

	actual = a.tareaActual()
	actual.CambiarEstado(TareaLista)
	siguiente = a.ejecutar(a.buscarSiguiente(a.actual))
	return actual, siguiente
}

// SuspenderActualYEjecutarSiguiente deja lista a la tarea actual, le pasa el
// turno a la siguiente y vuelve cuando a la actual le toca de nuevo.
func (a *AdministradorTareas) SuspenderActualYEjecutarSiguiente() {
	actual, siguiente := a.rotar()
	if siguiente == actual {
		return
	}
	siguiente.turno.Signal()
	a.esperarTurno(actual)
}

// SalirActualYEjecutarSiguiente termina la tarea actual y devuelve todos sus
// marcos antes de elegir la siguiente. Si no queda ninguna lista, detiene la
// máquina. La goroutine que llama no debe seguir ejecutando código de la tarea.
func (a *AdministradorTareas) SalirActualYEjecutarSiguiente(codigo int32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea := a.tareaActual()
	tarea.CodigoSalida = codigo
	tarea.CambiarEstado(TareaTerminada)
	tarea.Espacio.Destruir()

	// Log obligatorio
	utils.InfoLog.Info(fmt.Sprintf("## (%d) - Finaliza la tarea - Código de salida: %d", tarea.PID, codigo))
	metricas := tarea.Espacio.Metricas()
	utils.InfoLog.Info(fmt.Sprintf("## (%d) - Métricas: ATP;%d;PagMap;%d;PagDesmap;%d;LecMem;%d;EscMem;%d;Fallos;%d",
		tarea.PID,
		metricas.AccesosTablasPaginas,
		metricas.PaginasMapeadas,
		metricas.PaginasDesmapeadas,
		metricas.LecturasMemoria,
		metricas.EscriturasMemoria,
		metricas.FallosTraduccion))

	idx := a.buscarSiguiente(a.actual)
	if idx < 0 {
		a.actual = -1
		a.Detener(nil)
		return
	}
	a.ejecutar(idx).turno.Signal()
}
