package kernel

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// AdministradorTareas es la única autoridad sobre qué tarea está en
// ejecución. Todas las operaciones sobre la tarea actual toman el mutex por
// el tiempo que dura el acceso.
type AdministradorTareas struct {
	mu     sync.Mutex
	tareas []*Tarea
	actual int // índice en tareas, -1 si no hay ninguna

	geo    memoria.Geometria
	marcos memoria.Marcos
	fisica *memoria.MemoriaFisica
	reloj  Reloj

	detenida chan struct{}
	unaVez   sync.Once
	errFinal error
}

// NuevoAdministradorTareas crea el administrador sin tareas cargadas
func NuevoAdministradorTareas(geo memoria.Geometria, marcos memoria.Marcos, fisica *memoria.MemoriaFisica, reloj Reloj) *AdministradorTareas {
	return &AdministradorTareas{
		actual:   -1,
		geo:      geo,
		marcos:   marcos,
		fisica:   fisica,
		reloj:    reloj,
		detenida: make(chan struct{}),
	}
}

// tareaActual requiere el mutex tomado
func (a *AdministradorTareas) tareaActual() *Tarea {
	if a.actual < 0 {
		fatal(-1, ErrSinTareaActual)
	}
	return a.tareas[a.actual]
}

// CargarTarea crea una tarea lista para ejecutar con su pila de usuario
// mapeada en [pilaInicio, pilaFin).
func (a *AdministradorTareas) CargarTarea(programa Programa, pilaInicio, pilaFin memoria.DirVirtual) (*Tarea, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	espacio := memoria.NuevoEspacioDirecciones(a.geo, a.marcos, a.fisica)
	if pilaFin > pilaInicio {
		perm := memoria.PermLectura | memoria.PermEscritura | memoria.PermUsuario
		if err := espacio.Mapear(pilaInicio, pilaFin, perm); err != nil {
			return nil, errors.Wrap(err, "no se pudo mapear la pila de usuario")
		}
	}

	tarea := nuevaTarea(len(a.tareas), espacio, programa)
	tarea.CambiarEstado(TareaLista)
	a.tareas = append(a.tareas, tarea)
	return tarea, nil
}

// TraducirEnTareaActual traduce un puntero que la tarea actual pasó como
// argumento. El puntero tiene que venir de memoria que la propia tarea
// mapeó: si no traduce es un error fatal.
func (a *AdministradorTareas) TraducirEnTareaActual(va memoria.DirVirtual) memoria.DirFisica {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea := a.tareaActual()
	pa, ok := tarea.Espacio.Traducir(va)
	if !ok {
		fatal(tarea.PID, errors.Wrapf(ErrTraduccionConfiable, "dirección %#x", uint64(va)))
	}
	return pa
}

// EscribirEnTareaActual escribe datos del kernel en memoria de la tarea
// actual. Traduce cada página que toca, y un fallo es fatal igual que en
// TraducirEnTareaActual.
func (a *AdministradorTareas) EscribirEnTareaActual(va memoria.DirVirtual, datos []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea := a.tareaActual()
	if err := tarea.Espacio.Escribir(va, datos, memoria.PermUsuario); err != nil {
		fatal(tarea.PID, errors.Wrap(err, "escritura del kernel en memoria de la tarea"))
	}
}

// LeerDeTareaActual lee memoria de la tarea actual con permiso de usuario
func (a *AdministradorTareas) LeerDeTareaActual(va memoria.DirVirtual, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.tareaActual().Espacio.Leer(va, n, memoria.PermUsuario)
}

// escribirComoUsuario es la escritura que hace el propio código de la tarea
func (a *AdministradorTareas) escribirComoUsuario(va memoria.DirVirtual, datos []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.tareaActual().Espacio.Escribir(va, datos, memoria.PermUsuario)
}

// MmapTareaActual mapea [inicio, fin) en la tarea actual. Devuelve 0 o -1.
func (a *AdministradorTareas) MmapTareaActual(inicio, fin memoria.DirVirtual, perm memoria.Permiso) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea := a.tareaActual()
	if err := tarea.Espacio.Mapear(inicio, fin, perm); err != nil {
		utils.InfoLog.Info("mmap rechazado", "pid", tarea.PID, "inicio", uint64(inicio), "fin", uint64(fin), "motivo", err)
		return -1
	}
	return 0
}

// MunmapTareaActual desmapea [inicio, fin) de la tarea actual. Devuelve 0 o -1.
func (a *AdministradorTareas) MunmapTareaActual(inicio, fin memoria.DirVirtual) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea := a.tareaActual()
	if err := tarea.Espacio.Desmapear(inicio, fin); err != nil {
		utils.InfoLog.Info("munmap rechazado", "pid", tarea.PID, "inicio", uint64(inicio), "fin", uint64(fin), "motivo", err)
		return -1
	}
	return 0
}

// VecesSyscallTareaActual devuelve una copia de los contadores
func (a *AdministradorTareas) VecesSyscallTareaActual() [MaxSyscallNum]uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.tareaActual().VecesSyscall
}

// InicioTareaActual devuelve el instante, en microsegundos, en que la tarea
// actual se planificó por primera vez
func (a *AdministradorTareas) InicioTareaActual() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.tareaActual().InicioUs
}

// ContarSyscall suma una invocación de id a la tarea actual. Los ids fuera
// de la tabla no se cuentan.
func (a *AdministradorTareas) ContarSyscall(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if id < 0 || id >= MaxSyscallNum {
		return
	}
	a.tareaActual().VecesSyscall[id]++
}

// PIDActual devuelve el PID de la tarea en ejecución, o -1
func (a *AdministradorTareas) PIDActual() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.actual < 0 {
		return -1
	}
	return a.tareas[a.actual].PID
}

// MarcosDisponibles devuelve cuántos marcos quedan para asignar
func (a *AdministradorTareas) MarcosDisponibles() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.marcos.Disponibles()
}

// Instantanea copia la tabla de tareas para mostrarla
func (a *AdministradorTareas) Instantanea() []ResumenTarea {
	a.mu.Lock()
	defer a.mu.Unlock()

	resumen := make([]ResumenTarea, 0, len(a.tareas))
	for _, tarea := range a.tareas {
		resumen = append(resumen, tarea.resumen())
	}
	return resumen
}

// VolcarTarea escribe el dump del espacio de la tarea pid en dir
func (a *AdministradorTareas) VolcarTarea(dir string, pid int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea, err := a.buscarTarea(pid)
	if err != nil {
		return "", err
	}
	return memoria.CrearMemoryDump(dir, pid, tarea.Espacio)
}

// AreasDeTarea devuelve las áreas mapeadas de la tarea pid
func (a *AdministradorTareas) AreasDeTarea(pid int) ([]memoria.ResumenArea, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	tarea, err := a.buscarTarea(pid)
	if err != nil {
		return nil, err
	}
	return tarea.Espacio.Areas(), nil
}

func (a *AdministradorTareas) buscarTarea(pid int) (*Tarea, error) {
	if pid < 0 || pid >= len(a.tareas) {
		return nil, errors.Errorf("no existe la tarea %d", pid)
	}
	return a.tareas[pid], nil
}

// Detenida se cierra cuando la máquina se detiene
func (a *AdministradorTareas) Detenida() <-chan struct{} {
	return a.detenida
}

// Detener detiene la máquina. err queda como resultado de la ejecución; sólo
// cuenta la primera llamada.
func (a *AdministradorTareas) Detener(err error) {
	a.unaVez.Do(func() {
		a.errFinal = err
		close(a.detenida)
		if err != nil {
			utils.ErrorLog.Error(fmt.Sprintf("## Máquina detenida: %v", err))
		} else {
			utils.InfoLog.Info("## Máquina detenida: no quedan tareas listas")
		}
	})
}

// Err devuelve el motivo de la detención. Sólo es válido después de que se
// cerró Detenida.
func (a *AdministradorTareas) Err() error {
	<-a.detenida
	return a.errFinal
}
