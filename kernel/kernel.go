package kernel

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// Kernel reúne la memoria física, el administrador de tareas y la tabla de
// syscalls. Cada syscall recibe el kernel en lugar de usar estado global.
type Kernel struct {
	config KernelConfig
	geo    memoria.Geometria
	fisica *memoria.MemoriaFisica
	marcos *memoria.AsignadorMarcos
	admin  *AdministradorTareas

	reloj   Reloj
	consola io.Writer
	trazas  hclog.Logger

	wg       sync.WaitGroup
	iniciado atomic.Bool
}

// Opcion modifica el kernel al crearlo
type Opcion func(*Kernel)

// ConReloj reemplaza el reloj del sistema
func ConReloj(reloj Reloj) Opcion {
	return func(k *Kernel) { k.reloj = reloj }
}

// ConConsola cambia a dónde escribe la syscall write con fd 1
func ConConsola(w io.Writer) Opcion {
	return func(k *Kernel) { k.consola = w }
}

// ConTrazas reemplaza el logger de trazas del despacho de syscalls
func ConTrazas(logger hclog.Logger) Opcion {
	return func(k *Kernel) { k.trazas = logger }
}

// NuevoKernel reserva la memoria física y arma el asignador de marcos
func NuevoKernel(config KernelConfig, opciones ...Opcion) (*Kernel, error) {
	if err := config.Validar(); err != nil {
		return nil, err
	}
	geo, err := config.Geometria()
	if err != nil {
		return nil, err
	}

	fisica, err := memoria.NuevaMemoriaFisica(config.MemorySize, geo)
	if err != nil {
		return nil, err
	}
	marcos, err := memoria.NuevoAsignadorMarcos(fisica, config.KernelFrames)
	if err != nil {
		fisica.Cerrar()
		return nil, err
	}

	k := &Kernel{
		config:  config,
		geo:     geo,
		fisica:  fisica,
		marcos:  marcos,
		reloj:   NuevoRelojSistema(),
		consola: os.Stdout,
	}
	for _, opcion := range opciones {
		opcion(k)
	}
	if k.trazas == nil {
		k.trazas = hclog.New(&hclog.LoggerOptions{
			Name:   "syscall",
			Level:  hclog.LevelFromString(config.LogLevel),
			Output: os.Stderr,
		})
	}
	k.admin = NuevoAdministradorTareas(geo, marcos, fisica, k.reloj)

	utils.InfoLog.Info("Kernel inicializado",
		"marcos_totales", marcos.Total(),
		"marcos_disponibles", marcos.Disponibles(),
		"niveles", geo.Niveles,
		"entradas_por_tabla", geo.Entradas)
	return k, nil
}

// Administrador devuelve el administrador de tareas del kernel
func (k *Kernel) Administrador() *AdministradorTareas {
	return k.admin
}

// Geometria devuelve los parámetros de paginación
func (k *Kernel) Geometria() memoria.Geometria {
	return k.geo
}

// CargarPrograma crea una tarea nueva que va a ejecutar programa. Sólo se
// puede llamar antes de Ejecutar.
func (k *Kernel) CargarPrograma(programa Programa) (int, error) {
	if k.iniciado.Load() {
		return -1, ErrKernelEnEjecucion
	}
	inicio := memoria.DirVirtual(k.config.UserStackBase)
	fin := inicio + memoria.DirVirtual(k.config.UserStackSize)
	tarea, err := k.admin.CargarTarea(programa, inicio, fin)
	if err != nil {
		return -1, err
	}
	return tarea.PID, nil
}

// Ejecutar corre las tareas cargadas hasta que terminan todas, hasta que
// una viola un invariante del kernel o hasta que se cancela ctx.
func (k *Kernel) Ejecutar(ctx context.Context) error {
	if !k.iniciado.CompareAndSwap(false, true) {
		return ErrKernelEnEjecucion
	}

	k.admin.mu.Lock()
	tareas := append([]*Tarea(nil), k.admin.tareas...)
	k.admin.mu.Unlock()

	utils.InfoLog.Info("Iniciando ejecución de tareas", "cantidad", len(tareas))
	for _, tarea := range tareas {
		k.wg.Add(1)
		go k.correrTarea(tarea)
	}
	k.admin.Iniciar()

	select {
	case <-k.admin.Detenida():
		k.wg.Wait()
		return k.admin.Err()
	case <-ctx.Done():
		k.admin.Detener(errors.Wrap(ctx.Err(), "ejecución cancelada"))
		return ctx.Err()
	}
}

// correrTarea es la goroutine de una tarea: espera su primer turno, corre el
// programa y, si el programa vuelve, hace exit(0).
func (k *Kernel) correrTarea(tarea *Tarea) {
	defer k.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			var errFatal *ErrorFatal
			err, ok := r.(error)
			if !ok || !errors.As(err, &errFatal) {
				errFatal = &ErrorFatal{PID: tarea.PID, Causa: errors.Errorf("pánico en la tarea: %v", r)}
			}
			utils.ErrorLog.Error("PÁNICO EN TAREA", "pid", tarea.PID, "error", errFatal)
			k.admin.Detener(errFatal)
		}
	}()

	k.admin.esperarTurno(tarea)
	usuario := &Usuario{k: k, pid: tarea.PID}
	tarea.programa(usuario)
	usuario.Exit(0)
}

// Cerrar devuelve la memoria física. El kernel no se puede usar después.
func (k *Kernel) Cerrar() error {
	k.admin.Detener(nil)
	k.wg.Wait()
	return k.fisica.Cerrar()
}
