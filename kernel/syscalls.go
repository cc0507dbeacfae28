package kernel

import (
	"fmt"
	"runtime"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

const fdSalidaEstandar = 1

// SysWrite escribe en la consola del kernel los n bytes que la tarea tiene
// en buf. Sólo se soporta fd 1.
func (k *Kernel) SysWrite(fd uint64, buf memoria.DirVirtual, n uint64) int {
	pid := k.admin.PIDActual()
	if fd != fdSalidaEstandar {
		utils.InfoLog.Info("write con fd no soportado", "pid", pid, "fd", fd)
		return -1
	}
	if n > k.config.MemorySize {
		return -1
	}
	datos, err := k.admin.LeerDeTareaActual(buf, int(n))
	if err != nil {
		utils.InfoLog.Info("write con buffer inválido", "pid", pid, "error", err)
		return -1
	}
	escritos, err := k.consola.Write(datos)
	if err != nil {
		utils.ErrorLog.Error("Error escribiendo en consola", "pid", pid, "error", err)
		return -1
	}
	return escritos
}

// SysExit termina la tarea actual y le pasa el turno a la siguiente. No
// vuelve nunca: la goroutine de la tarea termina acá.
func (k *Kernel) SysExit(codigo int32) {
	pid := k.admin.PIDActual()
	utils.InfoLog.Info(fmt.Sprintf("## (%d) - Solicitó syscall: EXIT - Código: %d", pid, codigo))

	k.admin.SalirActualYEjecutarSiguiente(codigo)
	runtime.Goexit()

	fatal(pid, ErrVolvioDeExit)
}

// SysYield cede el turno y devuelve 0 cuando la tarea vuelve a ejecutar
func (k *Kernel) SysYield() int {
	k.admin.SuspenderActualYEjecutarSiguiente()
	return 0
}

// SysGetTime escribe la hora actual en ts. tz no se usa. Si ts no es
// memoria escribible de la tarea la máquina se detiene.
func (k *Kernel) SysGetTime(ts memoria.DirVirtual, _ uint64) int {
	tv := NuevoTimeVal(k.reloj.MicrosegundosActuales())
	k.admin.EscribirEnTareaActual(ts, tv.Codificar())
	return 0
}

// SysSetPriority no está implementada: siempre devuelve -1
func (k *Kernel) SysSetPriority(_ int64) int {
	return -1
}

// SysMmap mapea [inicio, inicio+largo) con los permisos de port en la tarea
// actual. Devuelve 0 o -1.
func (k *Kernel) SysMmap(inicio, largo, puerto uint64) int {
	if !k.geo.Alineada(memoria.DirVirtual(inicio)) {
		return -1
	}
	perm, err := memoria.DecodificarPuerto(puerto)
	if err != nil {
		return -1
	}
	fin := inicio + largo
	if largo == 0 || fin < inicio {
		return -1
	}

	necesarios := k.geo.PaginasNecesarias(largo)
	if disponibles := k.admin.MarcosDisponibles(); necesarios > disponibles {
		utils.ErrorLog.Error("can't alloc!", "pid", k.admin.PIDActual(), "marcos_pedidos", necesarios, "marcos_disponibles", disponibles)
		return -1
	}

	return k.admin.MmapTareaActual(memoria.DirVirtual(inicio), memoria.DirVirtual(fin), perm)
}

// SysMunmap desmapea [inicio, inicio+largo) de la tarea actual
func (k *Kernel) SysMunmap(inicio, largo uint64) int {
	if !k.geo.Alineada(memoria.DirVirtual(inicio)) {
		return -1
	}
	fin := inicio + largo
	if largo == 0 || fin < inicio {
		return -1
	}
	return k.admin.MunmapTareaActual(memoria.DirVirtual(inicio), memoria.DirVirtual(fin))
}

// SysTaskInfo escribe en ti el estado de la tarea actual. Status siempre
// es Running: quien llama es la tarea en ejecución.
func (k *Kernel) SysTaskInfo(ti memoria.DirVirtual) int {
	ahora := k.reloj.MicrosegundosActuales()
	info := TaskInfo{
		Status:       TareaEjecutando,
		SyscallTimes: k.admin.VecesSyscallTareaActual(),
		Time:         (ahora - k.admin.InicioTareaActual()) / 1000,
	}
	k.admin.EscribirEnTareaActual(ti, info.Codificar())
	return 0
}
