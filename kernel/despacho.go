package kernel

import (
	"runtime"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
)

// Números de syscall
const (
	SyscallWrite       = 64
	SyscallExit        = 93
	SyscallYield       = 124
	SyscallSetPriority = 140
	SyscallGetTime     = 169
	SyscallMunmap      = 215
	SyscallMmap        = 222
	SyscallTaskInfo    = 410
)

// ArgsSyscall son los registros de argumentos tal como llegan de la tarea
type ArgsSyscall struct {
	A0, A1, A2 uint64
}

type manejadorSyscall func(k *Kernel, log hclog.Logger, args ArgsSyscall) int

var (
	tablaSyscalls   [MaxSyscallNum]manejadorSyscall
	nombresSyscalls = map[int]string{
		SyscallWrite:       "WRITE",
		SyscallExit:        "EXIT",
		SyscallYield:       "YIELD",
		SyscallSetPriority: "SET_PRIORITY",
		SyscallGetTime:     "GET_TIME",
		SyscallMunmap:      "MUNMAP",
		SyscallMmap:        "MMAP",
		SyscallTaskInfo:    "TASK_INFO",
	}
)

func init() {
	tablaSyscalls[SyscallWrite] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		return k.SysWrite(args.A0, memoria.DirVirtual(args.A1), args.A2)
	}
	tablaSyscalls[SyscallExit] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		k.SysExit(int32(args.A0))
		return 0
	}
	tablaSyscalls[SyscallYield] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		return k.SysYield()
	}
	tablaSyscalls[SyscallSetPriority] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		return k.SysSetPriority(int64(args.A0))
	}
	tablaSyscalls[SyscallGetTime] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		return k.SysGetTime(memoria.DirVirtual(args.A0), args.A1)
	}
	tablaSyscalls[SyscallMunmap] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		return k.SysMunmap(args.A0, args.A1)
	}
	tablaSyscalls[SyscallMmap] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		ret := k.SysMmap(args.A0, args.A1, args.A2)
		if ret < 0 {
			log.Debug("mmap rechazado", "inicio", hclog.Hex(int(args.A0)), "largo", args.A1, "port", hclog.Hex(int(args.A2)))
		}
		return ret
	}
	tablaSyscalls[SyscallTaskInfo] = func(k *Kernel, log hclog.Logger, args ArgsSyscall) int {
		return k.SysTaskInfo(memoria.DirVirtual(args.A0))
	}
}

// NombreSyscall devuelve el nombre de la syscall id para los logs
func NombreSyscall(id int) string {
	if nombre, ok := nombresSyscalls[id]; ok {
		return nombre
	}
	return "DESCONOCIDA"
}

// Despachar cuenta la invocación para la tarea actual y la atiende. Una
// syscall que el kernel no conoce es fatal.
func (k *Kernel) Despachar(id int, args ArgsSyscall) int {
	select {
	case <-k.admin.Detenida():
		runtime.Goexit()
	default:
	}

	k.admin.ContarSyscall(id)
	pid := k.admin.PIDActual()
	log := k.trazas.With("pid", pid, "syscall", NombreSyscall(id))

	if id < 0 || id >= MaxSyscallNum || tablaSyscalls[id] == nil {
		fatal(pid, errors.Wrapf(ErrSyscallDesconocida, "id %d", id))
	}

	log.Trace("syscall recibida", "a0", hclog.Hex(int(args.A0)), "a1", hclog.Hex(int(args.A1)), "a2", hclog.Hex(int(args.A2)))
	ret := tablaSyscalls[id](k, log, args)
	log.Trace("syscall atendida", "retorno", ret)
	return ret
}
