package kernel

import (
	"fmt"
	"runtime"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// CodigoFalloPagina es el código de salida de una tarea que el kernel
// termina por acceder a memoria que no le pertenece.
const CodigoFalloPagina = -2

// Usuario es lo que ve el programa de una tarea: las syscalls y el acceso a
// su propia memoria a través de la tabla de páginas.
type Usuario struct {
	k   *Kernel
	pid int
}

// PID devuelve el identificador de la tarea
func (u *Usuario) PID() int {
	return u.pid
}

// Pila devuelve el rango virtual de la pila de usuario
func (u *Usuario) Pila() (inicio, fin memoria.DirVirtual) {
	inicio = memoria.DirVirtual(u.k.config.UserStackBase)
	return inicio, inicio + memoria.DirVirtual(u.k.config.UserStackSize)
}

// Syscall hace la llamada id con los tres argumentos crudos
func (u *Usuario) Syscall(id int, a0, a1, a2 uint64) int {
	return u.k.Despachar(id, ArgsSyscall{A0: a0, A1: a1, A2: a2})
}

// Write escribe n bytes de buf en el descriptor fd
func (u *Usuario) Write(fd uint64, buf memoria.DirVirtual, n uint64) int {
	return u.Syscall(SyscallWrite, fd, uint64(buf), n)
}

// Exit no vuelve
func (u *Usuario) Exit(codigo int32) {
	u.Syscall(SyscallExit, uint64(int64(codigo)), 0, 0)
}

// Yield cede el turno a la siguiente tarea lista
func (u *Usuario) Yield() int {
	return u.Syscall(SyscallYield, 0, 0, 0)
}

// GetTime deja en ts la hora actual como TimeVal
func (u *Usuario) GetTime(ts memoria.DirVirtual) int {
	return u.Syscall(SyscallGetTime, uint64(ts), 0, 0)
}

// SetPriority siempre devuelve -1
func (u *Usuario) SetPriority(prioridad int64) int {
	return u.Syscall(SyscallSetPriority, uint64(prioridad), 0, 0)
}

// Mmap mapea [inicio, inicio+largo) con los permisos de puerto
func (u *Usuario) Mmap(inicio, largo, puerto uint64) int {
	return u.Syscall(SyscallMmap, inicio, largo, puerto)
}

// Munmap desmapea [inicio, inicio+largo)
func (u *Usuario) Munmap(inicio, largo uint64) int {
	return u.Syscall(SyscallMunmap, inicio, largo, 0)
}

// TaskInfo deja en ti el TaskInfo de la tarea
func (u *Usuario) TaskInfo(ti memoria.DirVirtual) int {
	return u.Syscall(SyscallTaskInfo, uint64(ti), 0, 0)
}

// Escribir guarda datos en memoria de la tarea. Un acceso inválido termina
// la tarea con CodigoFalloPagina.
func (u *Usuario) Escribir(va memoria.DirVirtual, datos []byte) {
	if err := u.k.admin.escribirComoUsuario(va, datos); err != nil {
		u.falloDePagina(err)
	}
}

// Leer trae n bytes de memoria de la tarea, con las mismas reglas que
// Escribir. Un largo negativo o mayor que la memoria física es un fallo de
// página: ningún rango así puede estar mapeado.
func (u *Usuario) Leer(va memoria.DirVirtual, n int) []byte {
	if n < 0 || uint64(n) > u.k.config.MemorySize {
		u.falloDePagina(&memoria.ErrorTraduccion{
			Direccion: va,
			Requerido: memoria.PermUsuario | memoria.PermLectura,
			Motivo:    memoria.ErrRangoInvalido,
		})
	}
	datos, err := u.k.admin.LeerDeTareaActual(va, n)
	if err != nil {
		u.falloDePagina(err)
	}
	return datos
}

func (u *Usuario) falloDePagina(err error) {
	utils.InfoLog.Info(fmt.Sprintf("## (%d) - Fallo de página: %v", u.pid, err))
	u.k.admin.SalirActualYEjecutarSiguiente(CodigoFalloPagina)
	runtime.Goexit()
}
