package kernel

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
)

func TestPlanificacionEnRonda(t *testing.T) {
	k := kernelDePrueba(t)
	var traza []string
	programa := func(nombre string, vueltas int) Programa {
		return func(u *Usuario) {
			for i := 1; i <= vueltas; i++ {
				traza = append(traza, fmt.Sprintf("%s%d", nombre, i))
				u.Yield()
			}
		}
	}

	err := ejecutarProgramas(t, k, programa("A", 2), programa("B", 3), programa("C", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B1", "C1", "A2", "B2", "B3"}, traza)
}

func TestYieldConUnaSolaTarea(t *testing.T) {
	k := kernelDePrueba(t)
	vueltas := 0
	err := ejecutarProgramas(t, k, func(u *Usuario) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, 0, u.Yield())
			vueltas++
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, vueltas)
}

func TestEjecutarSinTareas(t *testing.T) {
	k := kernelDePrueba(t)
	assert.NoError(t, k.Ejecutar(context.Background()))
	_, err := k.CargarPrograma(func(u *Usuario) {})
	assert.True(t, errors.Is(err, ErrKernelEnEjecucion))
	assert.True(t, errors.Is(k.Ejecutar(context.Background()), ErrKernelEnEjecucion))
}

func TestFalloDePaginaTerminaSoloEsaTarea(t *testing.T) {
	k := kernelDePrueba(t)
	siguioEjecutando := false
	otraTermino := false

	err := ejecutarProgramas(t, k,
		func(u *Usuario) {
			u.Escribir(0x5000, []byte{1})
			siguioEjecutando = true
		},
		func(u *Usuario) {
			assert.Equal(t, 0, u.Mmap(0x1000, 4096, 0x1))
			u.Leer(0x1000, 8)
			u.Escribir(0x1000, []byte{1})
			siguioEjecutando = true
		},
		func(u *Usuario) {
			otraTermino = true
		},
	)
	require.NoError(t, err)

	assert.False(t, siguioEjecutando)
	assert.True(t, otraTermino)
	tareas := k.Administrador().Instantanea()
	assert.Equal(t, int32(CodigoFalloPagina), tareas[0].CodigoSalida)
	assert.Equal(t, int32(CodigoFalloPagina), tareas[1].CodigoSalida)
	assert.Equal(t, int32(0), tareas[2].CodigoSalida)
	assert.Equal(t, uint64(marcosDePrueba), k.Administrador().MarcosDisponibles())
}

func TestLecturaConLargoEnormeTerminaSoloEsaTarea(t *testing.T) {
	k := kernelDePrueba(t)
	leyo := false

	err := ejecutarProgramas(t, k,
		func(u *Usuario) {
			pila, _ := u.Pila()
			largo := ^uint64(0)
			u.Leer(pila, int(largo))
			leyo = true
		},
		func(u *Usuario) {
			pila, _ := u.Pila()
			u.Leer(pila, 1<<40)
			leyo = true
		},
		func(u *Usuario) {
			pila, fin := u.Pila()
			assert.Len(t, u.Leer(pila, int(fin-pila)), 4096)
			u.Exit(3)
		},
	)
	require.NoError(t, err)

	assert.False(t, leyo)
	tareas := k.Administrador().Instantanea()
	assert.Equal(t, int32(CodigoFalloPagina), tareas[0].CodigoSalida)
	assert.Equal(t, int32(CodigoFalloPagina), tareas[1].CodigoSalida)
	assert.Equal(t, "EXITED", tareas[2].Estado)
	assert.Equal(t, int32(3), tareas[2].CodigoSalida)
}

func TestPunteroSinMapearEsFatal(t *testing.T) {
	k := kernelDePrueba(t)
	err := ejecutarProgramas(t, k,
		func(u *Usuario) {
			u.GetTime(0x9000)
		},
		func(u *Usuario) {
			t.Error("la máquina se detuvo, la segunda tarea no debería ejecutar")
		},
	)

	var errFatal *ErrorFatal
	require.True(t, errors.As(err, &errFatal))
	assert.Equal(t, 0, errFatal.PID)
	assert.True(t, errors.Is(err, ErrTraduccionConfiable))
	assert.True(t, errors.Is(err, memoria.ErrNoMapeado))

	var errTrad *memoria.ErrorTraduccion
	require.True(t, errors.As(err, &errTrad))
	assert.Equal(t, memoria.DirVirtual(0x9000), errTrad.Direccion)
}

func TestTraducirEnTareaActual(t *testing.T) {
	k := kernelDePrueba(t)
	err := ejecutarProgramas(t, k, func(u *Usuario) {
		pila, _ := u.Pila()
		u.Escribir(pila+0x10, []byte{0xab})

		pa := k.Administrador().TraducirEnTareaActual(pila + 0x10)
		assert.Equal(t, uint64(0x10), uint64(pa)%4096)
		dato, err := k.fisica.Bytes(pa, 1)
		assert.NoError(t, err)
		assert.Equal(t, []byte{0xab}, dato)

		k.Administrador().TraducirEnTareaActual(0x9000)
		t.Error("traducir una dirección sin mapear tendría que detener la máquina")
	})

	var errFatal *ErrorFatal
	require.True(t, errors.As(err, &errFatal))
	assert.True(t, errors.Is(err, ErrTraduccionConfiable))
}

func TestTaskInfoSobrePaginaDeSoloLecturaEsFatal(t *testing.T) {
	k := kernelDePrueba(t)
	err := ejecutarProgramas(t, k, func(u *Usuario) {
		assert.Equal(t, 0, u.Mmap(0x1000, 4096, 0x1))
		u.TaskInfo(0x1000)
	})

	var errTrad *memoria.ErrorTraduccion
	require.True(t, errors.As(err, &errTrad))
	assert.Equal(t, memoria.DirVirtual(0x1000), errTrad.Direccion)
	assert.True(t, errors.Is(err, memoria.ErrPermisoInvalido))
}

func TestTaskInfoQueCruzaElFinDeLaPaginaEsFatal(t *testing.T) {
	k := kernelDePrueba(t)
	err := ejecutarProgramas(t, k, func(u *Usuario) {
		_, fin := u.Pila()
		u.TaskInfo(fin - 8)
	})

	var errFatal *ErrorFatal
	require.True(t, errors.As(err, &errFatal))
	assert.True(t, errors.Is(err, memoria.ErrNoMapeado))
}

func TestSyscallDesconocidaEsFatal(t *testing.T) {
	for _, id := range []int{1, 499, MaxSyscallNum, -4} {
		t.Run(fmt.Sprint(id), func(t *testing.T) {
			k := kernelDePrueba(t)
			err := ejecutarProgramas(t, k, func(u *Usuario) {
				u.Syscall(id, 0, 0, 0)
			})
			assert.True(t, errors.Is(err, ErrSyscallDesconocida))
		})
	}
}

func TestCancelarEjecucion(t *testing.T) {
	k := kernelDePrueba(t)
	eterna := func(u *Usuario) {
		for {
			u.Yield()
		}
	}
	for i := 0; i < 2; i++ {
		_, err := k.CargarPrograma(eterna)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := k.Ejecutar(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	select {
	case <-k.Administrador().Detenida():
	case <-time.After(time.Second):
		t.Fatal("la máquina no se detuvo")
	}
	assert.Error(t, k.Administrador().Err())
}
