package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSemaforoNoSuperaCapacidad(t *testing.T) {
	s := NewSemaforo(1, 1)
	s.Signal()
	s.Signal()

	assert.True(t, s.TryWait())
	assert.False(t, s.TryWait(), "la capacidad es 1")
}

func TestSemaforoWaitBloqueaHastaSignal(t *testing.T) {
	s := NewSemaforo(1, 0)
	listo := make(chan struct{})
	go func() {
		s.Wait()
		close(listo)
	}()

	select {
	case <-listo:
		t.Fatal("Wait no debería volver sin señal")
	case <-time.After(20 * time.Millisecond):
	}

	s.Signal()
	select {
	case <-listo:
	case <-time.After(time.Second):
		t.Fatal("Wait no volvió después de Signal")
	}
}

func TestSemaforoCanal(t *testing.T) {
	s := NewSemaforo(0, 5)
	select {
	case <-s.Canal():
	default:
		t.Fatal("con capacidad mínima 1 y una señal inicial el canal tiene que estar listo")
	}
}
