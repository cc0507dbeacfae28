package utils

// Semaforo implementa un semáforo contador con canales
type Semaforo struct {
	c chan struct{}
}

// NewSemaforo crea un semáforo con `capacidad` señales como máximo
// y `inicial` señales ya disponibles
func NewSemaforo(capacidad int, inicial int) *Semaforo {
	if capacidad <= 0 {
		capacidad = 1
	}
	s := &Semaforo{
		c: make(chan struct{}, capacidad),
	}
	for i := 0; i < inicial && i < capacidad; i++ {
		s.c <- struct{}{}
	}
	return s
}

// Wait (P) consume una señal, bloquea si no hay ninguna
func (s *Semaforo) Wait() {
	<-s.c
}

// Signal (V) deja una señal disponible
func (s *Semaforo) Signal() {
	select {
	case s.c <- struct{}{}:
	default:
		// Capacidad completa, no hace nada para prevenir incremento excesivo
	}
}

// TryWait intenta consumir una señal sin bloquear
func (s *Semaforo) TryWait() bool {
	select {
	case <-s.c:
		return true
	default:
		return false
	}
}

// Canal expone el canal interno para usarlo dentro de un select
func (s *Semaforo) Canal() <-chan struct{} {
	return s.c
}
