package kernel

import "time"

// Reloj es la fuente de tiempo del kernel
type Reloj interface {
	MicrosegundosActuales() uint64
}

// RelojSistema mide microsegundos desde que arrancó el kernel
type RelojSistema struct {
	arranque time.Time
}

// NuevoRelojSistema usa la hora de la máquina
func NuevoRelojSistema() *RelojSistema {
	return &RelojSistema{arranque: time.Now()}
}

func (r *RelojSistema) MicrosegundosActuales() uint64 {
	return uint64(time.Since(r.arranque).Microseconds())
}
