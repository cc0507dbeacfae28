package memoria

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrSolapamiento    = errors.New("el rango se solapa con un área ya mapeada")
	ErrNoMapeado       = errors.New("el rango contiene páginas sin mapear")
	ErrSinMarcos       = errors.New("no hay marcos libres disponibles")
	ErrRangoInvalido   = errors.New("rango de direcciones inválido")
	ErrPermisoInvalido = errors.New("permiso inválido")
	ErrMarcoInvalido   = errors.New("marco fuera de la memoria física o ya libre")
)

// ErrorTraduccion describe un acceso a memoria de una tarea que no se pudo
// resolver: la página no está mapeada o no tiene el permiso pedido.
type ErrorTraduccion struct {
	Direccion DirVirtual
	Requerido Permiso
	Motivo    error
}

func (e *ErrorTraduccion) Error() string {
	return fmt.Sprintf("traducción fallida en %#x (requerido %s): %v", uint64(e.Direccion), e.Requerido, e.Motivo)
}

func (e *ErrorTraduccion) Unwrap() error { return e.Motivo }

// Cause permite usar errors.Cause de github.com/pkg/errors
func (e *ErrorTraduccion) Cause() error { return e.Motivo }
