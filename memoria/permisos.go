package memoria

import (
	"strings"

	"github.com/pkg/errors"
)

// Permiso es el conjunto de bits de permiso de una entrada de la tabla de
// páginas. Los valores coinciden con los bits R/W/X/U de una PTE.
type Permiso uint8

const (
	PermLectura   Permiso = 1 << 1
	PermEscritura Permiso = 1 << 2
	PermEjecucion Permiso = 1 << 3
	PermUsuario   Permiso = 1 << 4

	permisosAcceso = PermLectura | PermEscritura | PermEjecucion
	permisosTodos  = permisosAcceso | PermUsuario

	// bits válidos del argumento port de mmap
	mascaraPuerto = 0x7
)

// DecodificarPuerto valida el argumento port de mmap (bit0=R, bit1=W, bit2=X)
// y lo convierte en un permiso accesible desde modo usuario.
func DecodificarPuerto(puerto uint64) (Permiso, error) {
	if puerto&^mascaraPuerto != 0 {
		return 0, errors.Wrapf(ErrPermisoInvalido, "port %#x usa bits fuera de R/W/X", puerto)
	}
	if puerto&mascaraPuerto == 0 {
		return 0, errors.Wrapf(ErrPermisoInvalido, "port %#x no pide ningún permiso", puerto)
	}
	return Permiso(puerto<<1) | PermUsuario, nil
}

// Codificar devuelve el valor de port que produce este permiso
func (p Permiso) Codificar() uint64 {
	return uint64(p&permisosAcceso) >> 1
}

// Contiene indica si p incluye todos los bits de q
func (p Permiso) Contiene(q Permiso) bool {
	return p&q == q
}

// TieneAcceso indica si hay al menos un bit R/W/X
func (p Permiso) TieneAcceso() bool {
	return p&permisosAcceso != 0
}

// Valido indica que no hay bits desconocidos y que hay al menos un acceso
func (p Permiso) Valido() bool {
	return p&^permisosTodos == 0 && p.TieneAcceso()
}

func (p Permiso) String() string {
	var sb strings.Builder
	bits := []struct {
		perm  Permiso
		letra byte
	}{
		{PermLectura, 'R'},
		{PermEscritura, 'W'},
		{PermEjecucion, 'X'},
		{PermUsuario, 'U'},
	}
	for _, b := range bits {
		if p.Contiene(b.perm) {
			sb.WriteByte(b.letra)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}
