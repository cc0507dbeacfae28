//go:build linux

package memoria

import (
	"golang.org/x/sys/unix"
)

// reservarMemoria pide un mapeo anónimo y privado: el contenido arranca en
// ceros y queda fuera del heap de Go.
func reservarMemoria(tam int) ([]byte, error) {
	if tam <= 0 {
		return nil, unix.EINVAL
	}
	return unix.Mmap(-1, 0, tam,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
}

func liberarMemoria(datos []byte) error {
	if len(datos) == 0 {
		return unix.EINVAL
	}
	return unix.Munmap(datos)
}
