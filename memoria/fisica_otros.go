//go:build !linux

package memoria

import "github.com/pkg/errors"

func reservarMemoria(tam int) ([]byte, error) {
	if tam <= 0 {
		return nil, errors.New("tamaño de memoria inválido")
	}
	return make([]byte, tam), nil
}

func liberarMemoria(datos []byte) error {
	return nil
}
