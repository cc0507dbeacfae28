package memoria

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTablaMultinivelInsertarBuscarEliminar(t *testing.T) {
	geo, err := NuevaGeometria(4096, 3, 8)
	require.NoError(t, err)
	tabla := NuevaTablaMultinivel(geo)

	_, ok := tabla.Buscar(10)
	assert.False(t, ok)

	require.NoError(t, tabla.Insertar(10, 3, PermLectura|PermUsuario))
	assert.Equal(t, 3, tabla.CantidadTablas(), "raíz más una tabla de nivel 2 y otra de nivel 3")

	entrada, ok := tabla.Buscar(10)
	require.True(t, ok)
	assert.Equal(t, NumMarco(3), entrada.Marco)
	assert.Equal(t, PermLectura|PermUsuario, entrada.Permisos)

	err = tabla.Insertar(10, 4, PermLectura)
	assert.True(t, errors.Is(err, ErrSolapamiento))

	eliminada, ok := tabla.Eliminar(10)
	require.True(t, ok)
	assert.Equal(t, NumMarco(3), eliminada.Marco)
	assert.Equal(t, 1, tabla.CantidadTablas(), "las tablas intermedias vacías se liberan")

	_, ok = tabla.Eliminar(10)
	assert.False(t, ok)
}

func TestTablaMultinivelFueraDeRango(t *testing.T) {
	geo, err := NuevaGeometria(4096, 2, 4)
	require.NoError(t, err)
	tabla := NuevaTablaMultinivel(geo)

	err = tabla.Insertar(16, 1, PermLectura)
	assert.True(t, errors.Is(err, ErrRangoInvalido))
	_, ok := tabla.Buscar(16)
	assert.False(t, ok)
}

func TestTablaMultinivelRecorrerEnOrden(t *testing.T) {
	geo, err := NuevaGeometria(4096, 3, 8)
	require.NoError(t, err)
	tabla := NuevaTablaMultinivel(geo)

	for _, vpn := range []NumPagVirtual{300, 2, 64, 9} {
		require.NoError(t, tabla.Insertar(vpn, NumMarco(vpn), PermLectura))
	}

	var visitadas []NumPagVirtual
	tabla.Recorrer(func(vpn NumPagVirtual, entrada EntradaTabla) {
		assert.Equal(t, NumMarco(vpn), entrada.Marco)
		visitadas = append(visitadas, vpn)
	})
	assert.Equal(t, []NumPagVirtual{2, 9, 64, 300}, visitadas)
	assert.NotZero(t, tabla.Accesos())
}
