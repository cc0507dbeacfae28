package memoria

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// marcosDePrueba arma una memoria física chica para los tests
func marcosDePrueba(t *testing.T, marcos uint64, reservados uint64) (Geometria, *MemoriaFisica, *AsignadorMarcos) {
	t.Helper()
	geo, err := NuevaGeometria(4096, 3, 8)
	require.NoError(t, err)

	fisica, err := NuevaMemoriaFisica(marcos*geo.TamPagina, geo)
	require.NoError(t, err)
	t.Cleanup(func() { fisica.Cerrar() })

	asignador, err := NuevoAsignadorMarcos(fisica, reservados)
	require.NoError(t, err)
	return geo, fisica, asignador
}

type marcosTestSuite struct {
	suite.Suite
	assert    *assert.Assertions
	fisica    *MemoriaFisica
	asignador *AsignadorMarcos
}

func (s *marcosTestSuite) SetupTest() {
	s.assert = assert.New(s.T())
	_, s.fisica, s.asignador = marcosDePrueba(s.T(), 4, 1)
}

func (s *marcosTestSuite) TestReservadosNoSeAsignan() {
	s.assert.Equal(uint64(4), s.asignador.Total())
	s.assert.Equal(uint64(3), s.asignador.Disponibles())

	vistos := map[NumMarco]bool{}
	for i := 0; i < 3; i++ {
		ppn, err := s.asignador.Asignar()
		s.assert.NoError(err)
		s.assert.NotEqual(NumMarco(0), ppn)
		vistos[ppn] = true
	}
	s.assert.Len(vistos, 3)

	_, err := s.asignador.Asignar()
	s.assert.True(errors.Is(err, ErrSinMarcos))
	s.assert.Equal(uint64(0), s.asignador.Disponibles())
}

func (s *marcosTestSuite) TestLiberarDosVeces() {
	ppn, err := s.asignador.Asignar()
	s.assert.NoError(err)

	s.assert.NoError(s.asignador.Liberar(ppn))
	s.assert.True(errors.Is(s.asignador.Liberar(ppn), ErrMarcoInvalido))
	s.assert.True(errors.Is(s.asignador.Liberar(0), ErrMarcoInvalido), "los marcos del kernel no se liberan")
	s.assert.True(errors.Is(s.asignador.Liberar(99), ErrMarcoInvalido))
	s.assert.Equal(uint64(3), s.asignador.Disponibles())
}

func (s *marcosTestSuite) TestMarcoReutilizadoLlegaEnCeros() {
	ppn, err := s.asignador.Asignar()
	s.assert.NoError(err)
	copy(s.fisica.Marco(ppn), []byte("datos de otra tarea"))
	s.assert.NoError(s.asignador.Liberar(ppn))

	for i := 0; i < 3; i++ {
		otro, err := s.asignador.Asignar()
		s.assert.NoError(err)
		s.assert.Equal(make([]byte, 4096), s.fisica.Marco(otro))
	}
}

func (s *marcosTestSuite) TestBytesNoCruzaMarco() {
	_, err := s.fisica.Bytes(4096-4, 8)
	s.assert.Error(err)

	b, err := s.fisica.Bytes(4096-4, 4)
	s.assert.NoError(err)
	s.assert.Len(b, 4)
}

func TestMarcosTestSuite(t *testing.T) {
	suite.Run(t, new(marcosTestSuite))
}

func TestAsignadorSinMarcosDeUsuario(t *testing.T) {
	geo, err := NuevaGeometria(4096, 3, 8)
	require.NoError(t, err)
	fisica, err := NuevaMemoriaFisica(2*geo.TamPagina, geo)
	require.NoError(t, err)
	defer fisica.Cerrar()

	_, err = NuevoAsignadorMarcos(fisica, 2)
	assert.Error(t, err)

	_, err = NuevaMemoriaFisica(4097, geo)
	assert.Error(t, err)
}
