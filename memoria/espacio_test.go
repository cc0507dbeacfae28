package memoria

import (
	"bytes"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const permRW = PermLectura | PermEscritura | PermUsuario

type espacioTestSuite struct {
	suite.Suite
	assert    *assert.Assertions
	geo       Geometria
	fisica    *MemoriaFisica
	asignador *AsignadorMarcos
	espacio   *EspacioDirecciones
}

func (s *espacioTestSuite) SetupTest() {
	s.assert = assert.New(s.T())
	s.geo, s.fisica, s.asignador = marcosDePrueba(s.T(), 8, 0)
	s.espacio = NuevoEspacioDirecciones(s.geo, s.asignador, s.fisica)
}

func (s *espacioTestSuite) TestMapearYDesmapearDejaTodoIgual() {
	s.assert.NoError(s.espacio.Mapear(0x10000, 0x12000, PermLectura|PermUsuario))
	antes := s.espacio.Areas()
	disponibles := s.asignador.Disponibles()

	s.assert.NoError(s.espacio.Mapear(0x1000, 0x1000+5000, permRW))
	s.assert.Equal(disponibles-2, s.asignador.Disponibles(), "5000 bytes ocupan dos páginas")
	s.assert.NoError(s.espacio.Desmapear(0x1000, 0x1000+5000))

	s.assert.Equal(antes, s.espacio.Areas())
	s.assert.Equal(disponibles, s.asignador.Disponibles())
}

func (s *espacioTestSuite) TestSolapamiento() {
	s.assert.NoError(s.espacio.Mapear(0x2000, 0x4000, permRW))
	disponibles := s.asignador.Disponibles()

	err := s.espacio.Mapear(0x3000, 0x5000, permRW)
	s.assert.True(errors.Is(err, ErrSolapamiento))
	err = s.espacio.Mapear(0x1000, 0x2001, permRW)
	s.assert.True(errors.Is(err, ErrSolapamiento))

	s.assert.Equal([]ResumenArea{{Inicio: 0x2000, Fin: 0x4000, Permisos: "RW-U", Paginas: 2}}, s.espacio.Areas())
	s.assert.Equal(disponibles, s.asignador.Disponibles())

	// justo pegado al área existente no se solapa
	s.assert.NoError(s.espacio.Mapear(0x4000, 0x5000, permRW))
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x2000, permRW))
	s.assert.Len(s.espacio.Areas(), 3)
}

func (s *espacioTestSuite) TestSinMarcosNoDejaMapeoParcial() {
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x3000, permRW))
	disponibles := s.asignador.Disponibles()
	areas := s.espacio.Areas()

	err := s.espacio.Mapear(0x10000, 0x10000+DirVirtual(disponibles+1)*0x1000, permRW)
	s.assert.True(errors.Is(err, ErrSinMarcos))

	s.assert.Equal(disponibles, s.asignador.Disponibles())
	s.assert.Equal(areas, s.espacio.Areas())
	_, ok := s.espacio.Traducir(0x10000)
	s.assert.False(ok, "la primera página del intento fallido no quedó en la tabla")

	// los marcos devueltos se pueden usar
	s.assert.NoError(s.espacio.Mapear(0x10000, 0x10000+DirVirtual(disponibles)*0x1000, permRW))
	s.assert.Equal(uint64(0), s.asignador.Disponibles())
}

func (s *espacioTestSuite) TestRangosInvalidos() {
	s.assert.True(errors.Is(s.espacio.Mapear(0x2000, 0x2000, permRW), ErrRangoInvalido))
	s.assert.True(errors.Is(s.espacio.Mapear(0x3000, 0x2000, permRW), ErrRangoInvalido))
	s.assert.True(errors.Is(s.espacio.Mapear(0x1000, 0x2000, PermUsuario), ErrPermisoInvalido))

	fueraDelEspacio := s.geo.Base(NumPagVirtual(s.geo.MaxPaginas()))
	s.assert.True(errors.Is(s.espacio.Mapear(fueraDelEspacio-0x1000, fueraDelEspacio+0x1000, permRW), ErrRangoInvalido))
	s.assert.Empty(s.espacio.Areas())
}

func (s *espacioTestSuite) TestDesmapearRangoSinMapear() {
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x3000, permRW))
	disponibles := s.asignador.Disponibles()

	err := s.espacio.Desmapear(0x1000, 0x4000)
	s.assert.True(errors.Is(err, ErrNoMapeado))
	err = s.espacio.Desmapear(0x8000, 0x9000)
	s.assert.True(errors.Is(err, ErrNoMapeado))

	s.assert.Equal(disponibles, s.asignador.Disponibles())
	s.assert.Len(s.espacio.Areas(), 1)
	_, ok := s.espacio.Traducir(0x2000)
	s.assert.True(ok)
}

func (s *espacioTestSuite) TestDesmapearParteDelMedio() {
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x5000, permRW))
	s.assert.NoError(s.espacio.Escribir(0x4000, []byte("ultima"), PermUsuario))

	s.assert.NoError(s.espacio.Desmapear(0x2000, 0x4000))
	s.assert.Equal([]ResumenArea{
		{Inicio: 0x1000, Fin: 0x2000, Permisos: "RW-U", Paginas: 1},
		{Inicio: 0x4000, Fin: 0x5000, Permisos: "RW-U", Paginas: 1},
	}, s.espacio.Areas())

	datos, err := s.espacio.Leer(0x4000, 6, PermUsuario)
	s.assert.NoError(err)
	s.assert.Equal([]byte("ultima"), datos)

	// desmapear dos áreas vecinas de una vez
	s.assert.NoError(s.espacio.Mapear(0x2000, 0x4000, permRW))
	s.assert.NoError(s.espacio.Desmapear(0x1000, 0x5000))
	s.assert.Empty(s.espacio.Areas())
	s.assert.Equal(s.asignador.Total(), s.asignador.Disponibles())
}

func (s *espacioTestSuite) TestTraducirSumaDesplazamiento() {
	s.assert.NoError(s.espacio.Mapear(0x7000, 0x8000, permRW))

	pa, ok := s.espacio.Traducir(0x7abc)
	s.assert.True(ok)
	s.assert.Equal(uint64(0xabc), uint64(pa)%s.geo.TamPagina)

	base, _ := s.espacio.Traducir(0x7000)
	s.assert.Equal(base+0xabc, pa)

	_, ok = s.espacio.Traducir(0x8000)
	s.assert.False(ok)
}

func (s *espacioTestSuite) TestEscribirCruzandoPaginas() {
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x3000, permRW))

	datos := bytes.Repeat([]byte{0xab}, 100)
	s.assert.NoError(s.espacio.Escribir(0x2000-50, datos, PermUsuario))

	leidos, err := s.espacio.Leer(0x2000-50, 100, PermUsuario)
	s.assert.NoError(err)
	s.assert.Equal(datos, leidos)

	// la escritura llegó a dos marcos distintos
	pa1, _ := s.espacio.Traducir(0x1fff)
	pa2, _ := s.espacio.Traducir(0x2000)
	b1, _ := s.fisica.Bytes(pa1, 1)
	b2, _ := s.fisica.Bytes(pa2, 1)
	s.assert.Equal([]byte{0xab}, b1)
	s.assert.Equal([]byte{0xab}, b2)

	m := s.espacio.Metricas()
	s.assert.Equal(uint64(1), m.EscriturasMemoria)
	s.assert.Equal(uint64(1), m.LecturasMemoria)
	s.assert.NotZero(m.AccesosTablasPaginas)
}

func (s *espacioTestSuite) TestEscribirSinPermisoNoEscribeNada() {
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x2000, permRW))
	s.assert.NoError(s.espacio.Mapear(0x2000, 0x3000, PermLectura|PermUsuario))

	err := s.espacio.Escribir(0x2000-4, []byte("12345678"), PermUsuario)
	var errTrad *ErrorTraduccion
	s.assert.True(errors.As(err, &errTrad))
	s.assert.Equal(DirVirtual(0x2000), errTrad.Direccion)
	s.assert.True(errors.Is(err, ErrPermisoInvalido))

	leidos, err := s.espacio.Leer(0x2000-4, 4, PermUsuario)
	s.assert.NoError(err)
	s.assert.Equal(make([]byte, 4), leidos, "no se escribió la parte que sí era válida")

	err = s.espacio.Escribir(0x3000, []byte{1}, PermUsuario)
	s.assert.True(errors.Is(err, ErrNoMapeado))
	s.assert.Equal(uint64(2), s.espacio.Metricas().FallosTraduccion)
}

func (s *espacioTestSuite) TestDestruirDevuelveMarcos() {
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x4000, permRW))
	s.assert.NoError(s.espacio.Mapear(0x9000, 0xa000, PermLectura|PermUsuario))
	s.assert.Equal(uint64(4), s.espacio.PaginasMapeadas())

	s.espacio.Destruir()
	s.assert.Empty(s.espacio.Areas())
	s.assert.Equal(uint64(0), s.espacio.PaginasMapeadas())
	s.assert.Equal(s.asignador.Total(), s.asignador.Disponibles())
	s.assert.Equal(uint64(4), s.espacio.Metricas().PaginasDesmapeadas)
	_, ok := s.espacio.Traducir(0x1000)
	s.assert.False(ok)
}

func (s *espacioTestSuite) TestVolcarYDump() {
	s.assert.NoError(s.espacio.Mapear(0x3000, 0x4000, permRW))
	s.assert.NoError(s.espacio.Mapear(0x1000, 0x2000, permRW))
	s.assert.NoError(s.espacio.Escribir(0x1000, []byte("primera"), PermUsuario))
	s.assert.NoError(s.espacio.Escribir(0x3000, []byte("segunda"), PermUsuario))

	var buf bytes.Buffer
	n, err := s.espacio.Volcar(&buf)
	s.assert.NoError(err)
	s.assert.Equal(int64(2*4096), n)
	s.assert.Equal([]byte("primera"), buf.Bytes()[:7])
	s.assert.Equal([]byte("segunda"), buf.Bytes()[4096:4096+7])

	ruta, err := CrearMemoryDump(s.T().TempDir(), 3, s.espacio)
	s.assert.NoError(err)
	contenido, err := os.ReadFile(ruta)
	s.assert.NoError(err)
	s.assert.Equal(buf.Bytes(), contenido)
}

func TestEspacioTestSuite(t *testing.T) {
	suite.Run(t, new(espacioTestSuite))
}

// marcosQueFallan entrega `limite` marcos y después falla
type marcosQueFallan struct {
	*AsignadorMarcos
	limite int
}

func (m *marcosQueFallan) Asignar() (NumMarco, error) {
	if m.limite == 0 {
		return 0, ErrSinMarcos
	}
	m.limite--
	return m.AsignadorMarcos.Asignar()
}

func TestMapearDeshaceLoAsignadoSiElAsignadorFalla(t *testing.T) {
	geo, fisica, asignador := marcosDePrueba(t, 8, 0)
	espacio := NuevoEspacioDirecciones(geo, &marcosQueFallan{AsignadorMarcos: asignador, limite: 3}, fisica)

	err := espacio.Mapear(0x1000, 0x6000, permRW)
	assert.True(t, errors.Is(err, ErrSinMarcos))
	assert.Equal(t, uint64(8), asignador.Disponibles())
	assert.Empty(t, espacio.Areas())
	for va := DirVirtual(0x1000); va < 0x6000; va += 0x1000 {
		_, ok := espacio.Traducir(va)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, espacio.tabla.CantidadTablas())
}
