package memoria

import (
	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// EntradaTabla representa una entrada en una tabla de páginas
type EntradaTabla struct {
	Marco     NumMarco      // Marco asignado (sólo en el último nivel)
	Permisos  Permiso       // Permisos de la página (sólo en el último nivel)
	Valido    bool          // Indica si la entrada es válida
	Siguiente *TablaPaginas // Tabla del siguiente nivel (niveles intermedios)
}

// TablaPaginas representa una tabla de páginas en cualquier nivel
type TablaPaginas struct {
	Entradas []EntradaTabla
	Nivel    int // Nivel de la tabla (1 para primer nivel, etc.)
	validas  int
}

// TablaMultinivel es la tabla de páginas completa de un espacio de direcciones
type TablaMultinivel struct {
	geo     Geometria
	raiz    *TablaPaginas
	tablas  int
	accesos uint64
}

func nuevaTablaPaginas(geo Geometria, nivel int) *TablaPaginas {
	return &TablaPaginas{
		Entradas: make([]EntradaTabla, geo.Entradas),
		Nivel:    nivel,
	}
}

// NuevaTablaMultinivel crea la tabla de primer nivel vacía
func NuevaTablaMultinivel(geo Geometria) *TablaMultinivel {
	return &TablaMultinivel{
		geo:    geo,
		raiz:   nuevaTablaPaginas(geo, 1),
		tablas: 1,
	}
}

// Buscar navega los niveles y devuelve la entrada del último nivel para vpn
func (t *TablaMultinivel) Buscar(vpn NumPagVirtual) (EntradaTabla, bool) {
	if uint64(vpn) >= t.geo.MaxPaginas() {
		return EntradaTabla{}, false
	}
	indices := t.geo.indicesPorNivel(vpn)
	return t.buscarEnNivel(t.raiz, indices, 1)
}

func (t *TablaMultinivel) buscarEnNivel(tabla *TablaPaginas, indices []int, nivelActual int) (EntradaTabla, bool) {
	t.accesos++

	entrada := tabla.Entradas[indices[nivelActual-1]]
	if !entrada.Valido {
		return EntradaTabla{}, false
	}

	// Si estamos en el último nivel, devolver la entrada
	if nivelActual == t.geo.Niveles {
		return entrada, true
	}

	return t.buscarEnNivel(entrada.Siguiente, indices, nivelActual+1)
}

// Insertar crea la entrada de vpn, armando las tablas intermedias que falten
func (t *TablaMultinivel) Insertar(vpn NumPagVirtual, ppn NumMarco, perm Permiso) error {
	if uint64(vpn) >= t.geo.MaxPaginas() {
		return errors.Wrapf(ErrRangoInvalido, "página %#x fuera del espacio virtual", uint64(vpn))
	}
	indices := t.geo.indicesPorNivel(vpn)
	return t.insertarEnNivel(t.raiz, indices, 1, vpn, ppn, perm)
}

func (t *TablaMultinivel) insertarEnNivel(tabla *TablaPaginas, indices []int, nivelActual int, vpn NumPagVirtual, ppn NumMarco, perm Permiso) error {
	t.accesos++
	indice := indices[nivelActual-1]

	if nivelActual == t.geo.Niveles {
		if tabla.Entradas[indice].Valido {
			return errors.Wrapf(ErrSolapamiento, "página %#x ya mapeada", uint64(vpn))
		}
		tabla.Entradas[indice] = EntradaTabla{Marco: ppn, Permisos: perm, Valido: true}
		tabla.validas++
		return nil
	}

	if !tabla.Entradas[indice].Valido {
		t.crearTablaSiguienteNivel(tabla, indice, nivelActual+1)
	}
	return t.insertarEnNivel(tabla.Entradas[indice].Siguiente, indices, nivelActual+1, vpn, ppn, perm)
}

// crearTablaSiguienteNivel cuelga una tabla vacía de la entrada indice
func (t *TablaMultinivel) crearTablaSiguienteNivel(tablaActual *TablaPaginas, indice int, nuevoNivel int) *TablaPaginas {
	nuevaTabla := nuevaTablaPaginas(t.geo, nuevoNivel)
	tablaActual.Entradas[indice] = EntradaTabla{Valido: true, Siguiente: nuevaTabla}
	tablaActual.validas++
	t.tablas++

	utils.InfoLog.Debug("Tabla del siguiente nivel creada", "nivel", nuevoNivel, "tablas", t.tablas)
	return nuevaTabla
}

// Eliminar invalida la entrada de vpn y devuelve lo que tenía. Las tablas
// intermedias que quedan vacías se liberan.
func (t *TablaMultinivel) Eliminar(vpn NumPagVirtual) (EntradaTabla, bool) {
	if uint64(vpn) >= t.geo.MaxPaginas() {
		return EntradaTabla{}, false
	}
	indices := t.geo.indicesPorNivel(vpn)
	return t.eliminarEnNivel(t.raiz, indices, 1)
}

func (t *TablaMultinivel) eliminarEnNivel(tabla *TablaPaginas, indices []int, nivelActual int) (EntradaTabla, bool) {
	t.accesos++
	indice := indices[nivelActual-1]
	entrada := tabla.Entradas[indice]
	if !entrada.Valido {
		return EntradaTabla{}, false
	}

	if nivelActual == t.geo.Niveles {
		tabla.Entradas[indice] = EntradaTabla{}
		tabla.validas--
		return entrada, true
	}

	eliminada, ok := t.eliminarEnNivel(entrada.Siguiente, indices, nivelActual+1)
	if ok && entrada.Siguiente.validas == 0 {
		tabla.Entradas[indice] = EntradaTabla{}
		tabla.validas--
		t.tablas--
	}
	return eliminada, ok
}

// Recorrer visita las páginas mapeadas en orden creciente de VPN
func (t *TablaMultinivel) Recorrer(visitar func(vpn NumPagVirtual, entrada EntradaTabla)) {
	t.recorrerNivel(t.raiz, 1, 0, visitar)
}

func (t *TablaMultinivel) recorrerNivel(tabla *TablaPaginas, nivelActual int, prefijo uint64, visitar func(NumPagVirtual, EntradaTabla)) {
	for i, entrada := range tabla.Entradas {
		if !entrada.Valido {
			continue
		}
		vpn := prefijo*uint64(t.geo.Entradas) + uint64(i)
		if nivelActual == t.geo.Niveles {
			visitar(NumPagVirtual(vpn), entrada)
			continue
		}
		t.recorrerNivel(entrada.Siguiente, nivelActual+1, vpn, visitar)
	}
}

// CantidadTablas devuelve cuántas tablas (de todos los niveles) existen
func (t *TablaMultinivel) CantidadTablas() int {
	return t.tablas
}

// Accesos devuelve cuántas veces se leyó o escribió una tabla
func (t *TablaMultinivel) Accesos() uint64 {
	return t.accesos
}
