package memoria

import (
	"math/bits"

	"github.com/pkg/errors"
)

// DirVirtual es una dirección válida sólo dentro del espacio de una tarea
type DirVirtual uint64

// DirFisica es un desplazamiento dentro de la memoria física simulada
type DirFisica uint64

// NumPagVirtual es el número de página virtual (VPN)
type NumPagVirtual uint64

// NumMarco es el número de marco físico (PPN)
type NumMarco uint64

// Geometria agrupa los parámetros de paginación: tamaño de página y forma
// de la tabla multinivel.
type Geometria struct {
	TamPagina uint64
	Niveles   int
	Entradas  int
}

// NuevaGeometria valida los parámetros de paginación
func NuevaGeometria(tamPagina uint64, niveles int, entradas int) (Geometria, error) {
	if tamPagina == 0 || tamPagina&(tamPagina-1) != 0 {
		return Geometria{}, errors.Errorf("el tamaño de página debe ser potencia de dos: %d", tamPagina)
	}
	if niveles <= 0 || entradas <= 1 {
		return Geometria{}, errors.Errorf("tabla de páginas inválida: %d niveles de %d entradas", niveles, entradas)
	}
	g := Geometria{TamPagina: tamPagina, Niveles: niveles, Entradas: entradas}

	// El espacio de VPNs (entradas^niveles) tiene que entrar en 64 bits
	// junto con el desplazamiento dentro de la página.
	bitsPagina := bits.TrailingZeros64(tamPagina)
	bitsVPN := bits.Len64(g.MaxPaginas() - 1)
	if bitsPagina+bitsVPN > 64 {
		return Geometria{}, errors.Errorf("el espacio virtual no entra en 64 bits (%d niveles de %d entradas)", niveles, entradas)
	}
	return g, nil
}

// MaxPaginas devuelve la cantidad de páginas virtuales que cubre la tabla
func (g Geometria) MaxPaginas() uint64 {
	total := uint64(1)
	for i := 0; i < g.Niveles; i++ {
		hi, lo := bits.Mul64(total, uint64(g.Entradas))
		if hi != 0 {
			return ^uint64(0)
		}
		total = lo
	}
	return total
}

// Alineada indica si la dirección cae justo al comienzo de una página
func (g Geometria) Alineada(va DirVirtual) bool {
	return uint64(va)%g.TamPagina == 0
}

// PaginaPiso devuelve la página que contiene a va
func (g Geometria) PaginaPiso(va DirVirtual) NumPagVirtual {
	return NumPagVirtual(uint64(va) / g.TamPagina)
}

// PaginaTecho devuelve la primera página que empieza en va o después
func (g Geometria) PaginaTecho(va DirVirtual) NumPagVirtual {
	vpn := uint64(va) / g.TamPagina
	if uint64(va)%g.TamPagina != 0 {
		vpn++
	}
	return NumPagVirtual(vpn)
}

// Desplazamiento dentro de la página
func (g Geometria) Desplazamiento(va DirVirtual) uint64 {
	return uint64(va) % g.TamPagina
}

// Base devuelve la dirección virtual donde empieza la página
func (g Geometria) Base(vpn NumPagVirtual) DirVirtual {
	return DirVirtual(uint64(vpn) * g.TamPagina)
}

// DirDeMarco devuelve la dirección física donde empieza el marco
func (g Geometria) DirDeMarco(ppn NumMarco) DirFisica {
	return DirFisica(uint64(ppn) * g.TamPagina)
}

// PaginasNecesarias calcula cuántas páginas ocupan tam bytes
func (g Geometria) PaginasNecesarias(tam uint64) uint64 {
	paginas := tam / g.TamPagina
	if tam%g.TamPagina != 0 {
		paginas++
	}
	return paginas
}

// indicesPorNivel descompone un VPN en el índice de cada nivel de la tabla,
// del primer nivel al último.
func (g Geometria) indicesPorNivel(vpn NumPagVirtual) []int {
	indices := make([]int, g.Niveles)
	resto := uint64(vpn)
	for nivel := g.Niveles - 1; nivel >= 0; nivel-- {
		indices[nivel] = int(resto % uint64(g.Entradas))
		resto /= uint64(g.Entradas)
	}
	return indices
}
