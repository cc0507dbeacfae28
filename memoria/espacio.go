package memoria

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// AreaMapeada es un rango contiguo de páginas [Inicio, Fin) con permisos
// uniformes y un marco propio por página.
type AreaMapeada struct {
	Inicio   NumPagVirtual
	Fin      NumPagVirtual
	Permisos Permiso
	marcos   map[NumPagVirtual]NumMarco
}

// Paginas devuelve la cantidad de páginas del área
func (a *AreaMapeada) Paginas() uint64 {
	return uint64(a.Fin - a.Inicio)
}

func (a *AreaMapeada) solapa(inicio, fin NumPagVirtual) bool {
	return a.Inicio < fin && inicio < a.Fin
}

// ResumenArea es la vista de un área que se entrega hacia afuera del paquete
type ResumenArea struct {
	Inicio   DirVirtual `json:"inicio"`
	Fin      DirVirtual `json:"fin"`
	Permisos string     `json:"permisos"`
	Paginas  uint64     `json:"paginas"`
}

// EspacioDirecciones es el espacio virtual de una tarea: su tabla de
// páginas y las áreas mapeadas. Es el único que traduce direcciones de la
// tarea y el dueño de los marcos que respaldan sus páginas.
type EspacioDirecciones struct {
	geo      Geometria
	tabla    *TablaMultinivel
	areas    []*AreaMapeada // ordenadas por Inicio, sin solaparse
	marcos   Marcos
	fisica   *MemoriaFisica
	metricas MetricasEspacio
}

// NuevoEspacioDirecciones crea un espacio vacío que toma marcos de `marcos`
// y accede a su contenido a través de `fisica`.
func NuevoEspacioDirecciones(geo Geometria, marcos Marcos, fisica *MemoriaFisica) *EspacioDirecciones {
	return &EspacioDirecciones{
		geo:    geo,
		tabla:  NuevaTablaMultinivel(geo),
		marcos: marcos,
		fisica: fisica,
	}
}

// Geometria devuelve los parámetros de paginación del espacio
func (e *EspacioDirecciones) Geometria() Geometria {
	return e.geo
}

// rangoPaginas convierte [inicio, fin) en el rango de páginas que lo cubre
func (e *EspacioDirecciones) rangoPaginas(inicio, fin DirVirtual) (NumPagVirtual, NumPagVirtual, error) {
	if fin <= inicio {
		return 0, 0, errors.Wrapf(ErrRangoInvalido, "[%#x, %#x)", uint64(inicio), uint64(fin))
	}
	vpnInicio := e.geo.PaginaPiso(inicio)
	vpnFin := e.geo.PaginaTecho(fin)
	if uint64(vpnFin) > e.geo.MaxPaginas() || vpnFin < vpnInicio {
		return 0, 0, errors.Wrapf(ErrRangoInvalido, "[%#x, %#x) excede el espacio virtual", uint64(inicio), uint64(fin))
	}
	return vpnInicio, vpnFin, nil
}

// Mapear respalda cada página de [inicio, fin) con un marco nuevo y registra
// el área. Si algo falla el espacio queda exactamente como estaba.
func (e *EspacioDirecciones) Mapear(inicio, fin DirVirtual, perm Permiso) error {
	if !perm.Valido() {
		return errors.Wrapf(ErrPermisoInvalido, "permiso %s", perm)
	}
	vpnInicio, vpnFin, err := e.rangoPaginas(inicio, fin)
	if err != nil {
		return err
	}

	for _, area := range e.areas {
		if area.solapa(vpnInicio, vpnFin) {
			return errors.Wrapf(ErrSolapamiento, "[%#x, %#x) pisa el área [%#x, %#x)",
				uint64(inicio), uint64(fin), uint64(e.geo.Base(area.Inicio)), uint64(e.geo.Base(area.Fin)))
		}
	}

	area := &AreaMapeada{
		Inicio:   vpnInicio,
		Fin:      vpnFin,
		Permisos: perm,
		marcos:   make(map[NumPagVirtual]NumMarco, vpnFin-vpnInicio),
	}

	for vpn := vpnInicio; vpn < vpnFin; vpn++ {
		ppn, err := e.marcos.Asignar()
		if err == nil {
			err = e.tabla.Insertar(vpn, ppn, perm)
			if err != nil {
				e.liberarMarco(ppn)
			}
		}
		if err != nil {
			e.deshacerMapeo(area)
			utils.ErrorLog.Error("Mapeo abortado, se devolvieron los marcos tomados",
				"inicio", uint64(inicio), "fin", uint64(fin), "paginas_deshechas", len(area.marcos), "error", err)
			return errors.Wrapf(err, "mapeando página %#x", uint64(vpn))
		}
		area.marcos[vpn] = ppn
	}

	e.insertarArea(area)
	e.metricas.registrarMapeo(area.Paginas())

	utils.InfoLog.Info("Área mapeada",
		"inicio", uint64(e.geo.Base(vpnInicio)),
		"fin", uint64(e.geo.Base(vpnFin)),
		"permisos", perm.String(),
		"paginas", area.Paginas())
	return nil
}

// deshacerMapeo devuelve los marcos de un área a medio construir
func (e *EspacioDirecciones) deshacerMapeo(area *AreaMapeada) {
	for vpn, ppn := range area.marcos {
		e.tabla.Eliminar(vpn)
		e.liberarMarco(ppn)
	}
	area.marcos = nil
}

func (e *EspacioDirecciones) liberarMarco(ppn NumMarco) {
	if err := e.marcos.Liberar(ppn); err != nil {
		utils.ErrorLog.Error("No se pudo liberar el marco", "marco", uint64(ppn), "error", err)
	}
}

func (e *EspacioDirecciones) insertarArea(area *AreaMapeada) {
	i := sort.Search(len(e.areas), func(i int) bool { return e.areas[i].Inicio >= area.Inicio })
	e.areas = append(e.areas, nil)
	copy(e.areas[i+1:], e.areas[i:])
	e.areas[i] = area
}

// Desmapear quita las páginas de [inicio, fin) y devuelve sus marcos. Todas
// las páginas del rango tienen que estar mapeadas; si falta alguna no se
// toca nada. Un área cubierta en parte se parte en lo que queda a cada lado.
func (e *EspacioDirecciones) Desmapear(inicio, fin DirVirtual) error {
	vpnInicio, vpnFin, err := e.rangoPaginas(inicio, fin)
	if err != nil {
		return err
	}

	for vpn := vpnInicio; vpn < vpnFin; vpn++ {
		if _, ok := e.tabla.Buscar(vpn); !ok {
			return errors.Wrapf(ErrNoMapeado, "página %#x", uint64(e.geo.Base(vpn)))
		}
	}

	restantes := make([]*AreaMapeada, 0, len(e.areas)+1)
	for _, area := range e.areas {
		if !area.solapa(vpnInicio, vpnFin) {
			restantes = append(restantes, area)
			continue
		}

		desde := max(area.Inicio, vpnInicio)
		hasta := min(area.Fin, vpnFin)
		for vpn := desde; vpn < hasta; vpn++ {
			e.tabla.Eliminar(vpn)
			e.liberarMarco(area.marcos[vpn])
			delete(area.marcos, vpn)
		}

		if area.Inicio < desde {
			restantes = append(restantes, area.recortar(area.Inicio, desde))
		}
		if hasta < area.Fin {
			restantes = append(restantes, area.recortar(hasta, area.Fin))
		}
	}
	e.areas = restantes
	e.metricas.registrarDesmapeo(uint64(vpnFin - vpnInicio))

	utils.InfoLog.Info("Área desmapeada",
		"inicio", uint64(e.geo.Base(vpnInicio)),
		"fin", uint64(e.geo.Base(vpnFin)),
		"paginas", uint64(vpnFin-vpnInicio))
	return nil
}

// recortar arma un área nueva con las páginas [inicio, fin) de a
func (a *AreaMapeada) recortar(inicio, fin NumPagVirtual) *AreaMapeada {
	nueva := &AreaMapeada{
		Inicio:   inicio,
		Fin:      fin,
		Permisos: a.Permisos,
		marcos:   make(map[NumPagVirtual]NumMarco, fin-inicio),
	}
	for vpn := inicio; vpn < fin; vpn++ {
		nueva.marcos[vpn] = a.marcos[vpn]
	}
	return nueva
}

// Traducir devuelve la dirección física que corresponde a va, o false si la
// página no está mapeada.
func (e *EspacioDirecciones) Traducir(va DirVirtual) (DirFisica, bool) {
	entrada, ok := e.tabla.Buscar(e.geo.PaginaPiso(va))
	if !ok {
		return 0, false
	}
	return e.geo.DirDeMarco(entrada.Marco) + DirFisica(e.geo.Desplazamiento(va)), true
}

// verificarRango comprueba que todas las páginas de [va, va+n) estén
// mapeadas con el permiso requerido.
func (e *EspacioDirecciones) verificarRango(va DirVirtual, n int, requerido Permiso) error {
	if n == 0 {
		return nil
	}
	fin := uint64(va) + uint64(n)
	if fin < uint64(va) {
		return &ErrorTraduccion{Direccion: va, Requerido: requerido, Motivo: ErrRangoInvalido}
	}
	for vpn := e.geo.PaginaPiso(va); vpn < e.geo.PaginaTecho(DirVirtual(fin)); vpn++ {
		dir := max(va, e.geo.Base(vpn))
		entrada, ok := e.tabla.Buscar(vpn)
		if !ok {
			return &ErrorTraduccion{Direccion: dir, Requerido: requerido, Motivo: ErrNoMapeado}
		}
		if !entrada.Permisos.Contiene(requerido) {
			return &ErrorTraduccion{Direccion: dir, Requerido: requerido, Motivo: ErrPermisoInvalido}
		}
	}
	return nil
}

// copiar recorre [va, va+len(buf)) página por página
func (e *EspacioDirecciones) copiar(va DirVirtual, buf []byte, escritura bool) {
	for len(buf) > 0 {
		pa, _ := e.Traducir(va)
		disponible := e.geo.TamPagina - e.geo.Desplazamiento(va)
		n := min(uint64(len(buf)), disponible)
		destino, err := e.fisica.Bytes(pa, int(n))
		if err != nil {
			// verificarRango ya validó la traducción
			panic(err)
		}
		if escritura {
			copy(destino, buf[:n])
		} else {
			copy(buf[:n], destino)
		}
		buf = buf[n:]
		va += DirVirtual(n)
	}
}

// Escribir copia datos en [va, va+len(datos)). Cada página tocada tiene que
// estar mapeada con `requerido`; si no, devuelve *ErrorTraduccion y no
// escribe nada.
func (e *EspacioDirecciones) Escribir(va DirVirtual, datos []byte, requerido Permiso) error {
	if err := e.verificarRango(va, len(datos), requerido|PermEscritura); err != nil {
		e.metricas.registrarFallo()
		return err
	}
	e.copiar(va, datos, true)
	e.metricas.registrarAcceso(true)
	return nil
}

// Leer copia n bytes desde va con las mismas reglas que Escribir
func (e *EspacioDirecciones) Leer(va DirVirtual, n int, requerido Permiso) ([]byte, error) {
	if n < 0 {
		return nil, &ErrorTraduccion{Direccion: va, Requerido: requerido, Motivo: ErrRangoInvalido}
	}
	if err := e.verificarRango(va, n, requerido|PermLectura); err != nil {
		e.metricas.registrarFallo()
		return nil, err
	}
	buf := make([]byte, n)
	e.copiar(va, buf, false)
	e.metricas.registrarAcceso(false)
	return buf, nil
}

// Destruir devuelve todos los marcos del espacio. El espacio queda vacío.
func (e *EspacioDirecciones) Destruir() {
	liberados := 0
	for _, area := range e.areas {
		for vpn, ppn := range area.marcos {
			e.tabla.Eliminar(vpn)
			e.liberarMarco(ppn)
			liberados++
		}
	}
	e.areas = nil
	e.metricas.registrarDesmapeo(uint64(liberados))
	utils.InfoLog.Info("Espacio de direcciones destruido", "marcos_liberados", liberados)
}

// Areas devuelve una copia de las áreas mapeadas, ordenadas por dirección
func (e *EspacioDirecciones) Areas() []ResumenArea {
	resumen := make([]ResumenArea, 0, len(e.areas))
	for _, area := range e.areas {
		resumen = append(resumen, ResumenArea{
			Inicio:   e.geo.Base(area.Inicio),
			Fin:      e.geo.Base(area.Fin),
			Permisos: area.Permisos.String(),
			Paginas:  area.Paginas(),
		})
	}
	return resumen
}

// PaginasMapeadas devuelve cuántas páginas (y marcos) usa el espacio
func (e *EspacioDirecciones) PaginasMapeadas() uint64 {
	total := uint64(0)
	for _, area := range e.areas {
		total += area.Paginas()
	}
	return total
}

// Metricas devuelve una copia de las estadísticas del espacio
func (e *EspacioDirecciones) Metricas() MetricasEspacio {
	m := e.metricas
	m.AccesosTablasPaginas = e.tabla.Accesos()
	return m
}
