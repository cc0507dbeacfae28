package memoria

// MetricasEspacio almacena estadísticas sobre el uso de un espacio de direcciones
type MetricasEspacio struct {
	AccesosTablasPaginas uint64 `json:"accesos_tablas_paginas"`
	PaginasMapeadas      uint64 `json:"paginas_mapeadas"`
	PaginasDesmapeadas   uint64 `json:"paginas_desmapeadas"`
	LecturasMemoria      uint64 `json:"lecturas_memoria"`
	EscriturasMemoria    uint64 `json:"escrituras_memoria"`
	FallosTraduccion     uint64 `json:"fallos_traduccion"`
}

// Funciones para actualizar métricas

func (m *MetricasEspacio) registrarMapeo(paginas uint64) {
	m.PaginasMapeadas += paginas
}

func (m *MetricasEspacio) registrarDesmapeo(paginas uint64) {
	m.PaginasDesmapeadas += paginas
}

func (m *MetricasEspacio) registrarAcceso(escritura bool) {
	if escritura {
		m.EscriturasMemoria++
	} else {
		m.LecturasMemoria++
	}
}

func (m *MetricasEspacio) registrarFallo() {
	m.FallosTraduccion++
}
