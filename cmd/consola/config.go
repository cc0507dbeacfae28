package main

// ConsolaConfig es la configuración de la consola
type ConsolaConfig struct {
	IPKernel   string `json:"IP_KERNEL"`
	PortKernel int    `json:"PUERTO_KERNEL"`
	LogLevel   string `json:"LOG_LEVEL"`
	Reintentos int    `json:"REINTENTOS"`
}

func configPorDefecto() ConsolaConfig {
	return ConsolaConfig{
		IPKernel:   "127.0.0.1",
		PortKernel: 8001,
		LogLevel:   "warn",
		Reintentos: 5,
	}
}
