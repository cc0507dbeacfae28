package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Modulo representa un módulo genérico del sistema
type Modulo struct {
	Nombre      string
	Server      *HTTPServer
	ConfigPath  string
	HandlerFunc map[string]map[string]HTTPHandlerFunc
}

// NuevoModulo crea una nueva instancia de un módulo
func NuevoModulo(nombre string, configPath string) *Modulo {
	return &Modulo{
		Nombre:      nombre,
		ConfigPath:  configPath,
		HandlerFunc: make(map[string]map[string]HTTPHandlerFunc),
	}
}

// RegistrarHandler registra un handler para un tipo de mensaje y operación específicos
func (m *Modulo) RegistrarHandler(tipo string, operacion string, handler HTTPHandlerFunc) {
	if _, existe := m.HandlerFunc[tipo]; !existe {
		m.HandlerFunc[tipo] = make(map[string]HTTPHandlerFunc)
	}
	m.HandlerFunc[tipo][operacion] = handler
}

// PrepararServidor crea el servidor HTTP del módulo con los handlers registrados
func (m *Modulo) PrepararServidor(ip string, puerto int) *HTTPServer {
	m.Server = NewHTTPServer(ip, puerto, m.Nombre)

	for tipoStr, handlersPorOperacion := range m.HandlerFunc {
		tipo, err := strconv.Atoi(tipoStr)
		if err != nil {
			slog.Error("Error al convertir tipo de mensaje a entero", "tipo", tipoStr, "error", err)
			continue
		}

		m.Server.RegisterHTTPHandler(tipo, func(msg *Mensaje) (interface{}, error) {
			operacion := msg.Operacion
			if operacion == "" {
				operacion = "default"
			}

			handler, existe := handlersPorOperacion[operacion]
			if !existe {
				handler, existe = handlersPorOperacion["default"]
				if !existe {
					slog.Error("No hay handler para operación", "tipo", tipo, "operacion", operacion)
					return nil, errors.Errorf("no hay handler para operación %s", operacion)
				}
			}

			return handler(msg)
		})
	}

	return m.Server
}

// IniciarServidor crea el servidor HTTP del módulo y lo pone a escuchar en segundo plano
func (m *Modulo) IniciarServidor(ip string, puerto int) {
	servidor := m.PrepararServidor(ip, puerto)

	go func() {
		err := servidor.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Error al iniciar servidor HTTP", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Servidor HTTP iniciado", "módulo", m.Nombre, "dirección", fmt.Sprintf("%s:%d", ip, puerto))
}

// CargarConfiguracion decodifica el JSON de `ruta` sobre `config`.
// Los campos ausentes en el archivo conservan el valor que ya tenía config.
func CargarConfiguracion[T any](ruta string, config *T) error {
	slog.Info("Cargando configuración", "ruta", ruta)

	absPath, err := filepath.Abs(ruta)
	if err != nil {
		return errors.Wrapf(err, "error obteniendo ruta absoluta de %s", ruta)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return errors.Wrapf(err, "error abriendo archivo de configuración %s", absPath)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(config); err != nil {
		return errors.Wrapf(err, "error decodificando configuración %s", absPath)
	}

	slog.Info("Configuración cargada correctamente", "archivo", absPath)
	return nil
}

// ============================================================================
// Constantes para tipos de mensajes entre módulos
// ============================================================================
const (
	// === COMUNICACIÓN BÁSICA (1-9) ===
	MensajeHandshake = 1 // Conexión inicial

	// === CONSULTAS DE MEMORIA (10-19) ===
	MensajeEspacioLibre = 14 // Consultar marcos libres
	MensajeMemoryDump   = 15 // Volcado del espacio de una tarea
	MensajeAreas        = 16 // Áreas mapeadas de una tarea

	// === GESTIÓN DE TAREAS (20-29) ===
	MensajeEstadoTareas = 24 // Tabla de tareas
)
