package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

var comandos = map[string]int{
	"libre":  utils.MensajeEspacioLibre,
	"tareas": utils.MensajeEstadoTareas,
	"areas":  utils.MensajeAreas,
	"dump":   utils.MensajeMemoryDump,
}

func main() {
	// Verificar argumentos mínimos
	if len(os.Args) < 3 {
		fmt.Println("Uso: ./consola <ruta_configuracion> <libre|tareas|areas|dump> [pid]")
		fmt.Println("Ejemplo: ./consola configs/consola.config areas 0")
		os.Exit(1)
	}
	rutaConfig := os.Args[1]
	comando := os.Args[2]

	config := configPorDefecto()
	if err := utils.CargarConfiguracion(rutaConfig, &config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	utils.InicializarLoggerEn(os.Stderr, config.LogLevel, "Consola")

	kernelClient := utils.NewHTTPClient(config.IPKernel, config.PortKernel, "Consola->Kernel")
	if err := conectarConReintentos(kernelClient, config.Reintentos); err != nil {
		utils.ErrorLog.Error("No se pudo conectar con el Kernel", "error", err)
		os.Exit(1)
	}

	respuesta, err := consultar(kernelClient, comando, os.Args[3:])
	if err != nil {
		utils.ErrorLog.Error("Consulta fallida", "comando", comando, "error", err)
		os.Exit(1)
	}

	salida := json.NewEncoder(os.Stdout)
	salida.SetIndent("", "  ")
	salida.Encode(respuesta)
}

// conectarConReintentos hace el handshake con el kernel
func conectarConReintentos(cliente *utils.HTTPClient, intentos int) error {
	if intentos < 1 {
		intentos = 1
	}
	var err error
	for i := 1; i <= intentos; i++ {
		_, err = cliente.EnviarHTTPMensaje(utils.MensajeHandshake, "handshake", nil)
		if err == nil {
			utils.InfoLog.Info("Conexión establecida", "destino", cliente.BaseURL)
			return nil
		}

		utils.InfoLog.Warn("Reintentando conexión",
			"destino", cliente.BaseURL,
			"intento", i,
			"próximo_en", "1s")
		time.Sleep(time.Second)
	}
	return errors.Wrapf(err, "sin respuesta después de %d intentos", intentos)
}

func consultar(cliente *utils.HTTPClient, comando string, args []string) (interface{}, error) {
	tipo, ok := comandos[comando]
	if !ok {
		return nil, errors.Errorf("comando desconocido %q", comando)
	}

	var datos map[string]interface{}
	if tipo == utils.MensajeAreas || tipo == utils.MensajeMemoryDump {
		if len(args) < 1 {
			return nil, errors.Errorf("%s necesita un pid", comando)
		}
		pid, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, errors.Wrapf(err, "pid inválido %q", args[0])
		}
		datos = map[string]interface{}{"pid": pid}
	}

	return cliente.EnviarHTTPMensaje(tipo, "", datos)
}
