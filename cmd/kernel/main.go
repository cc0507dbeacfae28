package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

func main() {
	// Inicializar loggers
	utils.InicializarLogger("INFO", "kernel")

	utils.InfoLog.Info("Kernel iniciando", "args", os.Args)

	// Verificar argumentos mínimos
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Uso: %s <archivo_configuracion> [directorio_scripts]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Ejemplo: %s configs/kernel.config scripts\n", os.Args[0])
		os.Exit(1)
	}
	configPath := os.Args[1]

	// Verificar que el archivo de configuración existe
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		utils.ErrorLog.Error("El archivo de configuración no existe", "archivo", configPath)
		os.Exit(1)
	}

	k, kernelModulo, config, err := inicializarKernel(configPath)
	if err != nil {
		utils.ErrorLog.Error("Error durante la inicialización del Kernel", "error", err)
		os.Exit(1)
	}
	defer k.Cerrar()

	scriptsPath := config.ScriptsPath
	if len(os.Args) > 2 {
		scriptsPath = os.Args[2]
	}
	if _, err := cargarScripts(k, scriptsPath); err != nil {
		utils.ErrorLog.Error("Error cargando scripts", "directorio", scriptsPath, "error", err)
		os.Exit(1)
	}

	// Configurar manejo de señales
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kernelModulo.IniciarServidor(config.IPKernel, config.PortKernel)

	utils.InfoLog.Info("Kernel listo, iniciando planificación")
	if err := k.Ejecutar(ctx); err != nil {
		utils.ErrorLog.Error("La ejecución terminó con error", "error", err)
	} else {
		utils.InfoLog.Info("Todas las tareas finalizaron. Ctrl+C para salir")
		for _, tarea := range k.Administrador().Instantanea() {
			utils.InfoLog.Info("Resumen de tarea", "pid", tarea.PID, "estado", tarea.Estado, "codigo_salida", tarea.CodigoSalida)
		}
	}

	// Esperar señal de terminación
	<-ctx.Done()
	utils.InfoLog.Info("Ctrl+C recibido. Finalizando Kernel")

	apagado, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := kernelModulo.Server.Detener(apagado); err != nil {
		utils.ErrorLog.Error("Error deteniendo el servidor HTTP", "error", err)
	}
}
