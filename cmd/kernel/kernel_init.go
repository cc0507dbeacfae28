package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/cpu"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/kernel"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// inicializarKernel carga la configuración, arma el kernel y publica los
// handlers de inspección
func inicializarKernel(configPath string) (*kernel.Kernel, *utils.Modulo, kernel.KernelConfig, error) {
	config, err := kernel.CargarConfig(configPath)
	if err != nil {
		return nil, nil, config, err
	}

	utils.InicializarLogger(config.LogLevel, "Kernel")
	utils.InfoLog.Info("Inicializando Kernel", "config_path", configPath)

	k, err := kernel.NuevoKernel(config)
	if err != nil {
		return nil, nil, config, errors.Wrap(err, "no se pudo crear el kernel")
	}

	kernelModulo := utils.NuevoModulo("Kernel", configPath)
	k.RegistrarHandlers(kernelModulo)

	utils.InfoLog.Info("Kernel inicializado correctamente")
	return k, kernelModulo, config, nil
}

// cargarScripts crea una tarea por cada script del directorio
func cargarScripts(k *kernel.Kernel, dir string) ([]*cpu.Script, error) {
	scripts, err := cpu.CargarDirectorio(dir)
	if err != nil {
		return nil, err
	}
	if len(scripts) == 0 {
		utils.InfoLog.Info("No hay scripts para cargar", "directorio", dir)
	}

	for _, script := range scripts {
		pid, err := k.CargarPrograma(script.Programa())
		if err != nil {
			return nil, errors.Wrapf(err, "cargando el script %s", script.Nombre)
		}
		// Log obligatorio
		utils.InfoLog.Info(fmt.Sprintf("## (%d) - Script cargado: %s - Instrucciones: %d", pid, script.Nombre, script.Instrucciones()))
	}
	return scripts, nil
}
