package kernel

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// RegistrarHandlers publica en el módulo las consultas de inspección
func (k *Kernel) RegistrarHandlers(modulo *utils.Modulo) {
	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeHandshake), "handshake", k.handlerHandshake)
	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeEspacioLibre), "default", k.handlerEspacioLibre)
	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeEstadoTareas), "default", k.handlerEstadoTareas)
	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeAreas), "default", k.handlerAreas)
	modulo.RegistrarHandler(strconv.Itoa(utils.MensajeMemoryDump), "default", k.handlerMemoryDump)
}

func (k *Kernel) handlerHandshake(msg *utils.Mensaje) (interface{}, error) {
	utils.InfoLog.Info("Handshake recibido", "origen", msg.Origen)
	return map[string]interface{}{
		"status":  "OK",
		"mensaje": "Handshake exitoso con Kernel",
	}, nil
}

func (k *Kernel) handlerEspacioLibre(msg *utils.Mensaje) (interface{}, error) {
	marcosLibres := k.admin.MarcosDisponibles()
	espacioLibre := marcosLibres * k.geo.TamPagina

	utils.InfoLog.Info("Espacio libre consultado", "espacio_libre_bytes", espacioLibre)

	return map[string]interface{}{
		"status":        "OK",
		"marcos_libres": marcosLibres,
		"espacio_libre": espacioLibre,
	}, nil
}

func (k *Kernel) handlerEstadoTareas(msg *utils.Mensaje) (interface{}, error) {
	return map[string]interface{}{
		"status": "OK",
		"tareas": k.admin.Instantanea(),
	}, nil
}

func (k *Kernel) handlerAreas(msg *utils.Mensaje) (interface{}, error) {
	return utils.HandlerGenerico(msg, func(msg *utils.Mensaje) (interface{}, error) {
		pid, ok := utils.ExtraerEntero(msg, "pid")
		if !ok {
			return nil, errors.New("PID no proporcionado o formato incorrecto")
		}
		areas, err := k.admin.AreasDeTarea(pid)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"status": "OK",
			"pid":    pid,
			"areas":  areas,
		}, nil
	})
}

func (k *Kernel) handlerMemoryDump(msg *utils.Mensaje) (interface{}, error) {
	return utils.HandlerGenerico(msg, func(msg *utils.Mensaje) (interface{}, error) {
		pid, ok := utils.ExtraerEntero(msg, "pid")
		if !ok {
			return nil, errors.New("PID no proporcionado o formato incorrecto")
		}
		ruta, err := k.admin.VolcarTarea(k.config.DumpPath, pid)
		if err != nil {
			return nil, errors.Wrapf(err, "dump de la tarea %d", pid)
		}
		return map[string]interface{}{
			"status":  "OK",
			"archivo": ruta,
		}, nil
	})
}
