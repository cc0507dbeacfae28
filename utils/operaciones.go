package utils

import (
	"fmt"
	"log/slog"
	"strconv"
)

// ExtraerEntero obtiene un entero de los datos del mensaje.
// JSON decodifica los números como float64, por eso se aceptan varios tipos.
func ExtraerEntero(msg *Mensaje, clave string) (int, bool) {
	datosMap, ok := msg.Datos.(map[string]interface{})
	if !ok {
		return 0, false
	}
	switch v := datosMap[clave].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if val, err := strconv.Atoi(v); err == nil {
			return val, true
		}
	}
	return 0, false
}

// HandlerGenerico registra la operación recibida y delega en el procesador
func HandlerGenerico(msg *Mensaje, procesador func(msg *Mensaje) (interface{}, error)) (interface{}, error) {
	slog.Info("Operación recibida", "origen", msg.Origen, "tipo", msg.Tipo, "operacion", msg.Operacion)

	respuesta, err := procesador(msg)
	if err != nil {
		return map[string]interface{}{
			"status": "ERROR",
			"error":  fmt.Sprintf("%v", err),
		}, nil
	}
	return respuesta, nil
}
