package cpu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Instruccion es una línea del pseudocódigo ya decodificada
type Instruccion struct {
	Operacion string
	Args      []uint64
	Datos     string // texto de WRITE
	Linea     int
}

func (i Instruccion) String() string {
	partes := []string{i.Operacion}
	for _, arg := range i.Args {
		partes = append(partes, fmt.Sprintf("%#x", arg))
	}
	if i.Datos != "" {
		partes = append(partes, i.Datos)
	}
	return strings.Join(partes, " ")
}

type formatoInstruccion struct {
	numericos int  // argumentos numéricos obligatorios
	opcional  bool // admite un numérico más
	conSigno  bool
	conDatos  bool // el último argumento es texto
}

var formatos = map[string]formatoInstruccion{
	"NOOP":         {},
	"MMAP":         {numericos: 3},
	"MUNMAP":       {numericos: 2},
	"WRITE":        {numericos: 1, conDatos: true},
	"READ":         {numericos: 2},
	"PRINT":        {numericos: 2},
	"GET_TIME":     {numericos: 1},
	"TASK_INFO":    {numericos: 1},
	"YIELD":        {},
	"SET_PRIORITY": {numericos: 1, conSigno: true},
	"GOTO":         {numericos: 1},
	"EXIT":         {opcional: true, conSigno: true},
}

// decodificar interpreta una línea no vacía del script
func decodificar(linea string, numero int) (Instruccion, error) {
	partes := strings.Fields(linea)
	instruccion := Instruccion{Operacion: strings.ToUpper(partes[0]), Linea: numero}
	parametros := partes[1:]

	formato, ok := formatos[instruccion.Operacion]
	if !ok {
		return Instruccion{}, errors.Errorf("línea %d: instrucción desconocida %q", numero, partes[0])
	}

	if formato.conDatos {
		if len(parametros) < formato.numericos+1 {
			return Instruccion{}, errors.Errorf("línea %d: %s: parámetros insuficientes", numero, instruccion.Operacion)
		}
		instruccion.Datos = strings.Join(parametros[formato.numericos:], " ")
		parametros = parametros[:formato.numericos]
	}

	maximo := formato.numericos
	if formato.opcional {
		maximo++
	}
	if len(parametros) < formato.numericos || len(parametros) > maximo {
		return Instruccion{}, errors.Errorf("línea %d: %s espera %d parámetros numéricos, tiene %d",
			numero, instruccion.Operacion, formato.numericos, len(parametros))
	}

	for _, parametro := range parametros {
		valor, err := parsearNumero(parametro, formato.conSigno)
		if err != nil {
			return Instruccion{}, errors.Wrapf(err, "línea %d: %s", numero, instruccion.Operacion)
		}
		instruccion.Args = append(instruccion.Args, valor)
	}
	return instruccion, nil
}

// parsearNumero acepta decimal, 0x, 0o y 0b. Los negativos se guardan en
// complemento a dos, como llegarían en un registro.
func parsearNumero(texto string, conSigno bool) (uint64, error) {
	if conSigno {
		valor, err := strconv.ParseInt(texto, 0, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "número inválido %q", texto)
		}
		return uint64(valor), nil
	}
	valor, err := strconv.ParseUint(texto, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "número inválido %q", texto)
	}
	return valor, nil
}
