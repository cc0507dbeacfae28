package cpu

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/kernel"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/memoria"
	"github.com/sisoputnfrba/tp-2025-2c-LosCuervosXeneizes/utils"
)

// ExtensionScript es la extensión de los archivos de pseudocódigo
const ExtensionScript = ".txt"

// Resultado es lo que devolvió una instrucción al ejecutarse
type Resultado struct {
	PC        int
	Operacion string
	Retorno   int
	Leido     []byte // sólo READ
}

// Script es un programa de pseudocódigo que se carga como tarea
type Script struct {
	Nombre        string
	instrucciones []Instruccion

	mu         sync.Mutex
	resultados []Resultado
}

// ParsearScript lee un script línea por línea. Se ignoran las líneas
// vacías y las que empiezan con #.
func ParsearScript(nombre string, r io.Reader) (*Script, error) {
	script := &Script{Nombre: nombre}

	scanner := bufio.NewScanner(r)
	numero := 0
	for scanner.Scan() {
		numero++
		linea := strings.TrimSpace(scanner.Text())
		if linea == "" || strings.HasPrefix(linea, "#") {
			continue
		}
		instruccion, err := decodificar(linea, numero)
		if err != nil {
			return nil, errors.Wrapf(err, "script %s", nombre)
		}
		script.instrucciones = append(script.instrucciones, instruccion)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error leyendo el script %s", nombre)
	}

	for _, instruccion := range script.instrucciones {
		if instruccion.Operacion == "GOTO" && instruccion.Args[0] >= uint64(len(script.instrucciones)) {
			return nil, errors.Errorf("script %s, línea %d: GOTO fuera de rango", nombre, instruccion.Linea)
		}
	}

	utils.InfoLog.Info("Instrucciones procesadas", "script", nombre, "total_instrucciones", len(script.instrucciones))
	return script, nil
}

// CargarScript abre y parsea el archivo de ruta
func CargarScript(ruta string) (*Script, error) {
	archivo, err := os.Open(filepath.Clean(ruta))
	if err != nil {
		return nil, errors.Wrapf(err, "error al leer el archivo de pseudocódigo %s", ruta)
	}
	defer archivo.Close()

	return ParsearScript(strings.TrimSuffix(filepath.Base(ruta), ExtensionScript), archivo)
}

// CargarDirectorio carga todos los scripts de dir en orden alfabético
func CargarDirectorio(dir string) ([]*Script, error) {
	rutas, err := filepath.Glob(filepath.Join(dir, "*"+ExtensionScript))
	if err != nil {
		return nil, errors.Wrapf(err, "buscando scripts en %s", dir)
	}
	sort.Strings(rutas)

	scripts := make([]*Script, 0, len(rutas))
	for _, ruta := range rutas {
		script, err := CargarScript(ruta)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	return scripts, nil
}

// Instrucciones devuelve la cantidad de instrucciones del script
func (s *Script) Instrucciones() int {
	return len(s.instrucciones)
}

// Resultados devuelve una copia de lo que lleva ejecutado el script
func (s *Script) Resultados() []Resultado {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Resultado(nil), s.resultados...)
}

func (s *Script) registrar(resultado Resultado) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resultados = append(s.resultados, resultado)
}

// Programa convierte el script en el código de usuario de una tarea
func (s *Script) Programa() kernel.Programa {
	return func(u *kernel.Usuario) {
		pc := 0
		for pc < len(s.instrucciones) {
			instruccion := s.instrucciones[pc]
			utils.InfoLog.Info(fmt.Sprintf("## (%d) - Ejecutando: %s", u.PID(), instruccion))
			pc = s.ejecutar(u, pc, instruccion)
		}
	}
}

// ejecutar corre una instrucción y devuelve el siguiente PC
func (s *Script) ejecutar(u *kernel.Usuario, pc int, instruccion Instruccion) int {
	resultado := Resultado{PC: pc, Operacion: instruccion.Operacion}
	args := instruccion.Args
	siguientePC := pc + 1

	switch instruccion.Operacion {
	case "NOOP":
		// No hace nada

	case "MMAP":
		resultado.Retorno = u.Mmap(args[0], args[1], args[2])

	case "MUNMAP":
		resultado.Retorno = u.Munmap(args[0], args[1])

	case "WRITE":
		u.Escribir(memoria.DirVirtual(args[0]), []byte(instruccion.Datos))

	case "READ":
		resultado.Leido = u.Leer(memoria.DirVirtual(args[0]), int(args[1]))
		utils.InfoLog.Info("Lectura realizada", "pid", u.PID(), "direccion", args[0], "valor", string(resultado.Leido))

	case "PRINT":
		resultado.Retorno = u.Write(1, memoria.DirVirtual(args[0]), args[1])

	case "GET_TIME":
		resultado.Retorno = u.GetTime(memoria.DirVirtual(args[0]))

	case "TASK_INFO":
		resultado.Retorno = u.TaskInfo(memoria.DirVirtual(args[0]))

	case "YIELD":
		resultado.Retorno = u.Yield()

	case "SET_PRIORITY":
		resultado.Retorno = u.SetPriority(int64(args[0]))

	case "GOTO":
		siguientePC = int(args[0])

	case "EXIT":
		codigo := int32(0)
		if len(args) > 0 {
			codigo = int32(int64(args[0]))
		}
		s.registrar(resultado)
		u.Exit(codigo)
	}

	s.registrar(resultado)
	return siguientePC
}
