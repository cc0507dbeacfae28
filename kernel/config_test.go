package kernel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPorDefectoEsValida(t *testing.T) {
	config := ConfigPorDefecto()
	require.NoError(t, config.Validar())

	geo, err := config.Geometria()
	require.NoError(t, err)
	assert.Equal(t, uint64(1)<<27, geo.MaxPaginas(), "3 niveles de 512 entradas")
}

func TestConfigInvalida(t *testing.T) {
	casos := map[string]func(c *KernelConfig){
		"pagina no potencia de dos":   func(c *KernelConfig) { c.PageSize = 3000 },
		"memoria no múltiplo":         func(c *KernelConfig) { c.MemorySize = 4096*4 + 1 },
		"sin niveles":                 func(c *KernelConfig) { c.NumberOfLevels = 0 },
		"todo reservado para kernel":  func(c *KernelConfig) { c.KernelFrames = c.MemorySize / c.PageSize },
		"pila desalineada":            func(c *KernelConfig) { c.UserStackBase = 0x1001 },
		"pila fuera del espacio":      func(c *KernelConfig) { c.UserStackBase = 1 << 39 },
		"pila que desborda 64 bits":   func(c *KernelConfig) { c.UserStackBase = 0xffff_ffff_ffff_f000 },
		"tabla que no entra en 64bit": func(c *KernelConfig) { c.NumberOfLevels = 8 },
	}
	for nombre, modificar := range casos {
		t.Run(nombre, func(t *testing.T) {
			config := ConfigPorDefecto()
			modificar(&config)
			assert.Error(t, config.Validar())
		})
	}
}

func TestCargarConfig(t *testing.T) {
	ruta := filepath.Join(t.TempDir(), "kernel.config")
	contenido := `{"TAM_MEMORIA": 65536, "TAM_PAGINA": 4096, "ENTRADAS_POR_TABLA": 16, "DIR_PILA_USUARIO": 1048576, "LOG_LEVEL": "debug"}`
	require.NoError(t, os.WriteFile(ruta, []byte(contenido), 0644))

	config, err := CargarConfig(ruta)
	require.NoError(t, err)
	assert.Equal(t, uint64(65536), config.MemorySize)
	assert.Equal(t, 16, config.EntriesPerPage)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, 3, config.NumberOfLevels, "lo que no está en el archivo queda por defecto")
	assert.Equal(t, uint64(0x100000), config.UserStackBase)

	// con 16 entradas por tabla el espacio virtual es de 16 MiB y la pila
	// por defecto queda afuera
	require.NoError(t, os.WriteFile(ruta, []byte(`{"TAM_MEMORIA": 65536, "ENTRADAS_POR_TABLA": 16}`), 0644))
	_, err = CargarConfig(ruta)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "excede el espacio virtual")

	require.NoError(t, os.WriteFile(ruta, []byte(`{"TAM_PAGINA": 1000}`), 0644))
	_, err = CargarConfig(ruta)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(ruta, []byte(`{"CAMPO_DESCONOCIDO": 1}`), 0644))
	_, err = CargarConfig(ruta)
	assert.Error(t, err)
}
