package kernel

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Formatos que el kernel escribe en memoria de la tarea. Little endian, con
// cada campo alineado a su tamaño natural.
const (
	TamTimeVal = 16

	despTaskInfoContadores = 4
	despTaskInfoTiempo     = (despTaskInfoContadores + 4*MaxSyscallNum + 7) &^ 7
	TamTaskInfo            = despTaskInfoTiempo + 8
)

// TimeVal es la hora que devuelve get_time
type TimeVal struct {
	Sec  uint64
	Usec uint64
}

// NuevoTimeVal parte un instante en microsegundos
func NuevoTimeVal(us uint64) TimeVal {
	return TimeVal{Sec: us / 1_000_000, Usec: us % 1_000_000}
}

// Microsegundos vuelve a juntar Sec y Usec
func (tv TimeVal) Microsegundos() uint64 {
	return tv.Sec*1_000_000 + tv.Usec
}

// Codificar arma los TamTimeVal bytes que se copian a la tarea
func (tv TimeVal) Codificar() []byte {
	buf := make([]byte, TamTimeVal)
	binary.LittleEndian.PutUint64(buf[0:], tv.Sec)
	binary.LittleEndian.PutUint64(buf[8:], tv.Usec)
	return buf
}

// DecodificarTimeVal lee un TimeVal de buf
func DecodificarTimeVal(buf []byte) (TimeVal, error) {
	if len(buf) < TamTimeVal {
		return TimeVal{}, errors.Errorf("TimeVal necesita %d bytes, hay %d", TamTimeVal, len(buf))
	}
	return TimeVal{
		Sec:  binary.LittleEndian.Uint64(buf[0:]),
		Usec: binary.LittleEndian.Uint64(buf[8:]),
	}, nil
}

// TaskInfo es lo que devuelve task_info. Time está en milisegundos desde la
// primera planificación de la tarea.
type TaskInfo struct {
	Status       EstadoTarea
	SyscallTimes [MaxSyscallNum]uint32
	Time         uint64
}

// Codificar arma los TamTaskInfo bytes que se copian a la tarea
func (ti *TaskInfo) Codificar() []byte {
	buf := make([]byte, TamTaskInfo)
	binary.LittleEndian.PutUint32(buf[0:], uint32(ti.Status))
	for i, veces := range ti.SyscallTimes {
		binary.LittleEndian.PutUint32(buf[despTaskInfoContadores+4*i:], veces)
	}
	binary.LittleEndian.PutUint64(buf[despTaskInfoTiempo:], ti.Time)
	return buf
}

// DecodificarTaskInfo lee un TaskInfo de buf
func DecodificarTaskInfo(buf []byte) (TaskInfo, error) {
	if len(buf) < TamTaskInfo {
		return TaskInfo{}, errors.Errorf("TaskInfo necesita %d bytes, hay %d", TamTaskInfo, len(buf))
	}
	var ti TaskInfo
	ti.Status = EstadoTarea(binary.LittleEndian.Uint32(buf[0:]))
	for i := range ti.SyscallTimes {
		ti.SyscallTimes[i] = binary.LittleEndian.Uint32(buf[despTaskInfoContadores+4*i:])
	}
	ti.Time = binary.LittleEndian.Uint64(buf[despTaskInfoTiempo:])
	return ti, nil
}
