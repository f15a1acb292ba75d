package cpu

import "github.com/UlisseMini/light/backend"

// storage is a byte buffer in host memory. Float32 data is viewed in place.
type storage struct {
	buf []byte
	dev backend.Device
}

// Float32Storage copies data into freshly allocated storage.
func Float32Storage(data []float32) backend.Storage {
	s := Alloc(len(data) * 4)
	copy(floatSlice(s, len(data)), data)
	return s
}

// Alloc creates zeroed CPU storage of the given byte length.
func Alloc(byteLen int) backend.Storage {
	return &storage{buf: make([]byte, byteLen), dev: backend.CPU0}
}

func (s *storage) Device() backend.Device { return s.dev }
func (s *storage) ByteLen() int           { return len(s.buf) }
func (s *storage) Bytes() []byte          { return s.buf }

// Free drops the buffer so the GC can reclaim it. Later access panics.
func (s *storage) Free() {
	s.buf = nil
}
