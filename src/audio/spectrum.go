package audio

import (
	"fmt"
	"math/cmplx"
	"sync"

	"github.com/ktye/fft"
)

// ----- Spectrum ----- //

// spectrum keeps the last fft-size samples of the output. The engine pushes
// every generated buffer; the report goroutine reads magnitudes.
type spectrum struct {
	sync.Mutex
	fft     fft.FFT
	history []float32 // length: fft size
	pos     int
	window  windowFn

	calcMu sync.Mutex   // guards data and buf
	data   []float64    // length: fft size
	buf    []complex128 // length: fft size
}

func newSpectrum(size int) (*spectrum, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, fmt.Errorf("fft size should be a power of two: %v", size)
	}
	f, err := fft.New(size)
	if err != nil {
		return nil, err
	}
	return &spectrum{
		fft:     f,
		history: make([]float32, size),
		window:  Han,
		data:    make([]float64, size),
		buf:     make([]complex128, size),
	}, nil
}

func (s *spectrum) push(in []float32) {
	s.Lock()
	defer s.Unlock()
	for len(in) > 0 {
		n := copy(s.history[s.pos:], in)
		in = in[n:]
		s.pos = (s.pos + n) % len(s.history)
	}
}

func (s *spectrum) setWindow(window windowFn) {
	s.Lock()
	s.window = window
	s.Unlock()
}

// calc returns the amplitude of each bin up to Nyquist. The transform runs
// outside the history lock so that push never waits for it.
func (s *spectrum) calc() []float64 {
	s.calcMu.Lock()
	defer s.calcMu.Unlock()
	s.Lock()
	// history: | 4 | 1 | 2 | 3 |
	// pos:         ^
	// data:    | 1 | 2 | 3 | 4 |
	size := len(s.history)
	for i := 0; i < size; i++ {
		s.data[i] = float64(s.history[(s.pos+i)%size])
	}
	window := s.window
	s.Unlock()

	window(s.data)
	for i, value := range s.data {
		s.buf[i] = complex(value, 0)
	}
	s.buf = s.fft.Transform(s.buf)
	result := make([]float64, size/2)
	for i := range result {
		result[i] = cmplx.Abs(s.buf[i]) * 2 / float64(size)
	}
	return result
}
