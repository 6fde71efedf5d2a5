package audio

import (
	"fmt"
	"sync/atomic"
)

// ----- Sink ----- //

// Sink consumes fixed-size buffers on its own timing. The engine only
// submits after IsReady returned true, and the sink must not retain buf
// after Submit returns.
type Sink interface {
	IsReady() bool
	Submit(buf []float32) error
	Close() error
}

func checkBufferSize(buf []float32, bufferSize int) error {
	if len(buf) != bufferSize {
		return fmt.Errorf("buffer length %v does not match %v", len(buf), bufferSize)
	}
	return nil
}

// writeBuffer writes mono samples into every channel of 16-bit little endian frames.
func writeBuffer(in []float32, buf []byte, channels int) {
	const max = 32767
	bytesPerSample := 2 * channels
	for i, value := range in {
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		b := int16(value * max)
		for ch := 0; ch < channels; ch++ {
			buf[bytesPerSample*i+2*ch] = byte(b)
			buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
		}
	}
}

// ----- Headless Sink ----- //

// HeadlessSink drops everything it gets. It keeps a copy of the last buffer.
type HeadlessSink struct {
	bufferSize int
	last       []float32
	submitted  int64
	busy       atomic.Bool
}

var _ Sink = (*HeadlessSink)(nil)

// NewHeadlessSink creates a sink that is always ready.
func NewHeadlessSink(config *Config) *HeadlessSink {
	return &HeadlessSink{
		bufferSize: config.BufferSize,
		last:       make([]float32, config.BufferSize),
	}
}

// IsReady implements Sink.
func (s *HeadlessSink) IsReady() bool {
	return !s.busy.Load()
}

// Submit implements Sink.
func (s *HeadlessSink) Submit(buf []float32) error {
	if err := checkBufferSize(buf, s.bufferSize); err != nil {
		return err
	}
	copy(s.last, buf)
	s.submitted++
	return nil
}

// Close implements Sink.
func (s *HeadlessSink) Close() error {
	return nil
}

// Last returns the most recently submitted buffer.
func (s *HeadlessSink) Last() []float32 {
	return s.last
}

// Submitted returns the number of accepted buffers.
func (s *HeadlessSink) Submitted() int64 {
	return s.submitted
}

// SetBusy simulates a device that is still draining the previous buffer.
func (s *HeadlessSink) SetBusy(busy bool) {
	s.busy.Store(busy)
}
