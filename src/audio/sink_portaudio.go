//go:build portaudio

package audio

import (
	"fmt"
	"log"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ----- PortAudio Sink ----- //

// PortAudioSink feeds a portaudio callback stream. The callback takes the
// pending buffer if there is one and plays silence otherwise.
type PortAudioSink struct {
	stream     *portaudio.Stream
	bufferSize int

	mu        sync.Mutex
	buf       []float32
	full      bool
	underruns int64
}

var _ Sink = (*PortAudioSink)(nil)

// NewPortAudioSink opens the default output device as a mono stream.
func NewPortAudioSink(config *Config) (Sink, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	s := &PortAudioSink{
		bufferSize: config.BufferSize,
		buf:        make([]float32, config.BufferSize),
	}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(config.SampleRate), config.BufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

func (s *PortAudioSink) process(out []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.full {
		for i := range out {
			out[i] = 0
		}
		s.underruns++
		return
	}
	copy(out, s.buf)
	s.full = false
}

// IsReady implements Sink.
func (s *PortAudioSink) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.full
}

// Submit implements Sink.
func (s *PortAudioSink) Submit(in []float32) error {
	if err := checkBufferSize(in, s.bufferSize); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return fmt.Errorf("portaudio sink is still draining")
	}
	copy(s.buf, in)
	s.full = true
	return nil
}

func (s *PortAudioSink) underrunCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.underruns
}

// Close implements Sink.
func (s *PortAudioSink) Close() error {
	log.Printf("Closing PortAudioSink (underruns: %v)...\n", s.underrunCount())
	err := s.stream.Close()
	if e := portaudio.Terminate(); e != nil && err == nil {
		err = e
	}
	return err
}
