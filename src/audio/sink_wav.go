package audio

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ----- WAV Sink ----- //

// WavSink records every buffer into a 16-bit mono WAV file. It consumes
// synchronously, so it is always ready.
type WavSink struct {
	file       *os.File
	enc        *wav.Encoder
	buf        *goaudio.IntBuffer
	bufferSize int
}

var _ Sink = (*WavSink)(nil)

// NewWavSink creates or truncates the file at path.
func NewWavSink(path string, config *Config) (*WavSink, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &WavSink{
		file: file,
		enc:  wav.NewEncoder(file, config.SampleRate, 16, 1, 1),
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: 1,
				SampleRate:  config.SampleRate,
			},
			Data:           make([]int, config.BufferSize),
			SourceBitDepth: 16,
		},
		bufferSize: config.BufferSize,
	}, nil
}

// IsReady implements Sink.
func (s *WavSink) IsReady() bool {
	return true
}

// Submit implements Sink.
func (s *WavSink) Submit(in []float32) error {
	if err := checkBufferSize(in, s.bufferSize); err != nil {
		return err
	}
	for i, value := range in {
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		s.buf.Data[i] = int(value * 32767)
	}
	return s.enc.Write(s.buf)
}

// Close finishes the WAV header and closes the file.
func (s *WavSink) Close() error {
	err := s.enc.Close()
	if e := s.file.Close(); e != nil && err == nil {
		err = e
	}
	return err
}
