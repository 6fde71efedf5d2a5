package audio

import (
	"fmt"
	"time"
)

const (
	sampleRate      = 44100
	samplesPerCycle = 1024
	channelNum      = 2
	maxPoly         = 16
	maxVoices       = 8
	fftSize         = 2048 // multiple of samplesPerCycle
)

// Config is fixed for the lifetime of an engine and its sink.
type Config struct {
	SampleRate int
	BufferSize int // samples per submitted buffer
	Channels   int // device channels, the signal is mono
	Polyphony  int // held notes
	MaxVoices  int
	// MaxOscillators is the capacity of each oscillator group.
	MaxOscillators int
	FFTSize        int
	TickInterval   time.Duration
}

// DefaultConfig returns the reference design: 44.1kHz, 1024 samples per buffer.
func DefaultConfig() *Config {
	return &Config{
		SampleRate:     sampleRate,
		BufferSize:     samplesPerCycle,
		Channels:       channelNum,
		Polyphony:      maxPoly,
		MaxVoices:      maxVoices,
		MaxOscillators: maxPoly * maxVoices,
		FFTSize:        fftSize,
		TickInterval:   time.Second / 120,
	}
}

// Validate rejects configs the engine cannot run with. Group capacity must
// cover every voice playing every held note.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %v", c.SampleRate)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("invalid buffer size %v", c.BufferSize)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid channel count %v", c.Channels)
	}
	if c.Polyphony <= 0 || c.MaxVoices <= 0 {
		return fmt.Errorf("polyphony and voices should be positive, got %v and %v", c.Polyphony, c.MaxVoices)
	}
	if c.MaxOscillators < c.Polyphony*c.MaxVoices {
		return fmt.Errorf("oscillator capacity %v is less than polyphony %v x voices %v", c.MaxOscillators, c.Polyphony, c.MaxVoices)
	}
	if c.FFTSize <= 0 || c.FFTSize&(c.FFTSize-1) != 0 || c.FFTSize%c.BufferSize != 0 {
		return fmt.Errorf("fft size %v should be a power of two and a multiple of %v", c.FFTSize, c.BufferSize)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %v", c.TickInterval)
	}
	return nil
}

func (c *Config) bufferDuration() time.Duration {
	return time.Duration(c.BufferSize) * time.Second / time.Duration(c.SampleRate)
}
