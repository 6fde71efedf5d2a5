package audio

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	expectNoError(t, config.Validate())
	expectEqual(t, config.SampleRate, 44100)
	expectEqual(t, config.BufferSize, 1024)
	expectEqual(t, config.MaxOscillators, 128)
	expectEqual(t, config.bufferDuration(), 1024*time.Second/44100)
}

func TestValidateConfig(t *testing.T) {
	cases := []func(c *Config){
		func(c *Config) { c.SampleRate = 0 },
		func(c *Config) { c.BufferSize = -1 },
		func(c *Config) { c.Channels = 0 },
		func(c *Config) { c.Polyphony = 0 },
		func(c *Config) { c.MaxVoices = 0 },
		func(c *Config) { c.Polyphony = 32 },
		func(c *Config) { c.FFTSize = 1536 },
		func(c *Config) { c.FFTSize = 512 },
		func(c *Config) { c.TickInterval = 0 },
	}
	for i, modify := range cases {
		config := DefaultConfig()
		modify(config)
		if err := config.Validate(); err == nil {
			t.Errorf("case %v: expected error", i)
		}
	}
}
