//go:build !portaudio

package audio

import "fmt"

// NewPortAudioSink is unavailable unless built with -tags portaudio.
func NewPortAudioSink(config *Config) (Sink, error) {
	return nil, fmt.Errorf("built without portaudio support")
}
