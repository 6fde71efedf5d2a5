//go:build portaudio

package audio

import (
	"sync"
	"testing"
)

// The stream is not opened, so no device is needed.
func TestPortAudioSinkCountsUnderruns(t *testing.T) {
	s := &PortAudioSink{
		bufferSize: 4,
		buf:        make([]float32, 4),
	}
	out := make([]float32, 4)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.process(out)
		}
	}()
	for i := 0; i < 100; i++ {
		s.underrunCount()
	}
	wg.Wait()
	expectEqual(t, s.underrunCount(), int64(100))

	expectNoError(t, s.Submit([]float32{1, 2, 3, 4}))
	s.process(out)
	expectEqual(t, out[3], float32(4))
	expectEqual(t, s.underrunCount(), int64(100))
}
