package audio

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/oto"
)

const bitDepthInBytes = 2

// ----- Oto Sink ----- //

// OtoSink plays buffers on the default audio device. A background writer
// hands the converted buffer to the oto player; the sink is ready again once
// the player has taken all of it.
type OtoSink struct {
	otoContext *oto.Context
	player     *oto.Player
	bufferSize int
	channels   int
	buf        []byte
	pending    chan []byte
	done       chan struct{}
	ready      atomic.Bool
	closeOnce  sync.Once

	mu  sync.Mutex
	err error
}

var _ Sink = (*OtoSink)(nil)

// NewOtoSink opens the default device with the config's rate and buffer size.
func NewOtoSink(config *Config) (*OtoSink, error) {
	bytesPerSample := bitDepthInBytes * config.Channels
	bufferSizeInBytes := config.BufferSize * bytesPerSample
	otoContext, err := oto.NewContext(config.SampleRate, config.Channels, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	s := &OtoSink{
		otoContext: otoContext,
		player:     otoContext.NewPlayer(),
		bufferSize: config.BufferSize,
		channels:   config.Channels,
		buf:        make([]byte, bufferSizeInBytes),
		pending:    make(chan []byte, 1),
		done:       make(chan struct{}),
	}
	s.ready.Store(true)
	go s.drain()
	return s, nil
}

func (s *OtoSink) drain() {
	defer close(s.done)
	for buf := range s.pending {
		// blocks until the player has room
		if _, err := s.player.Write(buf); err != nil {
			log.Printf("failed to write to player: %v\n", err)
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
		s.ready.Store(true)
	}
	log.Println("drain() ended.")
}

// IsReady implements Sink.
func (s *OtoSink) IsReady() bool {
	return s.ready.Load()
}

// Submit implements Sink.
func (s *OtoSink) Submit(in []float32) error {
	if err := checkBufferSize(in, s.bufferSize); err != nil {
		return err
	}
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if !s.ready.Load() {
		return fmt.Errorf("oto sink is still draining")
	}
	s.ready.Store(false)
	writeBuffer(in, s.buf, s.channels)
	s.pending <- s.buf
	return nil
}

// Close implements Sink.
func (s *OtoSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		log.Println("Closing OtoSink...")
		close(s.pending)
		<-s.done
		if e := s.player.Close(); e != nil {
			log.Printf("error while closing player: %v", e)
		}
		err = s.otoContext.Close()
	})
	return err
}
