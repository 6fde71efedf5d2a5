package audio

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// ListenToMidiIn feeds note messages from a MIDI IN port into notes until
// ctx is cancelled. An empty port name selects the first port. Having no
// MIDI device at all is not an error.
func ListenToMidiIn(ctx context.Context, port string, notes *HeldNotes) error {
	drv, err := rtmididrv.New()
	if err != nil {
		log.Printf("failed to initialize MIDI driver: %v\n", err)
		return nil
	}
	defer func() {
		err := drv.Close()
		if err != nil {
			log.Printf("failed to close MIDI driver: %v\n", err)
		}
	}()
	ins, err := drv.Ins()
	if err != nil {
		log.Printf("failed to get MIDI IN: %v\n", err)
		return nil
	}
	log.Printf("MIDI IN: %v\n", ins)

	if len(ins) == 0 {
		log.Println("WARN: MIDI IN not found")
		return nil
	}
	in, err := selectMidiIn(ins, port)
	if err != nil {
		return err
	}
	if err := in.Open(); err != nil {
		return fmt.Errorf("failed to open MIDI IN: %w", err)
	}
	log.Println("opened " + in.String())
	defer func() {
		err := in.Close()
		if err != nil {
			log.Printf("failed to close MIDI IN: %v\n", err)
		}
	}()
	log.Println("start listening MIDI IN...")
	if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
		notes.HandleMidi(data)
	}); err != nil {
		return fmt.Errorf("failed to set listener: %w", err)
	}
	defer func() {
		log.Println("stop listening MIDI IN...")
		err := in.StopListening()
		if err != nil {
			log.Printf("failed to stop listening: %v\n", err)
		}
	}()
	<-ctx.Done()
	log.Println("ListenToMidiIn() ended.")
	return nil
}

func selectMidiIn(ins []midi.In, port string) (midi.In, error) {
	if port == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if strings.Contains(in.String(), port) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("MIDI IN %q not found in %v", port, ins)
}
