package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"
)

// ----- Utility ----- //

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Changes ----- //

// Changes ...
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Stats ----- //

// Stats describes how the engine keeps up with the sink.
type Stats struct {
	Frames       int64
	Dropped      int64
	LastDuration time.Duration
	Budget       float64 // share of one buffer period
}

// ----- Audio ----- //

// Audio owns the voices, the held notes, the engine and the sink. Commands
// and ticks run on the goroutine that called Start, so the voices have a
// single writer.
type Audio struct {
	config    *Config
	CommandCh chan []string
	Changes   *Changes
	notes     *HeldNotes
	sink      Sink
	spectrum  *spectrum

	state  sync.Mutex // guards voices and synth against reports
	voices *voices
	synth  *synth
}

// NewAudio builds an engine that submits to sink. It starts with one sine voice.
func NewAudio(config *Config, sink Sink) (*Audio, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	spectrum, err := newSpectrum(config.FFTSize)
	if err != nil {
		return nil, err
	}
	notes := NewHeldNotes(config.Polyphony)
	voices := newVoices(config.MaxVoices)
	if _, err := voices.add(); err != nil {
		return nil, err
	}
	return &Audio{
		config:    config,
		CommandCh: make(chan []string, 256),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		notes:    notes,
		sink:     sink,
		spectrum: spectrum,
		voices:   voices,
		synth:    newSynth(config, voices, notes, sink),
	}, nil
}

// Notes returns the held note table, for MIDI input.
func (a *Audio) Notes() *HeldNotes {
	return a.notes
}

// VoicesJSON returns the voice list as a JSON array.
func (a *Audio) VoicesJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	return a.voices.toJSON()
}

// Stats ...
func (a *Audio) Stats() Stats {
	a.state.Lock()
	defer a.state.Unlock()
	return Stats{
		Frames:       a.synth.frames,
		Dropped:      a.synth.dropped,
		LastDuration: a.synth.lastDuration,
		Budget:       a.synth.budget(),
	}
}

// Tick generates and submits one buffer if the sink is ready.
func (a *Audio) Tick() (bool, error) {
	a.state.Lock()
	defer a.state.Unlock()
	generated, err := a.synth.tick()
	if err != nil {
		return generated, err
	}
	if generated {
		a.spectrum.push(a.synth.signal)
	}
	return generated, nil
}

// GetFFT returns the amplitude spectrum of the latest output. It is safe to
// call from several goroutines while the engine runs.
func (a *Audio) GetFFT() []float64 {
	return a.spectrum.calc()
}

// Start runs commands and ticks until ctx is cancelled. It returns the
// first sink error.
func (a *Audio) Start(ctx context.Context) error {
	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()
	commandCh := a.CommandCh
	for {
		select {
		case <-ctx.Done():
			log.Println("Start() ended.")
			return nil
		case command, ok := <-commandCh:
			if !ok {
				commandCh = nil
				continue
			}
			if err := a.Update(command); err != nil {
				log.Printf("failed to execute %v: %v\n", command, err)
			}
		case <-ticker.C:
			if _, err := a.Tick(); err != nil {
				return fmt.Errorf("failed to submit: %w", err)
			}
		}
	}
}

// Update executes one text command. An invalid command leaves the state unchanged.
func (a *Audio) Update(command []string) error {
	a.state.Lock()
	defer a.state.Unlock()
	return a.update(command)
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	switch command[0] {
	case "add_voice":
		if _, err := a.voices.add(); err != nil {
			return err
		}
		a.Changes.Add("voices")
	case "remove_voice":
		if len(command) != 2 {
			return fmt.Errorf("usage: remove_voice <index>")
		}
		index, err := strconv.ParseInt(command[1], 10, 64)
		if err != nil {
			return err
		}
		if err := a.voices.remove(int(index)); err != nil {
			return err
		}
		a.Changes.Add("voices")
	case "set":
		command = command[1:]
		if len(command) == 0 {
			return fmt.Errorf("usage: set <target> ...")
		}
		switch command[0] {
		case "voice":
			command = command[1:]
			if len(command) != 3 {
				return fmt.Errorf("invalid key-value pair %v", command)
			}
			index, err := strconv.ParseInt(command[0], 10, 64)
			if err != nil {
				return err
			}
			v, err := a.voices.get(int(index))
			if err != nil {
				return err
			}
			if err := v.set(command[1], command[2], len(a.voices.list)); err != nil {
				return err
			}
			a.Changes.Add("voices")
		case "vel_sense":
			if len(command) != 2 {
				return fmt.Errorf("usage: set vel_sense <value>")
			}
			value, err := strconv.ParseFloat(command[1], 64)
			if err != nil {
				return err
			}
			if !(value >= 0 && value <= 1) {
				return fmt.Errorf("vel_sense should be in [0,1]: %v", value)
			}
			a.synth.velSense = value
		case "window":
			if len(command) != 2 {
				return fmt.Errorf("usage: set window <name>")
			}
			window, err := windowFromString(command[1])
			if err != nil {
				return err
			}
			a.spectrum.setWindow(window)
		default:
			return fmt.Errorf("unknown target %v", command[0])
		}
	case "note_on":
		if len(command) != 2 && len(command) != 3 {
			return fmt.Errorf("usage: note_on <note> [velocity]")
		}
		note, err := parseNote(command[1])
		if err != nil {
			return err
		}
		velocity := maxMidiVelocity
		if len(command) == 3 {
			v, err := strconv.ParseUint(command[2], 10, 8)
			if err != nil {
				return err
			}
			if v > maxMidiVelocity {
				return fmt.Errorf("velocity %v out of range", v)
			}
			velocity = float64(v)
		}
		a.notes.NoteOn(note, velocity/maxMidiVelocity)
	case "note_off":
		if len(command) != 2 {
			return fmt.Errorf("usage: note_off <note>")
		}
		note, err := parseNote(command[1])
		if err != nil {
			return err
		}
		a.notes.NoteOff(note)
	case "all_notes_off":
		a.notes.AllNotesOff()
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func parseNote(s string) (uint8, error) {
	note, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	if note > 127 {
		return 0, fmt.Errorf("note %v out of range", note)
	}
	return uint8(note), nil
}

// Close closes the sink and CommandCh. Start must have returned, and nothing
// may send to CommandCh afterwards: a send on the closed channel panics.
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	return a.sink.Close()
}
