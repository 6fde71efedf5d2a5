package audio

import (
	"math"
	"time"
)

// ----- Synth State ----- //

const (
	stateWaitingForSink = iota
	stateGenerating
	stateSubmitted
)

// ----- Synth ----- //

// synth regenerates one buffer per tick from the voices and the held notes
// and hands it to the sink. It never blocks: when the sink is still busy
// the tick is dropped.
type synth struct {
	sampleRate float64
	groups     []*oscGroup
	router     *router
	signal     []float32 // length: buffer size
	notes      NoteSource
	voices     *voices
	velSense   float64
	sink       Sink
	state      int
	held       []Note

	frames       int64
	dropped      int64
	lastDuration time.Duration
	period       time.Duration
}

func newSynth(config *Config, vs *voices, notes NoteSource, sink Sink) *synth {
	groups := make([]*oscGroup, waveKindCount-1)
	for i := range groups {
		groups[i] = newOscGroup(i+1, config.MaxOscillators, config.BufferSize)
	}
	return &synth{
		sampleRate: float64(config.SampleRate),
		groups:     groups,
		router:     newRouter(groups, config.Polyphony*config.MaxVoices, config.MaxVoices),
		signal:     make([]float32, config.BufferSize),
		notes:      notes,
		voices:     vs,
		sink:       sink,
		state:      stateWaitingForSink,
		held:       make([]Note, 0, config.Polyphony),
		period:     config.bufferDuration(),
	}
}

// tick reports whether a buffer was generated. A submit error is fatal.
func (s *synth) tick() (bool, error) {
	if s.state == stateSubmitted {
		s.state = stateWaitingForSink
	}
	if !s.sink.IsReady() {
		s.dropped++
		return false, nil
	}
	start := time.Now()
	s.state = stateGenerating
	s.generate()
	if err := s.sink.Submit(s.signal); err != nil {
		s.state = stateWaitingForSink
		return true, err
	}
	s.state = stateSubmitted
	s.frames++
	s.lastDuration = time.Since(start)
	return true, nil
}

func (s *synth) generate() {
	for i := range s.signal {
		s.signal[i] = 0
	}
	s.held = s.notes.Snapshot(s.held[:0])
	s.router.apply(s.voices, s.held, s.velSense)
	for depth := 0; depth <= s.router.maxDepth; depth++ {
		for _, g := range s.groups {
			g.update(depth, s.sampleRate, s.router)
		}
	}
	s.accumulate()
}

func (s *synth) accumulate() {
	for _, g := range s.groups {
		for i := range g.active() {
			o := &g.oscs[i]
			if o.isModulator {
				continue
			}
			for t, value := range o.out {
				s.signal[t] += value
			}
		}
	}
	for _, value := range s.signal {
		if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
			panic("found NaN")
		}
	}
}

// budget is the share of one buffer period spent generating the last buffer.
func (s *synth) budget() float64 {
	if s.period <= 0 {
		return 0
	}
	return float64(s.lastDuration) / float64(s.period)
}
