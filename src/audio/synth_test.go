package audio

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

type fixedNotes []Note

func (n fixedNotes) Snapshot(dst []Note) []Note {
	return append(dst, n...)
}

type failingSink struct {
	*HeadlessSink
}

func (s *failingSink) Submit(buf []float32) error {
	return fmt.Errorf("device lost")
}

func testConfig() *Config {
	config := DefaultConfig()
	config.BufferSize = 256
	config.FFTSize = 1024
	return config
}

func newTestSynth(notes NoteSource, list ...*voice) (*synth, *HeadlessSink) {
	config := testConfig()
	vs := newVoices(config.MaxVoices)
	vs.list = append(vs.list, list...)
	sink := NewHeadlessSink(config)
	return newSynth(config, vs, notes, sink), sink
}

func findOsc(s *synth, owner int, note int) *osc {
	for _, g := range s.groups {
		for i := range g.active() {
			o := &g.oscs[i]
			if o.owner == owner && o.note == note {
				return o
			}
		}
	}
	return nil
}

func countActive(s *synth) int {
	n := 0
	for _, g := range s.groups {
		n += g.count
	}
	return n
}

func TestZeroCrossings(t *testing.T) {
	config := DefaultConfig()
	vs := newVoices(config.MaxVoices)
	vs.list = append(vs.list, &voice{kind: waveSine, freq: 440, amp: 0.5})
	sink := NewHeadlessSink(config)
	s := newSynth(config, vs, fixedNotes{{Note: 69, Velocity: 1}}, sink)
	generated, err := s.tick()
	expectNoError(t, err)
	expectEqual(t, generated, true)

	out := sink.Last()
	crossings := make([]int, 0)
	for i := 1; i < len(out); i++ {
		if out[i-1] < 0 && out[i] >= 0 {
			crossings = append(crossings, i)
		}
	}
	if len(crossings) < 9 {
		t.Fatalf("expected at least 9 rising zero crossings, but got %v", len(crossings))
	}
	period := float64(config.SampleRate) / 440
	for i := 1; i < len(crossings); i++ {
		interval := float64(crossings[i] - crossings[i-1])
		expectWithin(t, interval, period, 1)
	}
}

func TestPhaseContinuesAcrossFrames(t *testing.T) {
	s, sink := newTestSynth(fixedNotes{{Note: 69, Velocity: 1}}, &voice{kind: waveSaw, freq: 440, amp: 0.5})
	expected := newOsc(0)
	expected.freq = 440
	expected.amp = 0.5
	for frame := 0; frame < 3; frame++ {
		_, err := s.tick()
		expectNoError(t, err)
		for i, value := range sink.Last() {
			want := float32(expected.step(sawShape, 0, s.sampleRate))
			if value != want {
				t.Fatalf("frame %v sample %v: expected %v, but got %v", frame, i, want, value)
			}
		}
	}
	expectEqual(t, s.frames, int64(3))
}

func TestPhaseContinuesWhenOtherNotesChange(t *testing.T) {
	notes := NewHeldNotes(4)
	s, _ := newTestSynth(notes, &voice{kind: waveSaw, freq: 440, amp: 0.5})
	held := newOsc(0)
	held.freq = 440
	held.amp = 0.5
	pressed := newOsc(0)
	pressed.freq = shiftFreqByNote(440, 81)
	pressed.amp = 0.5
	expectFrame := func(step string, note int, expected *osc) {
		t.Helper()
		o := findOsc(s, 0, note)
		if o == nil {
			t.Fatalf("%s: no osc for note %v", step, note)
		}
		for i, value := range o.out {
			want := float32(expected.step(sawShape, 0, s.sampleRate))
			if value != want {
				t.Fatalf("%s: note %v sample %v: expected %v, but got %v", step, note, i, want, value)
			}
		}
	}
	tick := func() {
		t.Helper()
		_, err := s.tick()
		expectNoError(t, err)
	}

	notes.NoteOn(69, 1)
	tick()
	expectFrame("first frame", 69, &held)
	tick()
	expectFrame("second frame", 69, &held)

	// the new note takes the first slot, the held one moves
	notes.NoteOn(81, 1)
	tick()
	expectFrame("after note on", 69, &held)
	expectFrame("after note on", 81, &pressed)

	notes.NoteOff(81)
	tick()
	expectFrame("after note off", 69, &held)
	if findOsc(s, 0, 81) != nil {
		t.Errorf("released note is still playing")
	}

	// pressing again starts over
	notes.NoteOn(81, 1)
	tick()
	expectFrame("after second note on", 69, &held)
	again := newOsc(0)
	again.freq = pressed.freq
	again.amp = 0.5
	expectFrame("after second note on", 81, &again)
}

func TestTickWhileSinkBusy(t *testing.T) {
	s, sink := newTestSynth(fixedNotes{{Note: 69, Velocity: 1}}, newVoice())
	sink.SetBusy(true)
	generated, err := s.tick()
	expectNoError(t, err)
	expectEqual(t, generated, false)
	expectEqual(t, sink.Submitted(), int64(0))
	expectEqual(t, s.dropped, int64(1))
	expectEqual(t, s.state, stateWaitingForSink)

	sink.SetBusy(false)
	generated, err = s.tick()
	expectNoError(t, err)
	expectEqual(t, generated, true)
	expectEqual(t, sink.Submitted(), int64(1))
	expectEqual(t, s.state, stateSubmitted)

	generated, err = s.tick()
	expectNoError(t, err)
	expectEqual(t, generated, true)
	expectEqual(t, sink.Submitted(), int64(2))
	expectEqual(t, s.frames, int64(2))
}

func TestSubmitError(t *testing.T) {
	config := testConfig()
	vs := newVoices(config.MaxVoices)
	sink := &failingSink{HeadlessSink: NewHeadlessSink(config)}
	s := newSynth(config, vs, fixedNotes{}, sink)
	generated, err := s.tick()
	if err == nil {
		t.Fatalf("expected submit error")
	}
	expectEqual(t, generated, true)
	expectEqual(t, s.state, stateWaitingForSink)
	expectEqual(t, s.frames, int64(0))
}

func TestSilenceWithoutNotes(t *testing.T) {
	s, sink := newTestSynth(fixedNotes{}, newVoice(), &voice{kind: waveSaw, freq: 220, amp: 1})
	_, err := s.tick()
	expectNoError(t, err)
	for _, value := range sink.Last() {
		expectEqual(t, value, float32(0))
	}
	expectEqual(t, countActive(s), 0)
}

func TestOneOscillatorPerNotePerVoice(t *testing.T) {
	notes := fixedNotes{{Note: 60, Velocity: 1}, {Note: 64, Velocity: 1}, {Note: 67, Velocity: 1}}
	s, _ := newTestSynth(notes,
		&voice{kind: waveSine, freq: 440, amp: 0.1},
		&voice{kind: waveNone, freq: 440, amp: 0.1},
		&voice{kind: waveSquare, freq: 440, amp: 0.1, shapeParam: 0.5},
	)
	s.generate()
	expectEqual(t, countActive(s), 6)
	expectEqual(t, s.groups[waveSine-1].count, 3)
	expectEqual(t, s.groups[waveSquare-1].count, 3)
	o := findOsc(s, 2, 64)
	if o == nil {
		t.Fatalf("no square osc for note 64")
	}
	expectNearlyEqual(t, o.freq, shiftFreqByNote(baseFreq, 64))
}

func TestAboveNyquistIsSilent(t *testing.T) {
	s, sink := newTestSynth(fixedNotes{{Note: 69, Velocity: 1}}, &voice{kind: waveSaw, freq: 30000, amp: 1})
	_, err := s.tick()
	expectNoError(t, err)
	for _, value := range sink.Last() {
		expectEqual(t, value, float32(0))
	}

	// the same voice is audible an octave lower than Nyquist
	s, sink = newTestSynth(fixedNotes{{Note: 45, Velocity: 1}}, &voice{kind: waveSaw, freq: 30000, amp: 1})
	_, err = s.tick()
	expectNoError(t, err)
	silent := true
	for _, value := range sink.Last() {
		if value != 0 {
			silent = false
		}
	}
	expectEqual(t, silent, false)
}

func TestNegativeFrequency(t *testing.T) {
	s, sink := newTestSynth(fixedNotes{{Note: 69, Velocity: 1}}, &voice{kind: waveSaw, freq: -440, amp: 1})
	_, err := s.tick()
	expectNoError(t, err)
	o := findOsc(s, 0, 69)
	if o.phase < 0 || o.phase >= 1 {
		t.Errorf("phase out of range: %v", o.phase)
	}
	// a backward saw falls
	out := sink.Last()
	expectEqual(t, out[10] < out[1], true)
}

func TestVelocitySense(t *testing.T) {
	peak := func(velSense float64) float64 {
		s, sink := newTestSynth(fixedNotes{{Note: 69, Velocity: 0.5}}, &voice{kind: waveSquare, freq: 100, amp: 0.8, shapeParam: 0.5})
		s.velSense = velSense
		_, err := s.tick()
		expectNoError(t, err)
		max := 0.0
		for _, value := range sink.Last() {
			max = math.Max(max, math.Abs(float64(value)))
		}
		return max
	}
	expectWithin(t, peak(0), 0.8, 0.001)
	expectWithin(t, peak(1), 0.4, 0.001)
}

func TestNaNPanics(t *testing.T) {
	s, _ := newTestSynth(fixedNotes{{Note: 69, Velocity: 1}}, &voice{kind: waveSine, freq: 440, amp: math.NaN()})
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		if !strings.Contains(fmt.Sprint(r), "NaN") {
			t.Errorf("unexpected panic: %v", r)
		}
	}()
	s.generate()
}

func TestBudget(t *testing.T) {
	s, _ := newTestSynth(fixedNotes{{Note: 69, Velocity: 1}}, newVoice())
	expectEqual(t, s.budget(), 0.0)
	_, err := s.tick()
	expectNoError(t, err)
	if s.budget() < 0 {
		t.Errorf("negative budget %v", s.budget())
	}
}
