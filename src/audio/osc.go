package audio

import "math"

// ----- Pitch ----- //

const baseNote = 69
const baseFreq = 440.0

// shiftFreqByNote transposes freq by the distance of note from the base note.
// The sign of freq is kept.
func shiftFreqByNote(freq float64, note int) float64 {
	return freq * math.Pow(2, float64(note-baseNote)/12)
}

// wrapPhase folds p back into [0,1) in either direction.
func wrapPhase(p float64) float64 {
	p -= math.Floor(p)
	if p >= 1 {
		// -tiny rounds up to exactly 1
		p = 0
	}
	return p
}

// ----- OSC ----- //

type osc struct {
	phase       float64 // 0 ~ 1
	phaseInc    float64 // cycles per sample
	freq        float64 // Hz, may be negative
	amp         float64
	shapeParam  float64
	owner       int // index of the voice that spawned this osc
	note        int
	depth       int // length of the modulator chain feeding this osc
	pair        int // index into the modulation pairs, -1 if none
	isModulator bool
	out         []float32 // length: buffer size
}

func newOsc(bufferSize int) osc {
	return osc{
		pair: -1,
		out:  make([]float32, bufferSize),
	}
}

// initWithVoice derives the osc from a voice for the given note.
// The phase is left to the caller.
func (o *osc) initWithVoice(v *voice, owner int, note int, gain float64, depth int) {
	o.freq = shiftFreqByNote(v.freq, note)
	o.amp = v.amp * gain
	o.shapeParam = v.shapeParam
	o.owner = owner
	o.note = note
	o.depth = depth
	o.pair = -1
	o.isModulator = false
}

func (o *osc) step(shape waveShapeFn, freqMod float64, sampleRate float64) float64 {
	o.phaseInc = (o.freq + freqMod) / sampleRate
	o.phase = wrapPhase(o.phase + o.phaseInc)
	return shape(o.phase, o.phaseInc, o.shapeParam) * o.amp
}

func (o *osc) aboveNyquist(sampleRate float64) bool {
	return math.Abs(o.freq) > sampleRate/2
}

func (o *osc) silence() {
	for i := range o.out {
		o.out[i] = 0
	}
}
