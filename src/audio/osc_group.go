package audio

import "fmt"

// ----- OSC Group ----- //

// oscGroup is a fixed-capacity pool of oscillators sharing one wave shape.
// Slots are reused every frame; only the first count are active.
type oscGroup struct {
	kind  int
	shape waveShapeFn
	oscs  []osc // length: capacity
	count int
	prev  []oscPhase // phases of the last frame, capacity: capacity
}

// oscPhase remembers where the osc of one voice and note stopped.
type oscPhase struct {
	owner int
	note  int
	phase float64
}

func newOscGroup(kind int, capacity int, bufferSize int) *oscGroup {
	oscs := make([]osc, capacity)
	for i := range oscs {
		oscs[i] = newOsc(bufferSize)
	}
	return &oscGroup{
		kind:  kind,
		shape: waveShapes[kind],
		oscs:  oscs,
		prev:  make([]oscPhase, 0, capacity),
	}
}

// next hands out the next free slot. Running out of slots is a logic error.
func (g *oscGroup) next() (*osc, int) {
	if g.count >= len(g.oscs) {
		panic(fmt.Sprintf("%s oscillators exceeded capacity %d", waveKindToString(g.kind), len(g.oscs)))
	}
	slot := g.count
	g.count++
	return &g.oscs[slot], slot
}

// clear frees every slot. The phases are kept so that a note that is still
// held in the next frame continues where it stopped, whatever slot it gets.
func (g *oscGroup) clear() {
	g.prev = g.prev[:0]
	for _, o := range g.oscs[:g.count] {
		g.prev = append(g.prev, oscPhase{owner: o.owner, note: o.note, phase: o.phase})
	}
	g.count = 0
}

// lastPhase returns the phase the osc of owner and note ended the last frame
// with, or 0 for a note that was not playing.
func (g *oscGroup) lastPhase(owner int, note int) float64 {
	for _, p := range g.prev {
		if p.owner == owner && p.note == note {
			return p.phase
		}
	}
	return 0
}

func (g *oscGroup) active() []osc {
	return g.oscs[:g.count]
}

// update renders one buffer for every active osc of the given depth.
// Modulators of those oscs must already have been rendered this frame.
func (g *oscGroup) update(depth int, sampleRate float64, r *router) {
	for i := range g.oscs[:g.count] {
		o := &g.oscs[i]
		if o.depth != depth {
			continue
		}
		if o.aboveNyquist(sampleRate) {
			o.silence()
			continue
		}
		var modOut []float32
		ratio := 0.0
		if o.pair >= 0 {
			modOut, ratio = r.modulatorOut(o.pair)
		}
		for t := range o.out {
			freqMod := 0.0
			if modOut != nil {
				freqMod = float64(modOut[t]) * ratio
			}
			o.out[t] = float32(o.step(g.shape, freqMod, sampleRate))
		}
	}
}
