package audio

// ----- Modulation ----- //

// Hz of frequency deviation per unit of modulator output.
const modulationRatio = 100.0

// oscRef addresses an osc by group and slot instead of by pointer, so that
// references never outlive the frame they were built in.
type oscRef struct {
	group int
	slot  int
}

type modulationPair struct {
	carrier   oscRef
	modulator oscRef
	target    int // 0-based index of the modulating voice
	ratio     float64
	bound     bool
}

// ----- Router ----- //

// router rebuilds all oscillators and modulation pairs from the voices and
// the held notes. It runs once per frame.
type router struct {
	groups   []*oscGroup // declaration order, index = kind - 1
	pairs    []modulationPair
	targets  []int // per voice, -1 = not modulated
	depths   []int // per voice
	maxDepth int
}

func newRouter(groups []*oscGroup, maxPairs int, maxVoices int) *router {
	return &router{
		groups:  groups,
		pairs:   make([]modulationPair, 0, maxPairs),
		targets: make([]int, 0, maxVoices),
		depths:  make([]int, 0, maxVoices),
	}
}

func (r *router) groupOf(kind int) *oscGroup {
	return r.groups[kind-1]
}

func (r *router) at(ref oscRef) *osc {
	return &r.groups[ref.group].oscs[ref.slot]
}

func (r *router) apply(vs *voices, notes []Note, velSense float64) {
	for _, g := range r.groups {
		g.clear()
	}
	r.pairs = r.pairs[:0]
	r.targets = r.targets[:0]
	r.depths = r.depths[:0]
	r.maxDepth = 0
	for i := range vs.list {
		depth := vs.modDepth(i)
		r.targets = append(r.targets, vs.modTarget(i))
		r.depths = append(r.depths, depth)
		if depth > r.maxDepth {
			r.maxDepth = depth
		}
	}
	for _, n := range notes {
		gain := velocityToGain(n.Velocity, velSense)
		for i, v := range vs.list {
			if v.kind <= waveNone || v.kind >= waveKindCount {
				continue
			}
			g := r.groupOf(v.kind)
			o, slot := g.next()
			o.initWithVoice(v, i, int(n.Note), gain, r.depths[i])
			o.phase = g.lastPhase(i, int(n.Note))
			if r.targets[i] >= 0 {
				o.pair = len(r.pairs)
				r.pairs = append(r.pairs, modulationPair{
					carrier: oscRef{group: v.kind - 1, slot: slot},
					target:  r.targets[i],
					ratio:   modulationRatio,
				})
			}
		}
	}
	for i := range r.pairs {
		r.resolve(&r.pairs[i], vs)
	}
}

// resolve binds the pair to an osc of the target voice, preferring the one
// playing the same note. Without a match the carrier plays unmodulated.
func (r *router) resolve(p *modulationPair, vs *voices) {
	carrier := r.at(p.carrier)
	kind := vs.list[p.target].kind
	if kind <= waveNone || kind >= waveKindCount {
		carrier.pair = -1
		return
	}
	g := r.groupOf(kind)
	found := -1
	for slot := range g.active() {
		o := &g.oscs[slot]
		if o.owner != p.target {
			continue
		}
		if o.note == carrier.note {
			found = slot
			break
		}
		if found < 0 {
			found = slot
		}
	}
	if found < 0 {
		carrier.pair = -1
		return
	}
	p.modulator = oscRef{group: kind - 1, slot: found}
	p.bound = true
	g.oscs[found].isModulator = true
}

func (r *router) modulatorOut(pair int) ([]float32, float64) {
	p := &r.pairs[pair]
	if !p.bound {
		return nil, 0
	}
	return r.at(p.modulator).out, p.ratio
}
