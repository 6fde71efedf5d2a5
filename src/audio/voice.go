package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ----- Voice ----- //

// voice is a user-authored oscillator template. It is independent of the
// notes being played and is read by the router once per frame.
type voice struct {
	kind       int
	freq       float64 // Hz at the base note
	amp        float64 // linear
	shapeParam float64 // 0 ~ 1
	mod        int     // 1-based index of the modulating voice, 0 = none
}

type voiceJSON struct {
	Kind       string  `json:"kind"`
	Freq       float64 `json:"freq"`
	Amp        float64 `json:"amp"`
	Gain       float64 `json:"gain"`
	ShapeParam float64 `json:"shapeParam"`
	HasParam   bool    `json:"hasParam"`
	Mod        int     `json:"mod"`
}

func newVoice() *voice {
	return &voice{
		kind:       waveSine,
		freq:       baseFreq,
		amp:        0.1,
		shapeParam: 0.5,
	}
}

func (v *voice) toJSON() json.RawMessage {
	return toRawMessage(&voiceJSON{
		Kind:       waveKindToString(v.kind),
		Freq:       v.freq,
		Amp:        v.amp,
		Gain:       linearToDB(v.amp),
		ShapeParam: v.shapeParam,
		HasParam:   hasShapeParam(v.kind),
		Mod:        v.mod,
	})
}

// set applies one key-value pair. numVoices bounds the modulation target.
func (v *voice) set(key string, value string, numVoices int) error {
	switch key {
	case "shape", "kind":
		kind, err := waveKindFromString(value)
		if err != nil {
			return err
		}
		v.kind = kind
	case "freq":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("invalid freq %v", value)
		}
		v.freq = value
	case "amp":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("invalid amp %v", value)
		}
		v.amp = value
	case "gain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(value) || math.IsInf(value, 1) {
			return fmt.Errorf("invalid gain %v", value)
		}
		v.amp = dbToLinear(value)
	case "shape_param":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if !(value >= 0 && value <= 1) {
			return fmt.Errorf("shape_param should be in [0,1]: %v", value)
		}
		v.shapeParam = value
	case "mod":
		value, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		if value < 0 || int(value) > numVoices {
			return fmt.Errorf("mod target %v out of range [0,%v]", value, numVoices)
		}
		v.mod = int(value)
	default:
		return fmt.Errorf("unknown voice key %q", key)
	}
	return nil
}

// ----- Voices ----- //

type voices struct {
	list []*voice
	max  int
}

func newVoices(max int) *voices {
	return &voices{
		list: make([]*voice, 0, max),
		max:  max,
	}
}

func (vs *voices) add() (int, error) {
	if len(vs.list) >= vs.max {
		return 0, fmt.Errorf("too many voices (max %v)", vs.max)
	}
	vs.list = append(vs.list, newVoice())
	return len(vs.list), nil
}

// remove deletes the voice at the 1-based index. Modulation targets are
// re-indexed; voices that were modulated by the removed one lose their target.
func (vs *voices) remove(index int) error {
	if index < 1 || index > len(vs.list) {
		return fmt.Errorf("voice %v not found", index)
	}
	vs.list = append(vs.list[:index-1], vs.list[index:]...)
	for _, v := range vs.list {
		if v.mod == index {
			v.mod = 0
		} else if v.mod > index {
			v.mod--
		}
	}
	return nil
}

func (vs *voices) get(index int) (*voice, error) {
	if index < 1 || index > len(vs.list) {
		return nil, fmt.Errorf("voice %v not found", index)
	}
	return vs.list[index-1], nil
}

// target returns the 0-based index of the voice modulating list[i], or -1.
func (vs *voices) target(i int) int {
	mod := vs.list[i].mod
	if mod <= 0 || mod > len(vs.list) {
		return -1
	}
	return mod - 1
}

// onCycle reports whether following targets from list[i] leads back to it.
func (vs *voices) onCycle(i int) bool {
	j := vs.target(i)
	for n := 0; j >= 0 && n < len(vs.list); n++ {
		if j == i {
			return true
		}
		j = vs.target(j)
	}
	return false
}

// modTarget is target with cycles cut: voices on a cycle are not modulated.
func (vs *voices) modTarget(i int) int {
	if vs.onCycle(i) {
		return -1
	}
	return vs.target(i)
}

// modDepth returns the length of the modulator chain feeding list[i].
func (vs *voices) modDepth(i int) int {
	depth := 0
	for j := vs.modTarget(i); j >= 0; j = vs.modTarget(j) {
		depth++
	}
	return depth
}

func (vs *voices) toJSON() json.RawMessage {
	list := make([]json.RawMessage, len(vs.list))
	for i, v := range vs.list {
		list[i] = v.toJSON()
	}
	return toRawMessage(list)
}

