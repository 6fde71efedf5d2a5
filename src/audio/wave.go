package audio

import (
	"fmt"
	"math"
)

// ----- Wave Kind ----- //

const (
	waveNone = iota
	waveSine
	waveSaw
	waveSquare
	waveTriangle
	waveRoundedSquare
	waveKindCount
)

var waveKindNames = [waveKindCount]string{
	waveNone:          "none",
	waveSine:          "sine",
	waveSaw:           "saw",
	waveSquare:        "square",
	waveTriangle:      "triangle",
	waveRoundedSquare: "rounded-square",
}

func waveKindFromString(s string) (int, error) {
	for kind, name := range waveKindNames {
		if name == s {
			return kind, nil
		}
	}
	return waveNone, fmt.Errorf("unknown wave kind %q", s)
}

func waveKindToString(kind int) string {
	if kind < 0 || kind >= waveKindCount {
		return waveKindNames[waveNone]
	}
	return waveKindNames[kind]
}

// hasShapeParam reports whether the shape parameter changes the sound of the kind.
func hasShapeParam(kind int) bool {
	return kind == waveSquare || kind == waveRoundedSquare
}

// ----- Wave Shapes ----- //

// waveShapeFn maps a phase in [0,1) to a sample in about [-1,1].
// phaseInc is only used as the width of band-limiting corrections.
type waveShapeFn func(phase float64, phaseInc float64, shapeParam float64) float64

var waveShapes = [waveKindCount]waveShapeFn{
	waveNone:          silentShape,
	waveSine:          sineShape,
	waveSaw:           sawShape,
	waveSquare:        squareShape,
	waveTriangle:      triangleShape,
	waveRoundedSquare: roundedSquareShape,
}

func silentShape(phase float64, phaseInc float64, shapeParam float64) float64 {
	return 0
}

// fastSine approximates sin(x) with a cubic through 0, π and 2π.
// Only valid for x in [0, 2π].
func fastSine(x float64) float64 {
	const a = 0.083
	const a2 = 3 * math.Pi * a
	const a3 = 2 * math.Pi * math.Pi * a
	xx := x * x
	return a*xx*x - a2*xx + a3*x
}

func sineShape(phase float64, phaseInc float64, shapeParam float64) float64 {
	return fastSine(2 * math.Pi * phase)
}

// blepRipple is the polyBLEP residual around a downward step at phase 0.
func blepRipple(phase float64, phaseInc float64) float64 {
	if phaseInc <= 0 {
		return 0
	}
	if phase < phaseInc {
		t := phase / phaseInc
		return t + t - t*t - 1
	}
	if phase > 1-phaseInc {
		t := (phase - 1) / phaseInc
		return t*t + t + t + 1
	}
	return 0
}

func sawShape(phase float64, phaseInc float64, shapeParam float64) float64 {
	return phase*2 - 1 - blepRipple(phase, math.Abs(phaseInc))
}

func squareShape(phase float64, phaseInc float64, shapeParam float64) float64 {
	dt := math.Abs(phaseInc)
	value := -1.0
	if phase < shapeParam {
		value = 1
	}
	value += blepRipple(phase, dt)
	value -= blepRipple(math.Mod(phase+(1-shapeParam), 1), dt)
	return value
}

// not band-limited
func triangleShape(phase float64, phaseInc float64, shapeParam float64) float64 {
	if phase < 0.5 {
		return phase*4 - 1
	}
	return phase*(-4) + 3
}

func roundedSquareShape(phase float64, phaseInc float64, shapeParam float64) float64 {
	s := shapeParam*8 + 2
	power := s * math.Sin(2*math.Pi*phase)
	return 2/(math.Pow(math.Abs(s), power)+1) - 1
}

// ShapeNames lists the audible wave shapes in declaration order.
func ShapeNames() []string {
	return append([]string(nil), waveKindNames[waveNone+1:]...)
}
