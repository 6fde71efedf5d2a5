package audio

import (
	"fmt"
	"math"
)

type windowFn func(data []float64)

// Han ...
func Han(data []float64) {
	n := len(data)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		w := 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
		data[i] = data[i] * w
	}
}

// Blackman ...
func Blackman(data []float64) {
	n := len(data)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		w := 0.42 - 0.5*math.Cos(2.0*math.Pi*x) + 0.08*math.Cos(4.0*math.Pi*x)
		data[i] = data[i] * w
	}
}

// Hamming ...
func Hamming(data []float64) {
	n := len(data)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		w := 0.54 - 0.46*math.Cos(2.0*math.Pi*x)
		data[i] = data[i] * w
	}
}

// Rectangular leaves the data as it is.
func Rectangular(data []float64) {}

func windowFromString(s string) (windowFn, error) {
	switch s {
	case "han":
		return Han, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "rectangular":
		return Rectangular, nil
	}
	return nil, fmt.Errorf("unknown window %v", s)
}
