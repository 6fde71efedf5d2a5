package audio

import "math"

// minDB is treated as silence.
const minDB = -200.0

func linearToDB(linear float64) float64 {
	if linear <= 0 {
		return minDB
	}
	return 20 * math.Log10(linear)
}

func dbToLinear(db float64) float64 {
	if db <= minDB {
		return 0
	}
	return math.Pow(10, db/20)
}

// velocityToGain scales velocity by sense: 0 ignores velocity, 1 follows it fully.
func velocityToGain(velocity float64, sense float64) float64 {
	return 1 - sense*(1-velocity)
}
