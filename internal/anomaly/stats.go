package anomaly

import "math"

func meanOf(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// stdDevOf is the population standard deviation (ddof=0).
func stdDevOf(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := meanOf(data)
	var ss float64
	for _, v := range data {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(data)))
}
