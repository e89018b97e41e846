package estimate

import "math"

// value returns the value named n in r, or NaN if not present.
func value(r Result, n string) float64 {
	for i, name := range r.Names {
		if name == n {
			return r.Values[i]
		}
	}
	return math.NaN()
}

func approx(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tol
}
