// Package stats holds weighted statistical primitives shared by the
// elementary estimators in pkg/estimate. Every function here operates on
// an already-filtered, already-aligned slice of values and weights — row
// activity (listwise deletion, w > 0) is the caller's responsibility.
package stats

import "math"

// SumWeights returns S = sum(w).
func SumWeights(w []float64) float64 {
	s := 0.0
	for _, wi := range w {
		s += wi
	}
	return s
}

// WeightedMean returns (m, S) where m = sum(w*x)/S. Returns (NaN, 0) when
// S is zero (no active rows).
func WeightedMean(x, w []float64) (mean, sumWgt float64) {
	for i := range x {
		sumWgt += w[i]
	}
	if sumWgt <= 0 {
		return math.NaN(), 0
	}
	num := 0.0
	for i, xi := range x {
		num += w[i] * xi
	}
	return num / sumWgt, sumWgt
}

// WeightedVariance returns the population variance v = sum(w*(x-m)^2)/S
// for the already-computed weighted mean m and sum of weights S.
func WeightedVariance(x, w []float64, mean, sumWgt float64) float64 {
	if sumWgt <= 0 {
		return math.NaN()
	}
	num := 0.0
	for i, xi := range x {
		d := xi - mean
		num += w[i] * d * d
	}
	return num / sumWgt
}

// WeightedCovariance returns cov(x,y) = sum(w*(x-mx)*(y-my))/S.
func WeightedCovariance(x, y, w []float64, meanX, meanY, sumWgt float64) float64 {
	if sumWgt <= 0 {
		return math.NaN()
	}
	num := 0.0
	for i := range x {
		num += w[i] * (x[i] - meanX) * (y[i] - meanY)
	}
	return num / sumWgt
}

// WeightedCorrelation derives the Pearson correlation from two variances
// and their covariance. Returns NaN if either variance is zero or NaN.
func WeightedCorrelation(cov, varX, varY float64) float64 {
	if varX <= 0 || varY <= 0 || math.IsNaN(varX) || math.IsNaN(varY) {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// WeightedPair is one (value, weight) observation, used when the weighted
// quantile algorithm needs to sort values and weights together.
type WeightedPair struct {
	Value  float64
	Weight float64
}
