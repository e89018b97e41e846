package core

import (
	"math"
	"testing"
)

func TestSummaryNoData(t *testing.T) {
	var a Analysis
	if got, want := a.Summary(), "none (no data; wgt missing)"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestSummaryWithDataAndWeights(t *testing.T) {
	a := Analysis{
		Kind: "mean",
		X:    []*Matrix{FromRows([][]float64{{1}, {2}, {3}})},
		W:    [][]float64{{1.1, 1.5, 1.3}},
	}
	got := a.Summary()
	want := "mean (1 datasets with 3 cases; 3 weights of sum 3.9)"
	if got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestCloneSharesMatricesNotHeader(t *testing.T) {
	base := Analysis{X: []*Matrix{FromRows([][]float64{{1, 2}})}, W: [][]float64{{1}}}
	clone := base.Clone()
	clone.Kind = "quantiles"

	if base.Kind == clone.Kind {
		t.Error("mutating clone's Kind leaked into base")
	}
	if clone.X[0] != base.X[0] {
		t.Error("clone should share the same *Matrix pointer, not copy it")
	}
}

func TestActiveMask(t *testing.T) {
	x := FromRows([][]float64{
		{1, 2},
		{1, 2},
		{1, 2},
	})
	x.Set(1, 0, math.NaN())
	w := []float64{1, 1, 0}

	mask := ActiveMask(x, w, []int{0, 1})
	want := []bool{true, false, false}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
}
