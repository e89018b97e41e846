package estimate

import (
	"math"
	"testing"

	"github.com/replicest/replicest/pkg/core"
)

func TestEvalFrequenciesDefaultCategories(t *testing.T) {
	x := core.FromRows([][]float64{{1}, {1}, {2}, {2}, {2}})
	w := []float64{1, 1, 1, 1, 1}

	r := EvalFrequencies(x, w, []int{0}, FrequenciesOptions{})

	if !approx(value(r, "freq_0_1"), 0.4, 1e-12) {
		t.Errorf("freq_0_1 = %v, want 0.4", value(r, "freq_0_1"))
	}
	if !approx(value(r, "freq_0_2"), 0.6, 1e-12) {
		t.Errorf("freq_0_2 = %v, want 0.6", value(r, "freq_0_2"))
	}
	if !approx(value(r, "cnt_0_1"), 2, 1e-12) {
		t.Errorf("cnt_0_1 = %v, want 2", value(r, "cnt_0_1"))
	}
}

func TestEvalFrequenciesExplicitCategories(t *testing.T) {
	x := core.FromRows([][]float64{{1}, {2}, {3}})
	w := []float64{1, 1, 1}

	r := EvalFrequencies(x, w, []int{0}, FrequenciesOptions{Categories: []float64{1, 2}})

	if !approx(value(r, "freq_0_1"), 1.0/3, 1e-12) {
		t.Errorf("freq_0_1 = %v, want 1/3", value(r, "freq_0_1"))
	}
	if !approx(value(r, "cnt_0_2"), 1, 1e-12) {
		t.Errorf("cnt_0_2 = %v, want 1", value(r, "cnt_0_2"))
	}
	for _, n := range r.Names {
		if n == "freq_0_3" || n == "cnt_0_3" {
			t.Errorf("category 3 should not be present when categories={1,2}")
		}
	}
}

func TestEvalFrequenciesZeroWeightYieldsNaN(t *testing.T) {
	x := core.FromRows([][]float64{{1}})
	w := []float64{0}

	r := EvalFrequencies(x, w, []int{0}, FrequenciesOptions{})

	if !math.IsNaN(value(r, "freq_0_1")) {
		t.Errorf("freq_0_1 = %v, want NaN with no active weight", value(r, "freq_0_1"))
	}
	if !approx(value(r, "cnt_0_1"), 0, 1e-12) {
		t.Errorf("cnt_0_1 = %v, want 0", value(r, "cnt_0_1"))
	}
}
