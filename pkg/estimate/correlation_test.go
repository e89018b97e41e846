package estimate

import (
	"math"
	"testing"

	"github.com/replicest/replicest/pkg/core"
)

func TestEvalCorrelationPerfectLine(t *testing.T) {
	x := core.FromRows([][]float64{
		{1, 2},
		{2, 4},
		{3, 6},
		{4, 8},
	})
	w := []float64{1, 1, 1, 1}

	r := EvalCorrelation(x, w, []int{0, 1})

	if !approx(value(r, "cor_0_1"), 1, 1e-9) {
		t.Errorf("cor_0_1 = %v, want 1", value(r, "cor_0_1"))
	}
	if !approx(value(r, "cor_0_0"), 1, 1e-12) {
		t.Errorf("cor_0_0 = %v, want 1", value(r, "cor_0_0"))
	}
	if !approx(value(r, "cor_1_1"), 1, 1e-12) {
		t.Errorf("cor_1_1 = %v, want 1", value(r, "cor_1_1"))
	}
}

func TestEvalCorrelationListwiseDeletionAcrossColumns(t *testing.T) {
	x := core.FromRows([][]float64{
		{1, math.NaN()},
		{2, 4},
		{3, 6},
	})
	w := []float64{1, 1, 1}

	r := EvalCorrelation(x, w, []int{0, 1})

	// only rows (2,4) and (3,6) are active; perfectly correlated still.
	if !approx(value(r, "cor_0_1"), 1, 1e-9) {
		t.Errorf("cor_0_1 = %v, want 1", value(r, "cor_0_1"))
	}
}

func TestEvalCorrelationAllNaNColumnProducesNaNNoPanic(t *testing.T) {
	x := core.FromRows([][]float64{
		{1, math.NaN()},
		{2, math.NaN()},
		{3, math.NaN()},
	})
	w := []float64{1, 1, 1}

	r := EvalCorrelation(x, w, []int{0, 1})

	for _, n := range []string{"cov_0_0", "cov_0_1", "cov_1_1", "cor_0_0", "cor_0_1", "cor_1_1"} {
		if !math.IsNaN(value(r, n)) {
			t.Errorf("%s = %v, want NaN", n, value(r, n))
		}
	}
}

func TestEvalCorrelationFewerThanTwoColumnsIsEmpty(t *testing.T) {
	x := core.FromRows([][]float64{{1}, {2}})
	w := []float64{1, 1}

	r := EvalCorrelation(x, w, []int{0})

	if len(r.Names) != 0 {
		t.Errorf("expected no parameters for a single column, got %v", r.Names)
	}
}
