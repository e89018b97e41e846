package replicate

import (
	"math"
	"testing"

	"github.com/replicest/replicest/pkg/core"
)

func TestGroupKeysNoGroupReturnsSingleUngroupedKey(t *testing.T) {
	a := &core.Analysis{X: []*core.Matrix{core.FromRows([][]float64{{1}})}}
	keys := groupKeys(a)
	if len(keys) != 1 || keys[0].HasGroup {
		t.Fatalf("got %v, want a single ungrouped key", keys)
	}
}

func TestGroupKeysDiscoversDistinctValuesExcludingNaN(t *testing.T) {
	x := core.FromRows([][]float64{
		{1, 0},
		{2, 1},
		{3, math.NaN()},
		{4, 1},
	})
	a := &core.Analysis{X: []*core.Matrix{x}, Group: &core.GroupSpec{Column: 1}}

	keys := groupKeys(a)
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2 (NaN excluded), keys=%v", len(keys), keys)
	}
	if keys[0].Value != 0 || keys[1].Value != 1 {
		t.Errorf("keys = %v, want sorted {0, 1}", keys)
	}
}

func TestGroupKeysHonorsExplicitValues(t *testing.T) {
	x := core.FromRows([][]float64{{1, 5}, {2, 6}, {3, 7}})
	a := &core.Analysis{
		X:     []*core.Matrix{x},
		Group: &core.GroupSpec{Column: 1, Values: []float64{6}, HasSet: true},
	}

	keys := groupKeys(a)
	if len(keys) != 1 || keys[0].Value != 6 {
		t.Fatalf("got %v, want exactly the requested value 6", keys)
	}
}

func TestMaskWeightsRestrictsToGroup(t *testing.T) {
	x := core.FromRows([][]float64{{0}, {1}, {0}, {1}})
	w := []float64{1, 1, 1, 1}
	key := GroupKey{Column: 0, Value: 1, HasGroup: true}

	masked := maskWeights(x, w, key)
	want := []float64{0, 1, 0, 1}
	for i := range want {
		if masked[i] != want[i] {
			t.Errorf("masked[%d] = %v, want %v", i, masked[i], want[i])
		}
	}
}

func TestMaskWeightsUngroupedReturnsSameSlice(t *testing.T) {
	x := core.FromRows([][]float64{{0}})
	w := []float64{1}
	got := maskWeights(x, w, GroupKey{})
	if &got[0] != &w[0] {
		t.Errorf("expected the same underlying weight slice when ungrouped")
	}
}
