package facade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplicateEstimatesMean(t *testing.T) {
	x := [][][]float64{{{1}, {2}, {3}, {4}, {5}}}
	w := [][]float64{{1, 1, 1, 1, 1}}

	got, err := ReplicateEstimates(Mean, nil, x, w, nil, []int{0}, 1.0, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].GroupKey)

	idx := indexOf(got[0].ParameterNames, "mean_0")
	assert.InDelta(t, 3.0, got[0].FinalEstimates[idx], 1e-12)
	assert.Equal(t, 0.0, got[0].SamplingVariances[idx])
}

func TestReplicateEstimatesWithReplicateWeights(t *testing.T) {
	x := [][][]float64{{{1}, {2}, {3}, {4}, {5}}}
	w := [][]float64{{1, 1, 1, 1, 1}}
	r := [][][]float64{{{1, 0}, {1, 1}, {1, 1}, {1, 1}, {1, 1}}}

	got, err := ReplicateEstimates(Mean, nil, x, w, r, []int{0}, 1.0, nil)
	require.NoError(t, err)
	idx := indexOf(got[0].ParameterNames, "mean_0")
	assert.Greater(t, got[0].SamplingVariances[idx], 0.0)
}

func TestReplicateEstimatesGroupBy(t *testing.T) {
	x := [][][]float64{{{1, 0}, {2, 0}, {3, 1}, {4, 1}}}
	w := [][]float64{{1, 1, 1, 1}}

	got, err := ReplicateEstimates(Mean, nil, x, w, nil, []int{0}, 1.0, &GroupBy{Column: 1})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1=0", got[0].GroupKey)
	assert.Equal(t, "1=1", got[1].GroupKey)
}

func TestReplicateEstimatesPropagatesBuilderErrors(t *testing.T) {
	_, err := ReplicateEstimates(Mean, nil, nil, [][]float64{{1}}, nil, []int{0}, 1.0, nil)
	require.Error(t, err)
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
