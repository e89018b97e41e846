package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionQueueAndDrainFIFO(t *testing.T) {
	s := NewSession()
	s.QueueData(2, 1)
	s.QueueWeights(2)

	p1, ok := s.NextPending()
	require.True(t, ok)
	p1.apply([][]float64{{1}, {2}})
	assert.Equal(t, 1, len(s.x))

	p2, ok := s.NextPending()
	require.True(t, ok)
	p2.apply([][]float64{{1}, {1}})
	assert.Equal(t, [][]float64{{1, 1}}[0], s.w[0])

	_, ok = s.NextPending()
	assert.False(t, ok)
}

func TestSessionDataRows(t *testing.T) {
	s := NewSession()
	_, ok := s.DataRows()
	assert.False(t, ok)

	s.QueueData(7, 3)
	rows, ok := s.DataRows()
	require.True(t, ok)
	assert.Equal(t, 7, rows)
}

func TestSessionMergedDataAppendsGroupsColumns(t *testing.T) {
	s := NewSession()
	s.QueueData(2, 1)
	p, _ := s.NextPending()
	p.apply([][]float64{{10}, {20}})

	s.QueueGroups(2, 1)
	p, _ = s.NextPending()
	p.apply([][]float64{{0}, {1}})

	merged, err := s.mergedData()
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].C)
	assert.Equal(t, 0.0, merged[0].At(0, 1))
	assert.Equal(t, 1.0, merged[0].At(1, 1))
}

func TestSessionMergedDataNoGroupsReturnsDataUnchanged(t *testing.T) {
	s := NewSession()
	s.QueueData(1, 2)
	p, _ := s.NextPending()
	p.apply([][]float64{{1, 2}})

	merged, err := s.mergedData()
	require.NoError(t, err)
	assert.Same(t, s.x[0], merged[0])
}
