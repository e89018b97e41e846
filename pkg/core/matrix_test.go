package core

import (
	"math"
	"testing"
)

func TestFromRowsAndAt(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})

	if m.R != 2 || m.C != 3 {
		t.Fatalf("expected shape (2,3), got (%d,%d)", m.R, m.C)
	}
	if m.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", m.At(1, 2))
	}
}

func TestSetMutatesInPlace(t *testing.T) {
	m := NewMatrix(2, 2)
	m.Set(0, 1, 9.5)
	if m.At(0, 1) != 9.5 {
		t.Errorf("Set then At = %v, want 9.5", m.At(0, 1))
	}
	if m.At(1, 0) != 0 {
		t.Errorf("unrelated cell changed: %v", m.At(1, 0))
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := FromRows([][]float64{{1, 2}, {3, 4}})
	c := m.Clone()
	c.Set(0, 0, 100)
	if m.At(0, 0) != 1 {
		t.Errorf("mutating clone leaked into original: %v", m.At(0, 0))
	}
}

func TestColumn(t *testing.T) {
	m := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	col := m.Column(1)
	want := []float64{2, 4, 6}
	for i := range want {
		if col[i] != want[i] {
			t.Errorf("Column(1)[%d] = %v, want %v", i, col[i], want[i])
		}
	}
}

func TestRowHasNaN(t *testing.T) {
	m := FromRows([][]float64{
		{1, math.NaN()},
		{2, 3},
	})
	if !m.RowHasNaN(0, nil) {
		t.Error("expected row 0 to contain NaN over all columns")
	}
	if m.RowHasNaN(1, nil) {
		t.Error("expected row 1 to be clean")
	}
	if m.RowHasNaN(0, []int{0}) {
		t.Error("column 0 alone has no NaN on row 0")
	}
}
