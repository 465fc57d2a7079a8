package cache

import (
	"errors"
	"testing"
)

// snapshotRows flattens the snapshot into row slices for comparison
func snapshotRows(r *Ring) [][]float64 {
	snap := r.Snapshot()

	if snap == nil {
		return nil
	}

	rows, _ := snap.Dims()

	out := make([][]float64, rows)

	for i := 0; i < rows; i++ {
		out[i] = snap.RawRowView(i)
	}

	return out
}

func rowsEqual(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}

		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}

	return true
}

func TestNewRingValidation(t *testing.T) {
	if _, err := NewRing(0, 2); err == nil {
		t.Errorf("expected error for zero capacity")
	}

	if _, err := NewRing(3, 0); err == nil {
		t.Errorf("expected error for zero dimension")
	}
}

func TestAppendBelowCapacity(t *testing.T) {
	r, err := NewRing(5, 2)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	items := [][]float64{{1, 10}, {2, 20}, {3, 30}}

	for _, item := range items {
		if err := r.Append(item); err != nil {
			t.Fatalf("append %v: %v", item, err)
		}
	}

	if r.Len() != 3 {
		t.Errorf("logical length %d, want 3", r.Len())
	}

	if r.Count() != 3 {
		t.Errorf("count %d, want 3", r.Count())
	}

	if !rowsEqual(snapshotRows(r), items) {
		t.Errorf("snapshot %v, want %v", snapshotRows(r), items)
	}
}

func TestEvictionKeepsMostRecent(t *testing.T) {
	r, err := NewRing(3, 1)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	// capacity 3, append A..E, expect [C, D, E]
	for _, v := range []float64{1, 2, 3, 4, 5} {
		if err := r.Append([]float64{v}); err != nil {
			t.Fatalf("append %v: %v", v, err)
		}
	}

	if r.Len() != 3 {
		t.Errorf("logical length %d, want 3", r.Len())
	}

	if r.Count() != 5 {
		t.Errorf("count %d, want 5", r.Count())
	}

	want := [][]float64{{3}, {4}, {5}}

	if !rowsEqual(snapshotRows(r), want) {
		t.Errorf("snapshot %v, want %v", snapshotRows(r), want)
	}
}

func TestEvictionMultiDim(t *testing.T) {
	r, err := NewRing(2, 3)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	items := [][]float64{
		{1, 1, 1},
		{2, 2, 2},
		{3, 3, 3},
		{4, 4, 4},
	}

	for _, item := range items {
		if err := r.Append(item); err != nil {
			t.Fatalf("append %v: %v", item, err)
		}
	}

	want := [][]float64{{3, 3, 3}, {4, 4, 4}}

	if !rowsEqual(snapshotRows(r), want) {
		t.Errorf("snapshot %v, want %v", snapshotRows(r), want)
	}
}

func TestDimensionMismatch(t *testing.T) {
	r, err := NewRing(3, 2)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	if err := r.Append([]float64{1, 2, 3}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	if err := r.Append([]float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}

	if r.Len() != 0 {
		t.Errorf("failed appends changed logical length to %d", r.Len())
	}
}

func TestAtViewsChronologicalOrder(t *testing.T) {
	r, err := NewRing(2, 1)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	for _, v := range []float64{7, 8, 9} {
		if err := r.Append([]float64{v}); err != nil {
			t.Fatalf("append %v: %v", v, err)
		}
	}

	if got := r.At(0); got == nil || got[0] != 8 {
		t.Errorf("oldest item %v, want [8]", got)
	}

	if got := r.At(1); got == nil || got[0] != 9 {
		t.Errorf("newest item %v, want [9]", got)
	}

	if r.At(2) != nil {
		t.Errorf("out of range index returned an item")
	}

	if r.At(-1) != nil {
		t.Errorf("negative index returned an item")
	}
}

func TestSnapshotEmptyRing(t *testing.T) {
	r, err := NewRing(4, 2)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	if r.Snapshot() != nil {
		t.Errorf("empty ring produced a snapshot")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	r, err := NewRing(2, 1)

	if err != nil {
		t.Fatalf("new ring: %v", err)
	}

	if err := r.Append([]float64{1}); err != nil {
		t.Fatalf("append: %v", err)
	}

	snap := r.Snapshot()
	snap.Set(0, 0, 42)

	if got := r.At(0)[0]; got != 1 {
		t.Errorf("snapshot mutation reached the ring: %v", got)
	}
}
