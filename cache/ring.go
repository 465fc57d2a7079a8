// Package cache provides a fixed-capacity ring buffer for time series of
// fixed-dimension items, eg. per-frame tracking signals or estimated states.
// Once full, appending evicts the oldest item so the buffer always holds the
// most recent entries in chronological order.
package cache

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrDimensionMismatch is returned when an appended item does not match the
// ring's declared item dimensionality.
var ErrDimensionMismatch = errors.New("item dimension mismatch")

// Ring is a fixed-capacity circular buffer with overwrite-oldest eviction.
// It is created with its owner, mutated only through Append and never
// shrinks.
type Ring struct {
	capacity int
	dim      int
	// count is the number of items ever appended
	count int
	// data is the backing storage of capacity x dim values, row-major,
	// chronological oldest first
	data []float64
}

// NewRing returns a ring holding up to capacity items of dim values each.
func NewRing(capacity, dim int) (*Ring, error) {
	if capacity <= 0 || dim <= 0 {
		return nil, errors.Errorf("capacity and dim must be positive, got %d, %d",
			capacity, dim)
	}

	return &Ring{
		capacity: capacity,
		dim:      dim,
		data:     make([]float64, capacity*dim),
	}, nil
}

// Append adds an item to the ring.  While the ring is not yet full the item
// takes the next free slot; once full the oldest item is shifted out and the
// new item appended at the end.
func (r *Ring) Append(item []float64) error {
	if len(item) != r.dim {
		return errors.Wrapf(ErrDimensionMismatch, "got %d values, want %d",
			len(item), r.dim)
	}

	if r.count < r.capacity {
		copy(r.data[r.count*r.dim:], item)
	} else {
		copy(r.data, r.data[r.dim:])
		copy(r.data[(r.capacity-1)*r.dim:], item)
	}

	r.count++

	return nil
}

// Len returns the logical length, min(count, capacity).
func (r *Ring) Len() int {
	if r.count < r.capacity {
		return r.count
	}

	return r.capacity
}

// Cap returns the fixed capacity.
func (r *Ring) Cap() int {
	return r.capacity
}

// Dim returns the item dimensionality.
func (r *Ring) Dim() int {
	return r.dim
}

// Count returns the number of items ever appended.
func (r *Ring) Count() int {
	return r.count
}

// At returns the i'th held item in chronological order, oldest first.  The
// returned slice views the backing storage and stays valid until the next
// Append.
func (r *Ring) At(i int) []float64 {
	if i < 0 || i >= r.Len() {
		return nil
	}

	return r.data[i*r.dim : (i+1)*r.dim]
}

// Snapshot returns a copy of the current contents as a Len x Dim matrix in
// chronological order, oldest first.  Returns nil while the ring is empty.
func (r *Ring) Snapshot() *mat.Dense {
	n := r.Len()

	if n == 0 {
		return nil
	}

	cp := make([]float64, n*r.dim)
	copy(cp, r.data[:n*r.dim])

	return mat.NewDense(n, r.dim, cp)
}
