// Package batch assembles encoded samples into padded minibatches.
package batch

import (
	"errors"
	"fmt"
	"sort"

	"gorgonia.org/tensor"

	"github.com/example/go-emoji-dataset/internal/dataset"
)

// ErrEmptyBatch is returned when Collate receives no samples.
var ErrEmptyBatch = errors.New("batch: no samples")

// Batch is a padded minibatch. Samples are ordered longest first; Lengths,
// Labels and Indices follow that order.
type Batch struct {
	// Padded has shape [MaxLen, Size] and holds int64 token ids. Cell [t][b]
	// is token t of sample b, or the padding id 0 past the sample's end. It is nil
	// when every sample is empty.
	Padded  *tensor.Dense
	Labels  []int
	Lengths []int
	// Indices maps batch position to the sample's dataset index.
	Indices []int

	data   []int64
	maxLen int
}

// Collate sorts samples by length, longest first, and pads them into a
// [maxLen, batchSize] grid. Samples of equal length keep their input order.
func Collate(samples []dataset.Sample) (*Batch, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyBatch
	}

	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return len(samples[order[a]].IDs) > len(samples[order[b]].IDs)
	})

	size := len(samples)
	maxLen := len(samples[order[0]].IDs)

	b := &Batch{
		Labels:  make([]int, size),
		Lengths: make([]int, size),
		Indices: make([]int, size),
		// zero-filled, and zero is vocab.PadID
		data:   make([]int64, maxLen*size),
		maxLen: maxLen,
	}

	for pos, src := range order {
		s := samples[src]
		b.Labels[pos] = s.Label
		b.Lengths[pos] = len(s.IDs)
		b.Indices[pos] = s.Index

		for t, id := range s.IDs {
			b.data[t*size+pos] = int64(id)
		}
	}

	if maxLen > 0 {
		b.Padded = tensor.New(tensor.WithShape(maxLen, size), tensor.WithBacking(b.data))
	}

	return b, nil
}

// Size returns the number of samples.
func (b *Batch) Size() int {
	return len(b.Lengths)
}

// MaxLen returns the length of the longest sample.
func (b *Batch) MaxLen() int {
	return b.maxLen
}

// At returns the id at time step t of batch column col.
func (b *Batch) At(t, col int) (int, error) {
	if t < 0 || t >= b.maxLen || col < 0 || col >= b.Size() {
		return 0, fmt.Errorf("batch: cell [%d][%d] outside shape [%d %d]", t, col, b.maxLen, b.Size())
	}

	return int(b.data[t*b.Size()+col]), nil
}

// Column returns the unpadded ids of batch column col.
func (b *Batch) Column(col int) ([]int, error) {
	if col < 0 || col >= b.Size() {
		return nil, fmt.Errorf("batch: column %d outside batch of %d", col, b.Size())
	}

	out := make([]int, b.Lengths[col])
	for t := range out {
		out[t] = int(b.data[t*b.Size()+col])
	}

	return out, nil
}
