package batch

import (
	"errors"
	"io"
	"math/rand/v2"

	"github.com/example/go-emoji-dataset/internal/dataset"
)

// Source is the random-access view of a dataset needed for iteration.
type Source interface {
	Get(index int) (dataset.Sample, error)
	Len() int
}

// IteratorOptions configures NewIterator.
type IteratorOptions struct {
	BatchSize int
	Shuffle   bool
	Seed      uint64
	// DropLast skips a final batch smaller than BatchSize.
	DropLast bool
}

// Iterator walks a Source in collated minibatches. It is not safe for
// concurrent use; the underlying Source may be shared.
type Iterator struct {
	src   Source
	opts  IteratorOptions
	order []int
	pos   int
}

// NewIterator returns an iterator over src. With Shuffle set, the visiting
// order is a permutation drawn from Seed.
func NewIterator(src Source, opts IteratorOptions) (*Iterator, error) {
	if opts.BatchSize <= 0 {
		return nil, errors.New("batch: batch size must be positive")
	}

	order := make([]int, src.Len())
	for i := range order {
		order[i] = i
	}

	if opts.Shuffle {
		r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
		r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}

	return &Iterator{src: src, opts: opts, order: order}, nil
}

// Next returns the next batch, or io.EOF when the source is exhausted.
func (it *Iterator) Next() (*Batch, error) {
	remaining := len(it.order) - it.pos
	if remaining <= 0 || (it.opts.DropLast && remaining < it.opts.BatchSize) {
		return nil, io.EOF
	}

	n := min(it.opts.BatchSize, remaining)
	samples := make([]dataset.Sample, n)

	for i := range samples {
		s, err := it.src.Get(it.order[it.pos+i])
		if err != nil {
			return nil, err
		}

		samples[i] = s
	}

	it.pos += n

	return Collate(samples)
}

// Batches returns the number of batches a full pass yields.
func (it *Iterator) Batches() int {
	n := len(it.order) / it.opts.BatchSize
	if !it.opts.DropLast && len(it.order)%it.opts.BatchSize != 0 {
		n++
	}

	return n
}
