package batch

import (
	"errors"
	"io"
	"reflect"
	"sort"
	"testing"

	"github.com/example/go-emoji-dataset/internal/dataset"
	"github.com/example/go-emoji-dataset/internal/vocab"
)

func samples(lengths ...int) []dataset.Sample {
	out := make([]dataset.Sample, len(lengths))
	next := 2

	for i, n := range lengths {
		ids := make([]int, n)
		for j := range ids {
			ids[j] = next
			next++
		}

		out[i] = dataset.Sample{IDs: ids, Label: 10 + i, Index: 100 + i}
	}

	return out
}

func TestCollate_SortsAndPads(t *testing.T) {
	b, err := Collate(samples(3, 1, 2))
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}

	if got := b.Padded.Shape(); got[0] != 3 || got[1] != 3 {
		t.Fatalf("Padded shape = %v, want [3 3]", got)
	}

	if !reflect.DeepEqual(b.Lengths, []int{3, 2, 1}) {
		t.Errorf("Lengths = %v, want [3 2 1]", b.Lengths)
	}

	if !reflect.DeepEqual(b.Labels, []int{10, 12, 11}) {
		t.Errorf("Labels = %v, want [10 12 11]", b.Labels)
	}

	if !reflect.DeepEqual(b.Indices, []int{100, 102, 101}) {
		t.Errorf("Indices = %v, want [100 102 101]", b.Indices)
	}

	want := [][]int{
		{2, 6, 5},
		{3, 7, vocab.PadID},
		{4, vocab.PadID, vocab.PadID},
	}

	nonPad := 0

	for tt := range want {
		for col := range want[tt] {
			got, err := b.At(tt, col)
			if err != nil {
				t.Fatalf("At(%d,%d): %v", tt, col, err)
			}

			if got != want[tt][col] {
				t.Errorf("At(%d,%d) = %d, want %d", tt, col, got, want[tt][col])
			}

			cell, err := b.Padded.At(tt, col)
			if err != nil {
				t.Fatalf("Padded.At(%d,%d): %v", tt, col, err)
			}

			if cell.(int64) != int64(want[tt][col]) {
				t.Errorf("Padded.At(%d,%d) = %v, want %d", tt, col, cell, want[tt][col])
			}

			if got != vocab.PadID {
				nonPad++
			}
		}
	}

	if nonPad != 6 {
		t.Errorf("non-pad cells = %d, want 6", nonPad)
	}
}

func TestCollate_StableOnTies(t *testing.T) {
	b, err := Collate(samples(2, 1, 2, 1, 2))
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}

	if !reflect.DeepEqual(b.Indices, []int{100, 102, 104, 101, 103}) {
		t.Fatalf("Indices = %v, want input order within equal lengths", b.Indices)
	}
}

func TestCollate_PreservesSamples(t *testing.T) {
	in := samples(4, 0, 7, 3, 3, 1)

	b, err := Collate(in)
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}

	if b.Size() != len(in) || b.MaxLen() != 7 {
		t.Fatalf("Size=%d MaxLen=%d, want %d 7", b.Size(), b.MaxLen(), len(in))
	}

	seen := make([]int, 0, len(in))

	for col := 0; col < b.Size(); col++ {
		src := in[b.Indices[col]-100]
		got, err := b.Column(col)
		if err != nil {
			t.Fatalf("Column(%d): %v", col, err)
		}

		if len(got) != len(src.IDs) || (len(got) > 0 && !reflect.DeepEqual(got, src.IDs)) {
			t.Errorf("column %d = %v, want %v", col, got, src.IDs)
		}

		if b.Labels[col] != src.Label {
			t.Errorf("column %d label = %d, want %d", col, b.Labels[col], src.Label)
		}

		seen = append(seen, b.Indices[col])
	}

	sort.Ints(seen)

	if !reflect.DeepEqual(seen, []int{100, 101, 102, 103, 104, 105}) {
		t.Fatalf("indices = %v, want each sample exactly once", seen)
	}

	if !sort.SliceIsSorted(b.Lengths, func(i, j int) bool { return b.Lengths[i] > b.Lengths[j] }) {
		t.Fatalf("Lengths %v not descending", b.Lengths)
	}
}

func TestCollate_AllEmpty(t *testing.T) {
	b, err := Collate(samples(0, 0))
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}

	if b.Padded != nil || b.MaxLen() != 0 || b.Size() != 2 {
		t.Fatalf("batch = %+v", b)
	}

	if _, err := b.At(0, 0); err == nil {
		t.Fatal("expected error for cell in empty grid")
	}
}

func TestColumn_RejectsOutOfRange(t *testing.T) {
	b, err := Collate(samples(2, 1))
	if err != nil {
		t.Fatalf("Collate: %v", err)
	}

	for _, col := range []int{-1, b.Size()} {
		if _, err := b.Column(col); err == nil {
			t.Errorf("Column(%d) = nil error, want out-of-range error", col)
		}
	}

	if got, err := b.Column(b.Size() - 1); err != nil || len(got) != 1 {
		t.Fatalf("Column(last) = %v, %v; want one id", got, err)
	}
}

func TestCollate_Empty(t *testing.T) {
	if _, err := Collate(nil); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("err = %v, want ErrEmptyBatch", err)
	}
}

type sliceSource []dataset.Sample

func (s sliceSource) Get(i int) (dataset.Sample, error) {
	if i < 0 || i >= len(s) {
		return dataset.Sample{}, dataset.ErrIndexOutOfRange
	}

	return s[i], nil
}

func (s sliceSource) Len() int { return len(s) }

func drain(t *testing.T, it *Iterator) [][]int {
	t.Helper()

	var out [][]int

	for {
		b, err := it.Next()
		if errors.Is(err, io.EOF) {
			return out
		}

		if err != nil {
			t.Fatalf("Next: %v", err)
		}

		out = append(out, append([]int(nil), b.Indices...))
	}
}

func TestIterator_Sequential(t *testing.T) {
	src := sliceSource(samples(1, 2, 3, 4, 5))

	it, err := NewIterator(src, IteratorOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}

	if it.Batches() != 3 {
		t.Fatalf("Batches() = %d, want 3", it.Batches())
	}

	got := drain(t, it)
	want := [][]int{{101, 100}, {103, 102}, {104}}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("batches = %v, want %v", got, want)
	}
}

func TestIterator_DropLast(t *testing.T) {
	it, err := NewIterator(sliceSource(samples(1, 1, 1)), IteratorOptions{BatchSize: 2, DropLast: true})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}

	if got := drain(t, it); len(got) != 1 || it.Batches() != 1 {
		t.Fatalf("batches = %v, want one full batch", got)
	}
}

func TestIterator_ShuffleIsSeeded(t *testing.T) {
	src := sliceSource(samples(1, 1, 1, 1, 1, 1, 1, 1))

	run := func(seed uint64) []int {
		it, err := NewIterator(src, IteratorOptions{BatchSize: 3, Shuffle: true, Seed: seed})
		if err != nil {
			t.Fatalf("NewIterator: %v", err)
		}

		var flat []int
		for _, b := range drain(t, it) {
			flat = append(flat, b...)
		}

		return flat
	}

	a, b := run(7), run(7)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed gave %v and %v", a, b)
	}

	sorted := append([]int(nil), a...)
	sort.Ints(sorted)

	if !reflect.DeepEqual(sorted, []int{100, 101, 102, 103, 104, 105, 106, 107}) {
		t.Fatalf("shuffled pass = %v, want a permutation", a)
	}
}

func TestNewIterator_RejectsBadBatchSize(t *testing.T) {
	if _, err := NewIterator(sliceSource(nil), IteratorOptions{}); err == nil {
		t.Fatal("expected error for zero batch size")
	}
}
