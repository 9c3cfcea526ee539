package bow

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/example/go-emoji-dataset/internal/bow/sparse"
	"github.com/example/go-emoji-dataset/internal/safetensors"
)

const (
	ArtifactFormat = "emojiset.tfidf"

	tensorIndptr  = "tfidf.indptr"
	tensorIndices = "tfidf.indices"
	tensorData    = "tfidf.data"
	tensorIDF     = "tfidf.idf"
)

// ErrFormat is returned when a file is not a persisted TF-IDF matrix.
var ErrFormat = errors.New("bow: not a persisted tf-idf matrix")

// Persist writes the matrix and idf weights to path. Values are stored as
// float32.
func (e *Encoded) Persist(path string) error {
	m := e.Matrix

	meta := map[string]string{
		"format": ArtifactFormat,
		"rows":   strconv.Itoa(m.Rows),
		"cols":   strconv.Itoa(m.Cols),
	}

	err := safetensors.WriteFile(path, meta, []safetensors.Tensor{
		safetensors.Vector(tensorIndptr, toInt64(m.Indptr)),
		safetensors.Vector(tensorIndices, toInt64(m.Indices)),
		safetensors.Float32(tensorData, []int64{int64(len(m.Data))}, toFloat32(m.Data)),
		safetensors.Float32(tensorIDF, []int64{int64(len(e.IDF))}, toFloat32(e.IDF)),
	})
	if err != nil {
		return fmt.Errorf("bow: persist %s: %w", path, err)
	}

	return nil
}

// Restore reads an Encoded matrix written by Persist.
func Restore(path string) (*Encoded, error) {
	store, err := safetensors.OpenStore(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer store.Close()

	if format, _ := store.Metadata("format"); format != ArtifactFormat {
		return nil, fmt.Errorf("%w: format %q", ErrFormat, format)
	}

	rows, err1 := metaInt(store, "rows")
	cols, err2 := metaInt(store, "cols")
	if err := errors.Join(err1, err2); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	indptr, err1 := store.TensorOf(tensorIndptr, safetensors.DTypeI64, 1)
	indices, err2 := store.TensorOf(tensorIndices, safetensors.DTypeI64, 1)
	data, err3 := store.TensorOf(tensorData, safetensors.DTypeF32, 1)
	idf, err4 := store.TensorOf(tensorIDF, safetensors.DTypeF32, 1)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	m := &sparse.Matrix{
		Rows:    rows,
		Cols:    cols,
		Indptr:  toInt(indptr.I64),
		Indices: toInt(indices.I64),
		Data:    toFloat64(data.F32),
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if len(idf.F32) != cols {
		return nil, fmt.Errorf("%w: %d idf weights for %d columns", ErrFormat, len(idf.F32), cols)
	}

	return &Encoded{Matrix: m, IDF: toFloat64(idf.F32)}, nil
}

func metaInt(store *safetensors.Store, key string) (int, error) {
	raw, ok := store.Metadata(key)
	if !ok {
		return 0, fmt.Errorf("missing %s", key)
	}

	return strconv.Atoi(raw)
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}

	return out
}

func toInt(in []int64) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}

	return out
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}

	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}

	return out
}
