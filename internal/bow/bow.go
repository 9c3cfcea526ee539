// Package bow encodes a dataset as a bag-of-words matrix weighted by
// TF-IDF. Weights follow the scikit-learn TfidfTransformer defaults: raw
// counts as term frequency, smoothed idf = ln((1+n)/(1+df)) + 1, and rows
// scaled to unit Euclidean norm.
package bow

import (
	"log/slog"
	"math"

	"github.com/example/go-emoji-dataset/internal/bow/sparse"
)

// Norm selects row normalization.
type Norm string

const (
	NormL2   Norm = "l2"
	NormNone Norm = "none"
)

// Options controls the TF-IDF transform.
type Options struct {
	// DisableSmoothing uses idf = ln(n/df) + 1 instead of the smoothed form.
	DisableSmoothing bool
	// SublinearTF replaces tf with 1 + ln(tf).
	SublinearTF bool
	// Norm defaults to NormL2.
	Norm Norm
	// Logger receives progress records from Encode. Nil means slog.Default().
	Logger *slog.Logger
}

// Documents is the read-only view of an encoded dataset needed here.
type Documents interface {
	Len() int
	Documents(fn func(i int, ids []int))
}

// Vocabulary reports the number of columns of the count matrix.
type Vocabulary interface {
	Len() int
}

// Encoded is the TF-IDF matrix of a dataset together with the idf weights
// used to produce it.
type Encoded struct {
	Matrix *sparse.Matrix
	IDF    []float64
}

// CountMatrix builds the N x vocabulary-size matrix of raw token counts.
func CountMatrix(docs Documents, vocabSize int) (*sparse.Matrix, error) {
	b := sparse.NewBuilder(vocabSize)

	var err error

	docs.Documents(func(_ int, ids []int) {
		if err != nil {
			return
		}

		counts := make(map[int]float64, len(ids))
		for _, id := range ids {
			counts[id]++
		}

		err = b.AddRow(counts)
	})
	if err != nil {
		return nil, err
	}

	return b.Matrix(), nil
}

// TFIDF reweights a count matrix. The input is left untouched.
func TFIDF(counts *sparse.Matrix, opts Options) *Encoded {
	n := float64(counts.Rows)

	df := make([]int, counts.Cols)
	for _, c := range counts.Indices {
		df[c]++
	}

	idf := make([]float64, counts.Cols)
	for j, d := range df {
		if opts.DisableSmoothing {
			if d > 0 {
				idf[j] = math.Log(n/float64(d)) + 1
			}

			continue
		}

		idf[j] = math.Log((1+n)/(1+float64(d))) + 1
	}

	out := counts.Clone()
	for k, c := range out.Indices {
		tf := out.Data[k]
		if opts.SublinearTF {
			tf = 1 + math.Log(tf)
		}

		out.Data[k] = tf * idf[c]
	}

	if opts.Norm != NormNone {
		for i := 0; i < out.Rows; i++ {
			norm := out.RowNorm(i)
			if norm == 0 {
				continue
			}

			_, vals := out.Row(i)
			for k := range vals {
				vals[k] /= norm
			}
		}
	}

	return &Encoded{Matrix: out, IDF: idf}
}

// Encode builds the count matrix of docs and applies TFIDF.
func Encode(docs Documents, vocab Vocabulary, opts Options) (*Encoded, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("loading counts matrix", "documents", docs.Len(), "columns", vocab.Len())

	counts, err := CountMatrix(docs, vocab.Len())
	if err != nil {
		return nil, err
	}

	logger.Info("creating tf-idf matrix", "nnz", counts.NNZ())

	return TFIDF(counts, opts), nil
}
