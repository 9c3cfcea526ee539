// Package dataset loads a labeled emoji corpus and encodes every post as a
// sequence of vocabulary ids.
//
// A split lives in a directory as two parallel files, <prefix>.text with one
// post per line and <prefix>.labels with one integer emoji class per line.
// The training split builds the vocabulary; other splits reuse it.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/go-emoji-dataset/internal/vocab"
)

const (
	TextExt   = ".text"
	LabelsExt = ".labels"
)

// TokenizeFunc turns one raw line into tokens.
type TokenizeFunc func(line string) []string

// Options configures Load.
type Options struct {
	Dir    string
	Prefix string
	// Tokenize is required.
	Tokenize TokenizeFunc
	// VocabSize caps the number of content tokens when the vocabulary is
	// built from this split. Zero selects vocab.DefaultSize.
	VocabSize int
	// Vocabulary, when set, is used unchanged and VocabSize is ignored.
	Vocabulary *vocab.Vocabulary
	// CheckAlignment rejects splits whose text and label line counts differ.
	CheckAlignment bool
	Logger         *slog.Logger
}

// Sample is one encoded post with its label and position in the dataset.
type Sample struct {
	IDs   []int
	Label int
	Index int
}

// Dataset holds a split encoded against a vocabulary. It is immutable once
// loaded and safe for concurrent readers.
type Dataset struct {
	prefix     string
	vocabulary *vocab.Vocabulary
	documents  [][]int
	labels     []int
	logger     *slog.Logger
}

// Load reads and encodes the split described by opts.
func Load(opts Options) (*Dataset, error) {
	if opts.Tokenize == nil {
		return nil, errors.New("dataset: tokenize function is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := filepath.Join(opts.Dir, opts.Prefix)
	logger.Info("reading files", "path", base)

	var counter *vocab.Counter
	if opts.Vocabulary == nil {
		counter = vocab.NewCounter()
	}

	var processed [][]string

	err := readLines(base+TextExt, func(_ int, line string) error {
		tokens := opts.Tokenize(line)
		processed = append(processed, tokens)

		if counter != nil {
			counter.Add(tokens)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("read text file", "documents", len(processed))

	v := opts.Vocabulary
	if v == nil {
		size := opts.VocabSize
		if size == 0 {
			size = vocab.DefaultSize
		}

		logger.Info("building vocabulary", "distinct_tokens", counter.Len(), "max_size", size)
		v = vocab.Build(counter, size)
	} else {
		logger.Info("using supplied vocabulary", "tokens", v.Len())
	}

	documents := make([][]int, len(processed))
	for i, tokens := range processed {
		documents[i] = v.Encode(tokens)
	}

	logger.Info("loading labels")

	labels, total, err := readLabels(base+LabelsExt, len(documents))
	if err != nil {
		return nil, err
	}

	switch {
	case total > len(documents) && !opts.CheckAlignment:
		return nil, fmt.Errorf("%w: %s has %d labels for %d documents",
			ErrIndexOutOfRange, base+LabelsExt, total, len(documents))
	case total != len(documents):
		return nil, fmt.Errorf("%w: %d documents, %d labels", ErrLengthMismatch, len(documents), total)
	}

	return &Dataset{
		prefix:     opts.Prefix,
		vocabulary: v,
		documents:  documents,
		labels:     labels,
		logger:     logger,
	}, nil
}

// readLabels parses one integer per line, keeping at most want labels. It
// also returns the number of label lines read.
func readLabels(path string, want int) ([]int, int, error) {
	labels := make([]int, 0, want)
	total := 0

	err := readLines(path, func(lineNo int, line string) error {
		label, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			return fmt.Errorf("%w: %s line %d: %q", ErrMalformedLabel, path, lineNo, line)
		}

		total++
		if len(labels) < want {
			labels = append(labels, label)
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return labels, total, nil
}

// readLines calls fn for every line of path, numbering lines from 1. The
// file is closed on every return path.
func readLines(path string, fn func(lineNo int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingFile, path)
		}

		return fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	lineNo := 0
	for {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("dataset: read %s: %w", path, err)
		}

		// A final line without a newline still counts.
		if line != "" {
			lineNo++
			if ferr := fn(lineNo, trimEOL(line)); ferr != nil {
				return ferr
			}
		}

		if err != nil {
			return nil
		}
	}
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// Get returns the sample at index.
func (d *Dataset) Get(index int) (Sample, error) {
	if index < 0 || index >= len(d.documents) {
		return Sample{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(d.documents))
	}

	return Sample{
		IDs:   append([]int(nil), d.documents[index]...),
		Label: d.labels[index],
		Index: index,
	}, nil
}

// Len returns the number of documents.
func (d *Dataset) Len() int {
	return len(d.documents)
}

func (d *Dataset) Prefix() string {
	return d.prefix
}

func (d *Dataset) Vocabulary() *vocab.Vocabulary {
	return d.vocabulary
}

// Labels returns a copy of the label array.
func (d *Dataset) Labels() []int {
	return append([]int(nil), d.labels...)
}

// Documents calls fn for every encoded document in order. fn must not
// modify ids.
func (d *Dataset) Documents(fn func(i int, ids []int)) {
	for i, ids := range d.documents {
		fn(i, ids)
	}
}

// NumTokens returns the total token count over all documents.
func (d *Dataset) NumTokens() int {
	n := 0
	for _, doc := range d.documents {
		n += len(doc)
	}

	return n
}

// UnknownTokens counts tokens that resolved to the unknown symbol.
func (d *Dataset) UnknownTokens() int {
	unk := d.vocabulary.Lookup(vocab.UnkSymbol)

	n := 0
	for _, doc := range d.documents {
		for _, id := range doc {
			if id == unk {
				n++
			}
		}
	}

	return n
}
