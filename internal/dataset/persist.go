package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/example/go-emoji-dataset/internal/safetensors"
	"github.com/example/go-emoji-dataset/internal/vocab"
)

// Artifact layout. Documents are stored flattened with an offsets vector of
// length N+1; document i spans ids[offsets[i]:offsets[i+1]].
const (
	ArtifactFormat  = "emojiset.dataset"
	ArtifactVersion = "1"

	tensorIDs     = "documents.ids"
	tensorOffsets = "documents.offsets"
	tensorLabels  = "labels"

	metaFormat     = "format"
	metaVersion    = "version"
	metaPrefix     = "prefix"
	metaVocabulary = "vocabulary"
)

// RestoreOption configures Restore.
type RestoreOption func(*restoreOptions)

type restoreOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by Restore and kept by the restored
// dataset for later Persist calls.
func WithLogger(l *slog.Logger) RestoreOption {
	return func(o *restoreOptions) { o.logger = l }
}

// Persist writes the vocabulary, encoded documents and labels to path.
func (d *Dataset) Persist(path string) error {
	vocabJSON, err := json.Marshal(d.vocabulary.Tokens())
	if err != nil {
		return fmt.Errorf("dataset: encode vocabulary: %w", err)
	}

	offsets := make([]int64, 0, len(d.documents)+1)
	ids := make([]int64, 0, d.NumTokens())
	offsets = append(offsets, 0)

	for _, doc := range d.documents {
		for _, id := range doc {
			ids = append(ids, int64(id))
		}

		offsets = append(offsets, int64(len(ids)))
	}

	labels := make([]int64, len(d.labels))
	for i, l := range d.labels {
		labels[i] = int64(l)
	}

	meta := map[string]string{
		metaFormat:     ArtifactFormat,
		metaVersion:    ArtifactVersion,
		metaPrefix:     d.prefix,
		metaVocabulary: string(vocabJSON),
	}

	err = safetensors.WriteFile(path, meta, []safetensors.Tensor{
		safetensors.Vector(tensorIDs, ids),
		safetensors.Vector(tensorOffsets, offsets),
		safetensors.Vector(tensorLabels, labels),
	})
	if err != nil {
		return fmt.Errorf("dataset: persist %s: %w", path, err)
	}

	d.log().Debug("persisted dataset", "path", path, "documents", d.Len(), "vocabulary", d.vocabulary.Len())

	return nil
}

// Restore reads a dataset written by Persist. Any file that is not such an
// artifact yields ErrRestoreFormat; a missing file yields ErrMissingFile.
func Restore(path string, opts ...RestoreOption) (*Dataset, error) {
	o := restoreOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := safetensors.OpenStore(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}

		return nil, fmt.Errorf("%w: %s: %v", ErrRestoreFormat, path, err)
	}
	defer store.Close()

	d, err := decodeArtifact(store)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRestoreFormat, path, err)
	}

	d.logger = o.logger
	d.log().Debug("restored dataset", "path", path, "documents", d.Len(), "vocabulary", d.vocabulary.Len())

	return d, nil
}

func (d *Dataset) log() *slog.Logger {
	if d.logger == nil {
		return slog.Default()
	}

	return d.logger
}

func decodeArtifact(store *safetensors.Store) (*Dataset, error) {
	if format, _ := store.Metadata(metaFormat); format != ArtifactFormat {
		return nil, fmt.Errorf("format %q, want %q", format, ArtifactFormat)
	}

	if version, _ := store.Metadata(metaVersion); version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported version %q", version)
	}

	rawVocab, ok := store.Metadata(metaVocabulary)
	if !ok {
		return nil, errors.New("missing vocabulary")
	}

	var tokens []string
	if err := json.Unmarshal([]byte(rawVocab), &tokens); err != nil {
		return nil, fmt.Errorf("decode vocabulary: %w", err)
	}

	v := vocab.FromTokens(tokens)
	if v.Len() != len(tokens) {
		return nil, errors.New("vocabulary contains duplicate tokens")
	}

	ids, err := store.TensorOf(tensorIDs, safetensors.DTypeI64, 1)
	if err != nil {
		return nil, err
	}

	offsets, err := store.TensorOf(tensorOffsets, safetensors.DTypeI64, 1)
	if err != nil {
		return nil, err
	}

	labels, err := store.TensorOf(tensorLabels, safetensors.DTypeI64, 1)
	if err != nil {
		return nil, err
	}

	n := len(labels.I64)
	if len(offsets.I64) != n+1 || offsets.I64[0] != 0 || offsets.I64[n] != int64(len(ids.I64)) {
		return nil, fmt.Errorf("offsets do not describe %d documents over %d ids", n, len(ids.I64))
	}

	documents := make([][]int, n)
	for i := range documents {
		start, end := offsets.I64[i], offsets.I64[i+1]
		if end < start || end > int64(len(ids.I64)) {
			return nil, fmt.Errorf("document %d spans invalid range [%d, %d)", i, start, end)
		}

		doc := make([]int, end-start)
		for j, id := range ids.I64[start:end] {
			if id < 0 || id >= int64(v.Len()) {
				return nil, fmt.Errorf("document %d holds id %d outside vocabulary of %d", i, id, v.Len())
			}

			doc[j] = int(id)
		}

		documents[i] = doc
	}

	out := make([]int, n)
	for i, l := range labels.I64 {
		out[i] = int(l)
	}

	prefix, _ := store.Metadata(metaPrefix)

	return &Dataset{
		prefix:     prefix,
		vocabulary: v,
		documents:  documents,
		labels:     out,
	}, nil
}
