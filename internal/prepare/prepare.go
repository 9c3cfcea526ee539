// Package prepare runs the dataset preparation pipeline over every
// configured split: the first split builds the vocabulary, the remaining
// splits are encoded with it concurrently, and each result is persisted.
package prepare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-emoji-dataset/internal/bow"
	"github.com/example/go-emoji-dataset/internal/config"
	"github.com/example/go-emoji-dataset/internal/dataset"
	"github.com/example/go-emoji-dataset/internal/metrics"
	"github.com/example/go-emoji-dataset/internal/tokenizer"
	"github.com/example/go-emoji-dataset/internal/vocab"
)

// Artifact file extensions, appended to the split prefix.
const (
	DatasetExt = ".set"
	TFIDFExt   = ".tfidf"
)

var ErrNoSplits = errors.New("no splits configured")

// SplitResult summarizes one prepared split.
type SplitResult struct {
	Split         string        `yaml:"split"`
	Artifact      string        `yaml:"artifact"`
	TFIDFArtifact string        `yaml:"tfidf_artifact,omitempty"`
	Documents     int           `yaml:"documents"`
	Tokens        int           `yaml:"tokens"`
	UnknownTokens int           `yaml:"unknown_tokens"`
	Duration      time.Duration `yaml:"duration"`
}

// Report is the outcome of a full run, splits in configuration order.
type Report struct {
	VocabularySize int           `yaml:"vocabulary_size"`
	Splits         []SplitResult `yaml:"splits"`
}

type Service struct {
	cfg     config.Config
	tok     tokenizer.Tokenizer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(cfg config.Config, logger *slog.Logger) (*Service, error) {
	tok, err := tokenizer.New(cfg.Tokenizer.Kind, tokenizer.Options{
		Lowercase:          cfg.Tokenizer.Lowercase,
		SentencePieceModel: cfg.Paths.SentencePieceModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}

	return NewServiceWithTokenizer(cfg, tok, logger), nil
}

// NewServiceWithTokenizer uses tok instead of the configured tokenizer.
func NewServiceWithTokenizer(cfg config.Config, tok tokenizer.Tokenizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:     cfg,
		tok:     tok,
		metrics: metrics.New(),
		logger:  logger,
	}
}

func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run prepares every split. The first split must succeed before the others
// start; any failure cancels the splits still pending.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	splits := s.cfg.Dataset.Splits
	if len(splits) == 0 {
		return nil, ErrNoSplits
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]SplitResult, len(splits))

	first, vocabulary, err := s.prepareSplit(splits[0], nil)
	if err != nil {
		return nil, err
	}
	results[0] = first
	s.metrics.VocabularySize.Set(float64(vocabulary.Len()))

	g, gctx := errgroup.WithContext(ctx)
	for i, split := range splits[1:] {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, _, err := s.prepareSplit(split, vocabulary)
			if err != nil {
				return err
			}
			results[i+1] = res

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.metrics.LastSuccessUnixTime.SetToCurrentTime()

	if path := s.cfg.Metrics.Textfile; path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			return nil, err
		}
		s.logger.Info("wrote metrics", "path", path)
	}

	return &Report{VocabularySize: vocabulary.Len(), Splits: results}, nil
}

// prepareSplit loads one split, building the vocabulary when v is nil,
// and persists its artifacts.
func (s *Service) prepareSplit(split config.SplitConfig, v *vocab.Vocabulary) (SplitResult, *vocab.Vocabulary, error) {
	start := time.Now()
	logger := s.logger.With("split", split.Name)

	ds, err := dataset.Load(dataset.Options{
		Dir:            s.cfg.SplitDir(split),
		Prefix:         split.Prefix,
		Tokenize:       s.tok.Tokenize,
		VocabSize:      s.cfg.Dataset.VocabSize,
		Vocabulary:     v,
		CheckAlignment: s.cfg.Dataset.CheckAlignment,
		Logger:         logger,
	})
	if err != nil {
		return SplitResult{}, nil, fmt.Errorf("split %s: %w", split.Name, err)
	}

	res := SplitResult{
		Split:         split.Name,
		Artifact:      s.cfg.ArtifactPath(split, DatasetExt),
		Documents:     ds.Len(),
		Tokens:        ds.NumTokens(),
		UnknownTokens: ds.UnknownTokens(),
	}

	if err := ds.Persist(res.Artifact); err != nil {
		return SplitResult{}, nil, fmt.Errorf("split %s: %w", split.Name, err)
	}
	s.metrics.ArtifactsWritten.WithLabelValues("dataset").Inc()
	logger.Info("dumped dataset", "path", res.Artifact)

	if s.cfg.BOW.Enabled {
		enc, err := bow.Encode(ds, ds.Vocabulary(), bow.Options{
			DisableSmoothing: s.cfg.BOW.DisableSmoothing,
			SublinearTF:      s.cfg.BOW.SublinearTF,
			Logger:           logger,
		})
		if err != nil {
			return SplitResult{}, nil, fmt.Errorf("split %s: %w", split.Name, err)
		}

		res.TFIDFArtifact = s.cfg.ArtifactPath(split, TFIDFExt)
		if err := enc.Persist(res.TFIDFArtifact); err != nil {
			return SplitResult{}, nil, fmt.Errorf("split %s: %w", split.Name, err)
		}
		s.metrics.ArtifactsWritten.WithLabelValues("tfidf").Inc()
		logger.Info("dumped tf-idf matrix", "path", res.TFIDFArtifact)
	}

	res.Duration = time.Since(start)
	s.metrics.ObserveSplit(split.Name, res.Documents, res.Tokens, res.UnknownTokens)
	s.metrics.SplitDuration.WithLabelValues(split.Name).Set(res.Duration.Seconds())

	return res, ds.Vocabulary(), nil
}
