package main

import (
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/go-emoji-dataset/internal/bow"
	"github.com/example/go-emoji-dataset/internal/dataset"
	"github.com/example/go-emoji-dataset/internal/prepare"
	"github.com/example/go-emoji-dataset/internal/vocab"
)

type datasetSummary struct {
	Artifact       string      `yaml:"artifact"`
	Prefix         string      `yaml:"prefix"`
	Documents      int         `yaml:"documents"`
	Tokens         int         `yaml:"tokens"`
	UnknownTokens  int         `yaml:"unknown_tokens"`
	VocabularySize int         `yaml:"vocabulary_size"`
	MaxLength      int         `yaml:"max_length"`
	MeanLength     float64     `yaml:"mean_length"`
	EmptyDocuments int         `yaml:"empty_documents"`
	Labels         []labelFreq `yaml:"labels"`
	LeadingTokens  []string    `yaml:"leading_tokens,omitempty"`
}

type labelFreq struct {
	Label int `yaml:"label"`
	Count int `yaml:"count"`
}

type tfidfSummary struct {
	Artifact string  `yaml:"artifact"`
	Rows     int     `yaml:"rows"`
	Columns  int     `yaml:"columns"`
	NonZero  int     `yaml:"non_zero"`
	Density  float64 `yaml:"density"`
	MinIDF   float64 `yaml:"min_idf"`
	MaxIDF   float64 `yaml:"max_idf"`
}

func newInspectCmd() *cobra.Command {
	var leading int

	cmd := &cobra.Command{
		Use:   "inspect <artifact>",
		Short: "Print a YAML summary of a persisted dataset or TF-IDF matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var summary any
			if filepath.Ext(path) == prepare.TFIDFExt {
				enc, err := bow.Restore(path)
				if err != nil {
					return err
				}
				summary = summarizeTFIDF(path, enc)
			} else {
				ds, err := dataset.Restore(path)
				if err != nil {
					return err
				}
				summary = summarizeDataset(path, ds, leading)
			}

			out := yaml.NewEncoder(cmd.OutOrStdout())
			out.SetIndent(2)
			if err := out.Encode(summary); err != nil {
				return err
			}

			return out.Close()
		},
	}

	cmd.Flags().IntVar(&leading, "tokens", 10, "Number of most frequent vocabulary entries to list")

	return cmd
}

func summarizeDataset(path string, ds *dataset.Dataset, leading int) datasetSummary {
	s := datasetSummary{
		Artifact:       path,
		Prefix:         ds.Prefix(),
		Documents:      ds.Len(),
		Tokens:         ds.NumTokens(),
		UnknownTokens:  ds.UnknownTokens(),
		VocabularySize: ds.Vocabulary().Len(),
	}

	ds.Documents(func(_ int, ids []int) {
		s.MaxLength = max(s.MaxLength, len(ids))
		if len(ids) == 0 {
			s.EmptyDocuments++
		}
	})

	if s.Documents > 0 {
		s.MeanLength = float64(s.Tokens) / float64(s.Documents)
	}

	counts := map[int]int{}
	for _, l := range ds.Labels() {
		counts[l]++
	}

	for label, n := range counts {
		s.Labels = append(s.Labels, labelFreq{Label: label, Count: n})
	}

	slices.SortFunc(s.Labels, func(a, b labelFreq) int { return a.Label - b.Label })

	// Vocabulary ids after the reserved symbols follow descending frequency.
	tokens := ds.Vocabulary().Tokens()
	first := vocab.UnkID + 1
	if first < len(tokens) && leading > 0 {
		s.LeadingTokens = tokens[first:min(len(tokens), first+leading)]
	}

	return s
}

func summarizeTFIDF(path string, enc *bow.Encoded) tfidfSummary {
	m := enc.Matrix
	s := tfidfSummary{
		Artifact: path,
		Rows:     m.Rows,
		Columns:  m.Cols,
		NonZero:  m.NNZ(),
	}

	if cells := m.Rows * m.Cols; cells > 0 {
		s.Density = float64(s.NonZero) / float64(cells)
	}

	if len(enc.IDF) > 0 {
		s.MinIDF = slices.Min(enc.IDF)
		s.MaxIDF = slices.Max(enc.IDF)
	}

	return s
}
