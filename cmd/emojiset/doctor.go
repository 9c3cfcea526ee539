package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/example/go-emoji-dataset/internal/config"
	"github.com/example/go-emoji-dataset/internal/dataset"
	"github.com/example/go-emoji-dataset/internal/doctor"
	"github.com/example/go-emoji-dataset/internal/tokenizer"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the configured corpus is present and well formed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			kind, err := tokenizer.NormalizeKind(cfg.Tokenizer.Kind)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "tokenizer: %s\n", kind)

			dcfg := doctor.Config{
				Splits:      doctorSplits(cfg),
				MappingFile: cfg.Paths.MappingFile,
			}
			if kind == tokenizer.KindSentencePiece {
				dcfg.SentencePieceModel = cfg.Paths.SentencePieceModel
			}

			result := doctor.Run(dcfg, out)

			if kind == tokenizer.KindSentencePiece && cfg.Paths.SentencePieceModel == "" {
				result.AddFailure("sentencepiece model: --paths-sentencepiece-model is required")
				_, _ = fmt.Fprintf(out, "%s sentencepiece model: not configured\n", doctor.FailMark)
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	return cmd
}

func doctorSplits(cfg config.Config) []doctor.Split {
	splits := make([]doctor.Split, 0, len(cfg.Dataset.Splits))
	for _, s := range cfg.Dataset.Splits {
		base := filepath.Join(cfg.SplitDir(s), s.Prefix)
		splits = append(splits, doctor.Split{
			Name:       s.Name,
			TextPath:   base + dataset.TextExt,
			LabelsPath: base + dataset.LabelsExt,
		})
	}

	return splits
}
