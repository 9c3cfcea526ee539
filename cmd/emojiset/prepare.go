package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/go-emoji-dataset/internal/prepare"
)

func newPrepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Build the vocabulary and persist every configured split",
		Long: "Loads the first configured split, builds the vocabulary from it, then " +
			"encodes the remaining splits with that vocabulary and writes <prefix>.set " +
			"(and <prefix>.tfidf with --bow-enabled) for each.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			svc, err := prepare.NewService(cfg, slog.Default())
			if err != nil {
				return err
			}

			report, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(report); err != nil {
				return err
			}

			return enc.Close()
		},
	}
}
