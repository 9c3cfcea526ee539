package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/go-emoji-dataset/internal/config"
	"github.com/example/go-emoji-dataset/internal/logging"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:           "emojiset",
		Short:         "Emoji prediction dataset preparation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newPrepareCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newMappingCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	slog.SetDefault(logging.NewJSON(os.Stderr, levelStr))
}

func requireConfig() (config.Config, error) {
	if len(activeCfg.Dataset.Splits) == 0 {
		return config.Config{}, errors.New("configuration not loaded")
	}
	return activeCfg, nil
}
