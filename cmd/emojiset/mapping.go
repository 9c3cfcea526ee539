package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/go-emoji-dataset/internal/mapping"
)

func newMappingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mapping [file]",
		Short: "Print the emoji label mapping in file order",
		Long:  "Prints the label id to emoji table. Without an argument the configured paths.mapping_file is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := requireConfig()
				if err != nil {
					return err
				}
				path = cfg.Paths.MappingFile
			}

			m, err := mapping.Load(path)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, id := range m.IDs() {
				sym, _ := m.Symbol(id)
				_, _ = fmt.Fprintf(w, "%d\t%s\n", id, sym)
			}

			return nil
		},
	}
}
