package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/go-emoji-dataset/internal/batch"
	"github.com/example/go-emoji-dataset/internal/dataset"
)

func newBatchCmd() *cobra.Command {
	var (
		size    int
		count   int
		shuffle bool
		seed    uint64
		tokens  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <artifact>",
		Short: "Collate samples of a persisted dataset into padded batches and print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Restore(args[0])
			if err != nil {
				return err
			}

			it, err := batch.NewIterator(ds, batch.IteratorOptions{
				BatchSize: size,
				Shuffle:   shuffle,
				Seed:      seed,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for n := 0; count <= 0 || n < count; n++ {
				b, err := it.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(w, "batch %d/%d\n", n+1, it.Batches())
				if err := printBatch(w, b, ds, tokens); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&size, "size", 4, "Samples per batch")
	cmd.Flags().IntVar(&count, "count", 1, "Number of batches to print (0 for all)")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "Visit samples in a seeded random order")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Shuffle seed")
	cmd.Flags().BoolVar(&tokens, "tokens", false, "Print tokens instead of ids")

	return cmd
}

// printBatch writes the header rows followed by one grid row per time step.
func printBatch(w io.Writer, b *batch.Batch, ds *dataset.Dataset, asTokens bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.AlignRight)

	writeRow(tw, "index", b.Indices)
	writeRow(tw, "label", b.Labels)
	writeRow(tw, "length", b.Lengths)

	v := ds.Vocabulary()
	for t := range b.MaxLen() {
		cells := make([]string, b.Size())
		for col := range cells {
			id, err := b.At(t, col)
			if err != nil {
				return err
			}

			cells[col] = strconv.Itoa(id)
			if asTokens {
				if tok, err := v.Token(id); err == nil {
					cells[col] = tok
				}
			}
		}

		_, _ = fmt.Fprintf(tw, "t=%d\t%s\t\n", t, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

func writeRow(w io.Writer, name string, values []int) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = strconv.Itoa(v)
	}

	_, _ = fmt.Fprintf(w, "%s\t%s\t\n", name, strings.Join(cells, "\t"))
}
