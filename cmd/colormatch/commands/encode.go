package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/codec"
)

type encodeReport struct {
	Name        string `json:"name" yaml:"name"`
	Records     int    `json:"records" yaml:"records"`
	Skipped     int    `json:"skipped" yaml:"skipped"`
	Compression string `json:"compression" yaml:"compression"`
	Bytes       int    `json:"bytes" yaml:"bytes"`
}

func (a *app) encodeCmd() *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "encode <colors.json> <name>",
		Short: "Convert a JSON colour list into a catalog",
		Long: `Convert a vendor JSON colour list into a binary catalog and store it
under <name>. Entries with RGB channels outside 0-255 are skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := catalog.ParseCompression(compression)
			if err != nil {
				return err
			}
			c := codec.Default
			if a.cfg.Codec != "" {
				var ok bool
				if c, ok = codec.ByName(a.cfg.Codec); !ok {
					return fmt.Errorf("unknown codec %q", a.cfg.Codec)
				}
			}

			data, err := os.ReadFile(args[0]) //nolint:gosec // user supplied input path
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			records, skipped, err := catalog.DecodeJSON(data, c)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			w, err := catalog.NewCompressor(&buf, comp)
			if err != nil {
				return err
			}
			if err := catalog.Encode(w, records); err != nil {
				_ = w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to finish %s stream: %w", comp, err)
			}

			store, err := a.cfg.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Put(cmd.Context(), args[1], buf.Bytes()); err != nil {
				return fmt.Errorf("failed to store %s: %w", args[1], err)
			}

			report := encodeReport{
				Name:        args[1],
				Records:     len(records),
				Skipped:     skipped,
				Compression: comp.String(),
				Bytes:       buf.Len(),
			}
			out := cmd.OutOrStdout()
			if done, err := a.write(out, report); done {
				return err
			}
			fmt.Fprint(out, table("Encoded "+report.Name, [][2]string{
				{"Records", fmt.Sprint(report.Records)},
				{"Skipped", fmt.Sprint(report.Skipped)},
				{"Compression", report.Compression},
				{"Size", fmt.Sprintf("%d bytes", report.Bytes)},
			}))
			return nil
		},
	}

	cmd.Flags().StringVar(&compression, "compression", "none", "container: none, zstd, lz4")
	return cmd
}
