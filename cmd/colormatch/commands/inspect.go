package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/colormatch/catalog"
)

type inspectRecord struct {
	ID    uint32  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Code  string  `json:"code,omitempty" yaml:"code,omitempty"`
	Hex   string  `json:"hex" yaml:"hex"`
	LRV   float64 `json:"lrv" yaml:"lrv"`
	Light bool    `json:"light_text,omitempty" yaml:"light_text,omitempty"`
}

type inspectReport struct {
	Name        string          `json:"name" yaml:"name"`
	Version     uint32          `json:"version" yaml:"version"`
	Count       int             `json:"count" yaml:"count"`
	Compression string          `json:"compression" yaml:"compression"`
	Size        int64           `json:"size" yaml:"size"`
	Records     []inspectRecord `json:"records,omitempty" yaml:"records,omitempty"`
}

func (a *app) inspectCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Show a catalog's header and records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.cfg.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			blob, err := store.Open(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer blob.Close()

			rs, comp, err := catalog.Open(blob, blob.Size())
			if err != nil {
				return err
			}
			stream, err := catalog.NewStream(rs)
			if err != nil {
				return err
			}
			defer stream.Close()

			report := inspectReport{
				Name:        args[0],
				Version:     stream.Header().Version,
				Count:       stream.Count(),
				Compression: comp.String(),
				Size:        blob.Size(),
			}
			for i := 0; i < limit && stream.Available(); i++ {
				rec, err := stream.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				report.Records = append(report.Records, inspectRecord{
					ID:    rec.ID,
					Name:  rec.Name,
					Code:  rec.Code,
					Hex:   hexColor(rec.R, rec.G, rec.B),
					LRV:   rec.LRV(),
					Light: rec.LightText,
				})
			}

			out := cmd.OutOrStdout()
			if done, err := a.write(out, report); done {
				return err
			}
			fmt.Fprint(out, table(report.Name, [][2]string{
				{"Version", fmt.Sprint(report.Version)},
				{"Records", fmt.Sprint(report.Count)},
				{"Compression", report.Compression},
				{"Size", fmt.Sprintf("%d bytes", report.Size)},
			}))
			for _, r := range report.Records {
				fmt.Fprintf(out, "%6d  %s  %-28s %s\n", r.ID, r.Hex, r.Name, dimStyle.Render(fmt.Sprintf("LRV %.2f", r.LRV)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "records", 0, "list the first N records")
	return cmd
}
