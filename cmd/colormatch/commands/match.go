package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/colormatch"
	"github.com/hupe1980/colormatch/blobstore"
	"github.com/hupe1980/colormatch/catalog"
)

type matchReport struct {
	Input    string  `json:"input" yaml:"input"`
	Label    string  `json:"label" yaml:"label"`
	Hex      string  `json:"hex,omitempty" yaml:"hex,omitempty"`
	LRV      float64 `json:"lrv,omitempty" yaml:"lrv,omitempty"`
	DeltaE   float64 `json:"delta_e" yaml:"delta_e"`
	Quality  string  `json:"quality" yaml:"quality"`
	Strategy string  `json:"strategy" yaml:"strategy"`

	Diagnostics *colormatch.Diagnostics `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

func (a *app) matchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <name> <r g b | #RRGGBB>",
		Short: "Find the closest catalog colour to a reading",
		Long: `Find the closest catalog colour to an RGB reading.

When the catalog cannot be opened and --emergency is not set, only the broad
colour family of the reading is reported.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 && len(args) != 4 {
				return fmt.Errorf("want <name> and either r g b or #RRGGBB, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, g, b, err := parseRGB(args[1:])
			if err != nil {
				return err
			}
			input := hexColor(r, g, b)

			store, err := a.cfg.OpenStore(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			sink := a.newMetricsSink()
			opts := append(a.cfg.MatcherOptions(), sink.options()...)

			m, err := colormatch.Open(cmd.Context(), colormatch.FromStore(store, args[0]), opts...)
			if err != nil {
				var fe *catalog.FormatError
				if !errors.Is(err, blobstore.ErrNotFound) && !errors.As(err, &fe) {
					return err
				}
				report := matchReport{
					Input:    input,
					Label:    colormatch.Classify(r, g, b),
					Quality:  "unknown",
					Strategy: "none",
				}
				if done, werr := a.write(out, report); done {
					return werr
				}
				fmt.Fprintf(out, "%s %s\n%s\n", titleStyle.Render(report.Label),
					dimStyle.Render("(catalog unavailable)"), dimStyle.Render(err.Error()))
				return nil
			}
			defer m.Close()
			if err := sink.watch(m); err != nil {
				return err
			}

			res, err := m.Match(r, g, b)
			if err != nil {
				return err
			}
			defer func() { _ = sink.dump(cmd.ErrOrStderr()) }()

			report := matchReport{
				Input:    input,
				Label:    res.Label,
				Hex:      hexColor(res.Record.R, res.Record.G, res.Record.B),
				LRV:      res.Record.LRV(),
				DeltaE:   res.Distance,
				Quality:  res.Quality.String(),
				Strategy: res.Strategy.String(),
			}
			if a.verbose {
				d := m.Diagnostics()
				report.Diagnostics = &d
			}
			if done, err := a.write(out, report); done {
				return err
			}

			fmt.Fprintf(out, "%s  %s\n\n", swatch(catalog.Record{R: r, G: g, B: b}, input), swatch(res.Record, report.Hex))
			rows := [][2]string{
				{"Match", report.Label},
				{"LRV", fmt.Sprintf("%.2f", report.LRV)},
				{"ΔE00", fmt.Sprintf("%.2f", report.DeltaE)},
				{"Quality", report.Quality},
				{"Strategy", report.Strategy},
			}
			if d := report.Diagnostics; d != nil {
				rows = append(rows,
					[2]string{"Catalog", fmt.Sprintf("%d records (%s)", d.CatalogSize, d.Compression)},
					[2]string{"Index nodes", fmt.Sprintf("%d (truncated=%t)", d.NodeCount, d.Truncated)},
					[2]string{"Memory", fmt.Sprintf("%d bytes", d.PoolUsage)},
				)
				if d.DegradeReason != "" {
					rows = append(rows, [2]string{"Degraded", d.DegradeReason})
				}
			}
			fmt.Fprint(out, table("Closest colour", rows))
			return nil
		},
	}
}

// parseRGB accepts either three channel values or one #RRGGBB string.
func parseRGB(args []string) (r, g, b uint8, err error) {
	if len(args) == 1 {
		s := strings.TrimPrefix(args[0], "#")
		if len(s) != 6 {
			return 0, 0, 0, fmt.Errorf("invalid hex colour %q", args[0])
		}
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid hex colour %q", args[0])
		}
		return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
	}

	var ch [3]uint8
	for i, s := range args {
		v, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid channel %q: want 0-255", s)
		}
		ch[i] = uint8(v)
	}
	return ch[0], ch[1], ch[2], nil
}
