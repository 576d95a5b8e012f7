package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/colormatch"
	"github.com/hupe1980/colormatch/blobstore"
	"github.com/hupe1980/colormatch/catalog"
	"github.com/hupe1980/colormatch/distance"
)

const verifyBatch = 256

type verifyReport struct {
	Name       string `json:"name" yaml:"name"`
	Strategy   string `json:"strategy" yaml:"strategy"`
	Truncated  bool   `json:"truncated" yaml:"truncated"`
	Queries    int    `json:"queries" yaml:"queries"`
	Mismatches int64  `json:"mismatches" yaml:"mismatches"`
}

func (a *app) verifyCmd() *cobra.Command {
	var (
		queries int
		seed    uint64
	)

	cmd := &cobra.Command{
		Use:   "verify <name>",
		Short: "Check index answers against a linear scan",
		Long: `Run random readings through the matcher and compare every index answer
with an exhaustive RGB scan of the catalog. A complete index must agree on
every query; a truncated index or the fallback are reported only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.cfg.OpenStore(ctx)
			if err != nil {
				return err
			}

			records, err := loadAll(ctx, store, args[0])
			if err != nil {
				return err
			}

			sink := a.newMetricsSink()
			opts := append(a.cfg.MatcherOptions(), sink.options()...)

			m, err := colormatch.Open(ctx, colormatch.FromStore(store, args[0]), opts...)
			if err != nil {
				return err
			}
			defer m.Close()
			if err := sink.watch(m); err != nil {
				return err
			}
			diag := m.Diagnostics()
			if diag.Strategy == colormatch.StrategyIndex && !diag.Truncated {
				// The index covers the leading records the sizing admitted.
				records = records[:min(diag.NodeCount, len(records))]
			}

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			targets := make([][3]uint8, queries)
			for i := range targets {
				v := rng.Uint32()
				targets[i] = [3]uint8{uint8(v), uint8(v >> 8), uint8(v >> 16)}
			}

			var mismatches atomic.Int64
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(runtime.GOMAXPROCS(0))
			for start := 0; start < len(targets); start += verifyBatch {
				batch := targets[start:min(start+verifyBatch, len(targets))]
				g.Go(func() error {
					for _, t := range batch {
						if err := gctx.Err(); err != nil {
							return err
						}
						res, err := m.Match(t[0], t[1], t[2])
						if err != nil {
							return fmt.Errorf("match %s: %w", hexColor(t[0], t[1], t[2]), err)
						}
						if sqDist(t, res.Record) != nearestSq(records, t) {
							mismatches.Add(1)
						}
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			if err := sink.dump(cmd.ErrOrStderr()); err != nil {
				return err
			}

			report := verifyReport{
				Name:       args[0],
				Strategy:   diag.Strategy.String(),
				Truncated:  diag.Truncated,
				Queries:    queries,
				Mismatches: mismatches.Load(),
			}
			out := cmd.OutOrStdout()
			done, werr := a.write(out, report)
			if !done {
				fmt.Fprint(out, table("Verified "+report.Name, [][2]string{
					{"Strategy", report.Strategy},
					{"Truncated", fmt.Sprint(report.Truncated)},
					{"Queries", fmt.Sprint(report.Queries)},
					{"Mismatches", fmt.Sprint(report.Mismatches)},
				}))
			}
			if werr != nil {
				return werr
			}

			if diag.Strategy == colormatch.StrategyIndex && !diag.Truncated && report.Mismatches > 0 {
				return fmt.Errorf("index disagrees with the linear scan on %d of %d queries", report.Mismatches, queries)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&queries, "queries", 1000, "number of random readings")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	return cmd
}

func loadAll(ctx context.Context, store blobstore.BlobStore, name string) ([]catalog.Record, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer blob.Close()

	rs, _, err := catalog.Open(blob, blob.Size())
	if err != nil {
		return nil, err
	}
	set, err := catalog.Load(rs)
	if err != nil {
		return nil, err
	}
	return set.Records, nil
}

func sqDist(t [3]uint8, rec catalog.Record) uint32 {
	return distance.SquaredRGB(t[0], t[1], t[2], rec.R, rec.G, rec.B)
}

func nearestSq(records []catalog.Record, t [3]uint8) uint32 {
	best := ^uint32(0)
	for _, rec := range records {
		best = min(best, sqDist(t, rec))
	}
	return best
}
