package commands

import (
	"github.com/spf13/cobra"
)

// app holds the state shared by all commands of one invocation.
type app struct {
	cfgFile string
	output  string
	verbose bool
	metrics bool

	// Flag overrides of the config file.
	storeKind string
	root      string
	bucket    string
	prefix    string
	logLevel  string
	noIndex   bool
	emergency bool

	cfg Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "colormatch",
		Short: "Paint colour catalog tool",
		Long: `colormatch - build, inspect and query colour catalogs.

A catalog is a compact binary list of named paint colours. The matcher loads
it into a memory-bounded spatial index, or scans it directly when memory is
short, and reports the closest colour to an RGB reading.

Examples:
  # Convert a vendor JSON list into a zstd-compressed catalog
  colormatch --root ./data encode colors.json paint.bin --compression zstd

  # Match a reading
  colormatch --root ./data match paint.bin 250 248 240
  colormatch --root ./data match paint.bin '#FAF8F0'

  # Check the index against a linear scan
  colormatch --root ./data verify paint.bin --queries 5000
`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML)")
	pf.StringVarP(&a.output, "output", "o", "table", "output format: table, json, yaml")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&a.metrics, "metrics", false, "print Prometheus metrics to stderr after match and verify")
	pf.StringVar(&a.storeKind, "store", "", "catalog store: local, s3, minio")
	pf.StringVar(&a.root, "root", "", "local store directory")
	pf.StringVar(&a.bucket, "bucket", "", "s3/minio bucket")
	pf.StringVar(&a.prefix, "prefix", "", "s3/minio key prefix")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&a.noIndex, "no-index", false, "always scan the catalog instead of building the index")
	pf.BoolVar(&a.emergency, "emergency", false, "answer from the built-in palette when the catalog is unreadable")

	rootCmd.AddCommand(a.encodeCmd())
	rootCmd.AddCommand(a.inspectCmd())
	rootCmd.AddCommand(a.matchCmd())
	rootCmd.AddCommand(a.verifyCmd())

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store.Kind = a.storeKind
	}
	if flags.Changed("root") {
		cfg.Store.Root = a.root
	}
	if flags.Changed("bucket") {
		cfg.Store.Bucket = a.bucket
	}
	if flags.Changed("prefix") {
		cfg.Store.Prefix = a.prefix
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if a.verbose && !flags.Changed("log-level") {
		cfg.Log.Level = "info"
	}
	if a.noIndex {
		cfg.Search.NoIndex = true
	}
	if a.emergency {
		cfg.Search.Emergency = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
