package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/hupe1980/colormatch"
	"github.com/hupe1980/colormatch/blobstore"
	minioblob "github.com/hupe1980/colormatch/blobstore/minio"
	s3blob "github.com/hupe1980/colormatch/blobstore/s3"
	"github.com/hupe1980/colormatch/internal/sysmem"
	"github.com/hupe1980/colormatch/resource"
)

// Config is the CLI configuration file.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Memory MemoryConfig `yaml:"memory"`
	Search SearchConfig `yaml:"search"`
	Log    LogConfig    `yaml:"log"`
	// Codec names the JSON codec used by encode ("json" or "go-json").
	Codec string `yaml:"codec,omitempty"`
}

// StoreConfig selects where catalogs live.
type StoreConfig struct {
	// Kind is one of local, s3, minio.
	Kind      string `yaml:"kind"`
	Root      string `yaml:"root,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

// MemoryConfig sizes the memory pools.
type MemoryConfig struct {
	AuxiliaryBytes int64 `yaml:"auxiliary_bytes"`
	PrimaryBytes   int64 `yaml:"primary_bytes"`
	// Host sizes the index from free host memory instead of the pools.
	Host bool `yaml:"host,omitempty"`
}

// SearchConfig tunes matching.
type SearchConfig struct {
	// Budget is a Go duration string, e.g. "2s".
	Budget    string `yaml:"budget,omitempty"`
	NoIndex   bool   `yaml:"no_index,omitempty"`
	Emergency bool   `yaml:"emergency,omitempty"`
}

// LogConfig configures logging to stderr.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{Kind: "local", Root: "."},
		Memory: MemoryConfig{
			AuxiliaryBytes: resource.DefaultAuxiliaryBytes,
			PrimaryBytes:   resource.DefaultPrimaryBytes,
		},
		Search: SearchConfig{Budget: "2s"},
		Log:    LogConfig{Level: "warn", Format: "text"},
		Codec:  "go-json",
	}
}

// LoadConfig reads path over the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case "local", "s3", "minio":
	default:
		return fmt.Errorf("unknown store kind %q (want local, s3 or minio)", c.Store.Kind)
	}
	if c.Store.Kind != "local" && c.Store.Bucket == "" {
		return fmt.Errorf("store kind %s needs a bucket", c.Store.Kind)
	}
	if c.Search.Budget != "" {
		if _, err := time.ParseDuration(c.Search.Budget); err != nil {
			return fmt.Errorf("invalid search budget: %w", err)
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// OpenStore connects to the configured store.
func (c Config) OpenStore(ctx context.Context) (blobstore.WritableStore, error) {
	switch c.Store.Kind {
	case "s3":
		opts := []s3blob.Option{s3blob.WithPrefix(c.Store.Prefix)}
		if c.Store.Region != "" {
			opts = append(opts, s3blob.WithRegion(c.Store.Region))
		}
		if c.Store.Endpoint != "" {
			opts = append(opts, s3blob.WithEndpoint(c.Store.Endpoint))
		}
		return s3blob.New(ctx, c.Store.Bucket, opts...)
	case "minio":
		return minioblob.Connect(c.Store.Endpoint, c.Store.AccessKey, c.Store.SecretKey, c.Store.Secure, c.Store.Bucket, c.Store.Prefix)
	default:
		return blobstore.NewLocalStore(c.Store.Root), nil
	}
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// Logger returns the configured logger.
func (c Config) Logger() *colormatch.Logger {
	level, _ := parseLevel(c.Log.Level)
	if strings.EqualFold(c.Log.Format, "json") {
		return colormatch.NewJSONLogger(level)
	}
	return colormatch.NewTextLogger(level)
}

// MatcherOptions translates the configuration into Open options.
func (c Config) MatcherOptions() []colormatch.Option {
	opts := []colormatch.Option{
		colormatch.WithLogger(c.Logger()),
		colormatch.WithPools(resource.NewPools(c.Memory.AuxiliaryBytes, c.Memory.PrimaryBytes)),
	}
	if c.Memory.Host {
		opts = append(opts, colormatch.WithProbe(sysmem.New(c.Memory.AuxiliaryBytes)))
	}
	if d, err := time.ParseDuration(c.Search.Budget); err == nil {
		opts = append(opts, colormatch.WithSearchBudget(d))
	}
	if c.Search.NoIndex {
		opts = append(opts, colormatch.WithoutIndex())
	}
	if c.Search.Emergency {
		opts = append(opts, colormatch.WithEmergencyPalette())
	}
	return opts
}
