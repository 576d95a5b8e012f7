package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/colormatch/blobstore"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "colormatch.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
store:
  kind: local
  root: /data/catalogs
memory:
  auxiliary_bytes: 65536
search:
  budget: 500ms
  emergency: true
log:
  level: debug
  format: json
`), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "/data/catalogs", cfg.Store.Root)
		assert.Equal(t, int64(65536), cfg.Memory.AuxiliaryBytes)
		assert.Equal(t, "500ms", cfg.Search.Budget)
		assert.True(t, cfg.Search.Emergency)
		assert.Equal(t, "json", cfg.Log.Format)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown store", func(c *Config) { c.Store.Kind = "ftp" }, true},
		{"s3 without bucket", func(c *Config) { c.Store.Kind = "s3" }, true},
		{"minio with bucket", func(c *Config) { c.Store.Kind = "minio"; c.Store.Bucket = "paint" }, false},
		{"bad budget", func(c *Config) { c.Search.Budget = "soon" }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_OpenStoreLocal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Root = t.TempDir()

	store, err := cfg.OpenStore(t.Context())
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)
}

func TestConfig_MatcherOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.MatcherOptions(), 3)

	cfg.Memory.Host = true
	cfg.Search.NoIndex = true
	cfg.Search.Emergency = true
	assert.Len(t, cfg.MatcherOptions(), 6)
}

func TestParseRGB(t *testing.T) {
	tests := []struct {
		args    []string
		want    [3]uint8
		wantErr bool
	}{
		{[]string{"255", "0", "128"}, [3]uint8{255, 0, 128}, false},
		{[]string{"#FAF8F0"}, [3]uint8{250, 248, 240}, false},
		{[]string{"faf8f0"}, [3]uint8{250, 248, 240}, false},
		{[]string{"256", "0", "0"}, [3]uint8{}, true},
		{[]string{"#FFF"}, [3]uint8{}, true},
		{[]string{"#GGGGGG"}, [3]uint8{}, true},
	}

	for _, tt := range tests {
		r, g, b, err := parseRGB(tt.args)
		if tt.wantErr {
			assert.Error(t, err, tt.args)
			continue
		}
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, [3]uint8{r, g, b})
	}
}
