package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, int64(250), cfg.Planning.BagsPerCarton)
	assert.Equal(t, "always", cfg.Planning.MachineCommitPolicy)
	assert.Equal(t, 15*time.Second, cfg.InventoryFeed.Timeout)
	assert.Equal(t, "Material Code", cfg.InventoryFeed.CodeField)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 100, cfg.Events.MaxRuns)
	assert.Zero(t, cfg.Server.RateLimitRPS)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bagplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
planning:
  bags_per_carton: 500
  machine_commit_policy: feasible_only
inventory_feed:
  url: https://feed.example.com/stock
  timeout: 20s
log:
  format: json
`), 0o644))

	t.Setenv("BAGPLAN_PLANNING_BAGS_PER_CARTON", "400")
	t.Setenv("INVENTORY_FEED_TOKEN", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(400), cfg.Planning.BagsPerCarton, "env wins over file")
	assert.Equal(t, "feasible_only", cfg.Planning.MachineCommitPolicy)
	assert.Equal(t, "https://feed.example.com/stock", cfg.InventoryFeed.URL)
	assert.Equal(t, 20*time.Second, cfg.InventoryFeed.Timeout)
	assert.Equal(t, "secret", cfg.InventoryFeed.Token)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	chdir(t, t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"zero bags per carton", func(c *Config) { c.Planning.BagsPerCarton = 0 }, "bags_per_carton must be positive"},
		{"unknown policy", func(c *Config) { c.Planning.MachineCommitPolicy = "sometimes" }, "machine_commit_policy"},
		{"unknown store", func(c *Config) { c.Store.Driver = "postgres" }, "store.driver"},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"negative epsilon", func(c *Config) { c.Planning.ScoreEpsilon = -1 }, "score_epsilon"},
		{"negative event retention", func(c *Config) { c.Events.MaxRuns = -1 }, "events.max_runs"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitRPS = -1 }, "rate_limit_rps"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := *base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
