package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) (string, bool) { return "", false }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webeval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.True(t, c.Browser.Headless)
	assert.False(t, c.Browser.PersistentContext)
	assert.False(t, c.Browser.EnableDownloads)
	assert.Empty(t, c.Browser.BrowserChannel)
	assert.Equal(t, "https://www.bing.com/", c.Browser.StartPage)
	assert.Equal(t, 3, c.Browser.Retries)
	assert.Equal(t, 8, c.Eval.Concurrency)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "webeval:", c.Redis.KeyPrefix)
	assert.Empty(t, c.Redis.Addr)
	assert.NoError(t, c.Validate())
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvBrowserDataDir, "")
	t.Setenv(EnvLogLevel, "")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Browser, c.Browser)
	assert.Equal(t, DefaultConfig().Eval, c.Eval)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvBrowserDataDir, "")
	t.Setenv(EnvLogLevel, "")

	path := writeConfig(t, `
browser:
  headless: false
  browser_channel: chromium
  enable_downloads: true
  persistent_context: true
  browser_data_dir: /tmp/webeval-profile
  start_page: https://example.com/
eval:
  gpt_solver: true
  concurrency: 2
logging:
  level: debug
redis:
  addr: localhost:6379
  db: 2
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.False(t, c.Browser.Headless)
	assert.Equal(t, "chromium", c.Browser.BrowserChannel)
	assert.True(t, c.Browser.EnableDownloads)
	assert.True(t, c.Browser.PersistentContext)
	assert.Equal(t, "/tmp/webeval-profile", c.Browser.BrowserDataDir)
	assert.Equal(t, "https://example.com/", c.Browser.StartPage)
	assert.Equal(t, 3, c.Browser.Retries, "unset fields keep their defaults")
	assert.True(t, c.Eval.GPTSolver)
	assert.Equal(t, 2, c.Eval.Concurrency)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
	assert.Equal(t, 2, c.Redis.DB)
	assert.Equal(t, "webeval:", c.Redis.KeyPrefix)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "browser: [not, a, map"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv(EnvBrowserDataDir, "")
		_, err := Load(writeConfig(t, "browser:\n  persistent_context: true\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvRedisAddr:      "redis:6380",
		EnvBrowserDataDir: "/data/profile",
		EnvLogLevel:       "warn",
	}
	c := DefaultConfig()
	c.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, "redis:6380", c.Redis.Addr)
	assert.Equal(t, "/data/profile", c.Browser.BrowserDataDir)
	assert.Equal(t, "warn", c.Logging.Level)
}

func TestApplyEnvKeepsValuesWhenUnset(t *testing.T) {
	c := DefaultConfig()
	c.Browser.BrowserDataDir = "/from/file"
	c.Redis.Addr = "file:6379"

	c.ApplyEnv(noEnv)

	assert.Equal(t, "/from/file", c.Browser.BrowserDataDir)
	assert.Equal(t, "file:6379", c.Redis.Addr)
	assert.Equal(t, "info", c.Logging.Level)
}

func TestApplyEnvIgnoresEmptyValues(t *testing.T) {
	c := DefaultConfig()
	c.Redis.Addr = "file:6379"
	c.Browser.BrowserDataDir = "/from/file"
	c.Logging.Level = "debug"

	c.ApplyEnv(func(key string) (string, bool) {
		return "", true
	})

	assert.Equal(t, "file:6379", c.Redis.Addr)
	assert.Equal(t, "/from/file", c.Browser.BrowserDataDir)
	assert.Equal(t, "debug", c.Logging.Level)
}

func TestLoadEmptyRedisEnvKeepsFileAddr(t *testing.T) {
	t.Setenv(EnvRedisAddr, "")
	t.Setenv(EnvBrowserDataDir, "")
	t.Setenv(EnvLogLevel, "")

	c, err := Load(writeConfig(t, "redis:\n  addr: cache:6379\n"))
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", c.Redis.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name: "persistent with dir",
			modify: func(c *Config) {
				c.Browser.PersistentContext = true
				c.Browser.BrowserDataDir = "/tmp/profile"
			},
		},
		{
			name:    "persistent without dir",
			modify:  func(c *Config) { c.Browser.PersistentContext = true },
			wantErr: "browser_data_dir",
		},
		{
			name:    "zero retries",
			modify:  func(c *Config) { c.Browser.Retries = 0 },
			wantErr: "retries",
		},
		{
			name:    "negative concurrency",
			modify:  func(c *Config) { c.Eval.Concurrency = -1 },
			wantErr: "concurrency",
		},
		{
			name:    "bad level",
			modify:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApplyLoggingRejectsBadLevel(t *testing.T) {
	c := DefaultConfig()
	c.Logging.Level = "verbose"
	assert.Error(t, c.ApplyLogging())
}
