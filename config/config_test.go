package config_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hasbyte1/credhash/config"
	"github.com/hasbyte1/credhash/hashing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// validConfig returns a config with fast parameters.
func validConfig() config.Config {
	return config.Config{
		Driver:   "bcrypt",
		Bcrypt:   config.BcryptConfig{Cost: 4},
		Argon2:   config.Argon2Config{Memory: 64, Time: 1, Threads: 1, KeyLen: 32, SaltLen: 16},
		LogLevel: "info",
	}
}

func TestLoad_Defaults(t *testing.T) {
	c, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "bcrypt", c.Driver)
	assert.Equal(t, hashing.DefaultBcryptCost, c.Bcrypt.Cost)
	assert.Equal(t, int(hashing.DefaultArgon2Memory), c.Argon2.Memory)
	assert.Equal(t, int(hashing.DefaultArgon2Time), c.Argon2.Time)
	assert.Equal(t, int(hashing.DefaultArgon2Threads), c.Argon2.Threads)
	assert.Equal(t, int(hashing.DefaultArgon2KeyLen), c.Argon2.KeyLen)
	assert.Equal(t, int(hashing.DefaultArgon2SaltLen), c.Argon2.SaltLen)
	assert.Zero(t, c.MaxConcurrent)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "credhash.yaml", `
driver: argon2id
bcrypt:
  cost: 12
argon2:
  memory: 32768
  time: 2
  threads: 4
max_concurrent: 8
log_level: debug
`)
	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "argon2id", c.Driver)
	assert.Equal(t, 12, c.Bcrypt.Cost)
	assert.Equal(t, 32768, c.Argon2.Memory)
	assert.Equal(t, 2, c.Argon2.Time)
	assert.Equal(t, 4, c.Argon2.Threads)
	assert.Equal(t, int(hashing.DefaultArgon2KeyLen), c.Argon2.KeyLen, "unset keys keep defaults")
	assert.Equal(t, int64(8), c.MaxConcurrent)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "credhash.toml", "driver = \"bcrypt\"\n[bcrypt]\ncost = 11\n")
	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 11, c.Bcrypt.Cost)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "credhash.yaml", "bcrypt:\n  cost: 12\n")
	t.Setenv("CREDHASH_BCRYPT_COST", "6")
	t.Setenv("CREDHASH_DRIVER", "ARGON2ID")

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, c.Bcrypt.Cost)
	assert.Equal(t, "argon2id", c.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValue(t *testing.T) {
	path := writeFile(t, "credhash.yaml", "bcrypt:\n  cost: 3\n")
	_, err := config.Load(path)
	assert.ErrorIs(t, err, hashing.ErrInvalidInput)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.Driver = "md5" }},
		{"bcrypt cost below range", func(c *config.Config) { c.Bcrypt.Cost = 3 }},
		{"bcrypt cost above range", func(c *config.Config) { c.Bcrypt.Cost = 32 }},
		{"argon2 zero threads", func(c *config.Config) { c.Argon2.Threads = 0 }},
		{"argon2 threads overflow", func(c *config.Config) { c.Argon2.Threads = 256 }},
		{"argon2 negative memory", func(c *config.Config) { c.Argon2.Memory = -1 }},
		{"argon2 memory above cap", func(c *config.Config) { c.Argon2.Memory = int(hashing.MaxArgon2Memory) + 1 }},
		{"argon2 zero time", func(c *config.Config) { c.Argon2.Time = 0 }},
		{"negative max_concurrent", func(c *config.Config) { c.MaxConcurrent = -1 }},
		{"unknown log level", func(c *config.Config) { c.LogLevel = "loud" }},
	}

	base := validConfig()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), hashing.ErrInvalidInput)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := validConfig()
	c.Driver = "md5"
	c.Bcrypt.Cost = 99
	c.LogLevel = "loud"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "md5")
	assert.Contains(t, err.Error(), "99")
	assert.Contains(t, err.Error(), "loud")
}

func TestConfig_Manager(t *testing.T) {
	c := validConfig()
	m, err := c.Manager()
	require.NoError(t, err)

	assert.Equal(t, hashing.DriverBcrypt, m.DefaultDriver())
	assert.True(t, m.HasDriver(hashing.DriverArgon2id))

	h, err := m.Driver(hashing.DriverBcrypt)
	require.NoError(t, err)
	bh, ok := h.(*hashing.BcryptHasher)
	require.True(t, ok, "unbounded config registers plain drivers")
	assert.Equal(t, 4, bh.Cost())

	record, err := m.Hash("pw")
	require.NoError(t, err)
	ok, err = m.Verify("pw", record)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfig_Manager_Limited(t *testing.T) {
	c := validConfig()
	c.MaxConcurrent = 2
	m, err := c.Manager()
	require.NoError(t, err)

	h, err := m.Driver(hashing.DriverBcrypt)
	require.NoError(t, err)
	l, ok := h.(*hashing.Limited)
	require.True(t, ok, "bounded config wraps drivers in Limited")

	record, err := l.HashContext(context.Background(), "pw")
	require.NoError(t, err)
	ok, err = m.Verify("pw", record)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfig_Apply_RaisesCost(t *testing.T) {
	c := validConfig()
	m, err := c.Manager()
	require.NoError(t, err)
	old, err := m.Hash("pw")
	require.NoError(t, err)

	c.Bcrypt.Cost = 5
	require.NoError(t, c.Apply(m))

	stale, err := m.NeedsRehash(old)
	require.NoError(t, err)
	assert.True(t, stale)

	ok, err := m.Verify("pw", old)
	require.NoError(t, err)
	assert.True(t, ok, "old records keep verifying")
}

func TestConfig_Apply_SwitchesDriver(t *testing.T) {
	c := validConfig()
	m, err := c.Manager()
	require.NoError(t, err)

	c.Driver = "argon2id"
	require.NoError(t, c.Apply(m))
	assert.Equal(t, hashing.DriverArgon2id, m.DefaultDriver())
}

func TestConfig_Logger(t *testing.T) {
	var buf bytes.Buffer
	c := validConfig()
	c.LogLevel = "warn"
	logger := c.Logger(&buf)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWatch_AppliesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credhash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML(4)), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	c, err := config.FromViper(v)
	require.NoError(t, err)
	m, err := c.Manager()
	require.NoError(t, err)

	config.Watch(v, m, c.Logger(io.Discard))

	// Replace atomically so the watcher never reads a half-written file.
	tmp := filepath.Join(dir, "next.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(minimalYAML(5)), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		h, err := m.Driver(hashing.DriverBcrypt)
		if err != nil {
			return false
		}
		bh, ok := h.(*hashing.BcryptHasher)
		return ok && bh.Cost() == 5
	}, 5*time.Second, 20*time.Millisecond)
}

func minimalYAML(cost int) string {
	return fmt.Sprintf("driver: bcrypt\nbcrypt:\n  cost: %d\nargon2:\n  memory: 64\n  time: 1\n  threads: 1\n", cost)
}
