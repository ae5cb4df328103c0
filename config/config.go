// Package config loads hasher settings with github.com/spf13/viper and turns
// them into a ready [hashing.Manager].
//
// Settings come from, in increasing precedence: built-in defaults, an
// optional config file (format inferred from the extension), environment
// variables prefixed with CREDHASH_ (CREDHASH_BCRYPT_COST, CREDHASH_DRIVER,
// ...) and any flags the caller binds into the viper instance.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/hasbyte1/credhash/hashing"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CREDHASH"

// Keys understood by the loader.
const (
	KeyDriver        = "driver"
	KeyBcryptCost    = "bcrypt.cost"
	KeyArgon2Memory  = "argon2.memory"
	KeyArgon2Time    = "argon2.time"
	KeyArgon2Threads = "argon2.threads"
	KeyArgon2KeyLen  = "argon2.key_len"
	KeyArgon2SaltLen = "argon2.salt_len"
	KeyMaxConcurrent = "max_concurrent"
	KeyLogLevel      = "log_level"
)

const (
	defaultLogLevel   = "info"
	defaultConcurrent = 0
)

// BcryptConfig holds bcrypt settings.
type BcryptConfig struct {
	Cost int `mapstructure:"cost"`
}

// Argon2Config holds argon2id settings. Memory is in KiB.
type Argon2Config struct {
	Memory  int `mapstructure:"memory"`
	Time    int `mapstructure:"time"`
	Threads int `mapstructure:"threads"`
	KeyLen  int `mapstructure:"key_len"`
	SaltLen int `mapstructure:"salt_len"`
}

// Config is the decoded hasher configuration.
type Config struct {
	// Driver names the algorithm used for new records.
	Driver string `mapstructure:"driver"`

	Bcrypt BcryptConfig `mapstructure:"bcrypt"`
	Argon2 Argon2Config `mapstructure:"argon2"`

	// MaxConcurrent bounds simultaneous computations per driver. Zero means
	// unbounded.
	MaxConcurrent int64 `mapstructure:"max_concurrent"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
}

// SetDefaults registers the default value of every key on v and enables
// CREDHASH_ environment overrides.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDriver, string(hashing.DriverBcrypt))
	v.SetDefault(KeyBcryptCost, hashing.DefaultBcryptCost)
	v.SetDefault(KeyArgon2Memory, hashing.DefaultArgon2Memory)
	v.SetDefault(KeyArgon2Time, hashing.DefaultArgon2Time)
	v.SetDefault(KeyArgon2Threads, hashing.DefaultArgon2Threads)
	v.SetDefault(KeyArgon2KeyLen, hashing.DefaultArgon2KeyLen)
	v.SetDefault(KeyArgon2SaltLen, hashing.DefaultArgon2SaltLen)
	v.SetDefault(KeyMaxConcurrent, defaultConcurrent)
	v.SetDefault(KeyLogLevel, defaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the config file at path, if non-empty, and decodes it over the
// defaults and environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v, registering
// defaults first.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate reports every out-of-range setting. Range errors wrap
// [hashing.ErrInvalidInput].
func (c *Config) Validate() error {
	var errs []error

	switch hashing.DriverName(c.Driver) {
	case hashing.DriverBcrypt, hashing.DriverArgon2id:
	default:
		errs = append(errs, fmt.Errorf("%w: unsupported driver %q", hashing.ErrInvalidInput, c.Driver))
	}
	if _, err := hashing.NewBcryptHasher(c.bcryptOptions()); err != nil {
		errs = append(errs, err)
	}
	if opts, err := c.argon2Options(); err != nil {
		errs = append(errs, err)
	} else if _, err := hashing.NewArgon2idHasher(opts); err != nil {
		errs = append(errs, err)
	}
	if c.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("%w: max_concurrent must be ≥ 0, got %d",
			hashing.ErrInvalidInput, c.MaxConcurrent))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Manager builds a Manager with both drivers registered and Driver as the
// default.
func (c *Config) Manager() (*hashing.Manager, error) {
	m := hashing.NewManager(hashing.DriverName(c.Driver))
	if err := c.Apply(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Apply registers freshly configured drivers on m, replacing existing ones,
// and switches its default driver. Records already stored keep verifying;
// only NeedsRehash and new hashes see the change.
func (c *Config) Apply(m *hashing.Manager) error {
	drivers, err := c.hashers()
	if err != nil {
		return err
	}
	for _, h := range drivers {
		if err := m.RegisterDriver(h.Driver(), h); err != nil {
			return fmt.Errorf("config: register %s: %w", h.Driver(), err)
		}
	}
	if err := m.SetDefaultDriver(hashing.DriverName(c.Driver)); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (c *Config) hashers() ([]hashing.Hasher, error) {
	bc, err := hashing.NewBcryptHasher(c.bcryptOptions())
	if err != nil {
		return nil, err
	}
	opts, err := c.argon2Options()
	if err != nil {
		return nil, err
	}
	ar, err := hashing.NewArgon2idHasher(opts)
	if err != nil {
		return nil, err
	}

	out := []hashing.Hasher{bc, ar}
	if c.MaxConcurrent <= 0 {
		return out, nil
	}
	for i, h := range out {
		l, err := hashing.NewLimited(h, c.MaxConcurrent)
		if err != nil {
			return nil, err
		}
		out[i] = l
	}
	return out, nil
}

func (c *Config) bcryptOptions() hashing.BcryptOptions {
	return hashing.BcryptOptions{Cost: c.Bcrypt.Cost}
}

func (c *Config) argon2Options() (hashing.Argon2Options, error) {
	a := c.Argon2
	if a.Threads < 1 || a.Threads > math.MaxUint8 {
		return hashing.Argon2Options{}, fmt.Errorf("%w: argon2 threads %d must be in [1, %d]",
			hashing.ErrInvalidInput, a.Threads, math.MaxUint8)
	}
	memory, err := toUint32("argon2.memory", a.Memory)
	if err != nil {
		return hashing.Argon2Options{}, err
	}
	time, err := toUint32("argon2.time", a.Time)
	if err != nil {
		return hashing.Argon2Options{}, err
	}
	keyLen, err := toUint32("argon2.key_len", a.KeyLen)
	if err != nil {
		return hashing.Argon2Options{}, err
	}
	saltLen, err := toUint32("argon2.salt_len", a.SaltLen)
	if err != nil {
		return hashing.Argon2Options{}, err
	}
	return hashing.Argon2Options{
		Memory:  memory,
		Time:    time,
		Threads: uint8(a.Threads),
		KeyLen:  keyLen,
		SaltLen: saltLen,
	}, nil
}

func toUint32(key string, n int) (uint32, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %s %d out of range", hashing.ErrInvalidInput, key, n)
	}
	return uint32(n), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q: %v", hashing.ErrInvalidInput, s, err)
	}
	return level, nil
}
