package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/hasbyte1/credhash/hashing"
)

// Watch reloads the config file behind v whenever it changes and applies the
// result to m. An invalid file is logged and leaves m untouched.
//
// v must already have a config file loaded and must not be used by the
// caller afterwards.
func Watch(v *viper.Viper, m *hashing.Manager, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		c, err := decode(v)
		if err != nil {
			logger.Error("Config reload failed.", "path", e.Name, "err", err)
			return
		}
		if err := c.Apply(m); err != nil {
			logger.Error("Applying reloaded config failed.", "path", e.Name, "err", err)
			return
		}
		logger.Info("Config reloaded.", "path", e.Name, "driver", c.Driver, "bcrypt_cost", c.Bcrypt.Cost)
	})
	v.WatchConfig()
}
