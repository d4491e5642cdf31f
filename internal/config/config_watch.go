package config

import (
	"sync"

	"fluxcareer/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration whenever the config file changes and hands
// the new value to onChange. Reloads that fail validation are logged and
// dropped. Watch is a no-op when no config file was loaded.
func (c *Config) Watch(logger *errors.Logger, onChange func(*Config)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}

	var mu sync.Mutex
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		reloaded, err := decode(c.v)
		if err != nil {
			logger.LogError(err, "Ignoring invalid configuration change", "file", e.Name)
			return
		}
		logger.Info("Configuration file changed, reloading",
			"file", e.Name,
			"ai_provider", reloaded.AI.Provider)
		onChange(reloaded)
	})
	c.v.WatchConfig()

	logger.Info("Watching configuration file for changes", "file", c.v.ConfigFileUsed())
	return true
}
