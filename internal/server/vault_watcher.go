package server

import (
	"fmt"
	"sync"
	"time"

	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"
)

const defaultPollInterval = 5 * time.Minute

// KeyRotationCallback receives provider keys read after a secret version change
type KeyRotationCallback func(keys map[types.Provider]string, legacy string, err error)

// KeyWatcher polls the Vault provider keys secret and reports new versions.
// The first poll always reports, so keys rotated during startup are picked up.
type KeyWatcher struct {
	mu sync.RWMutex

	client       config.SecretReader
	secretPath   string
	pollInterval time.Duration
	onRotate     KeyRotationCallback
	logger       *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

// NewKeyWatcher creates a watcher for secretPath
func NewKeyWatcher(client config.SecretReader, secretPath string, pollInterval time.Duration, onRotate KeyRotationCallback, logger *errors.Logger) *KeyWatcher {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &KeyWatcher{
		client:       client,
		secretPath:   secretPath,
		pollInterval: pollInterval,
		onRotate:     onRotate,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start begins polling Vault for secret changes
func (kw *KeyWatcher) Start() error {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	if kw.running {
		return fmt.Errorf("vault key watcher is already running")
	}
	kw.running = true
	go kw.pollLoop()
	kw.logger.Info("Vault key watcher started", "secret_path", kw.secretPath, "poll_interval", kw.pollInterval)
	return nil
}

// Stop stops the watcher
func (kw *KeyWatcher) Stop() {
	kw.mu.Lock()
	defer kw.mu.Unlock()
	if !kw.running {
		return
	}
	close(kw.stopChan)
	kw.running = false
	kw.logger.Info("Vault key watcher stopped")
}

func (kw *KeyWatcher) pollLoop() {
	ticker := time.NewTicker(kw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			kw.poll()
		case <-kw.stopChan:
			return
		}
	}
}

// poll reads the secret once and reports it when its version moved
func (kw *KeyWatcher) poll() {
	secret, changed, err := kw.checkForUpdates()
	if err != nil {
		kw.logger.LogError(err, "Failed to check Vault for provider key updates")
		kw.onRotate(nil, "", err)
		return
	}
	if !changed {
		return
	}
	kw.logger.Info("Vault provider keys changed", "version", secret.Version)
	keys, legacy := secret.ProviderKeys()
	kw.onRotate(keys, legacy, nil)
}

// checkForUpdates reads the secret and reports whether its version is newer
// than the last one seen
func (kw *KeyWatcher) checkForUpdates() (*config.VaultSecret, bool, error) {
	secret, err := kw.client.GetSecretV2(kw.secretPath)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret == nil {
		return nil, false, fmt.Errorf("secret %s not found", kw.secretPath)
	}

	kw.mu.Lock()
	defer kw.mu.Unlock()
	if secret.Version > kw.lastVersion {
		kw.lastVersion = secret.Version
		return secret, true, nil
	}
	return secret, false, nil
}

// Status returns the current status of the watcher for the stats endpoint
func (kw *KeyWatcher) Status() map[string]any {
	kw.mu.RLock()
	defer kw.mu.RUnlock()
	return map[string]any{
		"running":       kw.running,
		"poll_interval": kw.pollInterval.String(),
		"secret_path":   kw.secretPath,
		"last_version":  kw.lastVersion,
	}
}
