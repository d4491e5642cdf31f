package server

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"fluxcareer/internal/config"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVaultClient serves secrets from memory
type mockVaultClient struct {
	mu      sync.Mutex
	secrets map[string]*config.VaultSecret
	err     error
}

func (m *mockVaultClient) GetSecretV2(path string) (*config.VaultSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.secrets[path], nil
}

func (m *mockVaultClient) set(path string, secret *config.VaultSecret) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[path] = secret
}

type rotation struct {
	keys   map[types.Provider]string
	legacy string
	err    error
}

func recordRotations() (*[]rotation, KeyRotationCallback) {
	var got []rotation
	return &got, func(keys map[types.Provider]string, legacy string, err error) {
		got = append(got, rotation{keys: keys, legacy: legacy, err: err})
	}
}

func TestKeyWatcherReportsNewVersions(t *testing.T) {
	client := &mockVaultClient{secrets: map[string]*config.VaultSecret{
		"secret/data/ai": {
			Data:    map[string]any{"gemini_api_key": "g-1", "openai_api_key": "o-1"},
			Version: 2,
		},
	}}
	got, cb := recordRotations()
	kw := NewKeyWatcher(client, "secret/data/ai", time.Minute, cb, nil)

	kw.poll()
	require.Len(t, *got, 1)
	assert.Equal(t, "g-1", (*got)[0].keys[types.ProviderGemini])
	assert.Equal(t, "o-1", (*got)[0].keys[types.ProviderOpenAI])

	// Same version: nothing to report
	kw.poll()
	assert.Len(t, *got, 1)

	client.set("secret/data/ai", &config.VaultSecret{
		Data:    map[string]any{"openrouter_api_key": "r-2", "api_key": "legacy"},
		Version: 3,
	})
	kw.poll()
	require.Len(t, *got, 2)
	assert.Equal(t, "r-2", (*got)[1].keys[types.ProviderOpenRouter])
	assert.Equal(t, "legacy", (*got)[1].legacy)
	assert.Equal(t, int64(3), kw.Status()["last_version"])
}

func TestKeyWatcherReportsErrors(t *testing.T) {
	client := &mockVaultClient{err: fmt.Errorf("vault sealed")}
	got, cb := recordRotations()
	kw := NewKeyWatcher(client, "secret/data/ai", time.Minute, cb, nil)

	kw.poll()
	require.Len(t, *got, 1)
	assert.ErrorContains(t, (*got)[0].err, "vault sealed")
}

func TestKeyWatcherMissingSecret(t *testing.T) {
	got, cb := recordRotations()
	kw := NewKeyWatcher(&mockVaultClient{secrets: map[string]*config.VaultSecret{}}, "secret/data/none", time.Minute, cb, nil)

	kw.poll()
	require.Len(t, *got, 1)
	assert.ErrorContains(t, (*got)[0].err, "not found")
}

func TestKeyWatcherStartStop(t *testing.T) {
	_, cb := recordRotations()
	kw := NewKeyWatcher(&mockVaultClient{secrets: map[string]*config.VaultSecret{}}, "p", time.Hour, cb, nil)

	require.NoError(t, kw.Start())
	assert.Error(t, kw.Start())
	assert.Equal(t, true, kw.Status()["running"])

	kw.Stop()
	kw.Stop()
	assert.Equal(t, false, kw.Status()["running"])
}
