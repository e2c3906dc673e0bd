// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores engine connection secrets in the OS credential store.
// The relay reads them only when neither the environment nor config.yaml
// provides a DSN.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// ErrNotFound is returned when no engine connection has been saved.
var ErrNotFound = errors.New("no saved engine connection")

// Manager provides thread-safe access to the stored engine connection.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "querydeck"

// Keys used for storing secrets in the OS keychain.
const (
	KeyEngineKind = "engine_kind"
	KeyEngineDSN  = "engine_dsn"
)

// NewManager opens the platform keyring.
func NewManager() (*Manager, error) {
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewWithRing(ring), nil
}

// NewWithRing wraps an already opened keyring.
func NewWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// A failed initialization is retried on the next call.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only; there is
// no encrypted-file fallback.
func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		// pass is the fallback when the login keychain is locked down
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// SaveEngine stores the engine kind and its DSN.
func (m *Manager) SaveEngine(kind, dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ring.Set(keyring.Item{Key: KeyEngineKind, Data: []byte(kind), Label: "querydeck engine"}); err != nil {
		return err
	}
	return m.ring.Set(keyring.Item{Key: KeyEngineDSN, Data: []byte(dsn), Label: "querydeck engine DSN"})
}

// LoadEngine returns the stored engine kind and DSN, or ErrNotFound.
func (m *Manager) LoadEngine() (kind, dsn string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(KeyEngineDSN)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	if len(it.Data) == 0 {
		return "", "", ErrNotFound
	}
	dsn = string(it.Data)

	if k, err := m.ring.Get(KeyEngineKind); err == nil {
		kind = string(k.Data)
	}
	return kind, dsn, nil
}

// ClearEngine removes the stored connection. Missing keys are not an error.
func (m *Manager) ClearEngine() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range []string{KeyEngineKind, KeyEngineDSN} {
		if err := m.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return err
		}
	}
	return nil
}
