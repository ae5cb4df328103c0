package hashing

import (
	"fmt"
	"sync"
)

// Manager is a driver registry and dispatcher.
//
// New records are produced by the default driver. Verify and Info pick the
// driver from the record itself, so records from several algorithms can
// coexist while stored data is migrated.
//
// All Manager methods are safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	drivers map[DriverName]Hasher
	def     DriverName
}

// NewManager creates an empty Manager with the given default driver name.
// Drivers must be registered with [Manager.RegisterDriver] before use.
func NewManager(defaultDriver DriverName) *Manager {
	return &Manager{
		drivers: make(map[DriverName]Hasher),
		def:     defaultDriver,
	}
}

// NewDefaultManager creates a Manager with bcrypt (cost [DefaultBcryptCost])
// as the default driver and argon2id registered with its defaults.
func NewDefaultManager() (*Manager, error) {
	bcryptH, err := NewBcryptHasher(DefaultBcryptOptions())
	if err != nil {
		return nil, fmt.Errorf("hashing: default bcrypt hasher: %w", err)
	}
	argon2idH, err := NewArgon2idHasher(DefaultArgon2Options())
	if err != nil {
		return nil, fmt.Errorf("hashing: default argon2id hasher: %w", err)
	}

	m := NewManager(DriverBcrypt)
	_ = m.RegisterDriver(DriverBcrypt, bcryptH)
	_ = m.RegisterDriver(DriverArgon2id, argon2idH)
	return m, nil
}

// RegisterDriver adds or replaces a named hasher.
func (m *Manager) RegisterDriver(name DriverName, h Hasher) error {
	if name == "" {
		return ErrEmptyDriverName
	}
	if h == nil {
		return ErrNilHasher
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[name] = h
	return nil
}

// Driver returns the [Hasher] registered under name.
func (m *Manager) Driver(name DriverName) (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDriverNotFound, name)
	}
	return h, nil
}

// SetDefaultDriver changes the driver used by [Manager.Hash]. The driver must
// already be registered.
func (m *Manager) SetDefaultDriver(name DriverName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.drivers[name]; !ok {
		return fmt.Errorf("%w: %q is not registered", ErrDriverNotFound, name)
	}
	m.def = name
	return nil
}

// DefaultDriver returns the name of the default driver.
func (m *Manager) DefaultDriver() DriverName {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.def
}

// HasDriver reports whether a driver with the given name is registered.
func (m *Manager) HasDriver(name DriverName) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[name]
	return ok
}

// Hash produces a record with the default driver.
func (m *Manager) Hash(credential string) (string, error) {
	h, err := m.resolveDefault()
	if err != nil {
		return "", err
	}
	return h.Hash(credential)
}

// Verify checks credential against record using the driver that produced it.
//
// Returns [ErrMalformedRecord] for an unrecognised record and
// [ErrDriverNotFound] when the record's driver is not registered.
func (m *Manager) Verify(credential, record string) (bool, error) {
	h, err := m.resolveByRecord(record)
	if err != nil {
		return false, err
	}
	return h.Verify(credential, record)
}

// NeedsRehash reports whether record should be replaced on the next
// successful verification: it was produced by another driver than the
// default, or with parameters that differ from the default driver's.
func (m *Manager) NeedsRehash(record string) (bool, error) {
	detected, ok := DetectDriver(record)
	if !ok {
		return false, fmt.Errorf("%w: unrecognised record prefix", ErrMalformedRecord)
	}
	def, err := m.resolveDefault()
	if err != nil {
		return false, err
	}
	if detected != def.Driver() {
		return true, nil
	}
	return def.NeedsRehash(record)
}

// Info extracts the parameters of record using the driver that produced it.
func (m *Manager) Info(record string) (RecordInfo, error) {
	h, err := m.resolveByRecord(record)
	if err != nil {
		return RecordInfo{}, err
	}
	return h.Info(record)
}

func (m *Manager) resolveDefault() (Hasher, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.drivers[m.def]
	if !ok {
		return nil, fmt.Errorf("%w: default driver %q has not been registered",
			ErrDriverNotFound, m.def)
	}
	return h, nil
}

func (m *Manager) resolveByRecord(record string) (Hasher, error) {
	name, ok := DetectDriver(record)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognised record prefix", ErrMalformedRecord)
	}
	return m.Driver(name)
}
