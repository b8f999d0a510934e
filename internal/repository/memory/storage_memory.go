package memory

import (
	"errors"
	"sync"

	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

var (
	ErrQuotaExceeded   = errors.New("storage quota exceeded")
	ErrStorageDisabled = errors.New("storage is disabled")
)

// Storage keeps items in process memory. It can emulate a byte quota and a
// disabled store so callers can exercise storage failure paths.
type Storage struct {
	mu       sync.RWMutex
	items    map[string]string
	quota    int
	disabled bool
}

type Option func(*Storage)

// WithQuota caps the total size of keys plus values in bytes.
func WithQuota(bytes int) Option {
	return func(s *Storage) {
		s.quota = bytes
	}
}

func NewStorage(opts ...Option) *Storage {
	s := &Storage{items: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disabled {
		return "", false, ErrStorageDisabled
	}
	value, ok := s.items[key]
	return value, ok, nil
}

func (s *Storage) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return ErrStorageDisabled
	}
	if s.quota > 0 {
		used := len(key) + len(value)
		for k, v := range s.items {
			if k != key {
				used += len(k) + len(v)
			}
		}
		if used > s.quota {
			return ErrQuotaExceeded
		}
	}
	s.items[key] = value
	return nil
}

func (s *Storage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return ErrStorageDisabled
	}
	delete(s.items, key)
	return nil
}

// Disable makes every subsequent call fail with ErrStorageDisabled.
func (s *Storage) Disable() {
	s.mu.Lock()
	s.disabled = true
	s.mu.Unlock()
}

func (s *Storage) Enable() {
	s.mu.Lock()
	s.disabled = false
	s.mu.Unlock()
}

var _ ports.Storage = (*Storage)(nil)
