package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

var ErrQuotaExceeded = errors.New("storage quota exceeded")

type Storage struct {
	db           *sqlx.DB
	maxValueSize int
}

type Option func(*Storage)

// WithMaxValueSize rejects values larger than n bytes with ErrQuotaExceeded.
func WithMaxValueSize(n int) Option {
	return func(s *Storage) {
		s.maxValueSize = n
	}
}

func NewStorage(db *sqlx.DB, opts ...Option) *Storage {
	s := &Storage{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storage) GetItem(key string) (string, bool, error) {
	const query = `SELECT value FROM kv_items WHERE key = ?`

	var value string
	if err := s.db.GetContext(context.Background(), &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) SetItem(key, value string) error {
	if s.maxValueSize > 0 && len(value) > s.maxValueSize {
		return fmt.Errorf("%w: %d bytes over limit of %d", ErrQuotaExceeded, len(value), s.maxValueSize)
	}
	const query = `
		INSERT INTO kv_items (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(context.Background(), query, key, value)
	return err
}

func (s *Storage) RemoveItem(key string) error {
	const query = `DELETE FROM kv_items WHERE key = ?`
	_, err := s.db.ExecContext(context.Background(), query, key)
	return err
}

var _ ports.Storage = (*Storage)(nil)
