package minio

import (
	"context"
	"path"
	"strings"

	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

// Storage keeps each key as a small JSON object under bucket/prefix. It lets
// kiosk or roaming installs share anonymous favorites without a local disk.
type Storage struct {
	objects ports.ObjectStorage
	bucket  string
	prefix  string
}

func NewStorage(objects ports.ObjectStorage, bucket, prefix string) *Storage {
	return &Storage{
		objects: objects,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
	}
}

func (s *Storage) GetItem(key string) (string, bool, error) {
	data, ok, err := s.objects.GetObject(context.Background(), s.bucket, s.objectName(key))
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

func (s *Storage) SetItem(key, value string) error {
	return s.objects.PutObject(
		context.Background(),
		s.bucket,
		s.objectName(key),
		"application/json",
		strings.NewReader(value),
		int64(len(value)),
	)
}

func (s *Storage) RemoveItem(key string) error {
	return s.objects.RemoveObject(context.Background(), s.bucket, s.objectName(key))
}

func (s *Storage) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

var _ ports.Storage = (*Storage)(nil)
