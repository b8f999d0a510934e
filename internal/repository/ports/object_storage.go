package ports

import (
	"context"
	"io"
)

type ObjectStorage interface {
	PutObject(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) error
	GetObject(ctx context.Context, bucket, objectName string) ([]byte, bool, error)
	RemoveObject(ctx context.Context, bucket, objectName string) error
}
