package minio

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/njprem/umrah_marketplace_client/internal/repository/ports"
)

func NewClient(endpoint, key, secret string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(key, secret, ""),
		Secure: useSSL,
	})
}

// ObjectStore adapts a minio client to ports.ObjectStorage.
type ObjectStore struct {
	client *minio.Client
}

func NewObjectStore(client *minio.Client) *ObjectStore {
	return &ObjectStore{client: client}
}

func (o *ObjectStore) PutObject(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) error {
	_, err := o.client.PutObject(ctx, bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (o *ObjectStore) GetObject(ctx context.Context, bucket, objectName string) ([]byte, bool, error) {
	obj, err := o.client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer obj.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, obj); err != nil {
		// minio reports a missing key lazily, on the first read.
		if isNoSuchKey(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func (o *ObjectStore) RemoveObject(ctx context.Context, bucket, objectName string) error {
	return o.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

var _ ports.ObjectStorage = (*ObjectStore)(nil)
