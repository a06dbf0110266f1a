package storage

import (
	"context"
	"errors"
	"io"
)

var ErrObjectNotFound = errors.New("object not found")

type Object struct {
	Name string
	Size int64
}

type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	// GetObject returns ErrObjectNotFound if the key or bucket does not exist.
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	// ListObjects returns every object under prefix. A missing bucket lists as
	// empty.
	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)

	Ping(ctx context.Context) error
}
