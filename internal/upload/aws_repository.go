package upload

import (
	"context"
	"io"
)

// AWSRepository is the object-storage surface used for staged chunks and
// assembled source files.
type AWSRepository interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) error
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucket, key string) error
	RemovePrefix(ctx context.Context, bucket, prefix string) error
}
