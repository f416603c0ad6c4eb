package blogboot

import (
	"context"
	"io"
)

// FileService stores uploaded files under opaque keys.
type FileService interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	GetURL(ctx context.Context, key string) (string, error)
}
