// Package storage saves proof photos to S3 or to local disk.
package storage

import (
	"context"
	"io"
)

// Uploader stores an object under key and returns the path clients use to fetch it.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}
