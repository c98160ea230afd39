package core

import (
	"context"
	"io"
)

// MediaStorage is any service that can store uploaded media files
// and serve them back by URL.
type MediaStorage interface {
	// Save stores the content under key and returns its public URL.
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}
