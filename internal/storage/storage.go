// Package storage keeps finished conversion artifacts on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists at the key.
var ErrNotFound = errors.New("storage: not found")

// Adapter is implemented by every storage backend. Keys are slash-separated
// and relative to the backend root.
type Adapter interface {
	Put(ctx context.Context, key string, data io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Adapter string // "local" or "s3"
	BaseDir string // local root

	S3 S3Options
}

// New creates the adapter named by opts.Adapter.
func New(opts Options) (Adapter, error) {
	switch opts.Adapter {
	case "", "local":
		return NewLocal(opts.BaseDir)
	case "s3":
		return NewS3(opts.S3)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %q", opts.Adapter)
	}
}

// Key joins the parts of an artifact key, e.g. Key(jobID, "book.epub").
func Key(parts ...string) string {
	return path.Join(parts...)
}

// cleanKey rejects keys that would escape the backend root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, `\`, "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return k, nil
}
