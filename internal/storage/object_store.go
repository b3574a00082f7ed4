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

// ObjectStore addresses artifacts by slash separated keys relative to the
// store root. Errors name the offending key.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)

	PutObject(ctx context.Context, key string, data io.Reader) error

	Exists(ctx context.Context, key string) (bool, error)

	ListObjects(ctx context.Context, prefix string) ([]Object, error)

	DeleteObjects(ctx context.Context, prefix string) error

	// Location is a human readable address for a key, used in logs and
	// artifacts.
	Location(key string) string
}
