// Package storage locates and fetches day-bucketed capture objects held in a
// cloud object store. One Backend implementation exists per provider; the
// rest of the program never branches on which one is in use.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	ErrBackendAuth        = errors.New("storage backend rejected credentials")
	ErrObjectNotFound     = errors.New("object not found")
	ErrMalformedKey       = errors.New("malformed object key")
)

// Object is one remotely stored capture file discovered by listing. Time is
// the capture timestamp embedded in the key, filled in by the lister.
type Object struct {
	Key  string
	Size int64
	Time time.Time
}

// Backend is the capability a storage provider has to offer. Implementations
// classify their provider errors into the sentinel errors above and never
// retry internally; retry policy, if any, lives in the provider SDK.
type Backend interface {
	// ListDay returns every object under one UTC day prefix in the
	// backend's listing order, draining all result pages.
	ListDay(ctx context.Context, prefix string) ([]Object, error)

	// Fetch streams the object at key into the local file at dest and
	// returns the number of bytes written.
	Fetch(ctx context.Context, key, dest string) (int64, error)

	// Name identifies the provider in logs and diagnostics.
	Name() string
}
