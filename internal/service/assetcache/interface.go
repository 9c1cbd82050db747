// Package assetcache provides interfaces for types turning remote item assets into local references.
package assetcache

import (
	"context"
	"errors"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

// ErrInvalidated is returned for a download that finished after the cache was invalidated.
var ErrInvalidated = errors.New("asset cache was invalidated during download")

// Resolver defines a set of methods for types resolving item assets to local references.
type Resolver interface {
	Resolve(ctx context.Context, id modelqr.ItemID, format modelqr.Format) (modelqr.AssetRef, error)
}

// Invalidator defines a set of methods for types releasing every issued reference.
type Invalidator interface {
	InvalidateAll() error
}

// Cache is the single owner of issued references: only InvalidateAll releases them.
type Cache interface {
	Resolver
	Invalidator
	Len() int
}
