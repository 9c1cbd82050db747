// Package assetcache memoizes downloaded item assets as files in a cache directory.
package assetcache

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/assetcache"
	serviceErrors "github.com/danilovkiri/dk_go_qr_forge/internal/service/errors"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/gateway"
	"github.com/danilovkiri/dk_go_qr_forge/internal/service/modelqr"
)

// Check interface implementation explicitly
var (
	_ assetcache.Cache = (*Cache)(nil)
)

type entryKey struct {
	id     modelqr.ItemID
	format modelqr.Format
}

// flight is a download shared by concurrent resolves of one key.
type flight struct {
	done chan struct{}
	ref  modelqr.AssetRef
	err  error
}

// Cache defines object structure and its attributes.
type Cache struct {
	gw  gateway.Gateway
	dir string

	mu         sync.Mutex
	generation uint64
	entries    map[entryKey]modelqr.AssetRef
	inflight   map[entryKey]*flight
}

// InitCache initializes a Cache writing its files into dir.
func InitCache(gw gateway.Gateway, dir string) (*Cache, error) {
	if gw == nil {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "nil gateway was passed to asset cache initializer"}
	}
	if dir == "" {
		return nil, &serviceErrors.ServiceFoundNilDependency{Msg: "empty directory was passed to asset cache initializer"}
	}
	return &Cache{
		gw:       gw,
		dir:      dir,
		entries:  make(map[entryKey]modelqr.AssetRef),
		inflight: make(map[entryKey]*flight),
	}, nil
}

// Resolve returns the local reference for the asset, downloading it on the first request.
// Concurrent resolves of the same asset share one download.
func (c *Cache) Resolve(ctx context.Context, id modelqr.ItemID, format modelqr.Format) (modelqr.AssetRef, error) {
	key := entryKey{id: id, format: format}
	c.mu.Lock()
	if ref, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return ref, nil
	}
	if fl, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-fl.done:
			return fl.ref, fl.err
		case <-ctx.Done():
			return modelqr.AssetRef{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return modelqr.AssetRef{}, err
	}
	fl := &flight{done: make(chan struct{})}
	c.inflight[key] = fl
	generation := c.generation
	c.mu.Unlock()

	ref, err := c.download(ctx, id, format)

	c.mu.Lock()
	if c.inflight[key] == fl {
		delete(c.inflight, key)
	}
	if err == nil && generation != c.generation {
		release(ref)
		ref, err = modelqr.AssetRef{}, assetcache.ErrInvalidated
	}
	if err == nil {
		c.entries[key] = ref
	}
	fl.ref, fl.err = ref, err
	close(fl.done)
	c.mu.Unlock()
	return ref, err
}

// InvalidateAll releases every issued reference and empties the mapping. Downloads in
// progress are released when they complete.
func (c *Cache) InvalidateAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	var errs []error
	for key, ref := range c.entries {
		if err := release(ref); err != nil {
			errs = append(errs, err)
		}
		delete(c.entries, key)
	}
	c.inflight = make(map[entryKey]*flight)
	return errors.Join(errs...)
}

// Len returns the number of memoized references.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) download(ctx context.Context, id modelqr.ItemID, format modelqr.Format) (modelqr.AssetRef, error) {
	body, err := c.gw.Call(ctx, gateway.Request{
		Method:   http.MethodGet,
		Endpoint: gateway.DownloadEndpoint(string(id)),
		Query:    map[string]string{"format": string(format)},
	})
	if err != nil {
		return modelqr.AssetRef{}, err
	}
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return modelqr.AssetRef{}, err
	}
	path := filepath.Join(c.dir, uuid.New().String()+format.Extension())
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return modelqr.AssetRef{}, err
	}
	return modelqr.AssetRef{
		ItemID: id,
		Format: format,
		Path:   path,
		URL:    (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(),
	}, nil
}

func release(ref modelqr.AssetRef) error {
	if err := os.Remove(ref.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Println("Releasing asset:", err)
		return err
	}
	return nil
}
