package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/YasiruR/didcomm-envelope/domain/services"
	"github.com/bluele/gcache"
)

type DIDDocs struct {
	store *sync.Map // key: did
}

func NewDIDDocs() *DIDDocs {
	return &DIDDocs{store: &sync.Map{}}
}

func (d *DIDDocs) StoreDIDDoc(_ context.Context, did string, doc models.DIDDoc) error {
	if did == `` {
		return fmt.Errorf(`did doc must be stored against a did`)
	}

	d.store.Store(did, doc)
	return nil
}

func (d *DIDDocs) DIDDoc(_ context.Context, did string) (models.DIDDoc, error) {
	val, ok := d.store.Load(did)
	if !ok {
		return models.DIDDoc{}, fmt.Errorf(`%w - did doc of %s`, domain.ErrNotFound, did)
	}

	doc, ok := val.(models.DIDDoc)
	if !ok {
		return models.DIDDoc{}, fmt.Errorf(`invalid type found for did doc of %s (%v)`, did, val)
	}

	return doc, nil
}

// CachedDIDDocs keeps recently used docs of a slower store in an LRU cache.
// Writes go through to the underlying store.
type CachedDIDDocs struct {
	next  services.DIDDocStore
	cache gcache.Cache
}

func NewCachedDIDDocs(next services.DIDDocStore, size int, ttl time.Duration) *CachedDIDDocs {
	b := gcache.New(size).LRU()
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &CachedDIDDocs{next: next, cache: b.Build()}
}

func (c *CachedDIDDocs) StoreDIDDoc(ctx context.Context, did string, doc models.DIDDoc) error {
	if err := c.next.StoreDIDDoc(ctx, did, doc); err != nil {
		return err
	}

	if err := c.cache.Set(did, doc); err != nil {
		return fmt.Errorf(`caching did doc of %s failed - %v`, did, err)
	}
	return nil
}

func (c *CachedDIDDocs) DIDDoc(ctx context.Context, did string) (models.DIDDoc, error) {
	val, err := c.cache.Get(did)
	if err == nil {
		if doc, ok := val.(models.DIDDoc); ok {
			return doc, nil
		}
	} else if !errors.Is(err, gcache.KeyNotFoundError) {
		return models.DIDDoc{}, fmt.Errorf(`reading cached did doc of %s failed - %v`, did, err)
	}

	doc, err := c.next.DIDDoc(ctx, did)
	if err != nil {
		return models.DIDDoc{}, err
	}

	if err = c.cache.Set(did, doc); err != nil {
		return models.DIDDoc{}, fmt.Errorf(`caching did doc of %s failed - %v`, did, err)
	}

	return doc, nil
}
