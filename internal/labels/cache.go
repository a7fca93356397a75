package labels

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cacheTag = "base mask cache: "

// BaseMask is what a cache lookup hands out. Mask is always the caller's own copy.
type BaseMask struct {
	Mask      LabelMask
	FromCache bool
	Polygons  int
	Skipped   int
}

type cacheEntry struct {
	mask      LabelMask
	footprint geo.Footprint
	polygons  int
	skipped   int
}

// BaseMaskCache rasterizes the mining mask of a site once per SiteKey and
// keeps it for the life of the process. Concurrent lookups of the same key
// share a single resolve+rasterize; failed builds are not stored, so a later
// image of the site retries.
type BaseMaskCache struct {
	resolver   PolygonResolver
	rasterizer geo.Rasterizer

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

func NewBaseMaskCache(resolver PolygonResolver, rasterizer geo.Rasterizer) *BaseMaskCache {
	return &BaseMaskCache{
		resolver:   resolver,
		rasterizer: rasterizer,
		entries:    make(map[string]*cacheEntry),
	}
}

// Get returns a copy of the base mask for siteKey, building it from the
// polygons of baseSiteKey on the first request.
func (c *BaseMaskCache) Get(siteKey, baseSiteKey string, fp geo.Footprint) (BaseMask, error) {
	if e, ok := c.lookup(siteKey); ok {
		return c.fromEntry(e, true, siteKey, baseSiteKey, fp)
	}

	// built is only set by the caller whose closure ran the build; callers
	// that waited on it, or found the entry on the re-check, got a cached mask.
	built := false
	v, err, _ := c.group.Do(siteKey, func() (interface{}, error) {
		if e, ok := c.lookup(siteKey); ok {
			return e, nil
		}
		logger.Info(cacheTag+"generating base mask", zap.String("site", siteKey), zap.String("base_site", baseSiteKey))
		e, err := c.build(baseSiteKey, fp)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[siteKey] = e
		c.mu.Unlock()
		built = true
		return e, nil
	})
	if err != nil {
		return BaseMask{}, err
	}
	return c.fromEntry(v.(*cacheEntry), !built, siteKey, baseSiteKey, fp)
}

func (c *BaseMaskCache) lookup(siteKey string) (*cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[siteKey]
	return e, ok
}

// fromEntry copies a cached mask out. An entry rasterized for a different
// footprint would silently mislabel the image, so that case gets a one-off
// mask and the entry stays as it is.
func (c *BaseMaskCache) fromEntry(e *cacheEntry, fromCache bool, siteKey, baseSiteKey string, fp geo.Footprint) (BaseMask, error) {
	if !e.footprint.Same(fp) {
		logger.Warn(cacheTag+"footprint differs from cached entry, rasterizing uncached mask",
			zap.String("site", siteKey),
			zap.Stringer("cached_shape", e.footprint.Shape),
			zap.Stringer("shape", fp.Shape))
		c.misses.Add(1)
		fresh, err := c.build(baseSiteKey, fp)
		if err != nil {
			return BaseMask{}, err
		}
		return BaseMask{Mask: fresh.mask, Polygons: fresh.polygons, Skipped: fresh.skipped}, nil
	}
	if fromCache {
		c.hits.Add(1)
		logger.Debug(cacheTag+"using cached base mask", zap.String("site", siteKey))
	} else {
		c.misses.Add(1)
	}
	return BaseMask{Mask: e.mask.Clone(), FromCache: fromCache, Polygons: e.polygons, Skipped: e.skipped}, nil
}

func (c *BaseMaskCache) build(baseSiteKey string, fp geo.Footprint) (*cacheEntry, error) {
	res, err := c.resolver.Resolve(baseSiteKey, fp)
	if err != nil {
		return nil, fmt.Errorf("resolving polygons for %q: %w", baseSiteKey, err)
	}
	pix, err := c.rasterizer.Rasterize(res.Polygons, fp, Mining)
	if err != nil {
		return nil, fmt.Errorf("rasterizing %d polygons for %q: %w", len(res.Polygons), baseSiteKey, err)
	}
	if len(pix) != fp.Shape.Len() {
		return nil, &ShapeMismatchError{Input: "rasterized base mask", Want: fp.Shape, Got: fmt.Sprintf("%d pixels", len(pix))}
	}
	return &cacheEntry{
		mask:      LabelMask{Shape: fp.Shape, Pix: pix},
		footprint: fp,
		polygons:  len(res.Polygons),
		skipped:   len(res.Skipped),
	}, nil
}

// Len returns the number of cached site masks.
func (c *BaseMaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *BaseMaskCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
