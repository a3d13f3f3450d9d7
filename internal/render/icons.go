package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/talgya/hexworlds/internal/world"
)

// IconPixels is the side length icons are stored at.
const IconPixels = 64

// maxIconBytes caps a single icon download.
const maxIconBytes = 4 << 20

// IconURLFunc maps a terrain to its icon URL; "" means no icon.
type IconURLFunc func(world.Terrain) string

// PaletteIcons uses the URLs of the built-in terrain palette.
func PaletteIcons(t world.Terrain) string { return world.Terrains[t].Icon }

// iconEntry is cached for failures too, with a nil image, so a broken URL
// is fetched once.
type iconEntry struct {
	img image.Image
}

// IconCache fetches terrain icons over HTTP and keeps them by terrain key.
// Get never blocks; Load and Preload fetch.
type IconCache struct {
	client *http.Client
	urlFor IconURLFunc
	cache  *ristretto.Cache[string, *iconEntry]
	group  singleflight.Group
}

// NewIconCache builds a cache. A nil client gets a 10 s timeout; a nil
// urlFor uses the palette URLs.
func NewIconCache(client *http.Client, urlFor IconURLFunc) (*IconCache, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if urlFor == nil {
		urlFor = PaletteIcons
	}
	cache, err := ristretto.NewCache(&ristretto.Config[string, *iconEntry]{
		NumCounters: 1000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("icon cache: %w", err)
	}
	return &IconCache{client: client, urlFor: urlFor, cache: cache}, nil
}

// Close releases the cache.
func (c *IconCache) Close() { c.cache.Close() }

// Get returns the loaded icon for t. It reports false when the icon is not
// loaded yet or failed to load.
func (c *IconCache) Get(t world.Terrain) (image.Image, bool) {
	e, ok := c.cache.Get(string(t))
	if !ok || e.img == nil {
		return nil, false
	}
	return e.img, true
}

// Load fetches the icon for t unless already cached. Concurrent loads of
// one terrain share a single fetch. A failed fetch is cached as missing
// and reported.
func (c *IconCache) Load(ctx context.Context, t world.Terrain) (image.Image, error) {
	key := string(t)
	if e, ok := c.cache.Get(key); ok {
		return e.img, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if e, ok := c.cache.Get(key); ok {
			return e.img, nil
		}
		img, err := c.fetch(ctx, c.urlFor(t))
		if err != nil {
			slog.Warn("terrain icon unavailable", "terrain", t, "error", err)
		}
		cost := int64(1)
		if img != nil {
			b := img.Bounds()
			cost = int64(b.Dx() * b.Dy() * 4)
		}
		c.cache.Set(key, &iconEntry{img: img}, cost)
		c.cache.Wait()
		return img, err
	})
	img, _ := v.(image.Image)
	return img, err
}

// Preload loads every palette terrain concurrently. Individual failures
// are cached and do not fail the preload.
func (c *IconCache) Preload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, t := range world.TerrainKeys() {
		g.Go(func() error {
			if _, err := c.Load(ctx, t); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	return g.Wait()
}

var errNoIcon = errors.New("no icon url")

func (c *IconCache) fetch(ctx context.Context, url string) (image.Image, error) {
	if url == "" {
		return nil, errNoIcon
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	src, _, err := image.Decode(io.LimitReader(resp.Body, maxIconBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return scaleIcon(src, IconPixels), nil
}

// scaleIcon resamples src into a side×side RGBA image.
func scaleIcon(src image.Image, side int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
