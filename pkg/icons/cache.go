package icons

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
)

// Asset is a decoded icon. Assets are shared between workers and must not be
// modified.
type Asset struct {
	Symbol string
	Image  image.Image
	Width  int
	Height int
	Source string // name of the tier that produced it
}

// Resolver resolves symbol references to icons. *Cache implements it; the
// renderer depends only on this interface.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (*Asset, error)
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits     int64 // served from memory
	Lookups  int64 // misses that waited on a fetch, their own or a shared one
	Fetches  int64 // passes over the source chain
	Failures int64 // passes where every source failed
}

// Shared returns the number of lookups that joined another caller's fetch.
func (s Stats) Shared() int64 { return s.Lookups - s.Fetches }

// Cache is a concurrency-safe symbol -> icon store for one batch run.
//
// Concurrent lookups of the same unresolved symbol share a single pass over
// the source chain. Successful results are kept for the lifetime of the cache;
// failures are not, so a later lookup tries again.
//
// Fetches run on the context given to [New], not on the caller's: a caller
// whose own context ends stops waiting, while other waiters still get the
// result. Cancelling the run context fails every pending fetch.
type Cache struct {
	runCtx  context.Context
	sources []Source
	size    int
	logger  *log.Logger

	group singleflight.Group
	mu    sync.RWMutex
	memo  map[string]*Asset

	hits, lookups, fetches, failures atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger for fetch diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithResolution sets the pixel size SVG symbols are rasterized at.
func WithResolution(px int) Option {
	return func(c *Cache) {
		if px > 0 {
			c.size = px
		}
	}
}

// New creates a cache that tries sources in order. runCtx scopes every fetch
// to the batch run.
func New(runCtx context.Context, sources []Source, opts ...Option) *Cache {
	c := &Cache{
		runCtx:  runCtx,
		sources: sources,
		size:    Resolution,
		logger:  log.New(io.Discard),
		memo:    make(map[string]*Asset),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the icon for symbol. It fails with ICON_UNAVAILABLE when
// every source fails, or with the caller's context error when ctx ends first.
func (c *Cache) Resolve(ctx context.Context, symbol string) (*Asset, error) {
	hooks := observability.Icons()
	if symbol == "" {
		return nil, snaperrors.New(snaperrors.ErrCodeIconUnavailable, "empty symbol reference")
	}
	if a := c.lookup(symbol); a != nil {
		c.hits.Add(1)
		hooks.OnIconHit(ctx)
		return a, nil
	}

	c.lookups.Add(1)
	ch := c.group.DoChan(symbol, func() (any, error) {
		// A flight that finished between lookup and DoChan already stored it.
		if a := c.lookup(symbol); a != nil {
			return a, nil
		}
		c.fetches.Add(1)
		a, err := c.fetch(c.runCtx, symbol)
		if err != nil {
			c.failures.Add(1)
			return nil, err
		}
		c.mu.Lock()
		c.memo[symbol] = a
		c.mu.Unlock()
		return a, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			hooks.OnIconShared(ctx)
		}
		if res.Err != nil {
			if snaperrors.Is(res.Err, snaperrors.ErrCodeIconUnavailable) {
				hooks.OnIconUnavailable(ctx)
			}
			return nil, res.Err
		}
		return res.Val.(*Asset), nil
	}
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Lookups:  c.lookups.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
}

// Len returns the number of memoized icons.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memo)
}

func (c *Cache) lookup(symbol string) *Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memo[symbol]
}

// fetch walks the source chain until one tier yields a decodable icon.
func (c *Cache) fetch(ctx context.Context, symbol string) (*Asset, error) {
	hooks := observability.Icons()
	var errs []error
	for _, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, snaperrors.Cancelled(err, "icon %q", symbol)
		}

		start := time.Now()
		img, err := c.fetchFrom(ctx, src, symbol)
		hooks.OnIconFetch(ctx, src.Name(), time.Since(start), err)
		if err == nil {
			b := img.Bounds()
			c.logger.Debug("icon resolved", "symbol", symbol, "source", src.Name())
			return &Asset{Symbol: symbol, Image: img, Width: b.Dx(), Height: b.Dy(), Source: src.Name()}, nil
		}
		c.logger.Debug("icon source miss", "symbol", symbol, "source", src.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
	}
	if err := ctx.Err(); err != nil {
		return nil, snaperrors.Cancelled(err, "icon %q", symbol)
	}
	return nil, snaperrors.Wrap(snaperrors.ErrCodeIconUnavailable, errors.Join(errs...), "icon %q", symbol)
}

func (c *Cache) fetchFrom(ctx context.Context, src Source, symbol string) (image.Image, error) {
	data, err := src.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return Decode(data, c.size)
}
