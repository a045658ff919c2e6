package icons

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
)

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="10" viewBox="0 0 20 10">` +
	`<rect x="0" y="0" width="20" height="10" fill="#ff0000"/></svg>`

// fakeSource counts fetches and optionally blocks until released.
type fakeSource struct {
	name    string
	payload []byte
	err     error
	calls   atomic.Int64
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, symbol string) ([]byte, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.payload, nil
}

func blockingSource(name string, payload []byte, err error) *fakeSource {
	return &fakeSource{
		name:    name,
		payload: payload,
		err:     err,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

// waitForLookups blocks until n callers have missed the memo and entered the flight.
func waitForLookups(t *testing.T, c *Cache, n int64) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Stats().Lookups >= n }, 2*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
}

func TestResolveSingleFlight(t *testing.T) {
	const callers = 25
	primary := blockingSource("server", nil, errors.New("404"))
	fallback := &fakeSource{name: "mirror", payload: []byte(testSVG)}
	cache := New(context.Background(), []Source{primary, fallback})

	var wg sync.WaitGroup
	results := make([]*Asset, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = cache.Resolve(context.Background(), ":/symbols/router.svg")
		}()
	}

	<-primary.started
	waitForLookups(t, cache, callers)
	close(primary.release)
	wg.Wait()

	assert.Equal(t, int64(1), primary.calls.Load(), "primary fetches")
	assert.Equal(t, int64(1), fallback.calls.Load(), "fallback fetches")
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i], "all callers observe the same asset")
	}
	assert.Equal(t, "mirror", results[0].Source)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Fetches)
	assert.Equal(t, int64(callers-1), stats.Shared())
}

func TestResolveSharedFailure(t *testing.T) {
	const callers = 10
	primary := blockingSource("server", nil, errors.New("boom"))
	fallback := &fakeSource{name: "mirror", err: errors.New("404")}
	cache := New(context.Background(), []Source{primary, fallback})

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = cache.Resolve(context.Background(), "router")
		}()
	}

	<-primary.started
	waitForLookups(t, cache, callers)
	close(primary.release)
	wg.Wait()

	assert.Equal(t, int64(1), primary.calls.Load())
	assert.Equal(t, int64(1), fallback.calls.Load())
	for _, err := range errs {
		assert.True(t, snaperrors.Is(err, snaperrors.ErrCodeIconUnavailable), "got %v", err)
	}
}

func TestResolveMemoizesSuccess(t *testing.T) {
	src := &fakeSource{name: "server", payload: []byte(testSVG)}
	cache := New(context.Background(), []Source{src})

	a1, err := cache.Resolve(context.Background(), "router")
	require.NoError(t, err)
	a2, err := cache.Resolve(context.Background(), "router")
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, int64(1), src.calls.Load())
	assert.Equal(t, int64(1), cache.Stats().Hits)
	assert.Equal(t, 1, cache.Len())
}

func TestResolveDoesNotMemoizeFailure(t *testing.T) {
	src := &fakeSource{name: "server", err: errors.New("unreachable")}
	cache := New(context.Background(), []Source{src})

	_, err := cache.Resolve(context.Background(), "router")
	require.Error(t, err)
	_, err = cache.Resolve(context.Background(), "router")
	require.Error(t, err)

	assert.Equal(t, int64(2), src.calls.Load(), "a failed symbol is fetched again")
	assert.Equal(t, int64(2), cache.Stats().Failures)
	assert.Equal(t, 0, cache.Len())

	src.err = nil
	src.payload = []byte(testSVG)
	_, err = cache.Resolve(context.Background(), "router")
	assert.NoError(t, err, "a later attempt may succeed")
}

func TestResolveFallbackOrder(t *testing.T) {
	first := &fakeSource{name: "server", payload: []byte("tiny")}
	second := &fakeSource{name: "local", err: ErrMiss}
	third := &fakeSource{name: "mirror", payload: []byte(testSVG)}
	unused := &fakeSource{name: "never", payload: []byte(testSVG)}
	cache := New(context.Background(), []Source{first, second, third, unused})

	a, err := cache.Resolve(context.Background(), "router")
	require.NoError(t, err)

	assert.Equal(t, "mirror", a.Source)
	assert.Equal(t, int64(0), unused.calls.Load(), "tiers after a hit are not consulted")
	assert.Equal(t, Resolution, a.Width)
	assert.Equal(t, Resolution/2, a.Height)
}

func TestResolveEmptySymbol(t *testing.T) {
	src := &fakeSource{name: "server", payload: []byte(testSVG)}
	cache := New(context.Background(), []Source{src})

	_, err := cache.Resolve(context.Background(), "")
	assert.True(t, snaperrors.Is(err, snaperrors.ErrCodeIconUnavailable))
	assert.Equal(t, int64(0), src.calls.Load())
}

func TestResolveCallerCancellation(t *testing.T) {
	src := blockingSource("server", []byte(testSVG), nil)
	cache := New(context.Background(), []Source{src})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.Resolve(ctx, "router")
		done <- err
	}()

	<-src.started
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller still blocked")
	}

	// The shared fetch continues on the run context and serves later callers.
	close(src.release)
	a, err := cache.Resolve(context.Background(), "router")
	require.NoError(t, err)
	assert.NotNil(t, a)
	assert.Equal(t, int64(1), src.calls.Load())
}

func TestResolveRunCancellationReleasesWaiters(t *testing.T) {
	runCtx, cancelRun := context.WithCancel(context.Background())
	src := blockingSource("server", []byte(testSVG), nil)
	next := &fakeSource{name: "mirror", payload: []byte(testSVG)}
	cache := New(runCtx, []Source{src, next})

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = cache.Resolve(context.Background(), "router")
		}()
	}

	<-src.started
	cancelRun()

	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("waiters hung after run cancellation")
	}

	for _, err := range errs {
		assert.True(t, snaperrors.Is(err, snaperrors.ErrCodeCancelled), "got %v", err)
	}
	assert.Equal(t, int64(0), next.calls.Load(), "no further tiers after cancellation")
}

func TestResolveDistinctSymbolsFetchIndependently(t *testing.T) {
	src := &fakeSource{name: "server", payload: []byte(testSVG)}
	cache := New(context.Background(), []Source{src})

	var wg sync.WaitGroup
	for _, s := range []string{"router", "switch", "cloud", "router", "switch"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Resolve(context.Background(), s)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, cache.Len())
	assert.LessOrEqual(t, src.calls.Load(), int64(3))
}
