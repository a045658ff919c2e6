package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/icons"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

func twoNodeTopology(id string) *topology.Topology {
	return &topology.Topology{
		ProjectID: id,
		Name:      "lab " + id,
		Nodes: []topology.Node{
			{ID: "r1", Label: "R1", X: 0, Y: 0, Kind: "dynamips", Symbol: ":/symbols/router.svg"},
			{ID: "sw1", Label: "SW1", X: 100, Y: 0, Kind: "ethernet_switch", Symbol: ":/symbols/ethernet_switch.svg"},
		},
		Links: []topology.Link{{
			ID: "l1",
			A:  topology.Endpoint{NodeID: "r1", Label: "f0/0"},
			B:  topology.Endpoint{NodeID: "sw1", Label: "e0"},
		}},
	}
}

// fakeFetcher serves twoNodeTopology for every id except those in fail.
// block makes fetches wait for the context.
type fakeFetcher struct {
	fail    map[string]error
	block   bool
	started chan string
	calls   atomic.Int64
}

func (f *fakeFetcher) FetchTopology(ctx context.Context, id string) (*topology.Topology, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- id
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	return twoNodeTopology(id), nil
}

// memSink records outputs in memory.
type memSink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemSink() *memSink { return &memSink{files: map[string][]byte{}} }

func (s *memSink) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.files[name] = data
	return "mem://" + name, nil
}

func smallRender() render.Config {
	return render.NewConfig(render.WithSize(400, 300))
}

func TestRunReportIsComplete(t *testing.T) {
	inputs := [][]string{
		nil,
		{"p1"},
		{"p1", "p2", "p3"},
		{"p1", "p1", "p2", "p1"},
		{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"},
	}
	for _, ids := range inputs {
		for _, workers := range []Workers{1, 3, 50, Auto} {
			t.Run(fmt.Sprintf("%d ids/%s workers", len(ids), workers), func(t *testing.T) {
				runner := NewRunner(&fakeFetcher{fail: map[string]error{"c": errors.New("boom")}}, newMemSink(), nil)
				report, err := runner.Run(context.Background(), ids, Options{Workers: workers, Render: smallRender()})
				require.NoError(t, err)

				require.Len(t, report.Results, len(ids))
				got := append(report.Succeeded(), report.Failed()...)
				assert.ElementsMatch(t, ids, got)
				for _, id := range report.Failed() {
					assert.NotContains(t, report.Succeeded(), id)
				}
			})
		}
	}
}

func TestRunDuplicatesAreIndependent(t *testing.T) {
	fetcher := &fakeFetcher{}
	runner := NewRunner(fetcher, newMemSink(), nil)
	report, err := runner.Run(context.Background(), []string{"p1", "p1"}, Options{Workers: 1, Render: smallRender()})
	require.NoError(t, err)

	assert.Equal(t, []string{"p1", "p1"}, report.Succeeded())
	assert.Equal(t, int64(2), fetcher.calls.Load())
	assert.Equal(t, map[string]string{"p1": "mem://p1.png"}, report.Paths())
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	runner := NewRunner(&fakeFetcher{}, NewFileSink(dir), nil)

	report, err := runner.Run(context.Background(), []string{"p1"}, Options{Workers: 1, Render: smallRender()})
	require.NoError(t, err)
	require.True(t, report.OK())

	want := filepath.Join(dir, "p1.png")
	assert.Equal(t, []string{"p1"}, report.Succeeded())
	assert.Equal(t, want, report.Paths()["p1"])

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())

	// The router and the switch get different fills.
	r1 := img.At(70, 150)
	sw := img.At(330, 150)
	assert.NotEqual(t, r1, sw)
}

func TestRunFailureIsolation(t *testing.T) {
	dir := t.TempDir()
	fetcher := &fakeFetcher{fail: map[string]error{
		"p2": snaperrors.Wrap(snaperrors.ErrCodeFetch, errors.New("connection refused"), "fetch project p2"),
	}}
	runner := NewRunner(fetcher, NewFileSink(dir), nil)

	report, err := runner.Run(context.Background(), []string{"p1", "p2", "p3"}, Options{Workers: 3, Render: smallRender()})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"p1", "p3"}, report.Succeeded())
	assert.Equal(t, []string{"p2"}, report.Failed())
	assert.False(t, report.OK())

	for _, res := range report.Results {
		if res.ProjectID == "p2" {
			assert.Equal(t, snaperrors.ErrCodeFetch, res.Code)
			assert.Contains(t, res.Reason, "connection refused")
			assert.Empty(t, res.Path)
		}
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"p1.png", "p3.png"}, names)
}

func TestRunRejectsUnsafeIDs(t *testing.T) {
	fetcher := &fakeFetcher{}
	runner := NewRunner(fetcher, newMemSink(), nil)
	report, err := runner.Run(context.Background(), []string{"../etc", "", "ok"}, Options{Render: smallRender()})
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, report.Succeeded())
	assert.Len(t, report.Failed(), 2)
	for _, res := range report.Results {
		if !res.Success {
			assert.Equal(t, snaperrors.ErrCodeInvalidInput, res.Code)
		}
	}
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestRunCancellation(t *testing.T) {
	fetcher := &fakeFetcher{block: true, started: make(chan string, 10)}
	runner := NewRunner(fetcher, newMemSink(), nil)
	ids := []string{"p1", "p2", "p3", "p4", "p5"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan *BatchReport)
	go func() {
		report, err := runner.Run(ctx, ids, Options{Workers: 1, Render: smallRender()})
		assert.NoError(t, err)
		done <- report
	}()

	<-fetcher.started
	cancel()

	select {
	case report := <-done:
		require.Len(t, report.Results, len(ids))
		assert.Empty(t, report.Succeeded())
		for _, res := range report.Results {
			assert.Equal(t, snaperrors.ErrCodeCancelled, res.Code, res.ProjectID)
		}
		assert.Equal(t, int64(1), fetcher.calls.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunJobTimeout(t *testing.T) {
	runner := NewRunner(&fakeFetcher{block: true}, newMemSink(), nil)
	report, err := runner.Run(context.Background(), []string{"slow"}, Options{
		Workers:    1,
		JobTimeout: 20 * time.Millisecond,
		Render:     smallRender(),
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, snaperrors.ErrCodeFetch, report.Results[0].Code)
}

func TestRunWriteFailure(t *testing.T) {
	sink := newMemSink()
	sink.err = errors.New("disk full")
	runner := NewRunner(&fakeFetcher{}, sink, nil)

	report, err := runner.Run(context.Background(), []string{"p1"}, Options{Render: smallRender()})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.Equal(t, snaperrors.ErrCodeWrite, report.Results[0].Code)
	assert.Contains(t, report.Results[0].Reason, "disk full")
}

func TestRunArtifacts(t *testing.T) {
	sink := newMemSink()
	runner := NewRunner(&fakeFetcher{}, sink, nil)
	_, err := runner.Run(context.Background(), []string{"p1"}, Options{
		Render:  smallRender(),
		SaveSVG: true,
		SaveDOT: true,
	})
	require.NoError(t, err)

	require.Contains(t, sink.files, "p1.svg")
	require.Contains(t, sink.files, "p1.dot")
	assert.Contains(t, string(sink.files["p1.svg"]), "<svg")
	assert.Contains(t, string(sink.files["p1.dot"]), `"r1" -- "sw1"`)
}

func TestRunProgress(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	runner := NewRunner(&fakeFetcher{}, newMemSink(), nil)
	ids := []string{"a", "b", "c", "d"}

	_, err := runner.Run(context.Background(), ids, Options{
		Workers: 2,
		Render:  smallRender(),
		OnProgress: func(p Progress) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, len(ids), p.Total)
			seen = append(seen, p.Done)
		},
	})
	require.NoError(t, err)

	slices.Sort(seen)
	assert.Equal(t, []int{1, 2, 3, 4}, seen)
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="20" height="20" viewBox="0 0 20 20">` +
	`<rect x="0" y="0" width="20" height="20" fill="#ff0000"/></svg>`

type countingSource struct {
	calls atomic.Int64
}

func (s *countingSource) Name() string { return "counting" }

func (s *countingSource) Fetch(_ context.Context, symbol string) ([]byte, error) {
	s.calls.Add(1)
	if symbol == ":/symbols/router.svg" {
		return []byte(testSVG), nil
	}
	return nil, icons.ErrMiss
}

func TestRunSharesIconsAcrossJobs(t *testing.T) {
	src := &countingSource{}
	runner := NewRunner(&fakeFetcher{}, newMemSink(), nil)
	runner.IconSources = []icons.Source{src}

	ids := make([]string, 20)
	for i := range ids {
		ids[i] = fmt.Sprintf("p%d", i)
	}
	cfg := smallRender()
	cfg.UseIcons = true

	report, err := runner.Run(context.Background(), ids, Options{Workers: 8, Render: cfg})
	require.NoError(t, err)
	require.True(t, report.OK())

	// The router icon is fetched once; the switch icon misses and, since
	// failures are not memoized, may be retried by later jobs.
	assert.GreaterOrEqual(t, src.calls.Load(), int64(2))
	assert.LessOrEqual(t, src.calls.Load(), int64(1+len(ids)))
	for _, res := range report.Results {
		assert.Equal(t, 1, res.IconFallbacks)
	}
}

type recordingHooks struct {
	observability.NoopBatchHooks
	mu        sync.Mutex
	completed map[string]string
	stages    map[string]int
	batches   int
}

func (h *recordingHooks) OnJobComplete(_ context.Context, id, code string, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completed[id] = code
}

func (h *recordingHooks) OnStage(_ context.Context, stage string, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stages[stage]++
}

func (h *recordingHooks) OnBatchComplete(context.Context, string, int, int, time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches++
}

func TestRunEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{completed: map[string]string{}, stages: map[string]int{}}
	observability.SetBatchHooks(hooks)
	t.Cleanup(observability.Reset)

	fetcher := &fakeFetcher{fail: map[string]error{"bad": errors.New("nope")}}
	runner := NewRunner(fetcher, newMemSink(), nil)
	_, err := runner.Run(context.Background(), []string{"good", "bad"}, Options{Render: smallRender()})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"good": "", "bad": "FETCH_ERROR"}, hooks.completed)
	assert.Equal(t, 2, hooks.stages[StageFetch])
	assert.Equal(t, 1, hooks.stages[StageWrite])
	assert.Equal(t, 1, hooks.batches)
}

func TestRunRequiresFetcherAndSink(t *testing.T) {
	_, err := (&Runner{}).Run(context.Background(), []string{"p1"}, Options{})
	assert.True(t, snaperrors.Is(err, snaperrors.ErrCodeInvalidConfig))
}
