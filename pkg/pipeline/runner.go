package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/icons"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/observability"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render/nodelink"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render/raster"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// Runner executes batches of thumbnail jobs.
//
// The Runner holds no per-run state: every Run gets its own icon cache, so
// one Runner can serve concurrent runs (the HTTP API does this).
type Runner struct {
	Fetcher TopologyFetcher
	Sink    Sink

	// IconSources is the ordered icon lookup chain. It is only consulted when
	// the render config enables icons.
	IconSources []icons.Source

	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(fetcher TopologyFetcher, sink Sink, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{Fetcher: fetcher, Sink: sink, Logger: logger}
}

// Run renders one thumbnail per id and returns the complete report: exactly
// one result per input occurrence, duplicates included. If ctx is cancelled,
// jobs that have not started are reported as CANCELLED failures. The error is
// non-nil only for invalid options.
func (r *Runner) Run(ctx context.Context, projectIDs []string, opts Options) (*BatchReport, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if r.Fetcher == nil || r.Sink == nil {
		return nil, snaperrors.New(snaperrors.ErrCodeInvalidConfig, "runner needs a topology fetcher and a sink")
	}

	start := time.Now()
	report := &BatchReport{RunID: uuid.NewString(), Workers: opts.Workers.Resolve(len(projectIDs))}
	logger := opts.Logger.With("run", report.RunID)
	hooks := observability.Batch()

	if opts.Workers == Auto && len(projectIDs) > 0 {
		logger.Info("auto-detected workers", "workers", report.Workers, "jobs", len(projectIDs))
	}
	hooks.OnBatchStart(ctx, report.RunID, len(projectIDs), report.Workers)

	var resolver icons.Resolver
	if opts.Render.UseIcons && len(r.IconSources) > 0 {
		resolver = icons.New(ctx, r.IconSources,
			icons.WithLogger(logger),
			icons.WithResolution(max(icons.Resolution, opts.Render.NodeSize)))
	}

	jobs := make(chan string, len(projectIDs))
	for _, id := range projectIDs {
		jobs <- id
	}
	close(jobs)

	col := newCollector(report, len(projectIDs), opts.OnProgress)
	var wg sync.WaitGroup
	for range report.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := ctx.Err(); err != nil {
					col.add(failed(id, snaperrors.Cancelled(err, "job not started"), 0))
					continue
				}
				col.add(r.runJob(ctx, id, resolver, opts, logger))
			}
		}()
	}
	wg.Wait()

	report.Elapsed = time.Since(start)
	succeeded, failedCount := len(report.Succeeded()), len(report.Failed())
	hooks.OnBatchComplete(ctx, report.RunID, succeeded, failedCount, report.Elapsed)

	if c, ok := resolver.(*icons.Cache); ok {
		st := c.Stats()
		logger.Debug("icon cache", "symbols", c.Len(), "hits", st.Hits, "fetches", st.Fetches,
			"shared", st.Shared(), "failures", st.Failures)
	}
	logger.Info("batch complete",
		"succeeded", succeeded,
		"failed", failedCount,
		"duration", report.Elapsed.Round(time.Millisecond),
		"throughput", fmt.Sprintf("%.2f/s", report.Throughput()))
	return report, nil
}

// runJob executes one job. It never panics the worker: every failure becomes
// a result.
func (r *Runner) runJob(ctx context.Context, projectID string, resolver icons.Resolver, opts Options, logger *log.Logger) (res ThumbnailResult) {
	start := time.Now()
	logger = logger.With("project", projectID)
	hooks := observability.Batch()
	hooks.OnJobStart(ctx, projectID)

	defer func() {
		if p := recover(); p != nil {
			res = failed(projectID, snaperrors.New(snaperrors.ErrCodeInternal, "panic: %v", p), time.Since(start))
		}
		hooks.OnJobComplete(ctx, projectID, string(res.Code), res.Duration)
		if res.Success {
			logger.Debug("thumbnail written", "path", res.Path, "duration", res.Duration.Round(time.Millisecond))
		} else {
			logger.Warn("thumbnail failed", "code", res.Code, "reason", res.Reason)
		}
	}()

	if err := snaperrors.ValidateProjectID(projectID); err != nil {
		return failed(projectID, err, time.Since(start))
	}

	jobCtx, cancel := context.WithTimeout(ctx, opts.JobTimeout)
	defer cancel()

	var topo *topology.Topology
	err := stage(jobCtx, StageFetch, func() (err error) {
		topo, err = r.Fetcher.FetchTopology(jobCtx, projectID)
		return err
	})
	if err != nil {
		return failed(projectID, classify(ctx, err, snaperrors.ErrCodeFetch, "fetch topology"), time.Since(start))
	}
	logger.Debug("fetched topology", "nodes", len(topo.Nodes), "links", len(topo.Links))

	var drawing *render.Drawing
	err = stage(jobCtx, StageRender, func() (err error) {
		drawing, err = render.Render(jobCtx, topo, resolver, opts.Render)
		return err
	})
	if err != nil {
		return failed(projectID, classify(ctx, err, snaperrors.ErrCodeRender, "render"), time.Since(start))
	}

	var png []byte
	err = stage(jobCtx, StageRasterize, func() (err error) {
		png, err = raster.Rasterize(drawing, opts.Render.Width, opts.Render.Height)
		return err
	})
	if err != nil {
		return failed(projectID, classify(ctx, err, snaperrors.ErrCodeRender, "rasterize"), time.Since(start))
	}

	var path string
	err = stage(jobCtx, StageWrite, func() (err error) {
		path, err = r.Sink.Put(jobCtx, projectID+".png", png, ContentTypePNG)
		return err
	})
	if err != nil {
		return failed(projectID, classify(ctx, err, snaperrors.ErrCodeWrite, "write thumbnail"), time.Since(start))
	}

	r.writeArtifacts(jobCtx, projectID, topo, drawing, opts, logger)

	return ThumbnailResult{
		ProjectID:     projectID,
		Success:       true,
		Path:          path,
		Duration:      time.Since(start),
		IconFallbacks: drawing.IconFallbacks,
	}
}

// writeArtifacts stores the optional debug outputs. Failures are logged and
// do not fail the job.
func (r *Runner) writeArtifacts(ctx context.Context, projectID string, topo *topology.Topology, d *render.Drawing, opts Options, logger *log.Logger) {
	if opts.SaveSVG {
		if _, err := r.Sink.Put(ctx, projectID+".svg", d.SVG(), ContentTypeSVG); err != nil {
			logger.Warn("svg artifact not written", "err", err)
		}
	}
	if opts.SaveDOT {
		dot := nodelink.ToDOT(topo, nodelink.Options{
			NodeSize:   opts.Render.NodeSize,
			PortLabels: opts.Render.ShowInterfaceLabels,
		})
		if err := nodelink.Validate(ctx, dot); err != nil {
			logger.Warn("dot artifact invalid", "err", err)
			return
		}
		if _, err := r.Sink.Put(ctx, projectID+".dot", []byte(dot), ContentTypeDOT); err != nil {
			logger.Warn("dot artifact not written", "err", err)
		}
	}
}

// stage runs fn and reports its duration to the batch hooks.
func stage(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	observability.Batch().OnStage(ctx, name, time.Since(start), err)
	return err
}

// classify gives err a code. Run cancellation always reads as CANCELLED;
// errors without a code get fallback.
func classify(runCtx context.Context, err error, fallback snaperrors.Code, what string) error {
	if runCtx.Err() != nil {
		return snaperrors.Cancelled(runCtx.Err(), "%s", what)
	}
	if snaperrors.GetCode(err) != "" {
		return err
	}
	return snaperrors.Wrap(fallback, err, "%s", what)
}

func failed(projectID string, err error, d time.Duration) ThumbnailResult {
	code := snaperrors.GetCode(err)
	if code == "" {
		code = snaperrors.ErrCodeInternal
	}
	return ThumbnailResult{
		ProjectID: projectID,
		Code:      code,
		Reason:    snaperrors.UserMessage(err),
		Duration:  d,
	}
}
