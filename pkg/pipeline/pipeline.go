// Package pipeline runs batches of thumbnail jobs.
//
// Each project id becomes one job that flows through the same stages:
//
//  1. Validate: reject ids that are unsafe as file names
//  2. Fetch: load the topology from the GNS3 server (per-job timeout)
//  3. Render: lay the topology out as a vector drawing
//  4. Rasterize: paint the drawing into a PNG
//  5. Write: store the PNG (and optional .svg/.dot artifacts) in a [Sink]
//
// A [Runner] executes jobs on a fixed number of workers and collects one
// [ThumbnailResult] per input id into a [BatchReport]. A failing job never
// affects the others, and a cancelled run still reports every id.
//
// # Usage
//
//	runner := pipeline.NewRunner(gns3Client, pipeline.NewFileSink("thumbnails"), logger)
//	runner.IconSources = []icons.Source{icons.NewServerSource(gns3Client), icons.NewMirrorSource("")}
//
//	report, err := runner.Run(ctx, []string{"p1", "p2"}, pipeline.Options{
//	    Workers: pipeline.Auto,
//	    Render:  render.NewConfig(render.WithIcons(true)),
//	})
//	fmt.Println(report.Succeeded(), report.Failed())
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/render"
	"github.com/WrongGitUsername/gns3-snapshot/pkg/topology"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// MaxWorkers caps the worker pool whatever the request.
	MaxWorkers = 50

	// AutoWorkersPerCPU is the pool size multiplier for Auto. Jobs spend most
	// of their time waiting on the network.
	AutoWorkersPerCPU = 4

	// DefaultJobTimeout bounds one job from fetch to write.
	DefaultJobTimeout = 2 * time.Minute
)

// Stage names reported to hooks and logs.
const (
	StageFetch     = "fetch"
	StageRender    = "render"
	StageRasterize = "rasterize"
	StageWrite     = "write"
)

// =============================================================================
// Workers
// =============================================================================

// Workers is the requested pool size. [Auto] sizes the pool from the CPU
// count.
type Workers int

// Auto requests NumCPU * AutoWorkersPerCPU workers.
const Auto Workers = 0

// ParseWorkers parses "auto" or a positive integer.
func ParseWorkers(s string) (Workers, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "auto" {
		return Auto, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, snaperrors.New(snaperrors.ErrCodeInvalidConfig, "workers must be \"auto\" or a positive integer, got %q", s)
	}
	return Workers(n), nil
}

// String returns "auto" or the count.
func (w Workers) String() string {
	if w == Auto {
		return "auto"
	}
	return strconv.Itoa(int(w))
}

// Resolve returns the number of goroutines to start for jobs jobs: the
// request (or the Auto size) clamped to [1, MaxWorkers] and to the job count.
// It returns 0 only when there are no jobs.
func (w Workers) Resolve(jobs int) int {
	if jobs <= 0 {
		return 0
	}
	n := int(w)
	if w == Auto {
		n = runtime.NumCPU() * AutoWorkersPerCPU
	}
	return max(1, min(n, MaxWorkers, jobs))
}

// MarshalText implements encoding.TextMarshaler.
func (w Workers) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText accepts "auto" or an integer.
func (w *Workers) UnmarshalText(b []byte) error {
	v, err := ParseWorkers(string(b))
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// UnmarshalJSON accepts "auto", a quoted integer or a bare integer.
func (w *Workers) UnmarshalJSON(b []byte) error {
	return w.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// MarshalJSON writes "auto" or a number.
func (w Workers) MarshalJSON() ([]byte, error) {
	if w == Auto {
		return []byte(`"auto"`), nil
	}
	return []byte(strconv.Itoa(int(w))), nil
}

// =============================================================================
// Options
// =============================================================================

// Progress is passed to [Options.OnProgress] after each job.
type Progress struct {
	Done   int
	Total  int
	Result ThumbnailResult
}

// Options configures one batch run.
type Options struct {
	Workers    Workers
	Render     render.Config
	JobTimeout time.Duration

	// SaveSVG and SaveDOT store debug artifacts next to the PNG.
	SaveSVG bool
	SaveDOT bool

	// OnProgress is called once per finished job, possibly from several
	// goroutines at once. It must not block for long.
	OnProgress func(Progress)

	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	o.Render.SetDefaults()
	if o.JobTimeout == 0 {
		o.JobTimeout = DefaultJobTimeout
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if o.Workers < 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "workers must not be negative, got %d", o.Workers)
	}
	if o.JobTimeout < 0 {
		return snaperrors.New(snaperrors.ErrCodeInvalidConfig, "job timeout must not be negative, got %s", o.JobTimeout)
	}
	if err := o.Render.Validate(); err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	return nil
}

// TopologyFetcher loads a project's topology. *gns3.Client implements it.
type TopologyFetcher interface {
	FetchTopology(ctx context.Context, projectID string) (*topology.Topology, error)
}
