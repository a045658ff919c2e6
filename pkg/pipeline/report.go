package pipeline

import (
	"encoding/json"
	"sync"
	"time"

	snaperrors "github.com/WrongGitUsername/gns3-snapshot/pkg/errors"
)

// ThumbnailResult is the outcome of one job.
type ThumbnailResult struct {
	ProjectID string          `json:"project_id"`
	Success   bool            `json:"success"`
	Path      string          `json:"path,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Code      snaperrors.Code `json:"code,omitempty"`
	Duration  time.Duration   `json:"duration_ns"`

	// IconFallbacks counts nodes drawn as shapes because their icon was
	// unavailable.
	IconFallbacks int `json:"icon_fallbacks,omitempty"`
}

// BatchReport holds one result per input id, in completion order.
type BatchReport struct {
	RunID   string
	Workers int
	Elapsed time.Duration
	Results []ThumbnailResult
}

// Succeeded returns the ids of successful jobs in completion order.
func (r *BatchReport) Succeeded() []string {
	return r.ids(true)
}

// Failed returns the ids of failed jobs in completion order.
func (r *BatchReport) Failed() []string {
	return r.ids(false)
}

func (r *BatchReport) ids(success bool) []string {
	out := []string{}
	for _, res := range r.Results {
		if res.Success == success {
			out = append(out, res.ProjectID)
		}
	}
	return out
}

// Paths maps each successful id to its output path. For an id submitted more
// than once the last completed job wins.
func (r *BatchReport) Paths() map[string]string {
	out := make(map[string]string)
	for _, res := range r.Results {
		if res.Success {
			out[res.ProjectID] = res.Path
		}
	}
	return out
}

// OK reports whether every job succeeded.
func (r *BatchReport) OK() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// Throughput returns finished jobs per second.
func (r *BatchReport) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(len(r.Results)) / r.Elapsed.Seconds()
}

type reportJSON struct {
	RunID     string            `json:"run_id"`
	Success   []string          `json:"success"`
	Failed    []string          `json:"failed"`
	Paths     map[string]string `json:"paths"`
	Results   []ThumbnailResult `json:"results"`
	Workers   int               `json:"workers"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

// MarshalJSON writes the report with its derived views.
func (r *BatchReport) MarshalJSON() ([]byte, error) {
	results := r.Results
	if results == nil {
		results = []ThumbnailResult{}
	}
	return json.Marshal(reportJSON{
		RunID:     r.RunID,
		Success:   r.Succeeded(),
		Failed:    r.Failed(),
		Paths:     r.Paths(),
		Results:   results,
		Workers:   r.Workers,
		ElapsedMS: r.Elapsed.Milliseconds(),
	})
}

// UnmarshalJSON reads a report written by MarshalJSON. Derived views are
// recomputed from results.
func (r *BatchReport) UnmarshalJSON(b []byte) error {
	var raw reportJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*r = BatchReport{
		RunID:   raw.RunID,
		Workers: raw.Workers,
		Elapsed: time.Duration(raw.ElapsedMS) * time.Millisecond,
		Results: raw.Results,
	}
	return nil
}

// collector aggregates results from concurrent workers.
type collector struct {
	mu       sync.Mutex
	report   *BatchReport
	total    int
	progress func(Progress)
}

func newCollector(report *BatchReport, total int, progress func(Progress)) *collector {
	report.Results = make([]ThumbnailResult, 0, total)
	return &collector{report: report, total: total, progress: progress}
}

func (c *collector) add(res ThumbnailResult) {
	c.mu.Lock()
	c.report.Results = append(c.report.Results, res)
	done := len(c.report.Results)
	c.mu.Unlock()

	if c.progress != nil {
		c.progress(Progress{Done: done, Total: c.total, Result: res})
	}
}
