package harvest

import (
	"context"
	"sync"
)

// Harvester runs one harvest.
type Harvester interface {
	Run(ctx context.Context) (*Report, error)
}

// Runner serializes runs inside one process and remembers the latest report.
// It is shared by the scheduler and the status API.
type Runner struct {
	harvester Harvester

	mu      sync.Mutex
	running bool
	latest  *Report
}

// NewRunner creates a Runner.
func NewRunner(h Harvester) *Runner {
	return &Runner{harvester: h}
}

// Run performs a harvest in the calling goroutine. It returns
// ErrRunInProgress when another run is active.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if !r.begin() {
		return nil, ErrRunInProgress
	}

	report, err := r.harvester.Run(ctx)
	r.end(report)

	return report, err
}

// Start launches a harvest in the background and calls done, if set, with
// its result. It returns ErrRunInProgress when another run is active.
func (r *Runner) Start(ctx context.Context, done func(*Report, error)) error {
	if !r.begin() {
		return ErrRunInProgress
	}

	go func() {
		report, err := r.harvester.Run(ctx)
		r.end(report)
		if done != nil {
			done(report, err)
		}
	}()

	return nil
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) end(report *Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if report != nil {
		r.latest = report
	}
}

// Running reports whether a harvest is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Latest returns the report of the last completed run, or nil.
func (r *Runner) Latest() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}
