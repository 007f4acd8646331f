package harvest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State is an orchestrator state.
type State string

// Orchestrator states, in run order.
const (
	StateCheckConnectivity  State = "CHECK_CONNECTIVITY"
	StateDeletePrior        State = "DELETE_PRIOR"
	StateHarvestRoot        State = "HARVEST_ROOT"
	StateHarvestCollections State = "HARVEST_COLLECTIONS"
	StateHarvestItems       State = "HARVEST_ITEMS"
	StatePublishRunLog      State = "PUBLISH_RUNLOG"
	StateSweepOrphans       State = "SWEEP_ORPHANS"
	StateDone               State = "DONE"
	StateAbort              State = "ABORT"
)

// Kind is the kind of thing a result refers to.
type Kind string

// Result kinds.
const (
	KindCatalog    Kind = "catalog"
	KindRoot       Kind = "root"
	KindCollection Kind = "collection"
	KindItem       Kind = "item"
	KindPage       Kind = "page"
	KindRunLog     Kind = "runlog"
	KindPrior      Kind = "prior"
	KindOrphan     Kind = "orphan"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
	OutcomeAborted = "aborted"
)

// Result is one failed unit of work.
type Result struct {
	Kind  Kind   `json:"kind"`
	ID    string `json:"id,omitempty"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Counts tallies the entities of one kind.
type Counts struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// Report summarizes one run.
type Report struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	State      State           `json:"state"`
	Outcome    string          `json:"outcome"`
	Abort      string          `json:"abort,omitempty"`
	Deleted    int             `json:"deleted"`
	Swept      int             `json:"swept"`
	Published  int             `json:"published"`
	Entities   map[Kind]Counts `json:"entities"`
	// ItemsTruncated is set when item pagination ended on an error.
	ItemsTruncated bool `json:"items_truncated"`
	// RunLogWritten is false when the new run log could not be stored.
	RunLogWritten bool     `json:"runlog_written"`
	Failures      []Result `json:"failures"`
}

func newReport(runID string, startedAt time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: startedAt,
		State:     StateCheckConnectivity,
		Entities:  make(map[Kind]Counts),
		Failures:  []Result{},
	}
}

func (r *Report) published(kind Kind) {
	c := r.Entities[kind]
	c.Published++
	r.Entities[kind] = c
	r.Published++
}

func (r *Report) fail(kind Kind, id, key string, err error) {
	switch kind {
	case KindRoot, KindCollection, KindItem:
		c := r.Entities[kind]
		c.Failed++
		r.Entities[kind] = c
	}
	r.Failures = append(r.Failures, Result{Kind: kind, ID: id, Key: key, Error: err.Error(), Err: err})
}

func (r *Report) abort(kind Kind, err error) {
	r.State = StateAbort
	r.Abort = err.Error()
	r.Failures = append(r.Failures, Result{Kind: kind, Error: err.Error(), Err: err})
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
	if r.State != StateAbort {
		r.State = StateDone
	}
	r.Outcome = r.outcome()
}

func (r *Report) outcome() string {
	switch {
	case r.State == StateAbort:
		return OutcomeAborted
	case !r.RunLogWritten:
		return OutcomeFailed
	case errors.Is(r.Err(), ErrPaginationAborted):
		return OutcomeFailed
	case len(r.Failures) > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// Aborted reports whether the run stopped before touching the output store.
func (r *Report) Aborted() bool {
	return r.State == StateAbort
}

// Failed reports whether the run must be treated as unsuccessful.
func (r *Report) Failed() bool {
	return r.Outcome == OutcomeAborted || r.Outcome == OutcomeFailed
}

// Duration returns the run wall time.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Err joins every recorded failure, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Message is the human-readable account of the run.
func (r *Report) Message() string {
	var b strings.Builder

	if r.Aborted() {
		fmt.Fprintf(&b, "Run %s aborted: %s", r.RunID, r.Abort)
		return b.String()
	}

	fmt.Fprintf(&b, "Run %s finished (%s): published %d objects (root %d, collections %d, items %d), deleted %d prior objects",
		r.RunID,
		r.Outcome,
		r.Published,
		r.Entities[KindRoot].Published,
		r.Entities[KindCollection].Published,
		r.Entities[KindItem].Published,
		r.Deleted,
	)
	if r.Swept > 0 {
		fmt.Fprintf(&b, ", swept %d orphans", r.Swept)
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&b, ", %d failures:", len(r.Failures))
		for _, f := range r.Failures {
			b.WriteString("\n  ")
			b.WriteString(string(f.Kind))
			if f.ID != "" {
				b.WriteString(" " + f.ID)
			}
			b.WriteString(": " + f.Error)
		}
	}

	return b.String()
}
