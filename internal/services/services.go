package services

import (
	"context"

	"github.com/Craig-Turley/listsync/internal/mailchimp"
)

// Outcome records how far a mutating operation got before it returned.
// Nothing is rolled back across the two stores, so callers need to know
// whether the local write landed.
type Outcome int

const (
	// failed before anything was written
	OutcomeNoWrite Outcome = iota
	// the local store committed but the remote call failed
	OutcomeLocalOnly
	OutcomeSynced
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLocalOnly:
		return "local_only"
	case OutcomeSynced:
		return "synced"
	}
	return "no_write"
}

// Result is what a successful mutation hands back: the local view of the
// entity, or an empty view for removals.
type Result struct {
	Outcome Outcome
	View    map[string]any
}

// Remote is the part of the MailChimp client the sync layer calls.
type Remote interface {
	Post(ctx context.Context, path string, body any) (*mailchimp.Response, error)
	Patch(ctx context.Context, path string, body any) (*mailchimp.Response, error)
	Delete(ctx context.Context, path string) (*mailchimp.Response, error)
}
