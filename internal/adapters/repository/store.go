// Package repository holds the application tracker: the applications created
// by right swipes and the passes recorded by left swipes.
package repository

import (
	"context"

	"github.com/okian/sparkapply/internal/domain/model"
)

// Store provides read/write access to the tracker state.
type Store interface {
	// Apply stores a new application. Empty id and status are filled in
	// (a fresh uuid and StatusSent).
	Apply(ctx context.Context, app model.Application) (model.Application, error)

	// Pass records that the user passed on a posting.
	Pass(ctx context.Context, jobID string) error

	// Get returns one application or ErrNotFound.
	Get(ctx context.Context, id string) (model.Application, error)

	// List returns applications newest first. An empty status lists all of them.
	List(ctx context.Context, status model.Status) ([]model.Application, error)

	// Advance moves an application to the next kanban column.
	Advance(ctx context.Context, id string, next model.Status) (model.Application, error)

	// Counts returns the number of applications per status.
	Counts(ctx context.Context) map[model.Status]int

	// Passes returns how many postings were passed on.
	Passes(ctx context.Context) int
}

// Snapshot is an immutable view of the tracker counters, republished on every write.
type Snapshot struct {
	ByStatus map[model.Status]int
	Total    int
	Passes   int
	PassedBy map[string]int // job id -> passes
}
