package imports

import (
	"context"
	"errors"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

var (
	// ErrNotFound is returned when no job has the requested id.
	ErrNotFound = &apperr.Error{Kind: apperr.KindNotFound, Op: "imports", Msg: "import job not found"}
	// ErrStale is returned by Update when the stored status no longer matches.
	ErrStale = errors.New("import job status changed concurrently")
)

// Repo persists import jobs.
type Repo interface {
	Create(ctx context.Context, job ImportJob) error
	GetByID(ctx context.Context, id string) (ImportJob, error)
	// Update overwrites the job when its stored status equals from.
	Update(ctx context.Context, job ImportJob, from Status) error
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}
