package applier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/billyribeiro-ux/build-ops/internal/plan"
	"github.com/billyribeiro-ux/build-ops/internal/programs"
	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

// MemoryApplier records applied plans in memory. It backs the API when no
// database is configured.
type MemoryApplier struct {
	Programs *programs.MemoryRepo

	mu    sync.Mutex
	plans map[string][]plan.GeneratedPlan
}

// NewMemory constructs a MemoryApplier over repo.
func NewMemory(repo *programs.MemoryRepo) *MemoryApplier {
	return &MemoryApplier{Programs: repo, plans: make(map[string][]plan.GeneratedPlan)}
}

// Apply stores the program record and keeps p under its id.
func (m *MemoryApplier) Apply(ctx context.Context, p plan.GeneratedPlan, programID *string) (programs.Program, error) {
	if err := plan.Validate(p); err != nil {
		return programs.Program{}, apperr.Internal(op, "%s", err.Error())
	}
	now := time.Now().UTC()
	prog := programs.Program{
		ID:          uuid.NewString(),
		Title:       p.Program.Title,
		Description: p.Program.Description,
		TargetDays:  p.Program.EstimatedTotalDays,
		Status:      programs.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if programID != nil {
		existing, err := m.Programs.GetByID(ctx, *programID)
		if err != nil {
			return programs.Program{}, err
		}
		existing.Title = p.Program.Title
		existing.Description = p.Program.Description
		existing.UpdatedAt = now
		prog = existing
	}
	if err := m.Programs.Put(ctx, prog); err != nil {
		return programs.Program{}, err
	}

	m.mu.Lock()
	m.plans[prog.ID] = append(m.plans[prog.ID], p)
	m.mu.Unlock()
	return prog, nil
}

// Plans returns the plans applied to programID.
func (m *MemoryApplier) Plans(programID string) []plan.GeneratedPlan {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]plan.GeneratedPlan(nil), m.plans[programID]...)
}
