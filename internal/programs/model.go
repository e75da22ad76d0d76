package programs

import (
	"time"

	"github.com/billyribeiro-ux/build-ops/internal/shared/apperr"
)

const StatusActive = "active"

// Program is a curriculum owning modules and day plans.
type Program struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TargetDays  int       `json:"target_days"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrNotFound is returned when no program has the requested id.
var ErrNotFound = &apperr.Error{Kind: apperr.KindNotFound, Op: "programs", Msg: "program not found"}
