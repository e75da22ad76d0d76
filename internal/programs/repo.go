package programs

import "context"

// Repo reads programs.
type Repo interface {
	GetByID(ctx context.Context, id string) (Program, error)
}
