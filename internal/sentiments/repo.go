package sentiments

import "context"

// DefaultListLimit caps ListByUser when the caller passes no limit.
const DefaultListLimit = 50

// Repo is the database gateway for analysis records. Reads and deletes are
// always scoped to the owning user.
type Repo interface {
	Insert(ctx context.Context, rec Record) (Record, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Record, error)
	GetByID(ctx context.Context, userID, id string) (Record, error)
	Delete(ctx context.Context, userID, id string) error
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultListLimit
	}
	return limit
}
