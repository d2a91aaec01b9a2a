package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	db Pinger
}

// NewService constructs a health service. db may be nil when the process
// runs on in-memory repositories.
func NewService(db Pinger) *Service {
	return &Service{db: db}
}

// Status reports overall health and the state of each dependency.
func (s *Service) Status(ctx context.Context) (bool, map[string]any) {
	out := map[string]any{"ok": true}
	if s == nil || s.db == nil {
		out["database"] = "memory"
		return true, out
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		out["ok"] = false
		out["database"] = "unreachable"
		return false, out
	}
	out["database"] = "up"
	return true, out
}
