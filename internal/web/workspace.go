package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"review-analyzer/internal/display"
	"review-analyzer/internal/submission"
	"review-analyzer/internal/uploads"
)

// WorkspaceCookie names the per-browser workspace.
const WorkspaceCookie = "workspace"

// Workspace is the in-memory state behind one browser: both workflows and
// the result board they feed.
type Workspace struct {
	ID         string
	Submission *submission.Workflow
	Upload     *uploads.Workflow
	Board      *display.Board

	mu       sync.Mutex
	lastSeen time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastSeen)
}

// WorkspaceFactory wires a new workspace's workflows. The board is created
// first so completion callbacks can append to it.
type WorkspaceFactory func(id string, board *display.Board) *Workspace

// Workspaces keeps workspaces by cookie id and forgets idle ones.
type Workspaces struct {
	mu      sync.Mutex
	items   map[string]*Workspace
	factory WorkspaceFactory
	ttl     time.Duration
	now     func() time.Time
}

func NewWorkspaces(factory WorkspaceFactory, ttl time.Duration) *Workspaces {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Workspaces{items: make(map[string]*Workspace), factory: factory, ttl: ttl, now: time.Now}
}

// Get returns the workspace for id, creating a fresh one (with a new id)
// when id is unknown or empty.
func (s *Workspaces) Get(id string) *Workspace {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if ws, ok := s.items[id]; ok && id != "" {
		ws.touch(now)
		return ws
	}
	id = uuid.NewString()
	ws := s.factory(id, display.NewBoard())
	ws.ID = id
	ws.touch(now)
	s.items[id] = ws
	return ws
}

// Sweep drops workspaces idle longer than the ttl and reports how many were
// removed.
func (s *Workspaces) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, ws := range s.items {
		if ws.idleSince(now) > s.ttl {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Remove forgets the workspace with id. Unknown ids are ignored.
func (s *Workspaces) Remove(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *Workspaces) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
