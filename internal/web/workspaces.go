package web

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"trading-journal/internal/repository"
	"trading-journal/internal/workspace"
)

// Workspaces holds one open workspace per signed-in session.
type Workspaces struct {
	repo repository.Repository
	log  *zap.Logger

	mu    sync.Mutex
	byKey map[string]*workspace.Workspace
}

// NewWorkspaces creates an empty registry.
func NewWorkspaces(repo repository.Repository, log *zap.Logger) *Workspaces {
	return &Workspaces{repo: repo, log: log, byKey: make(map[string]*workspace.Workspace)}
}

// Get returns the session's workspace, opening it on first use.
func (w *Workspaces) Get(ctx context.Context, sessionID, ownerID string) (*workspace.Workspace, error) {
	w.mu.Lock()
	ws, ok := w.byKey[sessionID]
	w.mu.Unlock()
	if ok {
		return ws, nil
	}

	opened, err := workspace.Open(ctx, w.repo, ownerID, w.log)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.byKey[sessionID]; ok {
		// Lost a race with a concurrent request of the same session.
		opened.Close()
		return existing, nil
	}
	w.byKey[sessionID] = opened
	return opened, nil
}

// Close releases the session's workspace, if any.
func (w *Workspaces) Close(sessionID string) {
	w.mu.Lock()
	ws, ok := w.byKey[sessionID]
	delete(w.byKey, sessionID)
	w.mu.Unlock()
	if ok {
		ws.Close()
	}
}

// Sweep closes the workspaces whose session is no longer alive and
// returns how many were closed.
func (w *Workspaces) Sweep(alive func(sessionID string) bool) int {
	w.mu.Lock()
	var dead []*workspace.Workspace
	for id, ws := range w.byKey {
		if !alive(id) {
			dead = append(dead, ws)
			delete(w.byKey, id)
		}
	}
	w.mu.Unlock()

	for _, ws := range dead {
		ws.Close()
	}
	return len(dead)
}

// Len returns the number of open workspaces.
func (w *Workspaces) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.byKey)
}

// CloseAll releases every workspace.
func (w *Workspaces) CloseAll() {
	w.Sweep(func(string) bool { return false })
}
