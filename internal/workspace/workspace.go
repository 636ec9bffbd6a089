// Package workspace keeps a signed-in owner's trades cached and fresh.
//
// A Workspace loads the owner's trades once, subscribes to change
// notifications and reloads the whole list on each one. Reloads are
// numbered; a result only replaces the cache if no newer reload has been
// applied already, so the most recently issued refresh always wins.
package workspace

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"trading-journal/internal/journal"
	"trading-journal/internal/metrics"
	"trading-journal/internal/models"
	"trading-journal/internal/repository"
)

// ErrClosed is returned by Reload after Close.
var ErrClosed = errors.New("workspace closed")

const reloadTimeout = 30 * time.Second

// Workspace is safe for concurrent use.
type Workspace struct {
	repo    repository.Repository
	ownerID string
	log     *zap.Logger

	mu          sync.RWMutex
	trades      []models.Trade
	issued      uint64
	applied     uint64
	loadedAt    time.Time
	closed      bool
	unsubscribe func()
	listeners   map[int]func()
	nextID      int
	wg          sync.WaitGroup
}

// Open loads the owner's trades and starts listening for changes.
func Open(ctx context.Context, repo repository.Repository, ownerID string, log *zap.Logger) (*Workspace, error) {
	w := &Workspace{
		repo:      repo,
		ownerID:   ownerID,
		log:       log.Named("workspace").With(zap.String("owner_id", ownerID)),
		listeners: make(map[int]func()),
	}
	if err := w.Reload(ctx); err != nil {
		return nil, err
	}
	w.unsubscribe = repo.SubscribeToChanges(ownerID, w.onChange)
	metrics.WorkspaceOpened()
	return w, nil
}

// onChange runs on the broker's delivery path and must not block.
func (w *Workspace) onChange() {
	w.mu.RLock()
	closed := w.closed
	w.mu.RUnlock()
	if closed {
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		if err := w.Reload(ctx); err != nil && !errors.Is(err, ErrClosed) {
			w.log.Warn("Failed to reload trades after change", zap.Error(err))
		}
	}()
}

// Reload fetches the full trade list. A result is discarded if a newer
// reload has already been applied or the workspace was closed meanwhile.
func (w *Workspace) Reload(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.issued++
	seq := w.issued
	w.mu.Unlock()

	trades, err := w.repo.ListTrades(ctx, w.ownerID)
	if err != nil {
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if seq < w.applied {
		w.mu.Unlock()
		w.log.Debug("Discarding stale reload", zap.Uint64("seq", seq), zap.Uint64("applied", w.applied))
		return nil
	}
	w.trades = trades
	w.applied = seq
	w.loadedAt = time.Now()
	listeners := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		listeners = append(listeners, fn)
	}
	w.mu.Unlock()

	w.log.Debug("Trades reloaded", zap.Uint64("seq", seq), zap.Int("trades", len(trades)))
	for _, fn := range listeners {
		fn()
	}
	return nil
}

// OnRefresh registers fn to run after every applied reload.
func (w *Workspace) OnRefresh(fn func()) (cancel func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.listeners[id] = fn
	w.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.listeners, id)
			w.mu.Unlock()
		})
	}
}

// Snapshot returns a copy of the cached trades.
func (w *Workspace) Snapshot() []models.Trade {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.trades)
}

// LoadedAt reports when the cache was last replaced.
func (w *Workspace) LoadedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loadedAt
}

// View assembles stats, equity and the list for scope from the cache.
func (w *Workspace) View(scope journal.Scope) journal.View {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return journal.BuildView(w.trades, scope)
}

// Years lists the years offered by the year selector: the current year
// and its neighbours, plus any year holding a trade.
func (w *Workspace) Years(now time.Time) []int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	y := now.Year()
	years := []int{y - 1, y, y + 1}
	for _, t := range w.trades {
		if !slices.Contains(years, t.Date.Year()) {
			years = append(years, t.Date.Year())
		}
	}
	slices.Sort(years)
	return years
}

// Close stops listening for changes. Reloads still in flight finish but
// their results are ignored.
func (w *Workspace) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	unsubscribe := w.unsubscribe
	w.listeners = map[int]func(){}
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	metrics.WorkspaceClosed()
	w.log.Debug("Workspace closed")
}

// Wait blocks until every change-triggered reload has returned.
func (w *Workspace) Wait() {
	w.wg.Wait()
}
