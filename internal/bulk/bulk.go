// Package bulk holds the multi-select mode used to change status or delete
// several bookmarks with one remote write.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
)

var (
	ErrEmptySelection = errors.New("no bookmarks selected")
	ErrNotSelecting   = errors.New("not in selection mode")
	ErrNotConfirmed   = errors.New("delete not confirmed")
)

// Mode is the coordinator state.
type Mode int

const (
	Inactive Mode = iota
	Selecting
)

func (m Mode) String() string {
	if m == Selecting {
		return "selecting"
	}
	return "inactive"
}

// Store performs the batched writes.
type Store interface {
	UpdateStatus(ctx context.Context, ids []string, status model.Status) error
	DeleteBookmarks(ctx context.Context, ids []string) error
}

// Reloader refreshes local state after a successful batch.
type Reloader func(ctx context.Context) error

// Coordinator tracks the selected bookmark IDs.
type Coordinator struct {
	store  Store
	reload Reloader
	log    logger.Logger

	mu       sync.Mutex
	mode     Mode
	selected map[string]bool
}

// New creates an inactive Coordinator. reload may be nil.
func New(store Store, reload Reloader, log logger.Logger) *Coordinator {
	if log == nil {
		log = logger.Nop()
	}
	return &Coordinator{
		store:    store,
		reload:   reload,
		log:      log,
		selected: map[string]bool{},
	}
}

func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Coordinator) Active() bool {
	return c.Mode() == Selecting
}

// Enter switches to selecting with an empty selection.
func (c *Coordinator) Enter() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Selecting
	c.selected = map[string]bool{}
}

// Toggle flips id in the selection. It is ignored when inactive.
func (c *Coordinator) Toggle(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Selecting || id == "" {
		return
	}
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
}

// SelectAll adds ids to the selection, entering selecting mode if needed.
func (c *Coordinator) SelectAll(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Selecting {
		c.mode = Selecting
		c.selected = map[string]bool{}
	}
	for _, id := range ids {
		if id != "" {
			c.selected[id] = true
		}
	}
}

func (c *Coordinator) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected[id]
}

// IDs returns the selection sorted.
func (c *Coordinator) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.idsLocked()
}

func (c *Coordinator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selected)
}

// Cancel leaves selecting mode and clears the selection.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = Inactive
	c.selected = map[string]bool{}
}

// Escape is the keyboard path to Cancel. It reports whether anything was
// cancelled so the caller can fall through to its own escape handling.
func (c *Coordinator) Escape() bool {
	if !c.Active() {
		return false
	}
	c.Cancel()
	return true
}

// ApplyStatus sets status on every selected bookmark in one write. On success
// it leaves selecting mode and reloads; on failure the selection is kept.
func (c *Coordinator) ApplyStatus(ctx context.Context, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	ids, err := c.pending()
	if err != nil {
		return err
	}

	if err := c.store.UpdateStatus(ctx, ids, status); err != nil {
		c.log.Warn("bulk status update failed",
			logger.Int("count", len(ids)), logger.Error(err))
		return fmt.Errorf("bulk status: %w", err)
	}

	c.log.Info("bulk status applied",
		logger.Int("count", len(ids)), logger.String("status", string(status)))
	return c.finish(ctx)
}

// ApplyDelete removes every selected bookmark in one write. confirmed must be
// true.
func (c *Coordinator) ApplyDelete(ctx context.Context, confirmed bool) error {
	ids, err := c.pending()
	if err != nil {
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	if err := c.store.DeleteBookmarks(ctx, ids); err != nil {
		c.log.Warn("bulk delete failed",
			logger.Int("count", len(ids)), logger.Error(err))
		return fmt.Errorf("bulk delete: %w", err)
	}

	c.log.Info("bulk delete applied", logger.Int("count", len(ids)))
	return c.finish(ctx)
}

func (c *Coordinator) pending() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Selecting {
		return nil, ErrNotSelecting
	}
	if len(c.selected) == 0 {
		return nil, ErrEmptySelection
	}
	return c.idsLocked(), nil
}

func (c *Coordinator) finish(ctx context.Context) error {
	c.Cancel()
	if c.reload == nil {
		return nil
	}
	if err := c.reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

func (c *Coordinator) idsLocked() []string {
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
