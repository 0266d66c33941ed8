// Package cache holds the in-memory mirror of the bookmarks table.
//
// Status changes and deletes are applied locally before the remote write.
// When a write fails the whole list is reloaded from the store instead of
// rolling back the single change.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/model"
)

// ErrNotFound is returned for an unknown bookmark id.
var ErrNotFound = errors.New("bookmark not found")

// Store is the remote persistence the cache writes through.
type Store interface {
	ListBookmarks(ctx context.Context) ([]model.Bookmark, error)
	InsertBookmark(ctx context.Context, nb model.NewBookmark) (model.Bookmark, error)
	UpdateBookmark(ctx context.Context, id string, patch model.BookmarkPatch) error
	UpdateStatus(ctx context.Context, ids []string, status model.Status) error
	DeleteBookmarks(ctx context.Context, ids []string) error
}

// Cache is the authoritative in-memory bookmark list.
type Cache struct {
	store Store
	log   logger.Logger

	mu        sync.RWMutex
	bookmarks []model.Bookmark
	loaded    bool
	loadErr   error
}

// New creates an empty cache over store.
func New(store Store, log logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{store: store, log: log}
}

// Load replaces the list with the store's contents, newest first.
// On failure the current list is kept and the error is remembered.
func (c *Cache) Load(ctx context.Context) error {
	bookmarks, err := c.store.ListBookmarks(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.loadErr = err
		c.log.Warn("bookmark load failed", logger.Error(err))
		return err
	}

	c.bookmarks = bookmarks
	c.loaded = true
	c.loadErr = nil
	c.log.Debug("bookmarks loaded", logger.Int("count", len(bookmarks)))
	return nil
}

// LoadErr returns the error of the last failed load, nil after a successful one.
func (c *Cache) LoadErr() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadErr
}

// Loaded reports whether at least one load succeeded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Bookmarks returns a copy of the list.
func (c *Cache) Bookmarks() []model.Bookmark {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Bookmark, len(c.bookmarks))
	for i, b := range c.bookmarks {
		out[i] = b.Clone()
	}
	return out
}

// Len returns the number of cached bookmarks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bookmarks)
}

// Get returns a copy of the bookmark with id.
func (c *Cache) Get(id string) (model.Bookmark, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.bookmarks[i].Clone(), true
	}
	return model.Bookmark{}, false
}

// HasURL reports whether a bookmark with the exact URL is cached.
func (c *Cache) HasURL(url string) bool {
	url = strings.TrimSpace(url)
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, b := range c.bookmarks {
		if b.URL == url {
			return true
		}
	}
	return false
}

// SetStatus changes the status locally, then remotely.
func (c *Cache) SetStatus(ctx context.Context, id string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.bookmarks[i].Status = status
	c.mu.Unlock()

	if err := c.store.UpdateStatus(ctx, []string{id}, status); err != nil {
		return c.resync(ctx, "set status", err)
	}
	return nil
}

// CycleStatus advances the status one step: unread → reading → done → unread.
// It returns the new status.
func (c *Cache) CycleStatus(ctx context.Context, id string) (model.Status, error) {
	c.mu.RLock()
	i := c.indexOf(id)
	var next model.Status
	if i >= 0 {
		next = c.bookmarks[i].Status.Next()
	}
	c.mu.RUnlock()

	if i < 0 {
		return "", ErrNotFound
	}
	if err := c.SetStatus(ctx, id, next); err != nil {
		return "", err
	}
	return next, nil
}

// Delete removes the bookmark locally, then remotely.
func (c *Cache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOf(id)
	if i < 0 {
		c.mu.Unlock()
		return ErrNotFound
	}
	c.bookmarks = append(c.bookmarks[:i], c.bookmarks[i+1:]...)
	c.mu.Unlock()

	if err := c.store.DeleteBookmarks(ctx, []string{id}); err != nil {
		return c.resync(ctx, "delete", err)
	}
	return nil
}

// Update writes patch remotely and echoes it locally once confirmed.
func (c *Cache) Update(ctx context.Context, id string, patch model.BookmarkPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if patch.URL != nil && strings.TrimSpace(*patch.URL) == "" {
		return model.ErrURLRequired
	}
	if _, ok := c.Get(id); !ok {
		return ErrNotFound
	}

	if err := c.store.UpdateBookmark(ctx, id, patch); err != nil {
		return c.resync(ctx, "update", err)
	}

	c.mu.Lock()
	if i := c.indexOf(id); i >= 0 {
		c.bookmarks[i] = patch.Apply(c.bookmarks[i])
	}
	c.mu.Unlock()
	return nil
}

// AppendNote adds text as a new line at the end of the bookmark's notes.
func (c *Cache) AppendNote(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	b, ok := c.Get(id)
	if !ok {
		return ErrNotFound
	}

	notes := text
	if b.Notes != "" {
		notes = b.Notes + "\n" + text
	}
	return c.Update(ctx, id, model.BookmarkPatch{Notes: &notes})
}

// Insert validates nb, stores it and puts the stored row at the front.
func (c *Cache) Insert(ctx context.Context, nb model.NewBookmark) (model.Bookmark, error) {
	normalized, err := nb.Normalize()
	if err != nil {
		return model.Bookmark{}, err
	}

	b, err := c.store.InsertBookmark(ctx, normalized)
	if err != nil {
		return model.Bookmark{}, err
	}

	c.mu.Lock()
	c.bookmarks = append([]model.Bookmark{b}, c.bookmarks...)
	c.mu.Unlock()

	return b.Clone(), nil
}

// resync reloads after a failed write and returns the write error.
func (c *Cache) resync(ctx context.Context, op string, writeErr error) error {
	c.log.Warn("bookmark write failed, reloading",
		logger.String("op", op), logger.Error(writeErr))
	if err := c.Load(ctx); err != nil {
		c.log.Error("reload after failed write", logger.Error(err))
	}
	return fmt.Errorf("%s: %w", op, writeErr)
}

// indexOf must be called with mu held.
func (c *Cache) indexOf(id string) int {
	for i := range c.bookmarks {
		if c.bookmarks[i].ID == id {
			return i
		}
	}
	return -1
}
