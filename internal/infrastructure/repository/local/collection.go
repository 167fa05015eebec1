package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	sonic "github.com/bytedance/sonic"
)

// collection is one keyed set of records, optionally mirrored to a JSON file
// holding a flat list. An empty path keeps it in memory only.
type collection[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	path  string
	idOf  func(T) string
	clone func(T) T
}

func newCollection[T any](path string, idOf func(T) string, clone func(T) T) (*collection[T], error) {
	c := &collection[T]{
		items: make(map[string]T),
		path:  path,
		idOf:  idOf,
		clone: clone,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *collection[T]) load() error {
	if c.path == "" {
		return nil
	}

	raw, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(c.path), err)
	}
	if len(raw) == 0 {
		return nil
	}

	var list []T
	if err := sonic.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(c.path), err)
	}
	for _, item := range list {
		c.items[c.idOf(item)] = item
	}
	return nil
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(item), true
}

// filter returns clones of matching records ordered by id.
func (c *collection[T]) filter(keep func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.items))
	for id, item := range c.items {
		if keep == nil || keep(item) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.clone(c.items[id]))
	}
	return out
}

func (c *collection[T]) put(item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.idOf(item)
	prev, existed := c.items[id]
	c.items[id] = c.clone(item)
	if err := c.persistLocked(); err != nil {
		if existed {
			c.items[id] = prev
		} else {
			delete(c.items, id)
		}
		return err
	}
	return nil
}

// mutate applies fn to every record under one lock and persists once.
func (c *collection[T]) mutate(fn func(T) (T, bool)) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := make(map[string]T)
	for id, item := range c.items {
		next, changed := fn(c.clone(item))
		if !changed {
			continue
		}
		prev[id] = item
		c.items[id] = next
	}
	if len(prev) == 0 {
		return 0, nil
	}
	if err := c.persistLocked(); err != nil {
		for id, item := range prev {
			c.items[id] = item
		}
		return 0, err
	}
	return len(prev), nil
}

func (c *collection[T]) remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed := c.items[id]
	if !existed {
		return nil
	}
	delete(c.items, id)
	if err := c.persistLocked(); err != nil {
		c.items[id] = prev
		return err
	}
	return nil
}

func (c *collection[T]) persistLocked() error {
	if c.path == "" {
		return nil
	}

	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	list := make([]T, 0, len(ids))
	for _, id := range ids {
		list = append(list, c.items[id])
	}

	raw, err := sonic.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(c.path), err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(c.path), err)
	}
	return nil
}
