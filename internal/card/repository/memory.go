package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/novenoa/cards/internal/card"
)

// MemoryRepo is an in-process repository used by unit tests and by
// CARDS_STORE=memory for offline development.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*card.Card
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*card.Card)}
}

func (m *MemoryRepo) Create(_ context.Context, c *card.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[c.ID]; ok {
		return card.ErrRejected
	}
	m.store[c.ID] = c.Clone()
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*card.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.store[id]; ok {
		return c.Clone(), nil
	}
	return nil, card.ErrNotFound
}

// List returns cards ordered by id, which for ObjectIDs is creation order.
func (m *MemoryRepo) List(_ context.Context) ([]*card.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*card.Card, 0, len(m.store))
	for _, c := range m.store {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepo) Replace(_ context.Context, id string, fields map[string]interface{}, like bool) (*card.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, card.ErrNotFound
	}
	c.Fields = make(map[string]interface{}, len(fields))
	for k, v := range fields {
		c.Fields[k] = v
	}
	c.Like = like
	c.UpdatedAt = time.Now().UTC()
	return c.Clone(), nil
}

func (m *MemoryRepo) Update(_ context.Context, id string, fields map[string]interface{}, like *bool) (*card.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, card.ErrNotFound
	}
	for k, v := range fields {
		c.Fields[k] = v
	}
	if like != nil {
		c.Like = *like
	}
	c.UpdatedAt = time.Now().UTC()
	return c.Clone(), nil
}

func (m *MemoryRepo) ToggleLike(_ context.Context, id string) (*card.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[id]
	if !ok {
		return nil, card.ErrNotFound
	}
	c.Like = !c.Like
	c.UpdatedAt = time.Now().UTC()
	return c.Clone(), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return card.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MemoryRepo) Ping(_ context.Context) error { return nil }
