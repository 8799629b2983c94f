package repository

import (
	"context"
	"testing"
	"time"

	"github.com/novenoa/cards/internal/card"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCRUD(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	c := card.New(card.Payload{Fields: map[string]interface{}{"user": "alice"}}, time.Now().UTC())
	require.NoError(t, r.Create(ctx, c))

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Fields["user"])
	require.False(t, got.Like)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	upd, err := r.Update(ctx, c.ID, map[string]interface{}{"email": "a@example.com"}, nil)
	require.NoError(t, err)
	require.Equal(t, "alice", upd.Fields["user"])
	require.Equal(t, "a@example.com", upd.Fields["email"])

	rep, err := r.Replace(ctx, c.ID, map[string]interface{}{"title": "t"}, true)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"title": "t"}, rep.Fields)
	require.True(t, rep.Like)
	require.Equal(t, c.CreatedAt, rep.CreatedAt)

	require.NoError(t, r.Delete(ctx, c.ID))
	_, err = r.Get(ctx, c.ID)
	require.ErrorIs(t, err, card.ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, c.ID), card.ErrNotFound)
}

func TestMemoryRepoToggleLikeTwice(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	c := card.New(card.Payload{}, time.Now().UTC())
	require.NoError(t, r.Create(ctx, c))

	once, err := r.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, once.Like)
	twice, err := r.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, twice.Like)

	_, err = r.ToggleLike(ctx, card.NewID())
	require.ErrorIs(t, err, card.ErrNotFound)
}

func TestMemoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	c := card.New(card.Payload{Fields: map[string]interface{}{"user": "alice"}}, time.Now().UTC())
	require.NoError(t, r.Create(ctx, c))

	got, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	got.Fields["user"] = "mallory"

	again, err := r.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", again.Fields["user"])
}
