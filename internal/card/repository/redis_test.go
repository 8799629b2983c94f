package repository

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/novenoa/cards/internal/card"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedisRepo(t *testing.T) (*RedisRepo, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepo(client, "test:card:"), m
}

func TestRedisRepo_CreateGetDelete(t *testing.T) {
	repo, m := newTestRedisRepo(t)
	ctx := context.Background()

	c := card.New(card.Payload{Fields: map[string]interface{}{"user": "alice"}}, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, c))
	require.True(t, m.Exists("test:card:"+c.ID))

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Fields["user"])

	require.ErrorIs(t, repo.Create(ctx, c), card.ErrRejected)
	members, err := m.Members("test:card:ids")
	require.NoError(t, err)
	require.Equal(t, []string{c.ID}, members)

	require.NoError(t, repo.Delete(ctx, c.ID))
	require.False(t, m.Exists("test:card:"+c.ID))
	// the index set empties and goes away with its last member
	require.False(t, m.Exists("test:card:ids"))
	_, err = repo.Get(ctx, c.ID)
	require.ErrorIs(t, err, card.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, c.ID), card.ErrNotFound)
}

func TestRedisRepo_ListAfterDelete(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	ctx := context.Background()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		c := card.New(card.Payload{Fields: map[string]interface{}{"n": float64(i)}}, time.Now().UTC())
		require.NoError(t, repo.Create(ctx, c))
		ids = append(ids, c.ID)
	}
	require.NoError(t, repo.Delete(ctx, ids[1]))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, ids[0], list[0].ID)
	require.Equal(t, ids[2], list[1].ID)
}

func TestRedisRepo_UpdateReplaceToggle(t *testing.T) {
	repo, _ := newTestRedisRepo(t)
	ctx := context.Background()

	c := card.New(card.Payload{Fields: map[string]interface{}{"user": "alice"}}, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, c))

	upd, err := repo.Update(ctx, c.ID, map[string]interface{}{"email": "a@example.com"}, nil)
	require.NoError(t, err)
	require.Equal(t, "alice", upd.Fields["user"])
	require.Equal(t, "a@example.com", upd.Fields["email"])

	rep, err := repo.Replace(ctx, c.ID, map[string]interface{}{"title": "x"}, false)
	require.NoError(t, err)
	require.Equal(t, map[string]interface{}{"title": "x"}, rep.Fields)

	once, err := repo.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, once.Like)
	twice, err := repo.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, twice.Like)

	_, err = repo.ToggleLike(ctx, card.NewID())
	require.ErrorIs(t, err, card.ErrNotFound)
}

func TestRedisRepo_StoreDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: m.Addr(), MaxRetries: -1})
	defer client.Close()
	repo := NewRedisRepo(client, "")
	m.Close()

	_, err = repo.List(context.Background())
	require.Error(t, err)
	require.Error(t, repo.Ping(context.Background()))
}
