package service

import (
	"context"
	"testing"

	"github.com/novenoa/cards/internal/card"
	"github.com/novenoa/cards/internal/card/repository"
	"github.com/novenoa/cards/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestService_NotReadyUntilAttached(t *testing.T) {
	ctx := context.Background()
	s := New(EmptyPatchReject)
	require.False(t, s.Ready())

	_, err := s.List(ctx)
	require.ErrorIs(t, err, card.ErrNotReady)
	_, err = s.Create(ctx, card.Payload{})
	require.ErrorIs(t, err, card.ErrNotReady)

	s.Attach(repository.NewMemoryRepo())
	require.True(t, s.Ready())
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestService_CreateDefaultsLikeFalse(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryService(EmptyPatchReject)
	c, err := s.Create(ctx, card.Payload{Fields: map[string]interface{}{"user": "alice"}})
	require.NoError(t, err)
	require.False(t, c.Like)
	require.NoError(t, card.ValidateID(c.ID))
	require.False(t, c.CreatedAt.IsZero())
}

func TestService_MalformedID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryService(EmptyPatchReject)
	_, err := s.Get(ctx, "123")
	require.ErrorIs(t, err, card.ErrInvalidID)
	require.ErrorIs(t, s.Delete(ctx, "123"), card.ErrInvalidID)
}

func TestService_EmptyPatchPolicies(t *testing.T) {
	ctx := context.Background()

	reject := NewMemoryService(EmptyPatchReject)
	c, err := reject.Create(ctx, card.Payload{Fields: map[string]interface{}{"user": "alice"}})
	require.NoError(t, err)
	_, err = reject.Patch(ctx, c.ID, card.Payload{})
	require.ErrorIs(t, err, card.ErrEmptyPatch)

	noop := NewMemoryService(EmptyPatchNoop)
	c, err = noop.Create(ctx, card.Payload{Fields: map[string]interface{}{"user": "alice"}})
	require.NoError(t, err)
	got, err := noop.Patch(ctx, c.ID, card.Payload{})
	require.NoError(t, err)
	require.Equal(t, c.Fields, got.Fields)
	require.Equal(t, c.UpdatedAt, got.UpdatedAt)

	_, err = noop.Patch(ctx, card.NewID(), card.Payload{})
	require.ErrorIs(t, err, card.ErrNotFound)
}

func TestService_ReplaceResetsLike(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryService(EmptyPatchReject)
	c, err := s.Create(ctx, card.Payload{Fields: map[string]interface{}{"user": "alice"}, Like: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, c.Like)

	got, err := s.Replace(ctx, c.ID, card.Payload{Fields: map[string]interface{}{"title": "x"}})
	require.NoError(t, err)
	require.False(t, got.Like)
	require.Equal(t, map[string]interface{}{"title": "x"}, got.Fields)

	patched, err := s.Patch(ctx, c.ID, card.Payload{Like: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, patched.Like)
	require.Equal(t, "x", patched.Fields["title"])
}

func TestService_ToggleIsInvolution(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryService(EmptyPatchReject)
	c, err := s.Create(ctx, card.Payload{})
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.CardOperations.WithLabelValues("toggle_like", "ok"))
	_, err = s.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	back, err := s.ToggleLike(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.Like, back.Like)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.CardOperations.WithLabelValues("toggle_like", "ok")))
}

func TestParseEmptyPatchPolicy(t *testing.T) {
	p, err := ParseEmptyPatchPolicy("")
	require.NoError(t, err)
	require.Equal(t, EmptyPatchReject, p)
	p, err = ParseEmptyPatchPolicy(" NOOP ")
	require.NoError(t, err)
	require.Equal(t, EmptyPatchNoop, p)
	_, err = ParseEmptyPatchPolicy("ignore")
	require.Error(t, err)
}
