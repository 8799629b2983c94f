package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/novenoa/cards/internal/card"
	"github.com/novenoa/cards/internal/card/repository"
	"github.com/novenoa/cards/pkg/metrics"
)

// EmptyPatchPolicy decides what a partial update with nothing to apply does.
type EmptyPatchPolicy string

const (
	// EmptyPatchReject answers card.ErrEmptyPatch (400 at the HTTP layer).
	EmptyPatchReject EmptyPatchPolicy = "reject"
	// EmptyPatchNoop returns the stored card unchanged.
	EmptyPatchNoop EmptyPatchPolicy = "noop"
)

// ParseEmptyPatchPolicy maps a config value to a policy, defaulting to reject.
func ParseEmptyPatchPolicy(s string) (EmptyPatchPolicy, error) {
	switch EmptyPatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", EmptyPatchReject:
		return EmptyPatchReject, nil
	case EmptyPatchNoop:
		return EmptyPatchNoop, nil
	}
	return "", fmt.Errorf("unknown empty patch policy %q (want reject|noop)", s)
}

// Service defines the card operations used by the handler layer.
type Service interface {
	Create(ctx context.Context, p card.Payload) (*card.Card, error)
	List(ctx context.Context) ([]*card.Card, error)
	Get(ctx context.Context, id string) (*card.Card, error)
	Replace(ctx context.Context, id string, p card.Payload) (*card.Card, error)
	Patch(ctx context.Context, id string, p card.Payload) (*card.Card, error)
	ToggleLike(ctx context.Context, id string) (*card.Card, error)
	Delete(ctx context.Context, id string) error
	// Ready reports whether a store has been attached.
	Ready() bool
}

type repoHolder struct {
	repo repository.Repository
}

// CardService implements Service over a repository that may be attached
// after construction, once the background store connection succeeds.
// Until then every operation fails with card.ErrNotReady.
type CardService struct {
	repo       atomic.Pointer[repoHolder]
	emptyPatch EmptyPatchPolicy
	now        func() time.Time
}

func New(policy EmptyPatchPolicy) *CardService {
	if policy == "" {
		policy = EmptyPatchReject
	}
	return &CardService{emptyPatch: policy, now: func() time.Time { return time.Now().UTC() }}
}

// NewMemoryService returns a ready Service backed by the in-memory repository.
func NewMemoryService(policy EmptyPatchPolicy) *CardService {
	s := New(policy)
	s.Attach(repository.NewMemoryRepo())
	return s
}

// Attach installs the store. Safe to call concurrently with requests.
func (s *CardService) Attach(repo repository.Repository) {
	s.repo.Store(&repoHolder{repo: repo})
	metrics.StoreReady.Set(1)
}

func (s *CardService) Ready() bool {
	return s.repo.Load() != nil
}

func (s *CardService) store() (repository.Repository, error) {
	h := s.repo.Load()
	if h == nil {
		return nil, card.ErrNotReady
	}
	return h.repo, nil
}

func (s *CardService) Create(ctx context.Context, p card.Payload) (*card.Card, error) {
	repo, err := s.store()
	if err != nil {
		return nil, record("create", err)
	}
	c := card.New(p, s.now())
	if err := repo.Create(ctx, c); err != nil {
		return nil, record("create", err)
	}
	return c, record("create", nil)
}

func (s *CardService) List(ctx context.Context) ([]*card.Card, error) {
	repo, err := s.store()
	if err != nil {
		return nil, record("list", err)
	}
	list, err := repo.List(ctx)
	return list, record("list", err)
}

func (s *CardService) Get(ctx context.Context, id string) (*card.Card, error) {
	repo, err := s.storeFor(id)
	if err != nil {
		return nil, record("get", err)
	}
	c, err := repo.Get(ctx, id)
	return c, record("get", err)
}

// Replace overwrites every free-form field; like falls back to false when absent.
func (s *CardService) Replace(ctx context.Context, id string, p card.Payload) (*card.Card, error) {
	repo, err := s.storeFor(id)
	if err != nil {
		return nil, record("replace", err)
	}
	like := false
	if p.Like != nil {
		like = *p.Like
	}
	c, err := repo.Replace(ctx, id, p.Fields, like)
	return c, record("replace", err)
}

func (s *CardService) Patch(ctx context.Context, id string, p card.Payload) (*card.Card, error) {
	repo, err := s.storeFor(id)
	if err != nil {
		return nil, record("patch", err)
	}
	if p.Empty() {
		if s.emptyPatch == EmptyPatchReject {
			return nil, record("patch", card.ErrEmptyPatch)
		}
		c, err := repo.Get(ctx, id)
		return c, record("patch", err)
	}
	c, err := repo.Update(ctx, id, p.Fields, p.Like)
	return c, record("patch", err)
}

func (s *CardService) ToggleLike(ctx context.Context, id string) (*card.Card, error) {
	repo, err := s.storeFor(id)
	if err != nil {
		return nil, record("toggle_like", err)
	}
	c, err := repo.ToggleLike(ctx, id)
	return c, record("toggle_like", err)
}

func (s *CardService) Delete(ctx context.Context, id string) error {
	repo, err := s.storeFor(id)
	if err != nil {
		return record("delete", err)
	}
	return record("delete", repo.Delete(ctx, id))
}

// storeFor validates the id before any round trip so every backend reports
// malformed ids the same way.
func (s *CardService) storeFor(id string) (repository.Repository, error) {
	repo, err := s.store()
	if err != nil {
		return nil, err
	}
	if err := card.ValidateID(id); err != nil {
		return nil, err
	}
	return repo, nil
}

func record(op string, err error) error {
	metrics.CardOperations.WithLabelValues(op, outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, card.ErrNotFound):
		return "not_found"
	case errors.Is(err, card.ErrNotReady):
		return "not_ready"
	case errors.Is(err, card.ErrInvalidID), errors.Is(err, card.ErrInvalidPayload),
		errors.Is(err, card.ErrEmptyPatch), errors.Is(err, card.ErrRejected):
		return "rejected"
	}
	return "error"
}
