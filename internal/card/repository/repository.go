package repository

import (
	"context"

	"github.com/novenoa/cards/internal/card"
)

// Repository is implemented by every card backend. Each method is a single
// store round trip; not-found conditions are reported as card.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, c *card.Card) error
	List(ctx context.Context) ([]*card.Card, error)
	Get(ctx context.Context, id string) (*card.Card, error)
	// Replace swaps all free-form fields and sets like, keeping _id and createdAt.
	Replace(ctx context.Context, id string, fields map[string]interface{}, like bool) (*card.Card, error)
	// Update merges fields into the card; like is only written when non-nil.
	Update(ctx context.Context, id string, fields map[string]interface{}, like *bool) (*card.Card, error)
	ToggleLike(ctx context.Context, id string) (*card.Card, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
