package card

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reserved keys managed by the service. They are rendered next to the
// free-form fields and are never taken from a request body.
const (
	KeyID        = "_id"
	KeyLike      = "like"
	KeyCreatedAt = "createdAt"
	KeyUpdatedAt = "updatedAt"
	keyVersion   = "__v"
)

// Card is the single managed document: caller supplied fields plus an
// identifier and a like flag owned by the service.
type Card struct {
	ID        string
	Like      bool
	Fields    map[string]interface{}
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New builds a card with a fresh identifier from a parsed payload.
func New(p Payload, now time.Time) *Card {
	c := &Card{
		ID:        NewID(),
		Fields:    p.Fields,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if c.Fields == nil {
		c.Fields = map[string]interface{}{}
	}
	if p.Like != nil {
		c.Like = *p.Like
	}
	return c
}

// NewID returns a store-compatible identifier (24 hex chars).
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidateID reports ErrInvalidID for identifiers that no backend could hold.
func ValidateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// Clone returns a copy whose field map can be mutated independently.
func (c *Card) Clone() *Card {
	out := *c
	out.Fields = make(map[string]interface{}, len(c.Fields))
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	return &out
}

// MarshalJSON flattens the free-form fields next to the reserved keys.
func (c *Card) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(c.Fields)+4)
	for k, v := range c.Fields {
		m[k] = v
	}
	m[KeyID] = c.ID
	m[KeyLike] = c.Like
	m[KeyCreatedAt] = c.CreatedAt
	m[KeyUpdatedAt] = c.UpdatedAt
	return json.Marshal(m)
}
