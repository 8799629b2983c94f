package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/novenoa/cards/internal/card"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 5

// RedisRepo keeps each card as a JSON value under "<prefix><id>" and the set
// of known ids under "<prefix>ids". Mutations use WATCH/MULTI so a toggle
// never loses a concurrent write.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

type redisCard struct {
	ID        string                 `json:"_id"`
	Like      bool                   `json:"like"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// NewRedisRepo creates a Redis-backed card repository. Prefix may be empty.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "card:"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) key(id string) string { return r.prefix + id }
func (r *RedisRepo) indexKey() string     { return r.prefix + "ids" }

// Create writes the card and its index entry in one MULTI, watching the key
// so an existing id is never overwritten.
func (r *RedisRepo) Create(ctx context.Context, c *card.Card) error {
	b, err := encodeCard(c)
	if err != nil {
		return err
	}
	key := r.key(c.ID)
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: id %s exists", card.ErrRejected, c.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			pipe.SAdd(ctx, r.indexKey(), c.ID)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("insert card: %w: id %s written concurrently", card.ErrRejected, c.ID)
	default:
		return fmt.Errorf("insert card: %w", err)
	}
}

func (r *RedisRepo) Get(ctx context.Context, id string) (*card.Card, error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, card.ErrNotFound
		}
		return nil, fmt.Errorf("find card: %w", err)
	}
	return decodeCard(b)
}

func (r *RedisRepo) List(ctx context.Context) ([]*card.Card, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	out := []*card.Card{}
	if len(ids) == 0 {
		return out, nil
	}
	sort.Strings(ids)
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// deleted between SMEMBERS and MGET
			continue
		}
		c, err := decodeCard([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *RedisRepo) Replace(ctx context.Context, id string, fields map[string]interface{}, like bool) (*card.Card, error) {
	return r.mutate(ctx, "replace card", id, func(c *card.Card) {
		c.Fields = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			c.Fields[k] = v
		}
		c.Like = like
	})
}

func (r *RedisRepo) Update(ctx context.Context, id string, fields map[string]interface{}, like *bool) (*card.Card, error) {
	return r.mutate(ctx, "update card", id, func(c *card.Card) {
		for k, v := range fields {
			c.Fields[k] = v
		}
		if like != nil {
			c.Like = *like
		}
	})
}

func (r *RedisRepo) ToggleLike(ctx context.Context, id string) (*card.Card, error) {
	return r.mutate(ctx, "toggle like", id, func(c *card.Card) {
		c.Like = !c.Like
	})
}

func (r *RedisRepo) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.key(id))
		pipe.SRem(ctx, r.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if del.Val() == 0 {
		return card.ErrNotFound
	}
	return nil
}

func (r *RedisRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// mutate applies fn to the stored card inside an optimistic transaction,
// retrying when another client touched the key in between.
func (r *RedisRepo) mutate(ctx context.Context, op, id string, fn func(*card.Card)) (*card.Card, error) {
	key := r.key(id)
	var out *card.Card
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return card.ErrNotFound
		}
		if err != nil {
			return err
		}
		c, err := decodeCard(b)
		if err != nil {
			return err
		}
		fn(c)
		c.UpdatedAt = time.Now().UTC()
		nb, err := encodeCard(c)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, nb, 0)
			return nil
		})
		if err == nil {
			out = c
		}
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return out, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, card.ErrNotFound):
			return nil, err
		default:
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil, fmt.Errorf("%s: too many concurrent writers on %s", op, id)
}

func encodeCard(c *card.Card) ([]byte, error) {
	b, err := json.Marshal(redisCard{ID: c.ID, Like: c.Like, Fields: c.Fields, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", card.ErrInvalidPayload, err)
	}
	return b, nil
}

func decodeCard(b []byte) (*card.Card, error) {
	var rc redisCard
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("decode card: %w", err)
	}
	if rc.Fields == nil {
		rc.Fields = map[string]interface{}{}
	}
	return &card.Card{ID: rc.ID, Like: rc.Like, Fields: rc.Fields, CreatedAt: rc.CreatedAt, UpdatedAt: rc.UpdatedAt}, nil
}
