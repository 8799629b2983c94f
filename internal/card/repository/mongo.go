package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novenoa/cards/internal/card"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepo stores cards as top-level documents keyed by ObjectID. Free-form
// fields live next to like/createdAt/updatedAt, the same shape mongoose used.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, c *card.Card) error {
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return card.ErrInvalidID
	}
	doc := bson.M{}
	for k, v := range c.Fields {
		doc[k] = v
	}
	doc[card.KeyID] = oid
	doc[card.KeyLike] = c.Like
	doc[card.KeyCreatedAt] = c.CreatedAt
	doc[card.KeyUpdatedAt] = c.UpdatedAt
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return mapMongoErr("insert card", err)
	}
	return nil
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*card.Card, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, card.ErrInvalidID
	}
	var doc bson.M
	if err := m.col.FindOne(ctx, bson.M{card.KeyID: oid}).Decode(&doc); err != nil {
		return nil, mapMongoErr("find card", err)
	}
	return fromDoc(doc), nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*card.Card, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: card.KeyID, Value: 1}}))
	if err != nil {
		return nil, mapMongoErr("list cards", err)
	}
	defer cur.Close(ctx)
	out := []*card.Card{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode card: %w", err)
		}
		out = append(out, fromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, mapMongoErr("list cards", err)
	}
	return out, nil
}

// Replace runs as a pipeline update so createdAt survives the overwrite.
// Caller values are wrapped in $literal to keep "$..." strings from being
// read as field paths.
func (m *MongoRepo) Replace(ctx context.Context, id string, fields map[string]interface{}, like bool) (*card.Card, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, card.ErrInvalidID
	}
	if fields == nil {
		fields = map[string]interface{}{}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$replaceWith", Value: bson.M{"$mergeObjects": bson.A{
			bson.M{card.KeyID: "$" + card.KeyID, card.KeyCreatedAt: "$" + card.KeyCreatedAt},
			bson.M{"$literal": fields},
			bson.M{card.KeyLike: like, card.KeyUpdatedAt: time.Now().UTC()},
		}}}},
	}
	return m.findAndUpdate(ctx, "replace card", oid, pipeline)
}

func (m *MongoRepo) Update(ctx context.Context, id string, fields map[string]interface{}, like *bool) (*card.Card, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, card.ErrInvalidID
	}
	set := bson.M{card.KeyUpdatedAt: time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	if like != nil {
		set[card.KeyLike] = *like
	}
	return m.findAndUpdate(ctx, "update card", oid, bson.M{"$set": set})
}

// ToggleLike flips the flag server side in one round trip; a missing flag reads as false.
func (m *MongoRepo) ToggleLike(ctx context.Context, id string) (*card.Card, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, card.ErrInvalidID
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			card.KeyLike:      bson.M{"$not": bson.A{"$" + card.KeyLike}},
			card.KeyUpdatedAt: time.Now().UTC(),
		}}},
	}
	return m.findAndUpdate(ctx, "toggle like", oid, pipeline)
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return card.ErrInvalidID
	}
	res, err := m.col.DeleteOne(ctx, bson.M{card.KeyID: oid})
	if err != nil {
		return mapMongoErr("delete card", err)
	}
	if res.DeletedCount == 0 {
		return card.ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, readpref.Primary())
}

func (m *MongoRepo) findAndUpdate(ctx context.Context, op string, oid primitive.ObjectID, update interface{}) (*card.Card, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc bson.M
	if err := m.col.FindOneAndUpdate(ctx, bson.M{card.KeyID: oid}, update, opts).Decode(&doc); err != nil {
		return nil, mapMongoErr(op, err)
	}
	return fromDoc(doc), nil
}

func mapMongoErr(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return card.ErrNotFound
	}
	// A write concern error means the server accepted the write but could
	// not confirm it, which is a store failure rather than a bad card.
	var we mongo.WriteException
	if errors.As(err, &we) {
		if we.WriteConcernError != nil || len(we.WriteErrors) == 0 {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %v", op, card.ErrRejected, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %v", op, card.ErrRejected, err)
	}
	var ce mongo.CommandError
	// 121 DocumentValidationFailure, 2 BadValue
	if errors.As(err, &ce) && (ce.Code == 121 || ce.Code == 2) {
		return fmt.Errorf("%s: %w: %v", op, card.ErrRejected, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fromDoc(doc bson.M) *card.Card {
	c := &card.Card{Fields: make(map[string]interface{}, len(doc))}
	for k, v := range doc {
		switch k {
		case card.KeyID:
			if oid, ok := v.(primitive.ObjectID); ok {
				c.ID = oid.Hex()
			} else {
				c.ID = fmt.Sprint(v)
			}
		case card.KeyLike:
			b, _ := v.(bool)
			c.Like = b
		case card.KeyCreatedAt:
			c.CreatedAt = asTime(v)
		case card.KeyUpdatedAt:
			c.UpdatedAt = asTime(v)
		case "__v":
		default:
			c.Fields[k] = normalize(v)
		}
	}
	return c
}

func asTime(v interface{}) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case time.Time:
		return t.UTC()
	}
	return time.Time{}
}

// normalize turns driver-specific BSON values into plain JSON-friendly ones.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC()
	}
	return v
}
