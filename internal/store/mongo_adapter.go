package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAdapter serves document collections from MongoDB. Ids are ObjectID hex strings.
type MongoAdapter struct {
	db *mongo.Database
}

// NewMongoAdapter creates an adapter over the given database.
func NewMongoAdapter(db *mongo.Database) *MongoAdapter {
	return &MongoAdapter{db: db}
}

// FetchAll returns every document of the collection, oldest first.
func (a *MongoAdapter) FetchAll(ctx context.Context, ref CollectionRef) ([]Record, error) {
	records, err := a.find(ctx, ref, bson.M{})
	if err != nil {
		return nil, &AdapterError{Op: OpFetchAll, Collection: ref, Cause: err}
	}
	return records, nil
}

// FetchFiltered runs the equality filter on the server.
func (a *MongoAdapter) FetchFiltered(ctx context.Context, ref CollectionRef, filter Filter) ([]Record, error) {
	records, err := a.find(ctx, ref, bson.M{filter.Field: filter.Value})
	if err != nil {
		return nil, &AdapterError{Op: OpFetchFiltered, Collection: ref, Cause: err}
	}
	return records, nil
}

func (a *MongoAdapter) find(ctx context.Context, ref CollectionRef, filter bson.M) ([]Record, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := a.db.Collection(string(ref)).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDocument(doc))
	}
	log.Debug().Str("collection", string(ref)).Int("count", len(records)).Msg("Fetched documents")
	return records, nil
}

// Create inserts the payload and returns the generated ObjectID as hex.
func (a *MongoAdapter) Create(ctx context.Context, ref CollectionRef, payload Payload) (string, error) {
	doc := documentFromPayload(payload)
	doc["_id"] = primitive.NewObjectID()

	res, err := a.db.Collection(string(ref)).InsertOne(ctx, doc)
	if err != nil {
		return "", &AdapterError{Op: OpCreate, Collection: ref, Cause: fmt.Errorf("failed to insert document: %w", err)}
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", &AdapterError{Op: OpCreate, Collection: ref, Cause: fmt.Errorf("unexpected inserted id type %T", res.InsertedID)}
	}
	return oid.Hex(), nil
}

// Upsert replaces the whole document stored under id.
func (a *MongoAdapter) Upsert(ctx context.Context, ref CollectionRef, id string, payload Payload) error {
	key, err := documentKey(id)
	if err != nil {
		return &AdapterError{Op: OpUpsert, Collection: ref, ID: id, Cause: err}
	}
	_, err = a.db.Collection(string(ref)).ReplaceOne(
		ctx,
		bson.M{"_id": key},
		documentFromPayload(payload),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return &AdapterError{Op: OpUpsert, Collection: ref, ID: id, Cause: fmt.Errorf("failed to replace document: %w", err)}
	}
	return nil
}

// Delete removes the document. A document that is already gone counts as deleted.
func (a *MongoAdapter) Delete(ctx context.Context, ref CollectionRef, id string) error {
	key, err := documentKey(id)
	if err != nil {
		return &AdapterError{Op: OpDelete, Collection: ref, ID: id, Cause: err}
	}
	result, err := a.db.Collection(string(ref)).DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return &AdapterError{Op: OpDelete, Collection: ref, ID: id, Cause: fmt.Errorf("failed to delete document: %w", err)}
	}
	if result.DeletedCount == 0 {
		log.Warn().Str("collection", string(ref)).Str("id", id).Msg("Document already absent on delete")
	}
	return nil
}

// documentKey maps an id back to the stored _id. Ids that are not ObjectID hex
// are treated as plain string keys, as written by other clients.
func documentKey(id string) (interface{}, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return id, nil
	}
	return oid, nil
}

func recordFromDocument(doc bson.M) Record {
	var id string
	switch v := doc["_id"].(type) {
	case primitive.ObjectID:
		id = v.Hex()
	case string:
		id = v
	default:
		id = fmt.Sprint(v)
	}
	payload := make(Payload, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		payload[k] = v
	}
	return Record{ID: id, Payload: payload}
}

func documentFromPayload(p Payload) bson.M {
	doc := make(bson.M, len(p)+1)
	for k, v := range p {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	return doc
}
