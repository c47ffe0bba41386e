package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func projectsNamespace(mt *mtest.T) string {
	return fmt.Sprintf("%s.%s", mt.DB.Name(), ProjectsCollection)
}

// startedCommand returns the first command the client sent with the given name.
func startedCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
		if evt.CommandName == name {
			return evt.Command
		}
	}
	require.Failf(mt, "command not sent", "no %q command was started", name)
	return nil
}

func TestMongoAdapter(t *testing.T) {
	ctx := context.Background()
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("FetchAllReturnsHexIDs", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, projectsNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "Solar"}},
			bson.D{{Key: "_id", Value: "legacy-key"}, {Key: "name", Value: "Wind"}},
		))

		records, err := NewMongoAdapter(mt.DB).FetchAll(ctx, ProjectsCollection)

		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, oid.Hex(), records[0].ID)
		assert.Equal(mt, "Solar", records[0].Payload["name"])
		assert.NotContains(mt, records[0].Payload, "_id")
		assert.Equal(mt, "legacy-key", records[1].ID)

		cmd := startedCommand(mt, "find")
		assert.Equal(mt, string(ProjectsCollection), cmd.Lookup("find").StringValue())
		assert.Equal(mt, int32(1), cmd.Lookup("sort", "_id").Int32())
	})

	mt.Run("FetchFilteredSendsEqualityFilter", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, projectsNamespace(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "approved", Value: true}},
		))

		records, err := NewMongoAdapter(mt.DB).FetchFiltered(ctx, ProjectsCollection, Filter{Field: "approved", Value: true})

		require.NoError(mt, err)
		require.Len(mt, records, 1)
		filter := startedCommand(mt, "find").Lookup("filter").Document()
		elems, err := filter.Elements()
		require.NoError(mt, err)
		require.Len(mt, elems, 1)
		assert.Equal(mt, "approved", elems[0].Key())
		assert.True(mt, elems[0].Value().Boolean())
	})

	mt.Run("FetchErrorIsWrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))

		_, err := NewMongoAdapter(mt.DB).FetchAll(ctx, ProjectsCollection)

		var adapterErr *AdapterError
		require.ErrorAs(mt, err, &adapterErr)
		assert.Equal(mt, OpFetchAll, adapterErr.Op)
		assert.Equal(mt, ProjectsCollection, adapterErr.Collection)
	})

	mt.Run("CreateReturnsInsertedObjectIDHex", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		id, err := NewMongoAdapter(mt.DB).Create(ctx, ProjectsCollection, Payload{"name": "Solar", "_id": "ignored"})

		require.NoError(mt, err)
		doc := startedCommand(mt, "insert").Lookup("documents").Array().Index(0).Value().Document()
		sent, ok := doc.Lookup("_id").ObjectIDOK()
		require.True(mt, ok, "inserted _id must be an ObjectID")
		assert.Equal(mt, sent.Hex(), id)
		assert.Equal(mt, "Solar", doc.Lookup("name").StringValue())

		parsed, err := primitive.ObjectIDFromHex(id)
		require.NoError(mt, err)
		assert.Equal(mt, sent, parsed)
	})

	mt.Run("UpsertReplacesWithUpsertFlag", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := NewMongoAdapter(mt.DB).Upsert(ctx, ProjectsCollection, oid.Hex(), Payload{"name": "Solar", "approved": true})

		require.NoError(mt, err)
		update := startedCommand(mt, "update").Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, update.Lookup("upsert").Boolean())
		assert.Equal(mt, oid, update.Lookup("q", "_id").ObjectID())
		replacement := update.Lookup("u").Document()
		assert.True(mt, replacement.Lookup("approved").Boolean())
		_, err = replacement.LookupErr("_id")
		assert.Error(mt, err, "replacement must not carry _id")
	})

	mt.Run("UpsertKeepsStringKeys", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		err := NewMongoAdapter(mt.DB).Upsert(ctx, ProjectsCollection, "legacy-key", Payload{"name": "Wind"})

		require.NoError(mt, err)
		update := startedCommand(mt, "update").Lookup("updates").Array().Index(0).Value().Document()
		assert.Equal(mt, "legacy-key", update.Lookup("q", "_id").StringValue())
	})

	mt.Run("DeleteOfMissingDocumentSucceeds", func(mt *mtest.T) {
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := NewMongoAdapter(mt.DB).Delete(ctx, ProjectsCollection, oid.Hex())

		require.NoError(mt, err)
		del := startedCommand(mt, "delete").Lookup("deletes").Array().Index(0).Value().Document()
		assert.Equal(mt, oid, del.Lookup("q", "_id").ObjectID())
	})

	mt.Run("DeleteWriteErrorIsWrapped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "boom"}))

		err := NewMongoAdapter(mt.DB).Delete(ctx, ProjectsCollection, primitive.NewObjectID().Hex())

		var adapterErr *AdapterError
		require.ErrorAs(mt, err, &adapterErr)
		assert.Equal(mt, OpDelete, adapterErr.Op)
	})

	mt.Run("EmptyIDIsRejected", func(mt *mtest.T) {
		adapter := NewMongoAdapter(mt.DB)

		assert.ErrorIs(mt, adapter.Delete(ctx, ProjectsCollection, ""), ErrInvalidID)
		assert.ErrorIs(mt, adapter.Upsert(ctx, ProjectsCollection, "", Payload{}), ErrInvalidID)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
