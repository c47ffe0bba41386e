package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewRouter(t *testing.T) {
	t.Run("RejectsNilBackend", func(t *testing.T) {
		_, err := NewRouter(map[CollectionRef]Adapter{ProjectsCollection: nil})
		assert.Error(t, err)
	})

	t.Run("ListsCollections", func(t *testing.T) {
		a := newMemoryTreeAdapter(t)
		r, err := NewRouter(map[CollectionRef]Adapter{
			RegistrationsCollection: a,
			ProjectsCollection:      a,
			QuestionsCollection:     a,
		})
		require.NoError(t, err)
		assert.Equal(t, []CollectionRef{QuestionsCollection, ProjectsCollection, RegistrationsCollection}, r.Collections())
	})
}

func TestRouter_Dispatch(t *testing.T) {
	ctx := context.Background()
	projects := newMemoryTreeAdapter(t)
	questions := newMemoryTreeAdapter(t)
	r, err := NewRouter(map[CollectionRef]Adapter{
		ProjectsCollection:  projects,
		QuestionsCollection: questions,
	})
	require.NoError(t, err)

	id, err := r.Create(ctx, QuestionsCollection, Payload{"subject": "hello"})
	require.NoError(t, err)

	fromQuestions, err := questions.FetchAll(ctx, QuestionsCollection)
	require.NoError(t, err)
	require.Len(t, fromQuestions, 1)
	assert.Equal(t, id, fromQuestions[0].ID)

	fromProjects, err := projects.FetchAll(ctx, QuestionsCollection)
	require.NoError(t, err)
	assert.Empty(t, fromProjects)

	require.NoError(t, r.Delete(ctx, QuestionsCollection, id))
	remaining, err := r.FetchAll(ctx, QuestionsCollection)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRouter_UnknownCollection(t *testing.T) {
	ctx := context.Background()
	r, err := NewRouter(map[CollectionRef]Adapter{})
	require.NoError(t, err)

	_, err = r.FetchAll(ctx, "archive")
	var ae *AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, OpFetchAll, ae.Op)
	assert.Equal(t, CollectionRef("archive"), ae.Collection)
	assert.ErrorIs(t, err, ErrUnknownCollection)

	err = r.Upsert(ctx, "archive", "x1", Payload{})
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestRouter_WrapsForeignErrors(t *testing.T) {
	ctx := context.Background()
	tree := new(MockKVTree)
	cause := errors.New("boom")
	tree.On("Remove", ctx, "projects/p1").Return(cause).Once()

	r, err := NewRouter(map[CollectionRef]Adapter{ProjectsCollection: NewTreeAdapter(tree)})
	require.NoError(t, err)

	err = r.Delete(ctx, ProjectsCollection, "p1")
	var ae *AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "p1", ae.ID)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store delete on projects/p1 failed: boom", err.Error())
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		payload Payload
		want    bool
	}{
		{name: "Equal", filter: Filter{Field: "approved", Value: true}, payload: Payload{"approved": true}, want: true},
		{name: "Different", filter: Filter{Field: "approved", Value: true}, payload: Payload{"approved": false}},
		{name: "Missing", filter: Filter{Field: "approved", Value: true}, payload: Payload{}},
		{name: "WrongType", filter: Filter{Field: "approved", Value: true}, payload: Payload{"approved": "true"}},
		{name: "Slice", filter: Filter{Field: "tags", Value: []string{"a"}}, payload: Payload{"tags": []string{"a"}}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.payload))
		})
	}
}

func TestPayloadClone(t *testing.T) {
	assert.Nil(t, Payload(nil).Clone())

	src := Payload{"photos": []string{"a", "b"}, "title": "x"}
	dst := src.Clone()
	dst["photos"].([]string)[0] = "z"
	dst["title"] = "y"
	assert.Equal(t, []string{"a", "b"}, src["photos"])
	assert.Equal(t, "x", src["title"])
}

func TestDocumentKey(t *testing.T) {
	_, err := documentKey("")
	assert.ErrorIs(t, err, ErrInvalidID)

	oid := primitive.NewObjectID()
	key, err := documentKey(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, key)

	key, err = documentKey("legacy-id")
	require.NoError(t, err)
	assert.Equal(t, "legacy-id", key)
}

func TestRecordFromDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	rec := recordFromDocument(bson.M{"_id": oid, "title": "App", "approved": true})
	assert.Equal(t, oid.Hex(), rec.ID)
	assert.Equal(t, Payload{"title": "App", "approved": true}, rec.Payload)

	doc := documentFromPayload(Payload{"_id": "ignored", "title": "App"})
	assert.Equal(t, bson.M{"title": "App"}, doc)
}
