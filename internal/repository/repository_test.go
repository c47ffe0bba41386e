package repository

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"moderation-console/internal/models"
	"moderation-console/internal/store"
)

// MockAdapter is a mock implementation of store.Adapter.
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) FetchAll(ctx context.Context, ref store.CollectionRef) ([]store.Record, error) {
	args := m.Called(ctx, ref)
	records, _ := args.Get(0).([]store.Record)
	return records, args.Error(1)
}

func (m *MockAdapter) FetchFiltered(ctx context.Context, ref store.CollectionRef, filter store.Filter) ([]store.Record, error) {
	args := m.Called(ctx, ref, filter)
	records, _ := args.Get(0).([]store.Record)
	return records, args.Error(1)
}

func (m *MockAdapter) Create(ctx context.Context, ref store.CollectionRef, payload store.Payload) (string, error) {
	args := m.Called(ctx, ref, payload)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) Upsert(ctx context.Context, ref store.CollectionRef, id string, payload store.Payload) error {
	args := m.Called(ctx, ref, id, payload)
	return args.Error(0)
}

func (m *MockAdapter) Delete(ctx context.Context, ref store.CollectionRef, id string) error {
	args := m.Called(ctx, ref, id)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newMemoryAdapter(t *testing.T) store.Adapter {
	t.Helper()
	tree, err := store.NewMemoryTree()
	require.NoError(t, err)
	return store.NewTreeAdapter(tree)
}

func TestProjectRepository_ApprovalScenario(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository(newMemoryAdapter(t), WithClock(fixedClock))

	// Arrange: a submitted project, even one claiming to be approved, starts unapproved.
	id, err := repo.Create(ctx, models.Project{
		Title:      "X",
		Photos:     []string{"https://img/1.png", "", "https://img/1.png"},
		Categories: []string{"tools", "games"},
		Approved:   true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	created := all[0]
	assert.Equal(t, id, created.ID())
	assert.False(t, created.Approved)
	assert.True(t, created.CreatedAt.Equal(fixedNow))
	assert.Equal(t, []string{"https://img/1.png", "", "https://img/1.png"}, created.Photos)
	assert.Equal(t, []string{"tools", "games"}, created.Categories)

	approved, err := repo.LoadApprovedOnly(ctx)
	require.NoError(t, err)
	assert.Empty(t, approved)

	// Act
	committed, err := repo.SetReviewFlag(ctx, created, true)
	require.NoError(t, err)
	assert.True(t, committed.Approved)

	// Assert
	approved, err = repo.LoadApprovedOnly(ctx)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, id, approved[0].ID())
	assert.Equal(t, "X", approved[0].Title)
	assert.Equal(t, created.Photos, approved[0].Photos)
}

func TestRepository_FilterCorrectness(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(newMemoryAdapter(t), WithClock(fixedClock))
	rng := rand.New(rand.NewSource(42))

	var ids []string
	for step := 0; step < 60; step++ {
		if len(ids) == 0 || rng.Intn(3) == 0 {
			id, err := repo.Create(ctx, models.Question{Email: "a@b.c", Subject: "s"})
			require.NoError(t, err)
			ids = append(ids, id)
			continue
		}
		all, err := repo.LoadAll(ctx)
		require.NoError(t, err)
		item := all[rng.Intn(len(all))]
		_, err = repo.SetReviewFlag(ctx, item, !item.ReviewFlag())
		require.NoError(t, err)

		approved, err := repo.LoadApprovedOnly(ctx)
		require.NoError(t, err)
		for _, q := range approved {
			assert.True(t, q.Answered, "question %s returned while unanswered", q.ID())
		}
	}
}

func TestRepository_DeleteConsistency(t *testing.T) {
	ctx := context.Background()
	repo := NewRegistrationRepository(newMemoryAdapter(t), WithClock(fixedClock))

	keep, err := repo.Create(ctx, models.Registration{FirstName: "Amal", IDNumber: "0912"})
	require.NoError(t, err)
	drop, err := repo.Create(ctx, models.Registration{FirstName: "Sami"})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, drop))

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, keep, all[0].ID())
	assert.Equal(t, "0912", all[0].IDNumber)
}

func TestRepository_SetReviewFlagWritesFullRecord(t *testing.T) {
	ctx := context.Background()
	adapter := new(MockAdapter)
	repo := NewRegistrationRepository(adapter)

	item := models.Registration{
		RecordID:       "r1",
		FirstName:      "Amal",
		LastName:       "B",
		IDNumber:       "0912",
		Phone:          "+216",
		Email:          "amal@x.io",
		Facebook:       "fb/amal",
		University:     "ENIT",
		InternshipType: "summer",
		StartDate:      "2024-07-01",
		EndDate:        "2024-08-31",
		TrainingOption: "remote",
		CreatedAt:      fixedNow,
	}
	want := store.Payload{
		"firstName":      "Amal",
		"lastName":       "B",
		"cin":            "0912",
		"phone":          "+216",
		"email":          "amal@x.io",
		"facebook":       "fb/amal",
		"university":     "ENIT",
		"internshipType": "summer",
		"startDate":      "2024-07-01",
		"endDate":        "2024-08-31",
		"trainingOption": "remote",
		"status":         true,
		"createdAt":      fixedNow,
	}
	adapter.On("Upsert", ctx, store.RegistrationsCollection, "r1", want).Return(nil).Once()

	got, err := repo.SetReviewFlag(ctx, item, true)

	require.NoError(t, err)
	assert.True(t, got.Status)
	assert.False(t, item.Status)
	adapter.AssertExpectations(t)
}

func TestRepository_Errors(t *testing.T) {
	ctx := context.Background()
	cause := &store.AdapterError{Op: store.OpUpsert, Collection: store.QuestionsCollection, ID: "q7", Cause: errors.New("permission denied")}

	t.Run("SetReviewFlag", func(t *testing.T) {
		adapter := new(MockAdapter)
		adapter.On("Upsert", ctx, store.QuestionsCollection, "q7", mock.Anything).Return(cause).Once()
		repo := NewQuestionRepository(adapter)

		_, err := repo.SetReviewFlag(ctx, models.Question{RecordID: "q7"}, true)

		var re *RepositoryError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, models.KindQuestion, re.Kind)
		assert.Equal(t, OpSetReviewFlag, re.Op)
		assert.Equal(t, "q7", re.ID)
		var ae *store.AdapterError
		assert.ErrorAs(t, err, &ae)
		adapter.AssertExpectations(t)
	})

	t.Run("MissingID", func(t *testing.T) {
		adapter := new(MockAdapter)
		repo := NewQuestionRepository(adapter)

		_, err := repo.SetReviewFlag(ctx, models.Question{}, true)
		assert.ErrorIs(t, err, ErrMissingID)
		assert.ErrorIs(t, repo.Remove(ctx, ""), ErrMissingID)
		adapter.AssertNotCalled(t, "Upsert")
		adapter.AssertNotCalled(t, "Delete")
	})

	t.Run("LoadAll", func(t *testing.T) {
		adapter := new(MockAdapter)
		adapter.On("FetchAll", ctx, store.ProjectsCollection).Return(nil, errors.New("offline")).Once()
		repo := NewProjectRepository(adapter)

		items, err := repo.LoadAll(ctx)
		assert.Nil(t, items)
		var re *RepositoryError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, OpLoadAll, re.Op)
		assert.EqualError(t, err, "project load_all: offline")
	})

	t.Run("Create", func(t *testing.T) {
		adapter := new(MockAdapter)
		adapter.On("Create", ctx, store.ProjectsCollection, mock.MatchedBy(func(p store.Payload) bool {
			return p["approved"] == false && p["createdAt"] == fixedNow
		})).Return("", errors.New("quota")).Once()
		repo := NewProjectRepository(adapter, WithClock(fixedClock))

		id, err := repo.Create(ctx, models.Project{Title: "X", Approved: true})
		assert.Empty(t, id)
		var re *RepositoryError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, OpCreate, re.Op)
		adapter.AssertExpectations(t)
	})

	t.Run("SetReviewFlagByIDNotFound", func(t *testing.T) {
		adapter := new(MockAdapter)
		adapter.On("FetchAll", ctx, store.QuestionsCollection).Return([]store.Record{}, nil).Once()
		repo := NewQuestionRepository(adapter)

		_, err := repo.SetReviewFlagByID(ctx, "q9", true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_SetReviewFlagByID(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(newMemoryAdapter(t), WithClock(fixedClock))

	id, err := repo.Create(ctx, models.Question{Email: "a@b.c", Subject: "Hi", Content: "?"})
	require.NoError(t, err)

	updated, err := repo.SetReviewFlagByID(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, updated.Answered)
	assert.Equal(t, "Hi", updated.Subject)
}

func TestRepository_BoundaryValidation(t *testing.T) {
	ctx := context.Background()
	adapter := new(MockAdapter)
	adapter.On("FetchAll", ctx, store.ProjectsCollection).Return([]store.Record{
		{ID: "p1", Payload: store.Payload{
			"title":      "Good",
			"approved":   true,
			"photos":     []interface{}{"a", "", "a"},
			"categories": []interface{}{},
			"createdAt":  "2024-03-10T08:30:00Z",
		}},
		{ID: "p2", Payload: store.Payload{"title": "Bad", "approved": "yes"}},
		{ID: "p3", Payload: store.Payload{"title": "Bad date", "createdAt": "yesterday"}},
		{ID: "p4", Payload: store.Payload{"title": "Sparse", "extra": 12.5}},
	}, nil).Once()
	repo := NewProjectRepository(adapter)

	items, err := repo.LoadAll(ctx)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ID())
	assert.Equal(t, []string{"a", "", "a"}, items[0].Photos)
	assert.True(t, items[0].CreatedAt.Equal(time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)))
	assert.Equal(t, "p4", items[1].ID())
	assert.Equal(t, "Sparse", items[1].Title)
	assert.False(t, items[1].Approved)
	adapter.AssertExpectations(t)
}

func TestRepository_LoadApprovedOnlyDropsUnflagged(t *testing.T) {
	ctx := context.Background()
	adapter := new(MockAdapter)
	filter := store.Filter{Field: "approved", Value: true}
	adapter.On("FetchFiltered", ctx, store.ProjectsCollection, filter).Return([]store.Record{
		{ID: "p1", Payload: store.Payload{"approved": true}},
		{ID: "p2", Payload: store.Payload{"approved": false}},
	}, nil).Once()
	repo := NewProjectRepository(adapter)

	items, err := repo.LoadApprovedOnly(ctx)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ID())
	adapter.AssertExpectations(t)
}
