package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"moderation-console/internal/models"
	"moderation-console/internal/store"
)

// Repository loads and mutates one entity kind through a store adapter.
// It never retries and never writes partial records.
type Repository[T models.Reviewable[T]] struct {
	adapter store.Adapter
	codec   Codec[T]
	now     func() time.Time
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used to stamp createdAt on new items.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a repository for the kind described by codec.
func New[T models.Reviewable[T]](adapter store.Adapter, codec Codec[T], opts ...Option) *Repository[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Repository[T]{
		adapter: adapter,
		codec:   codec,
		now:     o.now,
	}
}

// NewProjectRepository creates the repository for community projects.
func NewProjectRepository(adapter store.Adapter, opts ...Option) *Repository[models.Project] {
	return New(adapter, ProjectCodec, opts...)
}

// NewRegistrationRepository creates the repository for internship registrations.
func NewRegistrationRepository(adapter store.Adapter, opts ...Option) *Repository[models.Registration] {
	return New(adapter, RegistrationCodec, opts...)
}

// NewQuestionRepository creates the repository for support questions.
func NewQuestionRepository(adapter store.Adapter, opts ...Option) *Repository[models.Question] {
	return New(adapter, QuestionCodec, opts...)
}

// Kind returns the entity kind served by this repository.
func (r *Repository[T]) Kind() string {
	return r.codec.Kind
}

func (r *Repository[T]) fail(op, id string, err error) error {
	return &RepositoryError{Kind: r.codec.Kind, Op: op, ID: id, Err: err}
}

// decodeAll turns records into entities, skipping records that do not match the kind's shape.
func (r *Repository[T]) decodeAll(records []store.Record) []T {
	items := make([]T, 0, len(records))
	for _, rec := range records {
		item, err := r.codec.Decode(rec)
		if err != nil {
			log.Warn().Err(err).
				Str("kind", r.codec.Kind).
				Str("id", rec.ID).
				Msg("Skipping malformed record")
			continue
		}
		items = append(items, item)
	}
	return items
}

// LoadAll returns every item of the kind, whatever its review state.
func (r *Repository[T]) LoadAll(ctx context.Context) ([]T, error) {
	records, err := r.adapter.FetchAll(ctx, r.codec.Collection)
	if err != nil {
		return nil, r.fail(OpLoadAll, "", err)
	}
	return r.decodeAll(records), nil
}

// LoadApprovedOnly returns the items whose review flag is true. The filter is
// pushed to the adapter; backends with a query engine evaluate it remotely.
func (r *Repository[T]) LoadApprovedOnly(ctx context.Context) ([]T, error) {
	records, err := r.adapter.FetchFiltered(ctx, r.codec.Collection, store.Filter{Field: r.codec.FlagField, Value: true})
	if err != nil {
		return nil, r.fail(OpLoadApproved, "", err)
	}
	items := r.decodeAll(records)
	// Guard against a backend that returned a record the filter should have excluded.
	out := items[:0]
	for _, item := range items {
		if item.ReviewFlag() {
			out = append(out, item)
		}
	}
	return out, nil
}

// Create stores a new item with its review flag cleared and createdAt stamped,
// and returns the id assigned by the store.
func (r *Repository[T]) Create(ctx context.Context, item T) (string, error) {
	fresh := r.codec.Stamp(item.WithReviewFlag(false), r.now().UTC())
	id, err := r.adapter.Create(ctx, r.codec.Collection, r.codec.Encode(fresh))
	if err != nil {
		return "", r.fail(OpCreate, "", err)
	}
	log.Info().Str("kind", r.codec.Kind).Str("id", id).Msg("Item created")
	return id, nil
}

// SetReviewFlag writes the full last-known item with its flag set to value in a
// single upsert and returns the item as committed. Nothing is read back.
func (r *Repository[T]) SetReviewFlag(ctx context.Context, item T, value bool) (T, error) {
	var zero T
	id := item.ID()
	if id == "" {
		return zero, r.fail(OpSetReviewFlag, "", ErrMissingID)
	}
	updated := item.WithReviewFlag(value)
	if err := r.adapter.Upsert(ctx, r.codec.Collection, id, r.codec.Encode(updated)); err != nil {
		return zero, r.fail(OpSetReviewFlag, id, err)
	}
	log.Info().Str("kind", r.codec.Kind).Str("id", id).Bool(r.codec.FlagField, value).Msg("Review flag updated")
	return updated, nil
}

// SetReviewFlagByID loads the current item first, for callers holding no local copy.
func (r *Repository[T]) SetReviewFlagByID(ctx context.Context, id string, value bool) (T, error) {
	var zero T
	items, err := r.LoadAll(ctx)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.ID() == id {
			return r.SetReviewFlag(ctx, item, value)
		}
	}
	return zero, r.fail(OpSetReviewFlag, id, ErrNotFound)
}

// Remove deletes the item from the store.
func (r *Repository[T]) Remove(ctx context.Context, id string) error {
	if id == "" {
		return r.fail(OpRemove, "", ErrMissingID)
	}
	if err := r.adapter.Delete(ctx, r.codec.Collection, id); err != nil {
		return r.fail(OpRemove, id, err)
	}
	log.Info().Str("kind", r.codec.Kind).Str("id", id).Msg("Item removed")
	return nil
}
