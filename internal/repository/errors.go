package repository

import (
	"errors"
	"fmt"
)

// Repository operation names reported in RepositoryError.
const (
	OpLoadAll       = "load_all"
	OpLoadApproved  = "load_approved"
	OpCreate        = "create"
	OpSetReviewFlag = "set_review_flag"
	OpRemove        = "remove"
)

// ErrNotFound is returned when an id is not present in the collection.
var ErrNotFound = errors.New("item not found")

// ErrMissingID is returned when a mutation is asked for an item without an id.
var ErrMissingID = errors.New("item has no id")

// RepositoryError adds entity context to a store failure.
type RepositoryError struct {
	Kind string
	Op   string
	ID   string
	Err  error
}

func (e *RepositoryError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Kind, e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}
