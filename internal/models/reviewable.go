package models

// Entity kinds, used in error and log context.
const (
	KindProject      = "project"
	KindRegistration = "registration"
	KindQuestion     = "question"
)

// Reviewable is an entity with a stable id and one boolean review flag.
// Implementations are value types; every method returns copies so no two
// holders share mutable slices.
type Reviewable[T any] interface {
	ID() string
	ReviewFlag() bool
	WithReviewFlag(value bool) T
	Clone() T
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
