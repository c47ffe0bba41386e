package review

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"moderation-console/internal/models"
)

// ItemRepository is the persistence a screen needs for one entity kind.
type ItemRepository[T models.Reviewable[T]] interface {
	LoadAll(ctx context.Context) ([]T, error)
	LoadApprovedOnly(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (string, error)
	SetReviewFlag(ctx context.Context, item T, value bool) (T, error)
	Remove(ctx context.Context, id string) error
}

// AccessGate reports whether the session viewing a screen is authenticated.
type AccessGate interface {
	Attach()
	Detach()
	IsAuthenticated() bool
}

// LoadMode selects what a screen fetches on mount.
type LoadMode int

const (
	// LoadEverything fetches every item, for moderation screens.
	LoadEverything LoadMode = iota
	// LoadApproved fetches only flagged items, for the public listing.
	LoadApproved
)

// State is the lifecycle state of a screen.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

// Controller coordinates one screen: it loads items into its own tracker and
// applies moderator mutations, touching the tracker only after the store confirms.
// Mutations on different ids may run concurrently; a second mutation on an id
// that is still in flight is rejected.
type Controller[T models.Reviewable[T]] struct {
	name    string
	repo    ItemRepository[T]
	tracker *Tracker[T]
	gate    AccessGate
	mode    LoadMode

	mu       sync.Mutex
	state    State
	lastErr  error
	inFlight map[string]struct{}
	// mountGen changes on every Unmount; a load started under an older
	// generation is discarded when it returns.
	mountGen uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	gate AccessGate
	mode LoadMode
}

// WithGate attaches an access gate for the lifetime of each mount.
func WithGate(gate AccessGate) ControllerOption {
	return func(o *controllerOptions) {
		o.gate = gate
	}
}

// WithLoadMode sets what the screen fetches. The default is LoadEverything.
func WithLoadMode(mode LoadMode) ControllerOption {
	return func(o *controllerOptions) {
		o.mode = mode
	}
}

// NewController creates a controller in the Idle state with a fresh tracker.
func NewController[T models.Reviewable[T]](name string, repo ItemRepository[T], opts ...ControllerOption) *Controller[T] {
	var o controllerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		name:     name,
		repo:     repo,
		tracker:  NewTracker[T](),
		gate:     o.gate,
		mode:     o.mode,
		inFlight: make(map[string]struct{}),
	}
}

// Name returns the screen name.
func (c *Controller[T]) Name() string {
	return c.name
}

// Mount attaches the gate and performs the initial load.
func (c *Controller[T]) Mount(ctx context.Context) error {
	if c.gate != nil {
		c.gate.Attach()
	}
	return c.load(ctx)
}

// Reload fetches again after a failed or stale load. There is no automatic retry.
// It is rejected with ErrMutationInFlight while any mutation is pending, so a
// fetch never lands on top of a change the store has just confirmed.
func (c *Controller[T]) Reload(ctx context.Context) error {
	return c.load(ctx)
}

func (c *Controller[T]) load(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateLoading {
		c.mu.Unlock()
		return ErrLoadInProgress
	}
	if len(c.inFlight) > 0 {
		c.mu.Unlock()
		return ErrMutationInFlight
	}
	c.state = StateLoading
	gen := c.mountGen
	c.mu.Unlock()

	var (
		items []T
		err   error
	)
	if c.mode == LoadApproved {
		items, err = c.repo.LoadApprovedOnly(ctx)
	} else {
		items, err = c.repo.LoadAll(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.mountGen {
		log.Debug().Str("screen", c.name).Msg("Discarding load finished after unmount")
		return nil
	}
	if err != nil {
		c.state = StateLoadFailed
		c.lastErr = &OperationFailed{MessageID: MsgLoadFailed, Op: OpLoad, Cause: err}
		log.Error().Err(err).Str("screen", c.name).Msg("Screen load failed")
		return c.lastErr
	}
	c.tracker.Replace(items)
	c.state = StateReady
	c.lastErr = nil
	log.Debug().Str("screen", c.name).Int("count", len(items)).Msg("Screen loaded")
	return nil
}

// begin reserves id for a mutation and returns the last-known item.
func (c *Controller[T]) begin(id string) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return zero, ErrNotReady
	}
	if _, busy := c.inFlight[id]; busy {
		return zero, ErrMutationInFlight
	}
	item, ok := c.tracker.Get(id)
	if !ok {
		return zero, ErrItemNotFound
	}
	c.inFlight[id] = struct{}{}
	return item, nil
}

func (c *Controller[T]) release(id string) {
	c.mu.Lock()
	delete(c.inFlight, id)
	c.mu.Unlock()
}

// ToggleFlag flips the review flag of id in the store, then on the screen.
// On failure the screen is left unchanged and an *OperationFailed is returned.
func (c *Controller[T]) ToggleFlag(ctx context.Context, id string) (T, error) {
	var zero T
	item, err := c.begin(id)
	if err != nil {
		return zero, err
	}
	defer c.release(id)

	committed, err := c.repo.SetReviewFlag(ctx, item, !item.ReviewFlag())
	if err != nil {
		log.Error().Err(err).Str("screen", c.name).Str("id", id).Msg("Review flag update failed")
		return zero, &OperationFailed{MessageID: MsgToggleFailed, Op: OpToggle, ID: id, Cause: err}
	}

	applied, ok := c.tracker.ApplyFlag(id, committed.ReviewFlag())
	if !ok {
		log.Warn().Str("screen", c.name).Str("id", id).Msg("Item left the screen during flag update")
		return committed, nil
	}
	return applied, nil
}

// Delete removes id from the store, then from the screen.
func (c *Controller[T]) Delete(ctx context.Context, id string) error {
	if _, err := c.begin(id); err != nil {
		return err
	}
	defer c.release(id)

	if err := c.repo.Remove(ctx, id); err != nil {
		log.Error().Err(err).Str("screen", c.name).Str("id", id).Msg("Delete failed")
		return &OperationFailed{MessageID: MsgDeleteFailed, Op: OpDelete, ID: id, Cause: err}
	}
	c.tracker.RemoveByID(id)
	return nil
}

// Create stores a new item. The screen is not touched; the listing the user
// lands on afterwards fetches again.
func (c *Controller[T]) Create(ctx context.Context, item T) (string, error) {
	if !c.CanCreate() {
		return "", ErrNotAuthenticated
	}
	id, err := c.repo.Create(ctx, item)
	if err != nil {
		log.Error().Err(err).Str("screen", c.name).Msg("Create failed")
		return "", &OperationFailed{MessageID: MsgCreateFailed, Op: OpCreate, Cause: err}
	}
	return id, nil
}

// CanCreate reports whether the create affordance should be offered.
// Screens without a gate always allow it.
func (c *Controller[T]) CanCreate() bool {
	return c.gate == nil || c.gate.IsAuthenticated()
}

// Unmount detaches the gate and returns the screen to Idle. It is safe to call repeatedly.
func (c *Controller[T]) Unmount() {
	if c.gate != nil {
		c.gate.Detach()
	}
	c.mu.Lock()
	c.state = StateIdle
	c.lastErr = nil
	c.mountGen++
	c.tracker.Replace(nil)
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the error retained by the last failed load.
func (c *Controller[T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// InFlight reports whether id has a mutation pending.
func (c *Controller[T]) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[id]
	return ok
}

// Snapshot returns the items currently on the screen.
func (c *Controller[T]) Snapshot() []T {
	return c.tracker.Snapshot()
}
