package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/recommend"
)

// Phase is the lifecycle position of the recommendation request.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSucceeded  Phase = "succeeded"
	PhaseFailed     Phase = "failed"
)

// RequestState is the observable request lifecycle.
// Movies is set only in PhaseSucceeded (possibly empty), Error only in PhaseFailed.
type RequestState struct {
	Phase  Phase          `json:"phase"`
	Movies []domain.Movie `json:"movies"`
	Error  string         `json:"error,omitempty"`
}

// HandleSource yields the committed handle list at submit time.
type HandleSource interface {
	Commit() []string
}

// ExclusionSource yields the ids the service should leave out.
type ExclusionSource interface {
	IDs() []string
}

const defaultRequestTimeout = 2 * time.Minute

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Handles     HandleSource
	Exclusions  ExclusionSource
	Recommender recommend.Recommender
	Logger      logger.Logger
	// Timeout bounds one request; the service scrapes watchlists and can be slow.
	Timeout   time.Duration
	NumMovies int
	UseCache  bool
	OnChange  func()
}

// Controller drives Idle -> Submitting -> Succeeded|Failed. At most one
// request is in flight; a result that arrives after Reset or Close is dropped.
type Controller struct {
	handles    HandleSource
	exclusions ExclusionSource
	client     recommend.Recommender
	logger     logger.Logger
	timeout    time.Duration
	onChange   func()

	mu        sync.Mutex
	state     RequestState
	gen       uint64
	closed    bool
	numMovies int
	useCache  bool
}

// NewController validates cfg and returns an idle controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if cfg.Handles == nil || cfg.Exclusions == nil || cfg.Recommender == nil {
		return nil, errors.New("controller needs handles, exclusions and a recommender")
	}
	if cfg.NumMovies == 0 {
		cfg.NumMovies = domain.MinMovies
	}
	if err := checkNumMovies(cfg.NumMovies); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Controller{
		handles:    cfg.Handles,
		exclusions: cfg.Exclusions,
		client:     cfg.Recommender,
		logger:     cfg.Logger,
		timeout:    cfg.Timeout,
		onChange:   cfg.OnChange,
		state:      RequestState{Phase: PhaseIdle},
		numMovies:  cfg.NumMovies,
		useCache:   cfg.UseCache,
	}, nil
}

// Submit starts a request and returns a channel closed once its outcome is
// applied. It returns nil, without any state change, when a request is
// already in flight or there is no handle to submit.
func (c *Controller) Submit() <-chan struct{} {
	handles := c.handles.Commit()
	if len(handles) == 0 {
		c.logger.Debug("submit ignored: no usernames")
		return nil
	}
	excluded := c.exclusions.IDs()

	c.mu.Lock()
	if c.closed || c.state.Phase == PhaseSubmitting {
		c.mu.Unlock()
		c.logger.Debug("submit ignored: request in flight or controller closed")
		return nil
	}
	c.gen++
	gen := c.gen
	c.state = RequestState{Phase: PhaseSubmitting}
	req := recommend.Request{
		Usernames:  handles,
		ExcludeIDs: excluded,
		NumMovies:  c.numMovies,
		UseCache:   c.useCache,
	}
	c.mu.Unlock()

	c.changed()

	done := make(chan struct{})
	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		movies, err := c.client.Recommend(ctx, req)
		c.resolve(gen, movies, err)
	}()
	return done
}

func (c *Controller) resolve(gen uint64, movies []domain.Movie, err error) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("dropping stale recommendation response")
		return
	}
	if err != nil {
		msg := recommend.UserMessage(err)
		c.state = RequestState{Phase: PhaseFailed, Error: msg}
		c.mu.Unlock()
		c.logger.Warn("recommendation request failed",
			logger.String("message", msg),
			logger.Error(err))
		c.changed()
		return
	}
	if movies == nil {
		movies = []domain.Movie{}
	}
	c.state = RequestState{Phase: PhaseSucceeded, Movies: movies}
	c.mu.Unlock()

	c.logger.Info("recommendations ready", logger.Int("count", len(movies)))
	c.changed()
}

// ClearError drops a Failed outcome back to Idle. It reports whether the
// state changed.
func (c *Controller) ClearError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != PhaseFailed {
		return false
	}
	c.state = RequestState{Phase: PhaseIdle}
	return true
}

// Reset returns to Idle. A request still in flight resolves into nothing.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.gen++
	c.state = RequestState{Phase: PhaseIdle}
	c.mu.Unlock()

	c.changed()
}

// Close stops the controller for good; late responses are ignored and
// further submits are no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	c.mu.Unlock()
}

// State returns a copy of the request state.
func (c *Controller) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state
	if st.Movies != nil {
		st.Movies = append([]domain.Movie{}, st.Movies...)
	}
	return st
}

// CanSubmit reports whether Submit would start a request right now.
func (c *Controller) CanSubmit() bool {
	if len(c.handles.Commit()) == 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.state.Phase != PhaseSubmitting
}

// SetNumMovies changes how many suggestions the next request asks for.
func (c *Controller) SetNumMovies(n int) error {
	if err := checkNumMovies(n); err != nil {
		return err
	}
	c.mu.Lock()
	c.numMovies = n
	c.mu.Unlock()
	return nil
}

// SetUseCache toggles the service-side watchlist cache for the next request.
func (c *Controller) SetUseCache(use bool) {
	c.mu.Lock()
	c.useCache = use
	c.mu.Unlock()
}

// Options returns the current request options.
func (c *Controller) Options() (numMovies int, useCache bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.numMovies, c.useCache
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}

func checkNumMovies(n int) error {
	if n < domain.MinMovies || n > domain.MaxMovies {
		return fmt.Errorf("number of movies must be between %d and %d, got %d", domain.MinMovies, domain.MaxMovies, n)
	}
	return nil
}
