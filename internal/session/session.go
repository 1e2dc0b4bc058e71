// Package session is the client state of one user: the username field,
// the recommendation request, the shortlist and the notification slot.
// It is independent of any rendering; observers receive Snapshots.
package session

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/notify"
	"github.com/MrSnakeDoc/boxdpick/internal/recommend"
	"github.com/MrSnakeDoc/boxdpick/internal/scheduler"
	"github.com/MrSnakeDoc/boxdpick/internal/shortlist"
)

// Snapshot is a read-only view of the whole session.
type Snapshot struct {
	Usernames    string         `json:"usernames"`
	Handles      []string       `json:"handles"`
	NumMovies    int            `json:"num_movies"`
	UseCache     bool           `json:"use_cache"`
	CanSubmit    bool           `json:"can_submit"`
	Request      RequestState   `json:"request"`
	Shortlist    []domain.Movie `json:"shortlist"`
	Notification notify.State   `json:"notification"`
}

// Config wires a Session.
type Config struct {
	Recommender    recommend.Recommender
	Shortlist      *shortlist.Store
	Logger         logger.Logger
	Clock          scheduler.Clock
	NotifyDuration time.Duration
	RequestTimeout time.Duration
	NumMovies      int
	UseCache       bool
}

// Session composes the client components and fans out change notifications.
type Session struct {
	field      *UsernameField
	controller *Controller
	shortlist  *shortlist.Store
	notices    *notify.Queue
	logger     logger.Logger

	mu        sync.Mutex
	observers map[int]func(Snapshot)
	nextID    int

	// pubMu orders snapshot capture and delivery so the last snapshot an
	// observer receives is never older than the state it follows.
	pubMu sync.Mutex
}

// New builds a session around an already opened shortlist store.
func New(cfg Config) (*Session, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Session{
		field:     &UsernameField{},
		shortlist: cfg.Shortlist,
		logger:    log,
		observers: make(map[int]func(Snapshot)),
	}

	s.notices = notify.New(
		notify.WithClock(cfg.Clock),
		notify.WithDuration(cfg.NotifyDuration),
		notify.OnChange(s.publish),
	)

	controller, err := NewController(ControllerConfig{
		Handles:     s.field,
		Exclusions:  cfg.Shortlist,
		Recommender: cfg.Recommender,
		Logger:      log.Named("request"),
		Timeout:     cfg.RequestTimeout,
		NumMovies:   cfg.NumMovies,
		UseCache:    cfg.UseCache,
		OnChange:    s.publish,
	})
	if err != nil {
		return nil, err
	}
	s.controller = controller

	cfg.Shortlist.OnChange(s.publish)
	return s, nil
}

// OnChange applies an edit to the username field. A rejected edit shows
// the too-many-usernames notification; an accepted one clears a displayed
// request error.
func (s *Session) OnChange(raw string) bool {
	if !s.field.OnChange(raw) {
		s.logger.Debug("username edit rejected", logger.Int("handles", len(domain.SplitUsernames(raw))))
		s.notices.Show(domain.MsgTooManyUsernames)
		return false
	}
	s.controller.ClearError()
	s.publish()
	return true
}

// Submit starts a recommendation request; see Controller.Submit.
func (s *Session) Submit() <-chan struct{} {
	return s.controller.Submit()
}

// TryAdd puts movie on the shortlist and reports rejections to the user.
func (s *Session) TryAdd(movie domain.Movie) shortlist.AddResult {
	res := s.shortlist.TryAdd(movie)
	if msg := res.Message(); msg != "" {
		s.notices.Show(msg)
	}
	s.logger.Debug("shortlist add",
		logger.String("id", movie.ID),
		logger.String("result", res.String()))
	return res
}

// Remove drops id from the shortlist.
func (s *Session) Remove(id string) {
	s.shortlist.Remove(id)
}

// ClearShortlist empties the shortlist.
func (s *Session) ClearShortlist() {
	s.shortlist.Clear()
}

// ResetRequest clears results and errors; an in-flight request is dropped.
func (s *Session) ResetRequest() {
	s.controller.Reset()
}

// Dismiss hides the current notification.
func (s *Session) Dismiss() {
	s.notices.Hide()
}

// SetNumMovies sets the requested suggestion count (1-5).
func (s *Session) SetNumMovies(n int) error {
	if err := s.controller.SetNumMovies(n); err != nil {
		return err
	}
	s.publish()
	return nil
}

// SetUseCache toggles the service cache flag.
func (s *Session) SetUseCache(use bool) {
	s.controller.SetUseCache(use)
	s.publish()
}

// Snapshot returns the current state of every component.
func (s *Session) Snapshot() Snapshot {
	numMovies, useCache := s.controller.Options()
	return Snapshot{
		Usernames:    s.field.Value(),
		Handles:      s.field.Commit(),
		NumMovies:    numMovies,
		UseCache:     useCache,
		CanSubmit:    s.controller.CanSubmit(),
		Request:      s.controller.State(),
		Shortlist:    s.shortlist.Movies(),
		Notification: s.notices.Snapshot(),
	}
}

// Subscribe registers fn to receive a Snapshot after every change and
// returns a function that unregisters it. fn may be called from several
// goroutines (request completion, dismissal timer, callers) but never
// concurrently, and always in state order. It must not block or call back
// into the session.
func (s *Session) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Close tears the session down. A request still in flight is left to
// finish but its result is discarded.
func (s *Session) Close() {
	s.controller.Close()
	s.notices.Hide()

	s.mu.Lock()
	s.observers = make(map[int]func(Snapshot))
	s.mu.Unlock()
}

func (s *Session) publish() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if len(s.observers) == 0 {
		s.mu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
