package shortlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

// AddResult is the outcome of TryAdd.
type AddResult int

const (
	Added AddResult = iota
	RejectedFull
	RejectedDuplicate
	RejectedInvalid
)

func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case RejectedFull:
		return "rejected_full"
	case RejectedDuplicate:
		return "rejected_duplicate"
	case RejectedInvalid:
		return "rejected_invalid"
	default:
		return "unknown"
	}
}

// Message is the notification text for a rejection, empty for Added.
func (r AddResult) Message() string {
	switch r {
	case RejectedFull:
		return domain.MsgShortlistFull
	case RejectedDuplicate:
		return domain.MsgAlreadyShortlist
	case RejectedInvalid:
		return domain.MsgInvalidMovie
	default:
		return ""
	}
}

// persistTimeout bounds a single backend call.
const persistTimeout = 5 * time.Second

// Store is the bounded, ordered, deduplicated shortlist.
// Every successful mutation is written through to the backend before the
// mutating call returns.
type Store struct {
	backend  Backend
	logger   logger.Logger
	onChange func()

	mu     sync.RWMutex
	movies []domain.Movie
}

// Open loads the persisted shortlist. Missing or malformed data is not an
// error: the store simply starts empty.
func Open(ctx context.Context, backend Backend, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		backend: backend,
		logger:  log,
		movies:  []domain.Movie{},
	}

	movies, err := s.load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		log.Debug("no persisted shortlist, starting empty")
	case err != nil:
		log.Warn("discarding unreadable shortlist", logger.Error(err))
	default:
		s.movies = movies
		log.Info("shortlist loaded", logger.Int("count", len(movies)))
	}
	return s
}

// OnChange registers fn to run after every successful mutation.
// Call it before the store is shared.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

func (s *Store) load(ctx context.Context) ([]domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	data, err := s.backend.Read(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a persisted shortlist and checks its invariants.
func Decode(data []byte) ([]domain.Movie, error) {
	var movies []domain.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shortlist: %w", err)
	}
	if movies == nil {
		return nil, errors.New("shortlist is null")
	}
	if len(movies) > domain.MaxShortlist {
		return nil, fmt.Errorf("shortlist has %d entries, max %d", len(movies), domain.MaxShortlist)
	}
	seen := make(map[string]bool, len(movies))
	for i, m := range movies {
		if !m.Valid() {
			return nil, fmt.Errorf("shortlist entry %d has no id", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("shortlist has duplicate id %s", m.ID)
		}
		seen[m.ID] = true
	}
	return movies, nil
}

// TryAdd appends movie unless the shortlist is full or already holds its id.
// Capacity is checked before duplicates. A movie without an id is refused
// outright since Decode would reject the whole persisted list because of it.
func (s *Store) TryAdd(movie domain.Movie) AddResult {
	if !movie.Valid() {
		return RejectedInvalid
	}

	s.mu.Lock()
	if len(s.movies) >= domain.MaxShortlist {
		s.mu.Unlock()
		return RejectedFull
	}
	if s.indexLocked(movie.ID) >= 0 {
		s.mu.Unlock()
		return RejectedDuplicate
	}
	s.movies = append(s.movies, movie)
	s.persistLocked()
	s.mu.Unlock()

	s.changed()
	return Added
}

// Remove deletes the movie with id. Unknown ids are ignored.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]domain.Movie, 0, len(s.movies)-1)
	next = append(next, s.movies[:i]...)
	next = append(next, s.movies[i+1:]...)
	s.movies = next
	s.persistLocked()
	s.mu.Unlock()

	s.changed()
}

// Clear empties the shortlist.
func (s *Store) Clear() {
	s.mu.Lock()
	s.movies = []domain.Movie{}
	s.persistLocked()
	s.mu.Unlock()

	s.changed()
}

// Movies returns a copy of the shortlist in insertion order.
func (s *Store) Movies() []domain.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Movie, len(s.movies))
	copy(out, s.movies)
	return out
}

// IDs returns the shortlisted ids in order; this is the exclusion set.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.IDs(s.movies)
}

// Len returns the number of shortlisted movies.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies)
}

func (s *Store) indexLocked(id string) int {
	for i, m := range s.movies {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full list. A failed write keeps the in-memory
// state: the session carries on and the next mutation retries the write.
func (s *Store) persistLocked() {
	data, err := json.Marshal(s.movies)
	if err != nil {
		s.logger.Warn("failed to marshal shortlist", logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.backend.Write(ctx, data); err != nil {
		s.logger.Warn("failed to persist shortlist",
			logger.Int("count", len(s.movies)),
			logger.Error(err))
	}
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
