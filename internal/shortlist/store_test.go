package shortlist

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
)

func movie(id string) domain.Movie {
	return domain.Movie{
		ID:    id,
		Title: "Film " + id,
		URL:   "https://letterboxd.com/film/" + id + "/",
	}
}

func openEmpty(t *testing.T) (*Store, *MemoryBackend) {
	t.Helper()
	backend := NewMemoryBackend(nil)
	return Open(context.Background(), backend, logger.Nop()), backend
}

func TestTryAdd(t *testing.T) {
	s, backend := openEmpty(t)

	if got := s.TryAdd(movie("m1")); got != Added {
		t.Fatalf("TryAdd(m1) = %v, want added", got)
	}
	if got := s.TryAdd(movie("m2")); got != Added {
		t.Fatalf("TryAdd(m2) = %v, want added", got)
	}

	if got := s.IDs(); !reflect.DeepEqual(got, []string{"m1", "m2"}) {
		t.Errorf("IDs() = %v, want insertion order [m1 m2]", got)
	}
	if backend.Writes() != 2 {
		t.Errorf("backend writes = %d, want 2", backend.Writes())
	}
}

func TestTryAdd_Duplicate(t *testing.T) {
	s, backend := openEmpty(t)
	s.TryAdd(movie("m1"))
	s.TryAdd(movie("m2"))
	before := s.Movies()

	dup := movie("m1")
	dup.Title = "different title, same id"
	if got := s.TryAdd(dup); got != RejectedDuplicate {
		t.Fatalf("TryAdd(dup) = %v, want rejected_duplicate", got)
	}
	if !reflect.DeepEqual(s.Movies(), before) {
		t.Errorf("duplicate changed the shortlist: %v", s.Movies())
	}
	if backend.Writes() != 2 {
		t.Errorf("rejected add persisted, writes = %d", backend.Writes())
	}
}

func TestTryAdd_FullBeforeDuplicate(t *testing.T) {
	s, _ := openEmpty(t)
	for i := 1; i <= domain.MaxShortlist; i++ {
		if got := s.TryAdd(movie(fmt.Sprintf("m%d", i))); got != Added {
			t.Fatalf("TryAdd #%d = %v", i, got)
		}
	}
	before := s.Movies()

	tests := []struct {
		name string
		id   string
	}{
		{name: "sixth distinct movie", id: "m6"},
		{name: "already present id", id: "m3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.TryAdd(movie(tt.id))
			if got != RejectedFull {
				t.Fatalf("TryAdd(%s) = %v, want rejected_full", tt.id, got)
			}
			if got.Message() != "Shortlist is full (maximum 5 movies)" {
				t.Errorf("Message() = %q", got.Message())
			}
			if !reflect.DeepEqual(s.Movies(), before) {
				t.Error("rejected add changed the shortlist")
			}
		})
	}
}

func TestTryAdd_NeverExceedsCapacity(t *testing.T) {
	s, _ := openEmpty(t)
	for i := 0; i < 50; i++ {
		s.TryAdd(movie(fmt.Sprintf("m%d", i%8)))
		if s.Len() > domain.MaxShortlist {
			t.Fatalf("len = %d after %d adds", s.Len(), i+1)
		}
		if i%7 == 3 {
			s.Remove(fmt.Sprintf("m%d", i%5))
		}
	}
}

func TestRemove(t *testing.T) {
	s, backend := openEmpty(t)
	s.TryAdd(movie("m1"))
	s.TryAdd(movie("m2"))
	s.TryAdd(movie("m3"))

	s.Remove("m2")
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"m1", "m3"}) {
		t.Errorf("IDs() after remove = %v", got)
	}
	writes := backend.Writes()

	s.Remove("missing")
	if got := s.IDs(); !reflect.DeepEqual(got, []string{"m1", "m3"}) {
		t.Errorf("removing absent id changed the list: %v", got)
	}
	if backend.Writes() != writes {
		t.Error("removing absent id should not persist")
	}
}

func TestClear(t *testing.T) {
	s, backend := openEmpty(t)
	s.TryAdd(movie("m1"))

	s.Clear()
	if s.Len() != 0 {
		t.Errorf("Len() after Clear = %d", s.Len())
	}

	data, err := backend.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("persisted %q after Clear, want []", data)
	}
}

func TestRoundTrip(t *testing.T) {
	backend := NewMemoryBackend(nil)
	s := Open(context.Background(), backend, logger.Nop())

	withPoster := movie("m2")
	withPoster.ImageData = "data:image/jpeg;base64,AAAA"
	s.TryAdd(movie("m3"))
	s.TryAdd(withPoster)
	s.TryAdd(movie("m1"))

	reopened := Open(context.Background(), backend, logger.Nop())
	if !reflect.DeepEqual(reopened.Movies(), s.Movies()) {
		t.Errorf("reloaded %v, want %v", reopened.Movies(), s.Movies())
	}
}

func TestTryAdd_InvalidKeepsPersistedList(t *testing.T) {
	s, backend := openEmpty(t)
	s.TryAdd(movie("m1"))
	s.TryAdd(movie("m2"))

	if got := s.TryAdd(domain.Movie{Title: "no id"}); got != RejectedInvalid {
		t.Fatalf("TryAdd(no id) = %v, want rejected_invalid", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
	if backend.Writes() != 2 {
		t.Errorf("backend writes = %d, want 2", backend.Writes())
	}

	reopened := Open(context.Background(), backend, logger.Nop())
	if got := reopened.IDs(); !reflect.DeepEqual(got, []string{"m1", "m2"}) {
		t.Errorf("reloaded IDs = %v, want [m1 m2]", got)
	}
}

func TestOpen_MalformedStartsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{oops"},
		{name: "object instead of array", data: `{"id":"m1"}`},
		{name: "null", data: "null"},
		{name: "too many", data: `[{"id":"1"},{"id":"2"},{"id":"3"},{"id":"4"},{"id":"5"},{"id":"6"}]`},
		{name: "duplicate ids", data: `[{"id":"1"},{"id":"1"}]`},
		{name: "missing id", data: `[{"title":"x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Open(context.Background(), NewMemoryBackend([]byte(tt.data)), logger.Nop())
			if s.Len() != 0 {
				t.Errorf("Len() = %d, want 0", s.Len())
			}
			if got := s.TryAdd(movie("m1")); got != Added {
				t.Errorf("store unusable after recovery: %v", got)
			}
		})
	}
}

func TestOpen_BackendErrorStartsEmpty(t *testing.T) {
	s := Open(context.Background(), failingBackend{}, logger.Nop())
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestWriteFailureKeepsState(t *testing.T) {
	s, backend := openEmpty(t)
	backend.FailWrites(errors.New("disk full"))

	if got := s.TryAdd(movie("m1")); got != Added {
		t.Fatalf("TryAdd = %v", got)
	}
	if s.Len() != 1 {
		t.Errorf("in-memory state lost after failed write")
	}
}

func TestOnChange(t *testing.T) {
	s, _ := openEmpty(t)
	calls := 0
	s.OnChange(func() { calls++ })

	s.TryAdd(movie("m1"))
	s.TryAdd(movie("m1")) // rejected
	s.Remove("nope")      // no-op
	s.Remove("m1")
	s.Clear()

	if calls != 3 {
		t.Errorf("onChange called %d times, want 3", calls)
	}
}

func TestAddResultStrings(t *testing.T) {
	if Added.Message() != "" {
		t.Error("Added should have no message")
	}
	if RejectedDuplicate.Message() != "This movie is already in your shortlist" {
		t.Errorf("duplicate message = %q", RejectedDuplicate.Message())
	}
	if RejectedInvalid.Message() == "" || RejectedInvalid.String() != "rejected_invalid" {
		t.Errorf("invalid result = %q / %q", RejectedInvalid.String(), RejectedInvalid.Message())
	}
	if RejectedDuplicate.String() != "rejected_duplicate" {
		t.Errorf("String() = %q", RejectedDuplicate.String())
	}
}

type failingBackend struct{}

func (failingBackend) Read(context.Context) ([]byte, error) { return nil, errors.New("unreachable") }
func (failingBackend) Write(context.Context, []byte) error  { return errors.New("unreachable") }
