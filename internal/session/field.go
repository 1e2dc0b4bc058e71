package session

import (
	"sync"

	"github.com/MrSnakeDoc/boxdpick/internal/domain"
)

// UsernameField holds the raw text the user is editing. The raw string is
// the value of record; handles are derived from it on demand.
type UsernameField struct {
	mu  sync.RWMutex
	raw string
}

// OnChange applies an edit. Edits that would produce more than
// domain.MaxUsernames handles are rejected and leave the value untouched.
// Accepted edits are stored verbatim, trailing whitespace included.
func (f *UsernameField) OnChange(raw string) bool {
	if len(domain.SplitUsernames(raw)) > domain.MaxUsernames {
		return false
	}

	f.mu.Lock()
	f.raw = raw
	f.mu.Unlock()
	return true
}

// Commit returns the handles to submit. Repeated handles are passed through.
func (f *UsernameField) Commit() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return domain.SplitUsernames(f.raw)
}

// Value returns the raw text.
func (f *UsernameField) Value() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.raw
}
