// Package navigation keeps an in-memory back stack of screens.
package navigation

import (
	"maps"
	"sync"

	"github.com/terra-clan/esl-game-lab/internal/models"
)

// Entry is one visited screen with its parameters
type Entry struct {
	Screen models.Screen
	Params map[string]string
}

// ID returns the "id" parameter of the entry, if any
func (e Entry) ID() string {
	return e.Params["id"]
}

func (e Entry) clone() Entry {
	return Entry{Screen: e.Screen, Params: maps.Clone(e.Params)}
}

// Stack is a push/pop history of entries whose root entry is never removed.
// Popped entries are discarded, there is no forward history.
type Stack struct {
	mu      sync.Mutex
	root    models.Screen
	entries []Entry
}

// New creates a stack holding a single root entry
func New(root models.Screen) *Stack {
	s := &Stack{root: root}
	s.entries = []Entry{s.rootEntry()}
	return s
}

func (s *Stack) rootEntry() Entry {
	return Entry{Screen: s.root, Params: map[string]string{}}
}

// NavigateTo pushes screen and makes it current. An empty id yields empty params.
func (s *Stack) NavigateTo(screen models.Screen, id string) Entry {
	params := map[string]string{}
	if id != "" {
		params["id"] = id
	}
	e := Entry{Screen: screen, Params: params}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()

	return e.clone()
}

// GoBack pops the current entry and returns the new current one.
// At the root it resets to exactly one root entry.
func (s *Stack) GoBack() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) <= 1 {
		s.entries = []Entry{s.rootEntry()}
		return s.entries[0].clone()
	}
	s.entries[len(s.entries)-1] = Entry{}
	s.entries = s.entries[:len(s.entries)-1]
	return s.entries[len(s.entries)-1].clone()
}

// ResetToHome drops every entry above the root
func (s *Stack) ResetToHome() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []Entry{s.rootEntry()}
	return s.entries[0].clone()
}

// Current returns the top entry
func (s *Stack) Current() Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1].clone()
}

// Len returns the stack depth, at least 1
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the stack, root first
func (s *Stack) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.clone()
	}
	return out
}
