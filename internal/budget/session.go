package budget

import "sync"

// Session tracks dismissed suggestion ids for the lifetime of the process.
// Dismissals are per user and are not persisted; a restart brings every
// suggestion back.
type Session struct {
	mu        sync.Mutex
	dismissed map[string]map[string]struct{}
}

func NewSession() *Session {
	return &Session{dismissed: make(map[string]map[string]struct{})}
}

// Dismiss hides the suggestion with the given id for the user.
func (s *Session) Dismiss(userID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.dismissed[userID]
	if !ok {
		set = make(map[string]struct{})
		s.dismissed[userID] = set
	}
	set[id] = struct{}{}
}

// Dismissed reports whether the user dismissed the suggestion.
func (s *Session) Dismissed(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dismissed[userID][id]
	return ok
}

// Filter drops every suggestion the user has dismissed, keeping order.
func (s *Session) Filter(userID string, suggestions []Suggestion) []Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.dismissed[userID]
	if len(set) == 0 {
		return suggestions
	}
	out := suggestions[:0:0]
	for _, sg := range suggestions {
		if _, ok := set[sg.ID]; !ok {
			out = append(out, sg)
		}
	}
	return out
}
