package address

import (
	"strings"
	"sync"
)

type entry struct {
	state State
	// token is the id of the most recently started lookup.
	token uint64
	// customer is the name last used to place an order.
	customer string
}

// Store holds address lookup state per session, along with the customer name
// last used in that session. Results of a lookup are only applied while its
// token is the latest one issued for the session, so an older, slower lookup
// can never overwrite a newer one.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	next    uint64
}

// NewStore returns an empty Store. Unknown sessions report StatusIdle.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Get returns the current state for session.
func (s *Store) Get(session string) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[session]
	if !ok {
		return State{Status: StatusIdle}
	}
	return e.state
}

// Customer returns the name remembered for session, or "".
func (s *Store) Customer(session string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[session]; ok {
		return e.customer
	}
	return ""
}

// SetCustomer remembers name for session. Blank names are ignored.
func (s *Store) SetCustomer(session, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry(session).customer = name
}

// Begin marks a lookup as pending and returns its token. The previous error
// is cleared; a previously resolved position and address are kept until the
// lookup settles.
func (s *Store) Begin(session string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(session)
	s.next++
	e.token = s.next
	e.state.Status = StatusLoading
	e.state.Error = ""
	return e.token
}

// Fulfill stores a resolved position and address. It reports false and
// leaves the state untouched when token is stale.
func (s *Store) Fulfill(session string, token uint64, pos Position, address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[session]
	if !ok || e.token != token {
		return false
	}
	e.state = State{
		Status:   StatusResolved,
		Position: &pos,
		Address:  address,
	}
	return true
}

// Reject stores a failure message. It reports false and leaves the state
// untouched when token is stale.
func (s *Store) Reject(session string, token uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[session]
	if !ok || e.token != token {
		return false
	}
	if msg == "" {
		msg = "address lookup failed"
	}
	e.state.Status = StatusError
	e.state.Error = msg
	return true
}

// entry returns the entry for session, creating an idle one. s.mu must be
// held.
func (s *Store) entry(session string) *entry {
	e, ok := s.entries[session]
	if !ok {
		e = &entry{state: State{Status: StatusIdle}}
		s.entries[session] = e
	}
	return e
}
