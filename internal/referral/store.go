package referral

import (
	"sort"
	"sync"

	"gigsbot/internal/domain"
)

// Subscriber is called with the full metadata after every change
type Subscriber func(domain.ReferralMetadata)

// Store shares referral metadata between the parts of one onboarding
// session. Subscribers run outside the store lock and may read from or
// write to the store. Changes reach subscribers in the order they were
// applied: while one caller is delivering, other writers only queue their
// change and the delivering caller passes it on.
type Store struct {
	mu         sync.Mutex
	data       domain.ReferralMetadata
	nextID     int
	subs       map[int]Subscriber
	pending    []domain.ReferralMetadata
	delivering bool
}

func NewStore() *Store {
	return &Store{subs: make(map[int]Subscriber)}
}

// Subscribe registers fn and returns a function that removes it
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		})
	}
}

// Snapshot returns the current metadata
func (s *Store) Snapshot() domain.ReferralMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// SetReferral records who referred the user
func (s *Store) SetReferral(code, salesPersonID, salesPersonName string, organic bool) {
	s.update(func(m *domain.ReferralMetadata) {
		m.Code = code
		m.SalesPersonID = salesPersonID
		m.SalesPersonName = salesPersonName
		m.Organic = organic
	})
}

// SetClient records the paying client's details
func (s *Store) SetClient(name, phone string) {
	s.update(func(m *domain.ReferralMetadata) {
		m.ClientName = name
		m.ClientPhone = phone
	})
}

// Clear resets all metadata
func (s *Store) Clear() {
	s.update(func(m *domain.ReferralMetadata) {
		*m = domain.ReferralMetadata{}
	})
}

func (s *Store) update(fn func(*domain.ReferralMetadata)) {
	s.mu.Lock()
	fn(&s.data)
	s.pending = append(s.pending, s.data)
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true

	for len(s.pending) > 0 {
		data := s.pending[0]
		s.pending = s.pending[1:]
		subs := s.subscribersLocked()
		s.mu.Unlock()

		for _, sub := range subs {
			sub(data)
		}

		s.mu.Lock()
	}

	s.delivering = false
	s.mu.Unlock()
}

// subscribersLocked returns the subscribers in registration order
func (s *Store) subscribersLocked() []Subscriber {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	subs := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	return subs
}
