package registration

import (
	"sync"
	"time"

	"github.com/foreverweb/auth-api/internal/domain"
)

// PendingStore is the keyed store for in-flight registrations. It is owned
// exclusively by the registration service; records are transient and live in
// process memory. Keys are normalized usernames.
type PendingStore struct {
	mu    sync.Mutex
	items map[string]*domain.PendingRegistration
}

func NewPendingStore() *PendingStore {
	return &PendingStore{items: make(map[string]*domain.PendingRegistration)}
}

func (s *PendingStore) Get(username string) (*domain.PendingRegistration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[username]
	return p, ok
}

// Put stores a pending registration, replacing any prior one for the same
// username.
func (s *PendingStore) Put(p *domain.PendingRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[domain.NormalizeUsername(p.Username)] = p
}

func (s *PendingStore) Delete(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, username)
}

// Sweep removes registrations whose OTP deadline has passed and returns how
// many were dropped. Correctness never depends on the sweep: expiry is
// re-checked at confirmation time.
func (s *PendingStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for username, p := range s.items {
		if now.After(p.OTPExpiry) {
			delete(s.items, username)
			removed++
		}
	}
	return removed
}
