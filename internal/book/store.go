package book

import (
	"sync"

	"bookflow/models"
)

// Store holds the latest normalized orderbook per venue along with the
// per-venue connection status and the most recent human-readable failure.
// Writes come from exactly one connection per venue; reads are unrestricted.
// No history is kept: every update replaces the prior snapshot wholesale.
type Store struct {
	mu      sync.RWMutex
	books   map[models.Venue]*models.Orderbook
	status  map[models.Venue]models.ConnStatus
	lastErr string
}

func NewStore() *Store {
	s := &Store{
		books:  make(map[models.Venue]*models.Orderbook),
		status: make(map[models.Venue]models.ConnStatus),
	}
	for _, v := range models.AllVenues() {
		s.status[v] = models.StatusDisconnected
	}
	return s
}

// Put replaces the snapshot for a venue.
func (s *Store) Put(venue models.Venue, book *models.Orderbook) {
	s.mu.Lock()
	s.books[venue] = book
	s.mu.Unlock()
}

// Get returns the latest snapshot for a venue, nil before the first update.
func (s *Store) Get(venue models.Venue) *models.Orderbook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.books[venue]
}

// Books returns the venue-to-snapshot mapping. Venues without data map to nil.
func (s *Store) Books() map[models.Venue]*models.Orderbook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Venue]*models.Orderbook, len(models.AllVenues()))
	for _, v := range models.AllVenues() {
		out[v] = s.books[v]
	}
	return out
}

// Drop removes the snapshot for a venue, e.g. when its key is torn down.
func (s *Store) Drop(venue models.Venue) {
	s.mu.Lock()
	delete(s.books, venue)
	s.mu.Unlock()
}

// SetStatus records the connection status for a venue.
func (s *Store) SetStatus(venue models.Venue, status models.ConnStatus) {
	s.mu.Lock()
	s.status[venue] = status
	s.mu.Unlock()
}

// Status returns the connection status for a venue.
func (s *Store) Status(venue models.Venue) models.ConnStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.status[venue]; ok {
		return st
	}
	return models.StatusDisconnected
}

// Statuses returns the venue-to-status mapping.
func (s *Store) Statuses() map[models.Venue]models.ConnStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Venue]models.ConnStatus, len(s.status))
	for v, st := range s.status {
		out[v] = st
	}
	return out
}

// SetError records the most recent human-readable failure message.
func (s *Store) SetError(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
}

// LastError returns the most recent failure message, empty when none.
func (s *Store) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}
