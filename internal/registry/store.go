// Package registry implements the capability catalog: an in-memory,
// insertion-ordered store of agent cards plus the HTTP surface and
// client other services use to reach it.
package registry

import (
	"errors"
	"sync"

	"github.com/maestrohq/maestro/internal/agentcard"
)

// ErrNotFound is returned when no card is registered under a name.
var ErrNotFound = errors.New("agent not found")

// Store holds registered agent cards. Re-registering a name replaces
// the card in place, keeping its original list position.
type Store struct {
	mu    sync.RWMutex
	cards map[string]agentcard.Card
	order []string
}

// NewStore creates an empty card store.
func NewStore() *Store {
	return &Store{
		cards: make(map[string]agentcard.Card),
	}
}

// Register upserts a card and reports whether the name was new.
func (s *Store) Register(card agentcard.Card) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.cards[card.Name]
	s.cards[card.Name] = card
	if !exists {
		s.order = append(s.order, card.Name)
	}
	return !exists
}

// List returns a snapshot of all cards in registration order.
func (s *Store) List() []agentcard.Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agentcard.Card, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.cards[name])
	}
	return out
}

// Lookup returns the card registered under name.
func (s *Store) Lookup(name string) (agentcard.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	card, ok := s.cards[name]
	if !ok {
		return agentcard.Card{}, ErrNotFound
	}
	return card, nil
}

// Remove deletes the card registered under name.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cards[name]; !ok {
		return ErrNotFound
	}
	delete(s.cards, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of registered cards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}
