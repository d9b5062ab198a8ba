// Package session keeps short-lived bot state, such as balance results waiting
// for a scrim outcome, in explicitly owned TTL caches.
package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hunterjsb/scrimbot/internal/balance"
)

// Pending is a balance run whose scrim has not been recorded yet
type Pending struct {
	ID        string
	GuildID   string
	ChannelID string
	Mode      balance.Mode
	Players   []balance.PlayerSnapshot
	Results   []balance.BalanceResult
	CreatedAt time.Time
}

// Option returns the 1-based result option
func (p *Pending) Option(n int) (balance.BalanceResult, error) {
	if n < 1 || n > len(p.Results) {
		return balance.BalanceResult{}, fmt.Errorf("option %d out of range 1-%d", n, len(p.Results))
	}
	return p.Results[n-1], nil
}

// Store holds pending balance runs keyed by match id
type Store struct {
	cache *Cache[string, *Pending]
}

// NewStore creates a pending store whose entries expire after ttl
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: NewCache[string, *Pending](ttl)}
}

// Save assigns a fresh match id to p and stores it
func (s *Store) Save(p *Pending) string {
	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.cache.Set(p.ID, p)
	return p.ID
}

// Get returns a pending run without consuming it
func (s *Store) Get(id string) (*Pending, bool) {
	return s.cache.Get(id)
}

// Take consumes a pending run
func (s *Store) Take(id string) (*Pending, bool) {
	return s.cache.Take(id)
}

// Restore puts back a run that could not be recorded
func (s *Store) Restore(p *Pending) {
	s.cache.Set(p.ID, p)
}

// StartJanitor purges expired runs every interval until stopped
func (s *Store) StartJanitor(interval time.Duration) func() {
	return s.cache.StartJanitor(interval)
}

// Len returns the number of live pending runs
func (s *Store) Len() int {
	return s.cache.Len()
}
