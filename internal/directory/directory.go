// Package directory lists open matches so players can find each other
// without passing match ids around by hand.
package directory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// ListingTTL matches how long the game server keeps a match alive.
const ListingTTL = 2 * time.Hour

var ErrNotFound = errors.New("listing not found")

type Listing struct {
	MatchID   string    `json:"matchId"`
	HostName  string    `json:"hostName"`
	HostID    string    `json:"hostId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether l is older than ListingTTL at now.
func (l Listing) Expired(now time.Time) bool {
	return !l.CreatedAt.IsZero() && now.Sub(l.CreatedAt) > ListingTTL
}

type Store interface {
	Publish(ctx context.Context, l Listing) error
	List(ctx context.Context) ([]Listing, error)
	Remove(ctx context.Context, matchID string) error
}

// Filter keeps listings whose match id or host name contains query,
// ignoring case. An empty query keeps everything.
func Filter(list []Listing, query string) []Listing {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	var out []Listing
	for _, l := range list {
		if strings.Contains(strings.ToLower(l.MatchID), query) || strings.Contains(strings.ToLower(l.HostName), query) {
			out = append(out, l)
		}
	}
	return out
}

func sortListings(list []Listing) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].MatchID < list[j].MatchID
	})
}

// MemoryStore keeps listings in process. It is shared by every SSH session
// of one server.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]Listing
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[string]Listing), now: time.Now}
}

func (m *MemoryStore) Publish(_ context.Context, l Listing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.MatchID] = l
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Listing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.now()
	list := make([]Listing, 0, len(m.listings))
	for _, l := range m.listings {
		if !l.Expired(now) {
			list = append(list, l)
		}
	}
	sortListings(list)
	return list, nil
}

func (m *MemoryStore) Remove(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.listings[matchID]; !ok {
		return ErrNotFound
	}
	delete(m.listings, matchID)
	return nil
}
