package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nyodera1-source/allivanfresh-whatsapp-bot/models"
)

// Store is the persistence the manager needs. Get returns nil without
// error when no session exists.
type Store interface {
	GetSession(ctx context.Context, phone string) (*models.Session, error)
	UpsertSession(ctx context.Context, s *models.Session) error
}

// Manager hands out sessions, one per customer at a time. Concurrent
// messages from the same customer serialize on a per-customer lock;
// different customers never contend.
type Manager struct {
	Store Store
	TTL   time.Duration
	Now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		Store: store,
		TTL:   ttl,
		Now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the customer's lock and returns the unlock func.
func (m *Manager) Lock(phone string) func() {
	m.mu.Lock()
	l, ok := m.locks[phone]
	if !ok {
		l = &sync.Mutex{}
		m.locks[phone] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Load returns the customer's session, creating a fresh one lazily for
// unseen customers. A session idle past the TTL is discarded and
// recreated with default values rather than resumed.
func (m *Manager) Load(ctx context.Context, phone string) (*models.Session, error) {
	now := m.Now()
	s, err := m.Store.GetSession(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to load session for %s: %w", phone, err)
	}
	if s == nil {
		return models.NewSession(phone, now), nil
	}
	if m.TTL > 0 && now.Sub(s.LastActiveAt) > m.TTL {
		return models.NewSession(phone, now), nil
	}
	return s, nil
}

// Save stamps activity and upserts the session.
func (m *Manager) Save(ctx context.Context, s *models.Session) error {
	s.LastActiveAt = m.Now()
	if err := m.Store.UpsertSession(ctx, s); err != nil {
		return fmt.Errorf("failed to save session for %s: %w", s.CustomerPhone, err)
	}
	return nil
}
