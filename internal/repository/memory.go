package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tanzimsiamm/fiwippo-backend/internal/domain"
)

var (
	_ OrgRepository  = (*MemoryStore)(nil)
	_ UserRepository = (*MemoryStore)(nil)
)

// MemoryStore is an in-process directory used by tests and the memory driver.
// Each operation holds the lock for its full duration, so updates are linearizable.
type MemoryStore struct {
	mu      sync.RWMutex
	now     func() time.Time
	orgs    map[int64]domain.Org
	users   map[int64]domain.User
	byEmail map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		orgs:    make(map[int64]domain.Org),
		users:   make(map[int64]domain.User),
		byEmail: make(map[string]int64),
	}
}

func (s *MemoryStore) GetOrg(_ context.Context, orgID int64) (domain.Org, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return domain.Org{}, fmt.Errorf("get org: %w", ErrNotFound)
	}
	return org, nil
}

func (s *MemoryStore) GetOrgBySlug(_ context.Context, slug string) (domain.Org, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, org := range s.orgs {
		if org.Slug == slug {
			return org, nil
		}
	}
	return domain.Org{}, fmt.Errorf("get org by slug: %w", ErrNotFound)
}

func (s *MemoryStore) CreateOrg(_ context.Context, org domain.Org) (domain.Org, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orgs {
		if existing.Slug == org.Slug {
			return domain.Org{}, fmt.Errorf("create org: %w", ErrSlugTaken)
		}
	}
	now := s.now()
	org.CreatedAt, org.UpdatedAt = now, now
	s.orgs[org.ID] = org
	return org, nil
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return domain.User{}, fmt.Errorf("get user by email: %w", ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *MemoryStore) GetByID(_ context.Context, userID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("get user: %w", ErrNotFound)
	}
	return cloneUser(u), nil
}

func (s *MemoryStore) Create(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return domain.User{}, fmt.Errorf("create user: %w", ErrEmailTaken)
	}
	if _, ok := s.users[user.ID]; ok {
		return domain.User{}, fmt.Errorf("create user: duplicate id %d", user.ID)
	}

	now := s.now()
	user.Email = email
	user.Version = 1
	user.CreatedAt, user.UpdatedAt = now, now
	user = cloneUser(user)
	s.users[user.ID] = user
	s.byEmail[email] = user.ID
	return cloneUser(user), nil
}

func (s *MemoryStore) Update(_ context.Context, userID int64, patch domain.UserPatch) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("update user: %w", ErrNotFound)
	}
	if patch.ExpectedVersion != 0 && current.Version != patch.ExpectedVersion {
		return domain.User{}, fmt.Errorf("update user %d: %w", userID, ErrVersionConflict)
	}

	next := cloneUser(patch.Apply(current))
	next.Version = current.Version + 1
	next.UpdatedAt = s.now()
	s.users[userID] = next
	return cloneUser(next), nil
}

// cloneUser detaches pointer fields so callers cannot mutate stored state.
func cloneUser(u domain.User) domain.User {
	if u.Verification != nil {
		c := *u.Verification
		u.Verification = &c
	}
	if u.PasswordReset != nil {
		c := *u.PasswordReset
		u.PasswordReset = &c
	}
	if u.Location != nil {
		l := *u.Location
		u.Location = &l
	}
	return u
}
