package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/imanix/b2b-storefront/internal/core/domain"
)

// MemoryUserRepository is an in-process domain.UserRepository used for
// local development and tests.
type MemoryUserRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.UserProfile
	failure  error
}

var _ domain.UserRepository = (*MemoryUserRepository)(nil)

// NewMemoryUserRepository returns a repository seeded with profiles.
func NewMemoryUserRepository(profiles ...domain.UserProfile) *MemoryUserRepository {
	r := &MemoryUserRepository{profiles: make(map[string]domain.UserProfile)}
	for _, p := range profiles {
		r.profiles[p.Email] = p
	}
	return r
}

// SetFailure makes every subsequent call return err. Pass nil to recover.
func (r *MemoryUserRepository) SetFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = err
}

func (r *MemoryUserRepository) Ping(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failure
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failure != nil {
		return nil, r.failure
	}
	p, ok := r.profiles[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *MemoryUserRepository) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	return r.update(email, func(p *domain.UserProfile) { p.PasswordHash = passwordHash })
}

func (r *MemoryUserRepository) UpdateCompanyName(_ context.Context, email, companyName string) error {
	return r.update(email, func(p *domain.UserProfile) { p.CompanyName = companyName })
}

func (r *MemoryUserRepository) update(email string, fn func(*domain.UserProfile)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	p, ok := r.profiles[email]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = time.Now()
	r.profiles[email] = p
	return nil
}

// MemorySessionRepository is an in-process domain.SessionRepository.
// Records are copied in and out so callers never share byte slices.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.SessionRecord
	failure  error
}

var _ domain.SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository returns an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]domain.SessionRecord)}
}

// SetFailure makes every subsequent call return err. Pass nil to recover.
func (r *MemorySessionRepository) SetFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failure = err
}

// Len returns the number of stored records, expired ones included.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *MemorySessionRepository) EnsureSchema(_ context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failure
}

func (r *MemorySessionRepository) Upsert(_ context.Context, rec domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	if prev, ok := r.sessions[rec.SessionID]; ok {
		rec.CreatedAt = prev.CreatedAt
	}
	rec.Data = append([]byte(nil), rec.Data...)
	r.sessions[rec.SessionID] = rec
	return nil
}

func (r *MemorySessionRepository) GetActive(_ context.Context, sessionID string, now time.Time) (*domain.SessionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failure != nil {
		return nil, r.failure
	}
	rec, ok := r.sessions[sessionID]
	if !ok || !rec.ExpiresAt.After(now) {
		return nil, nil
	}
	rec.Data = append([]byte(nil), rec.Data...)
	return &rec, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *MemorySessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failure != nil {
		return 0, r.failure
	}
	var n int64
	for id, rec := range r.sessions {
		if !rec.ExpiresAt.After(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *MemorySessionRepository) ListActiveByEmail(_ context.Context, email string, now time.Time) ([]domain.SessionSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failure != nil {
		return nil, r.failure
	}
	sessions := []domain.SessionSummary{}
	for _, rec := range r.sessions {
		if rec.UserEmail != email || !rec.ExpiresAt.After(now) {
			continue
		}
		sessions = append(sessions, domain.SessionSummary{
			SessionID: rec.SessionID,
			CreatedAt: rec.CreatedAt,
			ExpiresAt: rec.ExpiresAt,
		})
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}
