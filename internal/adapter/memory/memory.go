// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"healthdash/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu       sync.Mutex
	samples  []domain.Sample
	grants   map[int64]*domain.AccessGrant
	users    []*domain.User
	sessions map[string]*domain.Session

	sampleIDCounter int64
	userIDCounter   int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		grants:   make(map[int64]*domain.AccessGrant),
		sessions: make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.SampleRepository = (*DB)(nil)
var _ domain.AccessRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- SampleRepository ---

// AddSample stores a sample.
func (db *DB) AddSample(ctx context.Context, userID int64, kind domain.MetricKind, value float64, unit string, sampledAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.sampleIDCounter++
	id := db.sampleIDCounter

	db.samples = append(db.samples, domain.Sample{
		ID:     id,
		UserID: userID,
		Kind:   kind,
		Date:   sampledAt.UTC(),
		Value:  value,
		Unit:   unit,
	})
	return id, nil
}

// DeleteLatestSample deletes the user's most recent sample of kind.
func (db *DB) DeleteLatestSample(ctx context.Context, userID int64, kind domain.MetricKind) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	lastIdx := -1
	for i, s := range db.samples {
		if s.UserID != userID || s.Kind != kind {
			continue
		}
		if lastIdx == -1 || !s.Date.Before(db.samples[lastIdx].Date) {
			lastIdx = i
		}
	}
	if lastIdx == -1 {
		return false, nil
	}

	db.samples = append(db.samples[:lastIdx], db.samples[lastIdx+1:]...)
	return true, nil
}

// ListSamples returns samples in [from, to), oldest first.
func (db *DB) ListSamples(ctx context.Context, userID int64, kind domain.MetricKind, from, to time.Time) ([]domain.Sample, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []domain.Sample
	for _, s := range db.samples {
		if s.UserID == userID && s.Kind == kind && !s.Date.Before(from) && s.Date.Before(to) {
			result = append(result, s)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

// ListRecentSamples lists the most recent samples of kind.
func (db *DB) ListRecentSamples(ctx context.Context, userID int64, kind domain.MetricKind, limit int) ([]domain.Sample, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.Sample{}
	for _, s := range db.samples {
		if s.UserID == userID && s.Kind == kind {
			result = append(result, s)
		}
	}

	// newest first, later inserts first on equal timestamps
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Date.Equal(result[j].Date) {
			return result[i].ID > result[j].ID
		}
		return result[i].Date.After(result[j].Date)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- AccessRepository ---

// GetGrant returns the user's grant or nil.
func (db *DB) GetGrant(ctx context.Context, userID int64) (*domain.AccessGrant, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if g, ok := db.grants[userID]; ok {
		ret := *g
		return &ret, nil
	}
	return nil, nil
}

// SaveGrant stores the user's grant, replacing any previous answer.
func (db *DB) SaveGrant(ctx context.Context, userID int64, read, share bool) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.grants[userID] = &domain.AccessGrant{
		UserID:    userID,
		Read:      read,
		Share:     share,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token. Expiry is left to the caller.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		ret := *s
		return &ret, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}
