package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/duynhne/study-service/internal/core/domain"
)

// MemoryStore keeps every table in process memory behind one mutex. It mirrors the
// relational schema: unique usernames and emails, and cascading deletes from
// users to study sessions to pomodoro blocks.
type MemoryStore struct {
	mu sync.RWMutex

	users         map[int]*domain.UserRow
	sessions      map[string]*domain.SessionRow
	studySessions map[int]*domain.StudySessionRow
	blocks        map[int]*domain.PomodoroBlockRow

	nextUserID         int
	nextStudySessionID int
	nextBlockID        int

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[int]*domain.UserRow),
		sessions:      make(map[string]*domain.SessionRow),
		studySessions: make(map[int]*domain.StudySessionRow),
		blocks:        make(map[int]*domain.PomodoroBlockRow),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the store's domain.UserRepository view.
func (m *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{m} }

// Sessions returns the store's domain.SessionRepository view.
func (m *MemoryStore) Sessions() *MemorySessionRepository { return &MemorySessionRepository{m} }

// StudySessions returns the store's domain.StudySessionRepository view.
func (m *MemoryStore) StudySessions() *MemoryStudySessionRepository {
	return &MemoryStudySessionRepository{m}
}

// PomodoroBlocks returns the store's domain.PomodoroBlockRepository view.
func (m *MemoryStore) PomodoroBlocks() *MemoryPomodoroBlockRepository {
	return &MemoryPomodoroBlockRepository{m}
}

// DeleteUser removes a user and everything the user owns.
func (m *MemoryStore) DeleteUser(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.users, id)
	for token, s := range m.sessions {
		if s.UserID == id {
			delete(m.sessions, token)
		}
	}
	for sid, s := range m.studySessions {
		if s.UserID == id {
			m.deleteStudySessionLocked(sid)
		}
	}
}

// Reset empties every table and restarts id sequences.
func (m *MemoryStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[int]*domain.UserRow)
	m.sessions = make(map[string]*domain.SessionRow)
	m.studySessions = make(map[int]*domain.StudySessionRow)
	m.blocks = make(map[int]*domain.PomodoroBlockRow)
	m.nextUserID, m.nextStudySessionID, m.nextBlockID = 0, 0, 0
}

func (m *MemoryStore) deleteStudySessionLocked(id int) {
	delete(m.studySessions, id)
	for bid, b := range m.blocks {
		if b.StudySessionID == id {
			delete(m.blocks, bid)
		}
	}
}

func sortedKeys[V any](in map[int]V) []int {
	keys := make([]int, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// MemoryUserRepository implements domain.UserRepository on a MemoryStore.
type MemoryUserRepository struct{ m *MemoryStore }

// GetByUsername returns the user matching the given username, or nil.
func (r *MemoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.UserRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, u := range r.m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID returns the user with the given id, or nil.
func (r *MemoryUserRepository) GetByID(_ context.Context, id int) (*domain.UserRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	u, ok := r.m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// ExistsByUsername reports whether the username is taken.
func (r *MemoryUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.findUserLocked(func(u *domain.UserRow) bool { return u.Username == username }), nil
}

// ExistsByEmail reports whether the email is registered.
func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.findUserLocked(func(u *domain.UserRow) bool { return u.Email == email }), nil
}

// Create inserts a user and returns its id. Duplicates yield a *domain.DuplicateError.
func (r *MemoryUserRepository) Create(_ context.Context, username, email, passwordHash string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if r.m.findUserLocked(func(u *domain.UserRow) bool { return u.Username == username }) {
		return 0, &domain.DuplicateError{Field: "username"}
	}
	if r.m.findUserLocked(func(u *domain.UserRow) bool { return u.Email == email }) {
		return 0, &domain.DuplicateError{Field: "email"}
	}

	r.m.nextUserID++
	id := r.m.nextUserID
	r.m.users[id] = &domain.UserRow{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.m.now(),
	}
	return id, nil
}

func (m *MemoryStore) findUserLocked(match func(*domain.UserRow) bool) bool {
	for _, u := range m.users {
		if match(u) {
			return true
		}
	}
	return false
}

// MemorySessionRepository implements domain.SessionRepository on a MemoryStore.
type MemorySessionRepository struct{ m *MemoryStore }

// Create stores a session token for userID.
func (r *MemorySessionRepository) Create(_ context.Context, userID int, token string, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.sessions[token] = &domain.SessionRow{Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

// GetByToken returns the session for token, or nil.
func (r *MemorySessionRepository) GetByToken(_ context.Context, token string) (*domain.SessionRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	s, ok := r.m.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Delete removes the session for token if it exists.
func (r *MemorySessionRepository) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.sessions, token)
	return nil
}

// MemoryStudySessionRepository implements domain.StudySessionRepository on a MemoryStore.
type MemoryStudySessionRepository struct{ m *MemoryStore }

// ListByUser returns the user's study sessions with block counts, by id.
func (r *MemoryStudySessionRepository) ListByUser(_ context.Context, userID int) ([]domain.StudySessionRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	counts := make(map[int]int)
	for _, b := range r.m.blocks {
		counts[b.StudySessionID]++
	}

	out := make([]domain.StudySessionRow, 0)
	for _, id := range sortedKeys(r.m.studySessions) {
		s := r.m.studySessions[id]
		if s.UserID != userID {
			continue
		}
		cp := *s
		cp.PomodoroCount = counts[id]
		out = append(out, cp)
	}
	return out, nil
}

// GetByID returns the study session with the given id, or nil.
func (r *MemoryStudySessionRepository) GetByID(_ context.Context, id int) (*domain.StudySessionRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	s, ok := r.m.studySessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Create inserts row and fills in its id and created_at.
func (r *MemoryStudySessionRepository) Create(_ context.Context, row *domain.StudySessionRow) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextStudySessionID++
	row.ID = r.m.nextStudySessionID
	row.CreatedAt = r.m.now()
	cp := *row
	cp.PomodoroCount = 0
	r.m.studySessions[row.ID] = &cp
	return nil
}

// Update applies the non-nil fields of patch. Returns nil when the session does not exist.
func (r *MemoryStudySessionRepository) Update(_ context.Context, id int, patch domain.StudySessionPatch) (*domain.StudySessionRow, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	s, ok := r.m.studySessions[id]
	if !ok {
		return nil, nil
	}
	if patch.Subject != nil {
		s.Subject = *patch.Subject
	}
	if patch.Goal != nil {
		s.Goal = *patch.Goal
	}
	if patch.TotalMinutes != nil {
		s.TotalMinutes = *patch.TotalMinutes
	}
	if patch.Completed != nil {
		s.Completed = *patch.Completed
	}
	cp := *s
	return &cp, nil
}

// Delete removes the study session and its blocks.
func (r *MemoryStudySessionRepository) Delete(_ context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.deleteStudySessionLocked(id)
	return nil
}

// MemoryPomodoroBlockRepository implements domain.PomodoroBlockRepository on a MemoryStore.
type MemoryPomodoroBlockRepository struct{ m *MemoryStore }

// ListBySession returns the blocks of a study session, by id.
func (r *MemoryPomodoroBlockRepository) ListBySession(_ context.Context, studySessionID int) ([]domain.PomodoroBlockRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]domain.PomodoroBlockRow, 0)
	for _, id := range sortedKeys(r.m.blocks) {
		b := r.m.blocks[id]
		if b.StudySessionID == studySessionID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// GetByID returns the block with its owner filled in, or nil.
func (r *MemoryPomodoroBlockRepository) GetByID(_ context.Context, id int) (*domain.PomodoroBlockRow, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	b, ok := r.m.blocks[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	if s, ok := r.m.studySessions[b.StudySessionID]; ok {
		cp.OwnerID = s.UserID
	}
	return &cp, nil
}

// Create inserts row and fills in its id.
func (r *MemoryPomodoroBlockRepository) Create(_ context.Context, row *domain.PomodoroBlockRow) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	r.m.nextBlockID++
	row.ID = r.m.nextBlockID
	cp := *row
	cp.OwnerID = 0
	r.m.blocks[row.ID] = &cp
	return nil
}

// Complete marks the block completed at endedAt and, for work blocks, adds its
// duration to the session total. Returns nil when the block does not exist.
func (r *MemoryPomodoroBlockRepository) Complete(_ context.Context, id int, endedAt time.Time) (*domain.PomodoroBlockRow, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	b, ok := r.m.blocks[id]
	if !ok {
		return nil, nil
	}

	ended := endedAt
	b.Completed = true
	b.EndedAt = &ended

	if b.BlockType == domain.BlockTypeWork {
		if s, ok := r.m.studySessions[b.StudySessionID]; ok {
			s.TotalMinutes += b.DurationMinutes
		}
	}

	cp := *b
	return &cp, nil
}

// Delete removes the block. Minutes it added to the session stay.
func (r *MemoryPomodoroBlockRepository) Delete(_ context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	delete(r.m.blocks, id)
	return nil
}

var (
	_ domain.UserRepository          = (*MemoryUserRepository)(nil)
	_ domain.SessionRepository       = (*MemorySessionRepository)(nil)
	_ domain.StudySessionRepository  = (*MemoryStudySessionRepository)(nil)
	_ domain.PomodoroBlockRepository = (*MemoryPomodoroBlockRepository)(nil)

	_ domain.UserRepository          = (*PgxUserRepository)(nil)
	_ domain.SessionRepository       = (*PgxSessionRepository)(nil)
	_ domain.StudySessionRepository  = (*PgxStudySessionRepository)(nil)
	_ domain.PomodoroBlockRepository = (*PgxPomodoroBlockRepository)(nil)
)
