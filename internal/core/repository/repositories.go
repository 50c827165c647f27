package repository

import "github.com/duynhne/study-service/internal/core/domain"

// Repositories bundles one implementation of every domain repository.
type Repositories struct {
	Users          domain.UserRepository
	Sessions       domain.SessionRepository
	StudySessions  domain.StudySessionRepository
	PomodoroBlocks domain.PomodoroBlockRepository
}

// NewPgx returns repositories backed by PostgreSQL.
func NewPgx(db DB) Repositories {
	return Repositories{
		Users:          NewUserRepository(db),
		Sessions:       NewSessionRepository(db),
		StudySessions:  NewStudySessionRepository(db),
		PomodoroBlocks: NewPomodoroBlockRepository(db),
	}
}

// NewMemory returns repositories backed by store.
func NewMemory(store *MemoryStore) Repositories {
	return Repositories{
		Users:          store.Users(),
		Sessions:       store.Sessions(),
		StudySessions:  store.StudySessions(),
		PomodoroBlocks: store.PomodoroBlocks(),
	}
}
