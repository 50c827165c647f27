package v1

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/study-service/internal/core/repository"
)

type testServices struct {
	store    *repository.MemoryStore
	repos    repository.Repositories
	auth     *AuthService
	sessions *StudySessionService
	blocks   *PomodoroBlockService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	hasher, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	repos := repository.NewMemory(store)

	return &testServices{
		store:    store,
		repos:    repos,
		auth:     NewAuthService(repos.Users, repos.Sessions, hasher, time.Hour),
		sessions: NewStudySessionService(repos.StudySessions, repos.PomodoroBlocks),
		blocks:   NewPomodoroBlockService(repos.StudySessions, repos.PomodoroBlocks),
	}
}

func ptr[T any](v T) *T { return &v }
