package domain

import "time"

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the public projection of a user. The password hash never leaves the Logic layer.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned by register and login. Token is delivered to the
// client as a cookie by the Web layer and never serialized.
type AuthResponse struct {
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"-"`
	User      User
}

// CreateStudySessionRequest is the body of POST /study_sessions.
type CreateStudySessionRequest struct {
	Subject string  `json:"subject"`
	Goal    *string `json:"goal"`
}

// UpdateStudySessionRequest is the body of PATCH /study_sessions/{id}.
// Absent fields decode to nil and are left untouched.
type UpdateStudySessionRequest struct {
	Subject      *string `json:"subject"`
	Goal         *string `json:"goal"`
	TotalMinutes *int    `json:"total_minutes"`
	Completed    *bool   `json:"completed"`
}

// CreatePomodoroBlockRequest is the body of POST /study_sessions/{id}/pomodoro_blocks.
type CreatePomodoroBlockRequest struct {
	BlockType       *string `json:"block_type"`
	DurationMinutes *int    `json:"duration_minutes"`
}

// StudySession is returned by create and update.
type StudySession struct {
	ID           int    `json:"id"`
	Subject      string `json:"subject"`
	Goal         string `json:"goal"`
	TotalMinutes int    `json:"total_minutes"`
	Completed    bool   `json:"completed"`
}

// StudySessionSummary is an element of GET /study_sessions.
type StudySessionSummary struct {
	ID            int       `json:"id"`
	Subject       string    `json:"subject"`
	Goal          string    `json:"goal"`
	TotalMinutes  int       `json:"total_minutes"`
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"created_at"`
	PomodoroCount int       `json:"pomodoro_count"`
}

// StudySessionDetail is returned by GET /study_sessions/{id}.
type StudySessionDetail struct {
	ID             int                    `json:"id"`
	Subject        string                 `json:"subject"`
	Goal           string                 `json:"goal"`
	TotalMinutes   int                    `json:"total_minutes"`
	Completed      bool                   `json:"completed"`
	CreatedAt      time.Time              `json:"created_at"`
	PomodoroBlocks []PomodoroBlockSummary `json:"pomodoro_blocks"`
}

// PomodoroBlockSummary is the nested block view inside StudySessionDetail.
type PomodoroBlockSummary struct {
	ID              int       `json:"id"`
	BlockType       BlockType `json:"block_type"`
	DurationMinutes int       `json:"duration_minutes"`
	Completed       bool      `json:"completed"`
}

// PomodoroBlock is an element of GET /study_sessions/{id}/pomodoro_blocks.
// Unset timestamps serialize as null.
type PomodoroBlock struct {
	ID              int        `json:"id"`
	BlockType       BlockType  `json:"block_type"`
	DurationMinutes int        `json:"duration_minutes"`
	Completed       bool       `json:"completed"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	StudySessionID  int        `json:"study_session_id"`
}

// CreatedPomodoroBlock is returned by block creation; it has no ended_at yet.
type CreatedPomodoroBlock struct {
	ID              int        `json:"id"`
	BlockType       BlockType  `json:"block_type"`
	DurationMinutes int        `json:"duration_minutes"`
	Completed       bool       `json:"completed"`
	StartedAt       *time.Time `json:"started_at"`
	StudySessionID  int        `json:"study_session_id"`
}

// CompletedPomodoroBlock is returned by PATCH /pomodoro_blocks/{id}/complete.
type CompletedPomodoroBlock struct {
	ID              int        `json:"id"`
	BlockType       BlockType  `json:"block_type"`
	DurationMinutes int        `json:"duration_minutes"`
	Completed       bool       `json:"completed"`
	EndedAt         *time.Time `json:"ended_at"`
}

// MessageResponse is the body of delete and logout responses.
type MessageResponse struct {
	Message string `json:"message"`
}
