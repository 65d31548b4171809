package db

import (
	"time"

	"github.com/google/uuid"
)

// Application status constants. An application starts in reviewing and moves
// exactly once to either resolved (human feedback) or expired (watchdog).
const (
	StatusReviewing = "reviewing"
	StatusResolved  = "resolved"
	StatusExpired   = "expired"
)

// Match score bounds enforced at ingestion.
const (
	MinMatchScore = 0
	MaxMatchScore = 100
)

// Job represents an open job posting. Immutable once created.
type Job struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Candidate represents a generated candidate profile.
type Candidate struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Experience string    `json:"experience"`
	Skills     string    `json:"skills"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Application represents one (candidate, job) match decision.
type Application struct {
	ID          uuid.UUID `json:"id"`
	JobID       uuid.UUID `json:"job_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Status      string    `json:"status"`
	MatchScore  int       `json:"match_score"`
	Analysis    string    `json:"analysis"`
	Feedback    *string   `json:"feedback,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User represents a dashboard user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session represents a persisted login session, kept for token revocation.
type Session struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// CandidateCreateInput is used when persisting a generated candidate.
type CandidateCreateInput struct {
	Name       string
	Email      string
	Experience string
	Skills     string
}

// ApplicationCreateInput is used when persisting an evaluation result.
type ApplicationCreateInput struct {
	JobID       uuid.UUID
	CandidateID uuid.UUID
	MatchScore  int
	Analysis    string
}

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusResolved || status == StatusExpired
}

// ValidStatus reports whether a status value is one of the known states.
func ValidStatus(status string) bool {
	switch status {
	case StatusReviewing, StatusResolved, StatusExpired:
		return true
	default:
		return false
	}
}

// ValidMatchScore reports whether a score is within the accepted range.
func ValidMatchScore(score int) bool {
	return score >= MinMatchScore && score <= MaxMatchScore
}

// IsExpirable reports whether an application created at the given time is
// past the expiry window as of now.
func (a *Application) IsExpirable(window time.Duration, now time.Time) bool {
	return a.Status == StatusReviewing && now.Sub(a.CreatedAt) > window
}
