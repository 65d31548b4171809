package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Candidate Methods
// -----------------------------------------------------------------------------

// CreateCandidate inserts a generated candidate profile and returns the
// persisted row with its generated identity.
func (db *DB) CreateCandidate(ctx context.Context, input *CandidateCreateInput) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, experience, skills)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, experience, skills, created_at, updated_at`,
		input.Name, input.Email, input.Experience, input.Skills,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Experience, &c.Skills, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by ID. Returns nil when not found.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, experience, skills, created_at, updated_at
		 FROM candidates WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Experience, &c.Skills, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}
