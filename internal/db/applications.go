package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Application Methods
// -----------------------------------------------------------------------------

const applicationColumns = `id, job_id, candidate_id, status, match_score, analysis, feedback, created_at, updated_at`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.JobID, &a.CandidateID, &a.Status, &a.MatchScore,
		&a.Analysis, &a.Feedback, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateApplication inserts an evaluation result with status reviewing.
// Returns (nil, nil) when an application for the same (candidate, job) pair
// already exists, so fan-out re-runs cannot create duplicates.
func (db *DB) CreateApplication(ctx context.Context, input *ApplicationCreateInput) (*Application, error) {
	if !ValidMatchScore(input.MatchScore) {
		return nil, fmt.Errorf("match score out of range: %d", input.MatchScore)
	}

	a, err := scanApplication(db.pool.QueryRow(ctx,
		`INSERT INTO applications (job_id, candidate_id, match_score, analysis)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (candidate_id, job_id) DO NOTHING
		 RETURNING `+applicationColumns,
		input.JobID, input.CandidateID, input.MatchScore, input.Analysis,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}
	return a, nil
}

// GetApplication retrieves an application by ID. Returns nil when not found.
func (db *DB) GetApplication(ctx context.Context, id uuid.UUID) (*Application, error) {
	a, err := scanApplication(db.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return a, nil
}

// ListApplications retrieves all applications, newest first.
func (db *DB) ListApplications(ctx context.Context) ([]Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

// ListStaleReviewing retrieves applications still in review that were created
// before the cutoff.
func (db *DB) ListStaleReviewing(ctx context.Context, cutoff time.Time) ([]Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+applicationColumns+`
		 FROM applications
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at`,
		StatusReviewing, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale applications: %w", err)
	}
	defer rows.Close()
	return collectApplications(rows)
}

// ExpireApplication transitions an application from reviewing to expired.
// The status guard makes the update a compare-and-set: the losing actor in a
// race with feedback resolution affects zero rows and gets false back.
func (db *DB) ExpireApplication(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE applications
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		StatusExpired, id, StatusReviewing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to expire application: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ResolveApplication transitions an application from reviewing to resolved,
// attaching the reviewer's feedback. Same compare-and-set guard as expiry.
func (db *DB) ResolveApplication(ctx context.Context, id uuid.UUID, feedback string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE applications
		 SET status = $1, feedback = $2, updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		StatusResolved, feedback, id, StatusReviewing,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve application: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func collectApplications(rows pgx.Rows) ([]Application, error) {
	var apps []Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applications: %w", err)
	}
	return apps, nil
}
