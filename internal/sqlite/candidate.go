package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/repository"
)

const candidateColumns = `id, display_name, profile_id, seniority, availability,
	languages, expertises, is_ai, daily_rate, created_at`

// CandidateRepository implements staffing.CandidateRepository for SQLite
type CandidateRepository struct {
	db *DB
}

// NewCandidateRepository creates a new CandidateRepository
func NewCandidateRepository(db *DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create inserts a candidate profile
func (r *CandidateRepository) Create(ctx context.Context, c *staffing.Candidate) error {
	defer r.db.lockTable("candidates")()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO candidates (`+candidateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.DisplayName,
		c.ProfileID,
		c.Seniority,
		c.Availability,
		encodeSet(c.Languages),
		encodeSet(c.Expertises),
		c.IsAI,
		c.DailyRate,
		c.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	r.db.publish("candidates", realtime.OpInsert, nil, c)
	return nil
}

// Get retrieves a candidate by ID
func (r *CandidateRepository) Get(ctx context.Context, id string) (*staffing.Candidate, error) {
	c, err := scanCandidate(r.db.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return c, nil
}

// FindAvailable returns available candidates with the given profile and seniority
func (r *CandidateRepository) FindAvailable(ctx context.Context, profileID string, seniority staffing.Seniority) ([]staffing.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+candidateColumns+`
		FROM candidates
		WHERE profile_id = ? AND seniority = ? AND availability = ?
		ORDER BY display_name ASC
	`, profileID, seniority, staffing.AvailabilityAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}
	defer rows.Close()

	var out []staffing.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}
	return out, nil
}

// ListTeam returns the candidates holding accepted seats on a project
func (r *CandidateRepository) ListTeam(ctx context.Context, projectID string) ([]staffing.TeamMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, c.id, c.display_name, a.profile_id, a.seniority, c.is_ai
		FROM assignments a
		JOIN candidates c ON c.id = a.candidate_id
		WHERE a.project_id = ? AND a.booking_status = 'accepted'
		ORDER BY c.display_name ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}
	defer rows.Close()

	var team []staffing.TeamMember
	for rows.Next() {
		var m staffing.TeamMember
		if err := rows.Scan(&m.AssignmentID, &m.CandidateID, &m.DisplayName, &m.ProfileID, &m.Seniority, &m.IsAI); err != nil {
			return nil, fmt.Errorf("failed to scan team member: %w", err)
		}
		team = append(team, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}
	return team, nil
}

func scanCandidate(row rowScanner) (*staffing.Candidate, error) {
	var (
		c                     staffing.Candidate
		languages, expertises string
	)
	err := row.Scan(
		&c.ID,
		&c.DisplayName,
		&c.ProfileID,
		&c.Seniority,
		&c.Availability,
		&languages,
		&expertises,
		&c.IsAI,
		&c.DailyRate,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Languages = decodeSet(languages)
	c.Expertises = decodeSet(expertises)
	return &c, nil
}
