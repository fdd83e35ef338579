package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrScheduledMatchNotFound = errors.New("scheduled match not found")
	ErrScheduledMatchConflict = errors.New("a match with this number already exists in this tournament")
	ErrScheduledMatchRefs     = errors.New("scheduled match references a missing tournament, team or venue")
)

type ScheduledMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.ScheduledMatch) error
	Get(ctx context.Context, trID, matchNo int) (*models.ScheduledMatch, error)
	GetForUpdate(ctx context.Context, exec SQLExecutor, trID, matchNo int) (*models.ScheduledMatch, error)
	ListByTournament(ctx context.Context, trID int) ([]*models.ScheduledMatch, error)
	Update(ctx context.Context, match *models.ScheduledMatch) error
	Delete(ctx context.Context, exec SQLExecutor, trID, matchNo int) (*models.ScheduledMatch, error)
}

type postgresScheduledMatchRepository struct {
	db *sql.DB
}

func NewPostgresScheduledMatchRepository(db *sql.DB) ScheduledMatchRepository {
	return &postgresScheduledMatchRepository{db: db}
}

func (r *postgresScheduledMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresScheduledMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.ScheduledMatch) error {
	query := `
		INSERT INTO next_match (match_no, tr_id, play_date, play_stage, venue_id, team_id1, team_id2)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.MatchNo, m.TrID, m.PlayDate, m.Stage, m.VenueID, m.TeamID1, m.TeamID2,
	)
	return r.handleScheduledMatchError(err)
}

const scheduledMatchColumns = `match_no, tr_id, play_date, play_stage, venue_id, team_id1, team_id2`

func (r *postgresScheduledMatchRepository) scanOne(row *sql.Row) (*models.ScheduledMatch, error) {
	m := &models.ScheduledMatch{}
	err := row.Scan(&m.MatchNo, &m.TrID, &m.PlayDate, &m.Stage, &m.VenueID, &m.TeamID1, &m.TeamID2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduledMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan scheduled match: %w", err)
	}
	return m, nil
}

func (r *postgresScheduledMatchRepository) Get(ctx context.Context, trID, matchNo int) (*models.ScheduledMatch, error) {
	query := `SELECT ` + scheduledMatchColumns + ` FROM next_match WHERE tr_id = $1 AND match_no = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, trID, matchNo))
}

// GetForUpdate locks the fixture row for the duration of the surrounding
// transaction so two concurrent transitions on the same key serialize.
func (r *postgresScheduledMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, trID, matchNo int) (*models.ScheduledMatch, error) {
	query := `SELECT ` + scheduledMatchColumns + ` FROM next_match WHERE tr_id = $1 AND match_no = $2 FOR UPDATE`
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, trID, matchNo))
}

func (r *postgresScheduledMatchRepository) ListByTournament(ctx context.Context, trID int) ([]*models.ScheduledMatch, error) {
	query := `SELECT ` + scheduledMatchColumns + ` FROM next_match WHERE tr_id = $1 ORDER BY play_date, match_no`

	rows, err := r.db.QueryContext(ctx, query, trID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled matches for tournament %d: %w", trID, err)
	}
	defer rows.Close()

	matches := make([]*models.ScheduledMatch, 0)
	for rows.Next() {
		m := &models.ScheduledMatch{}
		if err := rows.Scan(&m.MatchNo, &m.TrID, &m.PlayDate, &m.Stage, &m.VenueID, &m.TeamID1, &m.TeamID2); err != nil {
			return nil, fmt.Errorf("failed to scan scheduled match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during scheduled match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresScheduledMatchRepository) Update(ctx context.Context, m *models.ScheduledMatch) error {
	query := `
		UPDATE next_match
		SET play_date = $1, play_stage = $2, venue_id = $3, team_id1 = $4, team_id2 = $5
		WHERE tr_id = $6 AND match_no = $7`

	result, err := r.db.ExecContext(ctx, query,
		m.PlayDate, m.Stage, m.VenueID, m.TeamID1, m.TeamID2, m.TrID, m.MatchNo,
	)
	if err != nil {
		return r.handleScheduledMatchError(err)
	}
	return checkAffectedRows(result, ErrScheduledMatchNotFound)
}

// Delete removes the fixture and returns the removed row. Inside a
// transition transaction the RETURNING clause doubles as the affected-rows
// check: no row back means the key was already gone.
func (r *postgresScheduledMatchRepository) Delete(ctx context.Context, exec SQLExecutor, trID, matchNo int) (*models.ScheduledMatch, error) {
	query := `DELETE FROM next_match WHERE tr_id = $1 AND match_no = $2 RETURNING ` + scheduledMatchColumns
	return r.scanOne(r.getExecutor(exec).QueryRowContext(ctx, query, trID, matchNo))
}

func (r *postgresScheduledMatchRepository) handleScheduledMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrScheduledMatchConflict
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrScheduledMatchRefs, pqErr.Constraint)
		}
	}
	return err
}
