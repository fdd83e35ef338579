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
	ErrPlayedMatchNotFound = errors.New("played match not found")
	ErrPlayedMatchConflict = errors.New("a played match with this number already exists in this tournament")
	ErrPlayedMatchRefs     = errors.New("played match references a missing tournament, team, venue or player")
)

type PlayedMatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.PlayedMatch) error
	Get(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error)
	ListByTournament(ctx context.Context, trID int) ([]*models.PlayedMatch, error)
	Update(ctx context.Context, match *models.PlayedMatch) error
	Delete(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error)
}

type postgresPlayedMatchRepository struct {
	db *sql.DB
}

func NewPostgresPlayedMatchRepository(db *sql.DB) PlayedMatchRepository {
	return &postgresPlayedMatchRepository{db: db}
}

func (r *postgresPlayedMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playedMatchColumns = `match_no, tr_id, play_stage, play_date, team_id1, team_id2,
		results, decided_by, goal_score, venue_id, audience, player_of_match, stop1_sec, stop2_sec`

func (r *postgresPlayedMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.PlayedMatch) error {
	query := `
		INSERT INTO match_played (` + playedMatchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		m.MatchNo, m.TrID, m.Stage, m.PlayDate, m.TeamID1, m.TeamID2,
		m.Results, m.DecidedBy, m.GoalScore, m.VenueID, m.Audience, m.PlayerOfMatch,
		m.Stop1Sec, m.Stop2Sec,
	)
	return r.handlePlayedMatchError(err)
}

func (r *postgresPlayedMatchRepository) scanOne(row *sql.Row) (*models.PlayedMatch, error) {
	m := &models.PlayedMatch{}
	err := row.Scan(
		&m.MatchNo, &m.TrID, &m.Stage, &m.PlayDate, &m.TeamID1, &m.TeamID2,
		&m.Results, &m.DecidedBy, &m.GoalScore, &m.VenueID, &m.Audience, &m.PlayerOfMatch,
		&m.Stop1Sec, &m.Stop2Sec,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayedMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan played match: %w", err)
	}
	return m, nil
}

func (r *postgresPlayedMatchRepository) Get(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error) {
	query := `SELECT ` + playedMatchColumns + ` FROM match_played WHERE tr_id = $1 AND match_no = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, trID, matchNo))
}

func (r *postgresPlayedMatchRepository) ListByTournament(ctx context.Context, trID int) ([]*models.PlayedMatch, error) {
	query := `SELECT ` + playedMatchColumns + ` FROM match_played WHERE tr_id = $1 ORDER BY play_date, match_no`

	rows, err := r.db.QueryContext(ctx, query, trID)
	if err != nil {
		return nil, fmt.Errorf("failed to query played matches for tournament %d: %w", trID, err)
	}
	defer rows.Close()

	matches := make([]*models.PlayedMatch, 0)
	for rows.Next() {
		m := &models.PlayedMatch{}
		if err := rows.Scan(
			&m.MatchNo, &m.TrID, &m.Stage, &m.PlayDate, &m.TeamID1, &m.TeamID2,
			&m.Results, &m.DecidedBy, &m.GoalScore, &m.VenueID, &m.Audience, &m.PlayerOfMatch,
			&m.Stop1Sec, &m.Stop2Sec,
		); err != nil {
			return nil, fmt.Errorf("failed to scan played match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during played match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresPlayedMatchRepository) Update(ctx context.Context, m *models.PlayedMatch) error {
	query := `
		UPDATE match_played SET
			play_stage = $1, play_date = $2, team_id1 = $3, team_id2 = $4,
			results = $5, decided_by = $6, goal_score = $7, venue_id = $8,
			audience = $9, player_of_match = $10, stop1_sec = $11, stop2_sec = $12
		WHERE tr_id = $13 AND match_no = $14`

	result, err := r.db.ExecContext(ctx, query,
		m.Stage, m.PlayDate, m.TeamID1, m.TeamID2,
		m.Results, m.DecidedBy, m.GoalScore, m.VenueID,
		m.Audience, m.PlayerOfMatch, m.Stop1Sec, m.Stop2Sec,
		m.TrID, m.MatchNo,
	)
	if err != nil {
		return r.handlePlayedMatchError(err)
	}
	return checkAffectedRows(result, ErrPlayedMatchNotFound)
}

func (r *postgresPlayedMatchRepository) Delete(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error) {
	query := `DELETE FROM match_played WHERE tr_id = $1 AND match_no = $2 RETURNING ` + playedMatchColumns
	return r.scanOne(r.db.QueryRowContext(ctx, query, trID, matchNo))
}

func (r *postgresPlayedMatchRepository) handlePlayedMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrPlayedMatchConflict
		case "23503":
			return fmt.Errorf("%w: %s", ErrPlayedMatchRefs, pqErr.Constraint)
		}
	}
	return err
}
