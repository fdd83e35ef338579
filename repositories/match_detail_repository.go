package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/lib/pq"
)

var ErrMatchDetailConflict = errors.New("match detail already exists for this team and match")

type MatchDetailRepository interface {
	Create(ctx context.Context, exec SQLExecutor, detail *models.MatchDetail) error
	ListByMatch(ctx context.Context, trID, matchNo int) ([]*models.MatchDetail, error)
}

type postgresMatchDetailRepository struct {
	db *sql.DB
}

func NewPostgresMatchDetailRepository(db *sql.DB) MatchDetailRepository {
	return &postgresMatchDetailRepository{db: db}
}

func (r *postgresMatchDetailRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchDetailRepository) Create(ctx context.Context, exec SQLExecutor, d *models.MatchDetail) error {
	query := `
		INSERT INTO match_details (match_no, tr_id, team_id, win_lose, decided_by, goal_score, penalty_score, player_gk)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		d.MatchNo, d.TrID, d.TeamID, d.WinLose, d.DecidedBy, d.GoalScore, d.PenaltyScore, d.PlayerGK,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrMatchDetailConflict
		}
		return fmt.Errorf("failed to insert match detail for team %d: %w", d.TeamID, err)
	}
	return nil
}

func (r *postgresMatchDetailRepository) ListByMatch(ctx context.Context, trID, matchNo int) ([]*models.MatchDetail, error) {
	query := `
		SELECT match_no, tr_id, team_id, win_lose, decided_by, goal_score, penalty_score, player_gk
		FROM match_details
		WHERE tr_id = $1 AND match_no = $2
		ORDER BY team_id`

	rows, err := r.db.QueryContext(ctx, query, trID, matchNo)
	if err != nil {
		return nil, fmt.Errorf("failed to query match details for match %d/%d: %w", trID, matchNo, err)
	}
	defer rows.Close()

	details := make([]*models.MatchDetail, 0, 2)
	for rows.Next() {
		d := &models.MatchDetail{}
		if err := rows.Scan(&d.MatchNo, &d.TrID, &d.TeamID, &d.WinLose, &d.DecidedBy, &d.GoalScore, &d.PenaltyScore, &d.PlayerGK); err != nil {
			return nil, fmt.Errorf("failed to scan match detail row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match detail rows iteration: %w", err)
	}
	return details, nil
}
