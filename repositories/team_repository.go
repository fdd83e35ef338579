package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kfupm-ics/soccer-tournament/models"
)

var (
	ErrTeamNotFound   = errors.New("team not found")
	ErrPlayerNotFound = errors.New("player not found")
)

type TeamRepository interface {
	Get(ctx context.Context, teamID int) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	ListPlayers(ctx context.Context) ([]*models.Player, error)
	ListRoster(ctx context.Context, trID, teamID int) ([]*models.Player, error)
	UpdateCrestKey(ctx context.Context, teamID int, crestKey *string) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Get(ctx context.Context, teamID int) (*models.Team, error) {
	query := `SELECT team_id, team_name, crest_key FROM team WHERE team_id = $1`

	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&t.TeamID, &t.Name, &t.CrestKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %d: %w", teamID, err)
	}
	return t, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]*models.Team, error) {
	query := `SELECT team_id, team_name, crest_key FROM team ORDER BY team_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		t := &models.Team{}
		if err := rows.Scan(&t.TeamID, &t.Name, &t.CrestKey); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) ListPlayers(ctx context.Context) ([]*models.Player, error) {
	query := `SELECT player_id, name, jersey_no, position FROM player ORDER BY name`
	return r.queryPlayers(ctx, query)
}

func (r *postgresTeamRepository) ListRoster(ctx context.Context, trID, teamID int) ([]*models.Player, error) {
	query := `
		SELECT p.player_id, p.name, p.jersey_no, p.position
		FROM player p
		JOIN team_player tp ON tp.player_id = p.player_id
		WHERE tp.tr_id = $1 AND tp.team_id = $2
		ORDER BY p.jersey_no`
	return r.queryPlayers(ctx, query, trID, teamID)
}

func (r *postgresTeamRepository) queryPlayers(ctx context.Context, query string, args ...interface{}) ([]*models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p := &models.Player{}
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.JerseyNo, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresTeamRepository) UpdateCrestKey(ctx context.Context, teamID int, crestKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE team SET crest_key = $1 WHERE team_id = $2`, crestKey, teamID)
	if err != nil {
		return fmt.Errorf("failed to update crest key for team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
