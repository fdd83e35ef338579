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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentConflict     = errors.New("a tournament with this id already exists")
	ErrRegistrationConflict   = errors.New("team is already registered for this tournament")
	ErrRosterConflict         = errors.New("player is already on this team for this tournament")
	ErrRosterEntryNotFound    = errors.New("player not found in this team for this tournament")
	ErrRegistrationInvalidRef = errors.New("registration references a missing tournament or team")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	Get(ctx context.Context, trID int) (*models.Tournament, error)
	List(ctx context.Context) ([]*models.Tournament, error)
	// Delete removes the tournament; the schema's ON DELETE CASCADE removes
	// its registrations, rosters and both match tables with it.
	Delete(ctx context.Context, trID int) (*models.Tournament, error)

	RegisterTeam(ctx context.Context, reg *models.TeamRegistration) error
	AddRosterEntry(ctx context.Context, entry *models.RosterEntry) error
	RosterEntryExists(ctx context.Context, trID, teamID, playerID int) (bool, error)
	SetCaptain(ctx context.Context, exec SQLExecutor, trID, teamID, playerID int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `INSERT INTO tournament (tr_id, tr_name, start_date, end_date) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, t.TrID, t.Name, t.StartDate, t.EndDate)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrTournamentConflict
		}
		return fmt.Errorf("failed to insert tournament %d: %w", t.TrID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) Get(ctx context.Context, trID int) (*models.Tournament, error) {
	query := `SELECT tr_id, tr_name, start_date, end_date FROM tournament WHERE tr_id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, trID).Scan(&t.TrID, &t.Name, &t.StartDate, &t.EndDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", trID, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]*models.Tournament, error) {
	query := `SELECT tr_id, tr_name, start_date, end_date FROM tournament ORDER BY tr_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t := &models.Tournament{}
		if err := rows.Scan(&t.TrID, &t.Name, &t.StartDate, &t.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, trID int) (*models.Tournament, error) {
	query := `DELETE FROM tournament WHERE tr_id = $1 RETURNING tr_id, tr_name, start_date, end_date`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, trID).Scan(&t.TrID, &t.Name, &t.StartDate, &t.EndDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to delete tournament %d: %w", trID, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) RegisterTeam(ctx context.Context, reg *models.TeamRegistration) error {
	query := `INSERT INTO tournament_team (team_id, tr_id, team_group) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, reg.TeamID, reg.TrID, reg.Group)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrRegistrationConflict
			case "23503":
				return ErrRegistrationInvalidRef
			}
		}
		return fmt.Errorf("failed to register team %d for tournament %d: %w", reg.TeamID, reg.TrID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) AddRosterEntry(ctx context.Context, entry *models.RosterEntry) error {
	query := `INSERT INTO team_player (player_id, team_id, tr_id) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, entry.PlayerID, entry.TeamID, entry.TrID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				return ErrRosterConflict
			case "23503":
				return ErrRegistrationInvalidRef
			}
		}
		return fmt.Errorf("failed to add player %d to team %d roster: %w", entry.PlayerID, entry.TeamID, err)
	}
	return nil
}

func (r *postgresTournamentRepository) RosterEntryExists(ctx context.Context, trID, teamID, playerID int) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM team_player WHERE player_id = $1 AND team_id = $2 AND tr_id = $3`,
		playerID, teamID, trID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("roster existence check failed: %w", err)
	}
	return true, nil
}

// SetCaptain demotes the current captain and promotes the target player.
// Both statements run on the supplied executor so the caller can scope them
// to one transaction.
func (r *postgresTournamentRepository) SetCaptain(ctx context.Context, exec SQLExecutor, trID, teamID, playerID int) error {
	_, err := exec.ExecContext(ctx,
		`UPDATE team_player SET is_captain = false WHERE team_id = $1 AND tr_id = $2`,
		teamID, trID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear captain flag for team %d: %w", teamID, err)
	}

	result, err := exec.ExecContext(ctx,
		`UPDATE team_player SET is_captain = true WHERE player_id = $1 AND team_id = $2 AND tr_id = $3`,
		playerID, teamID, trID,
	)
	if err != nil {
		return fmt.Errorf("failed to set captain flag for player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrRosterEntryNotFound)
}
