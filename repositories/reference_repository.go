package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReferenceRepository answers the existence questions the match services ask
// before writing: tournaments, teams, venues and players are reference
// entities owned elsewhere and never mutated through this package.
type ReferenceRepository interface {
	TournamentExists(ctx context.Context, trID int) (bool, error)
	TeamExists(ctx context.Context, teamID int) (bool, error)
	VenueExists(ctx context.Context, venueID int) (bool, error)
	PlayerExists(ctx context.Context, playerID int) (bool, error)
	TeamRegistered(ctx context.Context, teamID, trID int) (bool, error)
	PlayerOnTeams(ctx context.Context, playerID, teamID1, teamID2, trID int) (bool, error)
}

type postgresReferenceRepository struct {
	db *sql.DB
}

func NewPostgresReferenceRepository(db *sql.DB) ReferenceRepository {
	return &postgresReferenceRepository{db: db}
}

func (r *postgresReferenceRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("existence check failed: %w", err)
	}
	return true, nil
}

func (r *postgresReferenceRepository) TournamentExists(ctx context.Context, trID int) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM tournament WHERE tr_id = $1`, trID)
}

func (r *postgresReferenceRepository) TeamExists(ctx context.Context, teamID int) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM team WHERE team_id = $1`, teamID)
}

func (r *postgresReferenceRepository) VenueExists(ctx context.Context, venueID int) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM venue WHERE venue_id = $1`, venueID)
}

func (r *postgresReferenceRepository) PlayerExists(ctx context.Context, playerID int) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM player WHERE player_id = $1`, playerID)
}

func (r *postgresReferenceRepository) TeamRegistered(ctx context.Context, teamID, trID int) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM tournament_team WHERE team_id = $1 AND tr_id = $2`, teamID, trID)
}

// PlayerOnTeams reports whether the player is on the roster of either of the
// two playing teams within the tournament.
func (r *postgresReferenceRepository) PlayerOnTeams(ctx context.Context, playerID, teamID1, teamID2, trID int) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM team_player WHERE player_id = $1 AND team_id IN ($2, $3) AND tr_id = $4`,
		playerID, teamID1, teamID2, trID,
	)
}
