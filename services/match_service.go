package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

// Broadcaster pushes an event to every websocket client watching a
// tournament room. Satisfied by *live.Hub.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

const (
	eventMatchFinalized  = "MATCH_FINALIZED"
	eventScheduleChanged = "SCHEDULE_CHANGED"
)

type matchEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type MatchService interface {
	// TransitionToPlayed moves a fixture to the played state: it reads the
	// fixture, derives the result from the goal score, writes the played
	// match and its two per-team detail rows, and removes the fixture, all
	// in one transaction.
	TransitionToPlayed(ctx context.Context, trID, matchNo int, outcome *models.Outcome) (*models.PlayedMatch, error)

	CreateScheduledMatch(ctx context.Context, match *models.ScheduledMatch) (*models.ScheduledMatch, error)
	UpdateScheduledMatch(ctx context.Context, match *models.ScheduledMatch) (*models.ScheduledMatch, error)
	DeleteScheduledMatch(ctx context.Context, trID, matchNo int) (*models.ScheduledMatch, error)
	ListScheduledMatches(ctx context.Context, trID int) ([]*models.ScheduledMatch, error)

	CreatePlayedMatch(ctx context.Context, match *models.PlayedMatch) (*models.PlayedMatch, error)
	UpdatePlayedMatch(ctx context.Context, match *models.PlayedMatch) (*models.PlayedMatch, error)
	DeletePlayedMatch(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error)
	ListPlayedMatches(ctx context.Context, trID int) ([]*models.PlayedMatch, error)
	GetPlayedMatch(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, []*models.MatchDetail, error)
}

type matchService struct {
	tx            repositories.TxManager
	scheduledRepo repositories.ScheduledMatchRepository
	playedRepo    repositories.PlayedMatchRepository
	detailRepo    repositories.MatchDetailRepository
	refRepo       repositories.ReferenceRepository
	hub           Broadcaster
	logger        *slog.Logger
}

func NewMatchService(
	tx repositories.TxManager,
	scheduledRepo repositories.ScheduledMatchRepository,
	playedRepo repositories.PlayedMatchRepository,
	detailRepo repositories.MatchDetailRepository,
	refRepo repositories.ReferenceRepository,
	hub Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:            tx,
		scheduledRepo: scheduledRepo,
		playedRepo:    playedRepo,
		detailRepo:    detailRepo,
		refRepo:       refRepo,
		hub:           hub,
		logger:        logger,
	}
}

func (s *matchService) TransitionToPlayed(ctx context.Context, trID, matchNo int, outcome *models.Outcome) (*models.PlayedMatch, error) {
	if err := outcome.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutcome, err)
	}
	team1Goals, team2Goals, err := models.ParseGoalScore(outcome.GoalScore)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoalScore, err)
	}
	if outcome.VenueID != 0 {
		ok, err := s.refRepo.VenueExists(ctx, outcome.VenueID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
		}
		if !ok {
			return nil, ErrVenueNotFound
		}
	}

	var played *models.PlayedMatch
	txErr := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		fixture, err := s.scheduledRepo.GetForUpdate(ctx, exec, trID, matchNo)
		if err != nil {
			if errors.Is(err, repositories.ErrScheduledMatchNotFound) {
				return ErrFixtureNotFound
			}
			return err
		}

		// The fixture's venue stands unless the outcome relocates the match.
		venueID := fixture.VenueID
		if outcome.VenueID != 0 {
			venueID = outcome.VenueID
		}

		played = &models.PlayedMatch{
			MatchNo:       fixture.MatchNo,
			TrID:          fixture.TrID,
			Stage:         fixture.Stage,
			PlayDate:      fixture.PlayDate,
			TeamID1:       fixture.TeamID1,
			TeamID2:       fixture.TeamID2,
			Results:       models.DeriveResult(team1Goals, team2Goals),
			DecidedBy:     outcome.DecidedBy,
			GoalScore:     outcome.GoalScore,
			VenueID:       venueID,
			Audience:      outcome.Audience,
			PlayerOfMatch: outcome.PlayerOfMatch,
			Stop1Sec:      outcome.Stop1Sec,
			Stop2Sec:      outcome.Stop2Sec,
		}
		if err := s.playedRepo.Create(ctx, exec, played); err != nil {
			if errors.Is(err, repositories.ErrPlayedMatchConflict) {
				return ErrMatchConflict
			}
			return err
		}

		details := []*models.MatchDetail{
			{
				MatchNo: fixture.MatchNo, TrID: fixture.TrID, TeamID: fixture.TeamID1,
				WinLose: outcome.Team1.WinLose, DecidedBy: outcome.DecidedBy,
				GoalScore: team1Goals, PenaltyScore: outcome.Team1.PenaltyScore,
				PlayerGK: outcome.Team1.GoalkeeperID,
			},
			{
				MatchNo: fixture.MatchNo, TrID: fixture.TrID, TeamID: fixture.TeamID2,
				WinLose: outcome.Team2.WinLose, DecidedBy: outcome.DecidedBy,
				GoalScore: team2Goals, PenaltyScore: outcome.Team2.PenaltyScore,
				PlayerGK: outcome.Team2.GoalkeeperID,
			},
		}
		for _, d := range details {
			if err := s.detailRepo.Create(ctx, exec, d); err != nil {
				return err
			}
		}

		// The delete must remove exactly the row we locked; a concurrent
		// transition that won the race leaves nothing to delete and this
		// transaction aborts.
		if _, err := s.scheduledRepo.Delete(ctx, exec, trID, matchNo); err != nil {
			if errors.Is(err, repositories.ErrScheduledMatchNotFound) {
				return ErrFixtureNotFound
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, s.wrapTxError(ctx, "transition to played", trID, matchNo, txErr)
	}

	s.broadcast(played.TrID, eventMatchFinalized, played)
	return played, nil
}

func (s *matchService) CreateScheduledMatch(ctx context.Context, m *models.ScheduledMatch) (*models.ScheduledMatch, error) {
	if !m.Stage.Valid() {
		return nil, fmt.Errorf("%w: invalid play stage %q", ErrInvalidOutcome, m.Stage)
	}
	if err := s.validateMatchRefs(ctx, m.TrID, m.TeamID1, m.TeamID2, m.VenueID, nil); err != nil {
		return nil, err
	}

	if err := s.scheduledRepo.Create(ctx, nil, m); err != nil {
		if errors.Is(err, repositories.ErrScheduledMatchConflict) {
			return nil, ErrMatchConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.broadcast(m.TrID, eventScheduleChanged, m)
	return m, nil
}

func (s *matchService) UpdateScheduledMatch(ctx context.Context, m *models.ScheduledMatch) (*models.ScheduledMatch, error) {
	if !m.Stage.Valid() {
		return nil, fmt.Errorf("%w: invalid play stage %q", ErrInvalidOutcome, m.Stage)
	}
	if err := s.validateMatchRefs(ctx, m.TrID, m.TeamID1, m.TeamID2, m.VenueID, nil); err != nil {
		return nil, err
	}

	if err := s.scheduledRepo.Update(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrScheduledMatchNotFound) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.broadcast(m.TrID, eventScheduleChanged, m)
	return m, nil
}

func (s *matchService) DeleteScheduledMatch(ctx context.Context, trID, matchNo int) (*models.ScheduledMatch, error) {
	deleted, err := s.scheduledRepo.Delete(ctx, nil, trID, matchNo)
	if err != nil {
		if errors.Is(err, repositories.ErrScheduledMatchNotFound) {
			return nil, ErrFixtureNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.broadcast(trID, eventScheduleChanged, deleted)
	return deleted, nil
}

func (s *matchService) ListScheduledMatches(ctx context.Context, trID int) ([]*models.ScheduledMatch, error) {
	matches, err := s.scheduledRepo.ListByTournament(ctx, trID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled matches for tournament %d: %w", trID, err)
	}
	return matches, nil
}

func (s *matchService) CreatePlayedMatch(ctx context.Context, m *models.PlayedMatch) (*models.PlayedMatch, error) {
	if !m.Stage.Valid() {
		return nil, fmt.Errorf("%w: invalid play stage %q", ErrInvalidOutcome, m.Stage)
	}
	if _, _, err := models.ParseGoalScore(m.GoalScore); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoalScore, err)
	}
	if err := s.validateMatchRefs(ctx, m.TrID, m.TeamID1, m.TeamID2, m.VenueID, &m.PlayerOfMatch); err != nil {
		return nil, err
	}

	if err := s.playedRepo.Create(ctx, nil, m); err != nil {
		if errors.Is(err, repositories.ErrPlayedMatchConflict) {
			return nil, ErrMatchConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.broadcast(m.TrID, eventMatchFinalized, m)
	return m, nil
}

func (s *matchService) UpdatePlayedMatch(ctx context.Context, m *models.PlayedMatch) (*models.PlayedMatch, error) {
	if !m.Stage.Valid() {
		return nil, fmt.Errorf("%w: invalid play stage %q", ErrInvalidOutcome, m.Stage)
	}
	if _, _, err := models.ParseGoalScore(m.GoalScore); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoalScore, err)
	}
	if err := s.validateMatchRefs(ctx, m.TrID, m.TeamID1, m.TeamID2, m.VenueID, &m.PlayerOfMatch); err != nil {
		return nil, err
	}

	if err := s.playedRepo.Update(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrPlayedMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.broadcast(m.TrID, eventMatchFinalized, m)
	return m, nil
}

func (s *matchService) DeletePlayedMatch(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error) {
	deleted, err := s.playedRepo.Delete(ctx, trID, matchNo)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayedMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return deleted, nil
}

func (s *matchService) ListPlayedMatches(ctx context.Context, trID int) ([]*models.PlayedMatch, error) {
	matches, err := s.playedRepo.ListByTournament(ctx, trID)
	if err != nil {
		return nil, fmt.Errorf("failed to list played matches for tournament %d: %w", trID, err)
	}
	return matches, nil
}

func (s *matchService) GetPlayedMatch(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, []*models.MatchDetail, error) {
	match, err := s.playedRepo.Get(ctx, trID, matchNo)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayedMatchNotFound) {
			return nil, nil, ErrMatchNotFound
		}
		return nil, nil, fmt.Errorf("failed to get played match %d/%d: %w", trID, matchNo, err)
	}
	details, err := s.detailRepo.ListByMatch(ctx, trID, matchNo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get match details %d/%d: %w", trID, matchNo, err)
	}
	return match, details, nil
}

// validateMatchRefs runs the referential preconditions for a match create or
// update. The checks are independent reads, so they fan out concurrently.
func (s *matchService) validateMatchRefs(ctx context.Context, trID, teamID1, teamID2, venueID int, playerOfMatch *int) error {
	if teamID1 == teamID2 {
		return ErrSameTeams
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ok, err := s.refRepo.TournamentExists(gctx, trID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTournamentNotFound
		}
		return nil
	})
	for _, teamID := range []int{teamID1, teamID2} {
		teamID := teamID
		g.Go(func() error {
			ok, err := s.refRepo.TeamRegistered(gctx, teamID, trID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: team %d", ErrTeamNotRegistered, teamID)
			}
			return nil
		})
	}
	g.Go(func() error {
		ok, err := s.refRepo.VenueExists(gctx, venueID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrVenueNotFound
		}
		return nil
	})
	if playerOfMatch != nil {
		playerID := *playerOfMatch
		g.Go(func() error {
			ok, err := s.refRepo.PlayerOnTeams(gctx, playerID, teamID1, teamID2, trID)
			if err != nil {
				return err
			}
			if !ok {
				return ErrPlayerNotOnTeams
			}
			return nil
		})
	}

	return g.Wait()
}

// wrapTxError passes known service errors through and wraps everything else
// (connection loss, constraint violations) as a transaction failure with the
// cause attached. Either way the store is unchanged and a retry is safe.
func (s *matchService) wrapTxError(ctx context.Context, op string, trID, matchNo int, err error) error {
	switch {
	case errors.Is(err, ErrFixtureNotFound),
		errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrMatchConflict):
		return err
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "match transaction rolled back",
			slog.String("op", op),
			slog.Int("tr_id", trID),
			slog.Int("match_no", matchNo),
			slog.Any("error", err),
		)
	}
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

func (s *matchService) broadcast(trID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(fmt.Sprintf("tr-%d", trID), matchEvent{Type: eventType, Payload: payload})
}
