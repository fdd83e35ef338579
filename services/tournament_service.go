package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, t *models.Tournament) (*models.Tournament, error)
	// DeleteTournament removes the tournament and, through the store's
	// cascading deletes, every registration, roster entry and match row
	// that belongs to it.
	DeleteTournament(ctx context.Context, trID int) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]*models.Tournament, error)

	RegisterTeam(ctx context.Context, trID, teamID int, group string) (*models.TeamRegistration, error)
	ApprovePlayer(ctx context.Context, trID, teamID, playerID int) (*models.RosterEntry, error)
	SelectCaptain(ctx context.Context, trID, teamID, playerID int) error
}

type tournamentService struct {
	tx             repositories.TxManager
	tournamentRepo repositories.TournamentRepository
	refRepo        repositories.ReferenceRepository
}

func NewTournamentService(
	tx repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	refRepo repositories.ReferenceRepository,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		refRepo:        refRepo,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, t *models.Tournament) (*models.Tournament, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrInvalidOutcome)
	}
	if !t.EndDate.After(t.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrInvalidOutcome)
	}

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentConflict) {
			return nil, ErrTournamentConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return t, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, trID int) (*models.Tournament, error) {
	deleted, err := s.tournamentRepo.Delete(ctx, trID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return deleted, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]*models.Tournament, error) {
	return s.tournamentRepo.List(ctx)
}

func (s *tournamentService) RegisterTeam(ctx context.Context, trID, teamID int, group string) (*models.TeamRegistration, error) {
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
	g.Go(func() error {
		ok, err := s.refRepo.TeamExists(gctx, teamID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTeamNotFound
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reg := &models.TeamRegistration{TeamID: teamID, TrID: trID, Group: group}
	if err := s.tournamentRepo.RegisterTeam(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return reg, nil
}

func (s *tournamentService) ApprovePlayer(ctx context.Context, trID, teamID, playerID int) (*models.RosterEntry, error) {
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
	g.Go(func() error {
		ok, err := s.refRepo.TeamExists(gctx, teamID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTeamNotFound
		}
		return nil
	})
	g.Go(func() error {
		ok, err := s.refRepo.PlayerExists(gctx, playerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrPlayerNotFound
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entry := &models.RosterEntry{PlayerID: playerID, TeamID: teamID, TrID: trID}
	if err := s.tournamentRepo.AddRosterEntry(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrRosterConflict) {
			return nil, ErrRosterConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	return entry, nil
}

// SelectCaptain demotes the current captain and promotes the target player
// in one transaction, so the team never has two captains.
func (s *tournamentService) SelectCaptain(ctx context.Context, trID, teamID, playerID int) error {
	onRoster, err := s.tournamentRepo.RosterEntryExists(ctx, trID, teamID, playerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	if !onRoster {
		return ErrPlayerNotOnRoster
	}

	txErr := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.tournamentRepo.SetCaptain(ctx, exec, trID, teamID, playerID)
	})
	if txErr != nil {
		if errors.Is(txErr, repositories.ErrRosterEntryNotFound) {
			return ErrPlayerNotOnRoster
		}
		return fmt.Errorf("%w: %v", ErrTransactionFailed, txErr)
	}
	return nil
}
