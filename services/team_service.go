package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/repositories"
	"github.com/kfupm-ics/soccer-tournament/storage"
)

type TeamService interface {
	ListTeams(ctx context.Context) ([]*models.Team, error)
	ListPlayers(ctx context.Context) ([]*models.Player, error)
	ListRoster(ctx context.Context, trID, teamID int) ([]*models.Player, error)
	UploadCrest(ctx context.Context, teamID int, contentType string, r io.Reader) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	refRepo  repositories.ReferenceRepository
	uploader storage.FileUploader
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	refRepo repositories.ReferenceRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		teamRepo: teamRepo,
		refRepo:  refRepo,
		uploader: uploader,
	}
}

func (s *teamService) ListTeams(ctx context.Context) ([]*models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range teams {
		s.populateCrestURL(t)
	}
	return teams, nil
}

func (s *teamService) ListPlayers(ctx context.Context) ([]*models.Player, error) {
	return s.teamRepo.ListPlayers(ctx)
}

func (s *teamService) ListRoster(ctx context.Context, trID, teamID int) ([]*models.Player, error) {
	ok, err := s.refRepo.TeamRegistered(ctx, teamID, trID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: team %d", ErrTeamNotRegistered, teamID)
	}
	return s.teamRepo.ListRoster(ctx, trID, teamID)
}

func (s *teamService) UploadCrest(ctx context.Context, teamID int, contentType string, r io.Reader) (*models.Team, error) {
	// The uploader is nil when no R2 credentials were configured at startup.
	if s.uploader == nil {
		return nil, ErrCrestStorageDisabled
	}

	ext, err := crestExtension(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutcome, err)
	}

	team, err := s.teamRepo.Get(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("teams/%d/crest%s", teamID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, r); err != nil {
		return nil, fmt.Errorf("failed to upload crest for team %d: %w", teamID, err)
	}

	if err := s.teamRepo.UpdateCrestKey(ctx, teamID, &key); err != nil {
		return nil, err
	}
	team.CrestKey = &key
	s.populateCrestURL(team)
	return team, nil
}

func (s *teamService) populateCrestURL(t *models.Team) {
	if t == nil || t.CrestKey == nil || *t.CrestKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*t.CrestKey); url != "" {
		t.CrestURL = &url
	}
}

func crestExtension(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	case "image/svg+xml":
		return ".svg", nil
	default:
		if strings.HasPrefix(contentType, "image/") {
			return "." + strings.SplitN(strings.TrimPrefix(contentType, "image/"), "+", 2)[0], nil
		}
		return "", fmt.Errorf("unsupported crest content type %q", contentType)
	}
}
