package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfupm-ics/soccer-tournament/models"
	"github.com/kfupm-ics/soccer-tournament/repositories"
)

type matchKey struct {
	trID    int
	matchNo int
}

// matchStore backs the fake repositories with plain maps so tests can assert
// on the exact rows left behind after a transition.
type matchStore struct {
	scheduled map[matchKey]models.ScheduledMatch
	played    map[matchKey]models.PlayedMatch
	details   map[matchKey][]models.MatchDetail
}

func newMatchStore() *matchStore {
	return &matchStore{
		scheduled: make(map[matchKey]models.ScheduledMatch),
		played:    make(map[matchKey]models.PlayedMatch),
		details:   make(map[matchKey][]models.MatchDetail),
	}
}

func (s *matchStore) clone() *matchStore {
	c := newMatchStore()
	for k, v := range s.scheduled {
		c.scheduled[k] = v
	}
	for k, v := range s.played {
		c.played[k] = v
	}
	for k, v := range s.details {
		c.details[k] = append([]models.MatchDetail(nil), v...)
	}
	return c
}

// fakeTxManager snapshots the store before running fn and restores it when fn
// fails, mirroring a rollback.
type fakeTxManager struct {
	store *matchStore
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	snapshot := m.store.clone()
	if err := fn(nil); err != nil {
		*m.store = *snapshot
		return err
	}
	return nil
}

type fakeScheduledRepo struct {
	store *matchStore
}

func (r *fakeScheduledRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.ScheduledMatch) error {
	k := matchKey{m.TrID, m.MatchNo}
	if _, ok := r.store.scheduled[k]; ok {
		return repositories.ErrScheduledMatchConflict
	}
	r.store.scheduled[k] = *m
	return nil
}

func (r *fakeScheduledRepo) Get(ctx context.Context, trID, matchNo int) (*models.ScheduledMatch, error) {
	return r.GetForUpdate(ctx, nil, trID, matchNo)
}

func (r *fakeScheduledRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, trID, matchNo int) (*models.ScheduledMatch, error) {
	m, ok := r.store.scheduled[matchKey{trID, matchNo}]
	if !ok {
		return nil, repositories.ErrScheduledMatchNotFound
	}
	return &m, nil
}

func (r *fakeScheduledRepo) ListByTournament(ctx context.Context, trID int) ([]*models.ScheduledMatch, error) {
	var out []*models.ScheduledMatch
	for _, m := range r.store.scheduled {
		if m.TrID == trID {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r *fakeScheduledRepo) Update(ctx context.Context, m *models.ScheduledMatch) error {
	k := matchKey{m.TrID, m.MatchNo}
	if _, ok := r.store.scheduled[k]; !ok {
		return repositories.ErrScheduledMatchNotFound
	}
	r.store.scheduled[k] = *m
	return nil
}

func (r *fakeScheduledRepo) Delete(ctx context.Context, exec repositories.SQLExecutor, trID, matchNo int) (*models.ScheduledMatch, error) {
	k := matchKey{trID, matchNo}
	m, ok := r.store.scheduled[k]
	if !ok {
		return nil, repositories.ErrScheduledMatchNotFound
	}
	delete(r.store.scheduled, k)
	return &m, nil
}

type fakePlayedRepo struct {
	store     *matchStore
	createErr error
}

func (r *fakePlayedRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.PlayedMatch) error {
	if r.createErr != nil {
		return r.createErr
	}
	k := matchKey{m.TrID, m.MatchNo}
	if _, ok := r.store.played[k]; ok {
		return repositories.ErrPlayedMatchConflict
	}
	r.store.played[k] = *m
	return nil
}

func (r *fakePlayedRepo) Get(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error) {
	m, ok := r.store.played[matchKey{trID, matchNo}]
	if !ok {
		return nil, repositories.ErrPlayedMatchNotFound
	}
	return &m, nil
}

func (r *fakePlayedRepo) ListByTournament(ctx context.Context, trID int) ([]*models.PlayedMatch, error) {
	var out []*models.PlayedMatch
	for _, m := range r.store.played {
		if m.TrID == trID {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r *fakePlayedRepo) Update(ctx context.Context, m *models.PlayedMatch) error {
	k := matchKey{m.TrID, m.MatchNo}
	if _, ok := r.store.played[k]; !ok {
		return repositories.ErrPlayedMatchNotFound
	}
	r.store.played[k] = *m
	return nil
}

func (r *fakePlayedRepo) Delete(ctx context.Context, trID, matchNo int) (*models.PlayedMatch, error) {
	k := matchKey{trID, matchNo}
	m, ok := r.store.played[k]
	if !ok {
		return nil, repositories.ErrPlayedMatchNotFound
	}
	delete(r.store.played, k)
	return &m, nil
}

type fakeDetailRepo struct {
	store     *matchStore
	createErr error
}

func (r *fakeDetailRepo) Create(ctx context.Context, exec repositories.SQLExecutor, d *models.MatchDetail) error {
	if r.createErr != nil {
		return r.createErr
	}
	k := matchKey{d.TrID, d.MatchNo}
	r.store.details[k] = append(r.store.details[k], *d)
	return nil
}

func (r *fakeDetailRepo) ListByMatch(ctx context.Context, trID, matchNo int) ([]*models.MatchDetail, error) {
	var out []*models.MatchDetail
	for _, d := range r.store.details[matchKey{trID, matchNo}] {
		d := d
		out = append(out, &d)
	}
	return out, nil
}

type teamTournament struct {
	teamID int
	trID   int
}

type fakeReferenceRepo struct {
	tournaments   map[int]bool
	teams         map[int]bool
	venues        map[int]bool
	players       map[int]bool
	registrations map[teamTournament]bool
	rosters       map[int]bool
}

func (r *fakeReferenceRepo) TournamentExists(ctx context.Context, trID int) (bool, error) {
	return r.tournaments[trID], nil
}

func (r *fakeReferenceRepo) TeamExists(ctx context.Context, teamID int) (bool, error) {
	return r.teams[teamID], nil
}

func (r *fakeReferenceRepo) VenueExists(ctx context.Context, venueID int) (bool, error) {
	return r.venues[venueID], nil
}

func (r *fakeReferenceRepo) PlayerExists(ctx context.Context, playerID int) (bool, error) {
	return r.players[playerID], nil
}

func (r *fakeReferenceRepo) TeamRegistered(ctx context.Context, teamID, trID int) (bool, error) {
	return r.registrations[teamTournament{teamID, trID}], nil
}

func (r *fakeReferenceRepo) PlayerOnTeams(ctx context.Context, playerID, teamID1, teamID2, trID int) (bool, error) {
	return r.rosters[playerID], nil
}

type broadcastCall struct {
	roomID  string
	message interface{}
}

type fakeBroadcaster struct {
	calls []broadcastCall
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message interface{}) {
	b.calls = append(b.calls, broadcastCall{roomID: roomID, message: message})
}

type matchServiceFixture struct {
	store     *matchStore
	scheduled *fakeScheduledRepo
	played    *fakePlayedRepo
	details   *fakeDetailRepo
	refs      *fakeReferenceRepo
	hub       *fakeBroadcaster
	svc       MatchService
}

func newMatchServiceFixture() *matchServiceFixture {
	store := newMatchStore()
	f := &matchServiceFixture{
		store:     store,
		scheduled: &fakeScheduledRepo{store: store},
		played:    &fakePlayedRepo{store: store},
		details:   &fakeDetailRepo{store: store},
		refs: &fakeReferenceRepo{
			tournaments:   map[int]bool{1: true},
			teams:         map[int]bool{100: true, 200: true},
			venues:        map[int]bool{5: true, 9: true},
			players:       map[int]bool{7: true},
			registrations: map[teamTournament]bool{{100, 1}: true, {200, 1}: true},
			rosters:       map[int]bool{7: true},
		},
		hub: &fakeBroadcaster{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewMatchService(&fakeTxManager{store: store}, f.scheduled, f.played, f.details, f.refs, f.hub, logger)
	return f
}

func (f *matchServiceFixture) addFixture(trID, matchNo int) models.ScheduledMatch {
	m := models.ScheduledMatch{
		MatchNo:  matchNo,
		TrID:     trID,
		PlayDate: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
		Stage:    models.StageGroup,
		VenueID:  5,
		TeamID1:  100,
		TeamID2:  200,
	}
	f.store.scheduled[matchKey{trID, matchNo}] = m
	return m
}

func normalOutcome(score string) *models.Outcome {
	t1, t2, _ := models.ParseGoalScore(score)
	wl := func(mine, theirs int) models.WinLose {
		switch {
		case mine > theirs:
			return models.OutcomeWin
		case mine < theirs:
			return models.OutcomeLose
		default:
			return models.OutcomeDraw
		}
	}
	return &models.Outcome{
		DecidedBy:     models.DecidedNormalTime,
		GoalScore:     score,
		Audience:      4500,
		PlayerOfMatch: 7,
		Team1:         models.TeamOutcome{WinLose: wl(t1, t2), GoalkeeperID: 11},
		Team2:         models.TeamOutcome{WinLose: wl(t2, t1), GoalkeeperID: 22},
	}
}

func TestTransitionToPlayed(t *testing.T) {
	f := newMatchServiceFixture()
	fixture := f.addFixture(1, 10)

	played, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("3-1"))
	require.NoError(t, err)

	assert.Equal(t, models.ResultTeam1Won, played.Results)
	assert.Equal(t, "3-1", played.GoalScore)
	assert.Equal(t, fixture.Stage, played.Stage)
	assert.Equal(t, fixture.PlayDate, played.PlayDate)
	assert.Equal(t, fixture.TeamID1, played.TeamID1)
	assert.Equal(t, fixture.TeamID2, played.TeamID2)
	assert.Equal(t, fixture.VenueID, played.VenueID)

	key := matchKey{1, 10}
	_, stillScheduled := f.store.scheduled[key]
	assert.False(t, stillScheduled, "fixture must leave the schedule")
	_, nowPlayed := f.store.played[key]
	assert.True(t, nowPlayed)

	details := f.store.details[key]
	require.Len(t, details, 2)
	assert.Equal(t, fixture.TeamID1, details[0].TeamID)
	assert.Equal(t, 3, details[0].GoalScore)
	assert.Equal(t, models.OutcomeWin, details[0].WinLose)
	assert.Equal(t, fixture.TeamID2, details[1].TeamID)
	assert.Equal(t, 1, details[1].GoalScore)
	assert.Equal(t, models.OutcomeLose, details[1].WinLose)

	require.Len(t, f.hub.calls, 1)
	assert.Equal(t, "tr-1", f.hub.calls[0].roomID)
	event, ok := f.hub.calls[0].message.(matchEvent)
	require.True(t, ok)
	assert.Equal(t, eventMatchFinalized, event.Type)
}

func TestTransitionToPlayedDraw(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)

	played, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("2-2"))
	require.NoError(t, err)

	assert.Equal(t, models.ResultDraw, played.Results)
	details := f.store.details[matchKey{1, 10}]
	require.Len(t, details, 2)
	assert.Equal(t, 2, details[0].GoalScore)
	assert.Equal(t, 2, details[1].GoalScore)
	assert.Equal(t, models.OutcomeDraw, details[0].WinLose)
	assert.Equal(t, models.OutcomeDraw, details[1].WinLose)
}

func TestTransitionToPlayedVenueOverride(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)

	outcome := normalOutcome("1-0")
	outcome.VenueID = 9

	played, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, outcome)
	require.NoError(t, err)
	assert.Equal(t, 9, played.VenueID)
}

func TestTransitionToPlayedUnknownVenueOverride(t *testing.T) {
	// Relocating a match to a venue that does not exist is a caller mistake,
	// not a store failure; it must be rejected before anything is written.
	f := newMatchServiceFixture()
	f.addFixture(1, 10)

	outcome := normalOutcome("1-0")
	outcome.VenueID = 42

	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, outcome)
	assert.ErrorIs(t, err, ErrVenueNotFound)

	_, stillScheduled := f.store.scheduled[matchKey{1, 10}]
	assert.True(t, stillScheduled)
	assert.Empty(t, f.store.played)
	assert.Empty(t, f.hub.calls)
}

func TestTransitionToPlayedFixtureNotFound(t *testing.T) {
	f := newMatchServiceFixture()

	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 99, normalOutcome("1-0"))
	assert.ErrorIs(t, err, ErrFixtureNotFound)
	assert.Empty(t, f.hub.calls)
}

func TestTransitionToPlayedRepeatedTransition(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)

	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("1-0"))
	require.NoError(t, err)

	_, err = f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("1-0"))
	assert.ErrorIs(t, err, ErrFixtureNotFound)
}

func TestTransitionToPlayedInvalidOutcome(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)

	bad := normalOutcome("1-0")
	bad.GoalScore = "one-nil"
	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, bad)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	bad = normalOutcome("1-0")
	bad.Team1.WinLose = "X"
	_, err = f.svc.TransitionToPlayed(context.Background(), 1, 10, bad)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	// Nothing moved.
	_, stillScheduled := f.store.scheduled[matchKey{1, 10}]
	assert.True(t, stillScheduled)
	assert.Empty(t, f.store.played)
}

func TestTransitionToPlayedConflict(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)
	f.store.played[matchKey{1, 10}] = models.PlayedMatch{MatchNo: 10, TrID: 1}

	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("1-0"))
	assert.ErrorIs(t, err, ErrMatchConflict)

	// The fixture survives the failed transition.
	_, stillScheduled := f.store.scheduled[matchKey{1, 10}]
	assert.True(t, stillScheduled)
}

func TestTransitionToPlayedRollsBackOnDetailFailure(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)
	f.details.createErr = errors.New("connection reset")

	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("3-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransactionFailed)

	// All or nothing: the failed write leaves the store exactly as it was.
	key := matchKey{1, 10}
	_, stillScheduled := f.store.scheduled[key]
	assert.True(t, stillScheduled)
	assert.Empty(t, f.store.played)
	assert.Empty(t, f.store.details[key])
	assert.Empty(t, f.hub.calls)
}

func TestCreateScheduledMatch(t *testing.T) {
	f := newMatchServiceFixture()

	m := &models.ScheduledMatch{
		MatchNo:  1,
		TrID:     1,
		PlayDate: time.Date(2026, 4, 1, 20, 0, 0, 0, time.UTC),
		Stage:    models.StageGroup,
		VenueID:  5,
		TeamID1:  100,
		TeamID2:  200,
	}

	created, err := f.svc.CreateScheduledMatch(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, m, created)

	_, ok := f.store.scheduled[matchKey{1, 1}]
	assert.True(t, ok)

	require.Len(t, f.hub.calls, 1)
	event := f.hub.calls[0].message.(matchEvent)
	assert.Equal(t, eventScheduleChanged, event.Type)
}

func TestCreateScheduledMatchValidation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *matchServiceFixture)
		mutate  func(m *models.ScheduledMatch)
		wantErr error
	}{
		{
			name:    "same teams",
			mutate:  func(m *models.ScheduledMatch) { m.TeamID2 = m.TeamID1 },
			wantErr: ErrSameTeams,
		},
		{
			name: "unknown tournament",
			setup: func(f *matchServiceFixture) {
				// Keep the registrations valid so only the tournament check fails.
				f.refs.registrations[teamTournament{100, 42}] = true
				f.refs.registrations[teamTournament{200, 42}] = true
			},
			mutate:  func(m *models.ScheduledMatch) { m.TrID = 42 },
			wantErr: ErrTournamentNotFound,
		},
		{
			name:    "unregistered team",
			mutate:  func(m *models.ScheduledMatch) { m.TeamID2 = 300 },
			wantErr: ErrTeamNotRegistered,
		},
		{
			name:    "unknown venue",
			mutate:  func(m *models.ScheduledMatch) { m.VenueID = 42 },
			wantErr: ErrVenueNotFound,
		},
		{
			name:    "invalid stage",
			mutate:  func(m *models.ScheduledMatch) { m.Stage = "Z" },
			wantErr: ErrInvalidOutcome,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMatchServiceFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			m := &models.ScheduledMatch{
				MatchNo: 1, TrID: 1, PlayDate: time.Now(),
				Stage: models.StageGroup, VenueID: 5, TeamID1: 100, TeamID2: 200,
			}
			tt.mutate(m)

			_, err := f.svc.CreateScheduledMatch(context.Background(), m)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.scheduled)
		})
	}
}

func TestCreateScheduledMatchDuplicate(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 1)

	m := &models.ScheduledMatch{
		MatchNo: 1, TrID: 1, PlayDate: time.Now(),
		Stage: models.StageGroup, VenueID: 5, TeamID1: 100, TeamID2: 200,
	}
	_, err := f.svc.CreateScheduledMatch(context.Background(), m)
	assert.ErrorIs(t, err, ErrMatchConflict)
}

func TestDeleteScheduledMatch(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)

	deleted, err := f.svc.DeleteScheduledMatch(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, deleted.MatchNo)
	assert.Empty(t, f.store.scheduled)

	_, err = f.svc.DeleteScheduledMatch(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrFixtureNotFound)
}

func TestCreatePlayedMatchDirect(t *testing.T) {
	f := newMatchServiceFixture()

	m := &models.PlayedMatch{
		MatchNo: 3, TrID: 1, Stage: models.StageFinal,
		PlayDate: time.Now(), TeamID1: 100, TeamID2: 200,
		Results: models.ResultTeam2Won, DecidedBy: models.DecidedPenalty,
		GoalScore: "1-1", VenueID: 5, Audience: 800, PlayerOfMatch: 7,
	}

	_, err := f.svc.CreatePlayedMatch(context.Background(), m)
	require.NoError(t, err)
	_, ok := f.store.played[matchKey{1, 3}]
	assert.True(t, ok)

	_, err = f.svc.CreatePlayedMatch(context.Background(), m)
	assert.ErrorIs(t, err, ErrMatchConflict)
}

func TestCreatePlayedMatchBadScore(t *testing.T) {
	f := newMatchServiceFixture()

	m := &models.PlayedMatch{
		MatchNo: 3, TrID: 1, Stage: models.StageFinal,
		PlayDate: time.Now(), TeamID1: 100, TeamID2: 200,
		GoalScore: "one", VenueID: 5, PlayerOfMatch: 7,
	}
	_, err := f.svc.CreatePlayedMatch(context.Background(), m)
	assert.ErrorIs(t, err, ErrInvalidGoalScore)
}

func TestGetPlayedMatch(t *testing.T) {
	f := newMatchServiceFixture()
	f.addFixture(1, 10)
	_, err := f.svc.TransitionToPlayed(context.Background(), 1, 10, normalOutcome("3-1"))
	require.NoError(t, err)

	match, details, err := f.svc.GetPlayedMatch(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "3-1", match.GoalScore)
	assert.Len(t, details, 2)

	_, _, err = f.svc.GetPlayedMatch(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestUpdateScheduledMatchNotFound(t *testing.T) {
	f := newMatchServiceFixture()

	m := &models.ScheduledMatch{
		MatchNo: 77, TrID: 1, PlayDate: time.Now(),
		Stage: models.StageGroup, VenueID: 5, TeamID1: 100, TeamID2: 200,
	}
	_, err := f.svc.UpdateScheduledMatch(context.Background(), m)
	assert.ErrorIs(t, err, ErrFixtureNotFound)
}
