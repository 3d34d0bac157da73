package services

import (
	"fmt"
	"io"
	"math/rand"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

func testManager(seed int64) *MatchSessionManager {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewMatchSessionManager(rand.New(rand.NewSource(seed)), log)
}

// sessionXI builds an eleven for a team. IDs are offset by team so the two
// sides never collide.
func sessionXI(teamID uint) []*models.Player {
	specs := []struct {
		role    models.PlayerRole
		bowling models.BowlingType
	}{
		{models.RoleBatsman, models.BowlingNone},
		{models.RoleBatsman, models.BowlingNone},
		{models.RoleWicketKeeper, models.BowlingNone},
		{models.RoleBatsman, models.BowlingNone},
		{models.RoleBatsman, models.BowlingNone},
		{models.RoleAllRounder, models.BowlingOffSpin},
		{models.RoleAllRounder, models.BowlingMedium},
		{models.RoleBowler, models.BowlingPace},
		{models.RoleBowler, models.BowlingPace},
		{models.RoleBowler, models.BowlingLegSpin},
		{models.RoleBowler, models.BowlingLeftArmSpin},
	}
	xi := make([]*models.Player, 0, len(specs))
	for i, spec := range specs {
		xi = append(xi, &models.Player{
			ID:          teamID*100 + uint(i+1),
			Name:        fmt.Sprintf("T%d P%d", teamID, i+1),
			Role:        spec.role,
			BowlingType: spec.bowling,
			Batting:     60,
			Bowling:     60,
			Fielding:    58,
			Fitness:     60,
			Power:       55,
		})
	}
	return xi
}

func testFixture() *models.Fixture {
	return &models.Fixture{
		ID:          1,
		SeasonID:    1,
		MatchNumber: 1,
		FixtureType: models.FixtureLeague,
		Team1ID:     1,
		Team2ID:     2,
		Status:      models.FixtureScheduled,
	}
}

func TestStartMatchRequiresToss(t *testing.T) {
	m := testManager(1)
	defer m.Stop()

	_, err := m.StartMatch(testFixture(), "bat", sessionXI(1), sessionXI(2), 1)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)
}

func TestTossDecisionSetsBattingOrder(t *testing.T) {
	m := testManager(2)
	defer m.Stop()
	fixture := testFixture()

	toss := m.DoToss(fixture)
	require.Contains(t, []uint{1, 2}, toss.TossWinnerID)
	assert.Equal(t, toss, m.PendingToss(fixture.ID))

	session, err := m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), 1)
	require.NoError(t, err)
	assert.Equal(t, toss.TossWinnerID, session.BattingFirstTeamID)
	assert.NotEqual(t, session.BattingFirstTeamID, session.BowlingFirstTeamID)
	assert.Nil(t, m.PendingToss(fixture.ID), "toss consumed by start")
	assert.True(t, m.HasSession(fixture.ID))
}

func TestTossDecisionBowlInverts(t *testing.T) {
	m := testManager(3)
	defer m.Stop()
	fixture := testFixture()

	toss := m.DoToss(fixture)
	session, err := m.StartMatch(fixture, "bowl", sessionXI(1), sessionXI(2), 1)
	require.NoError(t, err)
	assert.Equal(t, toss.TossWinnerID, session.BowlingFirstTeamID)
}

func TestStartMatchRejectsBadDecision(t *testing.T) {
	m := testManager(4)
	defer m.Stop()
	fixture := testFixture()

	m.DoToss(fixture)
	_, err := m.StartMatch(fixture, "field", sessionXI(1), sessionXI(2), 1)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeValidation, appErr.Code)

	// A rejected decision leaves the toss parked for a retry
	assert.NotNil(t, m.PendingToss(fixture.ID))
}

func TestStartMatchRejectsDuplicateSession(t *testing.T) {
	m := testManager(5)
	defer m.Stop()
	fixture := testFixture()

	m.DoToss(fixture)
	_, err := m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), 1)
	require.NoError(t, err)

	m.DoToss(fixture)
	_, err = m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), 1)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)
}

func TestUserFieldingGatesOnBowlerSelection(t *testing.T) {
	m := testManager(6)
	defer m.Stop()
	fixture := testFixture()

	toss := m.DoToss(fixture)
	fieldingTeam := uint(1)
	if toss.TossWinnerID == 1 {
		fieldingTeam = 2
	}
	session, err := m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), fieldingTeam)
	require.NoError(t, err)

	// The fielding user has no bowler yet
	require.Zero(t, session.Engine.Innings1.CurrentBowlerID)

	_, err = m.PlayBall(fixture.ID, "")
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)

	bowlers, err := m.AvailableBowlers(fixture.ID)
	require.NoError(t, err)
	require.NotEmpty(t, bowlers)

	picked, err := m.SelectBowler(fixture.ID, bowlers[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bowlers[0].ID, picked.ID)

	outcome, err := m.PlayBall(fixture.ID, "")
	require.NoError(t, err)
	require.NotNil(t, outcome)
}

func TestSelectBowlerRejectsUnavailable(t *testing.T) {
	m := testManager(7)
	defer m.Stop()
	fixture := testFixture()

	m.DoToss(fixture)
	_, err := m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), 1)
	require.NoError(t, err)

	_, err = m.SelectBowler(fixture.ID, 9999)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeValidation, appErr.Code)
}

func TestFullMatchLifecycle(t *testing.T) {
	m := testManager(8)
	defer m.Stop()
	fixture := testFixture()

	toss := m.DoToss(fixture)
	// The user bats first so the AI fielding side auto-picks its bowlers
	_, err := m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), toss.TossWinnerID)
	require.NoError(t, err)

	first, err := m.SimulateInnings(fixture.ID)
	require.NoError(t, err)
	assert.True(t, first.IsComplete())
	assert.True(t, m.HasSession(fixture.ID), "second innings still live")

	second, err := m.SimulateInnings(fixture.ID)
	require.NoError(t, err)
	assert.True(t, second.IsComplete())
	assert.False(t, m.HasSession(fixture.ID), "completed match leaves the active map")

	result, err := m.ConsumeResult(fixture.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, first.TotalRuns, result.Summary.Innings1.Runs)
	assert.Equal(t, second.TotalRuns, result.Summary.Innings2.Runs)
	assert.Equal(t, toss.TossWinnerID, result.TossWinnerID)

	// One read only
	_, err = m.ConsumeResult(fixture.ID)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeNotFound, appErr.Code)
}

func TestEndSessionDropsState(t *testing.T) {
	m := testManager(9)
	defer m.Stop()
	fixture := testFixture()

	m.DoToss(fixture)
	_, err := m.StartMatch(fixture, "bat", sessionXI(1), sessionXI(2), 1)
	require.NoError(t, err)

	m.EndSession(fixture.ID)
	assert.False(t, m.HasSession(fixture.ID))
	_, err = m.Session(fixture.ID)
	require.Error(t, err)
}

func TestWinnerTeamIDMapping(t *testing.T) {
	base := CompletedResult{BattingFirstTeamID: 4, BowlingFirstTeamID: 9}

	r := base
	r.Summary = &engine.MatchSummary{Winner: "team1"}
	require.NotNil(t, r.WinnerTeamID())
	assert.Equal(t, uint(4), *r.WinnerTeamID())

	r = base
	r.Summary = &engine.MatchSummary{Winner: "team2"}
	require.NotNil(t, r.WinnerTeamID())
	assert.Equal(t, uint(9), *r.WinnerTeamID())

	r = base
	r.Summary = &engine.MatchSummary{Winner: "tie"}
	assert.Nil(t, r.WinnerTeamID())
}

func TestConcurrentSessionsProgressIndependently(t *testing.T) {
	m := testManager(10)
	defer m.Stop()

	fixtures := []*models.Fixture{
		{ID: 1, SeasonID: 1, MatchNumber: 1, FixtureType: models.FixtureLeague, Team1ID: 1, Team2ID: 2, Status: models.FixtureScheduled},
		{ID: 2, SeasonID: 1, MatchNumber: 2, FixtureType: models.FixtureLeague, Team1ID: 3, Team2ID: 4, Status: models.FixtureScheduled},
	}
	for _, fixture := range fixtures {
		toss := m.DoToss(fixture)
		// User bats first so the AI fielding side auto-picks bowlers
		_, err := m.StartMatch(fixture, "bat",
			sessionXI(fixture.Team1ID), sessionXI(fixture.Team2ID), toss.TossWinnerID)
		require.NoError(t, err)
	}

	s1, err := m.Session(1)
	require.NoError(t, err)
	s2, err := m.Session(2)
	require.NoError(t, err)
	require.NotSame(t, s1.Engine, s2.Engine)

	var wg sync.WaitGroup
	for _, fixture := range fixtures {
		for g := 0; g < 2; g++ {
			wg.Add(1)
			go func(id uint) {
				defer wg.Done()
				for i := 0; i < 60; i++ {
					if _, err := m.PlayBall(id, ""); err != nil {
						// Innings breaks and match completion end the loop
						// early for this worker.
						return
					}
				}
			}(fixture.ID)
		}
	}
	wg.Wait()

	for _, fixture := range fixtures {
		if m.HasSession(fixture.ID) {
			continue
		}
		_, ok := m.PeekResult(fixture.ID)
		assert.True(t, ok, "fixture %d lost both its session and its result", fixture.ID)
	}
}
