package season

import (
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Career{},
		&models.Season{},
		&models.Team{},
		&models.Player{},
		&models.Fixture{},
		&models.TeamSeasonStats{},
		&models.PlayerSeasonStats{},
		&models.Match{},
		&models.Innings{},
		&models.BallEvent{},
		&models.PlayingXI{},
	))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestEngine(t *testing.T, db *gorm.DB, seed int64) *Engine {
	t.Helper()
	career := models.Career{UserID: 1, Name: "Test Career", Status: models.CareerInSeason}
	require.NoError(t, db.Create(&career).Error)
	season := models.Season{CareerID: career.ID, SeasonNumber: 1, Phase: models.SeasonLeagueStage}
	require.NoError(t, db.Create(&season).Error)
	return NewEngine(db, testLogger(), rand.New(rand.NewSource(seed)), &season)
}

func createTeams(t *testing.T, db *gorm.DB, n int) []models.Team {
	t.Helper()
	teams := make([]models.Team, 0, n)
	for i := 1; i <= n; i++ {
		team := models.Team{
			Name:       fmt.Sprintf("Team %d", i),
			ShortName:  fmt.Sprintf("T%d", i),
			HomeGround: fmt.Sprintf("Stadium %d", i),
		}
		require.NoError(t, db.Create(&team).Error)
		teams = append(teams, team)
	}
	return teams
}

// squadFor creates eleven domestic players owned by a team: four batsmen,
// a keeper, two all-rounders, four bowlers. DNA is synthesized from the
// coarse attributes by the match engine.
func squadFor(t *testing.T, db *gorm.DB, teamID uint) []*models.Player {
	t.Helper()
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

	squad := make([]*models.Player, 0, len(specs))
	for i, spec := range specs {
		p := &models.Player{
			Name:        fmt.Sprintf("Team%d Player%d", teamID, i+1),
			Role:        spec.role,
			BowlingType: spec.bowling,
			Batting:     62,
			Bowling:     62,
			Fielding:    60,
			Fitness:     60,
			Power:       55,
			TeamID:      &teamID,
		}
		require.NoError(t, db.Create(p).Error)
		squad = append(squad, p)
	}
	return squad
}

func TestGenerateLeagueFixtures(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 5)
	teams := createTeams(t, db, 8)

	fixtures, err := eng.GenerateLeagueFixtures(teams)
	require.NoError(t, err)
	require.Len(t, fixtures, 56)

	perTeam := make(map[uint]int)
	pairSeen := make(map[[2]uint]bool)
	for _, f := range fixtures {
		perTeam[f.Team1ID]++
		perTeam[f.Team2ID]++

		pair := [2]uint{f.Team1ID, f.Team2ID}
		assert.False(t, pairSeen[pair], "duplicate ordered pairing %v", pair)
		pairSeen[pair] = true

		// Home side hosts
		var home models.Team
		require.NoError(t, db.First(&home, f.Team1ID).Error)
		assert.Equal(t, home.HomeGround, f.Venue)
	}

	for _, team := range teams {
		assert.Equal(t, 14, perTeam[team.ID], "team %d", team.ID)
	}

	// Match numbers are a contiguous 1..56 sequence
	for i, f := range fixtures {
		assert.Equal(t, i+1, f.MatchNumber)
	}
}

func TestStandingsOrderByPointsThenNetRunRate(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 1)
	teams := createTeams(t, db, 3)

	// Team 1: 12 points, NRR +0.50. Team 2: 12 points, NRR -0.10.
	// Team 3: 10 points, NRR +1.20. Order must be 1, 2, 3.
	rows := []models.TeamSeasonStats{
		{SeasonID: eng.Season().ID, TeamID: teams[0].ID, Points: 12,
			RunsScored: 170, OversFaced: 20, RunsConceded: 160, OversBowled: 20},
		{SeasonID: eng.Season().ID, TeamID: teams[1].ID, Points: 12,
			RunsScored: 158, OversFaced: 20, RunsConceded: 160, OversBowled: 20},
		{SeasonID: eng.Season().ID, TeamID: teams[2].ID, Points: 10,
			RunsScored: 180, OversFaced: 20, RunsConceded: 156, OversBowled: 20},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	standings, err := eng.Standings()
	require.NoError(t, err)
	require.Len(t, standings, 3)

	assert.Equal(t, teams[0].ID, standings[0].Team.ID)
	assert.InDelta(t, 0.50, standings[0].NRR, 0.001)
	assert.Equal(t, teams[1].ID, standings[1].Team.ID)
	assert.InDelta(t, -0.10, standings[1].NRR, 0.001)
	assert.Equal(t, teams[2].ID, standings[2].Team.ID)
	assert.InDelta(t, 1.20, standings[2].NRR, 0.001)

	for i, row := range standings {
		assert.Equal(t, i+1, row.Position)
	}
}

// seedStandings gives n teams descending points so standings order matches
// team order.
func seedStandings(t *testing.T, db *gorm.DB, eng *Engine, teams []models.Team) {
	t.Helper()
	for i, team := range teams {
		row := models.TeamSeasonStats{
			SeasonID: eng.Season().ID,
			TeamID:   team.ID,
			Points:   2 * (len(teams) - i),
		}
		require.NoError(t, db.Create(&row).Error)
	}
}

func completeFixture(t *testing.T, db *gorm.DB, fixture *models.Fixture, winnerID uint) {
	t.Helper()
	fixture.Status = models.FixtureCompleted
	fixture.WinnerID = &winnerID
	require.NoError(t, db.Save(fixture).Error)
}

func TestPlayoffBracketProgression(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 2)
	teams := createTeams(t, db, 4)
	seedStandings(t, db, eng, teams)

	// League done (no league fixtures outstanding): Q1 and Eliminator
	created, err := eng.GenerateNextPlayoff()
	require.NoError(t, err)
	require.Len(t, created, 2)

	q1, elim := created[0], created[1]
	assert.Equal(t, models.FixtureQualifier1, q1.FixtureType)
	assert.Equal(t, teams[0].ID, q1.Team1ID)
	assert.Equal(t, teams[1].ID, q1.Team2ID)
	assert.Equal(t, teams[0].HomeGround, q1.Venue)

	assert.Equal(t, models.FixtureEliminator, elim.FixtureType)
	assert.Equal(t, teams[2].ID, elim.Team1ID)
	assert.Equal(t, teams[3].ID, elim.Team2ID)
	assert.Equal(t, teams[2].HomeGround, elim.Venue)

	// Q2 blocked until both finish
	_, err = eng.GenerateNextPlayoff()
	require.Error(t, err)

	// Table-topper loses Q1; third seed wins the Eliminator
	completeFixture(t, db, &q1, teams[1].ID)
	completeFixture(t, db, &elim, teams[2].ID)

	created, err = eng.GenerateNextPlayoff()
	require.NoError(t, err)
	require.Len(t, created, 1)
	q2 := created[0]
	assert.Equal(t, models.FixtureQualifier2, q2.FixtureType)
	assert.Equal(t, teams[0].ID, q2.Team1ID, "Q1 loser hosts qualifier 2")
	assert.Equal(t, teams[2].ID, q2.Team2ID)
	assert.Equal(t, teams[0].HomeGround, q2.Venue)

	// Final pairs the Q1 winner with the Q2 winner at the neutral venue
	completeFixture(t, db, &q2, teams[0].ID)
	created, err = eng.GenerateNextPlayoff()
	require.NoError(t, err)
	require.Len(t, created, 1)
	final := created[0]
	assert.Equal(t, models.FixtureFinal, final.FixtureType)
	assert.Equal(t, teams[1].ID, final.Team1ID)
	assert.Equal(t, teams[0].ID, final.Team2ID)
	assert.Equal(t, FinalVenue, final.Venue)

	// Bracket complete
	_, err = eng.GenerateNextPlayoff()
	require.Error(t, err)
}

func TestGenerateNextPlayoffRequiresLeagueComplete(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 3)
	teams := createTeams(t, db, 4)
	seedStandings(t, db, eng, teams)

	pending := models.Fixture{
		SeasonID:    eng.Season().ID,
		MatchNumber: 1,
		FixtureType: models.FixtureLeague,
		Team1ID:     teams[0].ID,
		Team2ID:     teams[1].ID,
		Status:      models.FixtureScheduled,
	}
	require.NoError(t, db.Create(&pending).Error)

	_, err := eng.GenerateNextPlayoff()
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)
}

func TestSelectPlayingXIRespectsCompositionRules(t *testing.T) {
	var squad []*models.Player
	id := uint(1)
	add := func(role models.PlayerRole, rating int, overseas bool) {
		squad = append(squad, &models.Player{
			ID:         id,
			Name:       fmt.Sprintf("P%d", id),
			Role:       role,
			Batting:    rating,
			Bowling:    rating,
			Fielding:   rating,
			Fitness:    rating,
			IsOverseas: overseas,
		})
		id++
	}

	add(models.RoleWicketKeeper, 70, false)
	add(models.RoleWicketKeeper, 60, true)
	for i := 0; i < 6; i++ {
		add(models.RoleBatsman, 75-i, i < 3) // three overseas batsmen
	}
	for i := 0; i < 3; i++ {
		add(models.RoleAllRounder, 68-i, i == 0)
	}
	for i := 0; i < 6; i++ {
		add(models.RoleBowler, 72-i, i < 2) // two overseas bowlers
	}

	xi := SelectPlayingXI(squad)
	require.Len(t, xi, 11)

	keepers, overseas, bowlingOptions := 0, 0, 0
	seen := make(map[uint]bool)
	for _, p := range xi {
		assert.False(t, seen[p.ID], "duplicate player %d", p.ID)
		seen[p.ID] = true
		if p.Role == models.RoleWicketKeeper {
			keepers++
		}
		if p.IsOverseas {
			overseas++
		}
		if p.Role == models.RoleBowler || p.Role == models.RoleAllRounder {
			bowlingOptions++
		}
	}
	assert.GreaterOrEqual(t, keepers, 1)
	assert.LessOrEqual(t, overseas, 4)
	assert.GreaterOrEqual(t, bowlingOptions, 5)
}

func TestSimulateFixtureRecordsMatch(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 11)
	teams := createTeams(t, db, 2)
	squad1 := squadFor(t, db, teams[0].ID)
	squad2 := squadFor(t, db, teams[1].ID)
	require.NoError(t, eng.InitializeTeamStats(teams))

	fixture := models.Fixture{
		SeasonID:    eng.Season().ID,
		MatchNumber: 1,
		FixtureType: models.FixtureLeague,
		Team1ID:     teams[0].ID,
		Team2ID:     teams[1].ID,
		Venue:       teams[0].HomeGround,
		Status:      models.FixtureScheduled,
	}
	require.NoError(t, db.Create(&fixture).Error)

	result, err := eng.SimulateFixture(&fixture)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, fixture.ID, result.FixtureID)
	assert.NotEmpty(t, result.Innings1Score)
	assert.NotEmpty(t, result.Innings2Score)

	assert.Equal(t, models.FixtureCompleted, fixture.Status)
	require.NotNil(t, fixture.MatchID)

	var inningsCount int64
	require.NoError(t, db.Model(&models.Innings{}).
		Where("match_id = ?", *fixture.MatchID).Count(&inningsCount).Error)
	assert.Equal(t, int64(2), inningsCount)

	var ballCount int64
	require.NoError(t, db.Model(&models.BallEvent{}).Count(&ballCount).Error)
	assert.Greater(t, ballCount, int64(100))

	// Two points enter the table whatever the result
	var stats []models.TeamSeasonStats
	require.NoError(t, db.Where("season_id = ?", eng.Season().ID).Find(&stats).Error)
	require.Len(t, stats, 2)
	totalPoints := 0
	for _, s := range stats {
		assert.Equal(t, 1, s.MatchesPlayed)
		totalPoints += s.Points
	}
	assert.Equal(t, 2, totalPoints)

	// Every fielded player is credited with one match
	var playerStats []models.PlayerSeasonStats
	require.NoError(t, db.Where("season_id = ?", eng.Season().ID).Find(&playerStats).Error)
	matchesCredited := 0
	for _, s := range playerStats {
		if s.Matches == 1 {
			matchesCredited++
		}
	}
	assert.Equal(t, len(squad1)+len(squad2), matchesCredited)

	assert.Equal(t, 1, eng.Season().CurrentMatchNumber)
}

func TestGenerateNextPlayoffRejectsTiedQualifier(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 21)
	teams := createTeams(t, db, 4)
	seedStandings(t, db, eng, teams)

	created, err := eng.GenerateNextPlayoff()
	require.NoError(t, err)
	require.Len(t, created, 2)
	q1, elim := created[0], created[1]

	// Q1 finished without a winner; the eliminator resolved normally
	q1.Status = models.FixtureCompleted
	q1.WinnerID = nil
	require.NoError(t, db.Save(&q1).Error)
	completeFixture(t, db, &elim, teams[2].ID)

	_, err = eng.GenerateNextPlayoff()
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)
}

func TestTiedKnockoutFixtureIsRescheduled(t *testing.T) {
	db := testDB(t)
	seasonEngine := newTestEngine(t, db, 23)
	teams := createTeams(t, db, 2)
	squadFor(t, db, teams[0].ID)
	squadFor(t, db, teams[1].ID)
	require.NoError(t, seasonEngine.InitializeTeamStats(teams))

	playMatch := func() (*engine.InningsState, *engine.InningsState) {
		xi1, err := seasonEngine.XIForTeam(teams[0].ID)
		require.NoError(t, err)
		xi2, err := seasonEngine.XIForTeam(teams[1].ID)
		require.NoError(t, err)
		me := engine.New(rand.New(rand.NewSource(23)))
		me.SimulateMatch(xi1, xi2, true, nil)
		me.Innings1.BattingTeamID, me.Innings1.BowlingTeamID = teams[0].ID, teams[1].ID
		me.Innings2.BattingTeamID, me.Innings2.BowlingTeamID = teams[1].ID, teams[0].ID
		return me.Innings1, me.Innings2
	}

	qualifier := models.Fixture{
		SeasonID:    seasonEngine.Season().ID,
		MatchNumber: 57,
		FixtureType: models.FixtureQualifier1,
		Team1ID:     teams[0].ID,
		Team2ID:     teams[1].ID,
		Status:      models.FixtureScheduled,
	}
	require.NoError(t, db.Create(&qualifier).Error)

	i1, i2 := playMatch()
	_, err := seasonEngine.RecordMatchResult(&qualifier, teams[0].ID, "bat", i1, i2, nil, "Match tied!")
	require.NoError(t, err)
	assert.Equal(t, models.FixtureScheduled, qualifier.Status, "tied knockout goes back on the schedule")
	assert.Nil(t, qualifier.WinnerID)

	// A tied league fixture stays completed
	league := models.Fixture{
		SeasonID:    seasonEngine.Season().ID,
		MatchNumber: 58,
		FixtureType: models.FixtureLeague,
		Team1ID:     teams[0].ID,
		Team2ID:     teams[1].ID,
		Status:      models.FixtureScheduled,
	}
	require.NoError(t, db.Create(&league).Error)

	i1, i2 = playMatch()
	_, err = seasonEngine.RecordMatchResult(&league, teams[0].ID, "bat", i1, i2, nil, "Match tied!")
	require.NoError(t, err)
	assert.Equal(t, models.FixtureCompleted, league.Status)
}

func TestSimulatedKnockoutFixtureAlwaysHasWinner(t *testing.T) {
	db := testDB(t)
	eng := newTestEngine(t, db, 29)
	teams := createTeams(t, db, 2)
	squadFor(t, db, teams[0].ID)
	squadFor(t, db, teams[1].ID)
	require.NoError(t, eng.InitializeTeamStats(teams))

	for i := 0; i < 5; i++ {
		fixture := models.Fixture{
			SeasonID:    eng.Season().ID,
			MatchNumber: 60 + i,
			FixtureType: models.FixtureEliminator,
			Team1ID:     teams[0].ID,
			Team2ID:     teams[1].ID,
			Status:      models.FixtureScheduled,
		}
		require.NoError(t, db.Create(&fixture).Error)

		result, err := eng.SimulateFixture(&fixture)
		require.NoError(t, err)
		require.NotNil(t, result.Winner, "knockout simulation %d produced no winner", i)
		assert.Equal(t, models.FixtureCompleted, fixture.Status)
		require.NotNil(t, fixture.WinnerID)
	}
}
