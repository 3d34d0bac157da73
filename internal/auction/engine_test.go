package auction

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
		&models.Team{},
		&models.Player{},
		&models.Auction{},
		&models.AuctionPlayerEntry{},
		&models.AuctionBid{},
		&models.TeamAuctionState{},
	))
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testTeams(t *testing.T, db *gorm.DB, n int) []models.Team {
	t.Helper()
	teams := make([]models.Team, 0, n)
	for i := 1; i <= n; i++ {
		team := models.Team{
			Name:            fmt.Sprintf("Team %d", i),
			ShortName:       fmt.Sprintf("T%d", i),
			Budget:          900000000,
			RemainingBudget: 900000000,
			IsUserTeam:      i == 1,
		}
		require.NoError(t, db.Create(&team).Error)
		teams = append(teams, team)
	}
	return teams
}

// testPlayer builds a pool player. rating drives both category and
// valuation quality.
func testPlayer(t *testing.T, db *gorm.DB, name string, role models.PlayerRole, rating int, basePrice int64) *models.Player {
	t.Helper()
	p := &models.Player{
		Name:      name,
		Role:      role,
		Batting:   rating,
		Bowling:   rating,
		Fielding:  rating,
		Fitness:   rating,
		BasePrice: basePrice,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func newTestEngine(t *testing.T, db *gorm.DB, seed int64) *Engine {
	t.Helper()
	auctionRow := &models.Auction{
		SeasonID:     1,
		Status:       models.AuctionNotStarted,
		SalaryCap:    900000000,
		MinSquadSize: 18,
		MaxSquadSize: 25,
		MaxOverseas:  8,
	}
	require.NoError(t, db.Create(auctionRow).Error)

	engine, err := NewEngine(db, testLogger(), rand.New(rand.NewSource(seed)), auctionRow)
	require.NoError(t, err)
	return engine
}

func TestNextBidAmountIncrements(t *testing.T) {
	cases := []struct {
		current int64
		next    int64
	}{
		{0, 500000},
		{2000000, 2500000},     // below 1cr: +5L
		{10000000, 11000000},   // 1cr: +10L
		{49000000, 50000000},   // still the +10L band
		{50000000, 52500000},   // 5cr: +25L
		{100000000, 105000000}, // 10cr: +50L
		{150000000, 160000000}, // 15cr: +1cr
	}
	for _, tc := range cases {
		assert.Equal(t, tc.next, NextBidAmount(tc.current), "current %d", tc.current)
	}
}

func TestMaxBidPossibleReservesMinimumSquadSlots(t *testing.T) {
	// 3 crore left, two slots still needed: one reserve of 2 crore is held
	// back, so at most 1 crore can be bid.
	state := &models.TeamAuctionState{
		RemainingBudget: 30000000,
		TotalPlayers:    16,
	}
	assert.Equal(t, 2, state.MinPlayersNeeded())
	assert.Equal(t, int64(10000000), state.MaxBidPossible())

	// Minimum met: the whole budget is biddable
	state.TotalPlayers = 18
	assert.Equal(t, int64(30000000), state.MaxBidPossible())

	// Reserve exceeding the budget clamps to zero
	state.TotalPlayers = 0
	state.RemainingBudget = 100000000
	assert.Equal(t, int64(0), state.MaxBidPossible())
}

func TestPlaceUserBidEnforcesBudgetCeiling(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 2)
	engine := newTestEngine(t, db, 1)
	player := testPlayer(t, db, "Target Player", models.RoleBatsman, 60, 2000000)
	require.NoError(t, engine.Initialize(teams, []*models.Player{player}))

	// Pin the user's state: 3 crore left, two slots to fill, ceiling 1 crore
	userState := engine.TeamState(teams[0].ID)
	userState.RemainingBudget = 30000000
	userState.TotalPlayers = 16
	require.NoError(t, db.Save(userState).Error)

	entry, _, err := engine.NextPlayer()
	require.NoError(t, err)
	require.NoError(t, engine.StartBidding(entry))

	// Drive the current bid so the next increment would breach the ceiling
	engine.auction.CurrentBid = 9800000
	_, err = engine.PlaceUserBid(teams[0].ID, player)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeAffordability, appErr.Code)

	// At a bid whose increment lands exactly on the ceiling, the bid goes in
	engine.auction.CurrentBid = 9500000
	engine.auction.CurrentBidderTeamID = nil
	newBid, err := engine.PlaceUserBid(teams[0].ID, player)
	require.NoError(t, err)
	assert.Equal(t, int64(10000000), newBid)
	assert.Equal(t, teams[0].ID, *engine.auction.CurrentBidderTeamID)
}

func TestPlaceUserBidRejectsDoubleBid(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 2)
	engine := newTestEngine(t, db, 1)
	player := testPlayer(t, db, "Target Player", models.RoleBatsman, 60, 2000000)
	require.NoError(t, engine.Initialize(teams, []*models.Player{player}))

	entry, _, err := engine.NextPlayer()
	require.NoError(t, err)
	require.NoError(t, engine.StartBidding(entry))

	_, err = engine.PlaceUserBid(teams[0].ID, player)
	require.NoError(t, err)

	_, err = engine.PlaceUserBid(teams[0].ID, player)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)
}

func TestInitializeOrdersMarqueeFirst(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 8)
	engine := newTestEngine(t, db, 1)

	ordinary := testPlayer(t, db, "Solid Bat", models.RoleBatsman, 60, 2000000)
	marquee := testPlayer(t, db, "Superstar", models.RoleBowler, 85, 20000000)
	keeper := testPlayer(t, db, "Gloveman", models.RoleWicketKeeper, 62, 4000000)
	require.NoError(t, engine.Initialize(teams, []*models.Player{ordinary, marquee, keeper}))

	var entries []models.AuctionPlayerEntry
	require.NoError(t, db.Where("auction_id = ?", engine.Auction().ID).
		Order("auction_order").Find(&entries).Error)
	require.Len(t, entries, 3)

	assert.Equal(t, marquee.ID, entries[0].PlayerID)
	assert.Equal(t, models.CategoryMarquee, entries[0].Category)
	assert.Equal(t, ordinary.ID, entries[1].PlayerID)
	assert.Equal(t, keeper.ID, entries[2].PlayerID)
	assert.Equal(t, models.CategoryMarquee, engine.Auction().CurrentCategory)
}

func TestSkipCategoryNeverSellsToUserTeam(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 8)
	engine := newTestEngine(t, db, 7)

	var pool []*models.Player
	for i := 0; i < 6; i++ {
		pool = append(pool, testPlayer(t, db, fmt.Sprintf("Bowler %d", i), models.RoleBowler, 68, 5000000))
	}
	require.NoError(t, engine.Initialize(teams, pool))

	userTeamID := teams[0].ID
	results, err := engine.SkipCategory(models.CategoryBowlers, userTeamID)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for _, result := range results {
		if result.IsSold {
			assert.NotEqual(t, userTeamID, result.WinningTeam.ID)
		}
		for _, bid := range result.BidHistory {
			assert.NotEqual(t, userTeamID, bid.TeamID)
		}
	}

	// User budget untouched
	assert.Equal(t, int64(900000000), engine.TeamState(userTeamID).RemainingBudget)

	// Category fully drained
	var remaining int64
	require.NoError(t, db.Model(&models.AuctionPlayerEntry{}).
		Where("auction_id = ? AND status = ? AND category = ?",
			engine.Auction().ID, models.AuctionPlayerAvailable, models.CategoryBowlers).
		Count(&remaining).Error)
	assert.Zero(t, remaining)
}

func TestFinalizePlayerTwiceIsInvalidState(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 2)
	engine := newTestEngine(t, db, 1)
	player := testPlayer(t, db, "One Shot", models.RoleBatsman, 60, 2000000)
	require.NoError(t, engine.Initialize(teams, []*models.Player{player}))

	entry, _, err := engine.NextPlayer()
	require.NoError(t, err)
	require.NoError(t, engine.StartBidding(entry))

	_, err = engine.FinalizePlayer(entry)
	require.NoError(t, err)

	_, err = engine.FinalizePlayer(entry)
	require.Error(t, err)
	appErr, ok := err.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrCodeInvalidState, appErr.Code)
}

func TestFullAuctionConservesMoney(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 8)
	engine := newTestEngine(t, db, 21)

	var pool []*models.Player
	roles := []models.PlayerRole{
		models.RoleBatsman, models.RoleBowler,
		models.RoleAllRounder, models.RoleWicketKeeper,
	}
	for i := 0; i < 40; i++ {
		pool = append(pool, testPlayer(t, db,
			fmt.Sprintf("Pool %d", i), roles[i%len(roles)], 55+i%30, 2000000))
	}
	require.NoError(t, engine.Initialize(teams, pool))

	for {
		entry, _, err := engine.NextPlayer()
		require.NoError(t, err)
		if entry == nil {
			break
		}
		require.NoError(t, engine.StartBidding(entry))
		_, err = engine.RunCompetitiveAIBidding(entry, 0)
		require.NoError(t, err)
	}
	require.NoError(t, engine.Complete())

	done, err := engine.IsComplete()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, models.AuctionCompleted, engine.Auction().Status)
	assert.Equal(t, 40, engine.Auction().PlayersSold+engine.Auction().PlayersUnsold)

	// Every rupee spent by a team matches the sold prices of its players
	for _, team := range teams {
		var spent int64
		var players []models.Player
		require.NoError(t, db.Where("team_id = ?", team.ID).Find(&players).Error)
		for _, p := range players {
			require.NotNil(t, p.SoldPrice)
			assert.GreaterOrEqual(t, *p.SoldPrice, p.BasePrice)
			spent += *p.SoldPrice
		}
		state := engine.TeamState(team.ID)
		assert.Equal(t, team.Budget-spent, state.RemainingBudget, "team %d", team.ID)
		assert.Equal(t, len(players), state.TotalPlayers, "team %d", team.ID)
	}
}

func TestPlayerGoesUnsoldWhenSquadsAreFull(t *testing.T) {
	db := testDB(t)
	teams := testTeams(t, db, 2)
	engine := newTestEngine(t, db, 1)
	player := testPlayer(t, db, "Nobody Wants Me", models.RoleBatsman, 60, 2000000)
	require.NoError(t, engine.Initialize(teams, []*models.Player{player}))

	for _, team := range teams {
		state := engine.TeamState(team.ID)
		state.TotalPlayers = 25
		require.NoError(t, db.Save(state).Error)
	}

	entry, _, err := engine.NextPlayer()
	require.NoError(t, err)
	require.NoError(t, engine.StartBidding(entry))

	result, err := engine.RunCompetitiveAIBidding(entry, 0)
	require.NoError(t, err)
	assert.False(t, result.IsSold)
	assert.Nil(t, result.WinningTeam)
	assert.Equal(t, 1, engine.Auction().PlayersUnsold)
}
