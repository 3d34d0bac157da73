package handlers

import (
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/internal/season"
	"github.com/rsumit123/willow-leather-api/internal/services"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

const standingsCacheTTL = 5 * time.Minute

type SeasonHandler struct {
	db       *database.DB
	cfg      *config.Config
	log      *logrus.Logger
	locks    *services.CareerLocks
	cache    *services.CacheService
	sessions *services.MatchSessionManager
}

func NewSeasonHandler(db *database.DB, cfg *config.Config, log *logrus.Logger,
	locks *services.CareerLocks, cache *services.CacheService, sessions *services.MatchSessionManager) *SeasonHandler {
	return &SeasonHandler{db: db, cfg: cfg, log: log, locks: locks, cache: cache, sessions: sessions}
}

// seasonContext carries the resolved career, season and engine.
type seasonContext struct {
	career *models.Career
	season *models.Season
	engine *season.Engine
}

func (h *SeasonHandler) loadContext(c *gin.Context) (*seasonContext, bool) {
	careerHandler := &CareerHandler{db: h.db, cfg: h.cfg, log: h.log}
	career, ok := careerHandler.loadCareer(c)
	if !ok {
		return nil, false
	}
	seasonRow, err := careerHandler.currentSeason(career.ID)
	if err != nil || seasonRow == nil {
		utils.SendNotFound(c, "Season not found")
		return nil, false
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &seasonContext{
		career: career,
		season: seasonRow,
		engine: season.NewEngine(h.db.DB, h.log, rng, seasonRow),
	}, true
}

// GenerateFixtures builds the 56-match double round robin once the auction
// is done, moving the season into the league stage.
func (h *SeasonHandler) GenerateFixtures(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var fixtures []models.Fixture
	err := h.locks.WithLock(ctx.career.ID, func() error {
		if !ctx.season.AuctionCompleted {
			return utils.NewAppError(utils.ErrCodeInvalidState, "auction must complete before fixtures are generated")
		}
		if ctx.season.Phase != models.SeasonAuction && ctx.season.Phase != models.SeasonNotStarted {
			return utils.NewAppError(utils.ErrCodeInvalidState, "fixtures have already been generated")
		}

		var teams []models.Team
		if err := h.db.Where("career_id = ?", ctx.career.ID).Find(&teams).Error; err != nil {
			return err
		}

		var err error
		fixtures, err = ctx.engine.GenerateLeagueFixtures(teams)
		if err != nil {
			return err
		}
		if err := ctx.engine.InitializeTeamStats(teams); err != nil {
			return err
		}

		ctx.season.Phase = models.SeasonLeagueStage
		if err := h.db.Save(ctx.season).Error; err != nil {
			return err
		}
		ctx.career.Status = models.CareerInSeason
		return h.db.Save(ctx.career).Error
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	h.invalidateSeasonCaches(c, ctx)
	utils.SendSuccess(c, gin.H{
		"fixtures_generated": len(fixtures),
		"phase":              ctx.season.Phase,
	})
}

// ListFixtures returns the season's fixtures, optionally filtered by type
// or status.
func (h *SeasonHandler) ListFixtures(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	query := h.db.Preload("Team1").Preload("Team2").
		Where("season_id = ?", ctx.season.ID).
		Order("match_number")
	if t := c.Query("type"); t != "" {
		query = query.Where("fixture_type = ?", t)
	}
	if s := c.Query("status"); s != "" {
		query = query.Where("status = ?", s)
	}

	var fixtures []models.Fixture
	if err := query.Find(&fixtures).Error; err != nil {
		utils.SendInternalError(c, "Failed to list fixtures")
		return
	}
	utils.SendSuccess(c, fixtures)
}

// NextFixture returns the next unplayed fixture, or null when none remain.
func (h *SeasonHandler) NextFixture(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	fixture, err := ctx.engine.NextFixture()
	if err != nil {
		utils.SendInternalError(c, "Failed to load next fixture")
		return
	}
	utils.SendSuccess(c, fixture)
}

// GetStandings returns the league table, cached briefly since it only moves
// when a match completes.
func (h *SeasonHandler) GetStandings(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	cacheKey := services.StandingsCacheKey(ctx.career.ID)
	var cached []season.StandingRow
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	standings, err := ctx.engine.Standings()
	if err != nil {
		utils.SendInternalError(c, "Failed to compute standings")
		return
	}

	if err := h.cache.Set(c.Request.Context(), cacheKey, standings, standingsCacheTTL); err != nil {
		h.log.WithError(err).Warn("Failed to cache standings")
	}
	utils.SendSuccess(c, standings)
}

// SimulateFixture plays one fixture instantly with auto-selected elevens.
func (h *SeasonHandler) SimulateFixture(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}
	fixture, ok := h.loadFixture(c, ctx)
	if !ok {
		return
	}

	var result *season.MatchResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		if h.sessions.HasSession(fixture.ID) {
			return utils.NewAppError(utils.ErrCodeInvalidState, "fixture has a live match session, finish or abandon it first")
		}
		if fixture.Status != models.FixtureScheduled {
			return utils.NewAppError(utils.ErrCodeInvalidState, "fixture is not available for simulation")
		}
		var err error
		result, err = ctx.engine.SimulateFixture(fixture)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	h.invalidateSeasonCaches(c, ctx)
	utils.SendSuccess(c, result)
}

// SimulateRemainingLeague drains every scheduled league fixture.
func (h *SeasonHandler) SimulateRemainingLeague(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var results []*season.MatchResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		var fixtures []models.Fixture
		err := h.db.Where("season_id = ? AND fixture_type = ? AND status = ?",
			ctx.season.ID, models.FixtureLeague, models.FixtureScheduled).
			Order("match_number").
			Find(&fixtures).Error
		if err != nil {
			return err
		}

		for i := range fixtures {
			if h.sessions.HasSession(fixtures[i].ID) {
				return utils.NewAppError(utils.ErrCodeInvalidState, "a fixture has a live match session, finish it first")
			}
			result, err := ctx.engine.SimulateFixture(&fixtures[i])
			if err != nil {
				return err
			}
			results = append(results, result)
		}
		return nil
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	h.invalidateSeasonCaches(c, ctx)
	utils.SendSuccess(c, gin.H{
		"matches_simulated": len(results),
		"results":           results,
	})
}

// GeneratePlayoffs advances the bracket: qualifier 1 and the eliminator
// after the league, qualifier 2 once both finish, then the final.
func (h *SeasonHandler) GeneratePlayoffs(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var fixtures []models.Fixture
	err := h.locks.WithLock(ctx.career.ID, func() error {
		var err error
		fixtures, err = ctx.engine.GenerateNextPlayoff()
		if err != nil {
			return err
		}

		if ctx.season.Phase != models.SeasonPlayoffs {
			ctx.season.Phase = models.SeasonPlayoffs
			if err := h.db.Save(ctx.season).Error; err != nil {
				return err
			}
		}
		if ctx.career.Status != models.CareerPlayoffs {
			ctx.career.Status = models.CareerPlayoffs
			if err := h.db.Save(ctx.career).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	h.invalidateSeasonCaches(c, ctx)
	utils.SendSuccess(c, fixtures)
}

// CompleteSeason closes the season out from the finished final.
func (h *SeasonHandler) CompleteSeason(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	err := h.locks.WithLock(ctx.career.ID, func() error {
		var final models.Fixture
		err := h.db.Preload("Team1").Preload("Team2").
			Where("season_id = ? AND fixture_type = ? AND status = ?",
				ctx.season.ID, models.FixtureFinal, models.FixtureCompleted).
			First(&final).Error
		if err != nil {
			return utils.NewAppError(utils.ErrCodeInvalidState, "final has not been played yet")
		}
		if final.WinnerID == nil {
			return utils.NewAppError(utils.ErrCodeInvalidState, "final has no winner recorded")
		}

		champion, runnerUp := final.Team1, final.Team2
		if *final.WinnerID == final.Team2ID {
			champion, runnerUp = final.Team2, final.Team1
		}
		return ctx.engine.CompleteSeason(champion, runnerUp)
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"phase":            ctx.season.Phase,
		"champion_team_id": ctx.season.ChampionTeamID,
		"runner_up_id":     ctx.season.RunnerUpTeamID,
	})
}

// Leaderboards returns the season's top run scorers and wicket takers.
func (h *SeasonHandler) Leaderboards(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var topBatters []models.PlayerSeasonStats
	err := h.db.Preload("Player").
		Where("season_id = ? AND runs > 0", ctx.season.ID).
		Order("runs desc, balls_faced asc").
		Limit(10).
		Find(&topBatters).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to load batting leaderboard")
		return
	}

	var topBowlers []models.PlayerSeasonStats
	err = h.db.Preload("Player").
		Where("season_id = ? AND wickets > 0", ctx.season.ID).
		Order("wickets desc, runs_conceded asc").
		Limit(10).
		Find(&topBowlers).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to load bowling leaderboard")
		return
	}

	utils.SendSuccess(c, gin.H{
		"most_runs":    topBatters,
		"most_wickets": topBowlers,
	})
}

// loadFixture resolves the fixture in the path and checks it belongs to the
// career's current season.
func (h *SeasonHandler) loadFixture(c *gin.Context, ctx *seasonContext) (*models.Fixture, bool) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return nil, false
	}

	var fixture models.Fixture
	if err := h.db.Preload("Team1").Preload("Team2").First(&fixture, fixtureID).Error; err != nil {
		utils.SendNotFound(c, "Fixture not found")
		return nil, false
	}
	if fixture.SeasonID != ctx.season.ID {
		utils.SendForbidden(c, "Fixture belongs to another season")
		return nil, false
	}
	return &fixture, true
}

func (h *SeasonHandler) invalidateSeasonCaches(c *gin.Context, ctx *seasonContext) {
	err := h.cache.Delete(c.Request.Context(),
		services.StandingsCacheKey(ctx.career.ID),
		services.FixturesCacheKey(ctx.career.ID))
	if err != nil {
		h.log.WithError(err).Debug("Cache invalidation failed")
	}
}
