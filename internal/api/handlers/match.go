package handlers

import (
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/internal/season"
	"github.com/rsumit123/willow-leather-api/internal/services"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

type MatchHandler struct {
	db       *database.DB
	cfg      *config.Config
	log      *logrus.Logger
	locks    *services.CareerLocks
	cache    *services.CacheService
	sessions *services.MatchSessionManager
}

func NewMatchHandler(db *database.DB, cfg *config.Config, log *logrus.Logger,
	locks *services.CareerLocks, cache *services.CacheService, sessions *services.MatchSessionManager) *MatchHandler {
	return &MatchHandler{db: db, cfg: cfg, log: log, locks: locks, cache: cache, sessions: sessions}
}

func (h *MatchHandler) seasonHandler() *SeasonHandler {
	return &SeasonHandler{db: h.db, cfg: h.cfg, log: h.log, locks: h.locks, cache: h.cache, sessions: h.sessions}
}

// DoToss flips the coin for a fixture. Repeating the call before the match
// starts re-flips.
func (h *MatchHandler) DoToss(c *gin.Context) {
	ctx, ok := h.seasonHandler().loadContext(c)
	if !ok {
		return
	}
	fixture, ok := h.seasonHandler().loadFixture(c, ctx)
	if !ok {
		return
	}

	if fixture.Status == models.FixtureCompleted {
		utils.SendInvalidState(c, "Fixture has already been played")
		return
	}
	if h.sessions.HasSession(fixture.ID) {
		utils.SendInvalidState(c, "Match is already under way")
		return
	}

	result := h.sessions.DoToss(fixture)
	utils.SendSuccess(c, result)
}

// StartMatch opens an interactive session for a fixture after the toss.
func (h *MatchHandler) StartMatch(c *gin.Context) {
	ctx, ok := h.seasonHandler().loadContext(c)
	if !ok {
		return
	}
	fixture, ok := h.seasonHandler().loadFixture(c, ctx)
	if !ok {
		return
	}
	if ctx.career.UserTeamID == nil {
		utils.SendInvalidState(c, "Career has no user team")
		return
	}

	var req struct {
		TossDecision string `json:"toss_decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid start payload", err.Error())
		return
	}

	var session *services.MatchSession
	err := h.locks.WithLock(ctx.career.ID, func() error {
		// A fixture stuck in_progress with no live session is a leftover
		// from a restart; reset it so the match can be replayed.
		if fixture.Status == models.FixtureInProgress && !h.sessions.HasSession(fixture.ID) {
			fixture.Status = models.FixtureScheduled
			if err := h.db.Save(fixture).Error; err != nil {
				return err
			}
		}
		if fixture.Status != models.FixtureScheduled {
			return utils.NewAppError(utils.ErrCodeInvalidState, "fixture is not available to start")
		}

		xi1, err := ctx.engine.XIForTeam(fixture.Team1ID)
		if err != nil {
			return err
		}
		xi2, err := ctx.engine.XIForTeam(fixture.Team2ID)
		if err != nil {
			return err
		}
		if len(xi1) < 11 || len(xi2) < 11 {
			return utils.NewAppError(utils.ErrCodeValidation, "both teams need a full eleven")
		}

		session, err = h.sessions.StartMatch(fixture, req.TossDecision, xi1, xi2, *ctx.career.UserTeamID)
		if err != nil {
			return err
		}

		fixture.Status = models.FixtureInProgress
		return h.db.Save(fixture).Error
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	utils.SendSuccess(c, h.snapshot(session))
}

// GetState returns the live state of a match session.
func (h *MatchHandler) GetState(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}

	session, err := h.sessions.Session(fixtureID)
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, h.snapshot(session))
}

// PlayBall bowls one delivery, with optional batting aggression.
func (h *MatchHandler) PlayBall(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}
	aggression, ok := h.bindAggression(c)
	if !ok {
		return
	}

	outcome, err := h.sessions.PlayBall(fixtureID, aggression)
	if err != nil {
		sendEngineError(c, err)
		return
	}

	session, err := h.sessions.Session(fixtureID)
	if err != nil {
		// Ball completed the match; the session moved to results.
		utils.SendSuccess(c, gin.H{"outcome": outcome, "match_complete": true})
		return
	}
	utils.SendSuccess(c, gin.H{
		"outcome":        outcome,
		"match_complete": false,
		"state":          h.snapshot(session),
	})
}

// SimulateOver plays out the rest of the current over.
func (h *MatchHandler) SimulateOver(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}
	aggression, ok := h.bindAggression(c)
	if !ok {
		return
	}

	outcomes, err := h.sessions.SimulateOver(fixtureID, aggression)
	if err != nil {
		sendEngineError(c, err)
		return
	}

	session, err := h.sessions.Session(fixtureID)
	if err != nil {
		utils.SendSuccess(c, gin.H{"outcomes": outcomes, "match_complete": true})
		return
	}
	utils.SendSuccess(c, gin.H{
		"outcomes":       outcomes,
		"match_complete": false,
		"state":          h.snapshot(session),
	})
}

// SimulateInnings fast-forwards the current innings to its end.
func (h *MatchHandler) SimulateInnings(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}

	innings, err := h.sessions.SimulateInnings(fixtureID)
	if err != nil {
		sendEngineError(c, err)
		return
	}

	session, err := h.sessions.Session(fixtureID)
	if err != nil {
		utils.SendSuccess(c, gin.H{
			"innings_score":  innings.TotalRuns,
			"match_complete": true,
		})
		return
	}
	utils.SendSuccess(c, gin.H{
		"innings_score":  innings.TotalRuns,
		"match_complete": false,
		"state":          h.snapshot(session),
	})
}

// AvailableBowlers lists legal bowler choices for the next over.
func (h *MatchHandler) AvailableBowlers(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}

	bowlers, err := h.sessions.AvailableBowlers(fixtureID)
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, bowlers)
}

// SelectBowler sets the user's bowler for the upcoming over.
func (h *MatchHandler) SelectBowler(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}

	var req struct {
		BowlerID uint `json:"bowler_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid bowler payload", err.Error())
		return
	}

	bowler, err := h.sessions.SelectBowler(fixtureID, req.BowlerID)
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"bowler": bowler})
}

// LiveScorecard returns full batting and bowling cards for both innings so
// far.
func (h *MatchHandler) LiveScorecard(c *gin.Context) {
	fixtureID, ok := parseIDParam(c, "fixtureId")
	if !ok {
		return
	}

	session, err := h.sessions.Session(fixtureID)
	if err != nil {
		sendEngineError(c, err)
		return
	}

	eng := session.Engine
	response := gin.H{"innings1": scorecard(eng.Innings1)}
	if eng.Innings2 != nil {
		response["innings2"] = scorecard(eng.Innings2)
	}
	utils.SendSuccess(c, response)
}

// MatchResult consumes the finished session's result and persists the match
// through the season engine. One call per match.
func (h *MatchHandler) MatchResult(c *gin.Context) {
	ctx, ok := h.seasonHandler().loadContext(c)
	if !ok {
		return
	}
	fixture, ok := h.seasonHandler().loadFixture(c, ctx)
	if !ok {
		return
	}

	var recorded *season.MatchResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		result, err := h.sessions.ConsumeResult(fixture.ID)
		if err != nil {
			return err
		}
		recorded, err = ctx.engine.RecordMatchResult(fixture,
			result.TossWinnerID, result.TossDecision,
			result.Innings1, result.Innings2,
			result.WinnerTeamID(), result.Summary.Margin)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	h.seasonHandler().invalidateSeasonCaches(c, ctx)
	utils.SendSuccess(c, recorded)
}

// AbandonMatch drops a live session and returns the fixture to scheduled.
func (h *MatchHandler) AbandonMatch(c *gin.Context) {
	ctx, ok := h.seasonHandler().loadContext(c)
	if !ok {
		return
	}
	fixture, ok := h.seasonHandler().loadFixture(c, ctx)
	if !ok {
		return
	}

	err := h.locks.WithLock(ctx.career.ID, func() error {
		h.sessions.EndSession(fixture.ID)
		if fixture.Status == models.FixtureInProgress {
			fixture.Status = models.FixtureScheduled
			return h.db.Save(fixture).Error
		}
		return nil
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{"abandoned": true})
}

// bindAggression reads the optional aggression field, defaulting to
// situation-driven play.
func (h *MatchHandler) bindAggression(c *gin.Context) (string, bool) {
	var req struct {
		Aggression string `json:"aggression"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendValidationError(c, "Invalid ball payload", err.Error())
			return "", false
		}
	}
	switch req.Aggression {
	case "", engine.AggressionDefend, engine.AggressionBalanced, engine.AggressionAttack:
		return req.Aggression, true
	default:
		utils.SendValidationError(c, "Aggression must be defend, balanced or attack")
		return "", false
	}
}

// snapshot flattens a session into the client-facing live state.
func (h *MatchHandler) snapshot(session *services.MatchSession) gin.H {
	eng := session.Engine
	innings := eng.Current

	players := make(map[uint]*models.Player)
	for _, p := range append(session.BattingFirst, session.BowlingFirst...) {
		players[p.ID] = p
	}
	name := func(id uint) string {
		if p, ok := players[id]; ok {
			return p.Name
		}
		return ""
	}

	inningsNumber := 1
	if eng.Innings2 != nil && innings == eng.Innings2 {
		inningsNumber = 2
	}

	state := gin.H{
		"fixture_id":      session.FixtureID,
		"innings":         inningsNumber,
		"batting_team_id": innings.BattingTeamID,
		"bowling_team_id": innings.BowlingTeamID,
		"score":           innings.TotalRuns,
		"wickets":         innings.Wickets,
		"overs":           innings.OversDisplay(),
		"run_rate":        innings.RunRate(),
		"extras":          innings.Extras,
		"this_over":       innings.ThisOver,
		"pitch":           session.Pitch.Name,
		"toss_winner_id":  session.TossWinnerID,
		"toss_decision":   session.TossDecision,
		"striker": gin.H{
			"id":   innings.StrikerID,
			"name": name(innings.StrikerID),
		},
		"non_striker": gin.H{
			"id":   innings.NonStrikerID,
			"name": name(innings.NonStrikerID),
		},
	}

	if innings.CurrentBowlerID != 0 {
		state["bowler"] = gin.H{
			"id":   innings.CurrentBowlerID,
			"name": name(innings.CurrentBowlerID),
		}
	} else {
		state["awaiting_bowler"] = true
	}
	if innings.Target != nil {
		state["target"] = *innings.Target
		state["runs_needed"] = *innings.Target - innings.TotalRuns
		state["balls_remaining"] = 120 - (innings.Overs*6 + innings.Balls)
	}
	return state
}

// scorecard renders one innings as batting and bowling tables.
func scorecard(innings *engine.InningsState) gin.H {
	type batterLine struct {
		PlayerID   uint    `json:"player_id"`
		Name       string  `json:"name"`
		Runs       int     `json:"runs"`
		Balls      int     `json:"balls"`
		Fours      int     `json:"fours"`
		Sixes      int     `json:"sixes"`
		StrikeRate float64 `json:"strike_rate"`
		IsOut      bool    `json:"is_out"`
		Dismissal  string  `json:"dismissal,omitempty"`
	}
	type bowlerLine struct {
		PlayerID uint    `json:"player_id"`
		Name     string  `json:"name"`
		Overs    string  `json:"overs"`
		Runs     int     `json:"runs"`
		Wickets  int     `json:"wickets"`
		Economy  float64 `json:"economy"`
		Wides    int     `json:"wides"`
		NoBalls  int     `json:"no_balls"`
	}

	batters := make([]batterLine, 0, len(innings.BattingOrder))
	for _, id := range innings.BattingOrder {
		rec, ok := innings.BatterRecords[id]
		if !ok {
			continue
		}
		line := batterLine{
			PlayerID:   id,
			Runs:       rec.Runs,
			Balls:      rec.Balls,
			Fours:      rec.Fours,
			Sixes:      rec.Sixes,
			StrikeRate: rec.StrikeRate(),
			IsOut:      rec.IsOut,
			Dismissal:  rec.Dismissal,
		}
		if rec.Player != nil {
			line.Name = rec.Player.Name
		}
		batters = append(batters, line)
	}

	bowlerIDs := make([]uint, 0, len(innings.BowlerSpells))
	for id := range innings.BowlerSpells {
		bowlerIDs = append(bowlerIDs, id)
	}
	sort.Slice(bowlerIDs, func(i, j int) bool { return bowlerIDs[i] < bowlerIDs[j] })

	bowlers := make([]bowlerLine, 0, len(bowlerIDs))
	for _, id := range bowlerIDs {
		spell := innings.BowlerSpells[id]
		if spell.Overs == 0 && spell.Balls == 0 {
			continue
		}
		line := bowlerLine{
			PlayerID: id,
			Overs:    spell.OversDisplay(),
			Runs:     spell.Runs,
			Wickets:  spell.Wickets,
			Economy:  spell.Economy(),
			Wides:    spell.Wides,
			NoBalls:  spell.NoBalls,
		}
		if spell.Player != nil {
			line.Name = spell.Player.Name
		}
		bowlers = append(bowlers, line)
	}

	return gin.H{
		"total":   innings.TotalRuns,
		"wickets": innings.Wickets,
		"overs":   innings.OversDisplay(),
		"extras":  innings.Extras,
		"batting": batters,
		"bowling": bowlers,
	}
}
