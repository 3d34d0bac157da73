package season

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

// FinalVenue is the neutral ground for the season final.
const FinalVenue = "Narendra Modi Stadium"

// StandingRow is one line of the league table.
type StandingRow struct {
	Position  int          `json:"position"`
	Team      *models.Team `json:"team"`
	Played    int          `json:"played"`
	Won       int          `json:"won"`
	Lost      int          `json:"lost"`
	NoResults int          `json:"no_results"`
	Points    int          `json:"points"`
	NRR       float64      `json:"nrr"`
}

// MatchResult is the caller-facing summary of a recorded match.
type MatchResult struct {
	FixtureID     uint         `json:"fixture_id"`
	Winner        *models.Team `json:"winner,omitempty"`
	Margin        string       `json:"margin"`
	Innings1Score string       `json:"innings1_score"`
	Innings2Score string       `json:"innings2_score"`
	PlayerOfMatch *uint        `json:"player_of_match_id,omitempty"`
}

/// Engine manages one season: fixtures, standings, results, playoffs.
type Engine struct {
	db     *gorm.DB
	log    *logrus.Logger
	rng    *rand.Rand
	season *models.Season
}

func NewEngine(db *gorm.DB, log *logrus.Logger, rng *rand.Rand, season *models.Season) *Engine {
	return &Engine{db: db, log: log, rng: rng, season: season}
}

// Season returns the engine's season row.
func (e *Engine) Season() *models.Season {
	return e.season
}

// GenerateLeagueFixtures schedules the 56-match double round robin. Ordered
// pairs are shuffled, then picked greedily by the largest gap since either
// team last played, so nobody gets back-to-back matches while another team
// sits idle.
func (e *Engine) GenerateLeagueFixtures(teams []models.Team) ([]models.Fixture, error) {
	type matchup struct {
		team1 models.Team
		team2 models.Team
	}
	var matchups []matchup
	for i := range teams {
		for j := i + 1; j < len(teams); j++ {
			matchups = append(matchups, matchup{teams[i], teams[j]})
			matchups = append(matchups, matchup{teams[j], teams[i]})
		}
	}
	e.rng.Shuffle(len(matchups), func(i, j int) {
		matchups[i], matchups[j] = matchups[j], matchups[i]
	})

	lastPlayed := make(map[uint]int, len(teams))
	for _, t := range teams {
		lastPlayed[t.ID] = -3
	}

	var fixtures []models.Fixture
	matchNumber := 1
	for len(matchups) > 0 {
		bestIdx := 0
		bestScore := -1
		for i, m := range matchups {
			gap1 := matchNumber - lastPlayed[m.team1.ID]
			gap2 := matchNumber - lastPlayed[m.team2.ID]
			minGap := gap1
			if gap2 < minGap {
				minGap = gap2
			}
			if minGap > bestScore {
				bestScore = minGap
				bestIdx = i
			}
		}

		m := matchups[bestIdx]
		matchups = append(matchups[:bestIdx], matchups[bestIdx+1:]...)

		fixture := models.Fixture{
			SeasonID:    e.season.ID,
			MatchNumber: matchNumber,
			FixtureType: models.FixtureLeague,
			Team1ID:     m.team1.ID,
			Team2ID:     m.team2.ID,
			Venue:       m.team1.HomeGround,
			Status:      models.FixtureScheduled,
		}
		if err := e.db.Create(&fixture).Error; err != nil {
			return nil, fmt.Errorf("failed to create fixture: %w", err)
		}
		fixtures = append(fixtures, fixture)

		lastPlayed[m.team1.ID] = matchNumber
		lastPlayed[m.team2.ID] = matchNumber
		matchNumber++
	}

	return fixtures, nil
}

// InitializeTeamStats creates zeroed standings rows for every team.
func (e *Engine) InitializeTeamStats(teams []models.Team) error {
	for _, t := range teams {
		stats := models.TeamSeasonStats{SeasonID: e.season.ID, TeamID: t.ID}
		if err := e.db.Create(&stats).Error; err != nil {
			return err
		}
	}
	return nil
}

// Standings returns the league table ordered by points then net run rate.
func (e *Engine) Standings() ([]StandingRow, error) {
	var stats []models.TeamSeasonStats
	if err := e.db.Where("season_id = ?", e.season.ID).Find(&stats).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Points != stats[j].Points {
			return stats[i].Points > stats[j].Points
		}
		return stats[i].NetRunRate() > stats[j].NetRunRate()
	})

	rows := make([]StandingRow, 0, len(stats))
	for pos, s := range stats {
		var team models.Team
		if err := e.db.First(&team, s.TeamID).Error; err != nil {
			return nil, err
		}
		rows = append(rows, StandingRow{
			Position:  pos + 1,
			Team:      &team,
			Played:    s.MatchesPlayed,
			Won:       s.Wins,
			Lost:      s.Losses,
			NoResults: s.NoResults,
			Points:    s.Points,
			NRR:       s.NetRunRate(),
		})
	}
	return rows, nil
}

// NextFixture returns the first scheduled fixture by match number, or nil.
func (e *Engine) NextFixture() (*models.Fixture, error) {
	var fixture models.Fixture
	err := e.db.Preload("Team1").Preload("Team2").
		Where("season_id = ? AND status = ?", e.season.ID, models.FixtureScheduled).
		Order("match_number").
		First(&fixture).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &fixture, nil
}

// XIForTeam loads the stored playing XI in batting order, falling back to
// an auto-selected XI when none is saved.
func (e *Engine) XIForTeam(teamID uint) ([]*models.Player, error) {
	var rows []models.PlayingXI
	err := e.db.Preload("Player").
		Where("team_id = ? AND season_id = ?", teamID, e.season.ID).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 11 {
		xi := make([]*models.Player, 0, 11)
		for i := range rows {
			xi = append(xi, rows[i].Player)
		}
		return xi, nil
	}

	var squad []*models.Player
	if err := e.db.Where("team_id = ?", teamID).Find(&squad).Error; err != nil {
		return nil, err
	}
	return SelectPlayingXI(squad), nil
}

// SelectPlayingXI greedily builds a legal XI from a squad: one keeper,
// top-rated batsmen, all-rounders and bowlers, at most four overseas.
func SelectPlayingXI(players []*models.Player) []*models.Player {
	byRole := func(role models.PlayerRole) []*models.Player {
		var out []*models.Player
		for _, p := range players {
			if p.Role == role {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].OverallRating() > out[j].OverallRating()
		})
		return out
	}

	wks := byRole(models.RoleWicketKeeper)
	bats := byRole(models.RoleBatsman)
	bowls := byRole(models.RoleBowler)
	ars := byRole(models.RoleAllRounder)

	var xi []*models.Player
	overseas := 0
	inXI := make(map[uint]bool)

	canAdd := func(p *models.Player) bool {
		if inXI[p.ID] {
			return false
		}
		if p.IsOverseas {
			if overseas >= 4 {
				return false
			}
			overseas++
		}
		return true
	}
	add := func(p *models.Player) {
		xi = append(xi, p)
		inXI[p.ID] = true
	}

	for _, wk := range wks {
		if canAdd(wk) {
			add(wk)
			break
		}
	}
	for _, bat := range firstN(bats, 5) {
		if len(xi) < 6 && canAdd(bat) {
			add(bat)
		}
	}
	for _, ar := range firstN(ars, 3) {
		if len(xi) < 9 && canAdd(ar) {
			add(ar)
		}
	}
	for _, bowl := range firstN(bowls, 5) {
		if len(xi) < 11 && canAdd(bowl) {
			add(bowl)
		}
	}

	remaining := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if !inXI[p.ID] {
			remaining = append(remaining, p)
		}
	}
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].OverallRating() > remaining[j].OverallRating()
	})
	for _, p := range remaining {
		if len(xi) >= 11 {
			break
		}
		if canAdd(p) {
			add(p)
		}
	}

	if len(xi) > 11 {
		xi = xi[:11]
	}
	return xi
}

func firstN(players []*models.Player, n int) []*models.Player {
	if len(players) < n {
		return players
	}
	return players[:n]
}

// SimulateFixture plays a fixture offline: toss, XIs, full simulation,
// result recording. No user interaction.
func (e *Engine) SimulateFixture(fixture *models.Fixture) (*MatchResult, error) {
	if fixture.Status != models.FixtureScheduled {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "fixture is not scheduled")
	}

	var team1, team2 models.Team
	if err := e.db.First(&team1, fixture.Team1ID).Error; err != nil {
		return nil, err
	}
	if err := e.db.First(&team2, fixture.Team2ID).Error; err != nil {
		return nil, err
	}

	xi1, err := e.XIForTeam(team1.ID)
	if err != nil {
		return nil, err
	}
	xi2, err := e.XIForTeam(team2.ID)
	if err != nil {
		return nil, err
	}
	if len(xi1) < 11 || len(xi2) < 11 {
		return nil, utils.NewAppError(utils.ErrCodeValidation,
			fmt.Sprintf("not enough players for match: %s (%d) vs %s (%d)",
				team1.ShortName, len(xi1), team2.ShortName, len(xi2)))
	}

	// Toss. Most T20 captains chase.
	tossWinnerID := team1.ID
	if e.rng.Intn(2) == 1 {
		tossWinnerID = team2.ID
	}
	tossDecision := "bowl"
	if e.rng.Float64() < 0.30 {
		tossDecision = "bat"
	}

	var battingFirstID uint
	if tossDecision == "bowl" {
		if tossWinnerID == team1.ID {
			battingFirstID = team2.ID
		} else {
			battingFirstID = team1.ID
		}
	} else {
		battingFirstID = tossWinnerID
	}

	team1BatsFirst := battingFirstID == team1.ID

	// Knockout fixtures need a winner; a tied playoff match is replayed.
	me := engine.New(e.rng)
	summary := me.SimulateMatch(xi1, xi2, team1BatsFirst, nil)
	for attempt := 0; summary.Winner == "tie" && fixture.FixtureType != models.FixtureLeague && attempt < 10; attempt++ {
		me = engine.New(e.rng)
		summary = me.SimulateMatch(xi1, xi2, team1BatsFirst, nil)
	}

	var winnerID *uint
	switch summary.Winner {
	case "team1":
		winnerID = &team1.ID
	case "team2":
		winnerID = &team2.ID
	}

	// Batting/bowling team ids may be absent on the XI players when the
	// team edge was not preloaded; pin them from the fixture.
	firstID, secondID := battingFirstID, otherTeam(battingFirstID, team1.ID, team2.ID)
	me.Innings1.BattingTeamID, me.Innings1.BowlingTeamID = firstID, secondID
	me.Innings2.BattingTeamID, me.Innings2.BowlingTeamID = secondID, firstID

	return e.RecordMatchResult(fixture, tossWinnerID, tossDecision, me.Innings1, me.Innings2, winnerID, summary.Margin)
}

func otherTeam(id, team1ID, team2ID uint) uint {
	if id == team1ID {
		return team2ID
	}
	return team1ID
}

// RecordMatchResult persists a completed match: the Match row with both
// Innings and every BallEvent, fixture status and winner, team and player
// season stats, the man of the match, and season progress. Called both by
// offline simulation and by the interactive session layer.
func (e *Engine) RecordMatchResult(fixture *models.Fixture, tossWinnerID uint, tossDecision string,
	innings1, innings2 *engine.InningsState, winnerID *uint, margin string) (*MatchResult, error) {

	// MotM: winning team only; a tie counts the first-innings batting team
	// as the winner for this purpose.
	motmTeam := innings1.BattingTeamID
	if winnerID != nil {
		motmTeam = *winnerID
	}
	motmID := engine.ManOfTheMatch(innings1, innings2, motmTeam)

	match := models.Match{
		Team1ID:       fixture.Team1ID,
		Team2ID:       fixture.Team2ID,
		TossWinnerID:  &tossWinnerID,
		TossDecision:  tossDecision,
		Venue:         fixture.Venue,
		MatchDate:     time.Now().UTC(),
		MatchNumber:   fixture.MatchNumber,
		Status:        models.MatchCompleted,
		WinnerID:      winnerID,
		ResultSummary: margin,
	}
	if motmID != 0 {
		match.ManOfTheMatch = &motmID
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&match).Error; err != nil {
			return err
		}
		if err := e.persistInnings(tx, match.ID, 1, innings1); err != nil {
			return err
		}
		if err := e.persistInnings(tx, match.ID, 2, innings2); err != nil {
			return err
		}

		fixture.Status = models.FixtureCompleted
		if winnerID == nil && fixture.FixtureType != models.FixtureLeague {
			// A knockout match cannot end tied; the fixture goes back on
			// the schedule for a replay. The tied game stays on record.
			fixture.Status = models.FixtureScheduled
		}
		fixture.MatchID = &match.ID
		fixture.WinnerID = winnerID
		fixture.ResultSummary = margin
		if err := tx.Save(fixture).Error; err != nil {
			return err
		}

		if err := e.updateTeamStats(tx, fixture, innings1, innings2, winnerID); err != nil {
			return err
		}
		if err := e.updatePlayerStats(tx, innings1); err != nil {
			return err
		}
		if err := e.updatePlayerStats(tx, innings2); err != nil {
			return err
		}

		e.season.CurrentMatchNumber = fixture.MatchNumber
		return tx.Save(e.season).Error
	})
	if err != nil {
		return nil, err
	}

	var winner *models.Team
	if winnerID != nil {
		winner = &models.Team{}
		if err := e.db.First(winner, *winnerID).Error; err != nil {
			return nil, err
		}
	}

	result := &MatchResult{
		FixtureID:     fixture.ID,
		Winner:        winner,
		Margin:        margin,
		Innings1Score: scoreLine(innings1),
		Innings2Score: scoreLine(innings2),
	}
	if motmID != 0 {
		result.PlayerOfMatch = &motmID
	}

	e.log.WithFields(logrus.Fields{
		"fixture": fixture.MatchNumber,
		"margin":  margin,
	}).Info("Match recorded")

	return result, nil
}

func scoreLine(innings *engine.InningsState) string {
	return fmt.Sprintf("%d/%d (%s)", innings.TotalRuns, innings.Wickets, innings.OversDisplay())
}

func (e *Engine) persistInnings(tx *gorm.DB, matchID uint, number int, state *engine.InningsState) error {
	row := models.Innings{
		MatchID:            matchID,
		BattingTeamID:      state.BattingTeamID,
		BowlingTeamID:      state.BowlingTeamID,
		InningsNumber:      number,
		TotalRuns:          state.TotalRuns,
		Wickets:            state.Wickets,
		OversCompleted:     state.Overs,
		BallsInCurrentOver: state.Balls,
		Extras:             state.Extras,
		Target:             state.Target,
		Status:             models.InningsCompleted,
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}

	events := make([]models.BallEvent, 0, len(state.BallLog))
	for _, rec := range state.BallLog {
		o := rec.Outcome
		ev := models.BallEvent{
			InningsID:  row.ID,
			OverNumber: rec.OverNumber,
			BallNumber: rec.BallNumber,
			BatterID:   rec.BatterID,
			BowlerID:   rec.BowlerID,
			RunsScored: o.Runs,
			IsBoundary: o.IsBoundary,
			IsSix:      o.IsSix,
			IsWide:     o.IsWide,
			IsNoBall:   o.IsNoBall,
			IsWicket:   o.IsWicket,
			Commentary: o.Commentary,
		}
		if o.IsWide || o.IsNoBall {
			ev.ExtraRuns = 1
		}
		if o.IsWicket {
			ev.DismissalType = persistedDismissal(o.DismissalType)
			ev.DismissedPlayerID = &rec.BatterID
		}
		events = append(events, ev)
	}
	if len(events) > 0 {
		if err := tx.CreateInBatches(events, 100).Error; err != nil {
			return err
		}
	}
	return nil
}

// persistedDismissal maps engine dismissal strings onto the stored enum.
// The engine's top_edge is a catch for the scorecard.
func persistedDismissal(d string) models.DismissalType {
	switch d {
	case "bowled":
		return models.DismissalBowled
	case "caught", "top_edge":
		return models.DismissalCaught
	case "lbw":
		return models.DismissalLBW
	case "run_out":
		return models.DismissalRunOut
	case "stumped":
		return models.DismissalStumped
	case "hit_wicket":
		return models.DismissalHitWicket
	case "caught_behind":
		return models.DismissalCaughtBehind
	}
	return models.DismissalNotOut
}

func (e *Engine) updateTeamStats(tx *gorm.DB, fixture *models.Fixture, innings1, innings2 *engine.InningsState, winnerID *uint) error {
	load := func(teamID uint) (*models.TeamSeasonStats, error) {
		var s models.TeamSeasonStats
		err := tx.Where("season_id = ? AND team_id = ?", e.season.ID, teamID).First(&s).Error
		return &s, err
	}
	stats1, err := load(fixture.Team1ID)
	if err != nil {
		return err
	}
	stats2, err := load(fixture.Team2ID)
	if err != nil {
		return err
	}

	stats1.MatchesPlayed++
	stats2.MatchesPlayed++

	switch {
	case winnerID != nil && *winnerID == fixture.Team1ID:
		stats1.Wins++
		stats1.Points += 2
		stats2.Losses++
	case winnerID != nil && *winnerID == fixture.Team2ID:
		stats2.Wins++
		stats2.Points += 2
		stats1.Losses++
	default:
		stats1.NoResults++
		stats2.NoResults++
		stats1.Points++
		stats2.Points++
	}

	overs1 := float64(innings1.Overs) + float64(innings1.Balls)/6
	overs2 := float64(innings2.Overs) + float64(innings2.Balls)/6

	apply := func(batting *models.TeamSeasonStats, scored *engine.InningsState, oversFaced float64, conceded *engine.InningsState, oversBowled float64) {
		batting.RunsScored += scored.TotalRuns
		batting.OversFaced += oversFaced
		batting.RunsConceded += conceded.TotalRuns
		batting.OversBowled += oversBowled
	}

	if innings1.BattingTeamID == fixture.Team1ID {
		apply(stats1, innings1, overs1, innings2, overs2)
		apply(stats2, innings2, overs2, innings1, overs1)
	} else {
		apply(stats2, innings1, overs1, innings2, overs2)
		apply(stats1, innings2, overs2, innings1, overs1)
	}

	if err := tx.Save(stats1).Error; err != nil {
		return err
	}
	return tx.Save(stats2).Error
}

// updatePlayerStats folds one innings' scorecard into each participant's
// season aggregates. Keeper-credited dismissals feed the fielding columns.
func (e *Engine) updatePlayerStats(tx *gorm.DB, state *engine.InningsState) error {
	loadStats := func(playerID, teamID uint) (*models.PlayerSeasonStats, error) {
		var s models.PlayerSeasonStats
		err := tx.Where("season_id = ? AND player_id = ?", e.season.ID, playerID).First(&s).Error
		if err == gorm.ErrRecordNotFound {
			s = models.PlayerSeasonStats{SeasonID: e.season.ID, PlayerID: playerID, TeamID: teamID}
			if err := tx.Create(&s).Error; err != nil {
				return nil, err
			}
			return &s, nil
		}
		if err != nil {
			return nil, err
		}
		return &s, nil
	}

	var keeper *models.Player
	for _, p := range state.BowlingTeam {
		if p.Role == models.RoleWicketKeeper {
			keeper = p
			break
		}
	}

	for _, p := range state.BattingTeam {
		stats, err := loadStats(p.ID, state.BattingTeamID)
		if err != nil {
			return err
		}
		stats.Matches++

		if record, ok := state.BatterRecords[p.ID]; ok {
			stats.Runs += record.Runs
			stats.BallsFaced += record.Balls
			stats.Fours += record.Fours
			stats.Sixes += record.Sixes
			if record.Runs > stats.HighestScore {
				stats.HighestScore = record.Runs
			}
			if record.Balls > 0 && !record.IsOut {
				stats.NotOuts++
			}

			if keeper != nil && record.IsOut {
				switch record.Dismissal {
				case "caught_behind":
					kstats, err := loadStats(keeper.ID, state.BowlingTeamID)
					if err != nil {
						return err
					}
					kstats.Catches++
					if err := tx.Save(kstats).Error; err != nil {
						return err
					}
				case "stumped":
					kstats, err := loadStats(keeper.ID, state.BowlingTeamID)
					if err != nil {
						return err
					}
					kstats.Stumpings++
					if err := tx.Save(kstats).Error; err != nil {
						return err
					}
				}
			}
		}
		if err := tx.Save(stats).Error; err != nil {
			return err
		}
	}

	for _, p := range state.BowlingTeam {
		spell, ok := state.BowlerSpells[p.ID]
		if !ok {
			continue
		}
		stats, err := loadStats(p.ID, state.BowlingTeamID)
		if err != nil {
			return err
		}
		stats.Wickets += spell.Wickets
		stats.OversBowled += float64(spell.Overs) + float64(spell.Balls)/6
		stats.RunsConceded += spell.Runs
		if spell.Wickets > stats.BestWickets ||
			(spell.Wickets == stats.BestWickets && spell.Wickets > 0 && spell.Runs < stats.BestRuns) {
			stats.BestWickets = spell.Wickets
			stats.BestRuns = spell.Runs
		}
		if err := tx.Save(stats).Error; err != nil {
			return err
		}
	}

	return nil
}

// IsLeagueComplete reports whether every league fixture has been played.
func (e *Engine) IsLeagueComplete() (bool, error) {
	var remaining int64
	err := e.db.Model(&models.Fixture{}).
		Where("season_id = ? AND fixture_type = ? AND status <> ?",
			e.season.ID, models.FixtureLeague, models.FixtureCompleted).
		Count(&remaining).Error
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}

func (e *Engine) lastMatchNumber() (int, error) {
	var fixture models.Fixture
	err := e.db.Where("season_id = ?", e.season.ID).
		Order("match_number desc").
		First(&fixture).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return fixture.MatchNumber, nil
}

// GeneratePlayoffs creates Qualifier 1 (1st vs 2nd) and the Eliminator
// (3rd vs 4th) from the final standings. Qualifier 2 and the Final follow
// on demand once their participants are known.
func (e *Engine) GeneratePlayoffs() ([]models.Fixture, error) {
	standings, err := e.Standings()
	if err != nil {
		return nil, err
	}
	if len(standings) < 4 {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "not enough teams for playoffs")
	}

	last, err := e.lastMatchNumber()
	if err != nil {
		return nil, err
	}

	q1 := models.Fixture{
		SeasonID:    e.season.ID,
		MatchNumber: last + 1,
		FixtureType: models.FixtureQualifier1,
		Team1ID:     standings[0].Team.ID,
		Team2ID:     standings[1].Team.ID,
		Venue:       standings[0].Team.HomeGround,
		Status:      models.FixtureScheduled,
	}
	elim := models.Fixture{
		SeasonID:    e.season.ID,
		MatchNumber: last + 2,
		FixtureType: models.FixtureEliminator,
		Team1ID:     standings[2].Team.ID,
		Team2ID:     standings[3].Team.ID,
		Venue:       standings[2].Team.HomeGround,
		Status:      models.FixtureScheduled,
	}
	if err := e.db.Create(&q1).Error; err != nil {
		return nil, err
	}
	if err := e.db.Create(&elim).Error; err != nil {
		return nil, err
	}
	return []models.Fixture{q1, elim}, nil
}

// GenerateQualifier2 schedules Q1 loser vs Eliminator winner at the Q1
// loser's home ground.
func (e *Engine) GenerateQualifier2(q1Loser, eliminatorWinner *models.Team) (*models.Fixture, error) {
	last, err := e.lastMatchNumber()
	if err != nil {
		return nil, err
	}
	q2 := models.Fixture{
		SeasonID:    e.season.ID,
		MatchNumber: last + 1,
		FixtureType: models.FixtureQualifier2,
		Team1ID:     q1Loser.ID,
		Team2ID:     eliminatorWinner.ID,
		Venue:       q1Loser.HomeGround,
		Status:      models.FixtureScheduled,
	}
	if err := e.db.Create(&q2).Error; err != nil {
		return nil, err
	}
	return &q2, nil
}

// GenerateFinal schedules the final at the neutral venue.
func (e *Engine) GenerateFinal(q1Winner, q2Winner *models.Team) (*models.Fixture, error) {
	last, err := e.lastMatchNumber()
	if err != nil {
		return nil, err
	}
	final := models.Fixture{
		SeasonID:    e.season.ID,
		MatchNumber: last + 1,
		FixtureType: models.FixtureFinal,
		Team1ID:     q1Winner.ID,
		Team2ID:     q2Winner.ID,
		Venue:       FinalVenue,
		Status:      models.FixtureScheduled,
	}
	if err := e.db.Create(&final).Error; err != nil {
		return nil, err
	}
	return &final, nil
}

func (e *Engine) playoffFixture(fixtureType models.FixtureType) (*models.Fixture, error) {
	var fixture models.Fixture
	err := e.db.Where("season_id = ? AND fixture_type = ?", e.season.ID, fixtureType).First(&fixture).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &fixture, nil
}

// playoffWinner returns the recorded winner of a knockout fixture. A
// completed knockout fixture without a winner (a tie recorded through the
// interactive path) cannot advance the bracket.
func playoffWinner(f *models.Fixture) (uint, error) {
	if f.WinnerID == nil {
		return 0, utils.NewAppError(utils.ErrCodeInvalidState,
			fmt.Sprintf("%s ended without a winner; replay it before advancing the bracket", f.FixtureType))
	}
	return *f.WinnerID, nil
}

// GenerateNextPlayoff advances the bracket: Q1+Eliminator after the league,
// Q2 once both are done, the Final once Q2 is done. Returns the fixtures
// it created, or nothing when the bracket cannot advance yet.
func (e *Engine) GenerateNextPlayoff() ([]models.Fixture, error) {
	q1, err := e.playoffFixture(models.FixtureQualifier1)
	if err != nil {
		return nil, err
	}
	if q1 == nil {
		done, err := e.IsLeagueComplete()
		if err != nil {
			return nil, err
		}
		if !done {
			return nil, utils.NewAppError(utils.ErrCodeInvalidState, "league stage is not complete")
		}
		return e.GeneratePlayoffs()
	}

	elim, err := e.playoffFixture(models.FixtureEliminator)
	if err != nil {
		return nil, err
	}

	q2, err := e.playoffFixture(models.FixtureQualifier2)
	if err != nil {
		return nil, err
	}
	if q2 == nil {
		if q1.Status != models.FixtureCompleted || elim == nil || elim.Status != models.FixtureCompleted {
			return nil, utils.NewAppError(utils.ErrCodeInvalidState, "qualifier 1 and eliminator must finish first")
		}
		q1WinnerID, err := playoffWinner(q1)
		if err != nil {
			return nil, err
		}
		elimWinnerID, err := playoffWinner(elim)
		if err != nil {
			return nil, err
		}
		q1LoserID := otherTeam(q1WinnerID, q1.Team1ID, q1.Team2ID)
		var q1Loser, elimWinner models.Team
		if err := e.db.First(&q1Loser, q1LoserID).Error; err != nil {
			return nil, err
		}
		if err := e.db.First(&elimWinner, elimWinnerID).Error; err != nil {
			return nil, err
		}
		fixture, err := e.GenerateQualifier2(&q1Loser, &elimWinner)
		if err != nil {
			return nil, err
		}
		return []models.Fixture{*fixture}, nil
	}

	final, err := e.playoffFixture(models.FixtureFinal)
	if err != nil {
		return nil, err
	}
	if final == nil {
		if q2.Status != models.FixtureCompleted {
			return nil, utils.NewAppError(utils.ErrCodeInvalidState, "qualifier 2 must finish first")
		}
		q1WinnerID, err := playoffWinner(q1)
		if err != nil {
			return nil, err
		}
		q2WinnerID, err := playoffWinner(q2)
		if err != nil {
			return nil, err
		}
		var q1Winner, q2Winner models.Team
		if err := e.db.First(&q1Winner, q1WinnerID).Error; err != nil {
			return nil, err
		}
		if err := e.db.First(&q2Winner, q2WinnerID).Error; err != nil {
			return nil, err
		}
		fixture, err := e.GenerateFinal(&q1Winner, &q2Winner)
		if err != nil {
			return nil, err
		}
		return []models.Fixture{*fixture}, nil
	}

	return nil, utils.NewAppError(utils.ErrCodeInvalidState, "playoff bracket is already complete")
}

// CompleteSeason closes the season and advances the career to post-season.
func (e *Engine) CompleteSeason(champion, runnerUp *models.Team) error {
	e.season.Phase = models.SeasonCompleted
	e.season.ChampionTeamID = &champion.ID
	e.season.RunnerUpTeamID = &runnerUp.ID
	if err := e.db.Save(e.season).Error; err != nil {
		return err
	}

	var career models.Career
	if err := e.db.First(&career, e.season.CareerID).Error; err != nil {
		return err
	}
	career.Status = models.CareerPostSeason
	return e.db.Save(&career).Error
}
