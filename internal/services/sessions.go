package services

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

const (
	sessionIdleTimeout = 2 * time.Hour
	resultRetention    = 30 * time.Minute
)

// MatchSession is one live interactive match. The engine inside is owned
// exclusively by this session and mutated only under the session mutex.
type MatchSession struct {
	mu sync.Mutex

	FixtureID uint
	CareerID  uint

	Engine *engine.Engine
	Pitch  engine.PitchDNA

	BattingFirst       []*models.Player
	BowlingFirst       []*models.Player
	BattingFirstTeamID uint
	BowlingFirstTeamID uint

	TossWinnerID uint
	TossDecision string
	UserTeamID   uint

	StartedAt    time.Time
	LastActivity time.Time
}

// TossResult is the pending toss held between do_toss and start_match.
type TossResult struct {
	FixtureID    uint      `json:"fixture_id"`
	TossWinnerID uint      `json:"toss_winner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CompletedResult is a finished match awaiting its single scorecard fetch.
type CompletedResult struct {
	FixtureID    uint
	Summary      *engine.MatchSummary
	Innings1     *engine.InningsState
	Innings2     *engine.InningsState
	TossWinnerID uint
	TossDecision string

	BattingFirstTeamID uint
	BowlingFirstTeamID uint

	CompletedAt time.Time
}

// WinnerTeamID resolves the engine-relative winner to a team id, nil on tie.
// The engine labels the first-batting side "team1".
func (r *CompletedResult) WinnerTeamID() *uint {
	switch r.Summary.Winner {
	case "team1":
		id := r.BattingFirstTeamID
		return &id
	case "team2":
		id := r.BowlingFirstTeamID
		return &id
	}
	return nil
}

// MatchSessionManager owns every live match session in the process. The
// database never sees an in-progress ball; sessions are lost on restart and
// the fixture recovery rule (InProgress with no session resets to Scheduled)
// handles the aftermath.
type MatchSessionManager struct {
	mu          sync.Mutex
	active      map[uint]*MatchSession
	pendingToss map[uint]*TossResult
	completed   map[uint]*CompletedResult

	rng     *rand.Rand
	log     *logrus.Logger
	sweeper *cron.Cron
}

func NewMatchSessionManager(rng *rand.Rand, log *logrus.Logger) *MatchSessionManager {
	m := &MatchSessionManager{
		active:      make(map[uint]*MatchSession),
		pendingToss: make(map[uint]*TossResult),
		completed:   make(map[uint]*CompletedResult),
		rng:         rng,
		log:         log,
	}
	m.sweeper = cron.New()
	m.sweeper.AddFunc("@every 10m", m.sweep)
	m.sweeper.Start()
	return m
}

// Stop halts the background sweeper.
func (m *MatchSessionManager) Stop() {
	m.sweeper.Stop()
}

// sweep evicts idle sessions and stale unclaimed results.
func (m *MatchSessionManager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, session := range m.active {
		if now.Sub(session.LastActivity) > sessionIdleTimeout {
			delete(m.active, id)
			m.log.WithField("fixture_id", id).Warn("Evicted idle match session")
		}
	}
	for id, result := range m.completed {
		if now.Sub(result.CompletedAt) > resultRetention {
			delete(m.completed, id)
		}
	}
	for id, toss := range m.pendingToss {
		if now.Sub(toss.CreatedAt) > sessionIdleTimeout {
			delete(m.pendingToss, id)
		}
	}
}

// DoToss performs the toss for a fixture and parks the result until
// start_match consumes it. Repeating the toss re-rolls.
func (m *MatchSessionManager) DoToss(fixture *models.Fixture) *TossResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	winnerID := fixture.Team1ID
	if m.rng.Intn(2) == 1 {
		winnerID = fixture.Team2ID
	}
	result := &TossResult{
		FixtureID:    fixture.ID,
		TossWinnerID: winnerID,
		CreatedAt:    time.Now(),
	}
	m.pendingToss[fixture.ID] = result
	return result
}

// PendingToss returns the parked toss for a fixture, nil if none.
func (m *MatchSessionManager) PendingToss(fixtureID uint) *TossResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingToss[fixtureID]
}

// StartMatch builds the engine for a fixture and registers the session.
// The toss must have been done first; tossDecision is the winner's choice.
func (m *MatchSessionManager) StartMatch(fixture *models.Fixture, tossDecision string,
	xi1, xi2 []*models.Player, userTeamID uint) (*MatchSession, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[fixture.ID]; exists {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "match session already active for this fixture")
	}
	toss, ok := m.pendingToss[fixture.ID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "toss has not been done for this fixture")
	}
	if tossDecision != "bat" && tossDecision != "bowl" {
		return nil, utils.NewAppError(utils.ErrCodeValidation, "toss decision must be 'bat' or 'bowl'")
	}
	delete(m.pendingToss, fixture.ID)

	battingFirstID := toss.TossWinnerID
	if tossDecision == "bowl" {
		battingFirstID = fixture.Team1ID
		if toss.TossWinnerID == fixture.Team1ID {
			battingFirstID = fixture.Team2ID
		}
	}

	battingXI, bowlingXI := xi1, xi2
	bowlingTeamID := fixture.Team2ID
	if battingFirstID == fixture.Team2ID {
		battingXI, bowlingXI = xi2, xi1
		bowlingTeamID = fixture.Team1ID
	}

	// Each session owns its engine and its RNG; concurrent sessions must
	// not contend on the manager's stream.
	pitch := m.randomPitch()
	eng := engine.NewSeeded(m.rng.Int63())
	eng.Innings1 = eng.SetupInnings(battingXI, bowlingXI, nil, &pitch, false)
	eng.Current = eng.Innings1
	eng.Innings1.BattingTeamID = battingFirstID
	eng.Innings1.BowlingTeamID = bowlingTeamID

	// AI fielding opens with an auto-picked bowler; user fielding waits
	// for an explicit selection.
	if bowlingTeamID != userTeamID {
		bowler := eng.SelectBowler(eng.Innings1)
		eng.Innings1.CurrentBowlerID = bowler.ID
	}

	now := time.Now()
	session := &MatchSession{
		FixtureID:          fixture.ID,
		CareerID:           fixtureCareerID(fixture),
		Engine:             eng,
		Pitch:              pitch,
		BattingFirst:       battingXI,
		BowlingFirst:       bowlingXI,
		BattingFirstTeamID: battingFirstID,
		BowlingFirstTeamID: bowlingTeamID,
		TossWinnerID:       toss.TossWinnerID,
		TossDecision:       tossDecision,
		UserTeamID:         userTeamID,
		StartedAt:          now,
		LastActivity:       now,
	}
	m.active[fixture.ID] = session

	m.log.WithFields(logrus.Fields{
		"fixture_id":    fixture.ID,
		"batting_first": battingFirstID,
		"pitch":         pitch.Name,
	}).Info("Match session started")

	return session, nil
}

func fixtureCareerID(fixture *models.Fixture) uint {
	// SeasonID stands in; the career guard is taken by the handler layer
	// which already resolved career -> season.
	return fixture.SeasonID
}

func (m *MatchSessionManager) randomPitch() engine.PitchDNA {
	names := make([]string, 0, len(engine.Pitches))
	for name := range engine.Pitches {
		names = append(names, name)
	}
	sort.Strings(names)
	return engine.Pitches[names[m.rng.Intn(len(names))]]
}

// Session returns the live session for a fixture.
func (m *MatchSessionManager) Session(fixtureID uint) (*MatchSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.active[fixtureID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "no active match session for this fixture")
	}
	return session, nil
}

// HasSession reports whether a fixture has a live session. Used by the
// restart recovery rule.
func (m *MatchSessionManager) HasSession(fixtureID uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[fixtureID]
	return ok
}

// userIsFielding reports whether the user's team is bowling right now.
func (s *MatchSession) userIsFielding() bool {
	return s.Engine.Current.BowlingTeamID == s.UserTeamID
}

// PlayBall bowls one delivery in the session. When the user's team is
// fielding and a fresh over has no bowler, the caller must select one first.
func (m *MatchSessionManager) PlayBall(fixtureID uint, aggression string) (*engine.BallOutcome, error) {
	session, err := m.Session(fixtureID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.LastActivity = time.Now()

	innings := session.Engine.Current
	if innings.IsComplete() {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "innings is already complete")
	}
	if session.userIsFielding() && innings.CurrentBowlerID == 0 {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "select a bowler for the new over")
	}

	outcome := session.Engine.PlayBall(innings, aggression)
	m.afterBall(session)
	return outcome, nil
}

// SimulateOver bowls out the rest of the current over.
func (m *MatchSessionManager) SimulateOver(fixtureID uint, aggression string) ([]*engine.BallOutcome, error) {
	session, err := m.Session(fixtureID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.LastActivity = time.Now()

	innings := session.Engine.Current
	if innings.IsComplete() {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "innings is already complete")
	}
	if session.userIsFielding() && innings.CurrentBowlerID == 0 {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "select a bowler for the new over")
	}

	outcomes := session.Engine.SimulateOver(innings, aggression)
	m.afterBall(session)
	return outcomes, nil
}

// SimulateInnings plays the current innings to completion. Bowler changes
// are auto-selected regardless of fielding side.
func (m *MatchSessionManager) SimulateInnings(fixtureID uint) (*engine.InningsState, error) {
	session, err := m.Session(fixtureID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.LastActivity = time.Now()

	innings := session.Engine.Current
	session.Engine.SimulateInnings(innings)
	m.afterBall(session)
	return innings, nil
}

// afterBall handles innings transition and match completion. Called with
// the session mutex held.
func (m *MatchSessionManager) afterBall(session *MatchSession) {
	eng := session.Engine

	if eng.Current == eng.Innings1 && eng.Innings1.IsComplete() {
		target := eng.Innings1.TotalRuns + 1
		pitch := session.Pitch
		eng.Innings2 = eng.SetupInnings(session.BowlingFirst, session.BattingFirst, &target, &pitch, true)
		eng.Innings2.BattingTeamID = session.BowlingFirstTeamID
		eng.Innings2.BowlingTeamID = session.BattingFirstTeamID
		eng.Current = eng.Innings2

		if session.BattingFirstTeamID != session.UserTeamID {
			bowler := eng.SelectBowler(eng.Innings2)
			eng.Innings2.CurrentBowlerID = bowler.ID
		}

		m.log.WithFields(logrus.Fields{
			"fixture_id": session.FixtureID,
			"target":     target,
		}).Info("Second innings under way")
		return
	}

	if eng.Current == eng.Innings2 && eng.Innings2.IsComplete() {
		m.completeSession(session)
	}
}

// completeSession moves a finished match from active to completed-results.
// Called with the session mutex held.
func (m *MatchSessionManager) completeSession(session *MatchSession) {
	eng := session.Engine
	team1BatsFirst := true // innings1 batting side is "team1" from the engine's view
	winner, margin := engine.DecideResult(eng.Innings1, eng.Innings2, team1BatsFirst)

	summary := &engine.MatchSummary{
		Innings1: engine.InningsSummary{
			Runs:    eng.Innings1.TotalRuns,
			Wickets: eng.Innings1.Wickets,
			Overs:   eng.Innings1.OversDisplay(),
			RunRate: eng.Innings1.RunRate(),
		},
		Innings2: engine.InningsSummary{
			Runs:    eng.Innings2.TotalRuns,
			Wickets: eng.Innings2.Wickets,
			Overs:   eng.Innings2.OversDisplay(),
			RunRate: eng.Innings2.RunRate(),
		},
		Winner: winner,
		Margin: margin,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, session.FixtureID)
	m.completed[session.FixtureID] = &CompletedResult{
		FixtureID:          session.FixtureID,
		Summary:            summary,
		Innings1:           eng.Innings1,
		Innings2:           eng.Innings2,
		TossWinnerID:       session.TossWinnerID,
		TossDecision:       session.TossDecision,
		BattingFirstTeamID: session.BattingFirstTeamID,
		BowlingFirstTeamID: session.BowlingFirstTeamID,
		CompletedAt:        time.Now(),
	}

	m.log.WithFields(logrus.Fields{
		"fixture_id": session.FixtureID,
		"margin":     margin,
	}).Info("Match session completed")
}

// ConsumeResult hands over a completed match exactly once. The entry is
// dropped on read; subsequent calls return NotFound.
func (m *MatchSessionManager) ConsumeResult(fixtureID uint) (*CompletedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.completed[fixtureID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "no completed match result for this fixture")
	}
	delete(m.completed, fixtureID)
	return result, nil
}

// PeekResult returns a completed result without consuming it.
func (m *MatchSessionManager) PeekResult(fixtureID uint) (*CompletedResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.completed[fixtureID]
	return result, ok
}

// AvailableBowlers lists who may bowl the next over in the session.
func (m *MatchSessionManager) AvailableBowlers(fixtureID uint) ([]*models.Player, error) {
	session, err := m.Session(fixtureID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.Engine.AvailableBowlers(session.Engine.Current), nil
}

// SelectBowler sets the bowler for the upcoming over. The choice must be
// one of the currently available bowlers.
func (m *MatchSessionManager) SelectBowler(fixtureID uint, bowlerID uint) (*models.Player, error) {
	session, err := m.Session(fixtureID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.LastActivity = time.Now()

	innings := session.Engine.Current
	for _, b := range session.Engine.AvailableBowlers(innings) {
		if b.ID == bowlerID {
			innings.CurrentBowlerID = bowlerID
			return b, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrCodeValidation, "bowler is not available for this over")
}

// EndSession force-drops a session without recording a result.
func (m *MatchSessionManager) EndSession(fixtureID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, fixtureID)
	delete(m.pendingToss, fixtureID)
}
