package engine

import (
	"math/rand"
	"sort"
	"strconv"

	"github.com/rsumit123/willow-leather-api/internal/models"
)

// Engine is the DNA-based T20 simulator. One instance drives one match;
// all randomness flows through the instance RNG so seeded runs replay.
type Engine struct {
	rng *rand.Rand

	Innings1 *InningsState
	Innings2 *InningsState
	Current  *InningsState
}

func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// NewSeeded builds an engine with its own RNG from the given seed.
func NewSeeded(seed int64) *Engine {
	return New(rand.New(rand.NewSource(seed)))
}

func (e *Engine) gauss(mean, sigma float64) float64 {
	return e.rng.NormFloat64()*sigma + mean
}

func (e *Engine) pick(choices []int) int {
	return choices[e.rng.Intn(len(choices))]
}

func (e *Engine) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := e.rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// weightedDismissal picks from a dismissal distribution. Keys are sorted
// so the draw is reproducible under a seeded RNG.
func (e *Engine) weightedDismissal(dist map[string]float64) string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	weights := make([]float64, len(keys))
	for i, k := range keys {
		weights[i] = dist[k]
	}
	return keys[e.weightedIndex(weights)]
}

// SetupInnings initializes an innings. The batting order is the XI exactly
// as supplied; indices 0 and 1 open.
func (e *Engine) SetupInnings(battingTeam, bowlingTeam []*models.Player, target *int, pitch *PitchDNA, isSecondInnings bool) *InningsState {
	p := DefaultPitch()
	if pitch != nil {
		p = *pitch
	}

	innings := &InningsState{
		BattingTeam:      battingTeam,
		BowlingTeam:      bowlingTeam,
		Target:           target,
		Pitch:            p,
		IsSecondInnings:  isSecondInnings,
		BatterRecords:    make(map[uint]*BatterInnings),
		BowlerSpells:     make(map[uint]*BowlerSpell),
		BatterStates:     make(map[uint]*BatterState),
		BowlerStates:     make(map[uint]*BowlerState),
		BallsFaced:       make(map[uint]int),
		BowlerOversCount: make(map[uint]int),
		NextBatterIndex:  2,
	}
	for _, p := range battingTeam {
		innings.BattingOrder = append(innings.BattingOrder, p.ID)
	}
	if battingTeam[0].TeamID != nil {
		innings.BattingTeamID = *battingTeam[0].TeamID
	}
	if bowlingTeam[0].TeamID != nil {
		innings.BowlingTeamID = *bowlingTeam[0].TeamID
	}

	opener1, opener2 := battingTeam[0], battingTeam[1]
	innings.StrikerID = opener1.ID
	innings.NonStrikerID = opener2.ID
	innings.BatterRecords[opener1.ID] = &BatterInnings{Player: opener1}
	innings.BatterRecords[opener2.ID] = &BatterInnings{Player: opener2}
	innings.BatterStates[opener1.ID] = &BatterState{PlayerID: opener1.ID}
	innings.BatterStates[opener2.ID] = &BatterState{PlayerID: opener2.ID}
	innings.BallsFaced[opener1.ID] = 0
	innings.BallsFaced[opener2.ID] = 0

	return innings
}

// simulateBallPipeline runs the full per-ball pipeline for a legal
// delivery: jaffa, execution, matchup, compression, Gaussian, resolution.
func (e *Engine) simulateBallPipeline(batter, bowler *models.Player, innings *InningsState, approach Approach) *BallOutcome {
	batterDNA := batterDNAFor(batter)
	bowlerDNA := bowlerDNAFor(bowler)
	if bowlerDNA == nil {
		bowlerDNA = PacerDNA{Speed: 130, Swing: 40, Bounce: 40, Ctrl: 50}
	}

	bowlerOvers := innings.BowlerOversCount[bowler.ID]
	fatigue := fatigueFor(bowlerOvers)
	sigma := sigmaFor(innings.Overs)

	delivery := e.chooseOptimalDelivery(repertoire(bowlerDNA), batterDNA)
	outcome := &BallOutcome{DeliveryName: delivery.Name}

	// Jaffa: rare unplayable ball, likelier the longer the batter bats
	bf := innings.BallsFaced[batter.ID]
	jaffaRate := 0.005
	if bf > 20 {
		jaffaRate += float64(bf-20) * 0.0028
	}
	if e.rng.Float64() < jaffaRate {
		outcome.IsWicket = true
		outcome.ContactQuality = ContactCleanBeat
		outcome.DismissalType = e.weightedDismissal(delivery.DismissalWeights)
		outcome.Commentary = generateCommentary(batter, bowler, outcome)
		return outcome
	}

	var batterBonus float64
	switch e.executionCheck(bowlerDNA, delivery, fatigue, innings.Overs) {
	case execBadMiss:
		batterBonus = 12 + e.rng.Float64()*6
	case execSlightMiss:
		batterBonus = 4 + e.rng.Float64()*6
	}

	rawAttack := bowlerAttackRating(bowlerDNA, delivery, innings.Pitch, innings.Overs, fatigue, innings.IsSecondInnings)
	rawSkill := batterSkillRating(batterDNA, delivery) + batterBonus

	// Tail-ender floor keeps genuine bunnies from being out every ball
	if batterDNA.Avg() < 40 && rawSkill < 63 {
		rawSkill = 63
	}

	rawSkill += settledModifier(bf)
	rawSkill += safetyNet(innings)

	compressedSkill := compress(rawSkill)
	compressedAttack := compress(rawAttack)
	tac := tacticalBonus(batterDNA, delivery)

	margin := e.calculateMargin(compressedAttack, compressedSkill, tac, approach, sigma)
	contact := resolveContact(margin)
	outcome.ContactQuality = contact

	switch contact {
	case ContactPerfect, ContactGood, ContactDecent, ContactDefended:
		outcome.Runs, outcome.IsBoundary, outcome.IsSix = e.resolveRuns(contact, batterDNA.Power, approach)
	case ContactBeaten:
		outcome.Runs = 0
	case ContactEdge:
		outcome.IsWicket, outcome.DismissalType, outcome.Runs = e.resolveEdge(innings.Pitch)
	case ContactCleanBeat:
		outcome.IsWicket, outcome.DismissalType = e.resolveCleanBeat(margin, delivery)
	}

	outcome.Commentary = generateCommentary(batter, bowler, outcome)
	return outcome
}

// bowlBall resolves extras first, then delegates to the pipeline.
func (e *Engine) bowlBall(batter, bowler *models.Player, innings *InningsState, aggression string) *BallOutcome {
	bowlerDNA := bowlerDNAFor(bowler)
	fatigue := fatigueFor(innings.BowlerOversCount[bowler.ID])

	var effCtrl float64
	if bowlerDNA != nil {
		effCtrl = float64(bowlerDNA.Control()) * fatigue
	} else {
		ctrl := bowler.Bowling
		if ctrl < 30 {
			ctrl = 30
		}
		effCtrl = float64(ctrl) * fatigue
	}

	wideChance := 0.06 - effCtrl*0.0004
	if wideChance < 0.015 {
		wideChance = 0.015
	}

	extraRoll := e.rng.Float64()
	if extraRoll < wideChance {
		out := &BallOutcome{Runs: 1, IsWide: true}
		out.Commentary = generateCommentary(batter, bowler, out)
		return out
	}
	if extraRoll < wideChance+0.008 {
		runs := []int{0, 1, 2, 4, 6}[e.weightedIndex([]float64{30, 30, 10, 20, 10})]
		out := &BallOutcome{
			Runs:       runs + 1,
			IsNoBall:   true,
			IsBoundary: runs >= 4,
			IsSix:      runs == 6,
		}
		out.Commentary = generateCommentary(batter, bowler, out)
		return out
	}

	approach := e.mapAggression(aggression, innings)
	return e.simulateBallPipeline(batter, bowler, innings, approach)
}

// PlayBall bowls one delivery and commits it to the innings state. The
// current bowler is auto-selected when unset; interactive fielding gates
// that upstream.
func (e *Engine) PlayBall(innings *InningsState, aggression string) *BallOutcome {
	if innings.IsComplete() {
		return nil
	}

	bowler := innings.CurrentBowler()
	if bowler == nil {
		bowler = e.SelectBowler(innings)
		innings.CurrentBowlerID = bowler.ID
	}
	e.ensureBowlerTracked(innings, bowler)

	striker := innings.Striker()
	outcome := e.bowlBall(striker, bowler, innings, aggression)
	e.applyOutcome(innings, striker, bowler, outcome)
	return outcome
}

func (e *Engine) ensureBowlerTracked(innings *InningsState, bowler *models.Player) {
	if _, ok := innings.BowlerStates[bowler.ID]; !ok {
		innings.BowlerStates[bowler.ID] = &BowlerState{PlayerID: bowler.ID}
	}
	if _, ok := innings.BowlerSpells[bowler.ID]; !ok {
		innings.BowlerSpells[bowler.ID] = &BowlerSpell{Player: bowler}
	}
}

// wicketsThisOver counts wickets already recorded in the over buffer.
func wicketsThisOver(innings *InningsState) int {
	n := 0
	for _, o := range innings.ThisOver {
		if o != nil && o.IsWicket {
			n++
		}
	}
	return n
}

// applyOutcome commits one ball to the innings: score, batter and bowler
// records, wicket fall, strike rotation, over boundary. A fourth wicket in
// the same over is demoted to a dot.
func (e *Engine) applyOutcome(innings *InningsState, striker, bowler *models.Player, outcome *BallOutcome) {
	// Demote before anything is recorded so no counters need unwinding
	if outcome.IsWicket && wicketsThisOver(innings) >= 3 {
		outcome.IsWicket = false
		outcome.Runs = 0
		outcome.IsBoundary = false
		outcome.IsSix = false
		outcome.DismissalType = ""
		outcome.Commentary = striker.Name + " survives a close call!"
	}

	innings.ThisOver = append(innings.ThisOver, outcome)
	spell := innings.BowlerSpells[bowler.ID]

	ballNumber := innings.Balls + 1
	innings.BallLog = append(innings.BallLog, BallRecord{
		OverNumber: innings.Overs + 1,
		BallNumber: ballNumber,
		BatterID:   striker.ID,
		BowlerID:   bowler.ID,
		Outcome:    outcome,
	})

	if outcome.IsLegal() {
		innings.Balls++

		record := innings.BatterRecords[striker.ID]
		record.Balls++
		record.Runs += outcome.Runs
		if outcome.IsBoundary && !outcome.IsSix {
			record.Fours++
		}
		if outcome.IsSix {
			record.Sixes++
		}

		state := innings.BatterStates[striker.ID]
		state.BallsFaced++
		state.IsSettled = state.BallsFaced > 15
		if outcome.IsBoundary {
			state.recentOutcomes = append(state.recentOutcomes, "boundary")
		} else {
			state.recentOutcomes = append(state.recentOutcomes, "other")
		}
		if n := len(state.recentOutcomes); n >= 3 {
			boundaries := 0
			for _, r := range state.recentOutcomes[n-3:] {
				if r == "boundary" {
					boundaries++
				}
			}
			state.IsOnFire = boundaries >= 2
		}

		innings.BallsFaced[striker.ID]++
	}

	switch {
	case outcome.IsWide:
		spell.Wides++
		spell.Runs++
		innings.Extras++
	case outcome.IsNoBall:
		spell.NoBalls++
		spell.Runs += outcome.Runs
		innings.Extras++
	default:
		spell.Runs += outcome.Runs
	}

	innings.TotalRuns += outcome.Runs
	innings.PartnershipRuns += outcome.Runs

	if outcome.IsWicket {
		innings.Wickets++
		record := innings.BatterRecords[striker.ID]
		record.IsOut = true
		record.Dismissal = outcome.DismissalType
		record.Bowler = bowler

		spell.Wickets++
		innings.BowlerStates[bowler.ID].HasConfidence = true
		innings.PartnershipRuns = 0

		if innings.NextBatterIndex < len(innings.BattingOrder) {
			nextID := innings.BattingOrder[innings.NextBatterIndex]
			next := innings.playerByID(innings.BattingTeam, nextID)
			innings.StrikerID = nextID
			innings.BatterRecords[nextID] = &BatterInnings{Player: next}
			innings.BatterStates[nextID] = &BatterState{PlayerID: nextID}
			innings.BallsFaced[nextID] = 0
			innings.NextBatterIndex++
		}
	}

	if !outcome.IsWicket && outcome.Runs%2 == 1 {
		innings.swapStrike()
	}

	if innings.Balls >= 6 {
		innings.Overs++
		innings.Balls = 0
		spell.Overs++
		spell.Balls = 0
		innings.LastBowlerID = bowler.ID
		innings.CurrentBowlerID = 0

		innings.BowlerOversCount[bowler.ID]++
		bs := innings.BowlerStates[bowler.ID]
		bs.ConsecutiveOvers++
		bs.IsTired = bs.ConsecutiveOvers > 4

		innings.swapStrike()
		innings.ThisOver = nil
	}
}

// AvailableBowlers returns who may bowl the next over: bowlers and
// all-rounders who did not bowl the previous over and have overs left.
// Constraints relax in order if nobody qualifies.
func (e *Engine) AvailableBowlers(innings *InningsState) []*models.Player {
	var bowlers []*models.Player
	for _, p := range innings.BowlingTeam {
		if p.Role == models.RoleBowler || p.Role == models.RoleAllRounder {
			bowlers = append(bowlers, p)
		}
	}

	var available []*models.Player
	for _, b := range bowlers {
		if innings.BowlerOversCount[b.ID] >= 4 {
			continue
		}
		if b.ID == innings.LastBowlerID {
			continue
		}
		available = append(available, b)
	}

	if len(available) == 0 {
		for _, b := range bowlers {
			if b.ID != innings.LastBowlerID {
				available = append(available, b)
			}
		}
	}
	if len(available) == 0 {
		available = bowlers
	}
	if len(available) == 0 {
		available = innings.BowlingTeam
	}
	return available
}

// SelectBowler picks the next bowler, weighted by bowling DNA quality.
func (e *Engine) SelectBowler(innings *InningsState) *models.Player {
	available := e.AvailableBowlers(innings)

	weights := make([]float64, len(available))
	for i, b := range available {
		if dna := bowlerDNAFor(b); dna != nil {
			weights[i] = dna.Avg()
		} else {
			w := b.Bowling
			if w < 10 {
				w = 10
			}
			weights[i] = float64(w)
		}
	}
	return available[e.weightedIndex(weights)]
}

// SimulateOver bowls until the over completes or the innings ends. The AI
// picks the approach from the match situation when no aggression is given.
func (e *Engine) SimulateOver(innings *InningsState, aggression string) []*BallOutcome {
	var outcomes []*BallOutcome
	startOvers := innings.Overs

	for !innings.IsComplete() && innings.Overs == startOvers {
		agg := aggression
		if agg == "" {
			switch approachForSituation(innings) {
			case ApproachSurvive:
				agg = AggressionDefend
			case ApproachAllOut, ApproachPush:
				agg = AggressionAttack
			default:
				agg = AggressionBalanced
			}
		}
		outcome := e.PlayBall(innings, agg)
		if outcome == nil {
			break
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// SimulateInnings plays an innings to completion.
func (e *Engine) SimulateInnings(innings *InningsState) *InningsState {
	for !innings.IsComplete() {
		e.SimulateOver(innings, "")
	}
	return innings
}

// InningsSummary is the condensed scorecard of one finished innings.
type InningsSummary struct {
	Runs    int     `json:"runs"`
	Wickets int     `json:"wickets"`
	Overs   string  `json:"overs"`
	RunRate float64 `json:"run_rate"`
}

// MatchSummary is the outcome of a full simulated match.
type MatchSummary struct {
	Innings1 InningsSummary `json:"innings1"`
	Innings2 InningsSummary `json:"innings2"`
	Winner   string         `json:"winner"` // "team1", "team2" or "tie"
	Margin   string         `json:"margin"`
}

func summarize(innings *InningsState) InningsSummary {
	return InningsSummary{
		Runs:    innings.TotalRuns,
		Wickets: innings.Wickets,
		Overs:   innings.OversDisplay(),
		RunRate: innings.RunRate(),
	}
}

// SimulateMatch plays both innings end to end and decides the result.
func (e *Engine) SimulateMatch(team1, team2 []*models.Player, team1BatsFirst bool, pitch *PitchDNA) *MatchSummary {
	if pitch == nil {
		names := make([]string, 0, len(Pitches))
		for name := range Pitches {
			names = append(names, name)
		}
		sort.Strings(names)
		p := Pitches[names[e.rng.Intn(len(names))]]
		pitch = &p
	}

	firstBatting, secondBatting := team1, team2
	if !team1BatsFirst {
		firstBatting, secondBatting = team2, team1
	}

	e.Innings1 = e.SetupInnings(firstBatting, secondBatting, nil, pitch, false)
	e.Current = e.Innings1
	e.SimulateInnings(e.Innings1)

	target := e.Innings1.TotalRuns + 1
	e.Innings2 = e.SetupInnings(secondBatting, firstBatting, &target, pitch, true)
	e.Current = e.Innings2
	e.SimulateInnings(e.Innings2)

	winner, margin := DecideResult(e.Innings1, e.Innings2, team1BatsFirst)

	return &MatchSummary{
		Innings1: summarize(e.Innings1),
		Innings2: summarize(e.Innings2),
		Winner:   winner,
		Margin:   margin,
	}
}

// DecideResult applies the T20 result rules to two completed innings.
func DecideResult(innings1, innings2 *InningsState, team1BatsFirst bool) (winner, margin string) {
	target := innings1.TotalRuns + 1
	switch {
	case innings2.TotalRuns >= target:
		winner = "team2"
		if !team1BatsFirst {
			winner = "team1"
		}
		margin = wicketsMargin(innings2)
	case innings2.TotalRuns < target-1:
		winner = "team1"
		if !team1BatsFirst {
			winner = "team2"
		}
		margin = runsMargin(target, innings2)
	default:
		winner = "tie"
		margin = "Match tied!"
	}
	return winner, margin
}

func wicketsMargin(innings2 *InningsState) string {
	margin := pluralize(10-innings2.Wickets, "wicket")
	ballsRemaining := 20*6 - (innings2.Overs*6 + innings2.Balls)
	if ballsRemaining > 0 {
		margin += " (" + pluralize(ballsRemaining, "ball") + " remaining)"
	}
	return margin
}

func runsMargin(target int, innings2 *InningsState) string {
	return pluralize((target-1)-innings2.TotalRuns, "run")
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
