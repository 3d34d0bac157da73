package engine

// The per-ball pipeline: jaffa, execution check, attack/skill ratings,
// compression, Gaussian margin, contact class, resolution. Deterministic
// helpers live here as package functions; anything that rolls dice is a
// method on Engine so the instance RNG stays in control.

const (
	compressBase  = 28.0
	compressScale = 0.45
)

// compress narrows a raw 0-100 rating into the effective band so skill
// matters without dominating the Gaussian roll.
func compress(rating float64) float64 {
	return compressBase + rating*compressScale
}

func pitchAssist(pitch PitchDNA, statName string) float64 {
	switch statName {
	case "speed_factor", "swing":
		return float64(pitch.PaceAssist)
	case "bounce":
		return float64((pitch.PaceAssist + pitch.Bounce) / 2)
	case "turn", "flight":
		return float64(pitch.SpinAssist)
	case "variation":
		return float64(pitch.SpinAssist * 7 / 10)
	}
	return 50
}

// ballAgeModifier: swing fades as the ball ages, spin grows.
func ballAgeModifier(oversBowled int, statName string) float64 {
	switch statName {
	case "swing":
		if oversBowled <= 6 {
			return 1.0
		}
		if oversBowled <= 12 {
			return 0.65
		}
		return 0.40
	case "turn", "flight":
		if oversBowled <= 6 {
			return 0.85
		}
		if oversBowled <= 12 {
			return 1.0
		}
		return 1.15
	}
	return 1.0
}

var fatigueMultipliers = map[int]float64{0: 1.0, 1: 1.0, 2: 0.97, 3: 0.92, 4: 0.85}

func fatigueFor(bowlerOvers int) float64 {
	if m, ok := fatigueMultipliers[bowlerOvers]; ok {
		return m
	}
	return 0.85
}

// sigmaFor returns the Gaussian spread by phase: powerplay is volatile,
// middle overs settle, death overs swing wildest.
func sigmaFor(overs int) float64 {
	if overs < 6 {
		return 12.0
	}
	if overs < 16 {
		return 11.0
	}
	return 14.0
}

// settledModifier rewards a batter who has played themselves in and taxes
// both the brand-new and the weary.
func settledModifier(ballsFaced int) float64 {
	if ballsFaced <= 5 {
		return -3.0
	}
	if ballsFaced <= 15 {
		return 0.0
	}
	if ballsFaced <= 40 {
		return 2.0
	}
	return -1.0
}

// deteriorationMod scales spin assists in the second innings as the surface
// breaks up.
func deteriorationMod(pitch PitchDNA, isSecondInnings bool) float64 {
	if !isSecondInnings {
		return 1.0
	}
	return 1.0 + float64(pitch.Deterioration)/150
}

// repertoire filters the catalogue down to what this bowler's DNA supports.
func repertoire(dna BowlerDNA) []*Delivery {
	if dna == nil {
		return []*Delivery{PacerDeliveries["good_length"]}
	}

	switch d := dna.(type) {
	case PacerDNA:
		out := []*Delivery{PacerDeliveries["good_length"]}
		if d.Swing >= 40 {
			out = append(out, PacerDeliveries["outswinger"], PacerDeliveries["inswinger"])
		}
		if d.Bounce >= 40 {
			out = append(out, PacerDeliveries["bouncer"])
		}
		out = append(out, PacerDeliveries["yorker"], PacerDeliveries["slower_ball"])
		if d.Ctrl >= 55 {
			out = append(out, PacerDeliveries["wide_yorker"])
		}
		return out
	case SpinnerDNA:
		out := []*Delivery{SpinnerDeliveries["stock_ball"]}
		if d.Flight >= 40 {
			out = append(out, SpinnerDeliveries["flighted"])
		}
		if d.Variation >= 45 {
			out = append(out, SpinnerDeliveries["arm_ball"])
		}
		out = append(out, SpinnerDeliveries["flat_quick"])
		if d.Ctrl >= 50 {
			out = append(out, SpinnerDeliveries["wide_of_off"])
		}
		return out
	}
	return []*Delivery{PacerDeliveries["good_length"]}
}

// chooseOptimalDelivery: the captain picks smartly 55% of the time, scoring
// each delivery by how weak the batter is against its primary target and
// weight-picking from the top three.
func (e *Engine) chooseOptimalDelivery(rep []*Delivery, batterDNA BatterDNA) *Delivery {
	if e.rng.Float64() < 0.45 {
		return rep[e.rng.Intn(len(rep))]
	}

	type scored struct {
		d         *Delivery
		advantage float64
	}
	list := make([]scored, 0, len(rep))
	for _, d := range rep {
		batterVal := batterDNA.Stat(d.primaryBatterStat())
		list = append(list, scored{d: d, advantage: 50 - batterVal})
	}
	// stable insertion sort, descending advantage
	for i := 1; i < len(list); i++ {
		for j := i; j > 0 && list[j].advantage > list[j-1].advantage; j-- {
			list[j], list[j-1] = list[j-1], list[j]
		}
	}
	n := len(list)
	if n > 3 {
		n = 3
	}
	weights := []float64{3, 2, 1}[:n]
	idx := e.weightedIndex(weights)
	return list[idx].d
}

type execResult int

const (
	execExecuted execResult = iota
	execSlightMiss
	execBadMiss
)

// executionCheck rolls the bowler's control against the delivery's
// difficulty, adjusted by phase. Powerplay helps swing, death overs help
// yorkers and slower balls.
func (e *Engine) executionCheck(dna BowlerDNA, delivery *Delivery, fatigue float64, overs int) execResult {
	control := float64(dna.Control()) * fatigue
	roll := e.gauss(control, 8)

	target := float64(delivery.ExecDifficulty)
	if overs < 6 {
		switch delivery.Name {
		case "outswinger", "inswinger":
			target -= 5
		case "yorker":
			target += 5
		}
	} else if overs >= 16 {
		switch delivery.Name {
		case "yorker", "wide_yorker", "slower_ball":
			target -= 4
		case "bouncer":
			target += 3
		}
	}

	if roll >= target {
		return execExecuted
	}
	if target-roll > 15 {
		return execBadMiss
	}
	return execSlightMiss
}

// bowlerAttackRating weighs the bowler's relevant stats through pitch
// assist, ball age and fatigue. Each term caps at 120.
func bowlerAttackRating(dna BowlerDNA, delivery *Delivery, pitch PitchDNA, overs int, fatigue float64, isSecond bool) float64 {
	rating := 0.0
	for statName, weight := range delivery.BowlerWeights {
		baseStat := dna.Stat(statName)
		pa := pitchAssist(pitch, statName)
		if isSecond && (statName == "turn" || statName == "flight") {
			pa = clamp(pa*deteriorationMod(pitch, true), 0, 100)
		}
		effective := baseStat * (0.5 + pa*0.01)
		effective *= ballAgeModifier(overs, statName)
		effective *= fatigue
		if effective > 120 {
			effective = 120
		}
		rating += effective * weight
	}
	return rating
}

func batterSkillRating(dna BatterDNA, delivery *Delivery) float64 {
	rating := 0.0
	for statName, weight := range delivery.BatterWeights {
		rating += dna.Stat(statName) * weight
	}
	return rating
}

// tacticalBonus is a small edge for targeting a batter's weak stat.
func tacticalBonus(dna BatterDNA, delivery *Delivery) float64 {
	primaryVal := dna.Stat(delivery.primaryBatterStat())
	return clamp((50-primaryVal)*0.10, -3.0, 3.0)
}

// Approach is the batter's intent for a ball.
type Approach string

const (
	ApproachSurvive Approach = "survive"
	ApproachRotate  Approach = "rotate"
	ApproachPush    Approach = "push"
	ApproachAllOut  Approach = "all_out"
)

// calculateMargin rolls the batter's performance against the attack.
// Positive margin favours the bat.
func (e *Engine) calculateMargin(attack, skill, tacBonus float64, approach Approach, sigma float64) float64 {
	sigmaMult, baseShift := 0.90, 1.0
	switch approach {
	case ApproachSurvive:
		sigmaMult, baseShift = 0.70, 3
	case ApproachRotate:
		sigmaMult, baseShift = 0.90, 1.5
	case ApproachPush:
		sigmaMult, baseShift = 1.08, 0
	case ApproachAllOut:
		sigmaMult, baseShift = 1.25, 0
	}
	performance := e.gauss(skill+baseShift, sigma*sigmaMult)
	return performance - (attack + tacBonus)
}

// Contact classes, best to worst.
const (
	ContactPerfect   = "perfect"
	ContactGood      = "good"
	ContactDecent    = "decent"
	ContactDefended  = "defended"
	ContactBeaten    = "beaten"
	ContactEdge      = "edge"
	ContactCleanBeat = "clean_beat"
)

func resolveContact(margin float64) string {
	switch {
	case margin >= 25:
		return ContactPerfect
	case margin >= 15:
		return ContactGood
	case margin >= 5:
		return ContactDecent
	case margin >= -5:
		return ContactDefended
	case margin >= -12:
		return ContactBeaten
	case margin >= -18:
		return ContactEdge
	default:
		return ContactCleanBeat
	}
}

// resolveRuns converts bat-on-ball contact into runs. Boundary chances
// scale with power and approach.
func (e *Engine) resolveRuns(contact string, power int, approach Approach) (runs int, isBoundary, isSix bool) {
	var bmod, smod float64
	switch approach {
	case ApproachSurvive:
		bmod, smod = -0.18, -0.10
	case ApproachPush:
		bmod, smod = 0.10, 0.05
	case ApproachAllOut:
		bmod, smod = 0.22, 0.15
	}

	switch contact {
	case ContactPerfect:
		sixChance := clamp(float64(power)/160+smod, 0.05, 0.75)
		if e.rng.Float64() < sixChance {
			return 6, true, true
		}
		return 4, true, false

	case ContactGood:
		boundaryChance := clamp(0.55+float64(power)/400+bmod, 0.20, 0.90)
		if e.rng.Float64() < boundaryChance {
			sixChance := clamp(float64(power)/250+smod, 0.02, 0.50)
			if e.rng.Float64() < sixChance {
				return 6, true, true
			}
			return 4, true, false
		}
		if approach == ApproachPush || approach == ApproachAllOut {
			return e.pick([]int{2, 2, 3, 3}), false, false
		}
		return e.pick([]int{2, 2, 3}), false, false

	case ContactDecent:
		extra := bmod * 0.5
		if extra < 0 {
			extra = 0
		}
		boundaryChance := clamp(0.08+float64(power)/800+extra, 0.02, 0.25)
		if e.rng.Float64() < boundaryChance {
			return 4, true, false
		}
		switch approach {
		case ApproachPush, ApproachAllOut:
			return e.pick([]int{1, 1, 2, 2, 2, 3}), false, false
		case ApproachSurvive:
			return e.pick([]int{0, 1, 1, 1, 1}), false, false
		}
		return e.pick([]int{1, 1, 1, 2, 2}), false, false

	case ContactDefended:
		switch approach {
		case ApproachPush, ApproachAllOut:
			return e.pick([]int{0, 0, 1, 1, 1, 1}), false, false
		case ApproachSurvive:
			return e.pick([]int{0, 0, 0, 0, 1}), false, false
		}
		return e.pick([]int{0, 0, 0, 1, 1, 1}), false, false
	}

	return 0, false, false
}

// resolveEdge: an edge carries to hand as a function of pitch carry,
// clamped so edges neither always fly safe nor always stick.
func (e *Engine) resolveEdge(pitch PitchDNA) (isWicket bool, dismissal string, runs int) {
	carry := float64(pitch.Carry) / 100
	catchChance := clamp(0.25*carry, 0.05, 0.50)
	if e.rng.Float64() < catchChance {
		if e.rng.Float64() < 0.55 {
			return true, "caught_behind", 0
		}
		return true, "caught", 0
	}
	return false, "", e.pick([]int{0, 0, 0, 1})
}

// resolveCleanBeat: the further past the bat, the likelier the wicket.
func (e *Engine) resolveCleanBeat(margin float64, delivery *Delivery) (isWicket bool, dismissal string) {
	marginAbs := margin
	if marginAbs < 0 {
		marginAbs = -marginAbs
	}
	wicketChance := 0.55 + (marginAbs-18)*0.025
	if wicketChance > 0.95 {
		wicketChance = 0.95
	}
	if e.rng.Float64() < wicketChance {
		return true, e.weightedDismissal(delivery.DismissalWeights)
	}
	return false, ""
}

// safetyNet nudges collapsing or crawling innings back toward plausible
// T20 scores, and reins in runaway ones.
func safetyNet(innings *InningsState) float64 {
	totalBalls := innings.Overs*6 + innings.Balls
	if totalBalls < 6 {
		return 0
	}
	rr := innings.RunRate()
	if innings.Wickets >= 5 && totalBalls < 36 {
		return 15
	}
	if rr < 4.0 && innings.Wickets < 8 {
		return 12
	}
	if rr > 13 {
		return -10
	}
	return 0
}

// Aggression is the caller-facing batting instruction.
const (
	AggressionDefend   = "defend"
	AggressionBalanced = "balanced"
	AggressionAttack   = "attack"
)

// mapAggression translates the API aggression into an approach. Attack
// escalates to all-out in the death overs or a steep chase.
func (e *Engine) mapAggression(aggression string, innings *InningsState) Approach {
	if aggression == AggressionAttack {
		if innings.Overs >= 18 {
			return ApproachAllOut
		}
		if innings.Target != nil {
			ballsLeft := 20*6 - (innings.Overs*6 + innings.Balls)
			if ballsLeft > 0 {
				rrr := float64(*innings.Target-innings.TotalRuns) / float64(ballsLeft) * 6
				if rrr > 12 {
					return ApproachAllOut
				}
			}
		}
		if e.rng.Float64() < 0.20 {
			return ApproachAllOut
		}
		return ApproachPush
	}
	switch aggression {
	case AggressionDefend:
		return ApproachSurvive
	case AggressionBalanced:
		return ApproachRotate
	}
	return ApproachRotate
}

// approachForSituation is the AI batting brain for simulated overs.
func approachForSituation(innings *InningsState) Approach {
	overs := innings.Overs
	wickets := innings.Wickets

	if innings.Target != nil {
		ballsLeft := 20*6 - (overs*6 + innings.Balls)
		if ballsLeft <= 0 {
			return ApproachAllOut
		}
		rrr := float64(*innings.Target-innings.TotalRuns) / float64(ballsLeft) * 6
		if rrr > 14 {
			return ApproachAllOut
		}
		if rrr > 10 {
			return ApproachPush
		}
		if rrr < 5 {
			return ApproachRotate
		}
	}

	if wickets >= 7 {
		return ApproachSurvive
	}
	if wickets >= 5 && overs < 12 {
		return ApproachRotate
	}
	if overs >= 18 {
		return ApproachAllOut
	}
	if overs >= 16 {
		return ApproachPush
	}
	return ApproachRotate
}
