package engine

// Delivery describes one ball type: which bowler stats power it, which
// batter stats defend it, how hard it is to land, and how it gets wickets.
type Delivery struct {
	Name             string
	BowlerWeights    map[string]float64
	BatterWeights    map[string]float64
	ExecDifficulty   int
	DismissalWeights map[string]float64
}

// primaryBatterStat is the heaviest-weighted batter stat for this delivery.
func (d *Delivery) primaryBatterStat() string {
	best := ""
	bestW := -1.0
	for name, w := range d.BatterWeights {
		if w > bestW || (w == bestW && name < best) {
			best = name
			bestW = w
		}
	}
	return best
}

var PacerDeliveries = map[string]*Delivery{
	"good_length": {
		Name:             "good_length",
		BowlerWeights:    map[string]float64{"control": 0.4, "swing": 0.3, "speed_factor": 0.3},
		BatterWeights:    map[string]float64{"vs_pace": 0.7, "off_side": 0.3},
		ExecDifficulty:   30,
		DismissalWeights: map[string]float64{"bowled": 0.25, "lbw": 0.20, "caught": 0.35, "caught_behind": 0.20},
	},
	"outswinger": {
		Name:             "outswinger",
		BowlerWeights:    map[string]float64{"swing": 0.6, "control": 0.4},
		BatterWeights:    map[string]float64{"vs_pace": 0.6, "off_side": 0.4},
		ExecDifficulty:   42,
		DismissalWeights: map[string]float64{"caught_behind": 0.40, "caught": 0.30, "bowled": 0.20, "lbw": 0.10},
	},
	"inswinger": {
		Name:             "inswinger",
		BowlerWeights:    map[string]float64{"swing": 0.6, "control": 0.4},
		BatterWeights:    map[string]float64{"vs_pace": 0.5, "leg_side": 0.5},
		ExecDifficulty:   45,
		DismissalWeights: map[string]float64{"lbw": 0.40, "bowled": 0.40, "caught": 0.15, "caught_behind": 0.05},
	},
	"bouncer": {
		Name:             "bouncer",
		BowlerWeights:    map[string]float64{"bounce": 0.5, "speed_factor": 0.5},
		BatterWeights:    map[string]float64{"vs_bounce": 0.6, "leg_side": 0.4},
		ExecDifficulty:   38,
		DismissalWeights: map[string]float64{"caught": 0.55, "top_edge": 0.25, "bowled": 0.10, "hit_wicket": 0.10},
	},
	"yorker": {
		Name:             "yorker",
		BowlerWeights:    map[string]float64{"control": 0.7, "speed_factor": 0.3},
		BatterWeights:    map[string]float64{"vs_pace": 0.3, "power": 0.3, "leg_side": 0.4},
		ExecDifficulty:   58,
		DismissalWeights: map[string]float64{"bowled": 0.50, "lbw": 0.35, "caught": 0.15},
	},
	"slower_ball": {
		Name:             "slower_ball",
		BowlerWeights:    map[string]float64{"control": 0.5, "speed_factor": 0.5},
		BatterWeights:    map[string]float64{"vs_deception": 0.7, "power": 0.3},
		ExecDifficulty:   48,
		DismissalWeights: map[string]float64{"caught": 0.55, "bowled": 0.25, "lbw": 0.20},
	},
	"wide_yorker": {
		Name:             "wide_yorker",
		BowlerWeights:    map[string]float64{"control": 0.7, "speed_factor": 0.3},
		BatterWeights:    map[string]float64{"vs_pace": 0.3, "off_side": 0.7},
		ExecDifficulty:   55,
		DismissalWeights: map[string]float64{"bowled": 0.40, "caught_behind": 0.35, "caught": 0.25},
	},
}

var SpinnerDeliveries = map[string]*Delivery{
	"stock_ball": {
		Name:             "stock_ball",
		BowlerWeights:    map[string]float64{"turn": 0.5, "control": 0.5},
		BatterWeights:    map[string]float64{"vs_spin": 0.7, "off_side": 0.3},
		ExecDifficulty:   28,
		DismissalWeights: map[string]float64{"bowled": 0.25, "stumped": 0.25, "caught": 0.25, "lbw": 0.15, "caught_behind": 0.10},
	},
	"flighted": {
		Name:             "flighted",
		BowlerWeights:    map[string]float64{"flight": 0.6, "turn": 0.4},
		BatterWeights:    map[string]float64{"vs_spin": 0.4, "vs_deception": 0.3, "power": 0.3},
		ExecDifficulty:   40,
		DismissalWeights: map[string]float64{"stumped": 0.35, "caught": 0.35, "bowled": 0.15, "lbw": 0.15},
	},
	"arm_ball": {
		Name:             "arm_ball",
		BowlerWeights:    map[string]float64{"variation": 0.7, "control": 0.3},
		BatterWeights:    map[string]float64{"vs_deception": 0.8, "vs_spin": 0.2},
		ExecDifficulty:   52,
		DismissalWeights: map[string]float64{"bowled": 0.40, "lbw": 0.30, "stumped": 0.15, "caught": 0.15},
	},
	"flat_quick": {
		Name:             "flat_quick",
		BowlerWeights:    map[string]float64{"control": 0.7, "turn": 0.3},
		BatterWeights:    map[string]float64{"power": 0.5, "vs_spin": 0.5},
		ExecDifficulty:   32,
		DismissalWeights: map[string]float64{"caught": 0.40, "bowled": 0.30, "lbw": 0.20, "stumped": 0.10},
	},
	"wide_of_off": {
		Name:             "wide_of_off",
		BowlerWeights:    map[string]float64{"control": 0.6, "turn": 0.4},
		BatterWeights:    map[string]float64{"off_side": 0.6, "vs_spin": 0.4},
		ExecDifficulty:   38,
		DismissalWeights: map[string]float64{"caught": 0.35, "stumped": 0.30, "caught_behind": 0.25, "bowled": 0.10},
	},
}

// DeliveryByName looks up a delivery across both catalogues.
func DeliveryByName(name string) *Delivery {
	if d, ok := PacerDeliveries[name]; ok {
		return d
	}
	if d, ok := SpinnerDeliveries[name]; ok {
		return d
	}
	return nil
}
