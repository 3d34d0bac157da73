package engine

import (
	"encoding/json"

	"github.com/rsumit123/willow-leather-api/internal/models"
)

func clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func clampInt(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// BatterDNA is the fine-grained batting profile the per-ball pipeline reads.
// All stats are 0-100.
type BatterDNA struct {
	VsPace      int      `json:"vs_pace"`
	VsBounce    int      `json:"vs_bounce"`
	VsSpin      int      `json:"vs_spin"`
	VsDeception int      `json:"vs_deception"`
	OffSide     int      `json:"off_side"`
	LegSide     int      `json:"leg_side"`
	Power       int      `json:"power"`
	Weaknesses  []string `json:"weaknesses"`
}

// Avg is the mean of the six matchup stats. Power is excluded; it shapes
// run resolution, not contact.
func (d BatterDNA) Avg() float64 {
	return float64(d.VsPace+d.VsBounce+d.VsSpin+d.VsDeception+d.OffSide+d.LegSide) / 6
}

// Stat looks up a matchup stat by its delivery-weight name.
func (d BatterDNA) Stat(name string) float64 {
	switch name {
	case "vs_pace":
		return float64(d.VsPace)
	case "vs_bounce":
		return float64(d.VsBounce)
	case "vs_spin":
		return float64(d.VsSpin)
	case "vs_deception":
		return float64(d.VsDeception)
	case "off_side":
		return float64(d.OffSide)
	case "leg_side":
		return float64(d.LegSide)
	case "power":
		return float64(d.Power)
	}
	return 50
}

const (
	bowlerTypePacer   = "pacer"
	bowlerTypeSpinner = "spinner"
)

// BowlerDNA is the pacer/spinner union. The persisted JSON carries a "type"
// tag so either side round-trips.
type BowlerDNA interface {
	Type() string
	Avg() float64
	Control() int
	Stat(name string) float64
}

type PacerDNA struct {
	Speed  int `json:"speed"` // kph, 120-155
	Swing  int `json:"swing"`
	Bounce int `json:"bounce"`
	Ctrl   int `json:"control"`
}

func (d PacerDNA) Type() string { return bowlerTypePacer }

func (d PacerDNA) Control() int { return d.Ctrl }

// SpeedFactor normalizes speed to a 0-100 scale.
func (d PacerDNA) SpeedFactor() float64 {
	return clamp(float64(d.Speed-115)*2.5, 0, 100)
}

func (d PacerDNA) Avg() float64 {
	return (d.SpeedFactor() + float64(d.Swing) + float64(d.Bounce) + float64(d.Ctrl)) / 4
}

func (d PacerDNA) Stat(name string) float64 {
	switch name {
	case "speed_factor":
		return d.SpeedFactor()
	case "swing":
		return float64(d.Swing)
	case "bounce":
		return float64(d.Bounce)
	case "control":
		return float64(d.Ctrl)
	}
	return 50
}

func (d PacerDNA) MarshalJSON() ([]byte, error) {
	type alias PacerDNA
	return json.Marshal(struct {
		TypeTag string `json:"type"`
		alias
	}{TypeTag: bowlerTypePacer, alias: alias(d)})
}

type SpinnerDNA struct {
	Turn      int `json:"turn"`
	Flight    int `json:"flight"`
	Variation int `json:"variation"`
	Ctrl      int `json:"control"`
}

func (d SpinnerDNA) Type() string { return bowlerTypeSpinner }

func (d SpinnerDNA) Control() int { return d.Ctrl }

func (d SpinnerDNA) Avg() float64 {
	return float64(d.Turn+d.Flight+d.Variation+d.Ctrl) / 4
}

func (d SpinnerDNA) Stat(name string) float64 {
	switch name {
	case "turn":
		return float64(d.Turn)
	case "flight":
		return float64(d.Flight)
	case "variation":
		return float64(d.Variation)
	case "control":
		return float64(d.Ctrl)
	}
	return 50
}

func (d SpinnerDNA) MarshalJSON() ([]byte, error) {
	type alias SpinnerDNA
	return json.Marshal(struct {
		TypeTag string `json:"type"`
		alias
	}{TypeTag: bowlerTypeSpinner, alias: alias(d)})
}

// ParseBatterDNA deserializes a persisted BatterDNA column.
func ParseBatterDNA(data []byte) (BatterDNA, error) {
	var d BatterDNA
	if err := json.Unmarshal(data, &d); err != nil {
		return BatterDNA{}, err
	}
	return d, nil
}

// ParseBowlerDNA deserializes a persisted BowlerDNA column, dispatching on
// the "type" tag. Untagged payloads are treated as pacers.
func ParseBowlerDNA(data []byte) (BowlerDNA, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, err
	}
	if tag.Type == bowlerTypeSpinner {
		var d SpinnerDNA
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	}
	var d PacerDNA
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// batterDNAFor returns the player's stored BatterDNA, synthesizing a
// best-effort profile from coarse attributes when missing.
func batterDNAFor(p *models.Player) BatterDNA {
	if len(p.BatterDNA) > 0 {
		if d, err := ParseBatterDNA(p.BatterDNA); err == nil {
			return d
		}
	}
	floor := func(v int) int {
		if v < 20 {
			return 20
		}
		return v
	}
	return BatterDNA{
		VsPace:      floor(p.Batting - 10),
		VsBounce:    floor(p.Batting - 15),
		VsSpin:      floor(p.Batting - 10),
		VsDeception: floor(p.Batting - 20),
		OffSide:     floor(p.Batting - 10),
		LegSide:     floor(p.Batting - 10),
		Power:       p.Power,
	}
}

// bowlerDNAFor returns the player's stored BowlerDNA, or nil for
// non-bowlers, or a synthesized profile for bowlers missing one.
func bowlerDNAFor(p *models.Player) BowlerDNA {
	if len(p.BowlerDNA) > 0 {
		if d, err := ParseBowlerDNA(p.BowlerDNA); err == nil {
			return d
		}
	}
	if !p.CanBowl() {
		return nil
	}
	floor := func(v, lo int) int {
		if v < lo {
			return lo
		}
		return v
	}
	if p.BowlingType.IsSpin() {
		return SpinnerDNA{
			Turn:      floor(p.PaceOrSpin, 30),
			Flight:    floor(p.Bowling-15, 25),
			Variation: floor(p.Variation, 25),
			Ctrl:      floor(p.Accuracy, 30),
		}
	}
	return PacerDNA{
		Speed:  130,
		Swing:  floor(p.Bowling-10, 20),
		Bounce: 40,
		Ctrl:   floor(p.Bowling, 30),
	}
}

// PitchDNA describes the surface. All assists 0-100.
type PitchDNA struct {
	Name          string `json:"name"`
	PaceAssist    int    `json:"pace_assist"`
	SpinAssist    int    `json:"spin_assist"`
	Bounce        int    `json:"bounce"`
	Carry         int    `json:"carry"`
	Deterioration int    `json:"deterioration"`
}

const (
	PitchGreenSeamer = "green_seamer"
	PitchDustBowl    = "dust_bowl"
	PitchFlatDeck    = "flat_deck"
	PitchBouncyTrack = "bouncy_track"
	PitchSlowTurner  = "slow_turner"
	PitchBalanced    = "balanced"
)

// Pitches are the preset surfaces a venue can produce.
var Pitches = map[string]PitchDNA{
	PitchGreenSeamer: {Name: PitchGreenSeamer, PaceAssist: 80, SpinAssist: 15, Bounce: 70, Carry: 85, Deterioration: 25},
	PitchDustBowl:    {Name: PitchDustBowl, PaceAssist: 20, SpinAssist: 85, Bounce: 35, Carry: 45, Deterioration: 80},
	PitchFlatDeck:    {Name: PitchFlatDeck, PaceAssist: 40, SpinAssist: 35, Bounce: 55, Carry: 60, Deterioration: 20},
	PitchBouncyTrack: {Name: PitchBouncyTrack, PaceAssist: 75, SpinAssist: 20, Bounce: 90, Carry: 85, Deterioration: 20},
	PitchSlowTurner:  {Name: PitchSlowTurner, PaceAssist: 30, SpinAssist: 60, Bounce: 40, Carry: 50, Deterioration: 55},
	PitchBalanced:    {Name: PitchBalanced, PaceAssist: 55, SpinAssist: 45, Bounce: 60, Carry: 65, Deterioration: 35},
}

// DefaultPitch is the balanced preset.
func DefaultPitch() PitchDNA {
	return Pitches[PitchBalanced]
}
