package generators

import (
	"encoding/json"
	"math/rand"

	"gorm.io/datatypes"

	"github.com/rsumit123/willow-leather-api/internal/engine"
	"github.com/rsumit123/willow-leather-api/internal/models"
)

// Tier places a player in one of four quality bands. Bands shape base
// attributes, base price, age and trait incidence.
type Tier string

const (
	TierElite Tier = "elite"
	TierStar  Tier = "star"
	TierGood  Tier = "good"
	TierSolid Tier = "solid"
)

type tierProfile struct {
	baseLo, baseHi   int
	priceLo, priceHi int64
	ageLo, ageHi     int
	traitWeights     []float64 // none, one, two
	chokerFactor     float64
}

var tierProfiles = map[Tier]tierProfile{
	TierElite: {80, 90, 15000000, 20000000, 26, 34, []float64{35, 50, 15}, 0.10},
	TierStar:  {70, 80, 10000000, 15000000, 24, 32, []float64{45, 43, 12}, 0.35},
	TierGood:  {62, 72, 5000000, 10000000, 23, 31, []float64{55, 37, 8}, 0.65},
	TierSolid: {58, 65, 2000000, 4000000, 20, 30, []float64{70, 27, 3}, 1.0},
}

// poolSlice is one batch of the auction pool: how many of a tier to draw
// and how many of those must be Indian.
type poolSlice struct {
	tier   Tier
	total  int
	indian int
}

// poolComposition yields the 230-player auction pool.
var poolComposition = []poolSlice{
	{TierElite, 20, 8},
	{TierStar, 40, 18},
	{TierGood, 80, 50},
	{TierSolid, 90, 74},
}

var roleWeights = map[models.PlayerRole]float64{
	models.RoleBatsman:      30,
	models.RoleBowler:       35,
	models.RoleAllRounder:   20,
	models.RoleWicketKeeper: 15,
}

var bowlingTypeWeights = map[models.PlayerRole]map[models.BowlingType]float64{
	models.RoleBowler: {
		models.BowlingPace:        40,
		models.BowlingMedium:      15,
		models.BowlingOffSpin:     20,
		models.BowlingLegSpin:     15,
		models.BowlingLeftArmSpin: 10,
	},
	models.RoleAllRounder: {
		models.BowlingPace:        30,
		models.BowlingMedium:      25,
		models.BowlingOffSpin:     25,
		models.BowlingLegSpin:     10,
		models.BowlingLeftArmSpin: 10,
	},
}

var traitPools = map[models.PlayerRole][]models.PlayerTrait{
	models.RoleBatsman:      {models.TraitClutch, models.TraitChoker, models.TraitFinisher},
	models.RoleBowler:       {models.TraitClutch, models.TraitChoker, models.TraitPartnershipBreaker},
	models.RoleAllRounder:   {models.TraitClutch, models.TraitChoker, models.TraitFinisher, models.TraitPartnershipBreaker},
	models.RoleWicketKeeper: {models.TraitClutch, models.TraitChoker, models.TraitBucketHands},
}

var overseasNationalities = []weightedNation{
	{"Australia", 25},
	{"England", 20},
	{"South Africa", 18},
	{"New Zealand", 13},
	{"West Indies", 13},
	{"Sri Lanka", 11},
}

type weightedNation struct {
	name   string
	weight float64
}

// PlayerGenerator draws the auction pool. All randomness flows through the
// injected RNG so a seeded career regenerates the same pool.
type PlayerGenerator struct {
	rng *rand.Rand
}

func NewPlayerGenerator(rng *rand.Rand) *PlayerGenerator {
	return &PlayerGenerator{rng: rng}
}

// GeneratePool draws the full 230-player auction pool for a career.
func (g *PlayerGenerator) GeneratePool(careerID uint) []*models.Player {
	var players []*models.Player
	for _, slice := range poolComposition {
		for i := 0; i < slice.total; i++ {
			nationality := ""
			if i < slice.indian {
				nationality = "India"
			}
			p := g.GeneratePlayer(slice.tier, nationality)
			p.CareerID = &careerID
			players = append(players, p)
		}
	}
	return players
}

// GeneratePlayer draws one player. Empty nationality means a weighted
// overseas draw.
func (g *PlayerGenerator) GeneratePlayer(tier Tier, nationality string) *models.Player {
	profile, ok := tierProfiles[tier]
	if !ok {
		profile = tierProfiles[TierSolid]
	}
	base := profile.baseLo + g.rng.Intn(profile.baseHi-profile.baseLo+1)

	isOverseas := false
	if nationality == "" {
		nationality = g.pickNation()
		isOverseas = true
	} else if nationality != "India" {
		isOverseas = true
	}

	role := g.pickRole()
	bowlingType := g.pickBowlingType(role)

	battingStyle := models.RightHanded
	if g.rng.Float64() < 0.30 {
		battingStyle = models.LeftHanded
	}

	p := &models.Player{
		Name:         g.pickName(nationality),
		Age:          profile.ageLo + g.rng.Intn(profile.ageHi-profile.ageLo+1),
		Nationality:  nationality,
		IsOverseas:   isOverseas,
		Role:         role,
		BattingStyle: battingStyle,
		BowlingType:  bowlingType,
		Form:         round2(0.9 + g.rng.Float64()*0.2),
		BasePrice:    g.pickPrice(profile),
	}

	g.rollAttributes(p, base)
	g.ensureMinimumRating(p)
	p.BattingIntent = g.pickIntent(p)
	p.Traits = g.pickTraits(role, profile)
	g.attachDNA(p, base)

	return p
}

func (g *PlayerGenerator) attr(base, variance int) int {
	v := base + g.rng.Intn(2*variance+1) - variance
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

func (g *PlayerGenerator) rollAttributes(p *models.Player, base int) {
	switch p.Role {
	case models.RoleBatsman:
		p.Batting = g.attr(base+10, 10)
		p.Bowling = g.attr(20, 10)
		p.Power = g.attr(base, 15)
		p.Technique = g.attr(base, 15)
	case models.RoleBowler:
		p.Batting = g.attr(30, 15)
		p.Bowling = g.attr(base+10, 10)
		p.Power = g.attr(30, 10)
		p.Technique = g.attr(30, 10)
	case models.RoleAllRounder:
		p.Batting = g.attr(base, 12)
		p.Bowling = g.attr(base, 12)
		p.Power = g.attr(base-5, 15)
		p.Technique = g.attr(base-5, 15)
	case models.RoleWicketKeeper:
		p.Batting = g.attr(base, 12)
		p.Bowling = g.attr(15, 10)
		p.Power = g.attr(base-10, 15)
		p.Technique = g.attr(base+5, 10)
	}

	fieldingBase := base
	if p.Role == models.RoleWicketKeeper {
		fieldingBase = base + 15
	}
	p.Fielding = g.attr(fieldingBase, 15)
	p.Fitness = g.attr(base, 15)
	p.Running = g.attr(base, 15)
	p.Temperament = g.attr(base, 20)
	p.Consistency = g.attr(base, 15)

	if p.CanBowl() {
		p.PaceOrSpin = g.attr(base+5, 15)
		p.Accuracy = g.attr(base, 15)
		p.Variation = g.attr(base-5, 15)
	} else {
		p.PaceOrSpin = g.attr(20, 10)
		p.Accuracy = g.attr(20, 10)
		p.Variation = g.attr(15, 10)
	}
}

// ensureMinimumRating boosts the role's primary attributes until the
// overall rating reaches 55. Draws are never rejected.
func (g *PlayerGenerator) ensureMinimumRating(p *models.Player) {
	const minRating = 55
	for p.OverallRating() < minRating {
		deficit := minRating - p.OverallRating() + 3
		boost := func(v int) int {
			v += deficit
			if v > 100 {
				return 100
			}
			return v
		}
		switch p.Role {
		case models.RoleBatsman:
			p.Batting = boost(p.Batting)
		case models.RoleWicketKeeper:
			p.Batting = boost(p.Batting)
			p.Fielding = boost(p.Fielding)
		case models.RoleBowler:
			p.Bowling = boost(p.Bowling)
		case models.RoleAllRounder:
			p.Batting = boost(p.Batting)
			p.Bowling = boost(p.Bowling)
		}
		if p.Batting >= 100 && p.Bowling >= 100 && p.Fielding >= 100 {
			break
		}
	}
}

func (g *PlayerGenerator) pickIntent(p *models.Player) models.BattingIntent {
	if p.Role == models.RoleBowler {
		return models.IntentAccumulator
	}

	intents := []models.BattingIntent{
		models.IntentAccumulator,
		models.IntentAnchor,
		models.IntentAggressive,
		models.IntentPowerHitter,
	}
	intent := intents[g.weightedIndex([]float64{50, 25, 18, 7})]

	// Guards keep intent consistent with the attributes behind it
	if intent == models.IntentPowerHitter && p.Power < 55 {
		intent = models.IntentAggressive
	}
	if intent == models.IntentAnchor && p.Technique < 45 {
		intent = models.IntentAccumulator
	}
	return intent
}

func (g *PlayerGenerator) pickTraits(role models.PlayerRole, profile tierProfile) models.TraitList {
	count := g.weightedIndex(profile.traitWeights)
	if count == 0 {
		return nil
	}

	pool := traitPools[role]
	weights := make([]float64, len(pool))
	for i, t := range pool {
		weights[i] = 25
		if t == models.TraitChoker {
			weights[i] *= profile.chokerFactor
		}
	}

	var traits models.TraitList
	for len(traits) < count && len(pool) > 0 {
		idx := g.weightedIndex(weights)
		traits = append(traits, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return traits
}

// attachDNA gives every player a BatterDNA and every bowler the matching
// PacerDNA or SpinnerDNA, drawn around the tier base.
func (g *PlayerGenerator) attachDNA(p *models.Player, base int) {
	stat := func(b int) int {
		v := b + g.rng.Intn(25) - 12
		if v < 1 {
			return 1
		}
		if v > 100 {
			return 100
		}
		return v
	}

	batter := engine.BatterDNA{
		VsPace:      stat(base),
		VsBounce:    stat(base - 5),
		VsSpin:      stat(base),
		VsDeception: stat(base - 5),
		OffSide:     stat(base),
		LegSide:     stat(base),
		Power:       p.Power,
	}

	// Everyone has 1-2 exploitable weaknesses
	statNames := []string{"vs_pace", "vs_bounce", "vs_spin", "vs_deception", "off_side", "leg_side"}
	g.rng.Shuffle(len(statNames), func(i, j int) {
		statNames[i], statNames[j] = statNames[j], statNames[i]
	})
	weaknesses := 1 + g.rng.Intn(2)
	for _, name := range statNames[:weaknesses] {
		drop := 15 + g.rng.Intn(11)
		switch name {
		case "vs_pace":
			batter.VsPace = maxOf(1, batter.VsPace-drop)
		case "vs_bounce":
			batter.VsBounce = maxOf(1, batter.VsBounce-drop)
		case "vs_spin":
			batter.VsSpin = maxOf(1, batter.VsSpin-drop)
		case "vs_deception":
			batter.VsDeception = maxOf(1, batter.VsDeception-drop)
		case "off_side":
			batter.OffSide = maxOf(1, batter.OffSide-drop)
		case "leg_side":
			batter.LegSide = maxOf(1, batter.LegSide-drop)
		}
		batter.Weaknesses = append(batter.Weaknesses, name)
	}

	if data, err := json.Marshal(batter); err == nil {
		p.BatterDNA = datatypes.JSON(data)
	}

	if !p.CanBowl() {
		return
	}

	var bowler engine.BowlerDNA
	if p.BowlingType.IsSpin() {
		bowler = engine.SpinnerDNA{
			Turn:      stat(base),
			Flight:    stat(base - 5),
			Variation: stat(base - 5),
			Ctrl:      stat(base + 5),
		}
	} else {
		speed := 128 + (base-60)/2 + g.rng.Intn(17) - 8
		if p.BowlingType == models.BowlingMedium {
			speed -= 8
		}
		if speed < 120 {
			speed = 120
		}
		if speed > 155 {
			speed = 155
		}
		bowler = engine.PacerDNA{
			Speed:  speed,
			Swing:  stat(base - 5),
			Bounce: stat(base - 5),
			Ctrl:   stat(base + 5),
		}
	}
	if data, err := json.Marshal(bowler); err == nil {
		p.BowlerDNA = datatypes.JSON(data)
	}
}

func (g *PlayerGenerator) pickPrice(profile tierProfile) int64 {
	span := profile.priceHi - profile.priceLo
	price := profile.priceLo + g.rng.Int63n(span+1)
	// Round to the nearest lakh for presentable price tags
	return price / 100000 * 100000
}

func (g *PlayerGenerator) pickRole() models.PlayerRole {
	roles := []models.PlayerRole{
		models.RoleBatsman,
		models.RoleBowler,
		models.RoleAllRounder,
		models.RoleWicketKeeper,
	}
	weights := make([]float64, len(roles))
	for i, r := range roles {
		weights[i] = roleWeights[r]
	}
	return roles[g.weightedIndex(weights)]
}

func (g *PlayerGenerator) pickBowlingType(role models.PlayerRole) models.BowlingType {
	table, ok := bowlingTypeWeights[role]
	if !ok {
		return models.BowlingNone
	}
	types := []models.BowlingType{
		models.BowlingPace,
		models.BowlingMedium,
		models.BowlingOffSpin,
		models.BowlingLegSpin,
		models.BowlingLeftArmSpin,
	}
	weights := make([]float64, len(types))
	for i, t := range types {
		weights[i] = table[t]
	}
	return types[g.weightedIndex(weights)]
}

func (g *PlayerGenerator) pickNation() string {
	weights := make([]float64, len(overseasNationalities))
	for i, n := range overseasNationalities {
		weights[i] = n.weight
	}
	return overseasNationalities[g.weightedIndex(weights)].name
}

func (g *PlayerGenerator) weightedIndex(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	roll := g.rng.Float64() * total
	for i, w := range weights {
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
