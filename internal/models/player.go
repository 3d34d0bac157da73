package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

type PlayerRole string

const (
	RoleBatsman      PlayerRole = "batsman"
	RoleBowler       PlayerRole = "bowler"
	RoleAllRounder   PlayerRole = "all_rounder"
	RoleWicketKeeper PlayerRole = "wicket_keeper"
)

type BattingStyle string

const (
	RightHanded BattingStyle = "right_handed"
	LeftHanded  BattingStyle = "left_handed"
)

type BowlingType string

const (
	BowlingPace        BowlingType = "pace"
	BowlingMedium      BowlingType = "medium"
	BowlingOffSpin     BowlingType = "off_spin"
	BowlingLegSpin     BowlingType = "leg_spin"
	BowlingLeftArmSpin BowlingType = "left_arm_spin"
	BowlingNone        BowlingType = "none"
)

// IsSpin reports whether the type is one of the spin variants.
func (bt BowlingType) IsSpin() bool {
	return bt == BowlingOffSpin || bt == BowlingLegSpin || bt == BowlingLeftArmSpin
}

// IsPace reports whether the type is pace or medium.
func (bt BowlingType) IsPace() bool {
	return bt == BowlingPace || bt == BowlingMedium
}

type BattingIntent string

const (
	IntentAnchor      BattingIntent = "anchor"      // low variance, holds an end
	IntentAccumulator BattingIntent = "accumulator" // moderate variance
	IntentAggressive  BattingIntent = "aggressive"  // high variance
	IntentPowerHitter BattingIntent = "power_hitter"
)

type PlayerTrait string

const (
	TraitClutch             PlayerTrait = "clutch"
	TraitChoker             PlayerTrait = "choker"
	TraitBucketHands        PlayerTrait = "bucket_hands"
	TraitPartnershipBreaker PlayerTrait = "partnership_breaker"
	TraitFinisher           PlayerTrait = "finisher"
)

// TraitList is stored as a JSON array column.
type TraitList []PlayerTrait

func (tl *TraitList) Scan(value interface{}) error {
	if value == nil {
		*tl = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into TraitList", value)
	}

	var result []PlayerTrait
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*tl = result
	return nil
}

func (tl TraitList) Value() (driver.Value, error) {
	if tl == nil {
		return nil, nil
	}
	b, err := json.Marshal(tl)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Has reports whether the list contains the given trait.
func (tl TraitList) Has(trait PlayerTrait) bool {
	for _, t := range tl {
		if t == trait {
			return true
		}
	}
	return false
}

type Player struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	CareerID    *uint  `gorm:"index" json:"career_id,omitempty"`
	Name        string `gorm:"not null" json:"name"`
	Age         int    `json:"age"`
	Nationality string `json:"nationality"`
	IsOverseas  bool   `gorm:"default:false" json:"is_overseas"`

	Role         PlayerRole   `gorm:"not null" json:"role"`
	BattingStyle BattingStyle `gorm:"not null" json:"batting_style"`
	BowlingType  BowlingType  `gorm:"not null" json:"bowling_type"`

	// Core attributes, 1-100
	Batting  int `json:"batting"`
	Bowling  int `json:"bowling"`
	Fielding int `json:"fielding"`
	Fitness  int `json:"fitness"`

	// Batting sub-attributes
	Power     int `json:"power"`
	Technique int `json:"technique"`
	Running   int `json:"running"`

	// Bowling sub-attributes
	PaceOrSpin int `json:"pace_or_spin"`
	Accuracy   int `json:"accuracy"`
	Variation  int `json:"variation"`

	// Mental attributes
	Temperament int `json:"temperament"`
	Consistency int `json:"consistency"`

	Form          float64       `gorm:"default:1.0" json:"form"`
	Traits        TraitList     `gorm:"type:text" json:"traits"`
	BattingIntent BattingIntent `gorm:"default:accumulator" json:"batting_intent"`

	// Fine-grained DNA consumed by the match engine. BatterDNA is present
	// for everyone; BowlerDNA only for players who can bowl.
	BatterDNA datatypes.JSON `json:"batter_dna,omitempty"`
	BowlerDNA datatypes.JSON `json:"bowler_dna,omitempty"`

	// Auction
	BasePrice int64  `gorm:"default:2000000" json:"base_price"`
	SoldPrice *int64 `json:"sold_price,omitempty"`

	TeamID *uint `gorm:"index" json:"team_id,omitempty"`
	Team   *Team `gorm:"foreignKey:TeamID" json:"team,omitempty"`
}

func (Player) TableName() string {
	return "players"
}

// OverallRating derives the 1-100 rating from the coarse attributes,
// weighted by role.
func (p *Player) OverallRating() int {
	switch p.Role {
	case RoleBatsman:
		return int(float64(p.Batting)*0.7 + float64(p.Fielding)*0.2 + float64(p.Fitness)*0.1)
	case RoleBowler:
		return int(float64(p.Bowling)*0.7 + float64(p.Fielding)*0.2 + float64(p.Fitness)*0.1)
	case RoleAllRounder:
		return int(float64(p.Batting)*0.4 + float64(p.Bowling)*0.4 + float64(p.Fielding)*0.1 + float64(p.Fitness)*0.1)
	case RoleWicketKeeper:
		return int(float64(p.Batting)*0.5 + float64(p.Fielding)*0.4 + float64(p.Fitness)*0.1)
	}
	return 50
}

// CanBowl reports whether the player has a usable bowling type.
func (p *Player) CanBowl() bool {
	return p.BowlingType != BowlingNone && (p.Role == RoleBowler || p.Role == RoleAllRounder)
}
