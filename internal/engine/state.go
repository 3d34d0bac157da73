package engine

import (
	"fmt"

	"github.com/rsumit123/willow-leather-api/internal/models"
)

// BallOutcome is the result of a single delivery.
type BallOutcome struct {
	Runs           int    `json:"runs"`
	IsWicket       bool   `json:"is_wicket"`
	IsWide         bool   `json:"is_wide"`
	IsNoBall       bool   `json:"is_no_ball"`
	IsBoundary     bool   `json:"is_boundary"`
	IsSix          bool   `json:"is_six"`
	DismissalType  string `json:"dismissal_type,omitempty"`
	Commentary     string `json:"commentary"`
	ContactQuality string `json:"contact_quality,omitempty"`
	DeliveryName   string `json:"delivery_name,omitempty"`
}

// IsLegal reports whether the delivery counts toward the over.
func (o *BallOutcome) IsLegal() bool {
	return !o.IsWide && !o.IsNoBall
}

// BallRecord pins an outcome to its position and participants, for the
// post-hoc persisted record.
type BallRecord struct {
	OverNumber int
	BallNumber int
	BatterID   uint
	BowlerID   uint
	Outcome    *BallOutcome
}

// BatterInnings tracks one batter's knock.
type BatterInnings struct {
	Player    *models.Player `json:"-"`
	Runs      int            `json:"runs"`
	Balls     int            `json:"balls"`
	Fours     int            `json:"fours"`
	Sixes     int            `json:"sixes"`
	IsOut     bool           `json:"is_out"`
	Dismissal string         `json:"dismissal,omitempty"`
	Bowler    *models.Player `json:"-"`
}

// StrikeRate returns runs per 100 balls, 0 before the first ball.
func (b *BatterInnings) StrikeRate() float64 {
	if b.Balls == 0 {
		return 0.0
	}
	return float64(b.Runs) / float64(b.Balls) * 100
}

// BowlerSpell tracks one bowler's figures.
type BowlerSpell struct {
	Player  *models.Player `json:"-"`
	Overs   int            `json:"overs"`
	Balls   int            `json:"balls"`
	Runs    int            `json:"runs"`
	Wickets int            `json:"wickets"`
	Wides   int            `json:"wides"`
	NoBalls int            `json:"no_balls"`
}

func (s *BowlerSpell) OversDisplay() string {
	return fmt.Sprintf("%d.%d", s.Overs, s.Balls)
}

// Economy returns runs per over, 0 before the first ball.
func (s *BowlerSpell) Economy() float64 {
	totalBalls := s.Overs*6 + s.Balls
	if totalBalls == 0 {
		return 0.0
	}
	return float64(s.Runs) / float64(totalBalls) * 6
}

// BatterState carries status effects across balls.
type BatterState struct {
	PlayerID       uint
	BallsFaced     int
	IsSettled      bool
	IsOnFire       bool
	recentOutcomes []string
}

// BowlerState carries status effects across overs.
type BowlerState struct {
	PlayerID         uint
	ConsecutiveOvers int
	IsTired          bool
	HasConfidence    bool
}

// InningsState is the complete live state of one innings. It lives only in
// the match session cache and is never persisted directly.
type InningsState struct {
	BattingTeam []*models.Player
	BowlingTeam []*models.Player

	TotalRuns int
	Wickets   int
	Overs     int
	Balls     int
	Extras    int
	Target    *int

	BatterRecords map[uint]*BatterInnings
	BowlerSpells  map[uint]*BowlerSpell

	StrikerID       uint
	NonStrikerID    uint
	CurrentBowlerID uint
	LastBowlerID    uint

	BattingOrder    []uint
	NextBatterIndex int

	BatterStates map[uint]*BatterState
	BowlerStates map[uint]*BowlerState
	ThisOver     []*BallOutcome
	BallLog      []BallRecord

	Pitch            PitchDNA
	IsSecondInnings  bool
	BallsFaced       map[uint]int
	BowlerOversCount map[uint]int
	PartnershipRuns  int

	BattingTeamID uint
	BowlingTeamID uint
}

func (s *InningsState) OversDisplay() string {
	return fmt.Sprintf("%d.%d", s.Overs, s.Balls)
}

// RunRate returns runs per over so far, 0 before the first legal ball.
func (s *InningsState) RunRate() float64 {
	totalBalls := s.Overs*6 + s.Balls
	if totalBalls == 0 {
		return 0.0
	}
	return float64(s.TotalRuns) / float64(totalBalls) * 6
}

// RequiredRate returns the asking rate when chasing, nil otherwise.
// Returns 99.99 with no balls left.
func (s *InningsState) RequiredRate() *float64 {
	if s.Target == nil {
		return nil
	}
	remaining := *s.Target - s.TotalRuns
	ballsLeft := 20*6 - (s.Overs*6 + s.Balls)
	var rate float64
	if ballsLeft <= 0 {
		rate = 99.99
	} else {
		rate = float64(remaining) / float64(ballsLeft) * 6
	}
	return &rate
}

// IsComplete reports whether the innings has ended: all out, 20 overs done,
// or target chased.
func (s *InningsState) IsComplete() bool {
	if s.Wickets >= 10 {
		return true
	}
	if s.Overs >= 20 {
		return true
	}
	if s.Target != nil && s.TotalRuns >= *s.Target {
		return true
	}
	return false
}

// Striker returns the current striker, nil if unset.
func (s *InningsState) Striker() *models.Player {
	return s.playerByID(s.BattingTeam, s.StrikerID)
}

// NonStriker returns the current non-striker, nil if unset.
func (s *InningsState) NonStriker() *models.Player {
	return s.playerByID(s.BattingTeam, s.NonStrikerID)
}

// CurrentBowler returns the bowler mid-over, nil between overs.
func (s *InningsState) CurrentBowler() *models.Player {
	return s.playerByID(s.BowlingTeam, s.CurrentBowlerID)
}

func (s *InningsState) playerByID(team []*models.Player, id uint) *models.Player {
	if id == 0 {
		return nil
	}
	for _, p := range team {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *InningsState) swapStrike() {
	s.StrikerID, s.NonStrikerID = s.NonStrikerID, s.StrikerID
}
