package models

import (
	"fmt"
	"time"
)

func formatOvers(overs, balls int) string {
	return fmt.Sprintf("%d.%d", overs, balls)
}

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchAbandoned  MatchStatus = "abandoned"
)

type InningsStatus string

const (
	InningsNotStarted InningsStatus = "not_started"
	InningsInProgress InningsStatus = "in_progress"
	InningsCompleted  InningsStatus = "completed"
)

type DismissalType string

const (
	DismissalNotOut       DismissalType = "not_out"
	DismissalBowled       DismissalType = "bowled"
	DismissalCaught       DismissalType = "caught"
	DismissalLBW          DismissalType = "lbw"
	DismissalRunOut       DismissalType = "run_out"
	DismissalStumped      DismissalType = "stumped"
	DismissalHitWicket    DismissalType = "hit_wicket"
	DismissalCaughtBehind DismissalType = "caught_behind"
)

// Match is the durable record of a played fixture. Live ball-by-ball detail
// exists only in the session cache; these rows are the post-hoc record.
type Match struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Team1ID uint  `gorm:"not null" json:"team1_id"`
	Team2ID uint  `gorm:"not null" json:"team2_id"`
	Team1   *Team `gorm:"foreignKey:Team1ID" json:"team1,omitempty"`
	Team2   *Team `gorm:"foreignKey:Team2ID" json:"team2,omitempty"`

	TossWinnerID *uint  `json:"toss_winner_id,omitempty"`
	TossDecision string `json:"toss_decision,omitempty"` // "bat" or "bowl"

	Venue       string    `json:"venue"`
	MatchDate   time.Time `json:"match_date"`
	MatchNumber int       `json:"match_number"`

	Status MatchStatus `gorm:"default:scheduled" json:"status"`

	WinnerID      *uint  `json:"winner_id,omitempty"`
	ResultSummary string `json:"result_summary,omitempty"`
	ManOfTheMatch *uint  `json:"man_of_the_match_id,omitempty"`

	Innings []Innings `gorm:"foreignKey:MatchID;constraint:OnDelete:CASCADE" json:"innings,omitempty"`
}

func (Match) TableName() string {
	return "matches"
}

type Innings struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	MatchID uint `gorm:"index;not null" json:"match_id"`

	BattingTeamID uint `gorm:"not null" json:"batting_team_id"`
	BowlingTeamID uint `gorm:"not null" json:"bowling_team_id"`

	InningsNumber int `gorm:"not null" json:"innings_number"` // 1 or 2

	TotalRuns          int `gorm:"default:0" json:"total_runs"`
	Wickets            int `gorm:"default:0" json:"wickets"`
	OversCompleted     int `gorm:"default:0" json:"overs_completed"`
	BallsInCurrentOver int `gorm:"default:0" json:"balls_in_current_over"`
	Extras             int `gorm:"default:0" json:"extras"`

	Target *int `json:"target,omitempty"`

	Status InningsStatus `gorm:"default:not_started" json:"status"`

	BallEvents []BallEvent `gorm:"foreignKey:InningsID;constraint:OnDelete:CASCADE" json:"ball_events,omitempty"`
}

func (Innings) TableName() string {
	return "innings"
}

// OversDisplay formats the score as "O.B".
func (i *Innings) OversDisplay() string {
	return formatOvers(i.OversCompleted, i.BallsInCurrentOver)
}

// RunRate returns runs per over so far, 0 before the first ball.
func (i *Innings) RunRate() float64 {
	totalBalls := i.OversCompleted*6 + i.BallsInCurrentOver
	if totalBalls == 0 {
		return 0.0
	}
	return float64(i.TotalRuns) / float64(totalBalls) * 6
}

type BallEvent struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InningsID uint `gorm:"index;not null" json:"innings_id"`

	OverNumber int `gorm:"not null" json:"over_number"`
	BallNumber int `gorm:"not null" json:"ball_number"` // 1-6, legal deliveries

	BatterID uint `gorm:"not null" json:"batter_id"`
	BowlerID uint `gorm:"not null" json:"bowler_id"`

	RunsScored int  `gorm:"default:0" json:"runs_scored"`
	IsBoundary bool `gorm:"default:false" json:"is_boundary"`
	IsSix      bool `gorm:"default:false" json:"is_six"`

	IsWide    bool `gorm:"default:false" json:"is_wide"`
	IsNoBall  bool `gorm:"default:false" json:"is_no_ball"`
	ExtraRuns int  `gorm:"default:0" json:"extra_runs"`

	IsWicket          bool          `gorm:"default:false" json:"is_wicket"`
	DismissalType     DismissalType `json:"dismissal_type,omitempty"`
	DismissedPlayerID *uint         `json:"dismissed_player_id,omitempty"`
	FielderID         *uint         `json:"fielder_id,omitempty"`

	Commentary string `json:"commentary,omitempty"`
}

func (BallEvent) TableName() string {
	return "ball_events"
}
