package models

import "time"

type CareerStatus string

const (
	CareerSetup      CareerStatus = "setup"
	CareerPreAuction CareerStatus = "pre_auction"
	CareerAuction    CareerStatus = "auction"
	CareerPreSeason  CareerStatus = "pre_season"
	CareerInSeason   CareerStatus = "in_season"
	CareerPlayoffs   CareerStatus = "playoffs"
	CareerPostSeason CareerStatus = "post_season"
	CareerCompleted  CareerStatus = "completed"
)

type SeasonPhase string

const (
	SeasonNotStarted  SeasonPhase = "not_started"
	SeasonAuction     SeasonPhase = "auction"
	SeasonLeagueStage SeasonPhase = "league_stage"
	SeasonPlayoffs    SeasonPhase = "playoffs"
	SeasonCompleted   SeasonPhase = "completed"
)

// Career is a single playthrough. A career spans multiple seasons with the
// same eight teams.
type Career struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Status              CareerStatus `gorm:"default:setup" json:"status"`
	CurrentSeasonNumber int          `gorm:"default:1" json:"current_season_number"`

	UserTeamID *uint `json:"user_team_id,omitempty"`
	UserTeam   *Team `gorm:"foreignKey:UserTeamID" json:"user_team,omitempty"`

	Seasons []Season `gorm:"foreignKey:CareerID;constraint:OnDelete:CASCADE" json:"seasons,omitempty"`
	Teams   []Team   `gorm:"foreignKey:CareerID;constraint:OnDelete:CASCADE" json:"teams,omitempty"`
	Players []Player `gorm:"foreignKey:CareerID;constraint:OnDelete:CASCADE" json:"players,omitempty"`
}

func (Career) TableName() string {
	return "careers"
}

type Season struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	CareerID uint    `gorm:"index;not null" json:"career_id"`
	Career   *Career `gorm:"foreignKey:CareerID" json:"-"`

	SeasonNumber int         `gorm:"not null" json:"season_number"`
	Phase        SeasonPhase `gorm:"default:not_started" json:"phase"`

	AuctionCompleted bool `gorm:"default:false" json:"auction_completed"`

	CurrentMatchNumber int `gorm:"default:0" json:"current_match_number"`
	TotalLeagueMatches int `gorm:"default:56" json:"total_league_matches"`

	ChampionTeamID *uint `json:"champion_team_id,omitempty"`
	RunnerUpTeamID *uint `json:"runner_up_team_id,omitempty"`

	Fixtures []Fixture `gorm:"foreignKey:SeasonID;constraint:OnDelete:CASCADE" json:"fixtures,omitempty"`
}

func (Season) TableName() string {
	return "seasons"
}

type FixtureType string

const (
	FixtureLeague     FixtureType = "league"
	FixtureQualifier1 FixtureType = "qualifier_1"
	FixtureEliminator FixtureType = "eliminator"
	FixtureQualifier2 FixtureType = "qualifier_2"
	FixtureFinal      FixtureType = "final"
)

type FixtureStatus string

const (
	FixtureScheduled  FixtureStatus = "scheduled"
	FixtureInProgress FixtureStatus = "in_progress"
	FixtureCompleted  FixtureStatus = "completed"
	FixtureAbandoned  FixtureStatus = "abandoned"
)

// Fixture is a scheduled match in a season. Links to the Match record once
// played.
type Fixture struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SeasonID uint `gorm:"index;not null" json:"season_id"`

	MatchNumber int         `gorm:"not null" json:"match_number"`
	FixtureType FixtureType `gorm:"default:league" json:"fixture_type"`

	Team1ID uint  `gorm:"not null" json:"team1_id"`
	Team2ID uint  `gorm:"not null" json:"team2_id"`
	Team1   *Team `gorm:"foreignKey:Team1ID" json:"team1,omitempty"`
	Team2   *Team `gorm:"foreignKey:Team2ID" json:"team2,omitempty"`

	Venue string `json:"venue"`

	Status FixtureStatus `gorm:"default:scheduled" json:"status"`

	MatchID       *uint  `json:"match_id,omitempty"`
	WinnerID      *uint  `json:"winner_id,omitempty"`
	ResultSummary string `json:"result_summary,omitempty"`
}

func (Fixture) TableName() string {
	return "fixtures"
}

// TeamSeasonStats is the per-season standings row for a team, kept apart
// from Team so past seasons survive.
type TeamSeasonStats struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SeasonID uint `gorm:"index;not null" json:"season_id"`
	TeamID   uint `gorm:"index;not null" json:"team_id"`

	MatchesPlayed int `gorm:"default:0" json:"matches_played"`
	Wins          int `gorm:"default:0" json:"wins"`
	Losses        int `gorm:"default:0" json:"losses"`
	NoResults     int `gorm:"default:0" json:"no_results"`
	Points        int `gorm:"default:0" json:"points"`

	// Net run rate components
	RunsScored   int     `gorm:"default:0" json:"runs_scored"`
	OversFaced   float64 `gorm:"default:0" json:"overs_faced"`
	RunsConceded int     `gorm:"default:0" json:"runs_conceded"`
	OversBowled  float64 `gorm:"default:0" json:"overs_bowled"`
}

func (TeamSeasonStats) TableName() string {
	return "team_season_stats"
}

// NetRunRate computes (runs scored / overs faced) - (runs conceded / overs
// bowled). Zero when either denominator is zero.
func (s *TeamSeasonStats) NetRunRate() float64 {
	if s.OversFaced == 0 || s.OversBowled == 0 {
		return 0.0
	}
	return float64(s.RunsScored)/s.OversFaced - float64(s.RunsConceded)/s.OversBowled
}

// PlayerSeasonStats aggregates one player's season for one team.
type PlayerSeasonStats struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SeasonID uint `gorm:"index;not null" json:"season_id"`
	PlayerID uint `gorm:"index;not null" json:"player_id"`
	TeamID   uint `gorm:"not null" json:"team_id"`

	Player *Player `gorm:"foreignKey:PlayerID" json:"player,omitempty"`

	// Batting
	Matches      int `gorm:"default:0" json:"matches"`
	Runs         int `gorm:"default:0" json:"runs"`
	BallsFaced   int `gorm:"default:0" json:"balls_faced"`
	Fours        int `gorm:"default:0" json:"fours"`
	Sixes        int `gorm:"default:0" json:"sixes"`
	HighestScore int `gorm:"default:0" json:"highest_score"`
	NotOuts      int `gorm:"default:0" json:"not_outs"`

	// Bowling
	Wickets      int     `gorm:"default:0" json:"wickets"`
	OversBowled  float64 `gorm:"default:0" json:"overs_bowled"`
	RunsConceded int     `gorm:"default:0" json:"runs_conceded"`
	BestWickets  int     `gorm:"default:0" json:"best_wickets"`
	BestRuns     int     `gorm:"default:0" json:"best_runs"`

	// Fielding
	Catches   int `gorm:"default:0" json:"catches"`
	Stumpings int `gorm:"default:0" json:"stumpings"`
	RunOuts   int `gorm:"default:0" json:"run_outs"`
}

func (PlayerSeasonStats) TableName() string {
	return "player_season_stats"
}

// StrikeRate returns the season strike rate, 0 when no balls faced.
func (s *PlayerSeasonStats) StrikeRate() float64 {
	if s.BallsFaced == 0 {
		return 0.0
	}
	return float64(s.Runs) / float64(s.BallsFaced) * 100
}

// Economy returns the season economy rate, 0 when no overs bowled.
func (s *PlayerSeasonStats) Economy() float64 {
	if s.OversBowled == 0 {
		return 0.0
	}
	return float64(s.RunsConceded) / s.OversBowled
}
