package models

type Team struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CareerID   *uint  `gorm:"index" json:"career_id,omitempty"`
	Name       string `gorm:"not null" json:"name"`
	ShortName  string `gorm:"not null" json:"short_name"`
	City       string `json:"city"`
	HomeGround string `json:"home_ground"`

	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`

	// Finances, integer paise
	Budget          int64 `gorm:"default:900000000" json:"budget"`
	RemainingBudget int64 `gorm:"default:900000000" json:"remaining_budget"`

	// Current-season snapshot, duplicated from TeamSeasonStats for quick reads
	MatchesPlayed int     `gorm:"default:0" json:"matches_played"`
	Wins          int     `gorm:"default:0" json:"wins"`
	Losses        int     `gorm:"default:0" json:"losses"`
	NoResults     int     `gorm:"default:0" json:"no_results"`
	Points        int     `gorm:"default:0" json:"points"`
	NetRunRate    float64 `gorm:"default:0" json:"net_run_rate"`

	IsUserTeam bool `gorm:"default:false" json:"is_user_team"`

	Players []Player `gorm:"foreignKey:TeamID" json:"players,omitempty"`
}

func (Team) TableName() string {
	return "teams"
}

// SquadSize counts players currently owned. Requires Players preloaded.
func (t *Team) SquadSize() int {
	return len(t.Players)
}

// OverseasCount counts overseas players owned. Requires Players preloaded.
func (t *Team) OverseasCount() int {
	n := 0
	for _, p := range t.Players {
		if p.IsOverseas {
			n++
		}
	}
	return n
}
