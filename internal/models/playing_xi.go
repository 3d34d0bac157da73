package models

// PlayingXI is one slot of a team's selected eleven for a season.
// Position is the 1-11 batting order.
type PlayingXI struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	TeamID   uint `gorm:"index:idx_xi_team_season;not null" json:"team_id"`
	SeasonID uint `gorm:"index:idx_xi_team_season;not null" json:"season_id"`
	PlayerID uint `gorm:"not null" json:"player_id"`
	Position int  `gorm:"not null" json:"position"`

	Player *Player `gorm:"foreignKey:PlayerID" json:"player,omitempty"`
}

func (PlayingXI) TableName() string {
	return "playing_xi"
}
