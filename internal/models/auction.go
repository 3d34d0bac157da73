package models

import "time"

type AuctionStatus string

const (
	AuctionNotStarted AuctionStatus = "not_started"
	AuctionInProgress AuctionStatus = "in_progress"
	AuctionPaused     AuctionStatus = "paused"
	AuctionCompleted  AuctionStatus = "completed"
)

type AuctionPlayerStatus string

const (
	AuctionPlayerAvailable AuctionPlayerStatus = "available"
	AuctionPlayerInBidding AuctionPlayerStatus = "in_bidding"
	AuctionPlayerSold      AuctionPlayerStatus = "sold"
	AuctionPlayerUnsold    AuctionPlayerStatus = "unsold"
)

type AuctionCategory string

const (
	CategoryMarquee       AuctionCategory = "marquee" // OVR >= 80
	CategoryBatsmen       AuctionCategory = "batsmen"
	CategoryBowlers       AuctionCategory = "bowlers"
	CategoryAllRounders   AuctionCategory = "all_rounders"
	CategoryWicketKeepers AuctionCategory = "wicket_keepers"
)

// CategoryOrder is the auction sequence of categories.
var CategoryOrder = []AuctionCategory{
	CategoryMarquee,
	CategoryBatsmen,
	CategoryBowlers,
	CategoryAllRounders,
	CategoryWicketKeepers,
}

// Auction is the bidding event for a season.
type Auction struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	SeasonID uint `gorm:"index;not null" json:"season_id"`

	Status AuctionStatus `gorm:"default:not_started" json:"status"`

	// Current bidding state
	CurrentPlayerID     *uint `json:"current_player_id,omitempty"`
	CurrentBid          int64 `gorm:"default:0" json:"current_bid"`
	CurrentBidderTeamID *uint `json:"current_bidder_team_id,omitempty"`

	// Rules
	SalaryCap    int64 `gorm:"default:900000000" json:"salary_cap"`
	MinSquadSize int   `gorm:"default:18" json:"min_squad_size"`
	MaxSquadSize int   `gorm:"default:25" json:"max_squad_size"`
	MaxOverseas  int   `gorm:"default:8" json:"max_overseas"`

	// Progress
	PlayersSold   int `gorm:"default:0" json:"players_sold"`
	PlayersUnsold int `gorm:"default:0" json:"players_unsold"`
	TotalPlayers  int `gorm:"default:0" json:"total_players"`

	CurrentCategory AuctionCategory `json:"current_category,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	PlayerEntries []AuctionPlayerEntry `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE" json:"player_entries,omitempty"`
	Bids          []AuctionBid         `gorm:"foreignKey:AuctionID;constraint:OnDelete:CASCADE" json:"bids,omitempty"`
}

func (Auction) TableName() string {
	return "auctions"
}

// AuctionPlayerEntry tracks one player's position and fate in the auction
// queue.
type AuctionPlayerEntry struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AuctionID uint `gorm:"index;not null" json:"auction_id"`

	PlayerID uint    `gorm:"not null" json:"player_id"`
	Player   *Player `gorm:"foreignKey:PlayerID" json:"player,omitempty"`

	// Lower order comes up earlier
	AuctionOrder int `gorm:"index;not null" json:"auction_order"`

	Status   AuctionPlayerStatus `gorm:"default:available" json:"status"`
	Category AuctionCategory     `json:"category"`

	SoldToTeamID *uint  `json:"sold_to_team_id,omitempty"`
	SoldPrice    *int64 `json:"sold_price,omitempty"`
}

func (AuctionPlayerEntry) TableName() string {
	return "auction_player_entries"
}

type AuctionBid struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AuctionID uint `gorm:"index;not null" json:"auction_id"`

	PlayerID uint `gorm:"not null" json:"player_id"`
	TeamID   uint `gorm:"not null" json:"team_id"`

	BidAmount int64     `gorm:"not null" json:"bid_amount"`
	BidTime   time.Time `json:"bid_time"`

	IsWinningBid bool `gorm:"default:false" json:"is_winning_bid"`
}

func (AuctionBid) TableName() string {
	return "auction_bids"
}

// TeamAuctionState carries a team's running budget and composition counters
// through the auction.
type TeamAuctionState struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AuctionID uint `gorm:"index;not null" json:"auction_id"`
	TeamID    uint `gorm:"index;not null" json:"team_id"`

	RemainingBudget int64 `gorm:"not null" json:"remaining_budget"`

	TotalPlayers    int `gorm:"default:0" json:"total_players"`
	OverseasPlayers int `gorm:"default:0" json:"overseas_players"`
	Batsmen         int `gorm:"default:0" json:"batsmen"`
	Bowlers         int `gorm:"default:0" json:"bowlers"`
	AllRounders     int `gorm:"default:0" json:"all_rounders"`
	WicketKeepers   int `gorm:"default:0" json:"wicket_keepers"`
}

func (TeamAuctionState) TableName() string {
	return "team_auction_states"
}

const (
	maxSquadSize     = 25
	minSquadSize     = 18
	maxOverseasSlots = 8
	slotReservePrice = 20000000 // 2 crore reserved per unfilled mandatory slot
)

func (s *TeamAuctionState) SlotsRemaining() int {
	return maxSquadSize - s.TotalPlayers
}

func (s *TeamAuctionState) OverseasSlotsRemaining() int {
	return maxOverseasSlots - s.OverseasPlayers
}

func (s *TeamAuctionState) MinPlayersNeeded() int {
	if n := minSquadSize - s.TotalPlayers; n > 0 {
		return n
	}
	return 0
}

// MaxBidPossible is the most the team can bid while still able to fill the
// minimum squad at reserve price. Never negative.
func (s *TeamAuctionState) MaxBidPossible() int64 {
	reserved := int64(s.MinPlayersNeeded()-1) * slotReservePrice
	if reserved < 0 {
		reserved = 0
	}
	if max := s.RemainingBudget - reserved; max > 0 {
		return max
	}
	return 0
}

// RoleCount returns the composition counter for a role.
func (s *TeamAuctionState) RoleCount(role PlayerRole) int {
	switch role {
	case RoleBatsman:
		return s.Batsmen
	case RoleBowler:
		return s.Bowlers
	case RoleAllRounder:
		return s.AllRounders
	case RoleWicketKeeper:
		return s.WicketKeepers
	}
	return 0
}

// CategoryForPlayer maps a player to its auction category. Marquee trumps
// role.
func CategoryForPlayer(p *Player) AuctionCategory {
	if p.OverallRating() >= 80 {
		return CategoryMarquee
	}
	switch p.Role {
	case RoleBatsman:
		return CategoryBatsmen
	case RoleBowler:
		return CategoryBowlers
	case RoleAllRounder:
		return CategoryAllRounders
	case RoleWicketKeeper:
		return CategoryWicketKeepers
	}
	return CategoryBatsmen
}
