package auction

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

// bidIncrements maps a current-bid threshold to the increment that applies
// at and above it. The next legal bid uses the largest matching threshold.
var bidIncrements = []struct {
	Threshold int64
	Increment int64
}{
	{0, 500000},
	{10000000, 1000000},
	{50000000, 2500000},
	{100000000, 5000000},
	{150000000, 10000000},
}

// NextBidAmount returns current bid plus the applicable increment.
func NextBidAmount(currentBid int64) int64 {
	increment := bidIncrements[0].Increment
	for _, step := range bidIncrements {
		if currentBid >= step.Threshold {
			increment = step.Increment
		}
	}
	return currentBid + increment
}

// PlayerResult reports the fate of one finalized player.
type PlayerResult struct {
	PlayerID    uint         `json:"player_id"`
	PlayerName  string       `json:"player_name"`
	IsSold      bool         `json:"is_sold"`
	WinningTeam *models.Team `json:"winning_team,omitempty"`
	WinningBid  int64        `json:"winning_bid"`
	BidHistory  []BidRecord  `json:"bid_history"`
}

type BidRecord struct {
	TeamID   uint   `json:"team_id"`
	TeamName string `json:"team_name"`
	Amount   int64  `json:"amount"`
}

// AutoBidStatus is the outcome of an auto-bid competition.
type AutoBidStatus string

const (
	AutoBidWon         AutoBidStatus = "won"
	AutoBidLost        AutoBidStatus = "lost"
	AutoBidCapExceeded AutoBidStatus = "cap_exceeded"
	AutoBidBudgetLimit AutoBidStatus = "budget_limit"
)

// AutoBidResult reports an auto-bid competition. On CapExceeded or
// BudgetLimit the player is NOT finalized; CurrentBid and NextBidNeeded
// tell the user where bidding stands.
type AutoBidResult struct {
	Status        AutoBidStatus `json:"status"`
	CurrentBid    int64         `json:"current_bid"`
	NextBidNeeded int64         `json:"next_bid_needed,omitempty"`
	Result        *PlayerResult `json:"result,omitempty"`
}

type teamNeeds struct {
	batsmen      int
	bowlers      int
	allRounders  int
	wicketKeeper int
	overseasStar bool
	urgency      float64
}

// Engine drives one auction from initialization to completion. All
// randomness flows through the instance RNG.
type Engine struct {
	db      *gorm.DB
	log     *logrus.Logger
	rng     *rand.Rand
	auction *models.Auction
	states  map[uint]*models.TeamAuctionState
	teams   map[uint]*models.Team
}

func NewEngine(db *gorm.DB, log *logrus.Logger, rng *rand.Rand, auction *models.Auction) (*Engine, error) {
	e := &Engine{
		db:      db,
		log:     log,
		rng:     rng,
		auction: auction,
		states:  make(map[uint]*models.TeamAuctionState),
		teams:   make(map[uint]*models.Team),
	}
	if err := e.loadTeamStates(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) loadTeamStates() error {
	var states []models.TeamAuctionState
	if err := e.db.Where("auction_id = ?", e.auction.ID).Find(&states).Error; err != nil {
		return fmt.Errorf("failed to load team auction states: %w", err)
	}
	for i := range states {
		e.states[states[i].TeamID] = &states[i]
	}

	var teams []models.Team
	teamIDs := make([]uint, 0, len(states))
	for _, s := range states {
		teamIDs = append(teamIDs, s.TeamID)
	}
	if len(teamIDs) > 0 {
		if err := e.db.Where("id IN ?", teamIDs).Find(&teams).Error; err != nil {
			return fmt.Errorf("failed to load auction teams: %w", err)
		}
	}
	for i := range teams {
		e.teams[teams[i].ID] = &teams[i]
	}
	return nil
}

// Auction returns the engine's auction row.
func (e *Engine) Auction() *models.Auction {
	return e.auction
}

// TeamState returns the running auction state for a team.
func (e *Engine) TeamState(teamID uint) *models.TeamAuctionState {
	return e.states[teamID]
}

// Initialize materializes team states and the categorized player queue.
// Marquee players (OVR >= 80) come first; within a category entries order
// by descending base price then descending rating.
func (e *Engine) Initialize(teams []models.Team, players []*models.Player) error {
	for i := range teams {
		state := &models.TeamAuctionState{
			AuctionID:       e.auction.ID,
			TeamID:          teams[i].ID,
			RemainingBudget: teams[i].Budget,
		}
		if err := e.db.Create(state).Error; err != nil {
			return fmt.Errorf("failed to create team auction state: %w", err)
		}
		e.states[teams[i].ID] = state
		t := teams[i]
		e.teams[t.ID] = &t
	}

	categoryIndex := make(map[models.AuctionCategory]int, len(models.CategoryOrder))
	for i, c := range models.CategoryOrder {
		categoryIndex[c] = i
	}

	sorted := make([]*models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci := categoryIndex[models.CategoryForPlayer(sorted[i])]
		cj := categoryIndex[models.CategoryForPlayer(sorted[j])]
		if ci != cj {
			return ci < cj
		}
		if sorted[i].BasePrice != sorted[j].BasePrice {
			return sorted[i].BasePrice > sorted[j].BasePrice
		}
		return sorted[i].OverallRating() > sorted[j].OverallRating()
	})

	for order, p := range sorted {
		entry := &models.AuctionPlayerEntry{
			AuctionID:    e.auction.ID,
			PlayerID:     p.ID,
			AuctionOrder: order + 1,
			Status:       models.AuctionPlayerAvailable,
			Category:     models.CategoryForPlayer(p),
		}
		if err := e.db.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create auction entry: %w", err)
		}
	}

	e.auction.TotalPlayers = len(players)
	e.auction.Status = models.AuctionInProgress
	if len(sorted) > 0 {
		e.auction.CurrentCategory = models.CategoryForPlayer(sorted[0])
	}
	return e.db.Save(e.auction).Error
}

// NextPlayer returns the next Available entry in auction order, or nil when
// the queue is exhausted. categoryChanged flags a category boundary for UI
// cues.
func (e *Engine) NextPlayer() (entry *models.AuctionPlayerEntry, categoryChanged bool, err error) {
	var next models.AuctionPlayerEntry
	result := e.db.Preload("Player").
		Where("auction_id = ? AND status = ?", e.auction.ID, models.AuctionPlayerAvailable).
		Order("auction_order").
		First(&next)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, result.Error
	}
	categoryChanged = next.Category != e.auction.CurrentCategory
	return &next, categoryChanged, nil
}

// StartBidding opens bidding on an entry at the player's base price.
func (e *Engine) StartBidding(entry *models.AuctionPlayerEntry) error {
	entry.Status = models.AuctionPlayerInBidding
	if err := e.db.Save(entry).Error; err != nil {
		return err
	}

	e.auction.CurrentPlayerID = &entry.PlayerID
	e.auction.CurrentBid = entry.Player.BasePrice
	e.auction.CurrentBidderTeamID = nil
	e.auction.CurrentCategory = entry.Category
	return e.db.Save(e.auction).Error
}

func (e *Engine) analyzeNeeds(state *models.TeamAuctionState) teamNeeds {
	const (
		idealBatsmen = 5
		idealBowlers = 5
		idealAR      = 3
		idealWK      = 2
	)
	needs := teamNeeds{
		batsmen:      maxInt(0, idealBatsmen-state.Batsmen),
		bowlers:      maxInt(0, idealBowlers-state.Bowlers),
		allRounders:  maxInt(0, idealAR-state.AllRounders),
		wicketKeeper: maxInt(0, idealWK-state.WicketKeepers),
		overseasStar: state.OverseasPlayers < 4 && state.TotalPlayers < 10,
	}
	if n := state.MinPlayersNeeded(); n > 0 {
		needs.urgency = minFloat(1.0, float64(n)/10)
	} else {
		needs.urgency = 0.3
	}
	return needs
}

// valuation is how much a team privately values a player: base price scaled
// by quality, need, overseas depth and urgency, capped by affordability,
// with +-15% variance, floored at base price.
func (e *Engine) valuation(player *models.Player, state *models.TeamAuctionState) int64 {
	needs := e.analyzeNeeds(state)
	rating := player.OverallRating()

	quality := 0.8
	switch {
	case rating >= 85:
		quality = 3.0
	case rating >= 75:
		quality = 2.0
	case rating >= 65:
		quality = 1.5
	case rating >= 55:
		quality = 1.2
	}

	need := 1.0
	switch {
	case player.Role == models.RoleBatsman && needs.batsmen > 2:
		need = 1.5
	case player.Role == models.RoleBowler && needs.bowlers > 2:
		need = 1.5
	case player.Role == models.RoleAllRounder && needs.allRounders > 1:
		need = 1.8
	case player.Role == models.RoleWicketKeeper && needs.wicketKeeper > 0:
		need = 1.6
	}

	if player.IsOverseas && needs.overseasStar && rating >= 75 {
		need *= 1.3
	}

	urgency := 1.0 + needs.urgency*0.5

	value := int64(float64(player.BasePrice) * quality * need * urgency)
	if max := state.MaxBidPossible(); value > max {
		value = max
	}

	variance := 0.85 + e.rng.Float64()*0.30
	value = int64(float64(value) * variance)

	if value < player.BasePrice {
		value = player.BasePrice
	}
	return value
}

// hasAcuteNeed mirrors the composition shortfalls that bump bid probability.
func (e *Engine) hasAcuteNeed(player *models.Player, state *models.TeamAuctionState) bool {
	needs := e.analyzeNeeds(state)
	switch player.Role {
	case models.RoleBatsman:
		return needs.batsmen > 2
	case models.RoleBowler:
		return needs.bowlers > 2
	case models.RoleAllRounder:
		return needs.allRounders > 1
	case models.RoleWicketKeeper:
		return needs.wicketKeeper > 0
	}
	return false
}

// canAccommodate checks the hard squad and overseas limits.
func canAccommodate(state *models.TeamAuctionState, player *models.Player) bool {
	if state.TotalPlayers >= maxSquad(state) {
		return false
	}
	if player.IsOverseas && state.OverseasPlayers >= maxOverseas(state) {
		return false
	}
	return true
}

func maxSquad(*models.TeamAuctionState) int    { return 25 }
func maxOverseas(*models.TeamAuctionState) int { return 8 }

// shouldBid is the AI bid decision for one team at the next-bid amount,
// given a precomputed valuation.
func (e *Engine) shouldBid(state *models.TeamAuctionState, player *models.Player, currentBid, valuation int64) bool {
	if !canAccommodate(state, player) {
		return false
	}

	nextBid := NextBidAmount(currentBid)
	if nextBid > state.MaxBidPossible() {
		return false
	}
	if nextBid > valuation {
		return false
	}

	priceRatio := float64(nextBid) / float64(valuation)
	bidProbability := 1.0 - priceRatio*0.8
	if bidProbability < 0.1 {
		bidProbability = 0.1
	}
	if e.hasAcuteNeed(player, state) {
		bidProbability = minFloat(1.0, bidProbability+0.3)
	}
	return e.rng.Float64() < bidProbability
}

// interestedAITeams returns, shuffled, the AI teams willing to raise. The
// user team is skipped unless includeUserTeam; excludeTeamID (if nonzero)
// is never considered and its valuation is never computed.
func (e *Engine) interestedAITeams(player *models.Player, currentBid int64, currentBidderID *uint, includeUserTeam bool, excludeTeamID uint) []uint {
	var interested []uint

	teamIDs := make([]uint, 0, len(e.states))
	for id := range e.states {
		teamIDs = append(teamIDs, id)
	}
	sort.Slice(teamIDs, func(i, j int) bool { return teamIDs[i] < teamIDs[j] })

	for _, teamID := range teamIDs {
		if currentBidderID != nil && teamID == *currentBidderID {
			continue
		}
		if teamID == excludeTeamID {
			continue
		}
		if !includeUserTeam {
			if t, ok := e.teams[teamID]; ok && t.IsUserTeam {
				continue
			}
		}
		state := e.states[teamID]
		if e.shouldBid(state, player, currentBid, e.valuation(player, state)) {
			interested = append(interested, teamID)
		}
	}

	e.rng.Shuffle(len(interested), func(i, j int) {
		interested[i], interested[j] = interested[j], interested[i]
	})
	return interested
}

// PlaceBid records a bid and advances the auction's current bid. Invalid
// bids return false with no mutation.
func (e *Engine) PlaceBid(teamID uint, playerID uint, amount int64) (bool, error) {
	state, ok := e.states[teamID]
	if !ok {
		return false, nil
	}
	if amount > state.MaxBidPossible() {
		return false, nil
	}
	if amount <= e.auction.CurrentBid {
		return false, nil
	}

	bid := &models.AuctionBid{
		AuctionID: e.auction.ID,
		PlayerID:  playerID,
		TeamID:    teamID,
		BidAmount: amount,
		BidTime:   time.Now().UTC(),
	}
	if err := e.db.Create(bid).Error; err != nil {
		return false, err
	}

	e.auction.CurrentBid = amount
	e.auction.CurrentBidderTeamID = &teamID
	if err := e.db.Save(e.auction).Error; err != nil {
		return false, err
	}
	return true, nil
}

// PlaceUserBid validates and places the user's bid at the next increment.
func (e *Engine) PlaceUserBid(userTeamID uint, player *models.Player) (int64, error) {
	state, ok := e.states[userTeamID]
	if !ok {
		return 0, utils.NewAppError(utils.ErrCodeNotFound, "user team has no auction state")
	}
	if e.auction.CurrentBidderTeamID != nil && *e.auction.CurrentBidderTeamID == userTeamID {
		return 0, utils.NewAppError(utils.ErrCodeInvalidState, "you are already the highest bidder")
	}
	if state.TotalPlayers >= maxSquad(state) {
		return 0, utils.NewAppError(utils.ErrCodeCapacity, "squad is full")
	}
	if player.IsOverseas && state.OverseasPlayers >= maxOverseas(state) {
		return 0, utils.NewAppError(utils.ErrCodeCapacity, "overseas player limit reached")
	}

	nextBid := NextBidAmount(e.auction.CurrentBid)
	if nextBid > state.MaxBidPossible() {
		return 0, utils.NewAppError(utils.ErrCodeAffordability, "bid exceeds your maximum possible bid")
	}

	placed, err := e.PlaceBid(userTeamID, player.ID, nextBid)
	if err != nil {
		return 0, err
	}
	if !placed {
		return 0, utils.NewAppError(utils.ErrCodeAffordability, "bid could not be placed")
	}
	return nextBid, nil
}

// RunBiddingRound lets at most one interested team raise by the increment.
// Returns the (possibly unchanged) bid and the bidder, nil if all passed.
func (e *Engine) RunBiddingRound(entry *models.AuctionPlayerEntry, autoMode bool, excludeTeamID uint) (int64, *uint, error) {
	player := entry.Player
	currentBid := e.auction.CurrentBid

	bidders := e.interestedAITeams(player, currentBid, e.auction.CurrentBidderTeamID, autoMode, excludeTeamID)
	if len(bidders) == 0 {
		return currentBid, nil, nil
	}

	bidderID := bidders[0]
	nextBid := NextBidAmount(currentBid)
	placed, err := e.PlaceBid(bidderID, player.ID, nextBid)
	if err != nil {
		return currentBid, nil, err
	}
	if !placed {
		return currentBid, nil, nil
	}
	return nextBid, &bidderID, nil
}

const maxBiddingRounds = 100

// RunCompetitiveAIBidding auctions the current player among AI teams only,
// excluding excludeTeamID entirely (used when the user skips). Two
// consecutive rounds with no bid end the player; finalization follows.
func (e *Engine) RunCompetitiveAIBidding(entry *models.AuctionPlayerEntry, excludeTeamID uint) (*PlayerResult, error) {
	consecutivePasses := 0
	for round := 0; round < maxBiddingRounds; round++ {
		_, bidder, err := e.RunBiddingRound(entry, true, excludeTeamID)
		if err != nil {
			return nil, err
		}
		if bidder == nil {
			consecutivePasses++
			if consecutivePasses >= 2 {
				break
			}
		} else {
			consecutivePasses = 0
		}
	}
	return e.FinalizePlayer(entry)
}

// RunAutoBidCompetition bids for the user up to cap while AI teams respond.
// Returns without finalizing when the cap or the user's budget reserve is
// breached, so the user can resume manually.
func (e *Engine) RunAutoBidCompetition(entry *models.AuctionPlayerEntry, userTeamID uint, cap int64) (*AutoBidResult, error) {
	player := entry.Player
	state, ok := e.states[userTeamID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeNotFound, "user team has no auction state")
	}

	consecutivePasses := 0
	for round := 0; round < maxBiddingRounds; round++ {
		userIsHighest := e.auction.CurrentBidderTeamID != nil && *e.auction.CurrentBidderTeamID == userTeamID

		if !userIsHighest {
			nextBid := NextBidAmount(e.auction.CurrentBid)
			if nextBid > cap {
				return &AutoBidResult{
					Status:        AutoBidCapExceeded,
					CurrentBid:    e.auction.CurrentBid,
					NextBidNeeded: nextBid,
				}, nil
			}
			if nextBid > state.MaxBidPossible() {
				return &AutoBidResult{
					Status:        AutoBidBudgetLimit,
					CurrentBid:    e.auction.CurrentBid,
					NextBidNeeded: nextBid,
				}, nil
			}
			if canAccommodate(state, player) {
				if _, err := e.PlaceBid(userTeamID, player.ID, nextBid); err != nil {
					return nil, err
				}
			}
		}

		_, bidder, err := e.RunBiddingRound(entry, false, 0)
		if err != nil {
			return nil, err
		}
		if bidder == nil {
			consecutivePasses++
			if consecutivePasses >= 2 {
				break
			}
		} else {
			consecutivePasses = 0
		}
	}

	result, err := e.FinalizePlayer(entry)
	if err != nil {
		return nil, err
	}
	status := AutoBidLost
	if result.IsSold && result.WinningTeam != nil && result.WinningTeam.ID == userTeamID {
		status = AutoBidWon
	}
	return &AutoBidResult{
		Status:     status,
		CurrentBid: result.WinningBid,
		Result:     result,
	}, nil
}

// FinalizePlayer closes bidding: Sold to the current bidder with all
// counters advanced, or Unsold. Re-finalizing is an invalid-state error.
func (e *Engine) FinalizePlayer(entry *models.AuctionPlayerEntry) (*PlayerResult, error) {
	if entry.Status == models.AuctionPlayerSold || entry.Status == models.AuctionPlayerUnsold {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "player has already been finalized")
	}

	player := entry.Player
	result := &PlayerResult{PlayerID: player.ID, PlayerName: player.Name}

	if e.auction.CurrentBidderTeamID != nil {
		winnerID := *e.auction.CurrentBidderTeamID
		winningBid := e.auction.CurrentBid

		entry.Status = models.AuctionPlayerSold
		entry.SoldToTeamID = &winnerID
		entry.SoldPrice = &winningBid

		player.TeamID = &winnerID
		player.SoldPrice = &winningBid
		if err := e.db.Save(player).Error; err != nil {
			return nil, err
		}

		state := e.states[winnerID]
		state.RemainingBudget -= winningBid
		state.TotalPlayers++
		if player.IsOverseas {
			state.OverseasPlayers++
		}
		switch player.Role {
		case models.RoleBatsman:
			state.Batsmen++
		case models.RoleBowler:
			state.Bowlers++
		case models.RoleAllRounder:
			state.AllRounders++
		case models.RoleWicketKeeper:
			state.WicketKeepers++
		}
		if err := e.db.Save(state).Error; err != nil {
			return nil, err
		}

		if team, ok := e.teams[winnerID]; ok {
			team.RemainingBudget -= winningBid
			if err := e.db.Save(team).Error; err != nil {
				return nil, err
			}
			result.WinningTeam = team
		}

		// Mark the winning bid atomically with the Sold transition
		if err := e.db.Model(&models.AuctionBid{}).
			Where("auction_id = ? AND player_id = ? AND team_id = ? AND bid_amount = ?",
				e.auction.ID, player.ID, winnerID, winningBid).
			Update("is_winning_bid", true).Error; err != nil {
			return nil, err
		}

		e.auction.PlayersSold++
		result.IsSold = true
		result.WinningBid = winningBid
	} else {
		entry.Status = models.AuctionPlayerUnsold
		e.auction.PlayersUnsold++
	}

	if err := e.db.Save(entry).Error; err != nil {
		return nil, err
	}

	e.auction.CurrentPlayerID = nil
	e.auction.CurrentBid = 0
	e.auction.CurrentBidderTeamID = nil
	if err := e.db.Save(e.auction).Error; err != nil {
		return nil, err
	}

	var bids []models.AuctionBid
	if err := e.db.Where("auction_id = ? AND player_id = ?", e.auction.ID, player.ID).
		Order("bid_time, id").Find(&bids).Error; err != nil {
		return nil, err
	}
	for _, b := range bids {
		name := "?"
		if t, ok := e.teams[b.TeamID]; ok {
			name = t.ShortName
		}
		result.BidHistory = append(result.BidHistory, BidRecord{TeamID: b.TeamID, TeamName: name, Amount: b.BidAmount})
	}

	e.log.WithFields(logrus.Fields{
		"player": player.Name,
		"sold":   result.IsSold,
		"price":  result.WinningBid,
	}).Debug("Auction player finalized")

	return result, nil
}

// SkipCategory auctions every remaining player in a category among AI
// teams only. The user's team never bids and never wins.
func (e *Engine) SkipCategory(category models.AuctionCategory, userTeamID uint) ([]*PlayerResult, error) {
	var results []*PlayerResult
	for {
		var next models.AuctionPlayerEntry
		err := e.db.Preload("Player").
			Where("auction_id = ? AND status = ? AND category = ?",
				e.auction.ID, models.AuctionPlayerAvailable, category).
			Order("auction_order").
			First(&next).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, err
		}

		if err := e.StartBidding(&next); err != nil {
			return nil, err
		}
		result, err := e.RunCompetitiveAIBidding(&next, userTeamID)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// IsComplete reports whether no entries remain available.
func (e *Engine) IsComplete() (bool, error) {
	var remaining int64
	err := e.db.Model(&models.AuctionPlayerEntry{}).
		Where("auction_id = ? AND status = ?", e.auction.ID, models.AuctionPlayerAvailable).
		Count(&remaining).Error
	if err != nil {
		return false, err
	}
	return remaining == 0, nil
}

// Complete marks the auction finished.
func (e *Engine) Complete() error {
	e.auction.Status = models.AuctionCompleted
	return e.db.Save(e.auction).Error
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
