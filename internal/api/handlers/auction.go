package handlers

import (
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rsumit123/willow-leather-api/internal/auction"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/internal/services"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

type AuctionHandler struct {
	db    *database.DB
	cfg   *config.Config
	log   *logrus.Logger
	locks *services.CareerLocks
	cache *services.CacheService
}

func NewAuctionHandler(db *database.DB, cfg *config.Config, log *logrus.Logger, locks *services.CareerLocks, cache *services.CacheService) *AuctionHandler {
	return &AuctionHandler{db: db, cfg: cfg, log: log, locks: locks, cache: cache}
}

// auctionContext is everything an auction operation needs resolved.
type auctionContext struct {
	career  *models.Career
	season  *models.Season
	auction *models.Auction
	engine  *auction.Engine
}

// loadContext resolves career -> season -> auction and builds the engine.
func (h *AuctionHandler) loadContext(c *gin.Context) (*auctionContext, bool) {
	careerHandler := &CareerHandler{db: h.db, cfg: h.cfg, log: h.log}
	career, ok := careerHandler.loadCareer(c)
	if !ok {
		return nil, false
	}

	season, err := careerHandler.currentSeason(career.ID)
	if err != nil || season == nil {
		utils.SendNotFound(c, "Season not found")
		return nil, false
	}

	var auctionRow models.Auction
	if err := h.db.Where("season_id = ?", season.ID).First(&auctionRow).Error; err != nil {
		utils.SendNotFound(c, "Auction not found")
		return nil, false
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine, err := auction.NewEngine(h.db.DB, h.log, rng, &auctionRow)
	if err != nil {
		utils.SendInternalError(c, "Failed to build auction engine")
		return nil, false
	}

	return &auctionContext{
		career:  career,
		season:  season,
		auction: &auctionRow,
		engine:  engine,
	}, true
}

// currentEntry returns the entry currently in bidding.
func (h *AuctionHandler) currentEntry(ctx *auctionContext) (*models.AuctionPlayerEntry, error) {
	if ctx.auction.CurrentPlayerID == nil {
		return nil, utils.NewAppError(utils.ErrCodeInvalidState, "no player is currently in bidding")
	}
	var entry models.AuctionPlayerEntry
	err := h.db.Preload("Player").
		Where("auction_id = ? AND player_id = ? AND status = ?",
			ctx.auction.ID, *ctx.auction.CurrentPlayerID, models.AuctionPlayerInBidding).
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.NewAppError(utils.ErrCodeInvalidState, "no player is currently in bidding")
		}
		return nil, err
	}
	return &entry, nil
}

// sendEngineError maps an auction AppError onto the right HTTP status.
func sendEngineError(c *gin.Context, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		switch appErr.Code {
		case utils.ErrCodeInvalidState:
			utils.SendError(c, 409, appErr)
		case utils.ErrCodeCapacity:
			utils.SendError(c, 422, appErr)
		case utils.ErrCodeAffordability:
			utils.SendError(c, 422, appErr)
		case utils.ErrCodeNotFound:
			utils.SendError(c, 404, appErr)
		default:
			utils.SendError(c, 400, appErr)
		}
		return
	}
	utils.SendInternalError(c, "Auction operation failed")
}

// StartAuction initializes the auction with all unsold pool players.
func (h *AuctionHandler) StartAuction(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	err := h.locks.WithLock(ctx.career.ID, func() error {
		if ctx.auction.Status != models.AuctionNotStarted {
			return utils.NewAppError(utils.ErrCodeInvalidState, "auction has already started")
		}

		var teams []models.Team
		if err := h.db.Where("career_id = ?", ctx.career.ID).Find(&teams).Error; err != nil {
			return err
		}
		var players []*models.Player
		if err := h.db.Where("career_id = ? AND team_id IS NULL", ctx.career.ID).Find(&players).Error; err != nil {
			return err
		}

		if err := ctx.engine.Initialize(teams, players); err != nil {
			return err
		}

		ctx.season.Phase = models.SeasonAuction
		if err := h.db.Save(ctx.season).Error; err != nil {
			return err
		}
		ctx.career.Status = models.CareerAuction
		return h.db.Save(ctx.career).Error
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"players_in_pool": ctx.auction.TotalPlayers,
		"status":          ctx.auction.Status,
	})
}

// GetState returns the auction's live bidding state.
func (h *AuctionHandler) GetState(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var currentPlayer *models.Player
	if ctx.auction.CurrentPlayerID != nil {
		var p models.Player
		if err := h.db.First(&p, *ctx.auction.CurrentPlayerID).Error; err == nil {
			currentPlayer = &p
		}
	}

	var bidder *models.Team
	if ctx.auction.CurrentBidderTeamID != nil {
		var t models.Team
		if err := h.db.First(&t, *ctx.auction.CurrentBidderTeamID).Error; err == nil {
			bidder = &t
		}
	}

	utils.SendSuccess(c, gin.H{
		"status":           ctx.auction.Status,
		"current_player":   currentPlayer,
		"current_bid":      ctx.auction.CurrentBid,
		"current_bidder":   bidder,
		"current_category": ctx.auction.CurrentCategory,
		"players_sold":     ctx.auction.PlayersSold,
		"players_unsold":   ctx.auction.PlayersUnsold,
		"total_players":    ctx.auction.TotalPlayers,
	})
}

// NextPlayer advances the queue, opening bidding on the next available
// player. When the queue is exhausted the auction completes and the career
// moves to pre-season.
func (h *AuctionHandler) NextPlayer(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var response gin.H
	err := h.locks.WithLock(ctx.career.ID, func() error {
		if ctx.auction.Status != models.AuctionInProgress {
			return utils.NewAppError(utils.ErrCodeInvalidState, "auction is not in progress")
		}

		entry, categoryChanged, err := ctx.engine.NextPlayer()
		if err != nil {
			return err
		}
		if entry == nil {
			if err := h.finishAuction(ctx); err != nil {
				return err
			}
			response = gin.H{"auction_finished": true}
			return nil
		}

		if err := ctx.engine.StartBidding(entry); err != nil {
			return err
		}
		response = gin.H{
			"auction_finished": false,
			"player":           entry.Player,
			"starting_bid":     entry.Player.BasePrice,
			"category":         entry.Category,
			"category_changed": categoryChanged,
		}
		return nil
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, response)
}

// finishAuction completes the auction and advances career state.
func (h *AuctionHandler) finishAuction(ctx *auctionContext) error {
	if err := ctx.engine.Complete(); err != nil {
		return err
	}
	ctx.season.AuctionCompleted = true
	if err := h.db.Save(ctx.season).Error; err != nil {
		return err
	}
	ctx.career.Status = models.CareerPreSeason
	if err := h.db.Save(ctx.career).Error; err != nil {
		return err
	}
	h.log.WithField("career_id", ctx.career.ID).Info("Auction completed")
	return nil
}

// PlaceBid places the user's bid at the next increment.
func (h *AuctionHandler) PlaceBid(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}
	if ctx.career.UserTeamID == nil {
		utils.SendInvalidState(c, "Career has no user team")
		return
	}

	var newBid int64
	err := h.locks.WithLock(ctx.career.ID, func() error {
		entry, err := h.currentEntry(ctx)
		if err != nil {
			return err
		}
		newBid, err = ctx.engine.PlaceUserBid(*ctx.career.UserTeamID, entry.Player)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"new_bid": newBid,
		"bidder":  *ctx.career.UserTeamID,
	})
}

// SimulateBiddingRound lets at most one AI team respond to the current bid.
func (h *AuctionHandler) SimulateBiddingRound(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var response gin.H
	err := h.locks.WithLock(ctx.career.ID, func() error {
		entry, err := h.currentEntry(ctx)
		if err != nil {
			return err
		}
		newBid, bidder, err := ctx.engine.RunBiddingRound(entry, false, 0)
		if err != nil {
			return err
		}
		response = gin.H{
			"bid_placed": bidder != nil,
			"new_bid":    newBid,
			"bidder":     bidder,
		}
		return nil
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, response)
}

// FinalizePlayer closes bidding on the current player.
func (h *AuctionHandler) FinalizePlayer(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var result *auction.PlayerResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		entry, err := h.currentEntry(ctx)
		if err != nil {
			return err
		}
		result, err = ctx.engine.FinalizePlayer(entry)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, result)
}

// QuickPass auctions the current player among AI teams only; the user's
// team never bids.
func (h *AuctionHandler) QuickPass(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}
	if ctx.career.UserTeamID == nil {
		utils.SendInvalidState(c, "Career has no user team")
		return
	}

	var result *auction.PlayerResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		entry, err := h.currentEntry(ctx)
		if err != nil {
			return err
		}
		result, err = ctx.engine.RunCompetitiveAIBidding(entry, *ctx.career.UserTeamID)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, result)
}

// SkipCategory auctions every remaining player of a category AI-only.
func (h *AuctionHandler) SkipCategory(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}
	if ctx.career.UserTeamID == nil {
		utils.SendInvalidState(c, "Career has no user team")
		return
	}

	var req struct {
		Category models.AuctionCategory `json:"category" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid skip payload", err.Error())
		return
	}

	valid := false
	for _, cat := range models.CategoryOrder {
		if cat == req.Category {
			valid = true
			break
		}
	}
	if !valid {
		utils.SendValidationError(c, "Unknown auction category")
		return
	}

	var results []*auction.PlayerResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		var err error
		results, err = ctx.engine.SkipCategory(req.Category, *ctx.career.UserTeamID)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, results)
}

// AutoBid bids for the user up to a cap while AI teams respond.
func (h *AuctionHandler) AutoBid(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}
	if ctx.career.UserTeamID == nil {
		utils.SendInvalidState(c, "Career has no user team")
		return
	}

	var req struct {
		Cap int64 `json:"cap" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid auto-bid payload", err.Error())
		return
	}

	var result *auction.AutoBidResult
	err := h.locks.WithLock(ctx.career.ID, func() error {
		entry, err := h.currentEntry(ctx)
		if err != nil {
			return err
		}
		result, err = ctx.engine.RunAutoBidCompetition(entry, *ctx.career.UserTeamID, req.Cap)
		return err
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}
	utils.SendSuccess(c, result)
}

// AutoComplete runs the rest of the auction with every team, including the
// user's, bidding by AI valuation.
func (h *AuctionHandler) AutoComplete(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var sold, unsold int
	err := h.locks.WithLock(ctx.career.ID, func() error {
		if ctx.auction.Status != models.AuctionInProgress {
			return utils.NewAppError(utils.ErrCodeInvalidState, "auction is not in progress")
		}

		// Finalize any player already mid-bidding before draining the queue
		if entry, err := h.currentEntry(ctx); err == nil {
			result, err := ctx.engine.RunCompetitiveAIBidding(entry, 0)
			if err != nil {
				return err
			}
			if result.IsSold {
				sold++
			} else {
				unsold++
			}
		}

		for {
			entry, _, err := ctx.engine.NextPlayer()
			if err != nil {
				return err
			}
			if entry == nil {
				break
			}
			if err := ctx.engine.StartBidding(entry); err != nil {
				return err
			}
			result, err := ctx.engine.RunCompetitiveAIBidding(entry, 0)
			if err != nil {
				return err
			}
			if result.IsSold {
				sold++
			} else {
				unsold++
			}
		}
		return h.finishAuction(ctx)
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"auction_finished": true,
		"players_sold":     ctx.auction.PlayersSold,
		"players_unsold":   ctx.auction.PlayersUnsold,
		"finalized_now":    sold + unsold,
	})
}

// TeamStates returns every team's running auction counters.
func (h *AuctionHandler) TeamStates(c *gin.Context) {
	ctx, ok := h.loadContext(c)
	if !ok {
		return
	}

	var states []models.TeamAuctionState
	if err := h.db.Where("auction_id = ?", ctx.auction.ID).Order("team_id").Find(&states).Error; err != nil {
		utils.SendInternalError(c, "Failed to load team states")
		return
	}
	utils.SendSuccess(c, states)
}
