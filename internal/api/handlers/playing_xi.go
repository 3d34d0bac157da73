package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/internal/season"
	"github.com/rsumit123/willow-leather-api/internal/services"
	"github.com/rsumit123/willow-leather-api/internal/validators"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

type PlayingXIHandler struct {
	db    *database.DB
	cfg   *config.Config
	log   *logrus.Logger
	locks *services.CareerLocks
}

func NewPlayingXIHandler(db *database.DB, cfg *config.Config, log *logrus.Logger, locks *services.CareerLocks) *PlayingXIHandler {
	return &PlayingXIHandler{db: db, cfg: cfg, log: log, locks: locks}
}

// GetPlayingXI returns the user team's saved eleven in batting order. Falls
// back to an auto-selected eleven when none has been saved.
func (h *PlayingXIHandler) GetPlayingXI(c *gin.Context) {
	career, seasonRow, ok := h.resolve(c)
	if !ok {
		return
	}

	var rows []models.PlayingXI
	err := h.db.Preload("Player").
		Where("team_id = ? AND season_id = ?", *career.UserTeamID, seasonRow.ID).
		Order("position").
		Find(&rows).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to load playing eleven")
		return
	}

	if len(rows) == 11 {
		players := make([]*models.Player, 0, 11)
		for i := range rows {
			players = append(players, rows[i].Player)
		}
		utils.SendSuccess(c, gin.H{
			"players":    players,
			"saved":      true,
			"validation": validators.ValidatePlayingXI(players),
		})
		return
	}

	var squad []*models.Player
	if err := h.db.Where("team_id = ?", *career.UserTeamID).Find(&squad).Error; err != nil {
		utils.SendInternalError(c, "Failed to load squad")
		return
	}
	auto := season.SelectPlayingXI(squad)
	utils.SendSuccess(c, gin.H{
		"players":    auto,
		"saved":      false,
		"validation": validators.ValidatePlayingXI(auto),
	})
}

// SetPlayingXI validates and saves the user team's eleven, replacing any
// previous selection. Order of ids is the batting order.
func (h *PlayingXIHandler) SetPlayingXI(c *gin.Context) {
	career, seasonRow, ok := h.resolve(c)
	if !ok {
		return
	}

	var req struct {
		PlayerIDs []uint `json:"player_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid eleven payload", err.Error())
		return
	}

	var validation *validators.XIValidation
	err := h.locks.WithLock(career.ID, func() error {
		var players []*models.Player
		err := h.db.Where("id IN ? AND team_id = ?", req.PlayerIDs, *career.UserTeamID).
			Find(&players).Error
		if err != nil {
			return err
		}
		if len(players) != len(req.PlayerIDs) {
			return utils.NewAppError(utils.ErrCodeValidation, "every player must belong to your squad")
		}

		// Restore the submitted batting order; the query loses it.
		byID := make(map[uint]*models.Player, len(players))
		for _, p := range players {
			byID[p.ID] = p
		}
		ordered := make([]*models.Player, 0, len(req.PlayerIDs))
		for _, id := range req.PlayerIDs {
			ordered = append(ordered, byID[id])
		}

		v := validators.ValidatePlayingXI(ordered)
		validation = &v
		if !v.Valid {
			return utils.NewAppError(utils.ErrCodeValidation, "playing eleven is not valid", v.Errors...)
		}

		return h.db.Transaction(func(tx *gorm.DB) error {
			err := tx.Where("team_id = ? AND season_id = ?", *career.UserTeamID, seasonRow.ID).
				Delete(&models.PlayingXI{}).Error
			if err != nil {
				return err
			}
			for i, id := range req.PlayerIDs {
				row := models.PlayingXI{
					TeamID:   *career.UserTeamID,
					SeasonID: seasonRow.ID,
					PlayerID: id,
					Position: i + 1,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		sendEngineError(c, err)
		return
	}

	utils.SendSuccess(c, gin.H{
		"saved":      true,
		"validation": validation,
	})
}

// ValidateXI dry-runs an eleven without saving it.
func (h *PlayingXIHandler) ValidateXI(c *gin.Context) {
	career, _, ok := h.resolve(c)
	if !ok {
		return
	}

	var req struct {
		PlayerIDs []uint `json:"player_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid eleven payload", err.Error())
		return
	}

	var players []*models.Player
	err := h.db.Where("id IN ? AND team_id = ?", req.PlayerIDs, *career.UserTeamID).
		Find(&players).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to load players")
		return
	}

	utils.SendSuccess(c, validators.ValidatePlayingXI(players))
}

// resolve loads the career and season and requires a user team.
func (h *PlayingXIHandler) resolve(c *gin.Context) (*models.Career, *models.Season, bool) {
	careerHandler := &CareerHandler{db: h.db, cfg: h.cfg, log: h.log}
	career, ok := careerHandler.loadCareer(c)
	if !ok {
		return nil, nil, false
	}
	if career.UserTeamID == nil {
		utils.SendInvalidState(c, "Career has no user team")
		return nil, nil, false
	}
	seasonRow, err := careerHandler.currentSeason(career.ID)
	if err != nil || seasonRow == nil {
		utils.SendNotFound(c, "Season not found")
		return nil, nil, false
	}
	return career, seasonRow, true
}
