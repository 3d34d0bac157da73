package handlers

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rsumit123/willow-leather-api/internal/api/middleware"
	"github.com/rsumit123/willow-leather-api/internal/generators"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

type CareerHandler struct {
	db  *database.DB
	cfg *config.Config
	log *logrus.Logger
}

func NewCareerHandler(db *database.DB, cfg *config.Config, log *logrus.Logger) *CareerHandler {
	return &CareerHandler{db: db, cfg: cfg, log: log}
}

// TeamChoices lists the eight franchises for the new-career screen.
func (h *CareerHandler) TeamChoices(c *gin.Context) {
	utils.SendSuccess(c, generators.TeamChoices())
}

// CreateCareer starts a new playthrough: career row, eight teams, the
// 230-player auction pool, season one and its auction shell.
func (h *CareerHandler) CreateCareer(c *gin.Context) {
	userID := middleware.UserID(c)

	var req struct {
		Name      string `json:"name" binding:"required"`
		TeamIndex int    `json:"team_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid career payload", err.Error())
		return
	}
	if req.TeamIndex < 0 || req.TeamIndex >= len(generators.Franchises) {
		utils.SendValidationError(c, "Team index must be 0-7")
		return
	}

	var count int64
	if err := h.db.Model(&models.Career{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		utils.SendInternalError(c, "Failed to count careers")
		return
	}
	if count >= int64(h.cfg.MaxCareersPerUser) {
		utils.SendCapacityExceeded(c, "Career limit reached, delete an old career first")
		return
	}

	career := models.Career{
		UserID: userID,
		Name:   req.Name,
		Status: models.CareerPreAuction,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&career).Error; err != nil {
			return err
		}

		teams := generators.CreateTeams(career.ID, req.TeamIndex)
		for i := range teams {
			if err := tx.Create(&teams[i]).Error; err != nil {
				return err
			}
			if teams[i].IsUserTeam {
				career.UserTeamID = &teams[i].ID
			}
		}

		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		pool := generators.NewPlayerGenerator(rng).GeneratePool(career.ID)
		for _, p := range pool {
			if err := tx.Create(p).Error; err != nil {
				return err
			}
		}

		season := models.Season{
			CareerID:     career.ID,
			SeasonNumber: 1,
			Phase:        models.SeasonNotStarted,
		}
		if err := tx.Create(&season).Error; err != nil {
			return err
		}

		auction := models.Auction{
			SeasonID:     season.ID,
			Status:       models.AuctionNotStarted,
			SalaryCap:    h.cfg.TeamBudget,
			MinSquadSize: h.cfg.MinSquadSize,
			MaxSquadSize: h.cfg.MaxSquadSize,
			MaxOverseas:  h.cfg.MaxOverseas,
		}
		if err := tx.Create(&auction).Error; err != nil {
			return err
		}

		return tx.Save(&career).Error
	})
	if err != nil {
		utils.SendInternalError(c, "Failed to create career")
		return
	}

	h.log.WithFields(logrus.Fields{"career_id": career.ID, "user_id": userID}).Info("Career created")

	var full models.Career
	if err := h.db.Preload("UserTeam").First(&full, career.ID).Error; err != nil {
		utils.SendInternalError(c, "Failed to load career")
		return
	}
	utils.SendSuccess(c, full)
}

// ListCareers returns the user's careers, most recently played first.
func (h *CareerHandler) ListCareers(c *gin.Context) {
	userID := middleware.UserID(c)

	var careers []models.Career
	err := h.db.Preload("UserTeam").
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&careers).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to list careers")
		return
	}
	utils.SendSuccess(c, careers)
}

// GetCareer returns a career with its user team and current season.
func (h *CareerHandler) GetCareer(c *gin.Context) {
	career, ok := h.loadCareer(c)
	if !ok {
		return
	}

	season, err := h.currentSeason(career.ID)
	if err != nil {
		utils.SendInternalError(c, "Failed to load season")
		return
	}

	utils.SendSuccess(c, gin.H{
		"career":         career,
		"current_season": season,
	})
}

// DeleteCareer removes a career and everything under it.
func (h *CareerHandler) DeleteCareer(c *gin.Context) {
	career, ok := h.loadCareer(c)
	if !ok {
		return
	}

	if err := h.db.Select("Seasons", "Teams", "Players").Delete(career).Error; err != nil {
		utils.SendInternalError(c, "Failed to delete career")
		return
	}
	utils.SendSuccess(c, gin.H{"deleted": true})
}

// GetSquad returns a team's owned players.
func (h *CareerHandler) GetSquad(c *gin.Context) {
	teamID, err := strconv.ParseUint(c.Param("teamId"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid team ID", err.Error())
		return
	}

	var team models.Team
	if err := h.db.Preload("Players").First(&team, teamID).Error; err != nil {
		utils.SendNotFound(c, "Team not found")
		return
	}

	utils.SendSuccess(c, gin.H{
		"team":     team,
		"players":  team.Players,
		"squad":    team.SquadSize(),
		"overseas": team.OverseasCount(),
	})
}

// ListTeams returns all eight teams of a career.
func (h *CareerHandler) ListTeams(c *gin.Context) {
	career, ok := h.loadCareer(c)
	if !ok {
		return
	}

	var teams []models.Team
	if err := h.db.Where("career_id = ?", career.ID).Order("id").Find(&teams).Error; err != nil {
		utils.SendInternalError(c, "Failed to list teams")
		return
	}
	utils.SendSuccess(c, teams)
}

// loadCareer fetches the career in the path, enforcing ownership.
func (h *CareerHandler) loadCareer(c *gin.Context) (*models.Career, bool) {
	careerID, err := strconv.ParseUint(c.Param("careerId"), 10, 32)
	if err != nil {
		utils.SendValidationError(c, "Invalid career ID", err.Error())
		return nil, false
	}

	var career models.Career
	if err := h.db.Preload("UserTeam").First(&career, careerID).Error; err != nil {
		utils.SendNotFound(c, "Career not found")
		return nil, false
	}
	if career.UserID != middleware.UserID(c) {
		utils.SendForbidden(c, "Career belongs to another user")
		return nil, false
	}
	return &career, true
}

// currentSeason returns the career's latest season.
func (h *CareerHandler) currentSeason(careerID uint) (*models.Season, error) {
	var season models.Season
	err := h.db.Where("career_id = ?", careerID).
		Order("season_number desc").
		First(&season).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &season, nil
}
