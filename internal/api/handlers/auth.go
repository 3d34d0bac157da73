package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/rsumit123/willow-leather-api/internal/api/middleware"
	"github.com/rsumit123/willow-leather-api/internal/models"
	"github.com/rsumit123/willow-leather-api/pkg/config"
	"github.com/rsumit123/willow-leather-api/pkg/database"
	"github.com/rsumit123/willow-leather-api/pkg/utils"
)

type AuthHandler struct {
	db  *database.DB
	cfg *config.Config
}

func NewAuthHandler(db *database.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

// GoogleLogin upserts the user from a verified Google identity and issues a
// session JWT. Google ID-token verification happens at the edge; this
// endpoint trusts its already-validated payload.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		GoogleID  string `json:"google_id" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Name      string `json:"name" binding:"required"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid login payload", err.Error())
		return
	}

	var user models.User
	err := h.db.Where("google_id = ?", req.GoogleID).First(&user).Error
	if err != nil {
		user = models.User{
			GoogleID:  req.GoogleID,
			Email:     req.Email,
			Name:      req.Name,
			AvatarURL: req.AvatarURL,
		}
		if err := h.db.Create(&user).Error; err != nil {
			utils.SendInternalError(c, "Failed to create user")
			return
		}
	}

	token, err := middleware.GenerateToken(user.ID, user.Email, h.cfg.JWTSecret)
	if err != nil {
		utils.SendInternalError(c, "Failed to issue token")
		return
	}

	utils.SendSuccess(c, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		utils.SendNotFound(c, "User not found")
		return
	}
	utils.SendSuccess(c, user)
}
