package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-bot/internal/service"
)

// AuthHandler выдаёт токены доступа к ops API.
type AuthHandler struct {
	auth *service.OpsAuthService
}

// NewAuthHandler создаёт новый хэндлер авторизации.
func NewAuthHandler(auth *service.OpsAuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "пароль обязателен"})
		return
	}

	token, err := h.auth.Login(req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}
