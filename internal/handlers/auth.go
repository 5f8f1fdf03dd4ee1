// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/franchisehub/supply-backend/internal/services"
	"github.com/franchisehub/supply-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": "Registration successful",
		"user":    user,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	user, tokens, err := h.authService.Login(&req)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "refresh_token is required", nil)
		return
	}

	tokens, err := h.authService.RefreshToken(req.RefreshToken)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"tokens": tokens})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}

// PUT /auth/fcm-token
func (h *AuthHandler) UpdateFCMToken(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req services.UpdateFCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	if err := h.authService.UpdateFCMToken(userID, &req); err != nil {
		serviceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"message": "FCM token updated"})
}
