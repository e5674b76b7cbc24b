package controllers

import (
	"context"
	"net/http"

	"lendingdesk/middleware"
	"lendingdesk/models"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type authService interface {
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	Refresh(ctx context.Context, rawToken string) (*services.Session, error)
	Logout(ctx context.Context, userID uuid.UUID, rawToken string) error
	ForgotPassword(ctx context.Context, in services.ForgotPasswordInput) error
	ResetPassword(ctx context.Context, in services.ResetPasswordInput) error
	ChangePassword(ctx context.Context, userID uuid.UUID, in services.ChangePasswordInput) error
}

type profileService interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthController обрабатывает вход, обновление сессии и сброс пароля
type AuthController struct {
	auth  authService
	users profileService
}

func NewAuthController(auth authService, users profileService) *AuthController {
	return &AuthController{auth: auth, users: users}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func sessionResponse(session *services.Session) gin.H {
	return gin.H{
		"success":      true,
		"token":        session.AccessToken,
		"refreshToken": session.RefreshToken,
		"expiresIn":    session.ExpiresIn,
		"user":         session.User,
	}
}

// Login обрабатывает POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var in services.LoginInput
	if !bindJSON(c, &in) {
		return
	}

	session, err := ac.auth.Login(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Refresh обрабатывает POST /auth/refresh
func (ac *AuthController) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ac.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// Logout обрабатывает POST /auth/logout. Ошибка отзыва не мешает клиенту завершить сессию.
func (ac *AuthController) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, services.NewUnauthorized("authentication required"))
		return
	}

	var req refreshRequest
	// тело необязательно
	_ = c.ShouldBindJSON(&req)

	if err := ac.auth.Logout(c.Request.Context(), claims.UserID, req.RefreshToken); err != nil {
		utils.Logger.Warn().Err(err).Str("user_id", claims.UserID.String()).Msg("logout failed")
	}
	c.Status(http.StatusNoContent)
}

// ForgotPassword обрабатывает POST /auth/forgot-password; ответ не зависит от существования email
func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var in services.ForgotPasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := ac.auth.ForgotPassword(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "if the email is registered, a reset link has been sent",
	})
}

// ResetPassword обрабатывает POST /auth/reset-password
func (ac *AuthController) ResetPassword(c *gin.Context) {
	var in services.ResetPasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := ac.auth.ResetPassword(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me обрабатывает GET /auth/me
func (ac *AuthController) Me(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	user, err := ac.users.Profile(c.Request.Context(), rc.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// ChangePassword обрабатывает PUT /auth/password
func (ac *AuthController) ChangePassword(c *gin.Context) {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		respondError(c, services.NewUnauthorized("authentication required"))
		return
	}

	var in services.ChangePasswordInput
	if !bindJSON(c, &in) {
		return
	}

	if err := ac.auth.ChangePassword(c.Request.Context(), claims.UserID, in); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
