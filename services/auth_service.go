package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"lendingdesk/config"
	"lendingdesk/models"
	"lendingdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	refreshTokenBytes = 64
	resetTokenBytes   = 32
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,password"`
}

// Session - выданная пара токенов
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // секунды до истечения access-токена
	User         models.User
}

// AuthService выдает и отзывает сессии, управляет сбросом пароля.
// Refresh- и reset-токены хранятся только в виде HMAC-хеша.
type AuthService struct {
	db          *gorm.DB
	mailer      Mailer
	validator   *validator.Validate
	jwtSecret   string
	tokenSecret string
	accessTTL   time.Duration
	refreshTTL  time.Duration
	resetTTL    time.Duration
	frontendURL string
	now         func() time.Time
}

func NewAuthService(db *gorm.DB, cfg *config.Config, mailer Mailer) *AuthService {
	return &AuthService{
		db:          db,
		mailer:      mailer,
		validator:   utils.NewValidator(),
		jwtSecret:   cfg.JWT.SecretKey,
		tokenSecret: cfg.Auth.TokenSecret,
		accessTTL:   cfg.JWT.AccessTTL,
		refreshTTL:  cfg.JWT.RefreshTTL,
		resetTTL:    cfg.Auth.ResetTTL,
		frontendURL: cfg.Frontend.URL,
		now:         time.Now,
	}
}

var (
	dummyHash     string
	dummyHashOnce sync.Once
)

// equalizeTiming выполняет bcrypt-сравнение для несуществующего пользователя
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("dummy-password-for-timing")
	})
	utils.VerifyPassword(password, dummyHash)
}

// Login проверяет email и пароль и выдает новую сессию; прежние refresh-токены пользователя удаляются
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	start := time.Now()
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		equalizeTiming(in.Password)
		utils.LogOperation("login", start, errors.New("unknown email"))
		return nil, NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, NewInternal("failed to load user", err)
	}

	if !utils.VerifyPassword(in.Password, user.PasswordHash) {
		utils.LogOperation("login", start, errors.New("wrong password"))
		utils.Logger.Warn().Str("user_id", user.ID.String()).Msg("login rejected")
		return nil, NewUnauthorized("invalid credentials")
	}

	var session *Session
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = s.issue(tx, user)
		return err
	})
	utils.LogOperation("login", start, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return session, nil
}

// Refresh обменивает refresh-токен на новую пару. Токен удаляется условным DELETE,
// поэтому повторное (в том числе конкурентное) использование невозможно.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*Session, error) {
	start := time.Now()
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, NewUnauthorized("invalid refresh token")
	}

	var session *Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var consumed []models.RefreshToken
		res := tx.Clauses(clause.Returning{}).
			Where("token_hash = ? AND revoked_at IS NULL AND expires_at > ?", utils.HashToken(rawToken, s.tokenSecret), s.now()).
			Delete(&consumed)
		if res.Error != nil {
			return NewInternal("failed to consume refresh token", res.Error)
		}
		if res.RowsAffected != 1 || len(consumed) != 1 {
			return NewUnauthorized("invalid refresh token")
		}

		var user models.User
		if err := tx.First(&user, "id = ?", consumed[0].UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewUnauthorized("invalid refresh token")
			}
			return NewInternal("failed to load user", err)
		}

		var err error
		session, err = s.issue(tx, user)
		return err
	})
	utils.LogOperation("token_refresh", start, err)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Logout удаляет указанный refresh-токен пользователя, а без токена - все его токены
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, rawToken string) error {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if rawToken = strings.TrimSpace(rawToken); rawToken != "" {
		query = query.Where("token_hash = ?", utils.HashToken(rawToken, s.tokenSecret))
	}

	if err := query.Delete(&models.RefreshToken{}).Error; err != nil {
		return NewInternal("failed to revoke refresh tokens", err)
	}
	utils.Logger.Info().Str("user_id", userID.String()).Bool("all_sessions", rawToken == "").Msg("user logged out")
	return nil
}

// ForgotPassword создает токен сброса и отправляет ссылку. Для неизвестного email ответ тот же.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	start := time.Now()
	if err := s.validator.Struct(in); err != nil {
		return NewValidationErrorFrom(err)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.LogDebug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return NewInternal("failed to load user", err)
	}

	rawToken, err := utils.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return NewInternal("failed to generate reset token", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// прежние неиспользованные токены больше недействительны
		if err := tx.Where("user_id = ? AND used_at IS NULL", user.ID).Delete(&models.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			TokenHash: utils.HashToken(rawToken, s.tokenSecret),
			ExpiresAt: s.now().Add(s.resetTTL),
		}).Error
	})
	utils.LogOperation("password_reset_request", start, err)
	if err != nil {
		return NewInternal("failed to store reset token", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(user.Email, user.Name, s.resetLink(rawToken)); err != nil {
			utils.Logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send password reset email")
		}
	}
	return nil
}

// ResetPassword погашает токен сброса и меняет пароль; все сессии пользователя отзываются
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	start := time.Now()
	if err := s.validator.Struct(in); err != nil {
		return NewValidationErrorFrom(err)
	}

	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return NewInternal("failed to hash password", err)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var token models.PasswordResetToken
		res := tx.Model(&token).
			Clauses(clause.Returning{}).
			Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", utils.HashToken(strings.TrimSpace(in.Token), s.tokenSecret), now).
			Update("used_at", now)
		if res.Error != nil {
			return NewInternal("failed to redeem reset token", res.Error)
		}
		if res.RowsAffected != 1 {
			return NewValidationError("invalid or expired reset token",
				utils.FieldError{Field: "token", Message: "is invalid or expired"})
		}

		if err := tx.Model(&models.User{}).Where("id = ?", token.UserID).Update("password_hash", hashedPassword).Error; err != nil {
			return NewInternal("failed to update password", err)
		}
		if err := tx.Where("user_id = ?", token.UserID).Delete(&models.RefreshToken{}).Error; err != nil {
			return NewInternal("failed to revoke sessions", err)
		}
		return nil
	})
	utils.LogOperation("password_reset", start, err)
	return err
}

// ChangePassword меняет пароль после проверки текущего и отзывает все сессии
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, in ChangePasswordInput) error {
	if err := s.validator.Struct(in); err != nil {
		return NewValidationErrorFrom(err)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("user not found")
		}
		return NewInternal("failed to load user", err)
	}
	if !utils.VerifyPassword(in.CurrentPassword, user.PasswordHash) {
		return NewValidationError("current password is incorrect",
			utils.FieldError{Field: "currentPassword", Message: "is incorrect"})
	}
	if in.CurrentPassword == in.NewPassword {
		return NewValidationError("validation failed",
			utils.FieldError{Field: "newPassword", Message: "must differ from the current password"})
	}

	hashedPassword, err := utils.HashPassword(in.NewPassword)
	if err != nil {
		return NewInternal("failed to hash password", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password_hash", hashedPassword).Error; err != nil {
			return NewInternal("failed to update password", err)
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return NewInternal("failed to revoke sessions", err)
		}
		return nil
	})
}

// issue выдает access-токен и единственный активный refresh-токен пользователя
func (s *AuthService) issue(tx *gorm.DB, user models.User) (*Session, error) {
	accessToken, expiresAt, err := utils.GenerateAccessToken(utils.AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     string(user.Role),
		TenantID: user.TenantID,
	}, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, NewInternal("failed to sign access token", err)
	}

	rawRefresh, err := utils.GenerateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, NewInternal("failed to generate refresh token", err)
	}

	if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
		return nil, NewInternal("failed to revoke previous refresh tokens", err)
	}
	err = tx.Create(&models.RefreshToken{
		UserID:    user.ID,
		TokenHash: utils.HashToken(rawRefresh, s.tokenSecret),
		ExpiresAt: s.now().Add(s.refreshTTL),
	}).Error
	if err != nil {
		return nil, NewInternal("failed to store refresh token", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(time.Until(expiresAt).Round(time.Second) / time.Second),
		User:         user,
	}, nil
}

func (s *AuthService) resetLink(rawToken string) string {
	return strings.TrimRight(s.frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(rawToken)
}
