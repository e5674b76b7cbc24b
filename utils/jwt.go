package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims - содержимое access-токена
type AccessClaims struct {
	UserID   uuid.UUID
	Email    string
	Role     string
	TenantID *uuid.UUID
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tid,omitempty"`
}

// GenerateAccessToken подписывает короткоживущий access-токен (HS256)
func GenerateAccessToken(claims AccessClaims, secret string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: claims.Email,
		Role:  claims.Role,
	}
	if claims.TenantID != nil {
		tc.TenantID = claims.TenantID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("GenerateAccessToken: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken проверяет подпись и срок действия access-токена
func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("ParseAccessToken: %w", err)
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errors.New("ParseAccessToken: invalid token claims")
	}

	userID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("ParseAccessToken: invalid subject: %w", err)
	}

	claims := &AccessClaims{UserID: userID, Email: tc.Email, Role: tc.Role}
	if tc.TenantID != "" {
		tenantID, err := uuid.Parse(tc.TenantID)
		if err != nil {
			return nil, fmt.Errorf("ParseAccessToken: invalid tenant: %w", err)
		}
		claims.TenantID = &tenantID
	}
	return claims, nil
}
