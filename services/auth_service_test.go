package services

import (
	"testing"
	"time"

	"lendingdesk/config"

	"github.com/stretchr/testify/assert"
)

func testAuthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-jwt-secret"
	cfg.JWT.AccessTTL = 15 * time.Minute
	cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	cfg.Auth.TokenSecret = "test-token-secret"
	cfg.Auth.ResetTTL = time.Hour
	cfg.Frontend.URL = "https://app.lending.test/"
	return cfg
}

func TestResetLink(t *testing.T) {
	svc := NewAuthService(nil, testAuthConfig(), nil)
	assert.Equal(t, "https://app.lending.test/reset-password?token=ab%2Bcd", svc.resetLink("ab+cd"))
}
