//go:build integration

package services

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"

	"lendingdesk/models"
	"lendingdesk/testutil"
	"lendingdesk/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureMailer struct {
	mu    sync.Mutex
	links []string
}

func (m *captureMailer) SendPasswordReset(to, name, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, link)
	return nil
}

func (m *captureMailer) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.links)
	u, err := url.Parse(m.links[len(m.links)-1])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestAuth_LoginAndRefreshRotation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme Credit")
	user := testutil.SeedUser(t, db, &tenant.ID, models.RoleOperator)
	cfg := testAuthConfig()
	svc := NewAuthService(db, cfg, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: "wrong"})
	assert.True(t, IsKind(err, KindUnauthorized))
	_, err = svc.Login(ctx, LoginInput{Email: "nobody@lending.test", Password: testutil.DefaultPassword})
	assert.True(t, IsKind(err, KindUnauthorized))

	session, err := svc.Login(ctx, LoginInput{Email: strings.ToUpper(user.Email), Password: testutil.DefaultPassword})
	require.NoError(t, err)
	assert.Len(t, session.RefreshToken, 128)
	assert.InDelta(t, 900, session.ExpiresIn, 2)

	claims, err := utils.ParseAccessToken(session.AccessToken, cfg.JWT.SecretKey)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, tenant.ID, *claims.TenantID)

	rotated, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.True(t, IsKind(err, KindUnauthorized))

	var stored int64
	require.NoError(t, db.Model(&models.RefreshToken{}).Where("user_id = ?", user.ID).Count(&stored).Error)
	assert.Equal(t, int64(1), stored)

	require.NoError(t, svc.Logout(ctx, user.ID, rotated.RefreshToken))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assert.True(t, IsKind(err, KindUnauthorized))
}

func TestAuth_ConcurrentRefreshSingleWinner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme Credit")
	user := testutil.SeedUser(t, db, &tenant.ID, models.RoleViewer)
	svc := NewAuthService(db, testAuthConfig(), nil)

	session, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: testutil.DefaultPassword})
	require.NoError(t, err)

	const attempts = 5
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Refresh(context.Background(), session.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsKind(err, KindUnauthorized), err.Error())
	}
	assert.Equal(t, 1, succeeded)
}

func TestAuth_PasswordResetIsSingleUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme Credit")
	user := testutil.SeedUser(t, db, &tenant.ID, models.RoleAdmin)
	mailer := &captureMailer{}
	svc := NewAuthService(db, testAuthConfig(), mailer)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "unknown@lending.test"}))
	assert.Empty(t, mailer.links)

	session, err := svc.Login(ctx, LoginInput{Email: user.Email, Password: testutil.DefaultPassword})
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, ForgotPasswordInput{Email: user.Email}))
	token := mailer.lastToken(t)
	assert.Len(t, token, 64)

	err = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "weak"})
	assert.True(t, IsKind(err, KindValidation))

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "NewSecret#456"}))

	err = svc.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "Another#789"})
	assert.True(t, IsKind(err, KindValidation))

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.True(t, IsKind(err, KindUnauthorized))

	_, err = svc.Login(ctx, LoginInput{Email: user.Email, Password: testutil.DefaultPassword})
	assert.True(t, IsKind(err, KindUnauthorized))
	_, err = svc.Login(ctx, LoginInput{Email: user.Email, Password: "NewSecret#456"})
	require.NoError(t, err)
}

func TestAuth_NewResetRequestInvalidatesPrevious(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme Credit")
	user := testutil.SeedUser(t, db, &tenant.ID, models.RoleOperator)
	mailer := &captureMailer{}
	svc := NewAuthService(db, testAuthConfig(), mailer)
	ctx := context.Background()

	require.NoError(t, svc.ForgotPassword(ctx, ForgotPasswordInput{Email: user.Email}))
	first := mailer.lastToken(t)
	require.NoError(t, svc.ForgotPassword(ctx, ForgotPasswordInput{Email: user.Email}))
	second := mailer.lastToken(t)

	err := svc.ResetPassword(ctx, ResetPasswordInput{Token: first, Password: "NewSecret#456"})
	assert.True(t, IsKind(err, KindValidation))
	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{Token: second, Password: "NewSecret#456"}))
}

func TestAuth_ChangePassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	tenant := testutil.SeedTenant(t, db, "Acme Credit")
	user := testutil.SeedUser(t, db, &tenant.ID, models.RoleOperator)
	svc := NewAuthService(db, testAuthConfig(), nil)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.ID, ChangePasswordInput{CurrentPassword: "wrong", NewPassword: "NewSecret#456"})
	assert.True(t, IsKind(err, KindValidation))

	require.NoError(t, svc.ChangePassword(ctx, user.ID, ChangePasswordInput{
		CurrentPassword: testutil.DefaultPassword,
		NewPassword:     "NewSecret#456",
	}))
	_, err = svc.Login(ctx, LoginInput{Email: user.Email, Password: "NewSecret#456"})
	require.NoError(t, err)
}
