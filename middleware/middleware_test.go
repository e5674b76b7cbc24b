package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lendingdesk/models"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (f fakeUsers) Profile(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, services.NewNotFound("user not found")
}

type fakeTenants struct {
	tenants map[uuid.UUID]*models.Tenant
}

func (f fakeTenants) Get(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	if t, ok := f.tenants[id]; ok {
		return t, nil
	}
	return nil, services.NewNotFound("tenant not found")
}

type gateFixture struct {
	router   *gin.Engine
	active   *models.Tenant
	paused   *models.Tenant
	operator *models.User
	orphan   *models.User
	frozen   *models.User
	root     *models.User
}

func newGateFixture(t *testing.T) gateFixture {
	t.Helper()
	active := &models.Tenant{ID: uuid.New(), Name: "Acme", Status: models.TenantStatusActive}
	paused := &models.Tenant{ID: uuid.New(), Name: "Paused", Status: models.TenantStatusSuspended}

	f := gateFixture{
		active:   active,
		paused:   paused,
		operator: &models.User{ID: uuid.New(), Email: "op@lending.test", Role: models.RoleOperator, TenantID: &active.ID, Tenant: active},
		orphan:   &models.User{ID: uuid.New(), Email: "orphan@lending.test", Role: models.RoleAdmin},
		frozen:   &models.User{ID: uuid.New(), Email: "frozen@lending.test", Role: models.RoleAdmin, TenantID: &paused.ID},
		root:     &models.User{ID: uuid.New(), Email: "root@lending.test", Role: models.RoleSuperAdmin},
	}
	users := fakeUsers{users: map[uuid.UUID]*models.User{}}
	for _, u := range []*models.User{f.operator, f.orphan, f.frozen, f.root} {
		users.users[u.ID] = u
	}
	tenants := fakeTenants{tenants: map[uuid.UUID]*models.Tenant{active.ID: active, paused.ID: paused}}

	r := gin.New()
	gated := r.Group("/", Authenticate(testSecret), TenantGate(users, tenants, []string{"/v1/subscription"}))
	echo := func(c *gin.Context) {
		rc, ok := RequestContextFrom(c)
		require.True(t, ok)
		tenant := ""
		if id, ok := rc.Tenant(); ok {
			tenant = id.String()
		}
		c.JSON(http.StatusOK, gin.H{"userId": rc.UserID.String(), "tenantId": tenant, "role": rc.Role})
	}
	gated.GET("/v1/clients", echo)
	gated.GET("/v1/subscription", echo)
	gated.DELETE("/v1/accounts/:id", RequireRoles(models.RoleAdmin), echo)
	f.router = r
	return f
}

func bearer(t *testing.T, user *models.User) string {
	t.Helper()
	token, _, err := utils.GenerateAccessToken(utils.AccessClaims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     string(user.Role),
		TenantID: user.TenantID,
	}, testSecret, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func perform(r http.Handler, method, path, auth string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthenticate_RejectsMissingAndInvalidTokens(t *testing.T) {
	f := newGateFixture(t)

	for _, auth := range []string{"", "Token abc", "Bearer ", "Bearer not-a-jwt"} {
		w := perform(f.router, http.MethodGet, "/v1/clients", auth)
		assert.Equal(t, http.StatusUnauthorized, w.Code, auth)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.NotEmpty(t, body["message"])
	}

	other, _, err := utils.GenerateAccessToken(utils.AccessClaims{UserID: f.operator.ID, Role: "operator"}, "other-secret", time.Minute)
	require.NoError(t, err)
	w := perform(f.router, http.MethodGet, "/v1/clients", "Bearer "+other)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTenantGate_ResolvesTenantFromUser(t *testing.T) {
	f := newGateFixture(t)

	w := perform(f.router, http.MethodGet, "/v1/clients", bearer(t, f.operator))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, f.active.ID.String(), body["tenantId"])
	assert.Equal(t, "operator", body["role"])
}

func TestTenantGate_NoTenantIsForbidden(t *testing.T) {
	f := newGateFixture(t)

	w := perform(f.router, http.MethodGet, "/v1/clients", bearer(t, f.orphan))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTenantGate_SuspendedTenantAllowList(t *testing.T) {
	f := newGateFixture(t)

	w := perform(f.router, http.MethodGet, "/v1/clients", bearer(t, f.frozen))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "tenant is suspended", decode(t, w)["message"])

	w = perform(f.router, http.MethodGet, "/v1/subscription", bearer(t, f.frozen))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTenantGate_SuperAdminOverride(t *testing.T) {
	f := newGateFixture(t)

	w := perform(f.router, http.MethodGet, "/v1/clients", bearer(t, f.root))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode(t, w)["tenantId"])

	w = perform(f.router, http.MethodGet, "/v1/clients?tenantId="+f.active.ID.String(), bearer(t, f.root))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, f.active.ID.String(), decode(t, w)["tenantId"])

	w = perform(f.router, http.MethodGet, "/v1/clients", bearer(t, f.root), TenantHeader, f.paused.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, f.paused.ID.String(), decode(t, w)["tenantId"])

	w = perform(f.router, http.MethodGet, "/v1/clients?tenantId=nope", bearer(t, f.root))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(f.router, http.MethodGet, "/v1/clients?tenantId="+uuid.NewString(), bearer(t, f.root))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTenantGate_DeletedUserIsUnauthorized(t *testing.T) {
	f := newGateFixture(t)
	ghost := &models.User{ID: uuid.New(), Email: "ghost@lending.test", Role: models.RoleAdmin, TenantID: &f.active.ID}

	w := perform(f.router, http.MethodGet, "/v1/clients", bearer(t, ghost))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	f := newGateFixture(t)
	path := "/v1/accounts/" + uuid.NewString()

	w := perform(f.router, http.MethodDelete, path, bearer(t, f.operator))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(f.router, http.MethodDelete, path, bearer(t, f.root))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", RateLimit(utils.NewRateLimiter(2, time.Minute)), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		w := perform(r, http.MethodPost, "/auth/login", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := perform(r, http.MethodPost, "/auth/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestRecoveryAndRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := perform(r, http.MethodGet, "/boom", "", RequestIDHeader, "req-42")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "internal server error", decode(t, w)["message"])

	w = perform(r, http.MethodGet, "/boom", "")
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.lending.test"}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/health", "", "Origin", "https://app.lending.test")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.lending.test", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = perform(r, http.MethodGet, "/health", "", "Origin", "https://evil.test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/health", "", "Origin", "https://any.test")
	assert.Equal(t, "https://any.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}
