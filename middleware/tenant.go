package middleware

import (
	"context"
	"net/http"
	"strings"

	"lendingdesk/models"
	"lendingdesk/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHeader - заголовок, которым super_admin выбирает арендатора
const TenantHeader = "X-Tenant-ID"

// UserLoader загружает актуальные данные пользователя вместе с арендатором
type UserLoader interface {
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// TenantLoader загружает арендатора по ID
type TenantLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
}

// TenantGate определяет арендатора запроса и один раз собирает services.RequestContext.
// Роль и арендатор берутся из базы, а не из токена.
func TenantGate(users UserLoader, tenants TenantLoader, suspendedAllowList []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			abortWithMessage(c, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := c.Request.Context()
		user, err := users.Profile(ctx, claims.UserID)
		if err != nil {
			if services.IsKind(err, services.KindNotFound) {
				abortWithMessage(c, http.StatusUnauthorized, "user no longer exists")
				return
			}
			abortWithAppError(c, err)
			return
		}

		if user.Role == models.RoleSuperAdmin {
			tenantID, err := requestedTenant(ctx, c, tenants)
			if err != nil {
				abortWithAppError(c, err)
				return
			}
			SetRequestContext(c, services.NewRequestContext(*user, tenantID))
			c.Next()
			return
		}

		if user.TenantID == nil {
			abortWithMessage(c, http.StatusForbidden, "user is not assigned to a tenant")
			return
		}

		tenant := user.Tenant
		if tenant == nil {
			if tenant, err = tenants.Get(ctx, *user.TenantID); err != nil {
				abortWithAppError(c, err)
				return
			}
		}
		if tenant.Status != models.TenantStatusActive && !pathAllowed(c.Request.URL.Path, suspendedAllowList) {
			abortWithMessage(c, http.StatusForbidden, "tenant is "+string(tenant.Status))
			return
		}

		SetRequestContext(c, services.NewRequestContext(*user, user.TenantID))
		c.Next()
	}
}

// SetRequestContext сохраняет контекст запроса в gin.Context
func SetRequestContext(c *gin.Context, rc services.RequestContext) {
	c.Set(requestContextKey, rc)
}

// RequestContextFrom возвращает контекст запроса, собранный TenantGate
func RequestContextFrom(c *gin.Context) (services.RequestContext, bool) {
	value, exists := c.Get(requestContextKey)
	if !exists {
		return services.RequestContext{}, false
	}
	rc, ok := value.(services.RequestContext)
	return rc, ok
}

// requestedTenant читает арендатора из ?tenantId= или X-Tenant-ID; пустое значение означает "все арендаторы"
func requestedTenant(ctx context.Context, c *gin.Context, tenants TenantLoader) (*uuid.UUID, error) {
	raw := strings.TrimSpace(c.Query("tenantId"))
	if raw == "" {
		raw = strings.TrimSpace(c.GetHeader(TenantHeader))
	}
	if raw == "" {
		return nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, services.NewValidationError("invalid tenant id")
	}
	tenant, err := tenants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &tenant.ID, nil
}

func pathAllowed(path string, allowList []string) bool {
	for _, allowed := range allowList {
		if path == allowed || strings.HasPrefix(path, strings.TrimRight(allowed, "/")+"/") {
			return true
		}
	}
	return false
}

func abortWithAppError(c *gin.Context, err error) {
	appErr := services.AsAppError(err)
	if appErr.Kind == services.KindInternal {
		_ = c.Error(err)
		abortWithMessage(c, http.StatusInternalServerError, "internal server error")
		return
	}
	abortWithMessage(c, appErr.Kind.HTTPStatus(), appErr.Message)
}
