package services

import (
	"lendingdesk/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestContext - неизменяемые сведения о вызывающем, собираются один раз на запрос
// и передаются в сервисы по значению.
type RequestContext struct {
	UserID       uuid.UUID
	Email        string
	Role         models.Role
	TenantID     *uuid.UUID
	IsSuperAdmin bool
}

// NewRequestContext собирает контекст запроса для пользователя и разрешенного арендатора
func NewRequestContext(user models.User, tenantID *uuid.UUID) RequestContext {
	rc := RequestContext{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		IsSuperAdmin: user.Role == models.RoleSuperAdmin,
	}
	if tenantID != nil {
		id := *tenantID
		rc.TenantID = &id
	}
	return rc
}

// Tenant возвращает идентификатор арендатора, если он определен
func (rc RequestContext) Tenant() (uuid.UUID, bool) {
	if rc.TenantID == nil {
		return uuid.Nil, false
	}
	return *rc.TenantID, true
}

// IsPrivileged сообщает, видит ли вызывающий все записи арендатора
func (rc RequestContext) IsPrivileged() bool {
	return rc.IsSuperAdmin || rc.Role.IsPrivileged()
}

// HasRole сообщает, входит ли роль вызывающего в набор
func (rc RequestContext) HasRole(roles ...models.Role) bool {
	for _, r := range roles {
		if rc.Role == r {
			return true
		}
	}
	return false
}

// RequireTenant возвращает арендатора или Forbidden
func (rc RequestContext) RequireTenant() (uuid.UUID, error) {
	if id, ok := rc.Tenant(); ok {
		return id, nil
	}
	return uuid.Nil, NewForbidden("tenant is required for this operation")
}

// ScopeTenant ограничивает запрос арендатором вызывающего.
// super_admin без явного арендатора видит все строки.
func (rc RequestContext) ScopeTenant(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if id, ok := rc.Tenant(); ok {
			return db.Where(column+" = ?", id)
		}
		if rc.IsSuperAdmin {
			return db
		}
		// без арендатора обычная роль не видит ничего
		return db.Where("1 = 0")
	}
}

// ScopeOwnership применяет фильтр владельца: непривилегированные роли видят свои и общие строки
func (rc RequestContext) ScopeOwnership(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if rc.IsPrivileged() {
			return db
		}
		return db.Where("("+column+" = ? OR "+column+" IS NULL)", rc.UserID)
	}
}
