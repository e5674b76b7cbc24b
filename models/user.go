package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role - роль сотрудника
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleOperator   Role = "operator"
	RoleViewer     Role = "viewer"
)

// IsValid проверяет, что роль известна
func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// IsPrivileged сообщает, видит ли роль все записи в пределах арендатора
func (r Role) IsPrivileged() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID     *uuid.UUID `gorm:"column:tenant_id;type:uuid" json:"tenantId"`
	Name         string     `gorm:"column:name;not null;size:120" json:"name"`
	Email        string     `gorm:"column:email;unique;not null;size:255" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;not null;size:255" json:"-"`
	Role         Role       `gorm:"column:role;type:varchar(16);not null" json:"role"`
	AvatarURL    *string    `gorm:"column:avatar_url;size:512" json:"avatarUrl"`
	Tenant       *Tenant    `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate хук для валидации перед созданием
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if len(u.Name) < 2 || len(u.Name) > 120 {
		return errors.New("name must be between 2 and 120 characters")
	}
	if len(u.Email) < 3 || len(u.Email) > 255 {
		return errors.New("email must be between 3 and 255 characters")
	}
	if !u.Role.IsValid() {
		return errors.New("unknown role")
	}
	return nil
}

// RefreshToken хранит только хеш выданного refresh-токена
type RefreshToken struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	TokenHash string     `gorm:"column:token_hash;unique;not null;size:128"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	RevokedAt *time.Time `gorm:"column:revoked_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// PasswordResetToken - одноразовый токен сброса пароля (хранится только хеш)
type PasswordResetToken struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	TokenHash string     `gorm:"column:token_hash;unique;not null;size:128"`
	ExpiresAt time.Time  `gorm:"column:expires_at;not null"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
