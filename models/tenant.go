package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus - состояние арендатора
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
	TenantStatusCanceled  TenantStatus = "canceled"
)

func (s TenantStatus) IsValid() bool {
	switch s {
	case TenantStatusActive, TenantStatusSuspended, TenantStatusCanceled:
		return true
	}
	return false
}

// TenantPlan - тарифный план арендатора
type TenantPlan string

const (
	TenantPlanFree       TenantPlan = "free"
	TenantPlanBasic      TenantPlan = "basic"
	TenantPlanPro        TenantPlan = "pro"
	TenantPlanEnterprise TenantPlan = "enterprise"
)

func (p TenantPlan) IsValid() bool {
	switch p {
	case TenantPlanFree, TenantPlanBasic, TenantPlanPro, TenantPlanEnterprise:
		return true
	}
	return false
}

// Tenant представляет организацию-арендатора
type Tenant struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string       `gorm:"column:name;not null;size:120" json:"name"`
	Slug      string       `gorm:"column:slug;unique;not null;size:64" json:"slug"`
	Status    TenantStatus `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`
	Plan      TenantPlan   `gorm:"column:plan;type:varchar(16);not null;default:'free'" json:"plan"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Tenant) TableName() string {
	return "tenants"
}
