package models

import (
	"time"

	"github.com/google/uuid"
)

// Client представляет заемщика
type Client struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID  uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null" json:"tenantId"`
	OwnerID   *uuid.UUID      `gorm:"column:owner_id;type:uuid" json:"ownerId"`
	FirstName string          `gorm:"column:first_name;not null;size:120" json:"firstName"`
	LastName  string          `gorm:"column:last_name;not null;size:120" json:"lastName"`
	Document  string          `gorm:"column:document;not null;size:14" json:"document"` // только цифры: CPF или CNPJ
	Email     string          `gorm:"column:email;size:255" json:"email"`
	Phone     string          `gorm:"column:phone;size:20" json:"phone"` // только цифры
	Notes     string          `gorm:"column:notes" json:"notes"`
	Addresses []ClientAddress `gorm:"foreignKey:ClientID" json:"addresses,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Client) TableName() string {
	return "clients"
}

// FullName возвращает полное имя клиента
func (c Client) FullName() string {
	return c.FirstName + " " + c.LastName
}
