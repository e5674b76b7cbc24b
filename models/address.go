package models

import (
	"time"

	"github.com/google/uuid"
)

// AddressLabel - назначение адреса клиента
type AddressLabel string

const (
	AddressLabelPrimary  AddressLabel = "primary"
	AddressLabelBusiness AddressLabel = "business"
	AddressLabelBilling  AddressLabel = "billing"
	AddressLabelShipping AddressLabel = "shipping"
)

func (l AddressLabel) IsValid() bool {
	switch l {
	case AddressLabelPrimary, AddressLabelBusiness, AddressLabelBilling, AddressLabelShipping:
		return true
	}
	return false
}

// Address - общие поля почтового адреса
type Address struct {
	PostalCode string `gorm:"column:postal_code;type:char(8);not null" json:"postalCode"`
	Street     string `gorm:"column:street;not null;size:255" json:"street"`
	Number     string `gorm:"column:number;size:32" json:"number"`
	Complement string `gorm:"column:complement;size:255" json:"complement"`
	District   string `gorm:"column:district;size:120" json:"district"`
	City       string `gorm:"column:city;not null;size:120" json:"city"`
	State      string `gorm:"column:state;type:char(2);not null" json:"state"`
}

// UserAddress - единственный адрес сотрудника (уникален по user_id)
type UserAddress struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;uniqueIndex;not null" json:"userId"`
	Address
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (UserAddress) TableName() string {
	return "user_addresses"
}

// ClientAddress - адрес клиента, уникален по (client_id, label)
type ClientAddress struct {
	ID       uuid.UUID    `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ClientID uuid.UUID    `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	Label    AddressLabel `gorm:"column:label;type:varchar(16);not null" json:"label"`
	Address
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ClientAddress) TableName() string {
	return "client_addresses"
}
