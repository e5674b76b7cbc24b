package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType - тип счета
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
)

func (t AccountType) IsValid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// Account - счет учета. OwnerID == nil означает общий счет компании.
// OpeningBalance не меняется после создания, CurrentBalance меняют только операции леджера.
type Account struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID       uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null" json:"tenantId"`
	OwnerID        *uuid.UUID      `gorm:"column:owner_id;type:uuid" json:"ownerId"`
	Name           string          `gorm:"column:name;not null;size:120" json:"name"`
	BankName       string          `gorm:"column:bank_name;size:120" json:"bankName"`
	Branch         string          `gorm:"column:branch;size:16" json:"branch"`
	AccountNumber  string          `gorm:"column:account_number;size:32" json:"accountNumber"`
	Type           AccountType     `gorm:"column:type;type:varchar(16);not null" json:"type"`
	OpeningBalance decimal.Decimal `gorm:"column:opening_balance;type:numeric(14,2);not null" json:"openingBalance"`
	CurrentBalance decimal.Decimal `gorm:"column:current_balance;type:numeric(14,2);not null" json:"currentBalance"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}
