package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType - направление проводки
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// AccountTransaction - неизменяемая запись леджера; после вставки не обновляется и не удаляется
type AccountTransaction struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AccountID   uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index" json:"accountId"`
	LoanID      *uuid.UUID      `gorm:"column:loan_id;type:uuid" json:"loanId"`
	Type        TransactionType `gorm:"column:type;type:varchar(8);not null" json:"type"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	Description string          `gorm:"column:description;size:255" json:"description"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
}

func (AccountTransaction) TableName() string {
	return "account_transactions"
}

// Signed возвращает сумму со знаком: кредит увеличивает баланс, дебет уменьшает
func (t AccountTransaction) Signed() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}
