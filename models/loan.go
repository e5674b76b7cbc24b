package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus представляет статус займа
type LoanStatus string

const (
	LoanStatusActive       LoanStatus = "active"
	LoanStatusDueSoon      LoanStatus = "due_soon"
	LoanStatusOverdue      LoanStatus = "overdue"
	LoanStatusPaid         LoanStatus = "paid"
	LoanStatusRenegotiated LoanStatus = "renegotiated"
	LoanStatusWrittenOff   LoanStatus = "written_off"
	LoanStatusDefaulted    LoanStatus = "defaulted"
)

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusActive, LoanStatusDueSoon, LoanStatusOverdue, LoanStatusPaid,
		LoanStatusRenegotiated, LoanStatusWrittenOff, LoanStatusDefaulted:
		return true
	}
	return false
}

// IsClosed сообщает, что по займу больше не принимаются платежи
func (s LoanStatus) IsClosed() bool {
	return s == LoanStatusPaid || s == LoanStatusWrittenOff
}

// Loan представляет займ. InterestRate хранится в процентах.
type Loan struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TenantID        uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null" json:"tenantId"`
	ClientID        uuid.UUID       `gorm:"column:client_id;type:uuid;not null" json:"clientId"`
	AccountID       uuid.UUID       `gorm:"column:account_id;type:uuid;not null" json:"accountId"`
	PrincipalAmount decimal.Decimal `gorm:"column:principal_amount;type:numeric(14,2);not null" json:"principalAmount"`
	InterestRate    decimal.Decimal `gorm:"column:interest_rate;type:numeric(7,4);not null" json:"interestRate"`
	DueDate         time.Time       `gorm:"column:due_date;type:date;not null" json:"dueDate"`
	Status          LoanStatus      `gorm:"column:status;type:varchar(16);not null;default:'active'" json:"status"`
	Notes           string          `gorm:"column:notes" json:"notes"`
	Installments    *int            `gorm:"column:installments" json:"installments"`
	Client          *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (Loan) TableName() string {
	return "loans"
}

// TotalDue возвращает сумму к возврату. Для займа с графиком это итог графика,
// иначе principal × (1 + rate/100).
func (l Loan) TotalDue() decimal.Decimal {
	if schedule, ok := l.Schedule(); ok {
		return schedule.TotalPayment
	}
	factor := decimal.NewFromInt(1).Add(l.InterestRate.Div(decimal.NewFromInt(100)))
	return l.PrincipalAmount.Mul(factor).Round(2)
}
