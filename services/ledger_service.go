package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lendingdesk/database"
	"lendingdesk/models"
	"lendingdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultDepositDescription     = "manual deposit"
	DefaultWithdrawalDescription  = "manual withdrawal"
	DefaultLoanPaymentDescription = "loan payment"
	LoanDisbursementDescription   = "loan disbursement"
)

// maxInterestRate - граница numeric(7,4), не включая ее
var maxInterestRate = decimal.NewFromInt(1000)

// DepositInput - провалидированные данные пополнения
type DepositInput struct {
	AccountID   uuid.UUID       `json:"accountId" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,lte=999999999999.99"`
	Description string          `json:"description" validate:"max=255"`
}

// WithdrawalInput - провалидированные данные списания
type WithdrawalInput struct {
	AccountID   uuid.UUID       `json:"accountId" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,lte=999999999999.99"`
	Description string          `json:"description" validate:"max=255"`
}

// DisbursementInput - данные выдачи займа. AccountID == nil означает общий счет арендатора.
type DisbursementInput struct {
	ClientID        uuid.UUID       `json:"clientId" validate:"required"`
	AccountID       *uuid.UUID      `json:"accountId"`
	PrincipalAmount decimal.Decimal `json:"principalAmount" validate:"required,gt=0,lte=999999999999.99"`
	InterestRate    decimal.Decimal `json:"interestRate" validate:"gte=0,lt=1000"`
	DueDate         time.Time       `json:"dueDate" validate:"required"`
	Notes           string          `json:"notes" validate:"max=2000"`
	Installments    *int            `json:"installments" validate:"omitempty,gt=0,lte=360"`
}

// LoanPaymentInput - данные платежа по займу
type LoanPaymentInput struct {
	LoanID      uuid.UUID       `json:"loanId" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0,lte=999999999999.99"`
	Description string          `json:"description" validate:"max=255"`
}

// EntryResult - счет после операции и созданная проводка
type EntryResult struct {
	Account     models.Account            `json:"account"`
	Transaction models.AccountTransaction `json:"transaction"`
}

// LoanPaymentResult - результат платежа по займу
type LoanPaymentResult struct {
	Loan        models.Loan               `json:"loan"`
	Account     models.Account            `json:"account"`
	Transaction models.AccountTransaction `json:"transaction"`
	PaidAmount  decimal.Decimal           `json:"paidAmount"`
	Remaining   decimal.Decimal           `json:"remaining"`
}

// LedgerService выполняет операции, меняющие баланс счетов.
// Каждое изменение баланса выполняется одним UPDATE current_balance = current_balance ± delta
// в одной транзакции с ровно одной проводкой.
type LedgerService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewLedgerService создает новый экземпляр LedgerService
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{
		db:        db,
		validator: utils.NewValidator(),
	}
}

// Deposit пополняет счет: +amount к балансу и одна проводка credit
func (s *LedgerService) Deposit(ctx context.Context, rc RequestContext, in DepositInput) (*EntryResult, error) {
	start := time.Now()
	result, err := s.post(ctx, rc, in.AccountID, in.Amount, models.TransactionTypeCredit,
		descriptionOrDefault(in.Description, DefaultDepositDescription), func() error { return s.validator.Struct(in) })
	utils.LogOperation("deposit", start, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("account_id", result.Account.ID.String()).
		Str("amount", result.Transaction.Amount.StringFixed(2)).
		Str("user_id", rc.UserID.String()).
		Msg("deposit posted")
	return result, nil
}

// Withdraw списывает средства со счета. Достаточность баланса не проверяется, как и при выдаче займа.
func (s *LedgerService) Withdraw(ctx context.Context, rc RequestContext, in WithdrawalInput) (*EntryResult, error) {
	start := time.Now()
	result, err := s.post(ctx, rc, in.AccountID, in.Amount, models.TransactionTypeDebit,
		descriptionOrDefault(in.Description, DefaultWithdrawalDescription), func() error { return s.validator.Struct(in) })
	utils.LogOperation("withdrawal", start, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("account_id", result.Account.ID.String()).
		Str("amount", result.Transaction.Amount.StringFixed(2)).
		Str("user_id", rc.UserID.String()).
		Msg("withdrawal posted")
	return result, nil
}

func (s *LedgerService) post(ctx context.Context, rc RequestContext, accountID uuid.UUID, amount decimal.Decimal,
	direction models.TransactionType, description string, validate func() error) (*EntryResult, error) {
	if err := validate(); err != nil {
		return nil, NewValidationErrorFrom(err)
	}
	amount, err := moneyAmount(amount, "amount")
	if err != nil {
		return nil, err
	}

	delta := amount
	if direction == models.TransactionTypeDebit {
		delta = amount.Neg()
	}

	var result EntryResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, err := adjustBalance(tx, accountID, delta, rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id"))
		if err != nil {
			return err
		}

		entry := models.AccountTransaction{
			AccountID:   account.ID,
			Type:        direction,
			Amount:      amount,
			Description: description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return NewInternal("failed to record transaction", err)
		}

		result = EntryResult{Account: *account, Transaction: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DisburseLoan выдает займ: создает займ в статусе active, дебетовую проводку по займу
// и уменьшает баланс счета на сумму займа. Все три записи фиксируются вместе или не фиксируются вовсе.
func (s *LedgerService) DisburseLoan(ctx context.Context, rc RequestContext, in DisbursementInput) (*models.Loan, error) {
	start := time.Now()
	loan, err := s.disburse(ctx, rc, in)
	utils.LogOperation("loan_disbursement", start, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("loan_id", loan.ID.String()).
		Str("account_id", loan.AccountID.String()).
		Str("amount", loan.PrincipalAmount.StringFixed(2)).
		Str("user_id", rc.UserID.String()).
		Msg("loan disbursed")
	return loan, nil
}

func (s *LedgerService) disburse(ctx context.Context, rc RequestContext, in DisbursementInput) (*models.Loan, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}
	principal, err := moneyAmount(in.PrincipalAmount, "principalAmount")
	if err != nil {
		return nil, err
	}
	rate, err := interestRate(in.InterestRate)
	if err != nil {
		return nil, err
	}

	var loan models.Loan
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		err := tx.Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
			First(&client, "id = ?", in.ClientID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("client not found")
			}
			return NewInternal("failed to load client", err)
		}

		accountID, err := s.resolveDisbursementAccount(tx, rc, client.TenantID, in.AccountID)
		if err != nil {
			return err
		}

		loan = models.Loan{
			TenantID:        client.TenantID,
			ClientID:        client.ID,
			AccountID:       accountID,
			PrincipalAmount: principal,
			InterestRate:    rate,
			DueDate:         in.DueDate,
			Status:          models.LoanStatusActive,
			Notes:           strings.TrimSpace(in.Notes),
			Installments:    in.Installments,
		}
		if err := tx.Create(&loan).Error; err != nil {
			return NewInternal("failed to create loan", err)
		}

		entry := models.AccountTransaction{
			AccountID:   accountID,
			LoanID:      &loan.ID,
			Type:        models.TransactionTypeDebit,
			Amount:      principal,
			Description: LoanDisbursementDescription,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return NewInternal("failed to record transaction", err)
		}

		if _, err := adjustBalance(tx, accountID, principal.Neg()); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// resolveDisbursementAccount проверяет счет выдачи; без явного счета берется самый старый общий счет арендатора
func (s *LedgerService) resolveDisbursementAccount(tx *gorm.DB, rc RequestContext, tenantID uuid.UUID, accountID *uuid.UUID) (uuid.UUID, error) {
	var account models.Account

	if accountID == nil {
		err := tx.Where("tenant_id = ? AND owner_id IS NULL", tenantID).
			Order("created_at ASC, id ASC").
			First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, NewValidationError("accountId is required: tenant has no shared account",
				utils.FieldError{Field: "accountId", Message: "is required"})
		}
		if err != nil {
			return uuid.Nil, NewInternal("failed to load account", err)
		}
		return account.ID, nil
	}

	err := tx.Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
		First(&account, "id = ?", *accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, NewNotFound("account not found")
	}
	if err != nil {
		return uuid.Nil, NewInternal("failed to load account", err)
	}
	if account.TenantID != tenantID {
		return uuid.Nil, NewValidationError("account and client belong to different tenants",
			utils.FieldError{Field: "accountId", Message: "must belong to the client's tenant"})
	}
	return account.ID, nil
}

// RegisterLoanPayment зачисляет платеж на счет займа. Когда сумма платежей достигает
// principal × (1 + rate/100), займ переводится в paid в той же транзакции.
func (s *LedgerService) RegisterLoanPayment(ctx context.Context, rc RequestContext, in LoanPaymentInput) (*LoanPaymentResult, error) {
	start := time.Now()
	result, err := s.registerPayment(ctx, rc, in)
	utils.LogOperation("loan_payment", start, err)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info().
		Str("loan_id", result.Loan.ID.String()).
		Str("account_id", result.Account.ID.String()).
		Str("amount", result.Transaction.Amount.StringFixed(2)).
		Str("status", string(result.Loan.Status)).
		Str("user_id", rc.UserID.String()).
		Msg("loan payment posted")
	return result, nil
}

func (s *LedgerService) registerPayment(ctx context.Context, rc RequestContext, in LoanPaymentInput) (*LoanPaymentResult, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}
	amount, err := moneyAmount(in.Amount, "amount")
	if err != nil {
		return nil, err
	}

	var result LoanPaymentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(rc.ScopeTenant("tenant_id")).
			First(&loan, "id = ?", in.LoanID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("loan not found")
		}
		if err != nil {
			return NewInternal("failed to load loan", err)
		}
		if loan.Status.IsClosed() {
			return NewConflict("loan is " + string(loan.Status) + " and does not accept payments")
		}

		account, err := adjustBalance(tx, loan.AccountID, amount)
		if err != nil {
			return err
		}

		entry := models.AccountTransaction{
			AccountID:   loan.AccountID,
			LoanID:      &loan.ID,
			Type:        models.TransactionTypeCredit,
			Amount:      amount,
			Description: descriptionOrDefault(in.Description, DefaultLoanPaymentDescription),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return NewInternal("failed to record transaction", err)
		}

		var paid decimal.Decimal
		err = tx.Model(&models.AccountTransaction{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("loan_id = ? AND type = ?", loan.ID, models.TransactionTypeCredit).
			Scan(&paid).Error
		if err != nil {
			return NewInternal("failed to sum loan payments", err)
		}

		due := loan.TotalDue()
		if paid.GreaterThanOrEqual(due) {
			if err := tx.Model(&loan).Update("status", models.LoanStatusPaid).Error; err != nil {
				return NewInternal("failed to update loan status", err)
			}
			loan.Status = models.LoanStatusPaid
		}

		remaining := due.Sub(paid)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		result = LoanPaymentResult{
			Loan:        loan,
			Account:     *account,
			Transaction: entry,
			PaidAmount:  paid,
			Remaining:   remaining,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TotalBalance суммирует текущие балансы счетов в области видимости вызывающего.
// ownerID сужает выборку до счетов конкретного владельца.
func (s *LedgerService) TotalBalance(ctx context.Context, rc RequestContext, ownerID *uuid.UUID) (decimal.Decimal, error) {
	query := s.db.WithContext(ctx).Model(&models.Account{}).Scopes(rc.ScopeTenant("tenant_id"))

	if ownerID != nil {
		if !rc.IsPrivileged() && *ownerID != rc.UserID {
			return decimal.Zero, NewForbidden("cannot read balances of another user")
		}
		query = query.Where("owner_id = ?", *ownerID)
	} else {
		query = query.Scopes(rc.ScopeOwnership("owner_id"))
	}

	var total decimal.Decimal
	if err := query.Select("COALESCE(SUM(current_balance), 0)").Scan(&total).Error; err != nil {
		return decimal.Zero, NewInternal("failed to compute total balance", err)
	}
	return total, nil
}

// ListTransactions возвращает проводки счета, новые первыми
func (s *LedgerService) ListTransactions(ctx context.Context, rc RequestContext, accountID uuid.UUID, page utils.Page) ([]models.AccountTransaction, utils.PageMeta, error) {
	db := s.db.WithContext(ctx)

	var count int64
	err := db.Model(&models.Account{}).
		Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
		Where("id = ?", accountID).
		Count(&count).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to load account", err)
	}
	if count == 0 {
		return nil, utils.PageMeta{}, NewNotFound("account not found")
	}

	var total int64
	if err := db.Model(&models.AccountTransaction{}).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to count transactions", err)
	}

	entries := make([]models.AccountTransaction, 0)
	err = db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&entries).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to list transactions", err)
	}
	return entries, page.Meta(total), nil
}

// adjustBalance атомарно меняет current_balance на delta и возвращает обновленный счет.
// Блокировка строки, взятая UPDATE, упорядочивает конкурентные изменения одного счета.
func adjustBalance(tx *gorm.DB, accountID uuid.UUID, delta decimal.Decimal, scopes ...func(*gorm.DB) *gorm.DB) (*models.Account, error) {
	var account models.Account
	res := tx.Model(&account).
		Clauses(clause.Returning{}).
		Scopes(scopes...).
		Where("id = ?", accountID).
		Update("current_balance", gorm.Expr("current_balance + ?", delta))
	if res.Error != nil {
		return nil, balanceError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NewNotFound("account not found")
	}
	return &account, nil
}

// moneyAmount округляет сумму до копеек и проверяет, что она положительна и помещается в numeric(14,2)
func moneyAmount(amount decimal.Decimal, field string) (decimal.Decimal, error) {
	rounded := amount.Round(2)
	if !rounded.IsPositive() {
		return decimal.Zero, NewValidationError("validation failed",
			utils.FieldError{Field: field, Message: "must be greater than 0"})
	}
	if rounded.GreaterThan(utils.MaxMoneyAmount) {
		return decimal.Zero, NewValidationError("validation failed",
			utils.FieldError{Field: field, Message: "must be at most " + utils.MaxMoneyAmount.StringFixed(2)})
	}
	return rounded, nil
}

// interestRate округляет ставку до numeric(7,4) и проверяет диапазон [0, 1000)
func interestRate(rate decimal.Decimal) (decimal.Decimal, error) {
	rounded := rate.Round(4)
	if rounded.IsNegative() || rounded.GreaterThanOrEqual(maxInterestRate) {
		return decimal.Zero, NewValidationError("validation failed",
			utils.FieldError{Field: "interestRate", Message: "must be greater than or equal to 0 and less than 1000"})
	}
	return rounded, nil
}

// balanceError переводит переполнение numeric-колонки баланса в ошибку валидации
func balanceError(err error) error {
	if database.IsNumericOverflow(err) {
		return NewValidationError("resulting balance is out of range",
			utils.FieldError{Field: "amount", Message: "would push the account balance past " + utils.MaxMoneyAmount.StringFixed(2)})
	}
	return NewInternal("failed to update balance", err)
}

func descriptionOrDefault(description, fallback string) string {
	if d := strings.TrimSpace(description); d != "" {
		return d
	}
	return fallback
}
