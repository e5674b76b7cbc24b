package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lendingdesk/models"
	"lendingdesk/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyAmount(t *testing.T) {
	amount, err := moneyAmount(decimal.RequireFromString("10.005"), "amount")
	require.NoError(t, err)
	assert.Equal(t, "10.01", amount.StringFixed(2))

	amount, err = moneyAmount(utils.MaxMoneyAmount, "amount")
	require.NoError(t, err)
	assert.True(t, amount.Equal(utils.MaxMoneyAmount))

	for _, raw := range []string{"0", "-1", "0.004", "1000000000000", "999999999999.995"} {
		_, err := moneyAmount(decimal.RequireFromString(raw), "amount")
		assert.True(t, IsKind(err, KindValidation), raw)
	}
}

func TestInterestRate(t *testing.T) {
	rate, err := interestRate(decimal.RequireFromString("2.123456"))
	require.NoError(t, err)
	assert.Equal(t, "2.1235", rate.StringFixed(4))

	_, err = interestRate(decimal.RequireFromString("999.9999"))
	assert.NoError(t, err)

	for _, raw := range []string{"-0.5", "1000", "999.99995"} {
		_, err := interestRate(decimal.RequireFromString(raw))
		assert.True(t, IsKind(err, KindValidation), raw)
	}
}

func TestBalanceError(t *testing.T) {
	overflow := fmt.Errorf("update: %w", &pgconn.PgError{Code: "22003"})
	err := balanceError(overflow)
	assert.True(t, IsKind(err, KindValidation))
	assert.Equal(t, 400, AsAppError(err).Kind.HTTPStatus())

	assert.True(t, IsKind(balanceError(assert.AnError), KindInternal))
}

func TestLedger_OutOfRangeInputIsRejectedBeforeStorage(t *testing.T) {
	tenantID := uuid.New()
	operator := models.User{ID: uuid.New(), TenantID: &tenantID, Role: models.RoleOperator}
	rc := NewRequestContext(operator, &tenantID)
	ledger := NewLedgerService(nil)
	ctx := context.Background()
	huge := decimal.RequireFromString("10000000000000")

	_, err := ledger.Deposit(ctx, rc, DepositInput{AccountID: uuid.New(), Amount: huge})
	assert.True(t, IsKind(err, KindValidation))

	_, err = ledger.Withdraw(ctx, rc, WithdrawalInput{AccountID: uuid.New(), Amount: huge})
	assert.True(t, IsKind(err, KindValidation))

	_, err = ledger.RegisterLoanPayment(ctx, rc, LoanPaymentInput{LoanID: uuid.New(), Amount: huge})
	assert.True(t, IsKind(err, KindValidation))

	_, err = ledger.DisburseLoan(ctx, rc, DisbursementInput{
		ClientID:        uuid.New(),
		PrincipalAmount: huge,
		InterestRate:    decimal.NewFromInt(5),
		DueDate:         time.Now().AddDate(0, 1, 0),
	})
	assert.True(t, IsKind(err, KindValidation))

	_, err = ledger.DisburseLoan(ctx, rc, DisbursementInput{
		ClientID:        uuid.New(),
		PrincipalAmount: decimal.NewFromInt(100),
		InterestRate:    decimal.NewFromInt(1000),
		DueDate:         time.Now().AddDate(0, 1, 0),
	})
	require.True(t, IsKind(err, KindValidation))
	assert.Equal(t, "interestRate", AsAppError(err).Details[0].Field)

	admin := models.User{ID: uuid.New(), TenantID: &tenantID, Role: models.RoleAdmin}
	_, err = NewAccountService(nil).Create(ctx, NewRequestContext(admin, &tenantID), CreateAccountInput{
		Name:           "Caixa",
		Type:           models.AccountTypeChecking,
		OpeningBalance: huge,
	})
	assert.True(t, IsKind(err, KindValidation))
}
