package services

import (
	"testing"
	"time"

	"lendingdesk/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanSchedule(t *testing.T) {
	installments := 12
	created := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	loan := models.Loan{
		ID:              uuid.New(),
		PrincipalAmount: decimal.NewFromInt(12000),
		InterestRate:    decimal.NewFromInt(1),
		Installments:    &installments,
		CreatedAt:       created,
	}

	schedule, err := NewLoanService(nil).Schedule(loan)
	require.NoError(t, err)
	require.Len(t, schedule.Items, 12)

	assert.Equal(t, "1066.19", schedule.MonthlyPayment.StringFixed(2))
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), schedule.Items[0].DueDate)
	assert.Equal(t, "120.00", schedule.Items[0].Interest.StringFixed(2))

	last := schedule.Items[11]
	assert.True(t, last.Remaining.IsZero(), "remaining after last installment: %s", last.Remaining)

	principalSum := decimal.Zero
	for _, item := range schedule.Items {
		principalSum = principalSum.Add(item.Principal)
	}
	assert.True(t, principalSum.Equal(loan.PrincipalAmount))
	assert.True(t, schedule.TotalPayment.GreaterThan(loan.PrincipalAmount))
}

func TestLoanSchedule_NoInstallments(t *testing.T) {
	_, err := NewLoanService(nil).Schedule(models.Loan{PrincipalAmount: decimal.NewFromInt(100)})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestLoanSchedule_PayoffMatchesLastInstallment(t *testing.T) {
	installments := 12
	loan := models.Loan{
		PrincipalAmount: decimal.NewFromInt(1000),
		InterestRate:    decimal.NewFromInt(5),
		Installments:    &installments,
	}

	schedule, err := NewLoanService(nil).Schedule(loan)
	require.NoError(t, err)
	assert.True(t, schedule.TotalPayment.Equal(loan.TotalDue()), "total %s, due %s", schedule.TotalPayment, loan.TotalDue())

	paid := decimal.Zero
	for i, item := range schedule.Items {
		paid = paid.Add(item.Payment)
		if i < len(schedule.Items)-1 {
			assert.True(t, paid.LessThan(loan.TotalDue()), "installment %d already covers the loan", item.Number)
		}
	}
	assert.True(t, paid.Equal(loan.TotalDue()))
}
