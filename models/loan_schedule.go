package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleItem - строка графика платежей
type ScheduleItem struct {
	Number    int             `json:"number"`
	DueDate   time.Time       `json:"dueDate"`
	Payment   decimal.Decimal `json:"payment"`
	Interest  decimal.Decimal `json:"interest"`
	Principal decimal.Decimal `json:"principal"`
	Remaining decimal.Decimal `json:"remaining"`
}

// LoanSchedule - расчетный аннуитетный график. В базе не хранится.
type LoanSchedule struct {
	LoanID         uuid.UUID       `json:"loanId"`
	Installments   int             `json:"installments"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	TotalPayment   decimal.Decimal `json:"totalPayment"`
	Items          []ScheduleItem  `json:"items"`
}

// HasSchedule сообщает, выдан ли займ с графиком платежей
func (l Loan) HasSchedule() bool {
	return l.Installments != nil && *l.Installments > 0
}

// Schedule строит аннуитетный график. Ставка трактуется как месячная в процентах.
// Второе значение false, если у займа нет графика.
func (l Loan) Schedule() (LoanSchedule, bool) {
	if !l.HasSchedule() {
		return LoanSchedule{}, false
	}
	months := *l.Installments
	monthlyRate := l.InterestRate.Div(decimal.NewFromInt(100))
	payment := AnnuityPayment(l.PrincipalAmount, monthlyRate, months)

	schedule := LoanSchedule{
		LoanID:         l.ID,
		Installments:   months,
		MonthlyPayment: payment,
		Items:          make([]ScheduleItem, months),
	}

	startDate := l.CreatedAt
	if startDate.IsZero() {
		startDate = time.Now()
	}

	remaining := l.PrincipalAmount
	total := decimal.Zero
	for i := 0; i < months; i++ {
		// Проценты за текущий месяц
		interest := remaining.Mul(monthlyRate).Round(2)
		principal := payment.Sub(interest)
		amount := payment

		// Последний платеж закрывает остаток с учетом округлений
		if i == months-1 {
			principal = remaining
			amount = principal.Add(interest)
		}
		remaining = remaining.Sub(principal)
		total = total.Add(amount)

		schedule.Items[i] = ScheduleItem{
			Number:    i + 1,
			DueDate:   startDate.AddDate(0, i+1, 0),
			Payment:   amount,
			Interest:  interest,
			Principal: principal,
			Remaining: remaining,
		}
	}
	schedule.TotalPayment = total
	return schedule, true
}

// AnnuityPayment рассчитывает размер аннуитетного платежа
func AnnuityPayment(amount, monthlyRate decimal.Decimal, months int) decimal.Decimal {
	n := decimal.NewFromInt(int64(months))
	if monthlyRate.IsZero() {
		return amount.Div(n).Round(2)
	}

	// Коэффициент аннуитета: r(1+r)^n / ((1+r)^n - 1)
	growth := decimal.NewFromInt(1).Add(monthlyRate).Pow(n)
	coefficient := monthlyRate.Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return amount.Mul(coefficient).Round(2)
}
