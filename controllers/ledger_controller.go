package controllers

import (
	"context"
	"net/http"

	"lendingdesk/models"
	"lendingdesk/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ledgerService interface {
	Deposit(ctx context.Context, rc services.RequestContext, in services.DepositInput) (*services.EntryResult, error)
	Withdraw(ctx context.Context, rc services.RequestContext, in services.WithdrawalInput) (*services.EntryResult, error)
	DisburseLoan(ctx context.Context, rc services.RequestContext, in services.DisbursementInput) (*models.Loan, error)
	RegisterLoanPayment(ctx context.Context, rc services.RequestContext, in services.LoanPaymentInput) (*services.LoanPaymentResult, error)
}

// LedgerController обрабатывает операции, меняющие балансы
type LedgerController struct {
	ledger ledgerService
}

func NewLedgerController(ledger ledgerService) *LedgerController {
	return &LedgerController{ledger: ledger}
}

type entryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

type disbursementRequest struct {
	ClientID        uuid.UUID       `json:"clientId"`
	AccountID       *uuid.UUID      `json:"accountId"`
	PrincipalAmount decimal.Decimal `json:"principalAmount"`
	InterestRate    decimal.Decimal `json:"interestRate"`
	DueDate         string          `json:"dueDate"`
	Notes           string          `json:"notes"`
	Installments    *int            `json:"installments"`
}

func entryResponse(result *services.EntryResult) gin.H {
	return gin.H{
		"success":     true,
		"account":     result.Account,
		"transaction": result.Transaction,
	}
}

// Deposit обрабатывает POST /accounts/:id/deposit
func (lc *LedgerController) Deposit(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	accountID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req entryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := lc.ledger.Deposit(c.Request.Context(), rc, services.DepositInput{
		AccountID:   accountID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryResponse(result))
}

// Withdraw обрабатывает POST /accounts/:id/withdraw
func (lc *LedgerController) Withdraw(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	accountID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req entryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := lc.ledger.Withdraw(c.Request.Context(), rc, services.WithdrawalInput{
		AccountID:   accountID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entryResponse(result))
}

// DisburseLoan обрабатывает POST /loans
func (lc *LedgerController) DisburseLoan(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	var req disbursementRequest
	if !bindJSON(c, &req) {
		return
	}
	dueDate, err := parseDate("dueDate", req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}

	loan, err := lc.ledger.DisburseLoan(c.Request.Context(), rc, services.DisbursementInput{
		ClientID:        req.ClientID,
		AccountID:       req.AccountID,
		PrincipalAmount: req.PrincipalAmount,
		InterestRate:    req.InterestRate,
		DueDate:         dueDate,
		Notes:           req.Notes,
		Installments:    req.Installments,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, loan)
}

// RegisterPayment обрабатывает POST /loans/:id/payments
func (lc *LedgerController) RegisterPayment(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	loanID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req entryRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := lc.ledger.RegisterLoanPayment(c.Request.Context(), rc, services.LoanPaymentInput{
		LoanID:      loanID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, result)
}
