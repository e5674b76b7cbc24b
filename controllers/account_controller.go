package controllers

import (
	"context"
	"net/http"
	"strings"

	"lendingdesk/models"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type accountService interface {
	List(ctx context.Context, rc services.RequestContext, filter services.AccountFilter) ([]models.Account, utils.PageMeta, error)
	Get(ctx context.Context, rc services.RequestContext, id uuid.UUID) (*models.Account, error)
	Create(ctx context.Context, rc services.RequestContext, in services.CreateAccountInput) (*models.Account, error)
	Update(ctx context.Context, rc services.RequestContext, id uuid.UUID, in services.UpdateAccountInput) (*models.Account, error)
	Delete(ctx context.Context, rc services.RequestContext, id uuid.UUID) error
}

type balanceService interface {
	TotalBalance(ctx context.Context, rc services.RequestContext, ownerID *uuid.UUID) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, rc services.RequestContext, accountID uuid.UUID, page utils.Page) ([]models.AccountTransaction, utils.PageMeta, error)
}

// AccountController обрабатывает справочник счетов и чтение балансов
type AccountController struct {
	accounts accountService
	balances balanceService
}

func NewAccountController(accounts accountService, balances balanceService) *AccountController {
	return &AccountController{accounts: accounts, balances: balances}
}

// List обрабатывает GET /v1/accounts?search=&type=&page=&pageSize=
func (ac *AccountController) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	accounts, meta, err := ac.accounts.List(c.Request.Context(), rc, services.AccountFilter{
		Search: c.Query("search"),
		Type:   models.AccountType(strings.TrimSpace(c.Query("type"))),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, accounts, meta)
}

// TotalBalance обрабатывает GET /v1/accounts/total-balance?ownerId=
func (ac *AccountController) TotalBalance(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	ownerID, ok := queryUUID(c, "ownerId")
	if !ok {
		return
	}

	total, err := ac.balances.TotalBalance(c.Request.Context(), rc, ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"balance": total.StringFixed(2)})
}

// Get обрабатывает GET /v1/accounts/:id
func (ac *AccountController) Get(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	account, err := ac.accounts.Get(c.Request.Context(), rc, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, account)
}

// Create обрабатывает POST /v1/accounts
func (ac *AccountController) Create(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	var in services.CreateAccountInput
	if !bindJSON(c, &in) {
		return
	}

	account, err := ac.accounts.Create(c.Request.Context(), rc, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, account)
}

// Update обрабатывает PATCH /v1/accounts/:id
func (ac *AccountController) Update(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateAccountInput
	if !bindJSON(c, &in) {
		return
	}

	account, err := ac.accounts.Update(c.Request.Context(), rc, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, account)
}

// Delete обрабатывает DELETE /v1/accounts/:id; счет с проводками - 409
func (ac *AccountController) Delete(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := ac.accounts.Delete(c.Request.Context(), rc, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Transactions обрабатывает GET /v1/accounts/:id/transactions
func (ac *AccountController) Transactions(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	entries, meta, err := ac.balances.ListTransactions(c.Request.Context(), rc, id, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, entries, meta)
}
