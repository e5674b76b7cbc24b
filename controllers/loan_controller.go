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
)

type loanService interface {
	List(ctx context.Context, rc services.RequestContext, filter services.LoanFilter) ([]models.Loan, utils.PageMeta, error)
	Get(ctx context.Context, rc services.RequestContext, id uuid.UUID) (*models.Loan, error)
	UpdateStatus(ctx context.Context, rc services.RequestContext, id uuid.UUID, status models.LoanStatus) (*models.Loan, error)
	Schedule(loan models.Loan) (*models.LoanSchedule, error)
}

// LoanController обрабатывает чтение займов, график платежей и смену статуса
type LoanController struct {
	loans loanService
}

func NewLoanController(loans loanService) *LoanController {
	return &LoanController{loans: loans}
}

type loanStatusRequest struct {
	Status models.LoanStatus `json:"status"`
}

// List обрабатывает GET /loans?status=&clientId=&page=&pageSize=
func (lc *LoanController) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	clientID, ok := queryUUID(c, "clientId")
	if !ok {
		return
	}

	loans, meta, err := lc.loans.List(c.Request.Context(), rc, services.LoanFilter{
		Status:   models.LoanStatus(strings.TrimSpace(c.Query("status"))),
		ClientID: clientID,
		Page:     pageFromQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, loans, meta)
}

// Get обрабатывает GET /loans/:id
func (lc *LoanController) Get(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	loan, err := lc.loans.Get(c.Request.Context(), rc, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, loan)
}

// Schedule обрабатывает GET /loans/:id/schedule
func (lc *LoanController) Schedule(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	loan, err := lc.loans.Get(c.Request.Context(), rc, id)
	if err != nil {
		respondError(c, err)
		return
	}
	schedule, err := lc.loans.Schedule(*loan)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, schedule)
}

// UpdateStatus обрабатывает PATCH /loans/:id/status
func (lc *LoanController) UpdateStatus(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req loanStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	loan, err := lc.loans.UpdateStatus(c.Request.Context(), rc, id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, loan)
}
