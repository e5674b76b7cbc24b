package controllers

import (
	"context"
	"net/http"

	"lendingdesk/models"
	"lendingdesk/services"
	"lendingdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type tenantService interface {
	List(ctx context.Context, page utils.Page) ([]models.Tenant, utils.PageMeta, error)
	Create(ctx context.Context, in services.CreateTenantInput) (*models.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateTenantInput) (*models.Tenant, error)
	Subscription(ctx context.Context, rc services.RequestContext) (*services.Subscription, error)
}

// TenantController обрабатывает управление арендаторами и подписку
type TenantController struct {
	tenants tenantService
}

func NewTenantController(tenants tenantService) *TenantController {
	return &TenantController{tenants: tenants}
}

func (tc *TenantController) List(c *gin.Context) {
	tenants, meta, err := tc.tenants.List(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, tenants, meta)
}

func (tc *TenantController) Create(c *gin.Context) {
	var in services.CreateTenantInput
	if !bindJSON(c, &in) {
		return
	}

	tenant, err := tc.tenants.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, tenant)
}

func (tc *TenantController) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateTenantInput
	if !bindJSON(c, &in) {
		return
	}

	tenant, err := tc.tenants.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, tenant)
}

// Subscription обрабатывает GET /v1/subscription; доступен и приостановленному арендатору
func (tc *TenantController) Subscription(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	sub, err := tc.tenants.Subscription(c.Request.Context(), rc)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, sub)
}
