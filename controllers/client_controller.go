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

type clientService interface {
	List(ctx context.Context, rc services.RequestContext, filter services.ClientFilter) ([]models.Client, utils.PageMeta, error)
	Get(ctx context.Context, rc services.RequestContext, id uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, rc services.RequestContext, in services.ClientInput) (*models.Client, error)
	Update(ctx context.Context, rc services.RequestContext, id uuid.UUID, in services.ClientInput) (*models.Client, error)
	Delete(ctx context.Context, rc services.RequestContext, id uuid.UUID) error
	ListAddresses(ctx context.Context, rc services.RequestContext, clientID uuid.UUID) ([]models.ClientAddress, error)
	UpsertAddress(ctx context.Context, rc services.RequestContext, clientID uuid.UUID, label models.AddressLabel, in services.AddressInput) (*models.ClientAddress, error)
	DeleteAddress(ctx context.Context, rc services.RequestContext, clientID uuid.UUID, label models.AddressLabel) error
}

// ClientController обрабатывает справочник клиентов и их адреса
type ClientController struct {
	clients clientService
}

func NewClientController(clients clientService) *ClientController {
	return &ClientController{clients: clients}
}

// List обрабатывает GET /v1/clients?search=&page=&pageSize=
func (cc *ClientController) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	clients, meta, err := cc.clients.List(c.Request.Context(), rc, services.ClientFilter{
		Search: c.Query("search"),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, clients, meta)
}

func (cc *ClientController) Get(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	client, err := cc.clients.Get(c.Request.Context(), rc, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}

func (cc *ClientController) Create(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	var in services.ClientInput
	if !bindJSON(c, &in) {
		return
	}

	client, err := cc.clients.Create(c.Request.Context(), rc, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, client)
}

func (cc *ClientController) Update(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.ClientInput
	if !bindJSON(c, &in) {
		return
	}

	client, err := cc.clients.Update(c.Request.Context(), rc, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, client)
}

func (cc *ClientController) Delete(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := cc.clients.Delete(c.Request.Context(), rc, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAddresses обрабатывает GET /v1/clients/:id/addresses
func (cc *ClientController) ListAddresses(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	addresses, err := cc.clients.ListAddresses(c.Request.Context(), rc, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, addresses)
}

// UpsertAddress обрабатывает PUT /v1/clients/:id/addresses/:label
func (cc *ClientController) UpsertAddress(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.AddressInput
	if !bindJSON(c, &in) {
		return
	}

	address, err := cc.clients.UpsertAddress(c.Request.Context(), rc, id, models.AddressLabel(c.Param("label")), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, address)
}

// DeleteAddress обрабатывает DELETE /v1/clients/:id/addresses/:label
func (cc *ClientController) DeleteAddress(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := cc.clients.DeleteAddress(c.Request.Context(), rc, id, models.AddressLabel(c.Param("label"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
