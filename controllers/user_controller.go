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

type userService interface {
	List(ctx context.Context, rc services.RequestContext, filter services.UserFilter) ([]models.User, utils.PageMeta, error)
	Get(ctx context.Context, rc services.RequestContext, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, rc services.RequestContext, in services.CreateUserInput) (*models.User, error)
	Update(ctx context.Context, rc services.RequestContext, id uuid.UUID, in services.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, rc services.RequestContext, id uuid.UUID) error
	GetAddress(ctx context.Context, userID uuid.UUID) (*models.UserAddress, error)
	UpsertAddress(ctx context.Context, userID uuid.UUID, in services.AddressInput) (*models.UserAddress, error)
}

// UserController обрабатывает справочник сотрудников и адрес текущего пользователя
type UserController struct {
	users userService
}

func NewUserController(users userService) *UserController {
	return &UserController{users: users}
}

// List обрабатывает GET /v1/users?search=&role=&page=&pageSize=
func (uc *UserController) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	users, meta, err := uc.users.List(c.Request.Context(), rc, services.UserFilter{
		Search: c.Query("search"),
		Role:   models.Role(strings.TrimSpace(c.Query("role"))),
		Page:   pageFromQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, users, meta)
}

func (uc *UserController) Get(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	user, err := uc.users.Get(c.Request.Context(), rc, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (uc *UserController) Create(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	var in services.CreateUserInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := uc.users.Create(c.Request.Context(), rc, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

func (uc *UserController) Update(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var in services.UpdateUserInput
	if !bindJSON(c, &in) {
		return
	}

	user, err := uc.users.Update(c.Request.Context(), rc, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (uc *UserController) Delete(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := uc.users.Delete(c.Request.Context(), rc, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyAddress обрабатывает GET /v1/users/me/address
func (uc *UserController) MyAddress(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	address, err := uc.users.GetAddress(c.Request.Context(), rc.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, address)
}

// SaveMyAddress обрабатывает PUT /v1/users/me/address
func (uc *UserController) SaveMyAddress(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	var in services.AddressInput
	if !bindJSON(c, &in) {
		return
	}

	address, err := uc.users.UpsertAddress(c.Request.Context(), rc.UserID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, address)
}
