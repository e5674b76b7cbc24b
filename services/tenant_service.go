package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"lendingdesk/database"
	"lendingdesk/models"
	"lendingdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

type CreateTenantInput struct {
	Name string            `json:"name" validate:"required,min=2,max=120"`
	Slug string            `json:"slug" validate:"omitempty,max=64"`
	Plan models.TenantPlan `json:"plan" validate:"omitempty,oneof=free basic pro enterprise"`
}

type UpdateTenantInput struct {
	Name   *string              `json:"name" validate:"omitempty,min=2,max=120"`
	Status *models.TenantStatus `json:"status" validate:"omitempty,oneof=active suspended canceled"`
	Plan   *models.TenantPlan   `json:"plan" validate:"omitempty,oneof=free basic pro enterprise"`
}

// Subscription - тариф и состояние арендатора вызывающего
type Subscription struct {
	TenantID uuid.UUID           `json:"tenantId"`
	Name     string              `json:"name"`
	Plan     models.TenantPlan   `json:"plan"`
	Status   models.TenantStatus `json:"status"`
}

// TenantService управляет арендаторами (только super_admin) и отдает подписку текущего арендатора
type TenantService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{
		db:        db,
		validator: utils.NewValidator(),
	}
}

func (s *TenantService) List(ctx context.Context, page utils.Page) ([]models.Tenant, utils.PageMeta, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Tenant{}).Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to count tenants", err)
	}

	tenants := make([]models.Tenant, 0)
	err := s.db.WithContext(ctx).
		Order("name ASC, id ASC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&tenants).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to list tenants", err)
	}
	return tenants, page.Meta(total), nil
}

// Get возвращает арендатора по ID
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.WithContext(ctx).First(&tenant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("tenant not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load tenant", err)
	}
	return &tenant, nil
}

func (s *TenantService) Create(ctx context.Context, in CreateTenantInput) (*models.Tenant, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	slug := Slugify(in.Slug)
	if slug == "" {
		slug = Slugify(in.Name)
	}
	if slug == "" {
		return nil, NewValidationError("validation failed",
			utils.FieldError{Field: "slug", Message: "must contain letters or digits"})
	}

	plan := in.Plan
	if plan == "" {
		plan = models.TenantPlanFree
	}

	tenant := &models.Tenant{
		Name:   utils.NormalizeText(in.Name),
		Slug:   slug,
		Status: models.TenantStatusActive,
		Plan:   plan,
	}
	if err := s.db.WithContext(ctx).Create(tenant).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewConflict("tenant with this slug already exists")
		}
		return nil, NewInternal("failed to create tenant", err)
	}

	utils.Logger.Info().Str("tenant_id", tenant.ID.String()).Str("slug", tenant.Slug).Msg("tenant created")
	return tenant, nil
}

// Update меняет название, статус или тариф арендатора
func (s *TenantService) Update(ctx context.Context, id uuid.UUID, in UpdateTenantInput) (*models.Tenant, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = utils.NormalizeText(*in.Name)
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Plan != nil {
		updates["plan"] = *in.Plan
	}
	if len(updates) == 0 {
		return tenant, nil
	}

	if err := s.db.WithContext(ctx).Model(tenant).Updates(updates).Error; err != nil {
		return nil, NewInternal("failed to update tenant", err)
	}

	if in.Status != nil {
		utils.Logger.Info().Str("tenant_id", id.String()).Str("status", string(*in.Status)).Msg("tenant status changed")
	}
	return s.Get(ctx, id)
}

// Subscription возвращает тариф и статус арендатора вызывающего
func (s *TenantService) Subscription(ctx context.Context, rc RequestContext) (*Subscription, error) {
	tenantID, err := rc.RequireTenant()
	if err != nil {
		return nil, err
	}
	tenant, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &Subscription{TenantID: tenant.ID, Name: tenant.Name, Plan: tenant.Plan, Status: tenant.Status}, nil
}

// Slugify строит slug из произвольной строки: "Crédito Fácil Ltda" -> "cr-dito-f-cil-ltda"
func Slugify(s string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 64 {
		slug = strings.TrimRight(slug[:64], "-")
	}
	return slug
}
