package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"lendingdesk/database"
	"lendingdesk/models"
	"lendingdesk/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CreateAccountInput - данные для создания счета
type CreateAccountInput struct {
	Name           string             `json:"name" validate:"required,min=2,max=120"`
	BankName       string             `json:"bankName" validate:"max=120"`
	Branch         string             `json:"branch" validate:"max=16"`
	AccountNumber  string             `json:"accountNumber" validate:"max=32"`
	Type           models.AccountType `json:"type" validate:"required,oneof=checking savings"`
	OpeningBalance decimal.Decimal    `json:"openingBalance" validate:"gte=0,lte=999999999999.99"`
	// Shared создает общий счет компании без владельца
	Shared  bool       `json:"shared"`
	OwnerID *uuid.UUID `json:"ownerId"`
}

// UpdateAccountInput - изменяемые поля счета; балансы этим путем не меняются
type UpdateAccountInput struct {
	Name          *string             `json:"name" validate:"omitempty,min=2,max=120"`
	BankName      *string             `json:"bankName" validate:"omitempty,max=120"`
	Branch        *string             `json:"branch" validate:"omitempty,max=16"`
	AccountNumber *string             `json:"accountNumber" validate:"omitempty,max=32"`
	Type          *models.AccountType `json:"type" validate:"omitempty,oneof=checking savings"`
}

// AccountFilter - фильтры списка счетов
type AccountFilter struct {
	Search string
	Type   models.AccountType
	Page   utils.Page
}

// AccountService предоставляет методы для работы со счетами
type AccountService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewAccountService создает новый экземпляр AccountService
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		db:        db,
		validator: utils.NewValidator(),
	}
}

// List возвращает счета с поиском, фильтром типа и фильтром владельца
func (s *AccountService) List(ctx context.Context, rc RequestContext, filter AccountFilter) ([]models.Account, utils.PageMeta, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, utils.PageMeta{}, NewValidationError("validation failed",
			utils.FieldError{Field: "type", Message: "must be one of: checking savings"})
	}

	query := s.db.WithContext(ctx).Model(&models.Account{}).
		Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id"))

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(name ILIKE ? OR bank_name ILIKE ? OR account_number ILIKE ?)", like, like, like)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to count accounts", err)
	}

	accounts := make([]models.Account, 0)
	err := query.Order("name ASC, id ASC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit()).
		Find(&accounts).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to list accounts", err)
	}
	return accounts, filter.Page.Meta(total), nil
}

// Get возвращает счет по ID в области видимости вызывающего
func (s *AccountService) Get(ctx context.Context, rc RequestContext, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
		First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("account not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load account", err)
	}
	return &account, nil
}

// Create создает счет; начальный баланс становится текущим
func (s *AccountService) Create(ctx context.Context, rc RequestContext, in CreateAccountInput) (*models.Account, error) {
	start := time.Now()
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}
	tenantID, err := rc.RequireTenant()
	if err != nil {
		return nil, err
	}

	var ownerID *uuid.UUID
	switch {
	case in.Shared:
		ownerID = nil
	case in.OwnerID != nil && *in.OwnerID != rc.UserID:
		if !rc.IsPrivileged() {
			return nil, NewForbidden("only administrators can assign accounts to other users")
		}
		if err := s.ensureTenantUser(ctx, tenantID, *in.OwnerID); err != nil {
			return nil, err
		}
		ownerID = in.OwnerID
	default:
		id := rc.UserID
		ownerID = &id
	}

	opening := in.OpeningBalance.Round(2)
	if opening.IsNegative() || opening.GreaterThan(utils.MaxMoneyAmount) {
		return nil, NewValidationError("validation failed",
			utils.FieldError{Field: "openingBalance", Message: "must be between 0 and " + utils.MaxMoneyAmount.StringFixed(2)})
	}
	account := &models.Account{
		TenantID:       tenantID,
		OwnerID:        ownerID,
		Name:           utils.NormalizeText(in.Name),
		BankName:       utils.NormalizeText(in.BankName),
		Branch:         utils.DigitsOnly(in.Branch),
		AccountNumber:  strings.TrimSpace(in.AccountNumber),
		Type:           in.Type,
		OpeningBalance: opening,
		CurrentBalance: opening,
	}

	err = s.db.WithContext(ctx).Create(account).Error
	utils.LogOperation("account_create", start, err)
	if err != nil {
		return nil, NewInternal("failed to create account", err)
	}
	return account, nil
}

// Update меняет название, банковские реквизиты и тип счета
func (s *AccountService) Update(ctx context.Context, rc RequestContext, id uuid.UUID, in UpdateAccountInput) (*models.Account, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = utils.NormalizeText(*in.Name)
	}
	if in.BankName != nil {
		updates["bank_name"] = utils.NormalizeText(*in.BankName)
	}
	if in.Branch != nil {
		updates["branch"] = utils.DigitsOnly(*in.Branch)
	}
	if in.AccountNumber != nil {
		updates["account_number"] = strings.TrimSpace(*in.AccountNumber)
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}

	account, err := s.Get(ctx, rc, id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return account, nil
	}

	if err := s.db.WithContext(ctx).Model(account).Updates(updates).Error; err != nil {
		return nil, NewInternal("failed to update account", err)
	}
	return s.Get(ctx, rc, id)
}

// Delete удаляет счет без проводок; счет с проводками удалить нельзя
func (s *AccountService) Delete(ctx context.Context, rc RequestContext, id uuid.UUID) error {
	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		err := tx.Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
			First(&account, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("account not found")
		}
		if err != nil {
			return NewInternal("failed to load account", err)
		}

		var linked int64
		if err := tx.Model(&models.AccountTransaction{}).Where("account_id = ?", id).Count(&linked).Error; err != nil {
			return NewInternal("failed to count transactions", err)
		}
		if linked > 0 {
			return NewConflict("account has transactions and cannot be deleted")
		}

		if err := tx.Delete(&account).Error; err != nil {
			// проводка могла появиться между проверкой и удалением
			if database.IsForeignKeyViolation(err) {
				return NewConflict("account has transactions and cannot be deleted")
			}
			return NewInternal("failed to delete account", err)
		}
		return nil
	})
	utils.LogOperation("account_delete", start, err)
	return err
}

func (s *AccountService) ensureTenantUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND tenant_id = ?", userID, tenantID).
		Count(&count).Error
	if err != nil {
		return NewInternal("failed to load user", err)
	}
	if count == 0 {
		return NewValidationError("validation failed",
			utils.FieldError{Field: "ownerId", Message: "must reference a user of the same tenant"})
	}
	return nil
}
