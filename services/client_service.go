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
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientInput - данные клиента (создание и полная замена)
type ClientInput struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=120"`
	LastName  string `json:"lastName" validate:"required,min=1,max=120"`
	Document  string `json:"document" validate:"required,document"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"max=32"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// ClientFilter - фильтры списка клиентов
type ClientFilter struct {
	Search string
	Page   utils.Page
}

// ClientService предоставляет методы для работы с клиентами и их адресами
type ClientService struct {
	db        *gorm.DB
	validator *validator.Validate
}

// NewClientService создает новый экземпляр ClientService
func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{
		db:        db,
		validator: utils.NewValidator(),
	}
}

// List возвращает клиентов с поиском по имени, документу и email
func (s *ClientService) List(ctx context.Context, rc RequestContext, filter ClientFilter) ([]models.Client, utils.PageMeta, error) {
	query := s.db.WithContext(ctx).Model(&models.Client{}).
		Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id"))

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		if digits := utils.DigitsOnly(search); digits != "" {
			query = query.Where("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR document LIKE ?)",
				like, like, like, "%"+digits+"%")
		} else {
			query = query.Where("(first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?)", like, like, like)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to count clients", err)
	}

	clients := make([]models.Client, 0)
	err := query.Order("first_name ASC, last_name ASC, id ASC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit()).
		Find(&clients).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to list clients", err)
	}
	return clients, filter.Page.Meta(total), nil
}

// Get возвращает клиента с адресами
func (s *ClientService) Get(ctx context.Context, rc RequestContext, id uuid.UUID) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).
		Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("label ASC") }).
		First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("client not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load client", err)
	}
	return &client, nil
}

// Create создает клиента; документ и телефон сохраняются только цифрами
func (s *ClientService) Create(ctx context.Context, rc RequestContext, in ClientInput) (*models.Client, error) {
	start := time.Now()
	fields, err := s.canonical(in)
	if err != nil {
		return nil, err
	}
	tenantID, err := rc.RequireTenant()
	if err != nil {
		return nil, err
	}

	ownerID := rc.UserID
	client := &models.Client{
		TenantID:  tenantID,
		OwnerID:   &ownerID,
		FirstName: fields.FirstName,
		LastName:  fields.LastName,
		Document:  fields.Document,
		Email:     fields.Email,
		Phone:     fields.Phone,
		Notes:     fields.Notes,
	}

	err = s.db.WithContext(ctx).Create(client).Error
	utils.LogOperation("client_create", start, err)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewConflict("client with this document already exists")
		}
		return nil, NewInternal("failed to create client", err)
	}
	return client, nil
}

// Update заменяет данные клиента
func (s *ClientService) Update(ctx context.Context, rc RequestContext, id uuid.UUID, in ClientInput) (*models.Client, error) {
	fields, err := s.canonical(in)
	if err != nil {
		return nil, err
	}

	client, err := s.Get(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(client).Updates(map[string]interface{}{
		"first_name": fields.FirstName,
		"last_name":  fields.LastName,
		"document":   fields.Document,
		"email":      fields.Email,
		"phone":      fields.Phone,
		"notes":      fields.Notes,
	}).Error
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewConflict("client with this document already exists")
		}
		return nil, NewInternal("failed to update client", err)
	}
	return s.Get(ctx, rc, id)
}

// Delete удаляет клиента без займов
func (s *ClientService) Delete(ctx context.Context, rc RequestContext, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		err := tx.Scopes(rc.ScopeTenant("tenant_id"), rc.ScopeOwnership("owner_id")).
			First(&client, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NewNotFound("client not found")
		}
		if err != nil {
			return NewInternal("failed to load client", err)
		}

		var loans int64
		if err := tx.Model(&models.Loan{}).Where("client_id = ?", id).Count(&loans).Error; err != nil {
			return NewInternal("failed to count loans", err)
		}
		if loans > 0 {
			return NewConflict("client has loans and cannot be deleted")
		}

		if err := tx.Delete(&client).Error; err != nil {
			if database.IsForeignKeyViolation(err) {
				return NewConflict("client has loans and cannot be deleted")
			}
			return NewInternal("failed to delete client", err)
		}
		return nil
	})
}

// ListAddresses возвращает адреса клиента
func (s *ClientService) ListAddresses(ctx context.Context, rc RequestContext, clientID uuid.UUID) ([]models.ClientAddress, error) {
	client, err := s.Get(ctx, rc, clientID)
	if err != nil {
		return nil, err
	}
	if client.Addresses == nil {
		return []models.ClientAddress{}, nil
	}
	return client.Addresses, nil
}

// UpsertAddress создает или заменяет адрес клиента с меткой label
func (s *ClientService) UpsertAddress(ctx context.Context, rc RequestContext, clientID uuid.UUID, label models.AddressLabel, in AddressInput) (*models.ClientAddress, error) {
	if !label.IsValid() {
		return nil, NewValidationError("validation failed",
			utils.FieldError{Field: "label", Message: "must be one of: primary business billing shipping"})
	}
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}
	if _, err := s.Get(ctx, rc, clientID); err != nil {
		return nil, err
	}

	address := models.ClientAddress{
		ClientID: clientID,
		Label:    label,
		Address:  in.toAddress(),
	}
	db := s.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "label"}},
		DoUpdates: clause.AssignmentColumns(addressColumns),
	}).Create(&address).Error
	if err != nil {
		return nil, NewInternal("failed to save address", err)
	}

	var saved models.ClientAddress
	if err := db.First(&saved, "client_id = ? AND label = ?", clientID, label).Error; err != nil {
		return nil, NewInternal("failed to load address", err)
	}
	return &saved, nil
}

// DeleteAddress удаляет адрес клиента с меткой label
func (s *ClientService) DeleteAddress(ctx context.Context, rc RequestContext, clientID uuid.UUID, label models.AddressLabel) error {
	if _, err := s.Get(ctx, rc, clientID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("client_id = ? AND label = ?", clientID, label).
		Delete(&models.ClientAddress{})
	if res.Error != nil {
		return NewInternal("failed to delete address", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFound("address not found")
	}
	return nil
}

// canonical валидирует ввод и приводит его к каноническому виду
func (s *ClientService) canonical(in ClientInput) (ClientInput, error) {
	if err := s.validator.Struct(in); err != nil {
		return ClientInput{}, NewValidationErrorFrom(err)
	}

	phone := utils.DigitsOnly(in.Phone)
	if phone != "" && (len(phone) < 8 || len(phone) > 13) {
		return ClientInput{}, NewValidationError("validation failed",
			utils.FieldError{Field: "phone", Message: "must have between 8 and 13 digits"})
	}

	return ClientInput{
		FirstName: utils.NormalizeText(in.FirstName),
		LastName:  utils.NormalizeText(in.LastName),
		Document:  utils.DigitsOnly(in.Document),
		Email:     utils.NormalizeEmail(in.Email),
		Phone:     phone,
		Notes:     strings.TrimSpace(in.Notes),
	}, nil
}
