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

type CreateUserInput struct {
	Name      string      `json:"name" validate:"required,min=2,max=120"`
	Email     string      `json:"email" validate:"required,email,max=255"`
	Password  string      `json:"password" validate:"required,min=8,max=72,password"`
	Role      models.Role `json:"role" validate:"required,oneof=super_admin admin operator viewer"`
	TenantID  *uuid.UUID  `json:"tenantId"`
	AvatarURL *string     `json:"avatarUrl" validate:"omitempty,url,max=512"`
}

type UpdateUserInput struct {
	Name      *string      `json:"name" validate:"omitempty,min=2,max=120"`
	Role      *models.Role `json:"role" validate:"omitempty,oneof=super_admin admin operator viewer"`
	AvatarURL *string      `json:"avatarUrl" validate:"omitempty,url,max=512"`
}

// UserFilter - фильтры списка пользователей
type UserFilter struct {
	Search string
	Role   models.Role
	Page   utils.Page
}

type UserService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:        db,
		validator: utils.NewValidator(),
	}
}

// List возвращает сотрудников арендатора; super_admin без арендатора видит всех
func (s *UserService) List(ctx context.Context, rc RequestContext, filter UserFilter) ([]models.User, utils.PageMeta, error) {
	query := s.db.WithContext(ctx).Model(&models.User{}).Scopes(rc.ScopeTenant("tenant_id"))

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(name ILIKE ? OR email ILIKE ?)", like, like)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to count users", err)
	}

	users := make([]models.User, 0)
	err := query.Order("name ASC, id ASC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit()).
		Find(&users).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to list users", err)
	}
	return users, filter.Page.Meta(total), nil
}

// Get возвращает сотрудника по ID в пределах арендатора
func (s *UserService) Get(ctx context.Context, rc RequestContext, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Scopes(rc.ScopeTenant("tenant_id")).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("user not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load user", err)
	}
	return &user, nil
}

// Profile возвращает профиль текущего пользователя вместе с арендатором
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Tenant").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("user not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load user", err)
	}
	return &user, nil
}

// FindByEmail ищет пользователя по email (игнорируя регистр и пробелы)
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("user not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load user", err)
	}
	return &user, nil
}

// Create создает сотрудника. Администратор создает пользователей только в своем арендаторе
// и не может назначить роль super_admin.
func (s *UserService) Create(ctx context.Context, rc RequestContext, in CreateUserInput) (*models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	var tenantID *uuid.UUID
	switch {
	case in.Role == models.RoleSuperAdmin:
		if !rc.IsSuperAdmin {
			return nil, NewForbidden("only super administrators can create super administrators")
		}
	case rc.IsSuperAdmin && in.TenantID != nil:
		tenantID = in.TenantID
	default:
		id, err := rc.RequireTenant()
		if err != nil {
			return nil, err
		}
		tenantID = &id
	}

	return s.create(ctx, in, tenantID)
}

// CreateSuperAdmin создает первого super_admin (используется CLI)
func (s *UserService) CreateSuperAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	in := CreateUserInput{Name: name, Email: email, Password: password, Role: models.RoleSuperAdmin}
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}
	return s.create(ctx, in, nil)
}

func (s *UserService) create(ctx context.Context, in CreateUserInput, tenantID *uuid.UUID) (*models.User, error) {
	start := time.Now()

	// Хешируем пароль
	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, NewInternal("failed to hash password", err)
	}

	user := &models.User{
		TenantID:     tenantID,
		Name:         utils.NormalizeText(in.Name),
		Email:        utils.NormalizeEmail(in.Email),
		PasswordHash: hashedPassword,
		Role:         in.Role,
		AvatarURL:    in.AvatarURL,
	}

	err = s.db.WithContext(ctx).Create(user).Error
	utils.LogOperation("user_create", start, err)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewConflict("user with this email already exists")
		}
		if database.IsForeignKeyViolation(err) {
			return nil, NewValidationError("validation failed",
				utils.FieldError{Field: "tenantId", Message: "must reference an existing tenant"})
		}
		return nil, NewInternal("failed to create user", err)
	}
	return user, nil
}

// Update меняет имя, роль и аватар сотрудника
func (s *UserService) Update(ctx context.Context, rc RequestContext, id uuid.UUID, in UpdateUserInput) (*models.User, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	user, err := s.Get(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = utils.NormalizeText(*in.Name)
	}
	if in.Role != nil {
		if (*in.Role == models.RoleSuperAdmin || user.Role == models.RoleSuperAdmin) && !rc.IsSuperAdmin {
			return nil, NewForbidden("only super administrators can manage super administrators")
		}
		updates["role"] = *in.Role
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, NewInternal("failed to update user", err)
	}
	return s.Get(ctx, rc, id)
}

// Delete удаляет сотрудника; удалить самого себя нельзя
func (s *UserService) Delete(ctx context.Context, rc RequestContext, id uuid.UUID) error {
	if id == rc.UserID {
		return NewConflict("cannot delete the current user")
	}

	user, err := s.Get(ctx, rc, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleSuperAdmin && !rc.IsSuperAdmin {
		return NewForbidden("only super administrators can manage super administrators")
	}

	if err := s.db.WithContext(ctx).Delete(user).Error; err != nil {
		return NewInternal("failed to delete user", err)
	}
	return nil
}

// GetAddress возвращает адрес сотрудника
func (s *UserService) GetAddress(ctx context.Context, userID uuid.UUID) (*models.UserAddress, error) {
	var address models.UserAddress
	err := s.db.WithContext(ctx).First(&address, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("address not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load address", err)
	}
	return &address, nil
}

// UpsertAddress создает или заменяет единственный адрес сотрудника (уникален по user_id)
func (s *UserService) UpsertAddress(ctx context.Context, userID uuid.UUID, in AddressInput) (*models.UserAddress, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, NewValidationErrorFrom(err)
	}

	address := models.UserAddress{UserID: userID, Address: in.toAddress()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(addressColumns),
	}).Create(&address).Error
	if err != nil {
		return nil, NewInternal("failed to save address", err)
	}
	return s.GetAddress(ctx, userID)
}
