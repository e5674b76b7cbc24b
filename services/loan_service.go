package services

import (
	"context"
	"errors"
	"time"

	"lendingdesk/models"
	"lendingdesk/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanFilter - фильтры списка займов
type LoanFilter struct {
	Status   models.LoanStatus
	ClientID *uuid.UUID
	Page     utils.Page
}

// LoanService предоставляет методы для чтения займов и смены статуса
type LoanService struct {
	db *gorm.DB
}

// NewLoanService создает новый экземпляр LoanService
func NewLoanService(db *gorm.DB) *LoanService {
	return &LoanService{db: db}
}

// List возвращает займы арендатора с фильтрами
func (s *LoanService) List(ctx context.Context, rc RequestContext, filter LoanFilter) ([]models.Loan, utils.PageMeta, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, utils.PageMeta{}, NewValidationError("validation failed",
			utils.FieldError{Field: "status", Message: "is not a known loan status"})
	}

	query := s.db.WithContext(ctx).Model(&models.Loan{}).Scopes(rc.ScopeTenant("tenant_id"))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to count loans", err)
	}

	loans := make([]models.Loan, 0)
	err := query.Preload("Client").
		Order("created_at DESC, id DESC").
		Offset(filter.Page.Offset()).
		Limit(filter.Page.Limit()).
		Find(&loans).Error
	if err != nil {
		return nil, utils.PageMeta{}, NewInternal("failed to list loans", err)
	}
	return loans, filter.Page.Meta(total), nil
}

// Get возвращает займ по ID
func (s *LoanService) Get(ctx context.Context, rc RequestContext, id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	err := s.db.WithContext(ctx).
		Scopes(rc.ScopeTenant("tenant_id")).
		Preload("Client").
		First(&loan, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NewNotFound("loan not found")
	}
	if err != nil {
		return nil, NewInternal("failed to load loan", err)
	}
	return &loan, nil
}

// UpdateStatus вручную меняет статус займа
func (s *LoanService) UpdateStatus(ctx context.Context, rc RequestContext, id uuid.UUID, status models.LoanStatus) (*models.Loan, error) {
	start := time.Now()
	if !status.IsValid() {
		return nil, NewValidationError("validation failed",
			utils.FieldError{Field: "status", Message: "is not a known loan status"})
	}

	res := s.db.WithContext(ctx).
		Model(&models.Loan{}).
		Scopes(rc.ScopeTenant("tenant_id")).
		Where("id = ?", id).
		Update("status", status)
	utils.LogOperation("loan_status_update", start, res.Error)
	if res.Error != nil {
		return nil, NewInternal("failed to update loan status", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, NewNotFound("loan not found")
	}

	utils.Logger.Info().
		Str("loan_id", id.String()).
		Str("status", string(status)).
		Str("user_id", rc.UserID.String()).
		Msg("loan status updated")
	return s.Get(ctx, rc, id)
}

// Schedule возвращает аннуитетный график займа с заданным числом платежей
func (s *LoanService) Schedule(loan models.Loan) (*models.LoanSchedule, error) {
	schedule, ok := loan.Schedule()
	if !ok {
		return nil, NewValidationError("loan has no installment plan")
	}
	return &schedule, nil
}
