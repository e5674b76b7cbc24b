package testutil

import (
	"fmt"
	"testing"

	"lendingdesk/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword - пароль всех пользователей, созданных SeedUser
const DefaultPassword = "Secret#123"

func SeedTenant(t *testing.T, db *gorm.DB, name string) models.Tenant {
	t.Helper()

	tenant := models.Tenant{
		Name:   name,
		Slug:   "tenant-" + uuid.NewString()[:8],
		Status: models.TenantStatusActive,
		Plan:   models.TenantPlanBasic,
	}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tenant
}

// SeedUser создает пользователя с паролем DefaultPassword; tenantID == nil допустим только для super_admin
func SeedUser(t *testing.T, db *gorm.DB, tenantID *uuid.UUID, role models.Role) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		TenantID:     tenantID,
		Name:         "User " + string(role),
		Email:        fmt.Sprintf("%s-%s@lending.test", role, uuid.NewString()[:8]),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func SeedClient(t *testing.T, db *gorm.DB, tenantID uuid.UUID, document string) models.Client {
	t.Helper()

	client := models.Client{
		TenantID:  tenantID,
		FirstName: "Maria",
		LastName:  "Silva",
		Document:  document,
		Email:     "maria.silva@example.com",
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return client
}

// SeedAccount создает счет с одинаковыми начальным и текущим балансом; ownerID == nil - общий счет
func SeedAccount(t *testing.T, db *gorm.DB, tenantID uuid.UUID, ownerID *uuid.UUID, balance string) models.Account {
	t.Helper()

	amount := decimal.RequireFromString(balance)
	account := models.Account{
		TenantID:       tenantID,
		OwnerID:        ownerID,
		Name:           "Main account",
		Type:           models.AccountTypeChecking,
		OpeningBalance: amount,
		CurrentBalance: amount,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}
