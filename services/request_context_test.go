package services

import (
	"testing"

	"lendingdesk/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB строит SQL без подключения к базе
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost dbname=dry"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func scopedSQL(t *testing.T, scopes ...func(*gorm.DB) *gorm.DB) (string, []interface{}) {
	t.Helper()
	var accounts []models.Account
	stmt := dryRunDB(t).Scopes(scopes...).Find(&accounts).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestNewRequestContext(t *testing.T) {
	tenantID := uuid.New()
	user := models.User{ID: uuid.New(), Email: "op@lending.test", Role: models.RoleOperator}

	rc := NewRequestContext(user, &tenantID)
	tenantID = uuid.New()

	got, ok := rc.Tenant()
	require.True(t, ok)
	assert.NotEqual(t, tenantID, got)
	assert.False(t, rc.IsPrivileged())
	assert.True(t, rc.HasRole(models.RoleAdmin, models.RoleOperator))
	assert.False(t, rc.HasRole(models.RoleAdmin))
}

func TestRequireTenant(t *testing.T) {
	rc := NewRequestContext(models.User{ID: uuid.New(), Role: models.RoleSuperAdmin}, nil)
	assert.True(t, rc.IsPrivileged())

	_, err := rc.RequireTenant()
	assert.True(t, IsKind(err, KindForbidden))
}

func TestScopeTenant(t *testing.T) {
	tenantID := uuid.New()

	withTenant := NewRequestContext(models.User{ID: uuid.New(), Role: models.RoleOperator}, &tenantID)
	sql, vars := scopedSQL(t, withTenant.ScopeTenant("tenant_id"))
	assert.Contains(t, sql, "tenant_id = $1")
	assert.Equal(t, []interface{}{tenantID}, vars)

	superAdmin := NewRequestContext(models.User{ID: uuid.New(), Role: models.RoleSuperAdmin}, nil)
	sql, _ = scopedSQL(t, superAdmin.ScopeTenant("tenant_id"))
	assert.NotContains(t, sql, "WHERE")

	orphan := NewRequestContext(models.User{ID: uuid.New(), Role: models.RoleAdmin}, nil)
	sql, _ = scopedSQL(t, orphan.ScopeTenant("tenant_id"))
	assert.Contains(t, sql, "1 = 0")
}

func TestScopeOwnership(t *testing.T) {
	tenantID := uuid.New()
	operator := NewRequestContext(models.User{ID: uuid.New(), Role: models.RoleOperator}, &tenantID)

	sql, vars := scopedSQL(t, operator.ScopeOwnership("owner_id"))
	assert.Contains(t, sql, "(owner_id = $1 OR owner_id IS NULL)")
	assert.Equal(t, []interface{}{operator.UserID}, vars)

	admin := NewRequestContext(models.User{ID: uuid.New(), Role: models.RoleAdmin}, &tenantID)
	sql, _ = scopedSQL(t, admin.ScopeOwnership("owner_id"))
	assert.NotContains(t, sql, "owner_id")
}
