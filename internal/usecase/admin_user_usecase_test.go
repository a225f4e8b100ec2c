package usecase

import (
	"context"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAdminUserTestEnv() (*AdminUserUsecase, *memUserRepo, *memAuditRepo) {
	users := newMemUserRepo()
	audit := &memAuditRepo{}
	uc := NewAdminUserUsecase(users, audit, zap.NewNop())
	return uc, users, audit
}

func TestAdminUserUsecase_ChangeRole_InvalidRole(t *testing.T) {
	uc, _, _ := newAdminUserTestEnv()

	_, err := uc.ChangeRole(context.Background(), 1, 2, model.Role("OWNER"))
	assertHTTPError(t, err, 400, "invalid role")
}

func TestAdminUserUsecase_ChangeRole_OwnRole(t *testing.T) {
	uc, users, _ := newAdminUserTestEnv()
	users.put(model.User{ID: 1, Username: "root", Role: model.RoleSuperAdmin})

	_, err := uc.ChangeRole(context.Background(), 1, 1, model.RoleCustomer)
	assertHTTPError(t, err, 400, "cannot change own role")
}

func TestAdminUserUsecase_ChangeRole_LastSuperAdminProtected(t *testing.T) {
	uc, users, _ := newAdminUserTestEnv()
	users.put(model.User{ID: 1, Username: "root", Role: model.RoleSuperAdmin})
	users.put(model.User{ID: 2, Username: "only", Role: model.RoleSuperAdmin})

	// SUPERADMINが2人いれば降格できる
	out, err := uc.ChangeRole(context.Background(), 1, 2, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", out.Role)

	// 残り1人になったら降格できない
	_, err = uc.ChangeRole(context.Background(), 2, 1, model.RoleAdmin)
	assertHTTPError(t, err, 400, "cannot demote the last superadmin")
}

func TestAdminUserUsecase_ChangeRole_SameRoleIsNoop(t *testing.T) {
	uc, users, audit := newAdminUserTestEnv()
	users.put(model.User{ID: 1, Username: "root", Role: model.RoleSuperAdmin})
	users.put(model.User{ID: 2, Username: "bob", Role: model.RoleCustomer})

	out, err := uc.ChangeRole(context.Background(), 1, 2, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, "CUSTOMER", out.Role)

	// token_versionも監査ログも動かない
	u, err := users.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, u.TokenVersion)
	logs, _ := audit.List(context.Background(), repo.AuditLogFilter{})
	assert.Empty(t, logs)
}

func TestAdminUserUsecase_ChangeRole_PromotesAndInvalidatesTokens(t *testing.T) {
	uc, users, audit := newAdminUserTestEnv()
	users.put(model.User{ID: 1, Username: "root", Role: model.RoleSuperAdmin})
	users.put(model.User{ID: 2, Username: "bob", Role: model.RoleCustomer})

	out, err := uc.ChangeRole(context.Background(), 1, 2, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", out.Role)
	assert.Equal(t, 1, out.TokenVersion)

	stored, err := users.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, stored.Role)
	assert.Equal(t, 1, stored.TokenVersion)

	logs, err := audit.List(context.Background(), repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionChangeUserRole, logs[0].Action)
	assert.Equal(t, int64(1), logs[0].ActorUserID)
	assert.Equal(t, int64(2), logs[0].ResourceID)
	assert.Equal(t, "CUSTOMER", logs[0].Before)
	assert.Equal(t, "ADMIN", logs[0].After)
}

func TestAdminUserUsecase_List_Validation(t *testing.T) {
	uc, users, _ := newAdminUserTestEnv()
	users.put(model.User{ID: 1, Username: "root", Role: model.RoleSuperAdmin})

	_, err := uc.List(context.Background(), repo.UserListQuery{Page: 0, Limit: 20})
	assertHTTPError(t, err, 400, "invalid page")

	_, err = uc.List(context.Background(), repo.UserListQuery{Page: 1, Limit: 101})
	assertHTTPError(t, err, 400, "invalid limit")

	_, err = uc.List(context.Background(), repo.UserListQuery{Page: 1, Limit: 20, Role: "OWNER"})
	assertHTTPError(t, err, 400, "invalid role")

	out, err := uc.List(context.Background(), repo.UserListQuery{Page: 1, Limit: 20, Role: "SUPERADMIN"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
}
