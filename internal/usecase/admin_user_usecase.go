package usecase

import (
	"context"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

type AdminUserUsecase struct {
	userRepo  repo.UserRepository
	auditRepo repo.AuditLogRepository
	logger    *zap.Logger
}

func NewAdminUserUsecase(userRepo repo.UserRepository, auditRepo repo.AuditLogRepository, logger *zap.Logger) *AdminUserUsecase {
	return &AdminUserUsecase{userRepo: userRepo, auditRepo: auditRepo, logger: logger}
}

type AdminUserListOutput struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (u *AdminUserUsecase) List(ctx context.Context, q repo.UserListQuery) (AdminUserListOutput, error) {
	if q.Page < 1 {
		return AdminUserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return AdminUserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if q.Role != "" {
		switch model.Role(q.Role) {
		case model.RoleCustomer, model.RoleAdmin, model.RoleSuperAdmin:
		default:
			return AdminUserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role")
		}
	}

	users, total, err := u.userRepo.List(ctx, q)
	if err != nil {
		return AdminUserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i]))
	}
	return AdminUserListOutput{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// ChangeRole はSUPERADMIN専用。
// 自分のロールは変えられない。最後のSUPERADMINを降格させることもできない。
// 変更後はtoken_versionを上げて既存トークンを無効にする。
func (u *AdminUserUsecase) ChangeRole(ctx context.Context, actorID int64, targetID int64, newRole model.Role) (UserDTO, error) {
	switch newRole {
	case model.RoleCustomer, model.RoleAdmin, model.RoleSuperAdmin:
	default:
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	if actorID == targetID {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot change own role")
	}

	target, err := u.userRepo.FindByID(ctx, targetID)
	if err != nil || target == nil {
		return UserDTO{}, NewHTTPError(http.StatusNotFound, "user not found")
	}

	if target.Role == newRole {
		return toUserDTO(target), nil
	}

	// 最後のSUPERADMIN保護
	if target.Role == model.RoleSuperAdmin && newRole != model.RoleSuperAdmin {
		n, err := u.userRepo.CountByRole(ctx, model.RoleSuperAdmin)
		if err != nil {
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if n <= 1 {
			return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot demote the last superadmin")
		}
	}

	prev := target.Role
	target.Role = newRole
	if err := u.userRepo.Update(ctx, target); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// 監査ログはベストエフォート
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       model.AuditActionChangeUserRole,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetID,
		Before:       string(prev),
		After:        string(newRole),
	}); err != nil {
		u.logger.Warn("audit log write failed", zap.Error(err))
	}

	// 既存のアクセストークンを失効させる
	if err := u.userRepo.IncrementTokenVersion(ctx, targetID); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	target.TokenVersion++

	return toUserDTO(target), nil
}
