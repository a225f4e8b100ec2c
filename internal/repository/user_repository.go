package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

type UserListQuery struct {
	Page     int
	Limit    int
	Role     string
	UserType string
	Q        string
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// プロフィール更新やロール変更など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error

	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
	CountByRole(ctx context.Context, role model.Role) (int64, error)
}
