package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/usecase"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// usernameが既に使用済み
	ErrUsernameAlreadyUsed = errors.New("username already used")

	// refresh tokenが不正
	ErrInvalidRefresh = errors.New("invalid refresh")
)

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, req usecase.AuthRegisterRequest) error {
	username := strings.TrimSpace(req.Username)

	// 必須チェック
	if username == "" || req.Password == "" {
		return ErrInvalidInput
	}

	if !isUsernameLike(username) {
		return ErrInvalidInput
	}

	// パスワード最低文字数（MVP: 8）
	if len(req.Password) < 8 {
		return ErrInvalidInput
	}

	if req.Email != "" && !isEmailLike(req.Email) {
		return ErrInvalidInput
	}

	switch model.UserType(req.UserType) {
	case "", model.UserTypeIndividual:
		// 個人はFIOと電話が必須
		if strings.TrimSpace(req.FIO) == "" || strings.TrimSpace(req.Phone) == "" {
			return ErrInvalidInput
		}
	case model.UserTypeLegal:
		// 法人は会社情報が必須
		if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.INN) == "" {
			return ErrInvalidInput
		}
		if strings.TrimSpace(req.Phone) == "" {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}

	// username重複チェック（DBが必要）
	u, err := v.users.FindByUsername(ctx, username)
	if err == nil && u != nil {
		return ErrUsernameAlreadyUsed
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, username string, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrInvalidInput
	}
	return nil
}

// refresh 入力を検証
func (v *authValidator) ValidateRefresh(ctx context.Context, refreshToken string, userAgent string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return ErrInvalidRefresh
	}
	return nil
}

// 英数と._-のみ、3〜150文字
func isUsernameLike(s string) bool {
	re := regexp.MustCompile(`^[a-zA-Z0-9._-]{3,150}$`)
	return re.MatchString(s)
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	re := regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	return re.MatchString(s)
}
