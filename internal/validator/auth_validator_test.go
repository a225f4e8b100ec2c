package validator

import (
	"context"
	"testing"

	"app/internal/domain/model"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
)

// FindByUsernameだけ動けばよい
type userLookupStub struct {
	existing map[string]*model.User
}

func (s *userLookupStub) Create(ctx context.Context, user *model.User) error { panic("not used") }
func (s *userLookupStub) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	panic("not used")
}
func (s *userLookupStub) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := s.existing[username]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}
func (s *userLookupStub) Update(ctx context.Context, user *model.User) error { panic("not used") }
func (s *userLookupStub) IncrementTokenVersion(ctx context.Context, userID int64) error {
	panic("not used")
}
func (s *userLookupStub) List(ctx context.Context, q repository.UserListQuery) ([]model.User, int64, error) {
	panic("not used")
}
func (s *userLookupStub) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	panic("not used")
}

func validIndividual() usecase.AuthRegisterRequest {
	return usecase.AuthRegisterRequest{
		Username: "ivan",
		Password: "password123",
		UserType: "INDIVIDUAL",
		FIO:      "Иванов Иван",
		Phone:    "+998901112233",
	}
}

func TestAuthValidator_ValidateRegister(t *testing.T) {
	v := NewAuthValidator(&userLookupStub{})
	ctx := context.Background()

	assert.NoError(t, v.ValidateRegister(ctx, validIndividual()))

	cases := []struct {
		name   string
		mutate func(*usecase.AuthRegisterRequest)
		want   error
	}{
		{"empty username", func(r *usecase.AuthRegisterRequest) { r.Username = "" }, ErrInvalidInput},
		{"username too short", func(r *usecase.AuthRegisterRequest) { r.Username = "ab" }, ErrInvalidInput},
		{"username bad chars", func(r *usecase.AuthRegisterRequest) { r.Username = "ivan petrov" }, ErrInvalidInput},
		{"short password", func(r *usecase.AuthRegisterRequest) { r.Password = "1234567" }, ErrInvalidInput},
		{"bad email", func(r *usecase.AuthRegisterRequest) { r.Email = "not-an-email" }, ErrInvalidInput},
		{"individual without fio", func(r *usecase.AuthRegisterRequest) { r.FIO = "" }, ErrInvalidInput},
		{"individual without phone", func(r *usecase.AuthRegisterRequest) { r.Phone = "" }, ErrInvalidInput},
		{"unknown user type", func(r *usecase.AuthRegisterRequest) { r.UserType = "GOVERNMENT" }, ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validIndividual()
			tc.mutate(&req)
			assert.ErrorIs(t, v.ValidateRegister(ctx, req), tc.want)
		})
	}
}

func TestAuthValidator_ValidateRegister_Legal(t *testing.T) {
	v := NewAuthValidator(&userLookupStub{})
	ctx := context.Background()

	req := usecase.AuthRegisterRequest{
		Username:    "acme",
		Password:    "password123",
		UserType:    "LEGAL",
		CompanyName: "OOO Acme",
		INN:         "123456789",
		Phone:       "+998901112233",
	}
	assert.NoError(t, v.ValidateRegister(ctx, req))

	noINN := req
	noINN.INN = ""
	assert.ErrorIs(t, v.ValidateRegister(ctx, noINN), ErrInvalidInput)

	noCompany := req
	noCompany.CompanyName = ""
	assert.ErrorIs(t, v.ValidateRegister(ctx, noCompany), ErrInvalidInput)
}

func TestAuthValidator_ValidateRegister_DuplicateUsername(t *testing.T) {
	v := NewAuthValidator(&userLookupStub{existing: map[string]*model.User{
		"ivan": {ID: 1, Username: "ivan"},
	}})

	err := v.ValidateRegister(context.Background(), validIndividual())
	assert.ErrorIs(t, err, ErrUsernameAlreadyUsed)
}

func TestAuthValidator_ValidateLogin(t *testing.T) {
	v := NewAuthValidator(&userLookupStub{})
	ctx := context.Background()

	assert.NoError(t, v.ValidateLogin(ctx, "ivan", "password123"))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "", "password123"), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "ivan", ""), ErrInvalidInput)
}

func TestAuthValidator_ValidateRefresh(t *testing.T) {
	v := NewAuthValidator(&userLookupStub{})
	ctx := context.Background()

	assert.NoError(t, v.ValidateRefresh(ctx, "some-token", "ua"))
	assert.ErrorIs(t, v.ValidateRefresh(ctx, "  ", "ua"), ErrInvalidRefresh)
}
