package model

import "time"

type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// ADMIN以上かどうか
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type UserType string

const (
	UserTypeIndividual UserType = "INDIVIDUAL"
	UserTypeLegal      UserType = "LEGAL"
)

type User struct {
	ID           int64    `gorm:"primaryKey;autoIncrement"`
	Username     string   `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string   `gorm:"type:varchar(254)"`
	PasswordHash string   `gorm:"column:password_hash;not null"`
	Role         Role     `gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
	UserType     UserType `gorm:"type:varchar(20);not null;default:'INDIVIDUAL'"`

	FIO     string `gorm:"type:varchar(255)"`
	Phone   string `gorm:"type:varchar(32)"`
	Address string `gorm:"type:varchar(255)"`

	// 法人向け
	CompanyName       string `gorm:"type:varchar(255)"`
	INN               string `gorm:"type:varchar(64)"`
	BankDetails       string `gorm:"type:varchar(255)"`
	LegalAddress      string `gorm:"type:varchar(255)"`
	ResponsiblePerson string `gorm:"type:varchar(255)"`

	TokenVersion int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"`
}

// 通知や管理画面で使う表示名（法人は会社名を優先）
func (u User) DisplayName() string {
	if u.UserType == UserTypeLegal && u.CompanyName != "" {
		return u.CompanyName
	}
	if u.FIO != "" {
		return u.FIO
	}
	return u.Username
}
