// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;index"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Phone        string     `json:"phone,omitempty" gorm:"size:30"`
	FCMToken     *string    `json:"fcm_token,omitempty" gorm:"size:512"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Profile       *FranchiseeProfile  `json:"profile,omitempty" gorm:"foreignKey:UserID"`
	Orders        []Order             `json:"orders,omitempty" gorm:"foreignKey:UserID"`
	Notifications []OrderNotification `json:"notifications,omitempty" gorm:"foreignKey:UserID"`
}

// FranchiseeProfile holds the company details attached to ordering users.
// Staff accounts (admin, warehouse) have no profile row.
type FranchiseeProfile struct {
	BaseModel
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	CompanyName  string    `json:"company_name" gorm:"size:255;not null"`
	Address      string    `json:"address" gorm:"size:255"`
	City         string    `json:"city" gorm:"size:100"`
	State        string    `json:"state" gorm:"size:100"`
	ZipCode      string    `json:"zip_code" gorm:"size:20"`
	ContactName  string    `json:"contact_name" gorm:"size:100"`
	ContactPhone string    `json:"contact_phone" gorm:"size:30"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) IsStaff() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleWarehouse
}
