// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/franchisehub/supply-backend/internal/config"
	"github.com/franchisehub/supply-backend/internal/models"
	"github.com/franchisehub/supply-backend/internal/utils"
)

// AuthService handles registration, login and token refresh. Public
// registration always yields a franchisee; staff accounts are created by
// admins or seeded.
type AuthService struct {
	db  *gorm.DB
	jwt config.JWTConfig
}

type RegisterRequest struct {
	Username     string `json:"username" validate:"required,username,min=3,max=50"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,strong_password"`
	Phone        string `json:"phone,omitempty"`
	CompanyName  string `json:"company_name" validate:"required,min=2,max=255"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zip_code,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

type UpdateFCMTokenRequest struct {
	FCMToken string `json:"fcm_token" validate:"required"`
}

func NewAuthService(db *gorm.DB, jwt config.JWTConfig) *AuthService {
	return &AuthService{db: db, jwt: jwt}
}

func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var existing models.User
	if err := s.db.First(&existing, "email = ? OR username = ?", req.Email, req.Username).Error; err == nil {
		return nil, errors.New("email or username already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.UserRoleFranchisee,
		Status:   models.UserStatusActive,
		Phone:    req.Phone,
		Profile: &models.FranchiseeProfile{
			CompanyName:  req.CompanyName,
			Address:      req.Address,
			City:         req.City,
			State:        req.State,
			ZipCode:      req.ZipCode,
			ContactName:  req.ContactName,
			ContactPhone: req.ContactPhone,
		},
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		profile := user.Profile
		user.Profile = nil
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("Franchisee registered")

	return user, nil
}

func (s *AuthService) Login(req *LoginRequest) (*models.User, *TokenPair, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	var user models.User
	if err := s.db.Preload("Profile").First(&user, "email = ?", req.Email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	if user.Status == models.UserStatusBlocked {
		return nil, nil, fmt.Errorf("account is blocked: %w", ErrUnauthorized)
	}

	tokens, err := s.issueTokens(&user)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login_at", now)
	user.LastLoginAt = &now

	return &user, tokens, nil
}

func (s *AuthService) RefreshToken(refreshToken string) (*TokenPair, error) {
	subject, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrUnauthorized)
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Status == models.UserStatusBlocked {
		return nil, fmt.Errorf("account is blocked: %w", ErrUnauthorized)
	}

	return s.issueTokens(user)
}

func (s *AuthService) GetUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Profile").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// UpdateFCMToken stores the device token push notifications are sent to.
func (s *AuthService) UpdateFCMToken(userID uuid.UUID, req *UpdateFCMTokenRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", req.FCMToken)
	if result.Error != nil {
		return fmt.Errorf("failed to update FCM token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role), s.jwt.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := utils.GenerateRefreshToken(user.ID, s.jwt.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.jwt.AccessTokenTTL * 3600,
	}, nil
}
