package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/summate/core/internal/models"
	"github.com/summate/core/internal/pkg/jwt"
)

var (
	ErrDuplicateUser      = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid signup input")
	ErrAccountDeactivated = errors.New("account deactivated")
)

// Service implements signup and session management.
type Service struct {
	db        *gorm.DB
	jwtSecret string
}

func NewService(db *gorm.DB, jwtSecret string) *Service {
	return &Service{db: db, jwtSecret: jwtSecret}
}

// Signup registers a new user with the default credit grant.
func (s *Service) Signup(userName, email, password string) (*models.UserModel, error) {
	userName = strings.TrimSpace(userName)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(userName) < 3 || len(userName) > 30 ||
		!strings.Contains(email, "@") || len(password) < 8 {
		return nil, ErrInvalidInput
	}

	var count int64
	err := s.db.Model(&models.UserModel{}).
		Where("user_name = ? OR email = ?", userName, email).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.UserModel{
		UserName: userName,
		Email:    email,
		Password: string(hash),
		Credits:  models.DefaultCredits,
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and issues a session token. rememberMe
// extends the token lifetime from one day to seven.
func (s *Service) Login(email, password string, rememberMe bool) (string, *models.UserModel, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.UserModel
	err := s.db.First(&user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.Status == models.StatusDeactivated {
		return "", nil, ErrAccountDeactivated
	}

	ttl := jwt.SessionTTL
	if rememberMe {
		ttl = jwt.ExtendedTTL
	}
	token, err := jwt.Sign(s.jwtSecret, user.ID, user.Role, ttl)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		return "", nil, fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &now

	return token, &user, nil
}

// CurrentUser loads the user behind a verified session.
func (s *Service) CurrentUser(userID string) (*models.UserModel, error) {
	var user models.UserModel
	err := s.db.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}
