package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/summate/core/internal/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrDuplicateUser = errors.New("username or email already in use")
	ErrInvalidInput  = errors.New("invalid user input")
	ErrSelfDelete    = errors.New("cannot delete own account")
)

// InactivityWindow is how long an account may go without a login before
// the sweep deactivates it.
const InactivityWindow = 30 * 24 * time.Hour

// Service implements the admin user surface.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// List returns all non-admin accounts, newest first.
func (s *Service) List() ([]models.UserModel, error) {
	var users []models.UserModel
	err := s.db.Where("role <> ?", models.RoleAdmin).
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Service) Get(id string) (*models.UserModel, error) {
	var user models.UserModel
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// CreateInput carries the fields an admin may set on a new account.
type CreateInput struct {
	UserName string
	Email    string
	Password string
	Credits  *int
	Role     string
	Status   string
}

func (s *Service) Create(in CreateInput) (*models.UserModel, error) {
	userName := strings.TrimSpace(in.UserName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len(userName) < 3 || len(userName) > 30 ||
		!strings.Contains(email, "@") || len(in.Password) < 8 {
		return nil, ErrInvalidInput
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, ErrInvalidInput
	}
	status := in.Status
	if status == "" {
		status = models.StatusActive
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

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	credits := models.DefaultCredits
	if in.Credits != nil {
		credits = *in.Credits
	}

	user := &models.UserModel{
		UserName: userName,
		Email:    email,
		Password: string(hash),
		Credits:  credits,
		Role:     role,
		Status:   status,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// UpdateInput carries the mutable account fields. Nil pointers leave the
// stored value alone.
type UpdateInput struct {
	UserName *string
	Email    *string
	Credits  *int
	Role     *string
	Status   *string
}

func (s *Service) Update(id string, in UpdateInput) (*models.UserModel, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if in.UserName != nil {
		name := strings.TrimSpace(*in.UserName)
		if len(name) < 3 || len(name) > 30 {
			return nil, ErrInvalidInput
		}
		updates["user_name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !strings.Contains(email, "@") {
			return nil, ErrInvalidInput
		}
		updates["email"] = email
	}
	if in.Credits != nil {
		if *in.Credits < 0 {
			return nil, ErrInvalidInput
		}
		updates["credits"] = *in.Credits
	}
	if in.Role != nil {
		if !models.ValidRole(*in.Role) {
			return nil, ErrInvalidInput
		}
		updates["role"] = *in.Role
	}
	if in.Status != nil {
		if *in.Status != models.StatusActive && *in.Status != models.StatusDeactivated {
			return nil, ErrInvalidInput
		}
		updates["status"] = *in.Status
	}

	if name, ok := updates["user_name"]; ok {
		if taken, err := s.identityTaken(id, "user_name", name.(string)); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrDuplicateUser
		}
	}
	if email, ok := updates["email"]; ok {
		if taken, err := s.identityTaken(id, "email", email.(string)); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrDuplicateUser
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return user, nil
}

func (s *Service) identityTaken(excludeID, column, value string) (bool, error) {
	var count int64
	err := s.db.Model(&models.UserModel{}).
		Where(column+" = ? AND id <> ?", value, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check duplicates: %w", err)
	}
	return count > 0, nil
}

// Delete removes an account. requesterID guards against an admin removing
// themselves.
func (s *Service) Delete(id, requesterID string) error {
	if id == requesterID {
		return ErrSelfDelete
	}

	res := s.db.Delete(&models.UserModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateInactive flips accounts whose last login is older than the
// inactivity window to Deactivated. Accounts that never logged in are
// judged by their creation time.
func (s *Service) DeactivateInactive(now time.Time) (int64, error) {
	cutoff := now.Add(-InactivityWindow)

	res := s.db.Model(&models.UserModel{}).
		Where("status = ?", models.StatusActive).
		Where("role <> ?", models.RoleAdmin).
		Where("(last_login IS NOT NULL AND last_login < ?) OR (last_login IS NULL AND created_at < ?)",
			cutoff, cutoff).
		Update("status", models.StatusDeactivated)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate inactive users: %w", res.Error)
	}

	if res.RowsAffected > 0 {
		s.logger.Info("deactivated inactive accounts", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
