package auth

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"library-system/pkg/models"
	"library-system/pkg/pagination"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrBadRole      = errors.New("role must be admin or user")
)

type UserPage struct {
	Items         []models.User
	Page          int
	PageSize      int
	TotalElements int64
	TotalPages    int
}

// ListUsers pages through all accounts, ordered by username.
func (s *Service) ListUsers(page int) (*UserPage, error) {
	page = pagination.Clamp(page)

	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.User
	err := s.db.Order("username ASC").
		Offset(pagination.Offset(page)).
		Limit(pagination.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &UserPage{
		Items:         items,
		Page:          page,
		PageSize:      pagination.PageSize,
		TotalElements: total,
		TotalPages:    pagination.TotalPages(total),
	}, nil
}

func (s *Service) GetUser(userUid string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("user_uid = ?", userUid).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

// CreateUser is the admin variant of Register: it may set the role.
func (s *Service) CreateUser(username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, ErrBadRole
	}

	var existing models.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		UserUid:      uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes the role and/or password. Empty fields are left
// alone. Role changes invalidate nothing retroactively; existing
// sessions keep the role they were opened with until they expire.
func (s *Service) UpdateUser(userUid, role, password string) (*models.User, error) {
	user, err := s.GetUser(userUid)
	if err != nil {
		return nil, err
	}

	if role != "" {
		if role != models.RoleAdmin && role != models.RoleUser {
			return nil, ErrBadRole
		}
		user.Role = role
	}
	if password != "" {
		if len(password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the account and its open sessions. Loans keep the
// borrower string as a historical record.
func (s *Service) DeleteUser(userUid string) error {
	user, err := s.GetUser(userUid)
	if err != nil {
		return err
	}
	if err := s.db.Where("username = ?", user.Username).Delete(&models.Session{}).Error; err != nil {
		return err
	}
	return s.db.Delete(user).Error
}
