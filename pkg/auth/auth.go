package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"library-system/pkg/models"
)

const SessionTTL = 8 * time.Hour

const minPasswordLength = 6

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch   = errors.New("password confirmation does not match")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

// Identity is the acting user resolved from a session.
type Identity struct {
	Username string
	Role     string
}

func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

// Service owns users and sessions. Sessions live in the database, keyed
// by an opaque token carried in a cookie.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Register creates a regular (non-admin) user account.
func (s *Service) Register(username, password, confirm string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
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
		Role:         models.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies the credentials and opens a new session.
func (s *Service) Login(username, password string) (*models.Session, error) {
	var user models.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	session := models.Session{
		Token:     uuid.New().String(),
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout destroys the session for the given token. Unknown tokens are
// not an error.
func (s *Service) Logout(token string) error {
	return s.db.Where("token = ?", token).Delete(&models.Session{}).Error
}

// Resolve maps a session token to the acting identity. Expired sessions
// are deleted on sight.
func (s *Service) Resolve(token string) (Identity, error) {
	var session models.Session
	if err := s.db.Where("token = ?", token).First(&session).Error; err != nil {
		return Identity{}, ErrSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		s.db.Delete(&session)
		return Identity{}, ErrSessionNotFound
	}
	return Identity{Username: session.Username, Role: session.Role}, nil
}

// PurgeExpired removes sessions past their expiry. Called at startup.
func (s *Service) PurgeExpired() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.Session{}).Error
}

// SeedAdmin makes sure the administrator account exists with the given
// credentials. Existing admin records keep their password.
func (s *Service) SeedAdmin(username, password string) error {
	var existing models.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		UserUid:      uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	return s.db.Create(&admin).Error
}
