package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/killallgit/sermon-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service looks up and provisions user accounts
type Service interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Ensure returns the user with email, creating it when missing
	Ensure(ctx context.Context, email, name string) (*models.User, error)
	// Register creates a password account; ErrEmailTaken when the email exists
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	// Authenticate returns ErrInvalidCredentials for unknown emails and wrong passwords alike
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

type service struct {
	db *gorm.DB
}

// NewService creates a user service backed by db
func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

func (s *service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &user, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return &user, nil
}

func (s *service) Ensure(ctx context.Context, email, name string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	user := models.User{Email: email, Name: name, IsActive: true}
	err := s.db.WithContext(ctx).
		Where(models.User{Email: email}).
		Attrs(models.User{Name: name, IsActive: true}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("ensuring user: %w", err)
	}
	return &user, nil
}

func (s *service) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{Email: email, Name: strings.TrimSpace(name), PasswordHash: hash, IsActive: true}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&user)
	if result.Error != nil {
		return nil, fmt.Errorf("registering user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrEmailTaken
	}
	return &user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
