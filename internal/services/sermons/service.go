package sermons

import (
	"context"
	"errors"
	"strings"

	"github.com/killallgit/sermon-api/internal/models"
	apperrors "github.com/killallgit/sermon-api/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrSermonNotFound = errors.New("sermon not found")
	ErrTitleRequired  = errors.New("title is required")
)

// SaveInput is a finished transcription the user wants to keep
type SaveInput struct {
	Title           string
	Transcript      string
	Summary         []string
	BibleReferences []string
	DurationSeconds int
}

// Service stores sermons for their owners. Store failures come back as
// DATABASE_QUERY app errors.
type Service interface {
	Save(ctx context.Context, userID uint, in SaveInput) (*models.Sermon, error)
	// List returns the user's sermons newest first
	List(ctx context.Context, userID uint) ([]models.Sermon, error)
	// Get returns ErrSermonNotFound for sermons owned by someone else
	Get(ctx context.Context, userID, id uint) (*models.Sermon, error)
}

type service struct {
	db *gorm.DB
}

// NewService creates a sermon service backed by db
func NewService(db *gorm.DB) Service {
	return &service{db: db}
}

func (s *service) Save(ctx context.Context, userID uint, in SaveInput) (*models.Sermon, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	sermon := &models.Sermon{
		UserID:          userID,
		Title:           title,
		Transcript:      in.Transcript,
		Summary:         nonNil(in.Summary),
		BibleReferences: nonNil(in.BibleReferences),
		DurationSeconds: in.DurationSeconds,
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(sermon).Error; err != nil {
		return nil, apperrors.DatabaseError("save sermon", err)
	}
	return sermon, nil
}

func (s *service) List(ctx context.Context, userID uint) ([]models.Sermon, error) {
	var sermons []models.Sermon
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&sermons).Error
	if err != nil {
		return nil, apperrors.DatabaseError("list sermons", err)
	}
	return sermons, nil
}

func (s *service) Get(ctx context.Context, userID, id uint) (*models.Sermon, error) {
	var sermon models.Sermon
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&sermon, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSermonNotFound
		}
		return nil, apperrors.DatabaseError("get sermon", err)
	}
	return &sermon, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
