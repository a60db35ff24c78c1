package sermons

import (
	"time"

	"github.com/killallgit/sermon-api/internal/models"
)

// CreateRequest saves a sermon. When JobID names a finished job owned by the
// caller, its transcript, summary and references are used and the other
// content fields are ignored.
type CreateRequest struct {
	Title           string   `json:"title" binding:"required"`
	JobID           string   `json:"job_id,omitempty"`
	Transcript      string   `json:"transcript"`
	Summary         []string `json:"summary"`
	BibleReferences []string `json:"bible_references"`
}

// SermonResponse is the API view of a saved sermon
type SermonResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Transcript      string    `json:"transcript"`
	Summary         []string  `json:"summary"`
	BibleReferences []string  `json:"bible_references"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListResponse wraps a user's sermons
type ListResponse struct {
	Sermons []SermonResponse `json:"sermons"`
	Count   int              `json:"count"`
}

func toResponse(s *models.Sermon) SermonResponse {
	resp := SermonResponse{
		ID:              s.ID,
		Title:           s.Title,
		Transcript:      s.Transcript,
		Summary:         []string(s.Summary),
		BibleReferences: []string(s.BibleReferences),
		DurationSeconds: s.DurationSeconds,
		CreatedAt:       s.CreatedAt,
	}
	if resp.Summary == nil {
		resp.Summary = []string{}
	}
	if resp.BibleReferences == nil {
		resp.BibleReferences = []string{}
	}
	return resp
}
