package sessionRepo

import (
	"context"
	"time"

	"wellbe/models"
)

// SessionRepository defines methods for session data access. Participant and
// review writes are versioned so concurrent seat changes cannot overwrite each other.
type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*models.Session, error)
	// SaveParticipants writes the participant list guarded by session.Version.
	SaveParticipants(ctx context.Context, session *models.Session) error
	// SaveReviews writes reviews and rating stats guarded by session.Version.
	SaveReviews(ctx context.Context, session *models.Session) error
	// ListEndedBetween returns sessions whose end time falls in [from, to).
	ListEndedBetween(ctx context.Context, from, to time.Time) ([]models.Session, error)
}
