// Package session handles participation in and feedback on sessions
// outside of the booking flow.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"wellbe/database/repository"
	sessionRepo "wellbe/database/repository/session"
	"wellbe/models"
	"wellbe/services/notification"
	"wellbe/services/seating"
	"wellbe/utils"

	"go.uber.org/zap"
)

// ReviewPromptWindow is how far back the prompt sweep looks for ended sessions.
const ReviewPromptWindow = 7 * 24 * time.Hour

type SessionService interface {
	JoinSession(ctx context.Context, in JoinInput) (*models.Session, error)
	LeaveSession(ctx context.Context, sessionID, userID string) error
	AddReview(ctx context.Context, in ReviewInput) (*models.Session, error)
	SendReviewPrompts(ctx context.Context, now time.Time) (int, error)
}

type JoinInput struct {
	SessionID string `json:"-"`
	UserID    string `json:"-"`
	Quantity  int    `json:"quantity"`
	Note      string `json:"note"`
}

type ReviewInput struct {
	SessionID string `json:"-"`
	UserID    string `json:"-"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type DefaultSessionService struct {
	sessions sessionRepo.SessionRepository
	seats    *seating.Manager
	notifier notification.NotificationService
	logger   *zap.Logger
	now      func() time.Time
}

func NewDefaultSessionService(
	sessions sessionRepo.SessionRepository,
	notifier notification.NotificationService,
	logger *zap.Logger,
	now func() time.Time,
) *DefaultSessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &DefaultSessionService{
		sessions: sessions,
		seats:    &seating.Manager{Sessions: sessions, Now: now},
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

// JoinSession claims Quantity seats (default 1) for the user.
func (s *DefaultSessionService) JoinSession(ctx context.Context, in JoinInput) (*models.Session, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	return s.seats.Seat(ctx, in.SessionID, models.Participant{
		UserID:   in.UserID,
		Status:   models.ParticipantConfirmed,
		Quantity: in.Quantity,
		Note:     in.Note,
	})
}

func (s *DefaultSessionService) LeaveSession(ctx context.Context, sessionID, userID string) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NotFound("session %s not found", sessionID)
		}
		return err
	}
	if sess.ParticipantIndex(userID) < 0 {
		return utils.NotFound("user %s is not in session %s", userID, sessionID)
	}
	if sess.HasStarted(s.now()) {
		return utils.InvalidState("session %s has already started", sessionID)
	}
	return s.seats.Release(ctx, sessionID, userID)
}

// AddReview records one rating per participant once the session is over
// and refreshes the aggregate.
func (s *DefaultSessionService) AddReview(ctx context.Context, in ReviewInput) (*models.Session, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, utils.InvalidInput("rating must be between 1 and 5")
	}
	for attempt := 0; attempt < utils.MaxWriteRetries; attempt++ {
		sess, err := s.sessions.GetByID(ctx, in.SessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.NotFound("session %s not found", in.SessionID)
			}
			return nil, err
		}
		now := s.now()
		if !sess.IsPast(now) {
			return nil, utils.InvalidState("session %s has not ended yet", sess.ID)
		}
		if sess.ParticipantIndex(in.UserID) < 0 {
			return nil, utils.Forbidden("only participants can review session %s", sess.ID)
		}
		for _, r := range sess.Reviews {
			if r.UserID == in.UserID {
				return nil, utils.Conflict("user %s already reviewed session %s", in.UserID, sess.ID)
			}
		}

		sess.Reviews = append(sess.Reviews, models.Review{
			UserID:    in.UserID,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
			CreatedAt: now,
		})
		sess.RatingStats = ratingStats(sess.Reviews)

		err = s.sessions.SaveReviews(ctx, sess)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("session %s: %w after %d attempts", in.SessionID, repository.ErrVersionConflict, utils.MaxWriteRetries)
}

func ratingStats(reviews []models.Review) models.RatingStats {
	if len(reviews) == 0 {
		return models.RatingStats{}
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := float64(total) / float64(len(reviews))
	return models.RatingStats{Average: math.Round(avg*10) / 10, Count: len(reviews)}
}

// SendReviewPrompts asks every participant of a recently ended session for
// a review. Users already prompted for a session are skipped, so the sweep
// can run any number of times. It returns how many prompts went out.
func (s *DefaultSessionService) SendReviewPrompts(ctx context.Context, now time.Time) (int, error) {
	ended, err := s.sessions.ListEndedBetween(ctx, now.Add(-ReviewPromptWindow), now)
	if err != nil {
		return 0, fmt.Errorf("SendReviewPrompts: %w", err)
	}

	sent := 0
	for _, sess := range ended {
		for _, p := range sess.Participants {
			if p.Status == models.ParticipantCancelled || reviewed(sess.Reviews, p.UserID) {
				continue
			}
			exists, err := s.notifier.HasNotification(ctx, p.UserID, models.NotifyEventReviewRequest, "sessionId", sess.ID)
			if err != nil {
				s.logger.Warn("review prompt lookup failed",
					zap.String("sessionId", sess.ID), zap.String("userId", p.UserID), zap.Error(err))
				continue
			}
			if exists {
				continue
			}
			if _, err := s.notifier.Notify(ctx, notification.NotifyInput{
				RecipientID: p.UserID,
				Title:       "How was your session?",
				Message:     fmt.Sprintf("Tell us how %s went", sess.Title),
				Type:        models.NotifyEventReviewRequest,
				Link:        "/sessions/" + sess.ID + "/review",
				Data:        map[string]any{"sessionId": sess.ID},
			}); err != nil {
				s.logger.Warn("review prompt failed",
					zap.String("sessionId", sess.ID), zap.String("userId", p.UserID), zap.Error(err))
				continue
			}
			sent++
		}
	}
	s.logger.Info("review prompts sent", zap.Int("sessions", len(ended)), zap.Int("prompts", sent))
	return sent, nil
}

func reviewed(reviews []models.Review, userID string) bool {
	for _, r := range reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}
