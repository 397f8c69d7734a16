package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wellbe/database/repository"
	notificationRepo "wellbe/database/repository/notification"
	"wellbe/models"
	"wellbe/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotifyInput describes one notification to a single recipient.
type NotifyInput struct {
	RecipientID string
	Title       string
	Message     string
	Type        models.NotificationType
	Link        string
	Data        map[string]any
}

// Publisher pushes a stored notification to a live channel. Publishers are
// best-effort; an offline recipient is not an error.
type Publisher interface {
	Publish(ctx context.Context, userID string, n *models.Notification) error
}

// NotificationService persists notifications and fans them out to publishers.
type NotificationService interface {
	Notify(ctx context.Context, in NotifyInput) (*models.Notification, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	HasNotification(ctx context.Context, userID string, t models.NotificationType, dataKey, dataValue string) (bool, error)
}

const (
	publishTimeout = 10 * time.Second
	listLimit      = 100
)

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	repo       notificationRepo.NotificationRepository
	publishers []Publisher
	logger     *zap.Logger
	wg         sync.WaitGroup
}

func NewDefaultNotificationService(
	repo notificationRepo.NotificationRepository,
	logger *zap.Logger,
	publishers ...Publisher,
) (*DefaultNotificationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification service initialization error: repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{
		repo:       repo,
		publishers: publishers,
		logger:     logger,
	}, nil
}

// Notify stores the notification and then publishes it in the background.
// Only the store can fail; publish errors are logged.
func (s *DefaultNotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	if in.RecipientID == "" {
		return nil, fmt.Errorf("Notify: recipient is required")
	}

	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    in.RecipientID,
		Type:      in.Type.Normalize(),
		Title:     in.Title,
		Message:   in.Message,
		Data:      in.Data,
		Link:      in.Link,
		Read:      false,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("Notify: failed to store notification for %s: %w", in.RecipientID, err)
	}

	for _, p := range s.publishers {
		s.wg.Add(1)
		go func(p Publisher) {
			defer s.wg.Done()
			pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := p.Publish(pubCtx, n.UserID, n); err != nil {
				s.logger.Warn("notification publish failed",
					zap.String("userId", n.UserID),
					zap.String("type", string(n.Type)),
					zap.Error(err))
			}
		}(p)
	}
	return n, nil
}

// Wait blocks until in-flight publishes finish.
func (s *DefaultNotificationService) Wait() {
	s.wg.Wait()
}

func (s *DefaultNotificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly, listLimit)
}

func (s *DefaultNotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := s.repo.MarkRead(ctx, userID, notificationID)
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NotFound("notification %s not found", notificationID)
	}
	return err
}

func (s *DefaultNotificationService) HasNotification(ctx context.Context, userID string, t models.NotificationType, dataKey, dataValue string) (bool, error) {
	return s.repo.Exists(ctx, userID, t, dataKey, dataValue)
}

// Send dispatches in and logs any failure. Lifecycle operations use it after
// their primary write so a notification problem never fails the operation.
func Send(ctx context.Context, svc NotificationService, logger *zap.Logger, in NotifyInput) {
	if svc == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, err := svc.Notify(ctx, in); err != nil {
		logger.Warn("notification dispatch failed",
			zap.String("recipient", in.RecipientID),
			zap.String("type", string(in.Type)),
			zap.Error(err))
	}
}
