package notification

import (
	"context"
	"fmt"

	userRepo "wellbe/database/repository/user"
	"wellbe/models"

	"firebase.google.com/go/v4/messaging"
	"go.mongodb.org/mongo-driver/bson"
)

// FCMPublisher delivers notifications as mobile pushes to the recipient's
// registered device token.
type FCMPublisher struct {
	Client *messaging.Client
	Users  userRepo.UserRepository
}

// Publish looks up a user's FCM token and sends a push. Users without a token
// are skipped silently.
func (p *FCMPublisher) Publish(ctx context.Context, userID string, n *models.Notification) error {
	u, err := p.Users.GetByIDWithProjection(ctx, userID, bson.M{"id": 1, "fcmToken": 1})
	if err != nil {
		return fmt.Errorf("FCMPublisher: could not find user %s: %w", userID, err)
	}
	if u.FCMToken == "" {
		return nil
	}

	msg := &messaging.Message{
		Token: u.FCMToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: pushData(n),
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := p.Client.Send(ctx, msg); err != nil {
		return fmt.Errorf("FCMPublisher: failed to send FCM message: %w", err)
	}
	return nil
}

// pushData flattens the notification payload into FCM's string map.
func pushData(n *models.Notification) map[string]string {
	data := map[string]string{
		"notificationId": n.ID,
		"type":           string(n.Type),
	}
	if n.Link != "" {
		data["link"] = n.Link
	}
	for k, v := range n.Data {
		switch val := v.(type) {
		case string:
			data[k] = val
		case nil:
		default:
			data[k] = fmt.Sprint(val)
		}
	}
	return data
}
