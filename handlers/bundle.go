package handlers

import (
	userRepoPkg "wellbe/database/repository/user"

	"github.com/go-redis/redis/v8"
)

// HandlerBundle groups all endpoint handlers and what the auth middleware
// needs.
type HandlerBundle struct {
	UserRepo  userRepoPkg.UserRepository
	AuthCache *redis.Client

	RateLimitPerMin int

	Booking      *BookingHandler
	Order        *OrderHandler
	Session      *SessionHandler
	Notification *NotificationHandler
	Realtime     *RealtimeHandler
}
