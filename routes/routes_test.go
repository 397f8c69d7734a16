package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellbe/config"
	"wellbe/database/repository/memory"
	"wellbe/handlers"
	"wellbe/models"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "routes-test-secret"

	store := memory.NewStore()
	r := gin.New()
	RegisterRoutes(r, &handlers.HandlerBundle{
		UserRepo:        store.Users(),
		RateLimitPerMin: 1000,
		Booking:         handlers.NewBookingHandler(nil),
		Order:           handlers.NewOrderHandler(nil),
		Session:         handlers.NewSessionHandler(nil),
		Notification:    handlers.NewNotificationHandler(nil),
		Realtime:        handlers.NewRealtimeHandler(nil),
	})
	return r, store
}

func TestAPIRequiresToken(t *testing.T) {
	r, _ := newRouter(t)

	for _, path := range []string{"/api/bookings", "/api/orders", "/api/notifications"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestSellerRoutesRequireProfessional(t *testing.T) {
	r, store := newRouter(t)
	store.PutUser(models.User{ID: "c-1", Role: models.RoleClient})

	token, err := utils.GenerateToken("c-1", models.RoleClient, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/accept", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
}
