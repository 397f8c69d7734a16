package routes

import (
	"time"

	"wellbe/handlers"
	"wellbe/middleware"
	"wellbe/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	bookings := api.Group("/bookings")
	{
		bookings.POST("", hb.Booking.CreateBooking)
		bookings.GET("", hb.Booking.ListBookings)
		bookings.GET("/:id", hb.Booking.GetBooking)
		bookings.POST("/:id/cancel", hb.Booking.CancelBooking)
		bookings.POST("/:id/pay", hb.Booking.ProcessPayment)
		bookings.PATCH("/:id/status", middleware.RequireRole(models.RoleProfessional, models.RoleAdmin), hb.Booking.UpdateStatus)
	}
}

// RegisterOrderRoutes registers the order lifecycle endpoints. Accepting,
// rejecting and fulfilling orders is for professionals only.
func RegisterOrderRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	orders := api.Group("/orders")
	{
		orders.GET("", hb.Order.ListOrders)
		orders.GET("/:id", hb.Order.GetOrder)

		seller := orders.Group("")
		seller.Use(middleware.RequireRole(models.RoleProfessional))
		seller.POST("/accept", hb.Order.AcceptOrder)
		seller.POST("/reject", hb.Order.RejectOrder)
		seller.PATCH("/:id/status", hb.Order.UpdateStatus)
	}
}

func RegisterSessionRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("/:id/join", hb.Session.Join)
		sessions.POST("/:id/leave", hb.Session.Leave)
		sessions.POST("/:id/reviews", hb.Session.Review)
	}
}

func RegisterNotificationRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", hb.Notification.List)
		notifications.PATCH("/:id/read", hb.Notification.MarkRead)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(hb.RateLimitPerMin))

	RegisterHealthRoute(r)

	auth := middleware.JWTAuthMiddleware(hb.UserRepo, hb.AuthCache)
	r.GET("/ws", auth, hb.Realtime.Connect)

	api := r.Group("/api")
	api.Use(auth)
	RegisterBookingRoutes(api, hb)
	RegisterOrderRoutes(api, hb)
	RegisterSessionRoutes(api, hb)
	RegisterNotificationRoutes(api, hb)
}
