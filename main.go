package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellbe/config"
	"wellbe/cron"
	"wellbe/database"
	bookingRepo "wellbe/database/repository/booking"
	counterRepo "wellbe/database/repository/counter"
	messageRepo "wellbe/database/repository/message"
	notificationRepo "wellbe/database/repository/notification"
	orderRepo "wellbe/database/repository/order"
	productRepo "wellbe/database/repository/product"
	professionalRepo "wellbe/database/repository/professional"
	sessionRepo "wellbe/database/repository/session"
	userRepoPkg "wellbe/database/repository/user"
	"wellbe/handlers"
	"wellbe/routes"
	"wellbe/services/booking"
	"wellbe/services/mail"
	"wellbe/services/notification"
	"wellbe/services/numbering"
	"wellbe/services/order"
	"wellbe/services/payment"
	"wellbe/services/realtime"
	"wellbe/services/session"
	"wellbe/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer utils.SyncLogger()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitCache()
	db := database.DB()
	cache := utils.GetCacheClient()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo(db)
	counters := counterRepo.NewMongoCounterRepo(db)
	messages := messageRepo.NewMongoMessageRepo(db)
	notifications := notificationRepo.NewMongoNotificationRepo(db)
	orders := orderRepo.NewMongoOrderRepo(db)
	products := productRepo.NewMongoProductRepo(db)
	professionals := professionalRepo.NewMongoProfessionalRepo(db)
	sessions := sessionRepo.NewMongoSessionRepo(db)
	users := userRepoPkg.NewMongoUserRepo(db)

	// live channels: local websockets via the Redis relay, plus FCM pushes.
	hub := realtime.NewHub(logger.Named("realtime"))
	relay := realtime.NewRedisRelay(cache, config.AppConfig.RealtimeChannel, hub, logger.Named("relay"))
	go func() {
		if err := relay.Run(rootCtx, nil); err != nil {
			logger.Error("main: realtime relay stopped", zap.Error(err))
		}
	}()

	publishers := []notification.Publisher{relay}
	fcmClient, err := utils.NewFCMClient(rootCtx)
	if err != nil {
		logger.Warn("main: push notifications disabled", zap.Error(err))
	} else if fcmClient != nil {
		publishers = append(publishers, &notification.FCMPublisher{Client: fcmClient, Users: users})
	}

	notificationService, err := notification.NewDefaultNotificationService(notifications, logger.Named("notification"), publishers...)
	if err != nil {
		logger.Fatal("main: notification service", zap.Error(err))
	}

	// email goes through the task queue; the worker owns the SMTP mailer.
	queueOpt := cron.RedisOpt()
	queue := asynq.NewClient(queueOpt)
	defer queue.Close()

	var mailer mail.Mailer = mail.NoopMailer{}
	if config.EmailEnabled() {
		mailer = mail.NewQueuedMailer(queue)
	}

	var gateway payment.Gateway
	if key := config.AppConfig.StripeKey; key != "" {
		gateway = payment.NewStripeGateway(key)
	}

	// services.
	bookingService, err := booking.NewDefaultBookingService(booking.Deps{
		Bookings:      bookings,
		Sessions:      sessions,
		Professionals: professionals,
		Users:         users,
		Numbers:       &numbering.Generator{Counters: counters},
		Notifier:      notificationService,
		Mailer:        mailer,
		Gateway:       gateway,
		Logger:        logger.Named("booking"),
	})
	if err != nil {
		logger.Fatal("main: booking service", zap.Error(err))
	}

	orderService, err := order.NewDefaultOrderService(order.Deps{
		Orders:        orders,
		Products:      products,
		Messages:      messages,
		Professionals: professionals,
		Notifier:      notificationService,
		Logger:        logger.Named("order"),
	})
	if err != nil {
		logger.Fatal("main: order service", zap.Error(err))
	}

	sessionService := session.NewDefaultSessionService(sessions, notificationService, logger.Named("session"), nil)

	worker := cron.NewWorker(queueOpt, mail.FromConfig(), sessionService, config.AppConfig.ReviewPromptInterval, logger.Named("worker"))
	if err := worker.Start(); err != nil {
		logger.Fatal("main: background worker", zap.Error(err))
	}

	utils.StartHealthMonitor(rootCtx, 30*time.Second, cache, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		UserRepo:        users,
		AuthCache:       cache,
		RateLimitPerMin: config.AppConfig.MaxRequestsPerMin,
		Booking:         handlers.NewBookingHandler(bookingService),
		Order:           handlers.NewOrderHandler(orderService),
		Session:         handlers.NewSessionHandler(sessionService),
		Notification:    handlers.NewNotificationHandler(notificationService),
		Realtime:        handlers.NewRealtimeHandler(hub),
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	worker.Shutdown()
	stop()
	notificationService.Wait()
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: mongo disconnect", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
