package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/davorint/amatlan-booking/internal/api"
	"github.com/davorint/amatlan-booking/internal/api/handler"
	custommw "github.com/davorint/amatlan-booking/internal/api/middleware"
	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/config"
	natsinfra "github.com/davorint/amatlan-booking/internal/infrastructure/nats"
	"github.com/davorint/amatlan-booking/internal/infrastructure/postgres"
	redisinfra "github.com/davorint/amatlan-booking/internal/infrastructure/redis"
	"github.com/davorint/amatlan-booking/internal/pkg/logger"
	"github.com/davorint/amatlan-booking/internal/pkg/metrics"
	"github.com/davorint/amatlan-booking/internal/pkg/ticket"
	"github.com/davorint/amatlan-booking/internal/worker"
)

func main() {
	// .envがあれば読み込む（なくてもよい）
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	logger.Set(logger.NewLogger(env))
	defer logger.Sync()

	cfg := config.Load()

	// データベース接続とマイグレーション
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "migrations"
	}
	if err := postgres.RunMigrations(db.DB, migrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis接続（分散ロックと空き枠キャッシュ）
	redisClient := redisinfra.NewClient(&cfg.Redis)
	defer redisClient.Close()
	lockManager := redisinfra.NewLockManager(redisClient)
	availabilityCache := redisinfra.NewAvailabilityCache(redisClient)

	// NATS接続（URLが未設定ならイベント発行なしで動作）
	var publisher application.EventPublisher
	if cfg.NATS.URL != "" {
		p, err := natsinfra.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Fatal("NATS接続に失敗しました", zap.Error(err))
		}
		defer p.Close()
		publisher = p
	}

	m := metrics.Init()

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	userRepo := postgres.NewUserRepository(db)
	experienceRepo := postgres.NewExperienceRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)

	// アプリケーションサービス
	authService := application.NewAuthService(userRepo, &cfg.Auth)
	experienceService := application.NewExperienceService(experienceRepo)
	sessionService := application.NewSessionService(sessionRepo, experienceRepo, availabilityCache)
	bookingService := application.NewBookingService(
		txManager, bookingRepo, sessionRepo, experienceRepo,
		lockManager, availabilityCache, publisher, m,
	)
	eventService := application.NewEventService(txManager, eventRepo, attendeeRepo, publisher, m)
	reviewService := application.NewReviewService(reviewRepo, experienceRepo)

	// ハンドラー
	ticketGen := ticket.NewGenerator(os.Getenv("TICKET_VERIFY_BASE_URL"))
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService)
	experienceHandler := handler.NewExperienceHandler(experienceService)
	sessionHandler := handler.NewSessionHandler(sessionService)
	bookingHandler := handler.NewBookingHandler(bookingService, experienceService, sessionService, ticketGen)
	eventHandler := handler.NewEventHandler(eventService)
	reviewHandler := handler.NewReviewHandler(reviewService)

	// Echoセットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))

	registerRoutes(e, cfg, healthHandler, authHandler, experienceHandler,
		sessionHandler, bookingHandler, eventHandler, reviewHandler)

	// 定員カウンタリコンサイラー起動
	reconciler := worker.NewCapacityReconciler(sessionRepo, m, cfg.Worker.ReconcileInterval)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	go reconciler.Start(workerCtx)

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	workerCancel()
	reconciler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}

func registerRoutes(
	e *echo.Echo,
	cfg *config.Config,
	health *handler.HealthHandler,
	auth *handler.AuthHandler,
	experience *handler.ExperienceHandler,
	session *handler.SessionHandler,
	booking *handler.BookingHandler,
	event *handler.EventHandler,
	review *handler.ReviewHandler,
) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.GET("/health", health.Check)

	v1.POST("/auth/register", auth.Register)
	v1.POST("/auth/login", auth.Login)

	jwtAuth := custommw.JWTAuth(cfg.Auth.JWTSecret)

	// 公開エンドポイント
	v1.GET("/experiences", experience.List)
	v1.GET("/experiences/:id", experience.GetByID)
	v1.GET("/experiences/:id/sessions", session.ListByExperience)
	v1.GET("/experiences/:id/reviews", review.ListByExperience)
	v1.GET("/sessions/:id", session.GetByID)
	v1.GET("/sessions/:id/availability", session.GetAvailability)
	v1.GET("/events", event.List)
	v1.GET("/events/:id", event.GetByID)
	v1.GET("/events/:id/attendees/count", event.GetAttendeeCount)

	// 認証必須エンドポイント
	v1.POST("/experiences", experience.Create, jwtAuth)
	v1.PUT("/experiences/:id", experience.Update, jwtAuth)
	v1.POST("/experiences/:id/reviews", review.Create, jwtAuth)
	v1.POST("/sessions", session.Create, jwtAuth)
	v1.PUT("/sessions/:id", session.Update, jwtAuth)
	v1.POST("/bookings", booking.Create, jwtAuth)
	v1.GET("/bookings", booking.GetUserBookings, jwtAuth)
	v1.GET("/bookings/:id", booking.GetByID, jwtAuth)
	v1.PUT("/bookings/:id", booking.Update, jwtAuth)
	v1.DELETE("/bookings/:id", booking.Cancel, jwtAuth)
	v1.GET("/bookings/:id/ticket", booking.GetTicket, jwtAuth)
	v1.POST("/events", event.Create, jwtAuth)
	v1.PUT("/events/:id", event.Update, jwtAuth)
	v1.POST("/events/:id/register", event.Register, jwtAuth)
	v1.DELETE("/events/:id/register", event.Unregister, jwtAuth)
}
