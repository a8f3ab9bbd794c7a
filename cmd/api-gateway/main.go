package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/event-idea-marketplace/api/swagger"
	"github.com/noah-isme/event-idea-marketplace/internal/handler"
	internalmiddleware "github.com/noah-isme/event-idea-marketplace/internal/middleware"
	"github.com/noah-isme/event-idea-marketplace/internal/repository"
	"github.com/noah-isme/event-idea-marketplace/internal/router"
	"github.com/noah-isme/event-idea-marketplace/internal/service"
	"github.com/noah-isme/event-idea-marketplace/pkg/cache"
	"github.com/noah-isme/event-idea-marketplace/pkg/config"
	"github.com/noah-isme/event-idea-marketplace/pkg/database"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
	"github.com/noah-isme/event-idea-marketplace/pkg/jobs"
	"github.com/noah-isme/event-idea-marketplace/pkg/logger"
	corsmiddleware "github.com/noah-isme/event-idea-marketplace/pkg/middleware/cors"
	ratelimitmiddleware "github.com/noah-isme/event-idea-marketplace/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/noah-isme/event-idea-marketplace/pkg/middleware/requestid"
	"github.com/noah-isme/event-idea-marketplace/pkg/storage"
)

// @title Event Idea Marketplace API
// @version 1.0.0
// @description Clubs propose events, students pitch and vote on ideas, super admins approve proposals.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logr.Fatal("database migration failed", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, response cache disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, "marketplace", logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	var bus eventbus.Publisher = eventbus.Noop{}
	if cfg.NATS.Enabled {
		natsBus, err := eventbus.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix, logr)
		if err != nil {
			logr.Warn("nats unavailable, change events disabled", zap.Error(err))
		} else {
			bus = natsBus
		}
	}
	defer bus.Close() //nolint:errcheck

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	clubRepo := repository.NewClubRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	eventRepo := repository.NewEventRepository(db)
	ideaRepo := repository.NewIdeaRepository(db)
	problemRepo := repository.NewProblemRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	hallRepo := repository.NewHallRepository(db)
	requestRepo := repository.NewSuperAdminRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	achievementRepo := repository.NewAchievementRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	dispatcher := service.NewNotificationDispatcher(notificationRepo, bus, metrics, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.Retries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logr,
	}, logr)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()
	metrics.TrackNotificationBacklog(dispatcher.Pending)

	rules, err := service.LoadAchievementRules(cfg.Achievements.RulesFile)
	if err != nil {
		logr.Fatal("achievement rules invalid", zap.Error(err))
	}
	achievementSvc := service.NewAchievementService(achievementRepo, rules, dispatcher, metrics, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	googleSvc := service.NewGoogleAuthService(service.GoogleAuthConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
	}, userRepo, authSvc, logr)

	userSvc := service.NewUserService(userRepo, logr)
	clubSvc := service.NewClubService(clubRepo, validate, dispatcher, bus, cacheSvc, logr)
	membershipSvc := service.NewMembershipService(membershipRepo, clubRepo, validate, bus, logr)
	eventSvc := service.NewEventService(eventRepo, clubRepo, hallRepo, validate, dispatcher, bus, cacheSvc, logr)
	ideaSvc := service.NewIdeaService(ideaRepo, eventRepo, problemRepo, clubRepo, validate, dispatcher, achievementSvc, bus, logr)
	problemSvc := service.NewProblemService(problemRepo, clubRepo, validate, dispatcher, bus, logr)
	voteSvc := service.NewVoteService(voteRepo, ideaRepo, validate, dispatcher, achievementSvc, bus, logr)
	commentSvc := service.NewCommentService(commentRepo, ideaRepo, validate, dispatcher, achievementSvc, bus, logr)
	hallSvc := service.NewHallService(hallRepo, validate, bus, logr)
	requestSvc := service.NewSuperAdminRequestService(requestRepo, userRepo, validate, bus, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, eventRepo, clubRepo, validate, dispatcher, bus, logr)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(eventRepo, ideaRepo, clubRepo, logr)

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("upload storage unavailable", zap.String("dir", cfg.Uploads.Dir), zap.Error(err))
	}
	uploadSvc := service.NewUploadService(store, storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL), service.UploadPolicy{
		MaxFileSize:  cfg.Uploads.MaxFileSize,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		DownloadPath: strings.TrimRight(cfg.APIPrefix, "/") + "/files",
	}, logr)

	var scheduler *jobs.Scheduler
	if cfg.Cleanup.Enabled {
		scheduler = jobs.NewScheduler(logr, 2*time.Minute)
		cleanupSvc := service.NewCleanupService(eventRepo, problemRepo, dispatcher, bus, cacheSvc, metrics, service.CleanupConfig{
			EventExpiry:   cfg.Cleanup.EventExpiry,
			ProblemExpiry: cfg.Cleanup.ProblemExpiry,
		}, logr)
		if err := cleanupSvc.Schedule(scheduler, cfg.Cleanup.Schedule); err != nil {
			logr.Fatal("cleanup schedule invalid", zap.String("spec", cfg.Cleanup.Schedule), zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		r.Use(ratelimitmiddleware.New(ratelimitmiddleware.Config{
			RPS:     cfg.RateLimit.RPS,
			Burst:   cfg.RateLimit.Burst,
			IdleTTL: 10 * time.Minute,
		}).Middleware())
	}
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", readiness(db))
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r.Group(cfg.APIPrefix), router.Handlers{
		Auth:               handler.NewAuthHandler(authSvc, googleSvc),
		Users:              handler.NewUserHandler(userSvc),
		Clubs:              handler.NewClubHandler(clubSvc, membershipSvc),
		Events:             handler.NewEventHandler(eventSvc),
		Ideas:              handler.NewIdeaHandler(ideaSvc),
		Problems:           handler.NewProblemHandler(problemSvc),
		Votes:              handler.NewVoteHandler(voteSvc),
		Comments:           handler.NewCommentHandler(commentSvc),
		Halls:              handler.NewHallHandler(hallSvc),
		SuperAdminRequests: handler.NewSuperAdminRequestHandler(requestSvc),
		Notifications:      handler.NewNotificationHandler(notificationSvc),
		Achievements:       handler.NewAchievementHandler(achievementSvc),
		Registrations:      handler.NewRegistrationHandler(registrationSvc),
		Analytics:          handler.NewAnalyticsHandler(analyticsSvc),
		Uploads:            handler.NewUploadHandler(uploadSvc),
		Exports:            handler.NewExportHandler(exportSvc),
	}, router.Options{
		Authenticate: internalmiddleware.JWT(authSvc),
		Audit: func(action, resource string) gin.HandlerFunc {
			return internalmiddleware.Audit(userRepo, logr, action, resource)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func readiness(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
