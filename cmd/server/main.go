package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindfulkids-backend/internal/config"
	"github.com/AnshRaj112/mindfulkids-backend/internal/database"
	"github.com/AnshRaj112/mindfulkids-backend/internal/handlers"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/middleware"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
	"github.com/AnshRaj112/mindfulkids-backend/internal/routes"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
	"github.com/AnshRaj112/mindfulkids-backend/pkg/clientip"
)

func main() {
	// Load env
	envErr := godotenv.Load()
	cfg := config.Load()

	zl := logger.New(cfg.LogLevel, cfg.IsProduction())
	defer zl.Sync()
	zap.ReplaceGlobals(zl)
	log := logger.NewZapAdapter(zl)
	if envErr != nil {
		log.Debug("No .env file found", nil)
	}

	ctx := context.Background()

	// Relational store
	var store repository.Store
	if cfg.UsesMemoryStore() {
		log.Warn("Using the in-memory store; data is lost on restart", nil)
		store = repository.NewMemoryStore()
	} else {
		zl.Info("Connecting to PostgreSQL...")
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			zl.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer database.DisconnectPostgres()
		store = repository.NewPostgresStore(database.PostgresDB)
	}

	// Redis backs sessions, invites, the directory cache and submission limits
	zl.Info("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI, cfg.Redis); err != nil {
		zl.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer database.DisconnectRedis()

	// Moderation audit trail
	var audit services.AuditRecorder = services.NewLogAuditRecorder(log)
	if cfg.MongoURI != "" {
		if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
			zl.Warn("⚠️  MongoDB unavailable, audit events go to the log only", zap.Error(err))
		} else {
			defer database.Disconnect()
			audit = services.NewMongoAuditRecorder(database.DB.Collection(database.ModerationEventsCollection), log)
		}
	}

	// Clinic license documents
	var documents services.DocumentStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := services.NewMinIODocumentStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			zl.Warn("⚠️  MinIO unavailable, clinic applications cannot be submitted", zap.Error(err))
		} else {
			documents = minioStore
			zl.Info("✅ MinIO document store initialized", zap.String("bucket", cfg.MinioBucket))
		}
	} else {
		zl.Warn("MinIO endpoint not set. Clinic applications will not be accepted")
	}

	// Therapist credential uploads
	var uploader services.CredentialUploader
	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			zl.Warn("Failed to initialize Cloudinary. Credential uploads will not be available", zap.Error(err))
		} else {
			uploader = cld
			zl.Info("✅ Cloudinary service initialized")
		}
	} else {
		zl.Warn("Cloudinary credentials not found. Credential uploads will not be available")
	}

	// Decision e-mails
	var notifier services.Notifier = services.NewLogNotifier(log)
	if cfg.SESFromEmail != "" {
		ses, err := services.NewSESNotifier(ctx, cfg.AWSRegion, cfg.SESFromEmail)
		if err != nil {
			zl.Warn("SES unavailable, decisions are logged instead of mailed", zap.Error(err))
		} else {
			notifier = ses
		}
	}

	rdb := database.RedisClient
	cache := services.NewCacheService(rdb, 0)
	sessions := services.NewSessionStore(rdb, cfg.SessionTTL)
	invites := services.NewInviteStore(rdb, cfg.InviteTTL, cfg.InviteBaseURL)

	verification := services.NewVerificationService(store, cache, audit, log)
	auth := services.NewAuthService(store, sessions, log)
	h := handlers.New(handlers.Services{
		Auth:                  auth,
		TherapistApplications: services.NewTherapistApplicationService(store, verification, uploader, notifier, audit, log),
		ClinicApplications:    services.NewClinicApplicationService(store, verification, documents, invites, notifier, audit, log, cfg.DocumentURLTTL),
		Verification:          verification,
		Reports:               services.NewReportService(store, verification, audit, log),
		Directory:             services.NewDirectoryService(store, cache, log),
	}, log)

	clientIP := clientip.Resolver(cfg.TrustProxy)
	router := routes.NewRouter(h, auth, log, routes.Options{
		RequestTimeout:    cfg.RequestTimeout,
		UploadTimeout:     cfg.UploadTimeout,
		ClinicSubmissions: middleware.NewSubmissionLimiter(rdb, "clinic_applications", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow, clientIP, log),
		Reports:           middleware.NewSubmissionLimiter(rdb, "reports", cfg.SubmissionRateLimit, cfg.SubmissionRateWindow, clientIP, log),
		AllowedOrigins:    cfg.AllowedOrigins,
		Production:        cfg.IsProduction(),
		AllowedHost:       cfg.AllowedHost,
		ClientIP:          clientIP,
	})
	if cfg.IsProduction() {
		zl.Info("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("🚀 MindfulKids backend running", zap.String("port", cfg.Port), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zl.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("Graceful shutdown failed", zap.Error(err))
	}
}
