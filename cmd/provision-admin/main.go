// Command provision-admin creates a platform admin account. Admins cannot sign up through the API.
//
//	ADMIN_PASSWORD=... provision-admin -email ops@mindfulkids.app -name "Ops"
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindfulkids-backend/internal/config"
	"github.com/AnshRaj112/mindfulkids-backend/internal/database"
	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/repository"
	"github.com/AnshRaj112/mindfulkids-backend/internal/services"
)

func main() {
	email := flag.String("email", "", "admin e-mail address")
	name := flag.String("name", "Platform Admin", "display name")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	zl := logger.New(cfg.LogLevel, cfg.IsProduction())
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	// Read from the environment so the password stays out of shell history
	password := os.Getenv("ADMIN_PASSWORD")
	if *email == "" || password == "" {
		zl.Fatal("-email and ADMIN_PASSWORD are required")
	}
	if cfg.UsesMemoryStore() {
		zl.Fatal("STORE_DRIVER=memory has nothing to provision into")
	}

	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		zl.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.DisconnectPostgres()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Sessions are never created here
	auth := services.NewAuthService(repository.NewPostgresStore(database.PostgresDB), nil, logger.NewZapAdapter(zl))
	user, err := auth.ProvisionAdmin(ctx, *email, password, *name)
	if err != nil {
		zl.Fatal("Failed to provision admin", zap.Error(err))
	}
	zl.Info("✅ Platform admin created", zap.String("id", user.ID), zap.String("email", user.Email))
}
