// Package main creates an admin account, or promotes an existing one.
//
//	createadmin -email admin@firstindallas.com -password '...' -name 'Site Admin'
//
// Without -password an existing account keeps its password; a new account then
// can only sign in with Google.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/firstindallas/backend/config"
	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/internal/models"
	"github.com/firstindallas/backend/pkg/database"
	"github.com/firstindallas/backend/pkg/utils"
)

func main() {
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "password; leave empty to keep or skip")
	name := flag.String("name", "", "full name for a new account")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	if strings.TrimSpace(*email) == "" {
		flag.Usage()
		os.Exit(2)
	}
	var hash string
	if *password != "" {
		if err := utils.ValidatePassword(*password); err != nil {
			logger.Fatal("password", zap.Error(err))
		}
		h, err := utils.HashPassword(*password)
		if err != nil {
			logger.Fatal("hash password", zap.Error(err))
		}
		hash = h
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	users := auth.NewRepository(pool)
	u, err := users.GetByEmail(ctx, *email)
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		u, err = users.Create(ctx, auth.CreateUserParams{
			Email:        *email,
			PasswordHash: hash,
			FullName:     strings.TrimSpace(*name),
			Role:         models.RoleAdmin,
		})
		if err != nil {
			logger.Fatal("create admin", zap.Error(err))
		}
		logger.Info("admin created", zap.String("user_id", u.ID.String()), zap.String("email", u.Email))
	case err != nil:
		logger.Fatal("lookup user", zap.Error(err))
	default:
		if err := users.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
			logger.Fatal("promote user", zap.Error(err))
		}
		if hash != "" {
			if err := users.SetPassword(ctx, u.ID, hash); err != nil {
				logger.Fatal("set password", zap.Error(err))
			}
		}
		logger.Info("user promoted to admin", zap.String("user_id", u.ID.String()), zap.String("email", u.Email))
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
