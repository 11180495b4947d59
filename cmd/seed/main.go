package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/config"
	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/container"
	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	pginfra "github.com/oksasatya/go-user-management/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

// system acts as an administrator while seeding.
var system = application.Actor{ID: "seed", Role: entity.RoleAdmin}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolConfig{MaxConns: 2})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	svc := container.New(cfg, logger, container.Infra{DB: pool}).Service
	seed(ctx, svc, logger, cfg.SeedAdminEmail, cfg.SeedAdminPassword, "admin_user", entity.RoleAdmin)
	seed(ctx, svc, logger, cfg.SeedManagerEmail, cfg.SeedManagerPassword, "manager_user", entity.RoleManager)
}

func seed(ctx context.Context, svc *application.Service, logger *logrus.Logger, email, password, nickname string, role entity.Role) {
	r := string(role)
	in := application.CreateInput{
		RegisterInput: application.RegisterInput{Email: email, Password: password, Nickname: &nickname},
		Role:          &r,
	}
	u, err := svc.Create(ctx, system, in)
	if errors.Is(err, apperror.ErrEmailExists) || errors.Is(err, apperror.ErrNicknameExists) {
		logger.WithField("email", email).Info("already seeded")
		return
	}
	if err != nil {
		logger.Fatalf("failed to seed %s: %v", role, err)
	}
	fmt.Printf("seeded %s: id=%s email=%s nickname=%s\n", u.Role, u.ID, u.Email, u.Nickname)
}
