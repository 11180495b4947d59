// Package container wires the application graph from configuration and
// already-opened infrastructure clients. Nothing here is global: main builds
// one Container and hands it to the router.
package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/config"
	"github.com/oksasatya/go-user-management/internal/application"
	"github.com/oksasatya/go-user-management/internal/domain/policy"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/internal/infrastructure/cache"
	"github.com/oksasatya/go-user-management/internal/infrastructure/memory"
	"github.com/oksasatya/go-user-management/internal/infrastructure/objectstore"
	"github.com/oksasatya/go-user-management/internal/infrastructure/postgres"
	"github.com/oksasatya/go-user-management/internal/infrastructure/queue"
	"github.com/oksasatya/go-user-management/internal/infrastructure/search"
	"github.com/oksasatya/go-user-management/pkg/helpers"
	mailtpl "github.com/oksasatya/go-user-management/pkg/mailer/templates"
	"github.com/oksasatya/go-user-management/pkg/validation"
)

// Infra carries the optional external clients. A nil field selects the
// in-process fallback or disables the feature.
type Infra struct {
	DB     postgres.DB
	Redis  *redis.Client
	Rabbit *helpers.RabbitPublisher
	ES     *elasticsearch.Client
	GCS    *storage.Client
	Hasher helpers.PasswordHasher
}

// Container holds the constructed components shared by the HTTP modules.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Repo    repository.UserRepository
	Tokens  *helpers.TokenService
	Service *application.Service

	// Redis backs the rate limiters; nil disables them.
	Redis redis.Cmdable
	// UserLoader is set when tokens are revalidated on every request.
	UserLoader repository.UserRepository
}

// New builds the application graph.
func New(cfg *config.Config, logger *logrus.Logger, infra Infra) *Container {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	c := &Container{Config: cfg, Logger: logger}

	if infra.DB != nil {
		c.Repo = postgres.NewUserRepository(infra.DB)
	} else {
		c.Repo = memory.NewUserRepository()
	}
	c.Tokens = helpers.NewTokenService(cfg.JWTAccessSecret, cfg.AccessTTL, cfg.JWTIssuer)

	deps := application.Deps{
		Repo:      c.Repo,
		Hasher:    infra.Hasher,
		Tokens:    c.Tokens,
		Nicknames: helpers.RandomNicknames{},
		Validator: validation.New(),
		Lockout:   policy.NewLockout(cfg.LockoutThreshold),
		Logger:    logger,
		Brand: mailtpl.Brand{
			AppName:     cfg.AppName,
			CompanyName: cfg.CompanyName,
			SupportURL:  cfg.SupportURL,
			LogoURL:     cfg.LogoURL,
		},
		VerifyEmailURL:  cfg.VerifyEmailURL,
		VerifyTokenTTL:  cfg.VerifyTokenTTL,
		PageSizeDefault: cfg.PageSizeDefault,
		PageSizeMax:     cfg.PageSizeMax,
	}
	if deps.Hasher == nil {
		deps.Hasher = helpers.NewBcryptHasher(cfg.BcryptCost)
	}

	if infra.Redis != nil {
		c.Redis = infra.Redis
		deps.Verification = cache.NewVerificationStore(infra.Redis, cfg.VerifyTokenTTL)
	} else {
		deps.Verification = memory.NewVerificationStore(cfg.VerifyTokenTTL)
	}
	if infra.ES != nil {
		deps.Search = search.NewUserIndex(infra.ES, cfg.ESUsersIndex)
	} else {
		deps.Search = memory.NewUserIndex()
	}
	if infra.Rabbit != nil && cfg.MailSendEnabled {
		deps.Notifier = queue.NewEmailPublisher(infra.Rabbit)
	}
	if infra.GCS != nil && cfg.GCSBucket != "" {
		deps.Avatars = objectstore.NewAvatarStore(infra.GCS, cfg.GCSBucket, cfg.AvatarMaxBytes)
	}
	if cfg.JWTRevalidate {
		c.UserLoader = c.Repo
	}

	c.Service = application.NewService(deps)
	return c
}
