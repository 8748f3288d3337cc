package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	oauthadapter "github.com/tanzimsiamm/fiwippo-backend/internal/adapter/oauth"
	"github.com/tanzimsiamm/fiwippo-backend/internal/bootstrap"
	"github.com/tanzimsiamm/fiwippo-backend/internal/config"
	httptransport "github.com/tanzimsiamm/fiwippo-backend/internal/http"
	"github.com/tanzimsiamm/fiwippo-backend/internal/http/handler"
	httpmiddleware "github.com/tanzimsiamm/fiwippo-backend/internal/http/middleware"
	"github.com/tanzimsiamm/fiwippo-backend/internal/jwt"
	apimiddleware "github.com/tanzimsiamm/fiwippo-backend/internal/middleware"
	"github.com/tanzimsiamm/fiwippo-backend/internal/notify"
	"github.com/tanzimsiamm/fiwippo-backend/internal/org"
	"github.com/tanzimsiamm/fiwippo-backend/internal/otp"
	"github.com/tanzimsiamm/fiwippo-backend/internal/password"
	"github.com/tanzimsiamm/fiwippo-backend/internal/repository"
	"github.com/tanzimsiamm/fiwippo-backend/internal/server"
	"github.com/tanzimsiamm/fiwippo-backend/internal/service"
	"github.com/tanzimsiamm/fiwippo-backend/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newDirectory,
			newNotifier,
			newHasher,
			newTokenIssuer,
			newProviderVerifier,
			newRateLimiter,
			org.NewResolver,
			newAuthService,
			handler.NewAuthHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureDefaultOrg, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("service", cfg.ServiceName))
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}

type directory struct {
	fx.Out

	Orgs  repository.OrgRepository
	Users repository.UserRepository
}

func newDirectory(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (directory, error) {
	if cfg.DirectoryDriver == config.DirectoryMemory {
		logger.Warn("using in-memory directory; accounts are lost on restart")
		store := repository.NewMemoryStore()
		return directory{Orgs: store, Users: store}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := repository.NewPool(ctx, repository.PoolConfig{
		DatabaseURL:     cfg.DatabaseURL,
		MaxConns:        cfg.DBMaxConns,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		return directory{}, err
	}

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return directory{}, fmt.Errorf("migrate: %w", err)
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return directory{
		Orgs:  repository.NewPostgresOrgRepo(pool),
		Users: repository.NewPostgresUserRepo(pool),
	}, nil
}

func newNotifier(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (service.Notifier, error) {
	if cfg.NotifierDriver != config.NotifierRedis {
		logger.Warn("codes are written to the log; set NOTIFIER_DRIVER=redis for delivery")
		return notify.NewLogNotifier(logger), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return notify.NewRedisOutbox(client, cfg.NotifyQueue), nil
}

func newHasher(cfg config.Config) *password.Hasher {
	return password.NewHasher(password.Params{
		Time:    cfg.PasswordHashTime,
		Memory:  cfg.PasswordHashMemory,
		Threads: cfg.PasswordHashThreads,
	})
}

func newTokenIssuer(cfg config.Config) (*jwt.Issuer, error) {
	return jwt.NewIssuer(jwt.Config{
		AccessSecret:  []byte(cfg.JWTAccessSecret),
		RefreshSecret: []byte(cfg.JWTRefreshSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        cfg.JWTIssuer,
	})
}

func newProviderVerifier(cfg config.Config, logger *zap.Logger) oauthadapter.TokenVerifier {
	if len(cfg.GoogleClientIDs) == 0 {
		logger.Warn("GOOGLE_CLIENT_IDS is empty; google sign-in will reject every token")
	}
	if len(cfg.AppleClientIDs) == 0 {
		logger.Warn("APPLE_CLIENT_IDS is empty; apple sign-in will reject every token")
	}
	keys := oauthadapter.NewHTTPKeySource(&http.Client{Timeout: 10 * time.Second})
	return oauthadapter.NewIDTokenVerifier(keys,
		oauthadapter.GoogleProvider(cfg.GoogleClientIDs),
		oauthadapter.AppleProvider(cfg.AppleClientIDs),
	)
}

func newRateLimiter(cfg config.Config) *apimiddleware.RateLimiter {
	return apimiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthService(
	cfg config.Config,
	users repository.UserRepository,
	resolver *org.Resolver,
	hasher *password.Hasher,
	issuer *jwt.Issuer,
	notifier service.Notifier,
	providers oauthadapter.TokenVerifier,
	node *snowflake.Node,
	logger *zap.Logger,
) *service.AuthService {
	return service.NewAuthService(service.Dependencies{
		Users:     users,
		Orgs:      resolver,
		Hasher:    hasher,
		Tokens:    issuer,
		Codes:     otp.NewGenerator(),
		Notifier:  notifier,
		Providers: providers,
		IDs:       node,
	}, logger, service.WithNotifyTimeout(cfg.NotifyTimeout))
}

func newAuthMiddleware(authService *service.AuthService) *httpmiddleware.Auth {
	return httpmiddleware.NewAuth(authService)
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
