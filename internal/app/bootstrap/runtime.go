package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/thirdeyevisualz/studio/internal/audit"
	"github.com/thirdeyevisualz/studio/internal/availability"
	"github.com/thirdeyevisualz/studio/internal/clock"
	appconfig "github.com/thirdeyevisualz/studio/internal/config"
	"github.com/thirdeyevisualz/studio/internal/gate"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// ConnectPostgresPool returns nil when url is empty or the database is unreachable.
func ConnectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		logger.Warn("postgres pool not created", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres not available", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

// OpenSQL opens a database/sql handle on the pgx driver, or returns nil for an empty url.
func OpenSQL(url string) (*sql.DB, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open sql: %w", err)
	}
	return db, nil
}

// BuildAuditLogger returns the Postgres audit trail, or audit.Nop without a database.
func BuildAuditLogger(db *sql.DB) audit.Logger {
	if db == nil {
		return audit.Nop{}
	}
	return audit.NewService(db)
}

// BuildRateLimitStore picks where rate-limit records live: memory, redis or dynamodb.
// Unusable choices fall back to memory with a warning.
func BuildRateLimitStore(cfg *appconfig.Config, redisClient *redis.Client, awsCfg *aws.Config, clk clock.Clock, logger *logging.Logger) gate.Store {
	if logger == nil {
		logger = logging.Default()
	}
	ttl := 2 * time.Hour
	switch cfg.RateLimitStore {
	case "redis":
		if redisClient != nil {
			return gate.NewRedisStore(redisClient, ttl)
		}
		logger.Warn("rate limit store redis requested without redis; using memory")
	case "dynamodb", "dynamo":
		if awsCfg != nil && cfg.RateLimitTable != "" {
			return gate.NewDynamoStore(dynamodb.NewFromConfig(*awsCfg), cfg.RateLimitTable, ttl, clk)
		}
		logger.Warn("rate limit store dynamodb requested without aws config or table; using memory")
	case "", "memory":
	default:
		logger.Warn("unknown rate limit store; using memory", "store", cfg.RateLimitStore)
	}
	return gate.NewMemoryStore()
}

// BuildGate wires the limiter and the optional challenge token client.
func BuildGate(cfg *appconfig.Config, store gate.Store, clk clock.Clock, logger *logging.Logger) *gate.Gate {
	limiter := gate.NewRateLimiter(store, clk, gate.Config{
		MaxPerHour: cfg.FormMaxSubmissionsPerHour,
		Cooldown:   cfg.FormCooldown,
		KeyPrefix:  cfg.RateLimitKeyPrefix,
	}, logger)
	var tokens gate.TokenProvider = gate.DisabledProvider{}
	if cfg.RecaptchaEnabled {
		tokens = gate.NewChallengeClient(cfg.RecaptchaTokenURL, cfg.RecaptchaSiteKey, cfg.RecaptchaTimeout)
	}
	return gate.New(limiter, tokens, cfg.RecaptchaEnabled, logger)
}

// BuildAvailabilitySource picks the availability backend: fixture, file, remote or
// postgres. The returned stop func releases watchers; it is never nil.
func BuildAvailabilitySource(cfg *appconfig.Config, pool *pgxpool.Pool, clk clock.Clock, logger *logging.Logger) (availability.Source, func(), error) {
	noop := func() {}
	switch cfg.AvailabilitySource {
	case "", "fixture":
		return availability.FixtureSource(clk.Now()), noop, nil
	case "file":
		src, err := availability.NewFileSource(cfg.AvailabilityFile, logger)
		if err != nil {
			return nil, noop, err
		}
		if err := src.Watch(); err != nil {
			logger.Warn("availability file watch disabled", "error", err)
		}
		return src, src.Stop, nil
	case "remote", "http":
		if strings.TrimSpace(cfg.AvailabilityURL) == "" {
			return nil, noop, fmt.Errorf("bootstrap: AVAILABILITY_URL is required for remote availability")
		}
		return availability.NewRemoteSource(cfg.AvailabilityURL, logger), noop, nil
	case "postgres":
		if pool == nil {
			return nil, noop, fmt.Errorf("bootstrap: DATABASE_URL is required for postgres availability")
		}
		return availability.NewPostgresSource(pool, logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown availability source %q", cfg.AvailabilitySource)
	}
}

// StudioLocation loads the studio's time zone, falling back to UTC.
func StudioLocation(cfg *appconfig.Config, logger *logging.Logger) *time.Location {
	loc, err := time.LoadLocation(cfg.StudioTimezone)
	if err != nil {
		logger.Warn("unknown studio timezone; using UTC", "timezone", cfg.StudioTimezone, "error", err)
		return time.UTC
	}
	return loc
}
