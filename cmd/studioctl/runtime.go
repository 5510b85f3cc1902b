package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/thirdeyevisualz/studio/cmd/mainconfig"
	"github.com/thirdeyevisualz/studio/internal/app/bootstrap"
	"github.com/thirdeyevisualz/studio/internal/audit"
	"github.com/thirdeyevisualz/studio/internal/availability"
	"github.com/thirdeyevisualz/studio/internal/clock"
	appconfig "github.com/thirdeyevisualz/studio/internal/config"
	"github.com/thirdeyevisualz/studio/internal/gate"
	"github.com/thirdeyevisualz/studio/pkg/logging"
)

// runtime is what the subcommands operate on.
type runtime struct {
	clk     clock.Clock
	source  availability.Source
	limiter *gate.RateLimiter
	// audit is nil without a database.
	audit *audit.Service
	close func()
}

type runtimeFactory func(ctx context.Context) (*runtime, error)

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	clk := clock.NewSystem(bootstrap.StudioLocation(cfg, logger))

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var awsCfg *aws.Config
	if mainconfig.NeedsAWS(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
	}
	if cfg.RateLimitStore == "memory" || cfg.RateLimitStore == "" {
		logger.Warn("RATE_LIMIT_STORE is memory; limits shown here are local to this process")
	}

	pool := bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		closers = append(closers, pool.Close)
	}
	source, stop, err := bootstrap.BuildAvailabilitySource(cfg, pool, clk, logger)
	if err != nil {
		closeAll()
		return nil, err
	}
	closers = append(closers, stop)

	store := bootstrap.BuildRateLimitStore(cfg, redisClient, awsCfg, clk, logger)
	rt := &runtime{
		clk:     clk,
		source:  source,
		limiter: bootstrap.BuildGate(cfg, store, clk, logger).Limiter(),
	}
	db, err := bootstrap.OpenSQL(cfg.DatabaseURL)
	if err != nil {
		closeAll()
		return nil, err
	}
	if db != nil {
		closers = append(closers, func() { _ = db.Close() })
		rt.audit = audit.NewService(db)
	}
	rt.close = closeAll
	return rt, nil
}
