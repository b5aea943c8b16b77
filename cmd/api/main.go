package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"schnl-ledger/config"
	httpHandler "schnl-ledger/internal/adapter/http/handler"
	"schnl-ledger/internal/adapter/messaging/kafka"
	"schnl-ledger/internal/adapter/oracle"
	"schnl-ledger/internal/adapter/storage/memory"
	pgStorage "schnl-ledger/internal/adapter/storage/postgres"
	redisStorage "schnl-ledger/internal/adapter/storage/redis"
	"schnl-ledger/internal/core/domain"
	"schnl-ledger/internal/core/ports"
	"schnl-ledger/internal/platform/metrics"
	"schnl-ledger/internal/service"
	"schnl-ledger/migrations"
	"schnl-ledger/pkg/logger"
	"schnl-ledger/pkg/units"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("SCHNL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Bool("postgres", cfg.Database.Enabled).
		Bool("redis", cfg.Redis.Enabled).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("Starting Schnl ledger")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("ledger exited with error")
	}
	log.Info().Msg("Server exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	params, err := cfg.Ledger.Parse()
	if err != nil {
		return err
	}

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Oracle sources
	registry, source, err := buildOracleRegistry(cfg.Oracle)
	if err != nil {
		return err
	}
	log.Info().Int("sources", registry.Len()).Str("source", source.String()).Msg("oracle registry ready")

	var (
		journal        ports.Journal = memory.NewJournal()
		records        ports.RecordRepository
		auditSvc       ports.AuditService
		healthCheckers []ports.HealthChecker
		closers        []func()
	)
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	// PostgreSQL: journal, record index and audit trail
	if cfg.Database.Enabled {
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := pgStorage.Migrate(ctx, pool, migrations.FS, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		journal = pgStorage.NewJournalRepo(pool)
		records = pgStorage.NewRecordRepo(pool)
		auditSvc = service.NewAuditService(pgStorage.NewAuditRepository(pool), log)
		healthCheckers = append(healthCheckers, pgStorage.NewHealthCheck(pool))
		log.Info().Msg("PostgreSQL connected")
	} else {
		log.Warn().Msg("database disabled, journal is in memory and lost on restart")
	}

	// Redis: nonces, rate limits, rate cache
	var (
		nonceStore ports.NonceStore
		rateCache  httpHandler.RateCache
		limiter    *redisStorage.RateLimitStore
	)
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		nonceStore = redisStorage.NewNonceStore(rdb)
		rateCache = redisStorage.NewRateCache(rdb, cfg.Oracle.CacheTTL)
		if cfg.RateLimit.Enabled {
			limiter = redisStorage.NewRateLimitStore(rdb)
		}
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
		log.Info().Msg("Redis connected")
	}

	// Downstream publication
	var sinks []service.NamedPublisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.New(kafka.Config{
			Brokers:         cfg.Kafka.Brokers,
			Topic:           cfg.Kafka.Topic,
			Acks:            cfg.Kafka.Acks,
			Retries:         cfg.Kafka.Retries,
			DeliveryTimeout: cfg.Kafka.DeliveryTimeout,
		}, log)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		closers = append(closers, func() { _ = producer.Close() })
		sinks = append(sinks, service.NamedPublisher{Name: producer.Name(), Publisher: producer})
		healthCheckers = append(healthCheckers, producer)
	}
	if cfg.Webhook.URL != "" {
		webhook := service.NewWebhookPublisher(
			cfg.Webhook.URL,
			cfg.Webhook.Secret,
			service.NewHMACSignatureService(),
			&http.Client{Timeout: cfg.Webhook.Timeout},
			nil,
			log,
		)
		sinks = append(sinks, service.NamedPublisher{Name: "webhook", Publisher: webhook})
	}

	// Ledger
	roles := service.NewRoleRegistry()
	gateway := service.NewRateOracleGateway(roles, registry, log,
		service.WithOracleTimeout(cfg.Oracle.Timeout),
		service.WithOracleTracer(otel.Tracer("schnl-ledger/oracle")),
		service.WithOracleMetrics(m),
	)
	opts := []service.LedgerOption{service.WithMetrics(m)}
	if len(sinks) > 0 {
		opts = append(opts, service.WithPublisher(service.NewFanoutPublisher(m, sinks...)))
	}
	if auditSvc != nil {
		opts = append(opts, service.WithAuditService(auditSvc))
	}
	ledger := service.NewLedgerService(roles, gateway, journal, log, opts...)

	if err := ledger.Restore(ctx, service.Bootstrap{
		Admin:        params.Admin,
		Operator:     params.Operator,
		SupplyCap:    params.SupplyCap,
		ToleranceBps: params.ToleranceBps,
		MaxStaleness: params.MaxStaleness,
		MinRate:      params.MinRate,
		MaxRate:      params.MaxRate,
		OracleSource: source,
	}); err != nil {
		return fmt.Errorf("restore ledger: %w", err)
	}
	log.Info().Uint64("seq", ledger.Seq()).Msg("ledger ready")

	// HTTP
	deps := httpHandler.RouterDeps{
		Ledger:         ledger,
		Records:        records,
		TokenSvc:       service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer),
		NonceStore:     nonceStore,
		NonceTTL:       cfg.Nonce.TTL,
		AuditSvc:       auditSvc,
		RateCache:      rateCache,
		HealthCheckers: healthCheckers,
		Gatherer:       reg,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
	}
	if limiter != nil {
		deps.Limiter = limiter
		deps.RateLimitRules = httpHandler.DefaultRateLimitRules(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           httpHandler.SetupRouter(deps),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if cerr := ledger.Close(shutdownCtx); cerr != nil {
			log.Warn().Err(cerr).Msg("pending ledger events not published")
		}
		return err
	})
	return g.Wait()
}

// buildOracleRegistry registers the configured feeds and returns the
// source to bootstrap with. A static rate registers a fixed source at
// oracle.source for local runs.
func buildOracleRegistry(cfg config.OracleConfig) (*oracle.Registry, domain.Address, error) {
	var source domain.Address
	if cfg.Source != "" {
		addr, err := domain.ParseAddress(cfg.Source)
		if err != nil {
			return nil, "", fmt.Errorf("oracle.source: %w", err)
		}
		source = addr
	}

	registry, err := oracle.NewHTTPRegistry(cfg.Feeds, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return nil, "", err
	}

	if cfg.StaticRate != "" {
		if source.IsZero() {
			return nil, "", errors.New("oracle.static_rate requires oracle.source")
		}
		if cfg.StaticDecimals > units.Decimals {
			return nil, "", fmt.Errorf("oracle.static_decimals: at most %d", units.Decimals)
		}
		rate, err := units.ParseDecimal(cfg.StaticRate)
		if err != nil {
			return nil, "", fmt.Errorf("oracle.static_rate: %w", err)
		}
		// ParseDecimal yields 18 decimals; rescale to the configured precision.
		answer := new(big.Int).Quo(rate, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(units.Decimals)-int64(cfg.StaticDecimals)), nil))
		registry.Register(source, oracle.NewStaticSource(answer, cfg.StaticDecimals))
	}
	return registry, source, nil
}
