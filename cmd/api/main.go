package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/proposalhero/internal/auth"
	"github.com/noah-isme/proposalhero/internal/catalog"
	"github.com/noah-isme/proposalhero/internal/common"
	"github.com/noah-isme/proposalhero/internal/config"
	"github.com/noah-isme/proposalhero/internal/document"
	"github.com/noah-isme/proposalhero/internal/health"
	"github.com/noah-isme/proposalhero/internal/mapping"
	"github.com/noah-isme/proposalhero/internal/obs"
	"github.com/noah-isme/proposalhero/internal/proposal"
	"github.com/noah-isme/proposalhero/internal/ratelimit"
	"github.com/noah-isme/proposalhero/internal/repo"
	"github.com/noah-isme/proposalhero/internal/resilience"
	"github.com/noah-isme/proposalhero/internal/security"
)

const serviceName = "proposalhero-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(envOrDefault("OBS_LOG_FORMAT", "json"), envOrDefault("OBS_LOG_LEVEL", "info")).
		With().Str("env", cfg.AppEnv).Str("service", serviceName).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "proposalhero")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.MustRegisterMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", false)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := mustConnectPostgres(ctx, cfg, logger)
	defer pool.Close()

	redisClient := connectRedis(ctx, cfg, metricsEnabled, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	store := repo.NewPostgres(pool)

	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Queries: store,
		Cache:   catalog.NewCache(redisClient, cfg.ReferenceCacheTTL),
		Logger:  logger.With().Str("component", "catalog").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})

	mappingService, err := mapping.NewService(mapping.ServiceConfig{
		Queries: store,
		Logger:  logger.With().Str("component", "mapping").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise mapping service")
	}
	mappingHandler := mapping.NewHandler(mapping.HandlerConfig{Service: mappingService})

	generator := document.Guarded{
		Next: &document.Stub{
			BaseURL: cfg.DocumentBaseURL,
			Logger:  logger.With().Str("component", "document").Logger(),
		},
		Breaker: resilience.NewBreaker(envInt("DOCUMENT_BREAKER_MIN_REQUESTS", 5), envFloat("DOCUMENT_BREAKER_FAILURE_RATIO", 0.5), envDurationMillis("DOCUMENT_BREAKER_OPEN_MS", 30000)).
			WithTarget("document").
			WithLogger(logger),
	}
	proposalService, err := proposal.NewService(proposal.ServiceConfig{
		Queries:   catalogService,
		Mappings:  mappingService,
		Generator: generator,
		Logger:    logger.With().Str("component", "proposal").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise proposal service")
	}
	proposalHandler := proposal.NewHandler(proposal.HandlerConfig{Service: proposalService})

	requireAuth := func(next http.Handler) http.Handler { return next }
	if cfg.AuthEnabled {
		verifier, err := auth.NewVerifier(auth.VerifierConfig{
			Secret:    cfg.SessionSecret,
			Issuer:    cfg.AuthIssuer,
			Audience:  cfg.AuthAudience,
			ClockSkew: cfg.AuthClockSkew,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("initialise auth verifier")
		}
		requireAuth = auth.Middleware{Verifier: verifier}.RequireAuth
	} else {
		logger.Warn().Msg("authentication disabled; /api/v1 is open")
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}
	limiter := ratelimit.Limiter{Client: redisClient, Prefix: "ratelimit:"}
	limitErr := func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") }
	generateLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.SubjectOrIP("generate"), Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: limitErr,
	}
	webhookLimit := ratelimit.Handler{
		Limiter: limiter,
		Config:  ratelimit.Config{Key: ratelimit.SubjectOrIP("webhook"), Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
		OnError: limitErr,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: len(cfg.CORSAllowedOrigins) > 0,
		MaxAge:           300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""), envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")))
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(requireAuth)

		v.Get("/pricing-tiers", catalogHandler.PricingTiers)
		v.Put("/pricing-tiers/{dimension}", catalogHandler.ReplacePricingTiers)
		v.Get("/executives", catalogHandler.Executives)
		v.Get("/executives/{name}", catalogHandler.Executive)
		v.Get("/implementation-packages", catalogHandler.ImplementationPackages)
		v.Get("/code-elements", catalogHandler.CodeElements)
		v.Get("/opportunities", catalogHandler.Opportunities)
		v.Get("/opportunities/{id}/account-type", catalogHandler.AccountType)

		v.Get("/variable-mappings", mappingHandler.List)
		v.Post("/variable-mappings", mappingHandler.Upsert)
		v.With(webhookLimit.Middleware).Post("/webhooks/resolve", mappingHandler.Webhook)

		v.Route("/proposals", func(p chi.Router) {
			p.Post("/summary", proposalHandler.Summary)
			p.Post("/wizard", proposalHandler.Wizard)
			p.Post("/reduce", proposalHandler.Reduce)
			p.With(generateLimit.Middleware, idem.Middleware).Post("/generate", proposalHandler.Generate)
		})
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-sigCtx.Done():
		logger.Info().Msg("shutdown signal received")
		health.SetReady(false)
		drain := envDurationMillis("SHUTDOWN_DRAIN_MS", 0)
		if drain > 0 {
			time.Sleep(drain)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 15000))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
		logger.Info().Msg("server stopped")
	}
}

func mustConnectPostgres(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = serviceName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

// connectRedis returns nil when REDIS_URL is unset; cache, idempotency and rate limiting then
// degrade to pass-through.
func connectRedis(ctx context.Context, cfg *config.Config, metricsEnabled bool, logger zerolog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set; reference cache, idempotency and rate limiting disabled")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return client
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

// PingRedis treats an unconfigured client as healthy since redis is optional.
func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if trimmed := strings.TrimSpace(val); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
