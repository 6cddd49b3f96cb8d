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
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiterstdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/minimarket/pos-api/internal/app"
	"github.com/minimarket/pos-api/internal/catalog"
	"github.com/minimarket/pos-api/internal/common"
	"github.com/minimarket/pos-api/internal/config"
	"github.com/minimarket/pos-api/internal/employee"
	"github.com/minimarket/pos-api/internal/events"
	"github.com/minimarket/pos-api/internal/health"
	"github.com/minimarket/pos-api/internal/obs"
	"github.com/minimarket/pos-api/internal/register"
	"github.com/minimarket/pos-api/internal/reports"
	"github.com/minimarket/pos-api/internal/sales"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "pos")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	if metricsEnabled {
		obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	}

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "pos-api",
			StoreName:     cfg.StoreName,
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	validate := validator.New()

	limiterStore, err := app.NewLimiterStore(redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise limiter store")
	}
	rateLimiter, err := app.NewLimiter(limiterStore, cfg.RateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse rate limit")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	store := catalog.New(catalog.Config{Policy: cfg.DefaultPolicy})
	eventLog := events.NewLog()
	bus := &events.Bus{
		Store:     eventLog,
		Notifiers: []events.Notifier{logNotifier{logger: logger.With().Str("component", "events").Logger()}},
	}
	staff := employee.NewService()
	registers := register.NewBank(cfg.RegisterCount)
	ledger := sales.NewLedger()

	salesSvc := sales.NewService(store, ledger)
	salesSvc.Registers = registers
	salesSvc.Employees = staff
	salesSvc.Events = bus
	salesSvc.Log = logger.With().Str("component", "sales").Logger()

	reportSvc := &reports.Service{
		Catalog:           store,
		Ledger:            ledger,
		Employees:         staff,
		R:                 redisClient,
		TTL:               cfg.ReportCacheTTL,
		Files:             &reports.FileSink{Dir: cfg.ReportsDir},
		Events:            bus,
		Log:               logger.With().Str("component", "reports").Logger(),
		ExpiryWarningDays: cfg.ExpiryWarningDays,
		LowStockThreshold: cfg.LowStockThreshold,
	}

	// Report tasks must run next to the live ledger, so the asynq consumer
	// lives in this process; cmd/worker only schedules the daily enqueue.
	taskServer := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{Concurrency: cfg.WorkerConcurrency},
	)
	taskMux := asynq.NewServeMux()
	taskHandler := &reports.TaskHandler{Reports: reportSvc, Log: logger.With().Str("component", "tasks").Logger()}
	taskMux.HandleFunc(reports.TypeDailyReport, taskHandler.HandleDailyReport)
	go func() {
		if err := taskServer.Run(taskMux); err != nil {
			logger.Error().Err(err).Msg("task server stopped")
		}
	}()
	defer taskServer.Shutdown()

	catalogHandler := &catalog.Handler{Catalog: store, Validate: validate, Events: bus}
	salesHandler := &sales.Handler{Service: salesSvc, Validate: validate}
	employeeHandler := &employee.Handler{Service: staff, Validate: validate}
	registerHandler := &register.Handler{Bank: registers, Validate: validate, Events: bus}
	reportHandler := &reports.Handler{Service: reportSvc}
	eventsHandler := &events.Handler{Log: eventLog}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(limiterstdlib.NewMiddleware(rateLimiter).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	pprofEnabled := envBool("OBS_ENABLE_PPROF", true)
	if pprofEnabled {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.RedisPinger{Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/products", func(p chi.Router) {
			p.Post("/", catalogHandler.Create)
			p.Get("/", catalogHandler.List)
			p.Get("/{id}", catalogHandler.Get)
			p.Delete("/{id}", catalogHandler.Delete)
			p.Patch("/{id}/quantity", catalogHandler.AdjustQuantity)
			p.Get("/{id}/price", catalogHandler.Quote)
		})

		v.Route("/policy", func(p chi.Router) {
			p.Get("/", catalogHandler.GetPolicy)
			p.Put("/markup", catalogHandler.SetMarkup)
			p.Put("/discount", catalogHandler.SetDiscount)
		})

		v.Route("/employees", func(e chi.Router) {
			e.Post("/", employeeHandler.Hire)
			e.Get("/", employeeHandler.List)
			e.Get("/{id}", employeeHandler.Get)
			e.Delete("/{id}", employeeHandler.Terminate)
			e.Patch("/{id}/salary", employeeHandler.SetSalary)
		})

		v.Route("/registers", func(g chi.Router) {
			g.Get("/", registerHandler.List)
			g.Get("/{number}", registerHandler.Get)
			g.Put("/{number}/cashier", registerHandler.Assign)
			g.Get("/{number}/daily-total", registerHandler.DailyTotal)
		})

		v.Route("/sales", func(s chi.Router) {
			s.Post("/", salesHandler.Create)
			s.Get("/", salesHandler.List)
			s.Get("/{id}", salesHandler.Get)
			s.Post("/{id}/items", salesHandler.AddItem)
			s.Put("/{id}/items/{productId}", salesHandler.UpdateItem)
			s.Delete("/{id}/items/{productId}", salesHandler.RemoveItem)
			s.Post("/{id}/complete", salesHandler.Complete)
		})

		v.Get("/receipts", salesHandler.Receipts)
		v.Get("/receipts/{number}", salesHandler.Receipt)
		v.Get("/events", eventsHandler.List)

		v.Route("/reports", func(rep chi.Router) {
			rep.Get("/sales", reportHandler.Sales)
			rep.Get("/financial", reportHandler.Financial)
			rep.Get("/inventory", reportHandler.Inventory)
			rep.Post("/daily", enqueueDailyReport(taskClient, logger))
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("store", cfg.StoreName).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-stopCtx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

// logNotifier mirrors emitted domain events into the structured log.
type logNotifier struct {
	logger zerolog.Logger
}

func (n logNotifier) Notify(_ context.Context, ev events.Event) error {
	n.logger.Info().
		Str("event", ev.ID.String()).
		Str("topic", ev.Topic).
		Str("aggregate", ev.Aggregate).
		Msg("domain event")
	return nil
}

// enqueueDailyReport hands end-of-day report generation to the worker.
func enqueueDailyReport(client *asynq.Client, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, present, err := common.DateParam(r, "date")
		if err != nil {
			common.WriteError(w, err)
			return
		}
		if !present {
			day = time.Now().UTC().AddDate(0, 0, -1)
		}
		task, err := reports.NewDailyReportTask(day)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		info, err := client.EnqueueContext(r.Context(), task)
		if err != nil {
			logger.Error().Err(err).Msg("enqueue daily report")
			common.JSONError(w, http.StatusServiceUnavailable, "INTERNAL", "could not enqueue report task", nil)
			return
		}
		common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]any{
			"taskId": info.ID,
			"queue":  info.Queue,
			"date":   day.Format("2006-01-02"),
		}})
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
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
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
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
