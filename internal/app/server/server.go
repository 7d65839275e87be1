package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"readiness/internal/domain/assessment"
	"readiness/internal/domain/delivery"
	"readiness/internal/domain/leads"
	"readiness/internal/domain/pipeline"
	"readiness/internal/domain/recommendations"
	"readiness/internal/domain/report"
	"readiness/internal/platform/chart"
	"readiness/internal/platform/config"
	"readiness/internal/platform/crm"
	"readiness/internal/platform/crypto"
	"readiness/internal/platform/email"
	"readiness/internal/platform/jobs"
	"readiness/internal/platform/llm"
	"readiness/internal/platform/metrics"
	"readiness/internal/transport/http/api"
	assessmenthandler "readiness/internal/transport/http/handlers/assessment"
	leadshandler "readiness/internal/transport/http/handlers/leads"
	"readiness/internal/transport/http/middleware"
)

type App struct {
	Config   config.Config
	Router   http.Handler
	Pipeline *pipeline.Service
	Leads    *leads.Service
	Jobs     *jobs.Service
	Metrics  *metrics.Collector

	store  *Store
	redis  *redis.Client
	cancel context.CancelFunc
}

// New wires every dependency and starts the job workers. Integrations without
// credentials degrade to fallbacks or no-ops.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	content, err := config.LoadContent(cfg.ContentFile)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	recorder := jobs.RunRecorder(jobs.LogRecorder{})
	if store.Postgres != nil {
		recorder = jobs.NewPostgresRecorder(store.Postgres)
	}
	jobsCtx, cancel := context.WithCancel(context.Background())
	queue := jobs.New(recorder, cfg.JobQueueSize, cfg.JobWorkers)
	queue.Start(jobsCtx)

	enc, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		cancel()
		store.Close()
		return nil, fmt.Errorf("encryption key: %w", err)
	}

	syncers, err := newCRM(cfg)
	if err != nil {
		slog.Warn("crm setup failed, continuing without it", "err", err)
	}
	mailer := email.New(cfg)
	deliverySvc := delivery.NewService(mailer, syncers, m, delivery.Options{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Brand:    content.Brand,
	})

	leadsSvc := leads.NewService(store.Leads, enc, leads.Options{
		TokenSecret: bookingSecret(cfg, enc),
		TokenTTL:    cfg.BookingTokenTTL,
		Jobs:        queue,
		CRM:         deliverySvc,
		Metrics:     m,
	})

	client, err := llm.New(ctx, cfg)
	if err != nil {
		slog.Warn("llm client unavailable, using static recommendations", "err", err)
		client = nil
	}
	provider := "none"
	if client != nil {
		provider = client.Name()
	}

	pipelineSvc := pipeline.NewService(pipeline.Deps{
		Assessment: assessment.NewService(assessment.Thresholds{
			EmergingBelow:   content.Thresholds.EmergingBelow,
			DevelopingBelow: content.Thresholds.DevelopingBelow,
		}),
		Recommendations: recommendations.NewGenerator(client, m),
		Chart:           chart.NewRenderer(cfg.ChartAPIURL, content.Brand.PrimaryColor, &http.Client{Timeout: cfg.ChartTimeout}),
		Reports: report.NewBuilder(report.Options{
			LogoPath: cfg.ReportLogoPath,
			FontDir:  cfg.ReportFontDir,
			Brand:    content.Brand,
			CTA:      content.CTA,
		}),
		Delivery: deliverySvc,
		Leads:    leadsSvc,
		Jobs:     queue,
		Content:  content,
		Metrics:  m,
	})

	app := &App{
		Config:   cfg,
		Pipeline: pipelineSvc,
		Leads:    leadsSvc,
		Jobs:     queue,
		Metrics:  m,
		store:    store,
		cancel:   cancel,
	}
	limiter := app.newLimiter(ctx)
	app.Router = app.routes(limiter)

	slog.Info("application ready",
		"store", store.Kind,
		"llm", provider,
		"mailer", mailer.Provider(),
		"crm", syncers.Names(),
		"encryption", enc.Configured(),
	)
	return app, nil
}

func (a *App) routes(limiter middleware.Limiter) http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			snapshot := a.Metrics.Snapshot()
			snapshot["jobsPending"] = a.Jobs.Pending()
			api.Success(w, snapshot, middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, nil))

		assessmentHandler := assessmenthandler.NewHandler(a.Pipeline)
		assessmentHandler.RegisterRoutes(r)

		leadsHandler := leadshandler.NewHandler(a.Leads)
		leadsHandler.RegisterRoutes(r)
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})
	return router
}

// newLimiter shares limits through Redis when it answers a ping, otherwise
// each instance keeps its own window.
func (a *App) newLimiter(ctx context.Context) middleware.Limiter {
	cfg := a.Config
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := client.Ping(pingCtx).Err()
		if err == nil {
			a.redis = client
			return middleware.NewRedisLimiter(client, cfg.RateLimitPerMinute, time.Minute)
		}
		slog.Warn("redis unavailable, using in-memory rate limiter", "addr", cfg.RedisAddr, "err", err)
		_ = client.Close()
	}
	return middleware.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
}

// Close stops the job workers after draining in-flight jobs and releases
// the store.
func (a *App) Close() {
	a.cancel()
	a.Jobs.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.store.Close()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newCRM(cfg config.Config) (*crm.Multi, error) {
	onError := func(name string, err error) {
		slog.Warn("crm sync failed", "crm", name, "err", err)
	}
	hubspot := crm.NewHubSpot(crm.HubSpotConfig{
		BaseURL:        cfg.CRMBaseURL,
		PortalID:       cfg.HubSpotPortalID,
		AssessmentForm: cfg.HubSpotAssessmentForm,
		LeadForm:       cfg.HubSpotLeadForm,
		AccessToken:    cfg.HubSpotAccessToken,
	}, &http.Client{Timeout: 10 * time.Second})
	notion := crm.NewNotion(cfg.NotionToken, cfg.NotionLeadDB)
	salesforce, err := crm.NewSalesforce(crm.SalesforceConfig{
		Domain:       cfg.SalesforceDomain,
		Username:     cfg.SalesforceUsername,
		ClientID:     cfg.SalesforceClientID,
		KeyPath:      cfg.SalesforceKeyPath,
		RateLimitRPS: cfg.SalesforceRateLimitRPS,
	})
	return crm.NewMulti(onError, hubspot, salesforce, notion), err
}

// bookingSecret prefers an explicit secret, then a subkey of the data
// encryption key. Without either, tokens only survive this process.
func bookingSecret(cfg config.Config, enc *crypto.Service) []byte {
	if cfg.BookingTokenSecret != "" {
		return []byte(cfg.BookingTokenSecret)
	}
	if key := enc.Subkey("booking-token"); key != nil {
		return key
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		slog.Warn("booking token secret unavailable, booking correlation disabled", "err", err)
		return nil
	}
	slog.Warn("BOOKING_TOKEN_SECRET not set, using an ephemeral secret")
	return secret
}
