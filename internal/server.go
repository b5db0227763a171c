package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/rerack/internal/aigen"
	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/config"
	"github.com/2beens/rerack/internal/connectivity"
	"github.com/2beens/rerack/internal/db"
	"github.com/2beens/rerack/internal/exercisedb"
	"github.com/2beens/rerack/internal/localstore"
	"github.com/2beens/rerack/internal/matcher"
	"github.com/2beens/rerack/internal/middleware"
	"github.com/2beens/rerack/internal/refcache"
	"github.com/2beens/rerack/internal/remote"
	"github.com/2beens/rerack/internal/storage"
	"github.com/2beens/rerack/internal/telemetry/metrics"
	"github.com/2beens/rerack/internal/telemetry/tracing"
	"github.com/2beens/rerack/pkg"
)

const catalogRateLimitPerMin = 120

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config      *config.Config
	localStore  localstore.Store
	dbPool      *pgxpool.Pool
	remoteRepo  *remote.Repo
	redisClient *redis.Client

	sessionStore *auth.SessionStore
	storage      *storage.Service
	catalog      *exercisedb.Client
	refCache     *refcache.Cache
	matcher      *matcher.Matcher
	generator    *aigen.Generator
	monitor      *connectivity.Monitor

	// last session seen on a request, drained when connectivity comes back
	lastSession atomic.Pointer[auth.Session]
	baseCtx     context.Context

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	PostgresPassword        string
	AIApiKey                string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	localStore, err := localstore.New(cfg.LocalStorePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	storageParams := storage.NewServiceParams{
		Local:         localStore,
		RemoteTimeout: cfg.RemoteTimeout,
		MaxAttempts:   cfg.SyncMaxAttempts,
	}
	var (
		dbPool           *pgxpool.Pool
		remoteRepo       *remote.Repo
		extraCollectors  []prometheus.Collector
		connectivityPing connectivity.Probe
	)
	if cfg.RemoteEnabled {
		dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}

		remoteRepo = remote.NewRepo(dbPool)
		if err := remoteRepo.EnsureSchema(ctx); err != nil {
			// remote may be down at startup
			log.Warnf("ensure remote schema: %s", err)
		}

		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
		storageParams.Remote = remoteRepo
		connectivityPing = remoteRepo.Ping
	} else {
		log.Infoln("remote store disabled, running local only")
	}

	promRegistry := metrics.SetupPrometheus(extraCollectors...)
	metricsManager := metrics.NewManager("rerack", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	var rdb *redis.Client
	if cfg.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "rerack", rdb)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.CatalogTimeout,
	}

	storageParams.MetricsManager = metricsManager
	storageService := storage.NewService(storageParams)

	catalog := exercisedb.NewClient(cfg.CatalogBaseURL, tracedHttpClient)
	refCache := refcache.NewCache(localStore, cfg.ReferenceCacheTTL, cfg.HotCacheSizeBytes, metricsManager)

	generatorParams := aigen.GeneratorParams{
		PerMinuteLimit: cfg.AIPerMinuteLimit,
		DailyLimit:     cfg.AIDailyLimit,
		AttemptTimeout: cfg.AITimeout,
		MaxRetries:     cfg.AIMaxRetries,
		MetricsManager: metricsManager,
	}
	if cfg.AIEnabled && params.AIApiKey != "" {
		generatorParams.Completer = aigen.NewAnthropicCompleter(params.AIApiKey, cfg.AIModel)
	} else {
		log.Infoln("ai workout generation not configured")
	}
	if rdb != nil {
		generatorParams.RateLimiter = redis_rate.NewLimiter(rdb)
	}

	s := &Server{
		config:      cfg,
		localStore:  localStore,
		dbPool:      dbPool,
		remoteRepo:  remoteRepo,
		redisClient: rdb,

		storage:   storageService,
		catalog:   catalog,
		refCache:  refCache,
		matcher:   matcher.NewMatcher(catalog, refCache, metricsManager),
		generator: aigen.NewGenerator(generatorParams),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if rdb != nil {
		s.sessionStore = auth.NewSessionStore(cfg.SessionTTL, rdb)
	}

	if connectivityPing == nil {
		connectivityPing = func(context.Context) error { return storage.ErrRemoteUnavailable }
	}
	s.monitor = connectivity.NewMonitor(connectivityPing, cfg.ProbeInterval, metricsManager)
	s.monitor.OnOnline(func() {
		go s.syncLastSession(ctx)
	})
	s.baseCtx = ctx

	return s, nil
}

func (s *Server) syncLastSession(ctx context.Context) {
	sess := s.lastSession.Load()
	if !sess.Valid() || !s.storage.RemoteActive(sess) {
		return
	}

	res, err := s.storage.SyncOfflineData(ctx, sess)
	if err != nil {
		log.Errorf("sync offline data for %s: %s", sess.UserID, err)
		return
	}
	log.Infof("sync offline data for %s: synced %d, failed %d, skipped %d", sess.UserID, res.Synced, res.Failed, res.Skipped)
}

// drainForNewSession starts a drain when a different user shows up while
// online with operations queued, e.g. the first request after a restart.
func (s *Server) drainForNewSession(prev, sess *auth.Session) bool {
	if prev != nil && prev.UserID == sess.UserID {
		return false
	}
	if !s.monitor.Online() {
		return false
	}
	pending, err := s.storage.PendingSyncCount(s.baseCtx)
	if err != nil {
		log.Errorf("pending sync count: %s", err)
		return false
	}
	if pending == 0 {
		return false
	}
	go s.syncLastSession(s.baseCtx)
	return true
}

// rememberSession records the session of the latest authenticated request.
func (s *Server) rememberSession() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := auth.SessionFromContext(r.Context()); sess.Valid() {
				s.drainForNewSession(s.lastSession.Swap(sess), sess)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("rerack-router"))

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, "ok")
	}).Methods("GET").Name("health")

	api := r.PathPrefix("/api").Subrouter()

	storage.NewHandler(s.storage, s.monitor).SetupRoutes(api)
	aigen.NewHandler(s.generator).SetupRoutes(api)

	catalogRouter := api.NewRoute().Subrouter()
	matcher.NewHandler(s.matcher, s.catalog).SetupRoutes(catalogRouter)
	if s.redisClient != nil {
		catalogRouter.Use(middleware.RateLimit(redis_rate.NewLimiter(s.redisClient), "catalog", catalogRateLimitPerMin))
	}

	sessionMiddleware := middleware.NewSessionMiddlewareHandler(nil)
	if s.sessionStore != nil {
		sessionMiddleware = middleware.NewSessionMiddlewareHandler(s.sessionStore)
	}

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(sessionMiddleware.AttachSession())
	r.Use(s.rememberSession())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:     router,
		Addr:        ipAndPort,
		ReadTimeout: time.Minute,
		// ai generation streams for up to a few minutes with retries
		WriteTimeout: 3 * time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	go s.monitor.Run(ctx)
	go s.housekeeping(ctx)

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) housekeeping(ctx context.Context) {
	sessionsTicker := time.NewTicker(8 * time.Hour)
	defer sessionsTicker.Stop()
	cacheTicker := time.NewTicker(24 * time.Hour)
	defer cacheTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sessionsTicker.C:
			if s.sessionStore != nil {
				s.sessionStore.ScanAndClean(ctx)
			}
		case <-cacheTicker.C:
			removed, err := s.refCache.ClearExpired(ctx)
			if err != nil {
				log.Errorf("clear expired reference cache: %s", err)
				continue
			}
			log.Debugf("reference cache: removed %d expired entries", removed)
		}
	}
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if err := s.localStore.Close(); err != nil {
		log.Errorf("failed to close local store: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
