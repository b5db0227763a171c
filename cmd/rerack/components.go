package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/config"
	"github.com/2beens/rerack/internal/db"
	"github.com/2beens/rerack/internal/exercisedb"
	"github.com/2beens/rerack/internal/localstore"
	"github.com/2beens/rerack/internal/refcache"
	"github.com/2beens/rerack/internal/remote"
	"github.com/2beens/rerack/internal/storage"
	"github.com/2beens/rerack/internal/telemetry/metrics"
)

var (
	errRedisRequired = errors.New("redis is required for sessions, set redis_host in the config")
	errTokenRequired = errors.New("no session token, use --token or RERACK_TOKEN")
)

type secrets struct {
	redisPassword    string
	postgresPassword string
	aiApiKey         string
	honeycombEnabled bool
}

func readSecrets() secrets {
	s := secrets{
		redisPassword:    os.Getenv("RERACK_REDIS_PASS"),
		postgresPassword: os.Getenv("RERACK_POSTGRES_PASS"),
		aiApiKey:         os.Getenv("RERACK_AI_API_KEY"),
		honeycombEnabled: os.Getenv("HONEYCOMB_ENABLED") == "true",
	}
	if s.redisPassword == "" {
		log.Debugln("redis password not set. use RERACK_REDIS_PASS")
	}
	if s.postgresPassword == "" {
		log.Debugln("postgres password not set. use RERACK_POSTGRES_PASS")
	}
	if s.aiApiKey == "" {
		log.Debugln("ai api key not set. use RERACK_AI_API_KEY")
	}
	return s
}

// components is the subset of the server wiring the one shot commands need.
type components struct {
	local    localstore.Store
	dbPool   *pgxpool.Pool
	rdb      *redis.Client
	sessions *auth.SessionStore
	storage  *storage.Service
	refCache *refcache.Cache
	catalog  *exercisedb.Client
}

func openComponents(ctx context.Context, cfg *config.Config, s secrets) (_ *components, err error) {
	c := &components{}
	defer func() {
		if err != nil {
			c.close()
		}
	}()

	c.local, err = localstore.New(cfg.LocalStorePath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	metricsManager := metrics.NewManager("rerack", "cli", prometheus.NewRegistry())
	storageParams := storage.NewServiceParams{
		Local:          c.local,
		RemoteTimeout:  cfg.RemoteTimeout,
		MaxAttempts:    cfg.SyncMaxAttempts,
		MetricsManager: metricsManager,
	}

	if cfg.RemoteEnabled {
		c.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:     cfg.PostgresHost,
			DBPort:     cfg.PostgresPort,
			DBName:     cfg.PostgresDBName,
			DBPassword: s.postgresPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		repo := remote.NewRepo(c.dbPool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Warnf("ensure remote schema: %s", err)
		}
		storageParams.Remote = repo
	}

	if cfg.RedisHost != "" {
		c.rdb = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: s.redisPassword,
		})
		c.sessions = auth.NewSessionStore(cfg.SessionTTL, c.rdb)
	}

	c.storage = storage.NewService(storageParams)
	c.refCache = refcache.NewCache(c.local, cfg.ReferenceCacheTTL, cfg.HotCacheSizeBytes, metricsManager)
	c.catalog = exercisedb.NewClient(cfg.CatalogBaseURL, &http.Client{Timeout: cfg.CatalogTimeout})

	return c, nil
}

func (c *components) session(ctx context.Context, token string) (*auth.Session, error) {
	if c.sessions == nil {
		return nil, errRedisRequired
	}
	if token == "" {
		return nil, errTokenRequired
	}
	return c.sessions.Resolve(ctx, token)
}

func (c *components) close() {
	var err error
	if c.rdb != nil {
		err = multierr.Append(err, c.rdb.Close())
	}
	if c.dbPool != nil {
		c.dbPool.Close()
	}
	if c.local != nil {
		err = multierr.Append(err, c.local.Close())
	}
	if err != nil {
		log.Errorf("close components: %s", err)
	}
}
