package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/boxdpick/internal/config"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver"
	"github.com/MrSnakeDoc/boxdpick/internal/httpserver/deps"
	"github.com/MrSnakeDoc/boxdpick/internal/logger"
	"github.com/MrSnakeDoc/boxdpick/internal/recommend"
	"github.com/MrSnakeDoc/boxdpick/internal/redis"
	"github.com/MrSnakeDoc/boxdpick/internal/session"
	"github.com/MrSnakeDoc/boxdpick/internal/shortlist"
	redisstore "github.com/MrSnakeDoc/boxdpick/internal/store/redis"
	"github.com/MrSnakeDoc/boxdpick/internal/store/sqlite"
	"github.com/MrSnakeDoc/boxdpick/internal/utils"
	"github.com/MrSnakeDoc/boxdpick/internal/version"
)

type App struct {
	cfg     *config.Config
	logger  logger.Logger
	server  *httpserver.Server
	session *session.Session
	storage io.Closer // nil for in-memory storage
}

// storage is the opened shortlist backend plus what readiness and shutdown need.
type storage struct {
	backend shortlist.Backend
	pinger  deps.Pinger
	closer  io.Closer
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	st, err := openStorage(context.Background(), cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	store := shortlist.Open(context.Background(), st.backend, loggerClient.Named("shortlist"))

	client := recommend.NewClient(recommend.ClientConfig{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		UserAgent: version.UserAgent(),
		Logger:    loggerClient.Named("recommend"),
	})
	breaker := recommend.NewBreakerClient(client, recommend.BreakerConfig{
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
		OpenTimeout:         cfg.BreakerOpenTimeout,
	}, loggerClient.Named("breaker"))

	sess, err := session.New(session.Config{
		Recommender:    breaker,
		Shortlist:      store,
		Logger:         loggerClient.Named("session"),
		NotifyDuration: cfg.NotifyDuration,
		RequestTimeout: cfg.APITimeout,
		NumMovies:      cfg.NumMovies,
		UseCache:       cfg.UseCache,
	})
	if err != nil {
		utils.Close(st.closer)
		return nil, fmt.Errorf("failed to build session: %w", err)
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		Session:        sess,
		Storage:        st.pinger,
		StorageName:    cfg.Storage,
		Breaker:        breaker,
		SubmitWait:     cfg.SubmitWait,
		SubmitBurst:    cfg.SubmitBurst,
		SubmitPerMin:   cfg.SubmitPerMin,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:     cfg,
		logger:  loggerClient,
		server:  server,
		session: sess,
		storage: st.closer,
	}, nil
}

func openStorage(ctx context.Context, cfg *config.Config, log logger.Logger) (storage, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		// Fail fast if Redis never comes up
		client, err := redis.Connect(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log.Named("redis"))
		if err != nil {
			return storage{}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		backend := redisstore.NewShortlistBackend(client, cfg.ShortlistKey)
		log.Info("shortlist stored in redis", logger.String("key", backend.Key()))
		return storage{backend: backend, pinger: backend, closer: client}, nil

	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return storage{}, err
		}
		backend := sqlite.NewBackend(db, cfg.ShortlistKey)
		log.Info("shortlist stored in sqlite", logger.String("path", cfg.SQLitePath))
		return storage{backend: backend, pinger: backend, closer: db}, nil

	default:
		log.Warn("shortlist kept in memory, it will not survive a restart")
		return storage{backend: shortlist.NewMemoryBackend(nil)}, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting boxdpick v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("boxdpick %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)
	a.logger.Info("recommendation service",
		logger.String("url", a.cfg.APIURL),
		logger.Duration("timeout", a.cfg.APITimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	// Late recommendation results are discarded from here on.
	a.session.Close()

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warnf("failed to close storage: %v", err)
		} else {
			a.logger.Info("✅ Storage closed cleanly", logger.String("storage", a.cfg.Storage))
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ boxdpick stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
