// Package server wires the hashkeeper components together and runs the HTTP
// API and the gRPC health endpoint until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/logging"
	"github.com/dmitrijs2005/hashkeeper/internal/objectstore"
	"github.com/dmitrijs2005/hashkeeper/internal/server/config"
	httpx "github.com/dmitrijs2005/hashkeeper/internal/server/http"
	"github.com/dmitrijs2005/hashkeeper/internal/server/notify"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/hashkeeper/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/hashkeeper/internal/server/services"
	"github.com/dmitrijs2005/hashkeeper/internal/server/sessionstore"

	gs "github.com/dmitrijs2005/hashkeeper/internal/server/grpc"
)

const (
	sessionPurgeInterval = 10 * time.Minute
	healthCheckInterval  = 15 * time.Second
	startupTimeout       = 30 * time.Second
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	sessions *services.SessionService
	handler  http.Handler
	closers  []io.Closer
}

func NewApp(c *config.Config) (*App, error) {

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, err := logging.New(logging.Options{Backend: c.LogBackend, Level: c.LogLevel, Format: c.LogFormat}, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, closers: []io.Closer{db}}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us, err := services.NewUserService(db, rm, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	store, closer, err := newSessionStore(ctx, c, db, rm)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("session store init error: %w", err)
	}
	app.addCloser(closer)

	app.sessions = services.NewSessionService(store, us, c.SecretKey, c.SessionTTL, logger)
	kvs := services.NewKVService(db, rm, logger)

	objects, err := objectstore.NewS3Store(ctx, objectstore.Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}
	// exports report ErrExternalIO until the store comes up
	if err := objects.EnsureBucket(ctx); err != nil {
		logger.Warn(ctx, "export bucket unavailable", "bucket", objects.Bucket(), "error", err.Error())
	}

	notifier, closer, err := newNotifier(c)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("notifier init error: %w", err)
	}
	app.addCloser(closer)

	es := services.NewExportService(kvs, objects, notifier, c.ExportTimeout, logger)

	app.handler = httpx.NewRouter(httpx.Deps{
		Users:          us,
		Sessions:       app.sessions,
		KV:             kvs,
		Exports:        es,
		Logger:         logger,
		RequestTimeout: c.RequestTimeout,
		SecureCookie:   c.SecureCookie,
	})

	return app, nil
}

// newSessionStore picks the session backend named in the config. The returned
// closer is nil when the store shares the database handle.
func newSessionStore(ctx context.Context, c *config.Config, db *sql.DB, rm repomanager.RepositoryManager) (sessions.Repository, io.Closer, error) {
	switch c.SessionBackend {
	case "", "postgres":
		return rm.Sessions(db), nil, nil
	case "redis":
		rs, err := sessionstore.NewRedisStore(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return rs, rs, nil
	case "memory":
		return sessionstore.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
}

// newNotifier returns a RabbitMQ notifier, or notify.Noop when no AMQP URL is configured.
func newNotifier(c *config.Config) (notify.Notifier, io.Closer, error) {
	if c.AMQPURL == "" {
		return notify.Noop{}, nil, nil
	}
	n, err := notify.NewAMQPNotifier(c.AMQPURL, c.AMQPQueue)
	if err != nil {
		return nil, nil, err
	}
	return n, n, nil
}

func (app *App) addCloser(c io.Closer) {
	if c != nil {
		app.closers = append(app.closers, c)
	}
}

// close releases resources in reverse order of acquisition.
func (app *App) close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err.Error())
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpx.NewServer(app.config.EndpointAddrHTTP, app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.db, healthCheckInterval, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sessions.RunPurger(ctx, sessionPurgeInterval)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(context.Background(), "App stopped")
}
