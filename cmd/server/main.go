package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/eventhub/internal/config"
	"github.com/iliyamo/eventhub/internal/database"
	"github.com/iliyamo/eventhub/internal/handler"
	"github.com/iliyamo/eventhub/internal/logger"
	"github.com/iliyamo/eventhub/internal/middleware"
	"github.com/iliyamo/eventhub/internal/queue"
	"github.com/iliyamo/eventhub/internal/repository"
	"github.com/iliyamo/eventhub/internal/router"
	"github.com/iliyamo/eventhub/internal/service"
	"github.com/iliyamo/eventhub/internal/utils"
)

// stores groups the record stores selected by STORE_DRIVER.
type stores struct {
	events   repository.EventStore
	users    repository.UserStore
	bookings repository.BookingStore
	tokens   repository.TokenStore
	db       *sql.DB
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver != config.DriverMySQL {
		return stores{
			events:   repository.NewMemoryEventRepo(),
			users:    repository.NewMemoryUserRepo(),
			bookings: repository.NewMemoryBookingRepo(),
			tokens:   repository.NewMemoryTokenRepo(),
		}, nil
	}
	db, err := database.Open(ctx, cfg)
	if err != nil {
		return stores{}, fmt.Errorf("open mysql: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		events:   repository.NewMySQLEventRepo(db),
		users:    repository.NewMySQLUserRepo(db),
		bookings: repository.NewMySQLBookingRepo(db),
		tokens:   repository.NewMySQLTokenRepo(db),
		db:       db,
	}, nil
}

func main() {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	if st.db != nil {
		defer st.db.Close()
	}

	if cfg.SeedDemoData {
		if err := repository.SeedEvents(ctx, st.events, time.Now()); err != nil {
			return err
		}
		hash := func(p string) (string, error) { return utils.HashPassword(p, cfg.BcryptCost) }
		if err := repository.SeedUsers(ctx, st.users, hash); err != nil {
			return err
		}
		log.Info("demo data loaded")
	}

	// Redis is optional: without it the limiter runs in process and the
	// listing is served uncached.
	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, continuing without it", zap.Error(err))
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	invalidator := middleware.NewCacheInvalidator(cacheCfg, rdb, log)

	var pub service.Publisher
	if cfg.Queue.Enabled {
		p := queue.NewPublisher(cfg.Queue.URL, log)
		defer p.Close()
		pub = p
		if cfg.Queue.ConsumerEnabled {
			c := &queue.Consumer{URL: cfg.Queue.URL, LogPath: cfg.Queue.BookingLogPath, Log: log}
			go func() {
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("booking consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	var purger service.CachePurger
	if invalidator != nil {
		purger = invalidator
	}
	authSvc := service.NewAuthService(cfg, st.users, st.tokens, log)
	eventSvc := service.NewEventService(st.events, purger, service.SystemClock, log)
	bookingSvc := service.NewBookingService(st.events, st.bookings, pub, purger, service.SystemClock, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORS())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc, cfg.Social.BridgeSecret), cfg.JWTSecret)
	router.RegisterEvents(e, handler.NewEventHandler(eventSvc), cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterBookings(e, handler.NewBookingHandler(bookingSvc), cfg.JWTSecret)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
