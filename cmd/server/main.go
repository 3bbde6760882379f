package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/fircode/shelter/internal/config"
	"github.com/fircode/shelter/internal/database"
	"github.com/fircode/shelter/internal/handler"
	"github.com/fircode/shelter/internal/middleware"
	"github.com/fircode/shelter/internal/queue"
	"github.com/fircode/shelter/internal/repository"
	"github.com/fircode/shelter/internal/router"
	"github.com/fircode/shelter/internal/service"
	"github.com/fircode/shelter/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	log := newLogger(cfg.Debug)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	if debug {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.DB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	hasher := utils.NewHasher(cfg.BcryptCost)
	users := repository.NewUserRepo(db)
	dogRepo := repository.NewDogRepo(db)

	accounts := service.NewAccounts(users, hasher, log)
	if _, err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	sessions := service.NewSessionManager(users, repository.NewSessionRepo(db), hasher, service.SessionConfig{
		TokenBytes: cfg.SessionTokenBytes,
		MaxAge:     cfg.SessionMaxAge,
		Debug:      cfg.Debug,
		Secure:     cfg.CookieSecure,
		HashKey:    cfg.CookieHashKey,
	}, log)
	go sessions.RunJanitor(ctx, cfg.SessionPurgeInterval)

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.Events.Enabled() {
		secret := []byte(cfg.Events.Secret)
		publisher = &service.AMQPPublisher{URL: cfg.Events.URL, Secret: secret}
		consumer := &queue.Consumer{
			URL:    cfg.Events.URL,
			Secret: secret,
			LogDir: cfg.Events.LogDir,
			Log:    log.With("component", "feed-consumer"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("feed consumer stopped", "err", err)
			}
		}()
	} else {
		log.Info("no broker configured; feed request events are not published")
	}
	requests := service.NewFeedRequests(db, users, dogRepo, repository.NewFeedRequestRepo(db), publisher, log)

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; response cache and rate limiting disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	e := newEcho(cfg.Debug, log)
	router.Register(e, router.Deps{
		Guard:        service.NewGuard(sessions),
		Auth:         handler.NewAuthHandler(accounts, sessions),
		Dogs:         handler.NewDogHandler(service.NewDogs(dogRepo)),
		FeedRequests: handler.NewFeedRequestHandler(requests),
		Health:       handler.NewHealthHandler(db),
		Cache:        middleware.NewRedisCache(cfg.Cache, rdb),
		CachePurge:   middleware.NewCachePurger(cfg.Cache, rdb),
		RateLimit:    middleware.NewTokenBucket(cfg.RateLimit, rdb),
	})

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr(), "debug", cfg.Debug, "db", cfg.DB.Driver)
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// newEcho builds the server with its global middleware.  Debug mode also
// enables credentialed CORS for any origin so a separately served frontend
// can use the session cookie.
func newEcho(debug bool, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	if debug {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOriginFunc:  func(string) (bool, error) { return true, nil },
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowCredentials: true,
		}))
	}
	e.Use(requestLogger(log))
	return e
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
