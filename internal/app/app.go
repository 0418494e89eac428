// Package app wires configuration, stores and handlers into an echo server.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/database"
	"github.com/iliyamo/storefront/internal/handler"
	"github.com/iliyamo/storefront/internal/middleware"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/router"
	"github.com/iliyamo/storefront/internal/service"
	"github.com/iliyamo/storefront/internal/session"
	"github.com/iliyamo/storefront/internal/utils"
)

// Options is everything New needs.  Redis is optional.
type Options struct {
	Config    config.Config
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Users     repository.UserStore
	Redis     *redis.Client
	Logger    zerolog.Logger
}

// App is the assembled server.
type App struct {
	Echo     *echo.Echo
	Accounts *service.AccountService
	Outbox   *repository.OutboxRepo
}

// New builds the echo instance with every route registered.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if opts.Users == nil {
		return nil, errors.New("app: nil user store")
	}

	codec, err := utils.NewSessionCodec([]byte(cfg.AuthSecret), cfg.SessionTTL)
	if err != nil {
		return nil, err
	}
	gate := session.NewGate(codec, opts.Users)

	outbox := repository.NewOutboxRepo(cfg.DataDir)
	accounts := service.NewAccountService(opts.Users, NewMailer(cfg, outbox), cfg.BaseURL, cfg.MinPasswordLen, cfg.VerifyTTL)

	products := repository.NewProductRepo(cfg.DataDir)
	orders := service.NewOrderService(products, repository.NewOrderRepo(cfg.DataDir))
	catalog := handler.NewCatalogHandler(products, repository.NewCategoryRepo(cfg.DataDir), repository.NewContactRepo(cfg.DataDir))

	var store middleware.CacheStore
	if opts.Cache.Enabled {
		if store, err = middleware.NewCacheStore(opts.Cache, opts.Redis); err != nil {
			return nil, err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echomw.Recover())
	e.Use(middleware.SessionAuth(gate))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts, codec, cfg.BaseURL, cfg.IsProduction()),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis))
	router.RegisterCatalog(e, catalog, middleware.ResponseCache(opts.Cache, store), middleware.PurgeCache(store))
	router.RegisterOrders(e, handler.NewOrderHandler(orders))

	return &App{Echo: e, Accounts: accounts, Outbox: outbox}, nil
}

// NewMailer picks the queue mailer when a broker is configured and the
// outbox otherwise.
func NewMailer(cfg config.Config, outbox *repository.OutboxRepo) service.Mailer {
	direct := service.NewOutboxMailer(outbox, cfg.MailFrom)
	if cfg.AMQPURL == "" {
		return direct
	}
	return service.NewQueueMailer(cfg.AMQPURL, cfg.MailQueue, direct)
}

// OpenUserStore returns the credential store selected by STORE_DRIVER and a
// function releasing its resources.
func OpenUserStore(ctx context.Context, cfg config.Config) (repository.UserStore, func() error, error) {
	if cfg.StoreDriver != "mysql" {
		return repository.NewUserRepo(cfg.DataDir), func() error { return nil }, nil
	}
	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewMySQLUserRepo(db), db.Close, nil
}

// OpenDB connects to the MySQL database named by the DB_* settings.
func OpenDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

// jsonErrorHandler renders framework errors (404, 405, bind failures, panics)
// in the same {"error": ...} shape the handlers use.
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
