package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/and161185/imageshop/internal/api"
	"github.com/and161185/imageshop/internal/config"
	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/httpclient"
	"github.com/and161185/imageshop/internal/limiter"
	"github.com/and161185/imageshop/internal/metrics"
	"github.com/and161185/imageshop/internal/migrate"
	"github.com/and161185/imageshop/internal/notify"
	"github.com/and161185/imageshop/internal/repository"
	"github.com/and161185/imageshop/internal/repository/filestore"
	"github.com/and161185/imageshop/internal/repository/postgres"
	"github.com/and161185/imageshop/internal/repository/redisstore"
	"github.com/and161185/imageshop/internal/service"
	"github.com/and161185/imageshop/internal/tokenstore"
	"github.com/and161185/imageshop/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app is the wired client for one CLI invocation.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	out   io.Writer
	json  bool
	api   *api.API
	notes *notify.Center
	m     *metrics.Metrics
	shop  *service.Storefront

	closers []func()
}

func newApp(ctx context.Context, opts *rootOpts, out, errOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(opts.apiURL, "/")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, out: out, json: opts.json}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	kv, closeKV, err := openKV(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closeKV)

	a.m = metrics.New(prometheus.NewRegistry())
	tokens := tokenstore.New(kv, log.Named("tokens"))
	hc := httpclient.NewHTTPClient(cfg.HTTPTimeout, cfg.InsecureTLS, log.Named("http"), a.m)
	client := httpclient.New(cfg.APIBaseURL, tokens,
		httpclient.WithHTTPClient(hc),
		httpclient.WithLogger(log.Named("client")),
		httpclient.WithMetrics(a.m),
		httpclient.WithPacer(limiter.NewPacer(cfg.RateLimitRPS, cfg.RateLimitBurst)),
	)
	a.api = api.New(client)

	a.notes = notify.NewCenter(cfg.NotifyDuration, log.Named("notify"))
	a.notes.Subscribe(func(ev notify.Event) {
		if ev.Kind == notify.Added {
			fmt.Fprintln(errOut, formatNotification(ev.Notification))
		}
	})
	a.closers = append(a.closers, a.notes.Close)

	session := service.NewSession(a.api.Auth, a.api.Users, tokens, kv, log.Named("session"))
	session.SetNavigator(service.NavigatorFunc(func(path string) {
		log.Debug("navigate", zap.String("path", path))
	}))
	client.SetLogoutHandler(session.ForceLogout)

	catalog := service.NewCatalog(a.api.Images, a.api.Categories, a.api.Tags, log.Named("catalog"))
	ledger := service.NewLedgerSelector(
		service.NewRemoteLedger(a.api.Orders, a.api.Purchases),
		service.NewLocalLedger(kv, log.Named("ledger")),
		cfg.Ledger, log.Named("ledger"),
	)
	cart := service.NewCart(a.api.Cart, catalog, session, ledger, a.notes, a.m, log.Named("cart"))
	a.shop = service.NewStorefront(session, catalog, cart, ledger, a.notes, a.m, log.Named("shop"))

	a.shop.Bootstrap(ctx)
	return a, nil
}

// Close releases the store connections and flushes the logger.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("IMAGESHOP_LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Dev() {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = lvl
	return zc.Build()
}

// openKV builds the configured session store and its release func.
func openKV(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.KV, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return repository.NewMemory(), func() {}, nil
	case config.StoreFile:
		s, err := filestore.Open(cfg.StorePath, cfg.StoreKey)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.StorePostgres:
		if err := migrate.Up(ctx, cfg.PostgresDSN); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewKVRepo(db, cfg.SessionID), db.Close, nil
	case config.StoreRedis:
		rdb, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return redisstore.New(rdb, cfg.SessionID, 0), func() {
			if err := rdb.Close(); err != nil {
				log.Warn("close redis", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func formatNotification(n notify.Notification) string {
	label := strings.ToUpper(string(n.Type))
	if n.Title != "" {
		return fmt.Sprintf("[%s] %s: %s", label, n.Title, n.Message)
	}
	return fmt.Sprintf("[%s] %s", label, n.Message)
}

// userError renders err for the terminal: field errors one per line, server messages as is.
func userError(err error) string {
	if errors.Is(err, errs.ErrValidation) {
		fields := validate.Fields(err)
		lines := make([]string, 0, len(fields))
		for f, msg := range fields {
			lines = append(lines, f+": "+msg)
		}
		if len(lines) > 0 {
			sort.Strings(lines)
			return strings.Join(lines, "\n       ")
		}
	}
	switch {
	case errors.Is(err, errs.ErrAuthRequired):
		return "please sign in first (imageshop login)"
	case errors.Is(err, errs.ErrNotPurchased):
		return "purchase the image to download the original"
	}
	return errs.UserMessage(err, err.Error())
}
