package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/httpserver"
	mwauth "github.com/Skotchmaster/marketplace/internal/middleware/auth"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/search"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/cookies"
	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/es"
	"github.com/Skotchmaster/marketplace/pkg/filestore"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/mail"
	"github.com/Skotchmaster/marketplace/pkg/middleware/csrf"
	"github.com/Skotchmaster/marketplace/pkg/mykafka"
	"github.com/Skotchmaster/marketplace/pkg/revcache"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// closer collects shutdown hooks. Drain hooks run first, in registration
// order, so background work finishes while every resource is still open.
// Close hooks then run in reverse order.
type closer struct {
	drains []func()
	fns    []func()
}

func (c *closer) drain(fn func()) { c.drains = append(c.drains, fn) }

func (c *closer) add(fn func()) { c.fns = append(c.fns, fn) }

func (c *closer) run() {
	for _, fn := range c.drains {
		fn()
	}
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.IntoContext(ctx, logger)

	var cleanup closer
	defer cleanup.run()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	cleanup.add(func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	})

	store := repo.New(gdb)
	if err := store.Migrate(ctx); err != nil {
		return err
	}

	tasks := &service.Tasks{}
	cleanup.drain(tasks.Wait)

	var events service.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		cleanup.add(func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_failed", "error", err)
			}
		})
		events = prod
	} else {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS empty")
	}

	var revocations service.RevocationCache
	if cfg.RedisAddr != "" {
		cache, err := revcache.New(ctx, revcache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return err
		}
		cleanup.add(func() { _ = cache.Close() })
		revocations = cache
	}

	var index service.ProductIndex
	if len(cfg.ESURLs) > 0 {
		client, err := es.NewClient(ctx, es.Config{Addresses: cfg.ESURLs, Username: cfg.ESUsername, Password: cfg.ESPassword})
		if err != nil {
			return err
		}
		index = search.NewProductIndex(client, cfg.ESProductIndex)
	} else {
		logger.Info("search_index_disabled", "reason", "ES_URL empty")
	}

	sender, err := newMailSender(cfg.Mail, logger)
	if err != nil {
		return err
	}

	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	confirm := &service.ConfirmService{
		Repo:        store,
		Secret:      cfg.EmailSecret,
		MaxAge:      cfg.EmailMaxAge,
		BaseURL:     cfg.PublicBaseURL,
		Mail:        sender,
		MailTimeout: cfg.Mail.Timeout,
		Events:      events,
		Tasks:       tasks,
	}
	auth := &service.AuthService{
		Repo: store,
		Issuer: &tokens.Issuer{
			AccessSecret:  cfg.AccessSecret,
			RefreshSecret: cfg.RefreshSecret,
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
		},
		Confirm:       confirm,
		Revocations:   revocations,
		Events:        events,
		Tasks:         tasks,
		SingleSession: cfg.SingleSession,
	}
	users := &service.UserService{Repo: store, Files: files, Index: index, Events: events, Tasks: tasks, PhoneRegion: cfg.PhoneRegion}
	products := &service.ProductService{Repo: store, Files: files, Index: index, Events: events, Tasks: tasks}

	cookieOpts := cookies.DefaultOptions()
	cookieOpts.Secure = cfg.CookieSecure

	deps := &httpserver.Deps{
		Logger:    logger,
		Auth:      &httpserver.AuthHTTP{Svc: auth, Confirm: confirm, Cookies: cookieOpts},
		Users:     &httpserver.UserHTTP{Svc: users, Auth: auth, Cookies: cookieOpts},
		Products:  &httpserver.ProductHTTP{Svc: products},
		Admin:     &httpserver.AdminHTTP{Users: users, Products: products},
		Guards:    mwauth.New(auth, store, cookieOpts),
		Ready:     func(ctx context.Context) error { return db.Ping(ctx, gdb) },
		BodyLimit: cfg.BodyLimit,
	}
	if cfg.CSRFEnabled {
		c := csrf.DefaultConfig()
		c.Secure = cfg.CookieSecure
		deps.CSRF = &c
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpserver.New(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	return nil
}

func newMailSender(cfg config.MailConfig, logger *slog.Logger) (mail.Sender, error) {
	var next mail.Sender
	switch cfg.Provider {
	case config.MailLog:
		return mail.LogSender{Logger: logger}, nil
	case config.MailSMTP:
		next = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
			Timeout:  cfg.Timeout,
		})
	case config.MailMailgun:
		next = mail.NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
	return mail.NewBreakerSender(cfg.Provider, next, cfg.BreakerOpenFor), nil
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (filestore.Store, error) {
	if cfg.Driver == config.StorageS3 {
		s3, err := filestore.NewS3Store(ctx, filestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	return &filestore.DiskStore{Dir: cfg.Dir}, nil
}
