package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"invoiceledger/internal/config"
	"invoiceledger/internal/email/noop"
	"invoiceledger/internal/email/ses"
	"invoiceledger/internal/handler"
	"invoiceledger/internal/logger"
	"invoiceledger/internal/mailbox/imap"
	"invoiceledger/internal/metrics"
	"invoiceledger/internal/pdftext"
	"invoiceledger/internal/port"
	"invoiceledger/internal/repository/postgres"
	"invoiceledger/internal/router"
	"invoiceledger/internal/scheduler"
	"invoiceledger/internal/service"
	s3storage "invoiceledger/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	// Initialize repositories
	projectRepo := postgres.NewProjectRepo(db)

	// Initialize optional collaborators
	var archive port.ObjectStorage
	if cfg.S3.Enabled {
		archive, err = s3storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	var notifier port.Notifier
	switch cfg.Email.Provider {
	case "ses":
		notifier, err = ses.NewSESSender(ctx, cfg.Email)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	default:
		notifier = noop.NewNoopSender()
	}

	var mailbox port.Mailbox
	if cfg.Mailbox.Enabled {
		mailbox = imap.NewMailbox(cfg.Mailbox)
	}

	if cfg.Server.WorkDir != "" {
		if err := os.MkdirAll(cfg.Server.WorkDir, 0o755); err != nil {
			return fmt.Errorf("failed to create work dir: %w", err)
		}
	}

	// Initialize services
	projectSvc := service.NewProjectService(projectRepo)
	ingestionSvc := service.NewIngestionService(service.IngestionDeps{
		Repo:      projectRepo,
		Resolver:  service.NewProjectResolver(projectRepo),
		Extractor: pdftext.NewExtractor(),
		Mailbox:   mailbox,
		Archive:   archive,
		Notifier:  notifier,
		Metrics:   m,
	}, service.IngestionConfig{
		MissingTotalAsZero: cfg.Ledger.MissingTotalAsZero,
		Filter:             port.MailFilter{From: cfg.Mailbox.From, SubjectKeyword: cfg.Mailbox.SubjectKeyword},
		WorkDir:            cfg.Server.WorkDir,
		MaxFileBytes:       cfg.Server.MaxUploadMB << 20,
		ArchiveBucket:      cfg.S3.Bucket,
		ArchivePrefix:      cfg.S3.Prefix,
	})

	var authSvc service.AuthService
	if cfg.Auth.Enabled {
		authSvc = service.NewAuthService(cfg.Auth)
	}

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	projectH := handler.NewProjectHandler(projectSvc)
	invoiceH := handler.NewInvoiceHandler(ingestionSvc)
	healthH := handler.NewHealthHandler(projectRepo)

	r := router.Setup(router.Options{
		AuthService:    authSvc,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        m,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	}, authH, projectH, invoiceH, healthH)

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(ingestionSvc, cfg.Scheduler.Schedule)
		if err := sched.Start(); err != nil {
			return err
		}
		defer func() { <-sched.Stop().Done() }()
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("environment", cfg.Server.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
