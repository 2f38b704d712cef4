package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/DianaSill/Direct-Debit-Processing-System/internal/export"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/handoff"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/httpapi"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/logger"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/telemetry"
	"github.com/DianaSill/Direct-Debit-Processing-System/internal/verification"
)

type ServerCmd struct {
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"DDPS_LISTEN"`

	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"*" env:"DDPS_CORS_ORIGINS"`

	CallbackURL  string `help:"URL the verification service posts outcomes back to" default:"" env:"DDPS_CALLBACK_URL"`
	VariantsFile string `help:"YAML file overriding the built-in form variant table" default:"" env:"DDPS_VARIANTS_FILE"`

	ExportParallelism int `help:"number of concurrent export marking workers" default:"8" env:"DDPS_EXPORT_PARALLELISM"`

	Tracing bool `help:"enable tracing" default:"false" env:"DDPS_TRACING"`

	Backends BackendFlags `embed:""`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.CallbackURL == "" {
		return errors.New("callback URL is required (--callback-url or DDPS_CALLBACK_URL)")
	}

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "ddps-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	submissionStore, closeStore, err := c.Backends.buildStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	secretProvider, err := c.Backends.buildSecrets(ctx)
	if err != nil {
		return err
	}

	blobStore, err := c.Backends.buildBlob(ctx)
	if err != nil {
		return err
	}

	variants := handoff.DefaultVariantTable()
	if c.VariantsFile != "" {
		variants, err = handoff.LoadVariantTable(c.VariantsFile)
		if err != nil {
			return fmt.Errorf("failed to load variant table: %w", err)
		}
		log.Info().Str("file", c.VariantsFile).Msg("Loaded form variant table")
	}

	customerValidator := c.Backends.buildCustomerValidator(submissionStore)

	builder := handoff.NewBuilder(submissionStore, secretProvider, customerValidator, variants, c.CallbackURL)
	receiver := verification.NewReceiver(submissionStore)
	runner := export.NewRunner(submissionStore, blobStore, c.ExportParallelism)

	handler := httpapi.NewHandler(builder, receiver, runner)
	router := httpapi.NewRouter(handler, log)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: c.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	srv := configureHTTPServer(c.Listen, corsMiddleware.Handler(router))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
