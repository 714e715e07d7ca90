// Command idp runs the SAML identity provider simulator.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	samlidp "github.com/alshawwaf/SAML-IDP-Simulator"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/metrics"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/truststore"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driven/users"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/adapters/driving/web"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/config"
	"github.com/alshawwaf/SAML-IDP-Simulator/internal/core/ports"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	if err := run(*configPath, logger); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	clock := ports.RealClock{}
	trust, err := truststore.NewFileStore(cfg.RegistryPath, clock, logger)
	if err != nil {
		return err
	}
	userStore, err := users.NewFileStore(cfg.UsersPath, logger)
	if err != nil {
		return err
	}

	idp, err := samlidp.New(samlidp.Options{
		EntityID:        cfg.EntityID,
		SSOServiceURL:   cfg.SSOServiceURL,
		CertificatePath: cfg.SigningCertPath,
		KeyPath:         cfg.SigningKeyPath,
		TrustStore:      trust,
		Metrics:         metrics.NewPrometheusRecorder(),
		Clock:           clock,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	server, err := web.NewServer(web.Options{
		IdentityProvider: idp,
		TrustStore:       trust,
		UserStore:        userStore,
		LoginTTL:         time.Duration(cfg.LoginTTL),
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("entity_id", cfg.EntityID),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
