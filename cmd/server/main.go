package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ZerkerEOD/appserver/internal/config"
	"github.com/ZerkerEOD/appserver/internal/db"
	"github.com/ZerkerEOD/appserver/internal/email"
	"github.com/ZerkerEOD/appserver/internal/email/providers"
	"github.com/ZerkerEOD/appserver/internal/repository"
	"github.com/ZerkerEOD/appserver/internal/routes"
	"github.com/ZerkerEOD/appserver/internal/services"
	"github.com/ZerkerEOD/appserver/internal/version"
	"github.com/ZerkerEOD/appserver/pkg/debug"
	"github.com/ZerkerEOD/appserver/pkg/jwt"
)

func main() {
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	// Initialize debug package first with default settings
	debug.Reinitialize()

	cfg, err := config.Load(*envFile)
	if err != nil {
		debug.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// Reinitialize debug package with loaded environment variables
	debug.Reinitialize()
	if cfg.LogDir != "" {
		logFile, err := openLogFile(cfg.LogDir)
		if err != nil {
			debug.Error("Failed to open log file in %s: %v", cfg.LogDir, err)
			os.Exit(1)
		}
		defer logFile.Close()
		debug.SetOutput(io.MultiWriter(os.Stdout, logFile))
	}

	info := version.GetInfo()
	debug.Info("%s v%s (%s) starting up", info.Project.Name, info.Version.Full, info.Version.Commit)
	for _, warning := range cfg.Warnings() {
		debug.Warning("%s", warning)
	}

	database, err := db.Open(cfg.DBConfig())
	if err != nil {
		debug.Error("Database connection failed: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		debug.Error("Database migrations failed: %v", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           newHandler(cfg, database),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to wait for server errors
	serverErr := make(chan error, 1)
	go func() {
		debug.Info("Starting HTTP server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		debug.Error("Server error: %v", err)
		os.Exit(1)
	case sig := <-sigChan:
		debug.Info("Received signal: %v", sig)
		debug.Info("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			debug.Error("Error during server shutdown: %v", err)
		}
		debug.Info("Server shutdown complete")
	}
}

// newHandler wires the services behind the HTTP surface
func newHandler(cfg *config.Config, database *db.DB) http.Handler {
	users := repository.NewUserRepository(database)

	provider := newMailProvider(cfg)
	mail := email.NewService(provider, cfg.MailTemplateDir, email.WithTimeout(cfg.MailTimeout))
	if langs, err := mail.AvailableLanguages(); err != nil || len(langs) == 0 {
		debug.Warning("No email templates found in %s; only plain text emails can be sent", cfg.MailTemplateDir)
	} else {
		debug.Info("Email templates available for languages: %v", langs)
	}

	notifier := services.NewNotificationService(users, mail, nil, services.WithSendTimeout(cfg.MailTimeout))
	tokens := jwt.NewService(cfg.JWTSecret, cfg.JWTIssuer)

	return routes.NewRouter(routes.Dependencies{
		Tokens:     tokens,
		Users:      users,
		Notifier:   notifier,
		Mail:       provider,
		TOTPIssuer: cfg.TOTPIssuer,
		AdminName:  cfg.AdminName,
		AdminEmail: cfg.AdminEmail,
	})
}

// newMailProvider initializes the configured provider. A provider that
// cannot be initialized is replaced by one that fails every send, so the
// server still starts and mail errors are reported per request.
func newMailProvider(cfg *config.Config) providers.Provider {
	provider, err := providers.NewFromConfig(cfg.EmailConfig())
	if err != nil {
		debug.Error("Failed to initialize %s mail provider, email delivery is disabled: %v", cfg.MailProvider, err)
		return providers.Unavailable(err)
	}
	return provider
}

func openLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "server.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}
