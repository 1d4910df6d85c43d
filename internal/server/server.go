// Package server собирает HTTP сервер: маршрутизацию, middleware
// и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/peopledesk/hrms/internal/server/config"
	"github.com/peopledesk/hrms/internal/server/handlers"
	"github.com/peopledesk/hrms/internal/server/middleware"
	"github.com/peopledesk/hrms/internal/server/storage"
)

// Storage объединяет все хранилища, которые реализует sqlite.Storage
type Storage interface {
	storage.UserStorage
	storage.EmployeeStorage
	storage.DocumentStorage
	Ping(ctx context.Context) error
}

// Server представляет HTTP сервер приложения
type Server struct {
	logger  *slog.Logger
	http    *http.Server
	limiter *middleware.RateLimiter
}

// New собирает сервер из готовых зависимостей
func New(
	logger *slog.Logger,
	cfg *config.Config,
	authSvc handlers.AuthService,
	store Storage,
	blobs handlers.BlobStore,
	version string,
) *Server {
	limiter := middleware.NewRateLimiter(cfg.RateLimit.LoginRate, cfg.RateLimit.LoginWindow, logger)

	cookies := handlers.CookieConfig{
		Secure:   cfg.Auth.SecureCookies,
		SameSite: sameSiteMode(cfg.Auth.SameSiteCookie),
		MaxAge:   int(cfg.Auth.RefreshTokenTTL.Seconds()),
	}

	authHandler := handlers.NewAuthHandler(logger, authSvc, cookies)
	employeeHandler := handlers.NewEmployeeHandler(logger, store, store, store, blobs)
	healthHandler := handlers.NewHealthHandler(logger, store, version)

	authed := middleware.AuthMiddleware(logger, authSvc)
	admin := middleware.AdminOnly(logger)
	loginLimit := middleware.RateLimitMiddleware(limiter, logger)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Health)

	// Login лимитируется по IP: каждый вход стоит обращения к Google
	mux.Handle("POST /api/auth/google-login", loginLimit(http.HandlerFunc(authHandler.GoogleLogin)))
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(authHandler.Me)))

	mux.Handle("GET /api/employees", authed(http.HandlerFunc(employeeHandler.List)))
	mux.Handle("GET /api/employees/me", authed(http.HandlerFunc(employeeHandler.Me)))
	mux.Handle("GET /api/employees/{id}", authed(http.HandlerFunc(employeeHandler.Get)))
	mux.Handle("GET /api/employees/user/{userID}", authed(http.HandlerFunc(employeeHandler.GetByUser)))
	mux.Handle("POST /api/employees", authed(admin(http.HandlerFunc(employeeHandler.Create))))
	mux.Handle("PATCH /api/employees/{id}", authed(http.HandlerFunc(employeeHandler.Update)))
	mux.Handle("DELETE /api/employees/{id}", authed(admin(http.HandlerFunc(employeeHandler.Delete))))

	mux.Handle("POST /api/employees/{id}/documents", authed(http.HandlerFunc(employeeHandler.UploadDocument)))
	mux.Handle("GET /api/employees/{id}/documents", authed(http.HandlerFunc(employeeHandler.ListDocuments)))
	mux.Handle("GET /api/employees/{id}/documents/{docID}/download", authed(http.HandlerFunc(employeeHandler.DownloadDocument)))

	var handler http.Handler = mux
	handler = middleware.LoggingWithSkip(logger, []string{"/health"})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return &Server{
		logger:  logger,
		limiter: limiter,
		http: &http.Server{
			Addr:         cfg.HTTPServer.Address,
			Handler:      handler,
			ReadTimeout:  cfg.HTTPServer.ReadTimeout,
			WriteTimeout: cfg.HTTPServer.WriteTimeout,
			IdleTimeout:  cfg.HTTPServer.IdleTimeout,
		},
	}
}

// Run запускает сервер и блокируется до отмены контекста,
// после чего выполняет graceful shutdown
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", slog.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	s.limiter.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

// sameSiteMode переводит строку конфигурации в http.SameSite
func sameSiteMode(mode string) http.SameSite {
	switch mode {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
