// Package server wires the store, services and handlers into one chi router
// and owns the HTTP listener's lifecycle.
//
// COMPOSITION ROOT:
// main opens the store and hands it in; New builds everything else:
//
//	repository.Store (sqlstore or mongostore)
//	  → IdentityService, PropertyService, PointerService
//	    → UserHandler, PropertyHandler
//	      → routes
//
// Services receive the repository interfaces, handlers receive the
// services. No package keeps global state, so a test can build a complete
// server on an in-memory SQLite store and drive it with httptest.
//
// LIFECYCLE:
// The Server owns the store from New onwards. Start closes it after the
// listener has drained, whether it stopped on a signal or an error.
package server

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

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hypot/internal/auth"
	"github.com/sakif/hypot/internal/config"
	"github.com/sakif/hypot/internal/handler"
	"github.com/sakif/hypot/internal/middleware"
	"github.com/sakif/hypot/internal/repository"
	"github.com/sakif/hypot/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New builds the service graph on top of store and registers every route.
func New(cfg config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	passwords, err := auth.NewPasswordService(cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(passwords)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures middleware and the API.
//
//	GET  /api/ping
//	POST /api/register
//	POST /api/login
//	POST /api/logout
//	GET  /api/user/get/{id}
//	POST /api/property/register
//	GET  /api/property/get/{id}/{searchQuery}
//	POST /api/property/pointer/add
//	POST /api/property/access/update
//
// MIDDLEWARE ORDER:
// Middleware runs in the order added, outermost first:
//  1. RequestID: assigns the id every log line carries
//  2. RealIP: rewrites RemoteAddr from X-Forwarded-For / X-Real-IP
//  3. Logger: one line per request with status and duration
//  4. Recover: turns a panic into a code 0 envelope; it sits inside Logger
//     so the resulting 500 is still logged
//  5. Credentials: moves the Authorization token into the context
//
// The credentials middleware never rejects a request. Each service
// operation decides whether the token is required.
func (s *Server) setupRoutes(passwords *auth.PasswordService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recover(s.logger))
	s.router.Use(auth.Credentials)

	identity := service.NewIdentityService(s.store, passwords, s.config.BootstrapAdmins, s.logger)
	properties := service.NewPropertyService(s.store, s.store, s.store, s.logger)
	pointers := service.NewPointerService(s.store, s.store, s.store, s.logger)

	users := handler.NewUserHandler(identity, s.logger)
	props := handler.NewPropertyHandler(properties, pointers, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/ping", handler.HandlePing)

		r.Post("/register", users.HandleRegister)
		r.Post("/login", users.HandleLogin)
		r.Post("/logout", users.HandleLogout)
		r.Get("/user/get/{id}", users.HandleOwned)

		r.Route("/property", func(r chi.Router) {
			r.Post("/register", props.HandleRegister)
			r.Get("/get/{id}/{searchQuery}", props.HandleGet)
			r.Post("/pointer/add", props.HandleAddPointer)
			r.Post("/access/update", props.HandleUpdateAccess)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes the store.
//
// SHUTDOWN SEQUENCE:
//  1. Stop accepting new connections
//  2. Wait up to shutdownTimeout for in-flight requests
//  3. Close the store (flushes the SQLite WAL, disconnects MongoDB)
//
// TLS:
// When both tls.cert_file and tls.key_file are configured the listener
// serves HTTPS with that key pair; otherwise plain HTTP.
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		tls := s.config.TLS.Enabled()
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.Bool("tls", tls),
			slog.String("store", s.config.Store.Driver),
		)
		if tls {
			serverErrors <- srv.ListenAndServeTLS(s.config.TLS.CertFile, s.config.TLS.KeyFile)
			return
		}
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
