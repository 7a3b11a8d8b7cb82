// Package httpapi exposes the client-server API over HTTP: registration,
// login, logout, whoami, profile and device endpoints, plus the
// well-known and versions discovery documents.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/avolkhin/roost/internal/logging"
	"github.com/avolkhin/roost/internal/server/accounts"
	"github.com/avolkhin/roost/internal/server/config"
	"github.com/avolkhin/roost/internal/server/store"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address     string
	accounts    *accounts.Service
	store       store.Store
	logger      logging.Logger
	jwtSecret   []byte
	serverName  string
	otpValidity time.Duration
}

func NewServer(cfg *config.Config, l logging.Logger, svc *accounts.Service, st store.Store) *Server {
	return &Server{
		address:     cfg.EndpointAddrHTTP,
		accounts:    svc,
		store:       st,
		logger:      l.With("module", "http_server"),
		jwtSecret:   []byte(cfg.SecretKey),
		serverName:  cfg.ServerName,
		otpValidity: cfg.OTPValidityDuration,
	}
}

// Handler builds the route table. Split out of Run so tests can drive
// it through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /.well-known/matrix/client", s.handleWellKnown)
	mux.HandleFunc("GET /_matrix/client/versions", s.handleVersions)

	mux.HandleFunc("POST /_matrix/client/r0/register", s.handleRegister)
	mux.HandleFunc("GET /_matrix/client/r0/register/available", s.handleAvailable)

	mux.HandleFunc("GET /_matrix/client/r0/login", s.handleLoginInfo)
	mux.HandleFunc("POST /_matrix/client/r0/login", s.handleLogin)
	mux.Handle("POST /_matrix/client/r0/login/get_token", s.requireAuth(s.handleGetLoginToken))

	mux.Handle("POST /_matrix/client/r0/logout", s.requireAuth(s.handleLogout))
	mux.Handle("POST /_matrix/client/r0/logout/all", s.requireAuth(s.handleLogoutAll))

	mux.Handle("GET /_matrix/client/r0/account/whoami", s.requireAuth(s.handleWhoami))
	mux.Handle("GET /_matrix/client/r0/devices", s.requireAuth(s.handleDevices))

	mux.HandleFunc("GET /_matrix/client/r0/profile/{userID}/displayname", s.handleGetDisplayName)
	mux.Handle("PUT /_matrix/client/r0/profile/{userID}/displayname", s.requireAuth(s.handleSetDisplayName))

	return mux
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "err", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
