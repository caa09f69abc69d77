package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v3"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/ris/screen"
	"github.com/sig-0/ris/server/config"
	"github.com/sig-0/ris/session"
	"github.com/sig-0/ris/storage"
)

// RoutesFn is a callback that receives a router for registering routes
type RoutesFn func(router chi.Router)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Server is the local wallet API the UI talks to
type Server struct {
	logger *slog.Logger
	config *config.Config

	svc     *session.Service
	screens *screen.Manager
	storage storage.Storage

	intervals *config.Intervals

	mux      *chi.Mux
	cors     *cors.Cors
	upgrader websocket.Upgrader

	streamsDone chan struct{}
	streamsOnce sync.Once
}

// New creates a new server instance
func New(
	svc *session.Service,
	screens *screen.Manager,
	storage storage.Storage,
	opts ...Option,
) (*Server, error) {
	s := &Server{
		logger:  noopLogger,
		svc:     svc,
		screens: screens,
		storage: storage,
		config:  config.DefaultConfig(),
		mux:     chi.NewMux(),

		streamsDone: make(chan struct{}),
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	// Validate the configuration
	if err := config.ValidateConfig(s.config); err != nil {
		return nil, fmt.Errorf("invalid configuration, %w", err)
	}

	polling := s.config.Polling
	if polling == nil {
		polling = config.DefaultPolling()
	}

	intervals, err := polling.Parse()
	if err != nil {
		return nil, fmt.Errorf("invalid polling configuration, %w", err)
	}

	s.intervals = intervals

	// Set up the CORS middleware
	if s.config.CORSConfig != nil {
		s.cors = cors.New(cors.Options{
			AllowedOrigins: s.config.CORSConfig.AllowedOrigins,
			AllowedMethods: s.config.CORSConfig.AllowedMethods,
			AllowedHeaders: s.config.CORSConfig.AllowedHeaders,
		})

		s.mux.Use(s.cors.Handler)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	s.mux.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:         slog.LevelInfo,
		Schema:        httplog.SchemaOTEL,
		RecoverPanics: true,
		Skip: func(r *http.Request, respStatus int) bool {
			return respStatus == 404 || respStatus == 405 || r.URL.Path == "/health"
		},
	}))

	// Register the health check handler
	s.mux.Get("/health", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})

	s.mux.Get("/openapi.yaml", s.OpenAPI)
	s.mux.Get("/docs", s.Redoc)

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/rates", s.Rates)
		r.Post("/rates/refresh", s.RefreshRates)
		r.Get("/rates/history", s.RateHistory)
		r.Get("/reference", s.Reference)
		r.Get("/sources", s.Sources)
		r.Get("/currencies", s.Currencies)
		r.Get("/convert", s.Convert)
		r.Get("/eligibility", s.Eligibility)

		r.Get("/profile", s.Profile)
		r.Post("/profile/refresh", s.RefreshProfile)
		r.Get("/notifications", s.Notifications)
		r.Get("/notifications/unread-count", s.UnreadCount)
		r.Post("/notifications/read-all", s.MarkAllNotificationsRead)
		r.Post("/notifications/{id}/read", s.MarkNotificationRead)

		r.Get("/transactions", s.Transactions)

		r.Get("/policies", s.Policies)
		r.Get("/policies/status", s.PolicyStatus)
		r.Post("/policies/accept", s.AcceptPolicies)

		r.Get("/support/conversation", s.Conversation)
		r.Post("/support/messages", s.SendSupportMessage)

		r.Post("/recharge/pix", s.Recharge)
		r.Get("/recharge/pix/{id}", s.PixStatus)
		r.Post("/send", s.Send)

		r.Get("/screens", s.Screens)
		r.Post("/screens/{screen}/focus", s.FocusScreen)
		r.Post("/screens/{screen}/blur", s.BlurScreen)

		r.Get("/stream", s.Stream)
	})

	return s, nil
}

// Routes calls fn with the server mux so callers can add endpoints
func (s *Server) Routes(fn RoutesFn) {
	if fn == nil {
		return
	}

	fn(s.mux)
}

// ServeHTTP serves the request using the server mux
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Serve serves the wallet API
func (s *Server) Serve(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.mux,
		ReadHeaderTimeout: 60 * time.Second,
	}

	// Hijacked stream connections aren't tracked by Shutdown
	server.RegisterOnShutdown(s.closeStreams)

	group, gCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer s.logger.Info("server shut down")

		ln, err := net.Listen("tcp", server.Addr)
		if err != nil {
			return err
		}

		s.logger.Info(
			fmt.Sprintf(
				"server started at %s",
				ln.Addr().String(),
			),
		)

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	group.Go(func() error {
		<-gCtx.Done()

		s.logger.Info("server to be shutdown")

		wsCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		return server.Shutdown(wsCtx)
	})

	return group.Wait()
}
