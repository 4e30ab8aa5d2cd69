//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/simvault/orderdesk/internal/dispatch"
	"github.com/simvault/orderdesk/internal/model"
)

// Views supplies the per-tick render snapshots computed by the scheduler.
type Views interface {
	Latest() []model.OrderView
	Subscribe() (<-chan []model.OrderView, func())
}

// ActionDispatcher is the single-flight dispatch engine.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, recordID string, kind model.ActionKind) error
	State() (orderID string, kind model.ActionKind, ok bool)
}

// UserRepo validates basic-auth credentials.
type UserRepo interface {
	ValidateUser(ctx context.Context, username, password string) (bool, error)
}

type Server struct {
	views        Views
	dispatcher   ActionDispatcher
	userRepo     UserRepo
	logger       *zap.Logger
	server       *http.Server
	AuditManager *AuditManager
}

func New(views Views, dispatcher ActionDispatcher, userRepo UserRepo, auditManager *AuditManager, logger *zap.Logger) *Server {
	return &Server{
		views:        views,
		dispatcher:   dispatcher,
		userRepo:     userRepo,
		logger:       logger,
		AuditManager: auditManager,
	}
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run(ctx context.Context, port string) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:        ":" + port,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		// No write timeout: /orders/stream holds its connection open.
	}

	s.AuditManager.Start(ctx)

	s.logger.Info("server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.AuditManager.Shutdown(ctx)
	return nil
}

func (s *Server) setupRoutes() http.Handler {
	router := mux.NewRouter()

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/").Subrouter()
	api.Use(s.auditLogMiddleware, s.basicAuthMiddleware)

	api.HandleFunc("/orders", s.handleListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/stream", s.handleStreamOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/cancel", s.handleCancel).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}/activate", s.handleActivate).Methods(http.MethodPost)

	return router
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		valid, err := s.userRepo.ValidateUser(r.Context(), username, password)
		if err != nil || !valid {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleListOrders returns the views from the most recent tick, newest order
// first.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	views := s.views.Latest()
	if views == nil {
		views = []model.OrderView{}
	}
	respondJSON(w, http.StatusOK, views)
}

// handleStreamOrders pushes one snapshot per tick over server-sent events
// until the client goes away.
func (s *Server) handleStreamOrders(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	snapshots, cancel := s.views.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case views, open := <-snapshots:
			if !open {
				return
			}
			payload, err := json.Marshal(views)
			if err != nil {
				s.logger.Error("failed to marshal view snapshot", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, model.ActionCancel)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, model.ActionActivate)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, kind model.ActionKind) {
	orderID := mux.Vars(r)["id"]
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "Missing order ID")
		return
	}

	err := s.dispatcher.Dispatch(r.Context(), orderID, kind)
	if err == nil {
		respondJSON(w, http.StatusAccepted, map[string]string{
			"message": "Action dispatched successfully",
			"id":      orderID,
		})
		return
	}

	switch {
	case errors.Is(err, dispatch.ErrDispatchInFlight):
		respondError(w, http.StatusConflict, "Another action is already in progress")
	case errors.Is(err, dispatch.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, dispatch.ErrActionNotAllowed):
		respondError(w, http.StatusUnprocessableEntity, "Action is not currently allowed")
	default:
		var derr *dispatch.Error
		if errors.As(err, &derr) {
			respondError(w, statusForKind(derr.Kind), derr.UserMessage())
			return
		}
		respondError(w, http.StatusInternalServerError, "Something went wrong. Please contact support.")
	}
}

func statusForKind(kind dispatch.ErrorKind) int {
	switch kind {
	case dispatch.KindAuth:
		return http.StatusUnauthorized
	case dispatch.KindValidation:
		return http.StatusNotFound
	case dispatch.KindConflict:
		return http.StatusConflict
	case dispatch.KindUpstream:
		return http.StatusBadGateway
	case dispatch.KindPersistence:
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
