package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"otrack/internal/logging"
	"otrack/internal/workorder"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind string, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stages", s.handleStages)
	mux.HandleFunc("POST /api/sessions", s.handleSignIn)
	mux.HandleFunc("DELETE /api/sessions", s.authMiddleware(s.handleSignOut))
	mux.HandleFunc("GET /api/workorders", s.authMiddleware(s.handleListWorkOrders))
	mux.HandleFunc("POST /api/workorders", s.authMiddleware(s.handleCreateWorkOrder))
	mux.HandleFunc("GET /api/workorders/{ot}", s.authMiddleware(s.handleGetWorkOrder))
	mux.HandleFunc("PATCH /api/workorders/{ot}", s.authMiddleware(s.handleUpdateDetails))
	mux.HandleFunc("PUT /api/workorders/{ot}/dates/{stage}", s.authMiddleware(s.handleRecordStageDate))
	mux.HandleFunc("GET /api/dashboard", s.authMiddleware(s.handleDashboard))
	mux.HandleFunc("GET /api/history", s.authMiddleware(s.handleHistory))
	mux.Handle("GET /metrics", s.daemon.metrics.Handler())
	return s.instrument(mux)
}

// instrument assigns a correlation id, counts the request, and logs it.
func (s *apiServer) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(logging.WithRequestID(r.Context(), requestID))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.daemon.metrics.HTTPRequest(route, rec.status)
		logging.WithContext(r.Context(), s.logger).Debug("request served",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("elapsed", time.Since(started)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api listen: paths.api_bind is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error",
				logging.String(logging.FieldEventType, "api_server_failed"),
				logging.Error(err),
			)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.WithContext(r.Context(), s.logger).Error("failed to encode response",
			logging.String(logging.FieldEventType, "response_encode_failed"),
			logging.Error(err),
		)
	}
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := logging.RequestIDFromContext(r.Context())
	s.writeJSON(w, r, status, errorResponse{Error: message, RequestID: requestID})
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := workorder.KindOf(err)
	requestID, _ := logging.RequestIDFromContext(r.Context())
	message := err.Error()
	if kind == "storage" {
		message = "storage failure"
	}
	s.writeJSON(w, r, statusForKind(kind), errorResponse{Error: message, Kind: kind, RequestID: requestID})
}

func statusForKind(kind string) int {
	switch kind {
	case "unauthorized":
		return http.StatusUnauthorized
	case "not_found":
		return http.StatusNotFound
	case "conflict", "archived":
		return http.StatusConflict
	case "validation":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a JSON body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return workorder.E("decode request", workorder.ErrValidation, err)
	}
	return nil
}
