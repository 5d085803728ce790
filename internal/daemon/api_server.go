package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"quill/internal/api"
	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/services"
	"quill/internal/stage"
)

const (
	maxRequestBody      = 64 << 10
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon
	ws     *wsUpgrader

	// heartbeat overrides heartbeatInterval when positive.
	heartbeat time.Duration

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.API.Bind),
		token:  strings.TrimSpace(cfg.API.Token),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
		ws:     newWSUpgrader(cfg.API.AllowedOrigins),
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
	auth := func(h http.HandlerFunc) http.HandlerFunc { return authMiddleware(s.token, h) }

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/status", auth(s.handleStatus))
	mux.HandleFunc("GET /api/history", auth(s.handleHistory))
	mux.HandleFunc("POST /api/generate", auth(s.handleGenerate))
	mux.HandleFunc("GET /api/stream/{id}", auth(s.handleStream))
	mux.HandleFunc("GET /api/ws/{id}", auth(s.handleWebSocket))
	mux.HandleFunc("GET /api/sessions/{id}", auth(s.handleSession))
	mux.HandleFunc("DELETE /api/sessions/{id}", auth(s.handleCleanup))
	mux.HandleFunc("POST /api/sessions/{id}/style", auth(s.handleStyle))
	mux.HandleFunc("GET /api/sessions/{id}/result", auth(s.handleResult))
	mux.HandleFunc("POST /api/cleanup/{id}", auth(s.handleCleanup))

	return requestMiddleware(s.logger, mux)
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api.bind is empty")
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
			s.logger.Error("api server error", logging.Error(err))
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
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	stages := api.StageHealthSlice(s.daemon.workflow.Health(r.Context()))
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: api.HealthStatus(stages), Stages: stages})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	withPreflight := parseBool(r.URL.Query().Get("preflight"))
	status := s.daemon.Status(r.Context(), withPreflight)
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Bind:         status.Bind,
		LockFilePath: status.LockFilePath,
		ArchivePath:  status.ArchivePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Preflight:    api.FromPreflight(status.Preflight),
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, services.Wrap(services.ErrValidation, "api", "history", "limit must be a positive integer", nil))
			return
		}
		limit = min(parsed, maxHistoryLimit)
	}
	if s.daemon.history == nil {
		s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: []api.HistoryEntry{}})
		return
	}
	records, err := s.daemon.history.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: api.FromRecords(records)})
}

func (s *apiServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	prefs := stage.Preferences{Tone: req.Tone, Style: req.Style, Description: req.Description}
	sess, err := s.daemon.workflow.StartSession(r.Context(), req.Username, prefs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := sess.ID()
	s.writeJSON(w, http.StatusCreated, api.GenerateResponse{
		SessionID:    id,
		StreamURL:    "/api/stream/" + id,
		WebSocketURL: "/api/ws/" + id,
	})
}

func (s *apiServer) handleSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.daemon.workflow.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromSnapshot(snap))
}

func (s *apiServer) handleStyle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req api.StyleRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Style) == "" {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "select style", "style is required", nil))
		return
	}
	if err := s.daemon.workflow.SelectStyle(id, req.Style, req.Description); err != nil {
		s.writeError(w, err)
		return
	}
	normalized, _ := stage.NormalizeStyle(req.Style)
	s.writeJSON(w, http.StatusOK, api.StyleResponse{SessionID: id, Style: normalized})
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.daemon.workflow.Result(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromResult(res))
}

// handleCleanup is idempotent: unknown and finished sessions still get 204.
func (s *apiServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	s.daemon.workflow.Cleanup(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode request", "invalid JSON body", err)
	}
	return nil
}

func parseBool(value string) bool {
	value = strings.TrimSpace(value)
	return value == "1" || strings.EqualFold(value, "true")
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	details := services.Details(err)
	status := statusForKind(details.Kind)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error("api request failed", logging.Args(logging.ErrorAttrs(err)...)...)
	}
	s.writeJSON(w, status, api.ErrorResponse{Error: details.Message, Kind: string(details.Kind), Hint: details.Hint})
}

// statusForKind maps error kinds to HTTP status codes.
func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindInvalidInput:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindInvalidState, services.KindAlreadySelected, services.KindNotReady:
		return http.StatusConflict
	case services.KindUnavailable:
		return http.StatusServiceUnavailable
	case services.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
