// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/google/uuid"

	"mcp-food-diary/internal/config"
	"mcp-food-diary/internal/diary"
	"mcp-food-diary/internal/ledger"
	"mcp-food-diary/internal/models"
	"mcp-food-diary/internal/observability"
	"mcp-food-diary/internal/sampling"
	"mcp-food-diary/internal/storage"
)

const serverVersion = "1.0.0"

var serverInfo = protocol.Implementation{
	Name:    "food-diary",
	Version: serverVersion,
}

type toolHandler func(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type DiaryServer struct {
	httpServer *http.Server
	diary      *diary.Manager
	closer     func() error
	tools      map[string]toolHandler
	config     *config.Config
}

// NewDiaryServer wires storage and the model client from cfg.
func NewDiaryServer(cfg *config.Config) (*DiaryServer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var (
		store  diary.Store
		closer func() error
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store = storage.NewMemoryStorage()
	default:
		stor, err := storage.NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store, closer = stor, stor.Close
	}

	var model diary.ModelClient
	if cfg.UseMockLLM {
		observability.Logger().Info("using mock model client")
		model = sampling.NewMock()
	} else {
		model = sampling.NewClient(sampling.Config{
			ProxyURL: cfg.ProxyURL,
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			Timeout:  cfg.LLMTimeout,
		})
	}

	mgr := diary.NewManager(model, store, diary.WithLocation(loc))
	s := NewWithManager(cfg, mgr)
	s.closer = closer
	return s, nil
}

// NewWithManager serves an already built diary.
func NewWithManager(cfg *config.Config, mgr *diary.Manager) *DiaryServer {
	s := &DiaryServer{
		diary:  mgr,
		config: cfg,
	}
	s.registerTools()

	mgr.OnStatsUpdated(func(date string, _ ledger.Reducer) {
		observability.WithFields("component", "ledger").Debug("daily stats updated", "date", date)
	})

	s.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *DiaryServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/tools", s.handleListTools)
	mux.HandleFunc("/", s.handleHTTP)
	return withRequestID(mux)
}

// withRequestID tags each request with an id for logs and the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := observability.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *DiaryServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *DiaryServer) handleListTools(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"server": serverInfo,
		"tools":  s.toolNames(),
	})
}

func (s *DiaryServer) handleHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	log := observability.LoggerFromContext(r.Context())

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	handler, ok := s.tools[request.Name]
	if !ok {
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	result, err := handler(r.Context(), &request)
	if err != nil {
		status := statusFor(err)
		log.Warn("tool call failed", "tool", request.Name, "status", status, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func statusFor(err error) int {
	var (
		callErr    *models.ModelCallError
		extractErr *models.ExtractionError
		persistErr *models.PersistenceError
	)
	switch {
	case errors.Is(err, errInvalidParams), errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrNotUserMessage):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.As(err, &callErr):
		return http.StatusBadGateway
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &persistErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *DiaryServer) Start(ctx context.Context) error {
	observability.Logger().Info("starting food diary server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *DiaryServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	if s.closer != nil {
		if cerr := s.closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (s *DiaryServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			&protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
