package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/anicoll/bytewatt-integration/internal/pkg/model"
	"go.uber.org/zap"
)

// batteryRefresher is the slice of the refresher the status server needs.
type batteryRefresher interface {
	Refresh(ctx context.Context) (model.Snapshot, error)
	Snapshot() (model.Snapshot, bool)
	LastUpdate() time.Time
	LastErr() error
}

type server struct {
	refresher batteryRefresher
	logger    *zap.Logger
}

func New(refresher batteryRefresher) *server {
	return &server{refresher: refresher, logger: zap.L()}
}

// Routes assembles the status mux. metricsHandler serves /metrics and is
// injected so the prometheus registry stays owned by cmd.
func (s *server) Routes(metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.getHealth)
	mux.HandleFunc("GET /api/v1/snapshot", s.getSnapshot)
	mux.HandleFunc("POST /api/v1/refresh", s.postRefresh)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
	return LoggingMiddleware(mux)
}

type snapshotPayload struct {
	Data       model.Snapshot `json:"data,omitempty"`
	LastUpdate *time.Time     `json:"last_update,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
}

func (s *server) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// getSnapshot serves the cached snapshot; it never triggers a fetch.
func (s *server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := s.refresher.Snapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, snapshotPayload{
			LastError: errText(s.refresher.LastErr()),
		})
		return
	}
	lastUpdate := s.refresher.LastUpdate()
	writeJSON(w, http.StatusOK, snapshotPayload{
		Data:       snapshot,
		LastUpdate: &lastUpdate,
		LastError:  errText(s.refresher.LastErr()),
	})
}

// postRefresh triggers a refresh cycle. A request arriving while a fetch
// is already in flight joins it rather than starting another one.
func (s *server) postRefresh(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.refresher.Refresh(r.Context())
	if err != nil {
		s.logger.Error("manual refresh failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, snapshotPayload{LastError: err.Error()})
		return
	}
	lastUpdate := s.refresher.LastUpdate()
	writeJSON(w, http.StatusOK, snapshotPayload{Data: snapshot, LastUpdate: &lastUpdate})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
