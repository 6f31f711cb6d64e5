package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	apimw "github.com/hamed0406/sitewatch/internal/httpapi/middleware"
)

// DownReader exposes the current down-set.
type DownReader interface {
	IsDown(t domain.Target) bool
	Snapshot() []domain.Target
}

type Server struct {
	Logger  *zap.Logger
	Targets []domain.Target
	Down    DownReader
}

func NewServer(l *zap.Logger, targets []domain.Target, down DownReader) *Server {
	return &Server{Logger: l, Targets: targets, Down: down}
}

// Router serves /healthz openly and /api/* behind keys and a per-IP rate
// limit. Empty keys leave the API open.
func (s *Server) Router(keys []string, reqPerMin, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(reqPerMin, burst))
		r.Use(apimw.RequireKey(keys))
		r.Get("/status", s.handleStatus)
	})

	return r
}

type targetStatus struct {
	URL string `json:"url"`
	Up  bool   `json:"up"`
}

type statusResponse struct {
	Targets []targetStatus  `json:"targets"`
	Down    []domain.Target `json:"down"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Targets: make([]targetStatus, 0, len(s.Targets)),
		Down:    s.Down.Snapshot(),
	}
	seen := make(map[domain.Target]bool, len(s.Targets))
	for _, t := range s.Targets {
		if seen[t] {
			continue
		}
		seen[t] = true
		resp.Targets = append(resp.Targets, targetStatus{URL: string(t), Up: !s.Down.IsDown(t)})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Warn("status_encode_error", zap.Error(err))
	}
}
