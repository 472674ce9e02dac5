package mcptools

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type healthResponse struct {
	Status     string `json:"status"`
	Session    string `json:"session"`
	Simulation bool   `json:"simulation"`
}

// NewHTTPHandler serves the SSE transport next to a health check. baseURL is
// the externally visible address clients use to post messages.
func NewHTTPHandler(s *Server, baseURL string) http.Handler {
	sse := server.NewSSEServer(s.mcp, server.WithBaseURL(baseURL))

	router := mux.NewRouter()
	router.Handle("/healthz", otelhttp.WithRouteTag("/healthz", http.HandlerFunc(s.handleHealth))).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(sse)

	return otelhttp.NewHandler(router, "shioaji-mcp")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.session.State()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(healthResponse{
		Status:     "ok",
		Session:    string(status.State),
		Simulation: status.Simulation,
	}); err != nil {
		log.Errorf("handleHealth: failed to encode response: %v", err)
	}
}
