package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/gosdrtx/radiotx/internal/logging"
)

// WebServer exposes a Hub's history and live stream over HTTP.
type WebServer struct {
	srv *http.Server
	log logging.Logger
}

// NewWebServer builds an HTTP server serving the history and live SSE
// endpoints backed by hub.
func NewWebServer(addr string, hub *Hub, log logging.Logger) *WebServer {
	if log == nil {
		log = logging.Default()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/history", hub.handleHistory)
	mux.HandleFunc("/api/live", hub.handleLive)

	return &WebServer{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: log,
	}
}

// Start begins listening and shuts down when ctx is canceled. It blocks
// until the server stops, so callers typically invoke it with `go`.
func (w *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.log.Warn("telemetry web server shutdown", logging.Field{Key: "err", Value: err})
		}
	}()

	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.log.Error("telemetry web server", logging.Field{Key: "err", Value: err})
	}
}
