package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"speak-sfx/internal/domain"
)

// HTTPRecorder lets another device act as the microphone: clips and typed
// phrases are POSTed to it and handed out one per capture.
type HTTPRecorder struct {
	addr           string
	server         *http.Server
	audioChan      chan []byte
	logger         *slog.Logger
	mu             sync.Mutex
	running        bool
	mux            *http.ServeMux
	closeOnce      sync.Once
	rateLimiter    *RateLimiter
	authToken      string
	sampleRate     int
	initialTimeout time.Duration
}

func NewHTTPRecorder(addr, authToken string, sampleRate int, initialTimeout time.Duration, logger *slog.Logger) *HTTPRecorder {
	h := &HTTPRecorder{
		addr:           addr,
		audioChan:      make(chan []byte, 10),
		logger:         logger,
		mux:            http.NewServeMux(),
		rateLimiter:    NewRateLimiter(30, time.Minute),
		authToken:      authToken,
		sampleRate:     sampleRate,
		initialTimeout: initialTimeout,
	}
	h.mux.HandleFunc("POST /audio", h.rateLimiter.Middleware(h.authorize(h.handleAudio)))
	h.mux.HandleFunc("POST /text", h.rateLimiter.Middleware(h.authorize(h.handleText)))
	h.mux.HandleFunc("GET /health", h.handleHealth)
	return h
}

func (h *HTTPRecorder) Name() string {
	return "http"
}

func (h *HTTPRecorder) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		return nil
	}

	h.server = &http.Server{
		Addr:         h.addr,
		Handler:      h.mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		h.logger.Info("HTTP recorder starting", "addr", h.addr)
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", "error", err)
		}
	}()

	h.running = true
	return nil
}

func (h *HTTPRecorder) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return nil
	}

	if h.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.server.Shutdown(ctx); err != nil {
			h.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := h.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	h.closeOnce.Do(func() {
		close(h.audioChan)
	})
	h.running = false
	return nil
}

// Capture waits for the next posted clip. Nothing arriving within the initial
// timeout counts as silence.
func (h *HTTPRecorder) Capture(ctx context.Context, _ time.Duration) (*domain.Utterance, error) {
	timer := time.NewTimer(h.initialTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrNoSpeech
	case data, ok := <-h.audioChan:
		if !ok {
			return nil, fmt.Errorf("audio channel closed")
		}
		return domain.UtteranceFromPayload(data, h.sampleRate), nil
	}
}

func (h *HTTPRecorder) Handler() http.Handler {
	return h.mux
}

func (h *HTTPRecorder) InjectAudio(data []byte) {
	select {
	case h.audioChan <- data:
	default:
	}
}

func (h *HTTPRecorder) authorize(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token != h.authToken {
				h.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (h *HTTPRecorder) handleAudio(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 10*1024*1024))
	if err != nil {
		h.logger.Error("reading audio body", "error", err)
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) == 0 {
		http.Error(w, "empty audio", http.StatusBadRequest)
		return
	}

	h.enqueue(w, data, map[string]any{"status": "received", "bytes": len(data)})
}

func (h *HTTPRecorder) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1024))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	text := string(data)
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	h.enqueue(w, []byte(domain.TextCommandPrefix+text), map[string]any{"status": "received", "text": text})
}

func (h *HTTPRecorder) enqueue(w http.ResponseWriter, payload []byte, reply map[string]any) {
	select {
	case h.audioChan <- payload:
		h.logger.Info("queued clip via HTTP", "bytes", len(payload))
		writeJSON(w, http.StatusAccepted, reply)
	default:
		http.Error(w, "queue full, try again", http.StatusServiceUnavailable)
	}
}

func (h *HTTPRecorder) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	running := h.running
	queueSize := len(h.audioChan)
	h.mu.Unlock()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{"status": status, "running": running, "queue_size": queueSize})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
