package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dshills/critic/internal/completion"
	"github.com/dshills/critic/internal/logging"
	"github.com/dshills/critic/internal/review"
)

// Reviewer is the part of review.Service the server needs.
type Reviewer interface {
	Review(ctx context.Context, sub review.Submission, opts ...completion.CallOption) (*review.Result, error)
	Provider() string
	Model() string
}

// Server handles editor requests.
type Server struct {
	reviewer       Reviewer
	log            *logging.Logger
	allowedOrigins []string
	maxCodeBytes   int
	requestTimeout time.Duration
	handler        http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// WithMaxCodeBytes caps the size of submitted code.
func WithMaxCodeBytes(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxCodeBytes = n
		}
	}
}

// WithRequestTimeout bounds each review, retries included. Zero means no
// bound beyond the client's own connection.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.requestTimeout = d }
}

// DefaultMaxCodeBytes is the submission cap when none is configured.
const DefaultMaxCodeBytes = 200000

// New creates a Server for r.
func New(r Reviewer, opts ...Option) *Server {
	s := &Server{
		reviewer:       r,
		log:            logging.Discard(),
		allowedOrigins: []string{"*"},
		maxCodeBytes:   DefaultMaxCodeBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /ai/get-review", s.handleReview)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	s.handler = s.middleware(mux)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

type healthBody struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status:   "ok",
		Provider: s.reviewer.Provider(),
		Model:    s.reviewer.Model(),
	})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	// JSON escaping can grow the body well past the code itself.
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.maxCodeBytes)*2+4096)
	var sub review.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, reqID, http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, reqID, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(sub.Code) > s.maxCodeBytes {
		s.writeError(w, reqID, http.StatusRequestEntityTooLarge, fmt.Errorf("code exceeds %d bytes", s.maxCodeBytes))
		return
	}

	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	res, err := s.reviewer.Review(ctx, sub)
	if err != nil {
		status := StatusFor(err)
		if status >= 500 {
			s.log.Errorf("[%s] review failed: %v", reqID, err)
		}
		s.writeError(w, reqID, status, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, res)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(res.Markdown))
}

// StatusFor maps a review error to an HTTP status. An exhausted retry budget
// is 502 even when every attempt hit its own timeout; 504 is reserved for
// the request deadline.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, completion.ErrInvalidInput):
		return http.StatusBadRequest
	case completion.IsExhausted(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, reqID string, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), RequestID: reqID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// wantsJSON reports whether the client asked for JSON only. Browser HTTP
// clients routinely send "application/json, text/plain, */*"; those still get
// markdown, which is what the editor renders.
func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "json") {
		return true
	}
	var found bool
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt := strings.ToLower(strings.TrimSpace(strings.SplitN(part, ";", 2)[0]))
		switch {
		case mt == "application/json":
			found = true
		case mt == "*/*", strings.HasPrefix(mt, "text/"):
			return false
		}
	}
	return found
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully, giving in-flight requests up to grace to finish. The ready
// callback, if set, receives the bound address once listening.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, grace time.Duration, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if ready != nil {
		ready(ln.Addr())
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return <-errCh
	}
}
