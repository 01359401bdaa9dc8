package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/galimov-i/music-site/internal/ratelimit"
	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/services/site/internal/app"
	"github.com/galimov-i/music-site/services/site/internal/render"
)

const (
	defaultMaxFormBytes = 1 << 20
	// requestTimeout bounds handler work that talks to the store or processor.
	requestTimeout = 30 * time.Second
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Renderer render.Renderer
	// Limiters default to in-memory sliding windows of ratelimit.DefaultLimit
	// hits per minute.
	FormLimiter    ratelimit.Limiter
	PaymentLimiter ratelimit.Limiter
	TrustedProxies *util.IPSet
	// PublicBaseURL overrides the request origin in processor return URLs.
	PublicBaseURL string
	// Page carries the static landing page fields; the payment flags are set
	// per route.
	Page         render.PageData
	MaxFormBytes int64
}

// Server exposes the site's pages and form endpoints.
type Server struct {
	app            *app.App
	renderer       render.Renderer
	formLimiter    ratelimit.Limiter
	paymentLimiter ratelimit.Limiter
	trusted        *util.IPSet
	publicBaseURL  string
	page           render.PageData
	maxFormBytes   int64
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("renderer required")
	}
	newLimiter := func(name string, l ratelimit.Limiter) (ratelimit.Limiter, error) {
		if l != nil {
			return l, nil
		}
		limiter, err := ratelimit.NewSlidingWindowLimiter(ratelimit.DefaultLimit, ratelimit.DefaultWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	formLimiter, err := newLimiter("form", cfg.FormLimiter)
	if err != nil {
		return nil, err
	}
	paymentLimiter, err := newLimiter("payment", cfg.PaymentLimiter)
	if err != nil {
		return nil, err
	}
	maxFormBytes := cfg.MaxFormBytes
	if maxFormBytes <= 0 {
		maxFormBytes = defaultMaxFormBytes
	}
	s := &Server{
		app:            cfg.App,
		renderer:       cfg.Renderer,
		formLimiter:    formLimiter,
		paymentLimiter: paymentLimiter,
		trusted:        cfg.TrustedProxies,
		publicBaseURL:  strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		page:           cfg.Page,
		maxFormBytes:   maxFormBytes,
		mux:            http.NewServeMux(),
	}
	if s.page.CoursePrice == "" {
		s.page.CoursePrice = cfg.App.CoursePrice().StringFixed(0)
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(s.trusted, util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// pages
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/payment-success", s.handlePaymentSuccess)
	s.mux.HandleFunc("/payment-failure", s.handlePaymentFailure)

	// forms
	s.mux.HandleFunc("/submit-song-order", s.handleSongOrder)
	s.mux.HandleFunc("/submit-contact", s.handleContact)
	s.mux.HandleFunc("/subscribe-newsletter", s.handleNewsletter)

	// payments
	s.mux.HandleFunc("/create-payment", s.handleCreatePayment)
	s.mux.HandleFunc("/webhook/yookassa", s.handleYooKassaWebhook)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// allowRate applies limiter to the caller IP. Limiter failures reject the
// request.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter) bool {
	key := util.ClientIP(r, s.trusted)
	decision, err := limiter.Allow(r.Context(), key)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("rate limiter failed", "client_ip", key, "err", err)
	}
	if err == nil && decision.Allowed {
		return true
	}
	retry := decision.RetryAfter
	if retry <= 0 {
		retry = ratelimit.DefaultWindow
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
	writeJSON(w, http.StatusTooManyRequests, formResponse{Errors: []string{app.MsgRateLimited}})
	return false
}

// parseForm reads url-encoded or multipart bodies up to maxFormBytes.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFormBytes)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(s.maxFormBytes)
	}
	return r.ParseForm()
}

// baseURL is the public origin used for processor return URLs.
func (s *Server) baseURL(r *http.Request) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if s.trusted.ContainsString(util.PeerIP(r)) &&
		strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
