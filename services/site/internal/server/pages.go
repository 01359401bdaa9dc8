package server

import (
	"bytes"
	"net/http"

	"github.com/galimov-i/music-site/internal/util"
)

const indexPage = "index.html"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, r, false, false)
}

func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, true, false)
}

func (s *Server) handlePaymentFailure(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, false, true)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, success, failure bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, "GET, HEAD")
		return
	}
	data := s.page
	data.PaymentSuccess = success
	data.PaymentFailure = failure

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, indexPage, data); err != nil {
		util.LoggerFromContext(r.Context()).Error("render page failed", "path", r.URL.Path, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf.Bytes())
}
