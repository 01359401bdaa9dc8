package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/services/site/internal/app"
)

type paymentResponse struct {
	Success         bool   `json:"success"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
	DemoMode        bool   `json:"demo_mode,omitempty"`
	Message         string `json:"message,omitempty"`
	Error           string `json:"error,omitempty"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.allowRate(w, r, s.paymentLimiter) {
		return
	}
	if err := s.parseForm(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, paymentResponse{Error: app.ErrPaymentFieldsRequired.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	res, err := s.app.CreatePayment(ctx, app.PaymentRequest{
		Name:          r.PostForm.Get("name"),
		Email:         r.PostForm.Get("email"),
		Phone:         r.PostForm.Get("phone"),
		ReturnBaseURL: s.baseURL(r),
	})
	switch {
	case errors.Is(err, app.ErrPaymentFieldsRequired):
		writeJSON(w, http.StatusBadRequest, paymentResponse{Error: err.Error()})
		return
	case err != nil:
		util.LoggerFromContext(r.Context()).Error("create payment failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, paymentResponse{Error: app.MsgPaymentError})
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{
		Success:         true,
		ConfirmationURL: res.ConfirmationURL,
		DemoMode:        res.DemoMode,
		Message:         res.Message,
	})
}

func (s *Server) handleYooKassaWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxFormBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, app.ErrWebhookNoData.Error())
		return
	}
	_, err = s.app.HandleWebhook(r.Context(), body, util.ClientIP(r, s.trusted))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, app.ErrWebhookForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case app.IsWebhookMalformed(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		util.LoggerFromContext(r.Context()).Error("webhook failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
