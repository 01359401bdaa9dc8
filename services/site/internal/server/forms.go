package server

import (
	"errors"
	"net/http"

	"github.com/galimov-i/music-site/internal/util"
	"github.com/galimov-i/music-site/services/site/internal/app"
)

type formResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// formHandler runs the shared steps of the public forms: method check, rate
// limit, body parse, then submit. failMsg is shown on unexpected errors.
func (s *Server) formHandler(w http.ResponseWriter, r *http.Request, failMsg, okMsg string, submit func(*http.Request) error) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if !s.allowRate(w, r, s.formLimiter) {
		return
	}
	if err := s.parseForm(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, formResponse{Errors: []string{failMsg}})
		return
	}
	if err := submit(r); err != nil {
		var verr *app.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, formResponse{Errors: verr.Messages})
			return
		}
		util.LoggerFromContext(r.Context()).Error("form submission failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, formResponse{Errors: []string{failMsg}})
		return
	}
	writeJSON(w, http.StatusOK, formResponse{Success: true, Message: okMsg})
}

func (s *Server) handleSongOrder(w http.ResponseWriter, r *http.Request) {
	s.formHandler(w, r, app.MsgSongOrderError, app.MsgSongOrderSent, func(r *http.Request) error {
		_, err := s.app.SubmitSongOrder(r.Context(), app.SongOrderInput{
			Name:        r.PostForm.Get("name"),
			Email:       r.PostForm.Get("email"),
			Phone:       r.PostForm.Get("phone"),
			SongType:    r.PostForm.Get("song_type"),
			Description: r.PostForm.Get("description"),
			Budget:      r.PostForm.Get("budget"),
			Deadline:    r.PostForm.Get("deadline"),
		})
		return err
	})
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.formHandler(w, r, app.MsgContactError, app.MsgContactSent, func(r *http.Request) error {
		_, err := s.app.SubmitContact(r.Context(), app.ContactInput{
			Name:    r.PostForm.Get("name"),
			Email:   r.PostForm.Get("email"),
			Message: r.PostForm.Get("message"),
		})
		return err
	})
}

func (s *Server) handleNewsletter(w http.ResponseWriter, r *http.Request) {
	s.formHandler(w, r, app.MsgGenericError, app.MsgSubscribed, func(r *http.Request) error {
		_, err := s.app.Subscribe(r.Context(), r.PostForm.Get("email"))
		return err
	})
}
