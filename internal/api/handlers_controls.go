package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/framework-community/fwecd/internal/models"
	"github.com/framework-community/fwecd/internal/surface"
	"github.com/go-chi/chi/v5"
)

// controlInfo is one entry in the /api/controls listing.
type controlInfo struct {
	Name    string `json:"name"`
	Mode    string `json:"mode"`
	Group   string `json:"group"`
	Channel int    `json:"channel,omitempty"`
}

func (s *Server) listControls(w http.ResponseWriter, r *http.Request) {
	groups := s.snapshot()
	out := make([]controlInfo, 0, surface.Count(groups))
	for _, g := range groups {
		for _, p := range g.Points {
			out = append(out, controlInfo{
				Name:    p.Name,
				Mode:    p.Mode.String(),
				Group:   p.Group,
				Channel: p.Channel,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p := surface.Find(s.snapshot(), name)
	if p == nil {
		writeError(w, models.ErrNotFound("no such control: "+name))
		return
	}
	if !p.Mode.CanRead() {
		writeError(w, models.ErrNotAllowed("control is write-only: "+name))
		return
	}
	v, err := p.Read(r.Context())
	if err != nil {
		writeError(w, appError(err))
		return
	}
	writeText(w, http.StatusOK, surface.FormatValue(v))
}

func (s *Server) putControl(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p := surface.Find(s.snapshot(), name)
	if p == nil {
		writeError(w, models.ErrNotFound("no such control: "+name))
		return
	}
	if !p.Mode.CanWrite() {
		writeError(w, models.ErrNotAllowed("control is read-only: "+name))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64))
	if err != nil {
		writeError(w, models.ErrBadRequest("read body: "+err.Error()))
		return
	}
	v, err := surface.ParseValue(string(body))
	if err != nil {
		writeError(w, models.ErrBadRequest(err.Error()))
		return
	}

	if err := p.Write(r.Context(), v); err != nil {
		writeError(w, appError(err))
		return
	}
	s.events.Publish(models.ControlEvent{Control: name, Value: v})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) batteryOverride(w http.ResponseWriter, r *http.Request) {
	if err := s.battery.OverrideChargeLimit(r.Context()); err != nil {
		writeError(w, appError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) batteryDisable(w http.ResponseWriter, r *http.Request) {
	if err := s.battery.DisableChargeLimit(r.Context()); err != nil {
		writeError(w, appError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeText writes a plain-text response (control values).
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}
