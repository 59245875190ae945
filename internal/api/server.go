// Package api implements the HTTP control surface for fwecd. Control points
// are served as newline-terminated decimal text, the way a hwmon/sysfs
// consumer would expect them; listings and errors are JSON.
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/framework-community/fwecd/internal/ec"
	"github.com/framework-community/fwecd/internal/models"
	"github.com/framework-community/fwecd/internal/surface"
)

// EventBus is the interface for publishing and subscribing to control-change
// events.
type EventBus interface {
	Subscribe(id string) <-chan models.ControlEvent
	Unsubscribe(id string)
	Publish(ev models.ControlEvent)
}

// BatteryOps are the charge-limit mode operations that have no control-point
// representation: they carry no value, only an effect.
type BatteryOps interface {
	DisableChargeLimit(ctx context.Context) error
	OverrideChargeLimit(ctx context.Context) error
}

// Server holds the registered control surface and serves it. It is the
// registration service: Register swaps the whole surface in atomically,
// Unregister swaps it out, and an empty surface is valid (requests simply
// 404).
type Server struct {
	mu     sync.RWMutex
	groups []surface.Group

	battery BatteryOps
	events  EventBus
	info    func() models.Info
}

// NewServer creates an API server with an empty control surface.
func NewServer(battery BatteryOps, events EventBus, info func() models.Info) *Server {
	return &Server{battery: battery, events: events, info: info}
}

// Register atomically publishes the grouped control-point set. Callers see
// either the previous surface or the complete new one, never a partial mix.
func (s *Server) Register(groups []surface.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = groups
	slog.Info("api: control surface registered",
		"groups", len(groups),
		"controls", surface.Count(groups),
	)
	return nil
}

// Unregister atomically retracts the surface. Valid even when nothing was
// registered.
func (s *Server) Unregister() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = nil
	slog.Info("api: control surface unregistered")
}

// snapshot returns the currently registered groups.
func (s *Server) snapshot() []surface.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups
}

// appError maps a handler failure onto the API error taxonomy.
func appError(err error) *models.AppError {
	var app *models.AppError
	switch {
	case errors.As(err, &app):
		return app
	case errors.Is(err, ec.ErrNoDevice):
		return models.ErrNoEC(err.Error())
	case errors.Is(err, ec.ErrOutOfRange):
		return models.ErrBadRequest(err.Error())
	case errors.Is(err, ec.ErrChannelAddressing):
		return models.ErrNotAllowed(err.Error())
	case errors.Is(err, ec.ErrShortResponse), errors.Is(err, ec.ErrTransfer):
		return models.ErrECFailure(err.Error())
	default:
		return models.ErrInternal(err.Error())
	}
}

var _ surface.Registry = (*Server)(nil)
