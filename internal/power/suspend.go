// Package power listens for suspend/resume transitions on the system D-Bus.
// The EC loses the host-applied charge limit across some suspend paths, so
// fwecd re-applies the persisted settings after every resume.
package power

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest      = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	prepareForSleep = "org.freedesktop.login1.Manager.PrepareForSleep"
)

// ResumeListener invokes a callback after each resume from suspend.
type ResumeListener struct {
	conn     *dbus.Conn
	onResume func()
}

// NewResumeListener connects to the system bus and subscribes to login1's
// PrepareForSleep signal. onResume runs on the listener goroutine.
func NewResumeListener(onResume func()) (*ResumeListener, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("power: connect system bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchSender(login1Dest),
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("power: match PrepareForSleep: %w", err)
	}

	return &ResumeListener{conn: conn, onResume: onResume}, nil
}

// Run consumes signals until ctx is cancelled. PrepareForSleep carries one
// boolean: true before sleep, false after wake; only the wake edge matters
// here.
func (l *ResumeListener) Run(ctx context.Context) {
	ch := make(chan *dbus.Signal, 8)
	l.conn.Signal(ch)
	defer l.conn.Close()

	slog.Info("power: listening for suspend/resume")
	for {
		select {
		case sig, ok := <-ch:
			if !ok {
				return
			}
			if sig.Name != prepareForSleep || len(sig.Body) != 1 {
				continue
			}
			sleeping, ok := sig.Body[0].(bool)
			if !ok {
				continue
			}
			if sleeping {
				slog.Debug("power: system entering sleep")
				continue
			}
			slog.Info("power: resumed from sleep, re-applying settings")
			l.onResume()
		case <-ctx.Done():
			return
		}
	}
}
