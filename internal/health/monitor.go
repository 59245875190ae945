// Package health runs the background fan health monitor. It polls the
// tachometer table and turns sentinel transitions into log lines and
// control-change events, so SSE clients see a stall without polling.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/framework-community/fwecd/internal/models"
)

const defaultInterval = 5 * time.Second

// FanReader is the slice of the bridge the monitor needs.
type FanReader interface {
	Fans() int
	FanSpeed(ctx context.Context, fan int) (rpm int, fault, alarm bool, err error)
}

// Publisher delivers control-change events to subscribers.
type Publisher interface {
	Publish(models.ControlEvent)
}

type fanState struct {
	fault bool
	alarm bool
}

// Monitor watches fan channels for stall and presence transitions.
type Monitor struct {
	fans     FanReader
	bus      Publisher
	interval time.Duration
	state    []fanState
}

// NewMonitor creates a monitor polling at the default interval.
func NewMonitor(fans FanReader, bus Publisher) *Monitor {
	return &Monitor{
		fans:     fans,
		bus:      bus,
		interval: defaultInterval,
		state:    make([]fanState, fans.Fans()),
	}
}

// Start polls until ctx is cancelled. With no fan channels it returns
// immediately; there is nothing to watch.
func (m *Monitor) Start(ctx context.Context) {
	if m.fans.Fans() == 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll reads every fan channel once and publishes transitions. Exported so
// a poll can be forced, e.g. right after resume.
func (m *Monitor) Poll(ctx context.Context) {
	for fan := 0; fan < m.fans.Fans(); fan++ {
		rpm, fault, alarm, err := m.fans.FanSpeed(ctx, fan)
		if err != nil {
			slog.Warn("health: fan read failed", "fan", fan, "err", err)
			continue
		}
		prev := m.state[fan]
		if alarm != prev.alarm {
			if alarm {
				slog.Warn("health: fan stalled", "fan", fan)
			} else {
				slog.Info("health: fan recovered", "fan", fan, "rpm", rpm)
			}
			m.publish(fmt.Sprintf("fan%d_alarm", fan), alarm)
		}
		if fault != prev.fault {
			if fault {
				slog.Warn("health: fan reading lost", "fan", fan)
			} else {
				slog.Info("health: fan reading restored", "fan", fan, "rpm", rpm)
			}
			m.publish(fmt.Sprintf("fan%d_fault", fan), fault)
		}
		m.state[fan] = fanState{fault: fault, alarm: alarm}
	}
}

func (m *Monitor) publish(control string, on bool) {
	v := 0
	if on {
		v = 1
	}
	m.bus.Publish(models.ControlEvent{Control: control, Value: v})
}
