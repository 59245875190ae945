// Package surface derives the exposed control-point set from the hardware
// shape discovered at startup. The set is data-driven: per-fan points are
// generated from one template per discovered channel rather than enumerated
// as fixed slots.
package surface

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/framework-community/fwecd/internal/bridge"
)

// Mode describes which directions a control point supports.
type Mode uint8

const (
	ReadOnly Mode = iota
	WriteOnly
	ReadWrite
)

func (m Mode) String() string {
	switch m {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	case ReadWrite:
		return "rw"
	default:
		return "unknown"
	}
}

// CanRead reports whether reads are allowed.
func (m Mode) CanRead() bool { return m == ReadOnly || m == ReadWrite }

// CanWrite reports whether writes are allowed.
func (m Mode) CanWrite() bool { return m == WriteOnly || m == ReadWrite }

// Point is one named control point. Read and Write are nil when the mode
// does not allow the direction. Channel is -1 for the singleton points.
type Point struct {
	Name    string
	Mode    Mode
	Group   string
	Channel int
	Read    func(ctx context.Context) (int, error)
	Write   func(ctx context.Context, v int) error
}

// Group is a named set of control points registered and retracted together.
type Group struct {
	Name   string
	Points []Point
}

// Registry accepts and retracts the grouped control-point set. Register
// presents the whole surface atomically; no partially-registered state is
// observable. Unregister is the exact inverse and must succeed for an empty
// surface too.
type Registry interface {
	Register(groups []Group) error
	Unregister()
}

// FormatValue renders a control value as newline-terminated decimal text.
func FormatValue(v int) string {
	return strconv.Itoa(v) + "\n"
}

// ParseValue parses newline-terminated decimal text into a control value.
func ParseValue(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("surface: bad value %q: %w", s, err)
	}
	return v, nil
}

func boolVal(b bool) int {
	if b {
		return 1
	}
	return 0
}

func constant(v int) func(ctx context.Context) (int, error) {
	return func(ctx context.Context) (int, error) { return v, nil }
}

// Build constructs the full control surface over b: the battery and
// keyboard-backlight singletons plus eight points per discovered fan
// channel. A zero fan count yields just the two singleton groups.
func Build(b *bridge.Bridge) []Group {
	groups := []Group{
		{
			Name: "battery",
			Points: []Point{{
				Name:    "charge_control_end_threshold",
				Mode:    ReadWrite,
				Group:   "battery",
				Channel: -1,
				Read:    b.ChargeLimit,
				Write:   b.SetChargeLimit,
			}},
		},
		{
			Name: "leds",
			Points: []Point{{
				Name:    "kbd_backlight",
				Mode:    ReadWrite,
				Group:   "leds",
				Channel: -1,
				Read:    b.Backlight,
				Write:   b.SetBacklight,
			}},
		},
	}

	for i := 0; i < b.Fans(); i++ {
		groups = append(groups, fanGroup(b, i))
	}
	return groups
}

// fanGroup generates the eight control points for one fan channel.
func fanGroup(b *bridge.Bridge, fan int) Group {
	name := fmt.Sprintf("fan%d", fan)
	readSpeed := func(pick func(rpm int, fault, alarm bool) int) func(ctx context.Context) (int, error) {
		return func(ctx context.Context) (int, error) {
			rpm, fault, alarm, err := b.FanSpeed(ctx, fan)
			if err != nil {
				return 0, err
			}
			return pick(rpm, fault, alarm), nil
		}
	}

	return Group{
		Name: name,
		Points: []Point{
			{
				Name: fmt.Sprintf("fan%d_input", fan), Mode: ReadOnly, Group: name, Channel: fan,
				Read: readSpeed(func(rpm int, fault, alarm bool) int { return rpm }),
			},
			{
				Name: fmt.Sprintf("fan%d_target", fan), Mode: ReadWrite, Group: name, Channel: fan,
				Read: func(ctx context.Context) (int, error) { return b.FanTarget(ctx, fan) },
				Write: func(ctx context.Context, v int) error {
					return b.SetFanTarget(ctx, fan, v)
				},
			},
			{
				Name: fmt.Sprintf("fan%d_fault", fan), Mode: ReadOnly, Group: name, Channel: fan,
				Read: readSpeed(func(rpm int, fault, alarm bool) int { return boolVal(fault) }),
			},
			{
				Name: fmt.Sprintf("fan%d_alarm", fan), Mode: ReadOnly, Group: name, Channel: fan,
				Read: readSpeed(func(rpm int, fault, alarm bool) int { return boolVal(alarm) }),
			},
			{
				Name: fmt.Sprintf("pwm%d_enable", fan), Mode: WriteOnly, Group: name, Channel: fan,
				// The command takes no value; writing anything re-enables
				// automatic control.
				Write: func(ctx context.Context, v int) error { return b.EnableAutoFan(ctx, fan) },
			},
			{
				Name: fmt.Sprintf("pwm%d", fan), Mode: WriteOnly, Group: name, Channel: fan,
				Write: func(ctx context.Context, v int) error { return b.SetFanDuty(ctx, fan, v) },
			},
			{
				Name: fmt.Sprintf("pwm%d_min", fan), Mode: ReadOnly, Group: name, Channel: fan,
				Read: constant(0),
			},
			{
				Name: fmt.Sprintf("pwm%d_max", fan), Mode: ReadOnly, Group: name, Channel: fan,
				Read: constant(100),
			},
		},
	}
}

// Count returns the total number of points across groups.
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Points)
	}
	return n
}

// Find locates a point by name, or nil.
func Find(groups []Group, name string) *Point {
	for gi := range groups {
		for pi := range groups[gi].Points {
			if groups[gi].Points[pi].Name == name {
				return &groups[gi].Points[pi]
			}
		}
	}
	return nil
}
