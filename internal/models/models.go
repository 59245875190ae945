// Package models holds the types shared between the API, config store, and
// event bus.
package models

// Settings are the persisted user-desired EC settings. Nil fields mean "not
// managed by fwecd"; the EC keeps its own default. Values are percentages.
type Settings struct {
	ChargeLimit  *int `json:"charge_limit,omitempty"`
	KbdBacklight *int `json:"kbd_backlight,omitempty"`
}

// ControlEvent describes one applied control write, delivered to SSE
// subscribers.
type ControlEvent struct {
	Control string `json:"control"`
	Value   int    `json:"value"`
}

// Info is the identity and topology snapshot served at /api/info.
type Info struct {
	Vendor   string `json:"vendor"`
	Product  string `json:"product"`
	Hostname string `json:"hostname"`
	Version  string `json:"version"`
	Fans     int    `json:"fans"`
	Controls int    `json:"controls"`
	Mock     bool   `json:"mock"`
}
