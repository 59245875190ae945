package bridge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/framework-community/fwecd/internal/bridge"
	"github.com/framework-community/fwecd/internal/ec"
)

func newBridge(t *testing.T, fans int) (*bridge.Bridge, *ec.Mock) {
	t.Helper()
	dev := ec.NewMock()
	return bridge.New(dev, fans), dev
}

func TestChargeLimitRoundTrip(t *testing.T) {
	b, _ := newBridge(t, 2)
	ctx := context.Background()

	for _, p := range []int{0, 1, 50, 99, 100} {
		if err := b.SetChargeLimit(ctx, p); err != nil {
			t.Fatalf("SetChargeLimit(%d): %v", p, err)
		}
		got, err := b.ChargeLimit(ctx)
		if err != nil {
			t.Fatalf("ChargeLimit after set %d: %v", p, err)
		}
		if got != p {
			t.Errorf("round trip %d: got %d", p, got)
		}
	}
}

func TestChargeLimitOutOfRange(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	for _, p := range []int{101, 200, -1} {
		if err := b.SetChargeLimit(ctx, p); !errors.Is(err, ec.ErrOutOfRange) {
			t.Errorf("SetChargeLimit(%d): err = %v, want ErrOutOfRange", p, err)
		}
	}
	// Rejection happens before the transport: no commands issued.
	if n := len(dev.Calls()); n != 0 {
		t.Errorf("out-of-range writes issued %d transport calls, want 0", n)
	}
}

func TestChargeLimitModes(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	if err := b.SetChargeLimit(ctx, 80); err != nil {
		t.Fatal(err)
	}
	if !dev.ChargeLimitActive() {
		t.Error("limit should be active after set")
	}
	if err := b.OverrideChargeLimit(ctx); err != nil {
		t.Fatal(err)
	}
	if !dev.ChargeLimitActive() {
		t.Error("override must not clear the limit")
	}
	if err := b.DisableChargeLimit(ctx); err != nil {
		t.Fatal(err)
	}
	if dev.ChargeLimitActive() {
		t.Error("limit should be inactive after disable")
	}
}

func TestBacklightScaling(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	tests := []struct {
		duty uint16
		want int
	}{
		{0, 0},
		{ec.MaxDuty, 100},
		{ec.MaxDuty / 2, 49},   // 32767*100/65535 truncates
		{655, 0},               // just below 1%
		{656, 1},               // just above
	}
	for _, tc := range tests {
		dev.SetKbDuty(tc.duty)
		got, err := b.Backlight(ctx)
		if err != nil {
			t.Fatalf("Backlight(duty=%d): %v", tc.duty, err)
		}
		if got != tc.want {
			t.Errorf("duty %d: got %d%%, want %d%%", tc.duty, got, tc.want)
		}
	}
}

func TestBacklightSetTruncationBucket(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	// set(p) then get() may lose precision to truncation, but must land in
	// the same bucket as computing the scale directly from p.
	for p := 0; p <= 100; p += 7 {
		if err := b.SetBacklight(ctx, p); err != nil {
			t.Fatalf("SetBacklight(%d): %v", p, err)
		}
		want := int(uint32(dev.KbDuty()) * 100 / ec.MaxDuty)
		got, err := b.Backlight(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("set %d: read %d, want truncation bucket %d", p, got, want)
		}
	}

	if err := b.SetBacklight(ctx, 150); !errors.Is(err, ec.ErrOutOfRange) {
		t.Errorf("SetBacklight(150): err = %v, want ErrOutOfRange", err)
	}
}

func TestFanSpeedSentinels(t *testing.T) {
	b, dev := newBridge(t, 3)
	dev.SetFanTable([ec.FanSpeedEntries]uint16{3200, ec.FanNotPresent, ec.FanStalled, ec.FanNotPresent})
	ctx := context.Background()

	tests := []struct {
		fan          int
		rpm          int
		fault, alarm bool
	}{
		{0, 3200, false, false},
		{1, 0, true, false},
		// Stalled reports the raw sentinel through the input reading.
		{2, int(ec.FanStalled), false, true},
	}
	for _, tc := range tests {
		rpm, fault, alarm, err := b.FanSpeed(ctx, tc.fan)
		if err != nil {
			t.Fatalf("FanSpeed(%d): %v", tc.fan, err)
		}
		if rpm != tc.rpm || fault != tc.fault || alarm != tc.alarm {
			t.Errorf("fan %d: got rpm=%d fault=%v alarm=%v, want rpm=%d fault=%v alarm=%v",
				tc.fan, rpm, fault, alarm, tc.rpm, tc.fault, tc.alarm)
		}
		if fault && alarm {
			t.Errorf("fan %d: fault and alarm must be mutually exclusive", tc.fan)
		}
	}
}

func TestFanTargetReadOnlyChannelZero(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	if err := b.SetFanTarget(ctx, 0, 2500); err != nil {
		t.Fatal(err)
	}
	got, err := b.FanTarget(ctx, 0)
	if err != nil {
		t.Fatalf("FanTarget(0): %v", err)
	}
	if got != 2500 {
		t.Errorf("target = %d, want 2500", got)
	}

	// The protocol cannot address reads beyond channel 0; alias silently is
	// exactly what must not happen.
	if _, err := b.FanTarget(ctx, 1); !errors.Is(err, ec.ErrChannelAddressing) {
		t.Errorf("FanTarget(1): err = %v, want ErrChannelAddressing", err)
	}

	// Writes are per-channel addressable: exactly one transport call, and it
	// carries the requested index.
	before := len(dev.Calls())
	if err := b.SetFanTarget(ctx, 1, 3000); err != nil {
		t.Fatal(err)
	}
	calls := dev.Calls()
	if len(calls) != before+1 {
		t.Fatalf("SetFanTarget issued %d calls, want 1", len(calls)-before)
	}
	last := calls[len(calls)-1]
	if last.Opcode != ec.CmdFanTargetRPMSet || last.Params[4] != 1 {
		t.Errorf("last call opcode=0x%04x idx=%d, want 0x%04x idx=1", last.Opcode, last.Params[4], ec.CmdFanTargetRPMSet)
	}
	if dev.FanTarget(1) != 3000 {
		t.Errorf("fan 1 target = %d, want 3000", dev.FanTarget(1))
	}
}

func TestFanChannelRange(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	if _, _, _, err := b.FanSpeed(ctx, 2); !errors.Is(err, ec.ErrChannelAddressing) {
		t.Errorf("FanSpeed(2) on 2-fan bridge: err = %v, want ErrChannelAddressing", err)
	}
	if err := b.SetFanDuty(ctx, -1, 50); !errors.Is(err, ec.ErrChannelAddressing) {
		t.Errorf("SetFanDuty(-1): err = %v, want ErrChannelAddressing", err)
	}
	if n := len(dev.Calls()); n != 0 {
		t.Errorf("range violations issued %d transport calls, want 0", n)
	}
}

func TestFanDutyAndAuto(t *testing.T) {
	b, dev := newBridge(t, 2)
	ctx := context.Background()

	if err := b.SetFanDuty(ctx, 1, 70); err != nil {
		t.Fatal(err)
	}
	if dev.FanDuty(1) != 70 {
		t.Errorf("duty = %d, want 70", dev.FanDuty(1))
	}
	if err := b.SetFanDuty(ctx, 1, 101); !errors.Is(err, ec.ErrOutOfRange) {
		t.Errorf("duty 101: err = %v, want ErrOutOfRange", err)
	}

	if err := b.EnableAutoFan(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if !dev.AutoFan(1) {
		t.Error("fan 1 should be back in automatic control")
	}
}

func TestAbsentDeviceFailsFast(t *testing.T) {
	b, dev := newBridge(t, 2)
	dev.SetAbsent(true)
	ctx := context.Background()

	if _, err := b.ChargeLimit(ctx); !errors.Is(err, ec.ErrNoDevice) {
		t.Errorf("ChargeLimit: err = %v, want ErrNoDevice", err)
	}
	if err := b.SetBacklight(ctx, 10); !errors.Is(err, ec.ErrNoDevice) {
		t.Errorf("SetBacklight: err = %v, want ErrNoDevice", err)
	}
	if _, _, _, err := b.FanSpeed(ctx, 0); !errors.Is(err, ec.ErrNoDevice) {
		t.Errorf("FanSpeed: err = %v, want ErrNoDevice", err)
	}
	if n := len(dev.Calls()); n != 0 {
		t.Errorf("absent device recorded %d transport calls, want 0", n)
	}
}

func TestTransferErrorPropagates(t *testing.T) {
	b, dev := newBridge(t, 2)
	dev.SetFailTransfer(true)
	ctx := context.Background()

	if _, err := b.ChargeLimit(ctx); !errors.Is(err, ec.ErrTransfer) {
		t.Errorf("ChargeLimit: err = %v, want ErrTransfer", err)
	}
}
