// Package bridge implements the control handlers between the management
// surface and the EC. Every method is one synchronous request/response
// cycle: validate input, encode, transfer, decode. The bridge itself holds
// no hardware state — the EC is the only place state lives — so a failed
// write leaves previously-set state untouched, and nothing is retried here.
package bridge

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/framework-community/fwecd/internal/ec"
)

// Bridge routes control reads and writes to a single EC endpoint. The
// device handle and the discovered fan count are fixed at construction and
// never mutated afterwards.
type Bridge struct {
	dev  ec.Device
	fans int
}

// New builds a bridge over dev exposing fans discovered channels.
func New(dev ec.Device, fans int) *Bridge {
	return &Bridge{dev: dev, fans: fans}
}

// Fans returns the discovered fan channel count.
func (b *Bridge) Fans() int { return b.fans }

// ChargeLimit reads the battery charge limit percent. The get path shares
// the set opcode, selected by the mode bitmask with zeroed percent fields.
func (b *Bridge) ChargeLimit(ctx context.Context) (int, error) {
	params := ec.ChargeLimitParams{Modes: ec.ChargeLimitGet}
	buf, err := b.dev.Command(ctx, 0, ec.CmdChargeLimit, params.Encode(), ec.ChargeLimitResponseSize)
	if err != nil {
		return 0, err
	}
	resp, err := ec.DecodeChargeLimitResponse(buf)
	if err != nil {
		return 0, err
	}
	return int(resp.MaxPercent), nil
}

// SetChargeLimit sets the battery charge limit percent. Values outside
// [0,100] are rejected before any transport call.
func (b *Bridge) SetChargeLimit(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("charge limit %d%%: %w", percent, ec.ErrOutOfRange)
	}
	params := ec.ChargeLimitParams{Modes: ec.ChargeLimitSet, MaxPercent: uint8(percent)}
	_, err := b.dev.Command(ctx, 0, ec.CmdChargeLimit, params.Encode(), ec.ChargeLimitResponseSize)
	return err
}

// DisableChargeLimit hands charge control back to the EC's charge manager.
func (b *Bridge) DisableChargeLimit(ctx context.Context) error {
	params := ec.ChargeLimitParams{Modes: ec.ChargeLimitDisable}
	_, err := b.dev.Command(ctx, 0, ec.CmdChargeLimit, params.Encode(), ec.ChargeLimitResponseSize)
	return err
}

// OverrideChargeLimit allows one full charge without clearing the limit.
func (b *Bridge) OverrideChargeLimit(ctx context.Context) error {
	params := ec.ChargeLimitParams{Modes: ec.ChargeLimitOverride}
	_, err := b.dev.Command(ctx, 0, ec.CmdChargeLimit, params.Encode(), ec.ChargeLimitResponseSize)
	return err
}

// Backlight reads the keyboard backlight brightness as a percent. The EC
// reports a raw duty on the 0..MaxDuty scale; the rescale truncates toward
// zero.
func (b *Bridge) Backlight(ctx context.Context) (int, error) {
	params := ec.PWMGetDutyParams{PWMType: ec.PWMTypeKbLight}
	buf, err := b.dev.Command(ctx, 0, ec.CmdPWMGetDuty, params.Encode(), ec.PWMGetDutyResponseSize)
	if err != nil {
		return 0, err
	}
	resp, err := ec.DecodePWMGetDutyResponse(buf)
	if err != nil {
		return 0, err
	}
	return int(uint32(resp.Duty) * 100 / ec.MaxDuty), nil
}

// SetBacklight sets the keyboard backlight brightness percent. The command
// has no response payload; success is a completed transfer.
func (b *Bridge) SetBacklight(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("backlight %d%%: %w", percent, ec.ErrOutOfRange)
	}
	params := ec.KbBacklightParams{Percent: uint8(percent)}
	_, err := b.dev.Command(ctx, 0, ec.CmdKbBacklightSet, params.Encode(), 0)
	return err
}

// FanSpeed reads the tachometer for one fan channel straight out of EC
// shared memory. The two reserved table values are reported as conditions,
// not speeds: an absent channel reads as rpm 0 with fault set, a stalled
// one as the raw sentinel with alarm set. Fault and alarm are mutually
// exclusive by construction.
func (b *Bridge) FanSpeed(ctx context.Context, fan int) (rpm int, fault, alarm bool, err error) {
	if err := b.checkFan(fan); err != nil {
		return 0, false, false, err
	}
	buf, err := b.dev.ReadMem(ctx, ec.MemmapFan+2*fan, 2)
	if err != nil {
		return 0, false, false, err
	}
	v := binary.LittleEndian.Uint16(buf)
	switch v {
	case ec.FanNotPresent:
		return 0, true, false, nil
	case ec.FanStalled:
		return int(v), false, true, nil
	}
	return int(v), false, false, nil
}

// FanTarget reads the target RPM. The protocol carries no fan index on the
// read side and always reports channel 0, so reads on any other channel
// fail loudly rather than aliasing.
func (b *Bridge) FanTarget(ctx context.Context, fan int) (int, error) {
	if err := b.checkFan(fan); err != nil {
		return 0, err
	}
	if fan != 0 {
		return 0, fmt.Errorf("fan %d target read: %w", fan, ec.ErrChannelAddressing)
	}
	buf, err := b.dev.Command(ctx, 0, ec.CmdFanTargetRPMGet, nil, ec.FanTargetResponseSize)
	if err != nil {
		return 0, err
	}
	resp, err := ec.DecodeFanTargetResponse(buf)
	if err != nil {
		return 0, err
	}
	return int(resp.RPM), nil
}

// SetFanTarget sets the target RPM for one fan. Writes are per-channel
// addressable even though reads are not; the asymmetry is the protocol's.
func (b *Bridge) SetFanTarget(ctx context.Context, fan, rpm int) error {
	if err := b.checkFan(fan); err != nil {
		return err
	}
	if rpm < 0 {
		return fmt.Errorf("fan %d target %d rpm: %w", fan, rpm, ec.ErrOutOfRange)
	}
	params := ec.FanTargetParams{RPM: uint32(rpm), FanIdx: uint8(fan)}
	_, err := b.dev.Command(ctx, 1, ec.CmdFanTargetRPMSet, params.Encode(), 0)
	return err
}

// SetFanDuty forces one fan to a manual duty percent.
func (b *Bridge) SetFanDuty(ctx context.Context, fan, percent int) error {
	if err := b.checkFan(fan); err != nil {
		return err
	}
	if percent < 0 || percent > 100 {
		return fmt.Errorf("fan %d duty %d%%: %w", fan, percent, ec.ErrOutOfRange)
	}
	params := ec.FanDutyParams{Percent: uint32(percent), FanIdx: uint8(fan)}
	_, err := b.dev.Command(ctx, 1, ec.CmdFanDutySet, params.Encode(), 0)
	return err
}

// EnableAutoFan returns one fan to the EC's automatic thermal control. The
// command carries no value; any write triggers it.
func (b *Bridge) EnableAutoFan(ctx context.Context, fan int) error {
	if err := b.checkFan(fan); err != nil {
		return err
	}
	params := ec.AutoFanParams{FanIdx: uint8(fan)}
	_, err := b.dev.Command(ctx, 1, ec.CmdAutoFanCtrl, params.Encode(), 0)
	return err
}

func (b *Bridge) checkFan(fan int) error {
	if fan < 0 || fan >= b.fans {
		return fmt.Errorf("fan %d of %d: %w", fan, b.fans, ec.ErrChannelAddressing)
	}
	return nil
}
