package ec

import (
	"encoding/binary"
	"fmt"
)

// Host command opcodes from the cros_ec protocol. Only the subset the
// Framework EC bridge uses is defined here.
const (
	CmdFanTargetRPMGet = 0x0020 // EC_CMD_PWM_GET_FAN_TARGET_RPM
	CmdFanTargetRPMSet = 0x0021 // EC_CMD_PWM_SET_FAN_TARGET_RPM
	CmdKbBacklightSet  = 0x0023 // EC_CMD_PWM_SET_KEYBOARD_BACKLIGHT
	CmdFanDutySet      = 0x0024 // EC_CMD_PWM_SET_FAN_DUTY
	CmdPWMGetDuty      = 0x0026 // EC_CMD_PWM_GET_DUTY
	CmdAutoFanCtrl     = 0x0052 // EC_CMD_THERMAL_AUTO_FAN_CTRL
	CmdChargeLimit     = 0x3E03 // EC_CMD_CHARGE_LIMIT_CONTROL (Framework vendor range)
)

// Charge-limit control mode bits. Get shares the opcode with Set and is
// selected purely by the mode bitmask.
const (
	ChargeLimitDisable  = 0x01 // hand control back to the charge manager
	ChargeLimitSet      = 0x02 // apply max/min percentages
	ChargeLimitGet      = 0x08 // read back the current setting
	ChargeLimitOverride = 0x80 // allow one full charge, keep the limit after
)

// PWM channel types for CmdPWMGetDuty.
const (
	PWMTypeGeneric      = 0
	PWMTypeKbLight      = 1
	PWMTypeDisplayLight = 2
)

// MaxDuty is the EC's raw PWM duty scale (EC_PWM_MAX_DUTY).
const MaxDuty = 0xFFFF

// Fixed wire sizes. Every command declares its exact params and response
// length; the transport enforces them instead of trusting the EC.
const (
	ChargeLimitParamsSize   = 3
	ChargeLimitResponseSize = 2
	PWMGetDutyParamsSize    = 2
	PWMGetDutyResponseSize  = 2
	KbBacklightParamsSize   = 1
	FanTargetResponseSize   = 4
	FanTargetParamsSize     = 5
	FanDutyParamsSize       = 5
	AutoFanParamsSize       = 1
)

// All multi-byte fields are little-endian; the EC is a little-endian part
// and the cros_ec protocol carries native EC byte order.

// ChargeLimitParams is the params block for CmdChargeLimit.
type ChargeLimitParams struct {
	Modes      uint8
	MaxPercent uint8
	MinPercent uint8
}

func (p ChargeLimitParams) Encode() []byte {
	return []byte{p.Modes, p.MaxPercent, p.MinPercent}
}

// ChargeLimitResponse is the response block for CmdChargeLimit.
type ChargeLimitResponse struct {
	MaxPercent uint8
	MinPercent uint8
}

func DecodeChargeLimitResponse(buf []byte) (ChargeLimitResponse, error) {
	if len(buf) < ChargeLimitResponseSize {
		return ChargeLimitResponse{}, fmt.Errorf("charge limit response %d bytes: %w", len(buf), ErrShortResponse)
	}
	return ChargeLimitResponse{MaxPercent: buf[0], MinPercent: buf[1]}, nil
}

// PWMGetDutyParams selects which PWM channel to query.
type PWMGetDutyParams struct {
	PWMType uint8
	Index   uint8
}

func (p PWMGetDutyParams) Encode() []byte {
	return []byte{p.PWMType, p.Index}
}

// PWMGetDutyResponse carries the raw duty on the 0..MaxDuty scale.
type PWMGetDutyResponse struct {
	Duty uint16
}

func DecodePWMGetDutyResponse(buf []byte) (PWMGetDutyResponse, error) {
	if len(buf) < PWMGetDutyResponseSize {
		return PWMGetDutyResponse{}, fmt.Errorf("pwm duty response %d bytes: %w", len(buf), ErrShortResponse)
	}
	return PWMGetDutyResponse{Duty: binary.LittleEndian.Uint16(buf)}, nil
}

// KbBacklightParams sets the keyboard backlight as a percent. The command
// has no response payload; success is a clean transfer.
type KbBacklightParams struct {
	Percent uint8
}

func (p KbBacklightParams) Encode() []byte {
	return []byte{p.Percent}
}

// FanTargetResponse is the reply to CmdFanTargetRPMGet. The get call takes
// no params and always reports fan 0 — the protocol has no index field on
// the read side.
type FanTargetResponse struct {
	RPM uint32
}

func DecodeFanTargetResponse(buf []byte) (FanTargetResponse, error) {
	if len(buf) < FanTargetResponseSize {
		return FanTargetResponse{}, fmt.Errorf("fan target response %d bytes: %w", len(buf), ErrShortResponse)
	}
	return FanTargetResponse{RPM: binary.LittleEndian.Uint32(buf)}, nil
}

// FanTargetParams is the v1 params block for CmdFanTargetRPMSet. Unlike the
// get path, writes are per-fan addressable.
type FanTargetParams struct {
	RPM    uint32
	FanIdx uint8
}

func (p FanTargetParams) Encode() []byte {
	buf := make([]byte, FanTargetParamsSize)
	binary.LittleEndian.PutUint32(buf, p.RPM)
	buf[4] = p.FanIdx
	return buf
}

// FanDutyParams is the v1 params block for CmdFanDutySet.
type FanDutyParams struct {
	Percent uint32
	FanIdx  uint8
}

func (p FanDutyParams) Encode() []byte {
	buf := make([]byte, FanDutyParamsSize)
	binary.LittleEndian.PutUint32(buf, p.Percent)
	buf[4] = p.FanIdx
	return buf
}

// AutoFanParams is the v1 params block for CmdAutoFanCtrl. The command
// carries no value; issuing it hands the fan back to the EC's thermal loop.
type AutoFanParams struct {
	FanIdx uint8
}

func (p AutoFanParams) Encode() []byte {
	return []byte{p.FanIdx}
}
