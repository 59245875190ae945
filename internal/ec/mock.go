package ec

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
)

// MockCall records one host command issued against the Mock.
type MockCall struct {
	Version uint32
	Opcode  uint32
	Params  []byte
}

// Mock is a thread-safe in-memory EC for testing and development. It
// interprets the same command set as real firmware, keeps its state in plain
// fields, and can be switched into failure modes.
type Mock struct {
	mu sync.Mutex

	chargeMax    uint8
	chargeMin    uint8
	limitActive  bool
	overridePend bool
	kbDuty       uint16
	fanTable     [FanSpeedEntries]uint16
	fanTarget    [FanSpeedEntries]uint32
	fanDuty      [FanSpeedEntries]uint32
	autoFan      [FanSpeedEntries]bool

	absent       bool
	failTransfer bool
	calls        []MockCall
}

// NewMock creates a mock EC with two present fans and a full charge limit.
func NewMock() *Mock {
	m := &Mock{chargeMax: 100, limitActive: false}
	m.fanTable = [FanSpeedEntries]uint16{3200, 2800, FanNotPresent, FanNotPresent}
	return m
}

// SetFanTable replaces the shared-memory fan speed table.
func (m *Mock) SetFanTable(table [FanSpeedEntries]uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fanTable = table
}

// SetAbsent makes every operation fail as if no EC endpoint were open.
func (m *Mock) SetAbsent(absent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absent = absent
}

// SetFailTransfer makes every transfer report an EC error status.
func (m *Mock) SetFailTransfer(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failTransfer = fail
}

// Calls returns the commands issued so far, oldest first. ReadMem calls are
// not commands and are not recorded.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// KbDuty reports the raw keyboard backlight duty the mock holds.
func (m *Mock) KbDuty() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kbDuty
}

// SetKbDuty seeds the raw keyboard backlight duty.
func (m *Mock) SetKbDuty(duty uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kbDuty = duty
}

// FanTarget reports the stored target RPM for a fan.
func (m *Mock) FanTarget(i int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fanTarget[i]
}

// FanDuty reports the stored duty percent for a fan.
func (m *Mock) FanDuty(i int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fanDuty[i]
}

// AutoFan reports whether a fan has been handed back to the thermal loop.
func (m *Mock) AutoFan(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoFan[i]
}

// ChargeLimitActive reports whether a limit is currently applied.
func (m *Mock) ChargeLimitActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limitActive
}

func (m *Mock) Command(ctx context.Context, version, opcode uint32, params []byte, insize int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.absent {
		return nil, ErrNoDevice
	}
	p := make([]byte, len(params))
	copy(p, params)
	m.calls = append(m.calls, MockCall{Version: version, Opcode: opcode, Params: p})
	if m.failTransfer {
		return nil, fmt.Errorf("ec: cmd 0x%04x: %w", opcode, &statusError{code: 1})
	}

	switch opcode {
	case CmdChargeLimit:
		if len(params) != ChargeLimitParamsSize {
			return nil, fmt.Errorf("mock: charge limit params %d bytes: %w", len(params), ErrTransfer)
		}
		modes := params[0]
		if modes&ChargeLimitDisable != 0 {
			m.limitActive = false
			m.chargeMax = 100
		}
		if modes&ChargeLimitSet != 0 {
			m.limitActive = true
			m.chargeMax = params[1]
			m.chargeMin = params[2]
		}
		if modes&ChargeLimitOverride != 0 {
			m.overridePend = true
		}
		return []byte{m.chargeMax, m.chargeMin}[:insize], nil

	case CmdPWMGetDuty:
		if len(params) != PWMGetDutyParamsSize {
			return nil, fmt.Errorf("mock: pwm get duty params %d bytes: %w", len(params), ErrTransfer)
		}
		if params[0] != PWMTypeKbLight {
			return nil, fmt.Errorf("mock: pwm type %d: %w", params[0], ErrTransfer)
		}
		buf := make([]byte, PWMGetDutyResponseSize)
		binary.LittleEndian.PutUint16(buf, m.kbDuty)
		return buf[:insize], nil

	case CmdKbBacklightSet:
		if len(params) != KbBacklightParamsSize {
			return nil, fmt.Errorf("mock: kb backlight params %d bytes: %w", len(params), ErrTransfer)
		}
		m.kbDuty = uint16(uint32(params[0]) * MaxDuty / 100)
		return nil, nil

	case CmdFanTargetRPMGet:
		// No index on the wire; firmware always reports fan 0.
		buf := make([]byte, FanTargetResponseSize)
		binary.LittleEndian.PutUint32(buf, m.fanTarget[0])
		return buf[:insize], nil

	case CmdFanTargetRPMSet:
		if len(params) != FanTargetParamsSize {
			return nil, fmt.Errorf("mock: fan target params %d bytes: %w", len(params), ErrTransfer)
		}
		idx := params[4]
		if int(idx) >= FanSpeedEntries {
			return nil, fmt.Errorf("mock: fan index %d: %w", idx, ErrTransfer)
		}
		m.fanTarget[idx] = binary.LittleEndian.Uint32(params)
		m.autoFan[idx] = false
		return nil, nil

	case CmdFanDutySet:
		if len(params) != FanDutyParamsSize {
			return nil, fmt.Errorf("mock: fan duty params %d bytes: %w", len(params), ErrTransfer)
		}
		idx := params[4]
		if int(idx) >= FanSpeedEntries {
			return nil, fmt.Errorf("mock: fan index %d: %w", idx, ErrTransfer)
		}
		m.fanDuty[idx] = binary.LittleEndian.Uint32(params)
		m.autoFan[idx] = false
		return nil, nil

	case CmdAutoFanCtrl:
		if len(params) != AutoFanParamsSize {
			return nil, fmt.Errorf("mock: auto fan params %d bytes: %w", len(params), ErrTransfer)
		}
		idx := params[0]
		if int(idx) >= FanSpeedEntries {
			return nil, fmt.Errorf("mock: fan index %d: %w", idx, ErrTransfer)
		}
		m.autoFan[idx] = true
		return nil, nil
	}

	return nil, fmt.Errorf("mock: unknown command 0x%04x: %w", opcode, ErrTransfer)
}

func (m *Mock) ReadMem(ctx context.Context, offset, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.absent {
		return nil, ErrNoDevice
	}
	if m.failTransfer {
		return nil, fmt.Errorf("ec: readmem offset=0x%02x: %w", offset, ErrTransfer)
	}

	table := make([]byte, FanTableSize)
	for i, v := range m.fanTable {
		binary.LittleEndian.PutUint16(table[2*i:], v)
	}
	if offset < MemmapFan || offset+n > MemmapFan+FanTableSize {
		return nil, fmt.Errorf("mock: readmem [0x%02x,0x%02x): %w", offset, offset+n, ErrTransfer)
	}
	out := make([]byte, n)
	copy(out, table[offset-MemmapFan:])
	return out, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absent = true
	return nil
}
