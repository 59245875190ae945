package ec_test

import (
	"errors"
	"testing"

	"github.com/framework-community/fwecd/internal/ec"
)

func TestChargeLimitParamsEncode(t *testing.T) {
	tests := []struct {
		name   string
		params ec.ChargeLimitParams
		want   []byte
	}{
		{"get", ec.ChargeLimitParams{Modes: ec.ChargeLimitGet}, []byte{0x08, 0, 0}},
		{"set 80", ec.ChargeLimitParams{Modes: ec.ChargeLimitSet, MaxPercent: 80}, []byte{0x02, 80, 0}},
		{"set with min", ec.ChargeLimitParams{Modes: ec.ChargeLimitSet, MaxPercent: 90, MinPercent: 20}, []byte{0x02, 90, 20}},
		{"disable", ec.ChargeLimitParams{Modes: ec.ChargeLimitDisable}, []byte{0x01, 0, 0}},
		{"override", ec.ChargeLimitParams{Modes: ec.ChargeLimitOverride}, []byte{0x80, 0, 0}},
	}
	for _, tc := range tests {
		got := tc.params.Encode()
		if len(got) != ec.ChargeLimitParamsSize {
			t.Errorf("%s: encoded %d bytes, want %d", tc.name, len(got), ec.ChargeLimitParamsSize)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("%s: byte %d = 0x%02x, want 0x%02x", tc.name, i, got[i], tc.want[i])
			}
		}
	}
}

func TestDecodeChargeLimitResponse(t *testing.T) {
	resp, err := ec.DecodeChargeLimitResponse([]byte{80, 20})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.MaxPercent != 80 || resp.MinPercent != 20 {
		t.Errorf("got max=%d min=%d, want 80/20", resp.MaxPercent, resp.MinPercent)
	}

	if _, err := ec.DecodeChargeLimitResponse([]byte{80}); !errors.Is(err, ec.ErrShortResponse) {
		t.Errorf("1-byte buffer: err = %v, want ErrShortResponse", err)
	}
}

func TestDecodePWMGetDutyResponse(t *testing.T) {
	// duty 0x1234 little-endian
	resp, err := ec.DecodePWMGetDutyResponse([]byte{0x34, 0x12})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Duty != 0x1234 {
		t.Errorf("duty = 0x%04x, want 0x1234", resp.Duty)
	}

	if _, err := ec.DecodePWMGetDutyResponse(nil); !errors.Is(err, ec.ErrShortResponse) {
		t.Errorf("empty buffer: err = %v, want ErrShortResponse", err)
	}
}

func TestFanTargetParamsEncode(t *testing.T) {
	// 2500 RPM = 0x09C4, index byte trails the LE dword
	got := ec.FanTargetParams{RPM: 2500, FanIdx: 1}.Encode()
	want := []byte{0xC4, 0x09, 0x00, 0x00, 0x01}
	if len(got) != len(want) {
		t.Fatalf("encoded %d bytes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
}

func TestDecodeFanTargetResponse(t *testing.T) {
	resp, err := ec.DecodeFanTargetResponse([]byte{0xC4, 0x09, 0x00, 0x00})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RPM != 2500 {
		t.Errorf("rpm = %d, want 2500", resp.RPM)
	}

	if _, err := ec.DecodeFanTargetResponse([]byte{0xC4, 0x09}); !errors.Is(err, ec.ErrShortResponse) {
		t.Errorf("short buffer: err = %v, want ErrShortResponse", err)
	}
}

func TestFanDutyParamsEncode(t *testing.T) {
	got := ec.FanDutyParams{Percent: 55, FanIdx: 2}.Encode()
	want := []byte{55, 0x00, 0x00, 0x00, 0x02}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = 0x%02x, want 0x%02x", i, got[i], want[i])
		}
	}
}

func TestAutoFanParamsEncode(t *testing.T) {
	got := ec.AutoFanParams{FanIdx: 3}.Encode()
	if len(got) != ec.AutoFanParamsSize || got[0] != 3 {
		t.Errorf("encoded %v, want [3]", got)
	}
}
