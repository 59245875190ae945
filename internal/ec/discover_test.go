package ec_test

import (
	"context"
	"testing"

	"github.com/framework-community/fwecd/internal/ec"
)

func TestDiscoverFans(t *testing.T) {
	tests := []struct {
		name  string
		table [ec.FanSpeedEntries]uint16
		want  int
	}{
		{"no fans", [4]uint16{ec.FanNotPresent, ec.FanNotPresent, ec.FanNotPresent, ec.FanNotPresent}, 0},
		{"one fan", [4]uint16{3100, ec.FanNotPresent, ec.FanNotPresent, ec.FanNotPresent}, 1},
		{"two fans", [4]uint16{3100, 2900, ec.FanNotPresent, ec.FanNotPresent}, 2},
		{"full table", [4]uint16{3100, 2900, 2800, 2700}, 4},
		{"idle fan still present", [4]uint16{0, ec.FanNotPresent, ec.FanNotPresent, ec.FanNotPresent}, 1},
		// A stalled fan exists; the scan must not stop there.
		{"stalled then spinning", [4]uint16{ec.FanStalled, 2900, ec.FanNotPresent, ec.FanNotPresent}, 2},
		{"stalled everywhere", [4]uint16{ec.FanStalled, ec.FanStalled, ec.FanStalled, ec.FanStalled}, 4},
	}

	for _, tc := range tests {
		dev := ec.NewMock()
		dev.SetFanTable(tc.table)
		got, err := ec.DiscoverFans(context.Background(), dev)
		if err != nil {
			t.Errorf("%s: DiscoverFans: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: count = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestDiscoverFansTransferError(t *testing.T) {
	dev := ec.NewMock()
	dev.SetFailTransfer(true)
	if _, err := ec.DiscoverFans(context.Background(), dev); err == nil {
		t.Error("expected error when the table read fails")
	}
}

func TestDiscoverFansAbsentDevice(t *testing.T) {
	dev := ec.NewMock()
	dev.SetAbsent(true)
	if _, err := ec.DiscoverFans(context.Background(), dev); err == nil {
		t.Error("expected error for absent EC")
	}
}
