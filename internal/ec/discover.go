package ec

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
)

// DiscoverFans reads the EC's fan speed table once and reports how many fan
// channels are physically present. Slots are scanned in index order; the
// first FanNotPresent sentinel fixes the count. A stalled fan is still a
// present fan, so FanStalled never terminates the scan. With no sentinel at
// all the count is the full table capacity.
//
// Run this exactly once at startup, before building the control surface.
// The count is stable for the life of the process; fan topology does not
// change under a running system.
func DiscoverFans(ctx context.Context, dev Device) (int, error) {
	buf, err := dev.ReadMem(ctx, MemmapFan, FanTableSize)
	if err != nil {
		return 0, fmt.Errorf("read fan table: %w", err)
	}

	count := FanSpeedEntries
	for i := 0; i < FanSpeedEntries; i++ {
		v := binary.LittleEndian.Uint16(buf[2*i:])
		if v == FanNotPresent {
			count = i
			break
		}
	}

	slog.Info("ec: fan discovery complete", "fans", count)
	return count, nil
}
