package ec

// Shared-memory map offsets. The EC exposes a small read-only region the
// host can fetch without a round-trip command; fan tachometer readings live
// there rather than behind an opcode.
const (
	MemmapFan = 0x10 // fan speed table, FanSpeedEntries × uint16 LE

	// FanSpeedEntries is the table capacity, i.e. the most fan channels any
	// supported board can have.
	FanSpeedEntries = 4

	// FanTableSize is the byte size of the whole fan speed table.
	FanTableSize = FanSpeedEntries * 2
)

// Reserved fan table values. Neither is a valid tachometer reading.
const (
	// FanNotPresent marks a slot with no physical fan behind it.
	FanNotPresent = 0xFFFF

	// FanStalled marks a populated channel whose rotor is not turning.
	FanStalled = 0xFFFE
)
