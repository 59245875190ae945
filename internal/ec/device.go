// Package ec talks to the ChromeOS-style Embedded Controller on Framework
// laptops. It defines the Device transport interface, the wire codec for the
// handful of host commands fwecd uses, and the shared-memory map the EC
// exposes for fan tachometer readings.
package ec

import (
	"context"
	"errors"
	"fmt"
)

// Transport failure classes. Everything a Device returns wraps one of these
// so callers can classify failures with errors.Is.
var (
	// ErrNoDevice means no EC endpoint is open. Every operation fails fast
	// with this rather than touching a stale handle.
	ErrNoDevice = errors.New("ec: no device")

	// ErrTransfer means the transport reported a failure or the EC returned
	// a nonzero result code.
	ErrTransfer = errors.New("ec: transfer failed")

	// ErrShortResponse means the EC answered with fewer bytes than the
	// command's declared response size.
	ErrShortResponse = errors.New("ec: short response")

	// ErrOutOfRange means a write value violates its declared domain
	// (e.g. a percent above 100). Raised before any transport call.
	ErrOutOfRange = errors.New("ec: value out of range")

	// ErrChannelAddressing means a read was requested on a channel the
	// protocol cannot address (target RPM reads always report channel 0).
	ErrChannelAddressing = errors.New("ec: channel not addressable")
)

// Device is the transport to a located EC endpoint. Implementations must be
// safe for concurrent use; at most one command is in flight at a time.
type Device interface {
	// Command sends one host command and returns the raw response payload.
	// The response is either exactly insize bytes or an error; callers never
	// see a partially valid buffer.
	Command(ctx context.Context, version, opcode uint32, params []byte, insize int) ([]byte, error)

	// ReadMem reads n bytes from the EC's shared memory region at offset.
	ReadMem(ctx context.Context, offset, n int) ([]byte, error)

	// Close releases the endpoint. Subsequent calls fail with ErrNoDevice.
	Close() error
}

// statusError carries the EC's result code for a failed transfer.
type statusError struct {
	code uint32
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ec result code %d", e.code)
}

func (e *statusError) Unwrap() error { return ErrTransfer }
