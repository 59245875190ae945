//go:build linux

package ec

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
	"golang.org/x/time/rate"
)

// DevicePath is the cros_ec character device the kernel exposes for the EC.
const DevicePath = "/dev/cros_ec"

const (
	crosECIoctlType = 0xEC // CROS_EC_DEV_IOC from the kernel UAPI
	maxPayload      = 256  // largest params/response block we ever pass
	memmapSize      = 255  // EC_MEMMAP_SIZE

	// The kernel interface is shared with in-kernel users; keep our command
	// rate polite.
	maxCmdsPerSec = 200
)

// xferCmd mirrors struct cros_ec_command from the kernel UAPI. The ioctl
// size covers the header only (the struct ends in a flexible array); the
// kernel copies data in and out based on outsize/insize.
type xferCmd struct {
	version uint32
	command uint32
	outsize uint32
	insize  uint32
	result  uint32
	data    [maxPayload]byte
}

// readMem mirrors struct cros_ec_readmem from the kernel UAPI.
type readMem struct {
	offset uint32
	bytes  uint32
	buffer [memmapSize]byte
}

// iowr builds a _IOWR ioctl request number.
func iowr(typ, nr, size uintptr) uintptr {
	const iocReadWrite = 3
	return iocReadWrite<<30 | size<<16 | typ<<8 | nr
}

var (
	ioctlXferCmd = iowr(crosECIoctlType, 0, unsafe.Offsetof(xferCmd{}.data))
	ioctlReadMem = iowr(crosECIoctlType, 1, unsafe.Sizeof(readMem{}))
)

// CrosDevice is the real EC endpoint, backed by the cros_ec character
// device. All transfers go through a single fd, serialized by a mutex: the
// channel is strictly one request/response at a time.
type CrosDevice struct {
	mu      sync.Mutex
	fd      int
	limiter *rate.Limiter
}

// OpenCros opens the EC endpoint at path (use DevicePath for the default).
func OpenCros(path string) (*CrosDevice, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("ec: open %s: %w", path, err)
	}
	slog.Info("ec: endpoint opened", "path", path)
	return &CrosDevice{
		fd:      fd,
		limiter: rate.NewLimiter(rate.Limit(maxCmdsPerSec), 10),
	}, nil
}

func (d *CrosDevice) Command(ctx context.Context, version, opcode uint32, params []byte, insize int) ([]byte, error) {
	if len(params) > maxPayload || insize > maxPayload {
		return nil, fmt.Errorf("ec: payload too large (out=%d in=%d): %w", len(params), insize, ErrOutOfRange)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil, ErrNoDevice
	}

	// Fresh buffer per call; no reuse that could leak stale response bytes.
	var cmd xferCmd
	cmd.version = version
	cmd.command = opcode
	cmd.outsize = uint32(len(params))
	cmd.insize = uint32(insize)
	copy(cmd.data[:], params)

	r1, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), ioctlXferCmd, uintptr(unsafe.Pointer(&cmd)))
	if errno != 0 {
		return nil, fmt.Errorf("ec: xfer cmd 0x%04x: %v: %w", opcode, errno, ErrTransfer)
	}
	if cmd.result != 0 {
		return nil, fmt.Errorf("ec: cmd 0x%04x: %w", opcode, &statusError{code: cmd.result})
	}
	if int(r1) < insize {
		return nil, fmt.Errorf("ec: cmd 0x%04x returned %d of %d bytes: %w", opcode, r1, insize, ErrShortResponse)
	}

	resp := make([]byte, insize)
	copy(resp, cmd.data[:insize])
	return resp, nil
}

func (d *CrosDevice) ReadMem(ctx context.Context, offset, n int) ([]byte, error) {
	if n > memmapSize {
		return nil, fmt.Errorf("ec: readmem %d bytes: %w", n, ErrOutOfRange)
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil, ErrNoDevice
	}

	rm := readMem{offset: uint32(offset), bytes: uint32(n)}
	r1, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), ioctlReadMem, uintptr(unsafe.Pointer(&rm)))
	if errno != 0 {
		return nil, fmt.Errorf("ec: readmem offset=0x%02x: %v: %w", offset, errno, ErrTransfer)
	}
	if int(r1) < n {
		return nil, fmt.Errorf("ec: readmem returned %d of %d bytes: %w", r1, n, ErrShortResponse)
	}

	out := make([]byte, n)
	copy(out, rm.buffer[:n])
	return out, nil
}

// Close releases the EC fd. Further calls fail with ErrNoDevice.
func (d *CrosDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
