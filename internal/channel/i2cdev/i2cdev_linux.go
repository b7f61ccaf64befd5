// internal/channel/i2cdev/i2cdev_linux.go
//go:build linux

package i2cdev

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ioctl request binding a target address to the open bus (linux/i2c-dev.h).
const i2cSlave = 0x0703

// Bus is one open /dev/i2c-N file descriptor.
type Bus struct {
	path string
	fd   int
}

// Open opens the character device read-write.
func Open(path string) (*Bus, error) {
	if path == "" {
		return nil, errors.New("i2cdev: bus path required")
	}

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("i2cdev: open %s: %w", path, err)
	}
	return &Bus{path: path, fd: fd}, nil
}

// SetTarget issues I2C_SLAVE for addr.
func (b *Bus) SetTarget(addr uint8) error {
	if b.fd < 0 {
		return fmt.Errorf("i2cdev: %s: closed", b.path)
	}
	if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
		return fmt.Errorf("i2cdev: %s: set target 0x%02X: %w", b.path, addr, err)
	}
	return nil
}

// Write performs one write transaction of p.
func (b *Bus) Write(p []byte) (int, error) {
	if b.fd < 0 {
		return 0, fmt.Errorf("i2cdev: %s: closed", b.path)
	}
	n, err := unix.Write(b.fd, p)
	if err != nil {
		return 0, fmt.Errorf("i2cdev: %s: write: %w", b.path, err)
	}
	return n, nil
}

// Read performs one read transaction of len(p) bytes.
func (b *Bus) Read(p []byte) (int, error) {
	if b.fd < 0 {
		return 0, fmt.Errorf("i2cdev: %s: closed", b.path)
	}
	n, err := unix.Read(b.fd, p)
	if err != nil {
		return 0, fmt.Errorf("i2cdev: %s: read: %w", b.path, err)
	}
	return n, nil
}

// Close releases the descriptor.
func (b *Bus) Close() error {
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
