// internal/eeprom/config.go
package eeprom

import (
	"errors"
	"fmt"
	"time"
)

// MaxTotalSize is the largest device reachable with a 16-bit address pointer.
const MaxTotalSize = 1 << 16

// Config is the device geometry and bus binding. Immutable once a Device is open.
type Config struct {
	Bus        string        // channel identifier, e.g. "/dev/i2c-5"
	DeviceAddr uint8         // 7-bit target id
	PageSize   int           // bytes per atomic write unit
	TotalSize  int           // addressable bytes
	WriteDelay time.Duration // settle delay after every page write
}

// DefaultConfig returns the AT24C256 profile.
func DefaultConfig() Config {
	return Config{
		Bus:        "/dev/i2c-5",
		DeviceAddr: 0x50,
		PageSize:   64,
		TotalSize:  32768,
		WriteDelay: 5 * time.Millisecond,
	}
}

// Validate checks the geometry invariants. It MUST NOT mutate the config.
func (c Config) Validate() error {
	if c.Bus == "" {
		return errors.New("bus required")
	}
	if c.DeviceAddr > 0x7F {
		return fmt.Errorf("device address 0x%02X is not a 7-bit address", c.DeviceAddr)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be > 0, got %d", c.PageSize)
	}
	if c.TotalSize <= 0 {
		return fmt.Errorf("total size must be > 0, got %d", c.TotalSize)
	}
	if c.PageSize > c.TotalSize {
		return fmt.Errorf("page size %d exceeds total size %d", c.PageSize, c.TotalSize)
	}
	if c.TotalSize > MaxTotalSize {
		return fmt.Errorf("total size %d exceeds 16-bit address space", c.TotalSize)
	}
	if c.WriteDelay < 0 {
		return fmt.Errorf("write delay must be >= 0, got %s", c.WriteDelay)
	}
	return nil
}
