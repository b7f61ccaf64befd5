// internal/channel/i2cdev/i2cdev_other.go
//go:build !linux

package i2cdev

// Bus is unavailable off Linux.
type Bus struct{}

func Open(path string) (*Bus, error) { return nil, ErrUnsupported }

func (b *Bus) SetTarget(addr uint8) error  { return ErrUnsupported }
func (b *Bus) Write(p []byte) (int, error) { return 0, ErrUnsupported }
func (b *Bus) Read(p []byte) (int, error)  { return 0, ErrUnsupported }
func (b *Bus) Close() error                { return nil }
