// internal/channel/i2cdev/i2cdev.go
package i2cdev

import (
	"errors"

	"github.com/tamzrod/eepromfs/internal/channel"
)

// ErrUnsupported is returned on platforms without the i2c-dev interface.
var ErrUnsupported = errors.New("i2cdev: not supported on this platform")

// Opener opens Linux i2c character devices ("/dev/i2c-N").
func Opener() channel.Opener {
	return func(bus string) (channel.Channel, error) {
		b, err := Open(bus)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}
