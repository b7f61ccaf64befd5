// internal/backend/builder.go
package backend

import (
	"fmt"
	"time"

	"github.com/tamzrod/eepromfs/internal/channel"
	"github.com/tamzrod/eepromfs/internal/channel/i2cdev"
	"github.com/tamzrod/eepromfs/internal/channel/modbus"
	"github.com/tamzrod/eepromfs/internal/channel/sim"
	cfg "github.com/tamzrod/eepromfs/internal/config"
)

// Build selects the channel opener for the configured backend.
// Nothing is opened here: the driver opens through the returned Opener.
// Assumes config has already been normalized and validated.
func Build(c *cfg.Config) (channel.Opener, error) {
	switch c.Device.Backend {
	case cfg.BackendI2C:
		return i2cdev.Opener(), nil

	case cfg.BackendModbus:
		return modbus.Opener(modbus.Config{
			Endpoint: c.Modbus.Endpoint,
			UnitID:   c.Modbus.UnitID,
			Timeout:  time.Duration(c.Modbus.TimeoutMs) * time.Millisecond,
		}), nil

	case cfg.BackendSim:
		part, err := sim.New(sim.Config{
			Addr:       c.Device.Address,
			PageSize:   c.Device.PageSize,
			TotalSize:  c.Device.TotalSize,
			WriteCycle: c.SimWriteCycle(),
			Image:      c.Sim.Image,
		})
		if err != nil {
			return nil, err
		}
		return part.Opener(), nil

	default:
		return nil, fmt.Errorf("backend: unknown %q", c.Device.Backend)
	}
}
