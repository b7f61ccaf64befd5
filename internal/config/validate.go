// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/tamzrod/eepromfs/internal/channel/modbus"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}

	// ------------------------------------------------------------
	// DEVICE GEOMETRY
	// ------------------------------------------------------------

	d := cfg.Device
	switch d.Backend {
	case BackendI2C, BackendModbus, BackendSim:
	default:
		return fmt.Errorf("device.backend %q: must be one of %s, %s, %s",
			d.Backend, BackendI2C, BackendModbus, BackendSim)
	}

	if err := cfg.EEPROM().Validate(); err != nil {
		return fmt.Errorf("device: %w", err)
	}

	if d.WriteDelayMs != nil && *d.WriteDelayMs < 0 {
		return fmt.Errorf("device.write_delay_ms must be >= 0, got %d", *d.WriteDelayMs)
	}
	if d.ReadyTimeoutMs < 0 {
		return fmt.Errorf("device.ready_timeout_ms must be >= 0, got %d", d.ReadyTimeoutMs)
	}

	// ------------------------------------------------------------
	// BACKEND SPECIFICS
	// ------------------------------------------------------------

	if d.Backend == BackendModbus {
		if cfg.Modbus.Endpoint == "" {
			return fmt.Errorf("modbus.endpoint required for backend %q", BackendModbus)
		}
		if cfg.Modbus.TimeoutMs < 0 {
			return fmt.Errorf("modbus.timeout_ms must be >= 0, got %d", cfg.Modbus.TimeoutMs)
		}
		// a page write is pointer + page in one gateway transaction
		if d.PageSize+2 > modbus.MaxTx {
			return fmt.Errorf("device.page_size %d: modbus gateway carries at most %d data bytes per write",
				d.PageSize, modbus.MaxTx-2)
		}
	}

	if cfg.Sim.WriteCycleMs < 0 {
		return fmt.Errorf("sim.write_cycle_ms must be >= 0, got %d", cfg.Sim.WriteCycleMs)
	}

	// ------------------------------------------------------------
	// HOST FILES / LOG
	// ------------------------------------------------------------

	if cfg.Files.Extension != "" && !strings.HasPrefix(cfg.Files.Extension, ".") {
		return fmt.Errorf("files.extension %q must start with '.'", cfg.Files.Extension)
	}

	if cfg.Log.Level != "" {
		if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}

	return nil
}
