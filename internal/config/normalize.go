// internal/config/normalize.go
package config

import "github.com/tamzrod/eepromfs/internal/eeprom"

// Defaults (AT24C256 on the board's camera bus).
const (
	DefaultReadyTimeoutMs = 100
	DefaultModbusTimeout  = 1000
	DefaultExtension      = ".dat"
	DefaultInputDir       = "camera_parameters"
	DefaultOutputDir      = "out"
	DefaultLogLevel       = "info"
)

// Normalize fills unset fields with defaults.
// It is allowed to mutate configuration.
// It MUST be called before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	def := eeprom.DefaultConfig()

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := &cfg.Device
	if d.Backend == "" {
		d.Backend = BackendI2C
	}
	if d.Bus == "" {
		d.Bus = def.Bus
	}
	if d.Address == 0 {
		d.Address = def.DeviceAddr
	}
	if d.PageSize == 0 {
		d.PageSize = def.PageSize
	}
	if d.TotalSize == 0 {
		d.TotalSize = def.TotalSize
	}
	if d.WriteDelayMs == nil {
		ms := int(def.WriteDelay.Milliseconds())
		d.WriteDelayMs = &ms
	}
	if d.ReadyTimeoutMs == 0 {
		d.ReadyTimeoutMs = DefaultReadyTimeoutMs
	}

	// ------------------------------------------------------------
	// MODBUS GATEWAY
	// ------------------------------------------------------------

	if cfg.Modbus.TimeoutMs == 0 {
		cfg.Modbus.TimeoutMs = DefaultModbusTimeout
	}

	// ------------------------------------------------------------
	// HOST FILES / LOG
	// ------------------------------------------------------------

	if cfg.Files.InputDir == "" {
		cfg.Files.InputDir = DefaultInputDir
	}
	if cfg.Files.OutputDir == "" {
		cfg.Files.OutputDir = DefaultOutputDir
	}
	if cfg.Files.Extension == "" {
		cfg.Files.Extension = DefaultExtension
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
