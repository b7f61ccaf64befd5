// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/eepromfs/internal/eeprom"
)

// Backend names.
const (
	BackendI2C    = "i2c"
	BackendModbus = "modbus"
	BackendSim    = "sim"
)

type Config struct {
	Device DeviceConfig `yaml:"device"`
	Modbus ModbusConfig `yaml:"modbus"`
	Sim    SimConfig    `yaml:"sim"`
	Files  FilesConfig  `yaml:"files"`
	Log    LogConfig    `yaml:"log"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Backend        string `yaml:"backend"`
	Bus            string `yaml:"bus"`
	Address        uint8  `yaml:"address"`
	PageSize       int    `yaml:"page_size"`
	TotalSize      int    `yaml:"total_size"`
	WriteDelayMs   *int   `yaml:"write_delay_ms"` // nil => default; 0 is a valid setting
	ReadyTimeoutMs int    `yaml:"ready_timeout_ms"`
}

// ---- MODBUS GATEWAY ----

type ModbusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SIMULATOR ----

type SimConfig struct {
	Image        string `yaml:"image"`
	WriteCycleMs int    `yaml:"write_cycle_ms"` // simulated internal write cycle
}

// ---- HOST FILES ----

type FilesConfig struct {
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	Extension string `yaml:"extension"`
}

// ---- LOG ----

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads and decodes a YAML file. Unknown keys are rejected.
// The result is not normalized or validated.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes. An empty document yields a zero Config.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// EEPROM converts the device section into the driver configuration.
// Call only after Normalize.
func (c *Config) EEPROM() eeprom.Config {
	d := c.Device
	delay := 0
	if d.WriteDelayMs != nil {
		delay = *d.WriteDelayMs
	}
	return eeprom.Config{
		Bus:        d.Bus,
		DeviceAddr: d.Address,
		PageSize:   d.PageSize,
		TotalSize:  d.TotalSize,
		WriteDelay: time.Duration(delay) * time.Millisecond,
	}
}

// SimWriteCycle is the simulated part's internal write cycle.
func (c *Config) SimWriteCycle() time.Duration {
	return time.Duration(c.Sim.WriteCycleMs) * time.Millisecond
}

// ReadyTimeout is the bound used for WaitReady.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Device.ReadyTimeoutMs) * time.Millisecond
}
