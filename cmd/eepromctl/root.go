// cmd/eepromctl/root.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tamzrod/eepromfs/internal/backend"
	"github.com/tamzrod/eepromfs/internal/config"
	"github.com/tamzrod/eepromfs/internal/eeprom"
)

// app is the state shared by every subcommand after PersistentPreRunE.
type app struct {
	configPath string
	backend    string
	bus        string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "eepromctl",
		Short:         "Save and restore parameter files on a serial EEPROM",
		Long:          "eepromctl lays out named .dat files on an AT24-class EEPROM behind a small directory, and restores them with checksum verification.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	fs := root.PersistentFlags()
	fs.StringVarP(&a.configPath, "config", "c", "", "YAML config file (defaults apply when omitted)")
	fs.StringVar(&a.backend, "backend", "", fmt.Sprintf("channel backend: %s, %s or %s", config.BackendI2C, config.BackendModbus, config.BackendSim))
	fs.StringVar(&a.bus, "bus", "", "bus device, e.g. /dev/i2c-5")
	fs.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newWriteCmd(a),
		newReadCmd(a),
		newListCmd(a),
		newEraseCmd(a),
		newInfoCmd(a),
		newSelftestCmd(a),
	)
	return root
}

// setup loads, overrides, normalizes and validates config, then builds the logger.
func (a *app) setup() error {
	cfg := &config.Config{}
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// flags win over the file
	if a.backend != "" {
		cfg.Device.Backend = a.backend
	}
	if a.bus != "" {
		cfg.Device.Bus = a.bus
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	log, err := buildLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// openDevice builds the configured channel and opens the driver on it.
func (a *app) openDevice() (*eeprom.Device, error) {
	open, err := backend.Build(a.cfg)
	if err != nil {
		return nil, err
	}

	dev, err := eeprom.Open(a.cfg.EEPROM(), open, eeprom.WithLogger(a.log.Named("eeprom")))
	if err != nil {
		return nil, err
	}

	a.log.Debug("device ready",
		zap.String("backend", a.cfg.Device.Backend),
		zap.String("bus", a.cfg.Device.Bus),
	)
	return dev, nil
}

func buildLogger(lc config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
