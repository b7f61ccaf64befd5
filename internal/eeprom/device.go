// internal/eeprom/device.go
package eeprom

import (
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/eepromfs/internal/channel"
)

// Device is an open handle to one EEPROM.
// It owns its channel exclusively and is NOT safe for concurrent use.
//
// States: Ready after Open succeeds, closed after Close.
// Every data operation on a closed Device fails with ErrParam.
type Device struct {
	cfg   Config
	ch    channel.Channel
	ready bool

	log   *zap.Logger
	sleep func(time.Duration)
	now   func() time.Time
}

// Option customizes a Device at Open.
type Option func(*Device)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(d *Device) {
		if l != nil {
			d.log = l
		}
	}
}

// Open validates cfg, opens the bus through open and binds the target address.
// Any failure is ErrInit; no channel is left open on failure.
func Open(cfg Config, open channel.Opener, opts ...Option) (*Device, error) {
	const op = "init"

	if open == nil {
		return nil, Errorf(KindParam, op, "nil opener")
	}
	if err := cfg.Validate(); err != nil {
		return nil, Wrap(KindParam, op, err)
	}

	d := &Device{
		cfg:   cfg,
		log:   zap.NewNop(),
		sleep: time.Sleep,
		now:   time.Now,
	}
	for _, o := range opts {
		o(d)
	}

	ch, err := open(cfg.Bus)
	if err != nil {
		return nil, Wrap(KindInit, op, err)
	}
	if err := ch.SetTarget(cfg.DeviceAddr); err != nil {
		_ = ch.Close()
		return nil, Wrap(KindInit, op, err)
	}

	d.ch = ch
	d.ready = true

	d.log.Debug("device open",
		zap.String("bus", cfg.Bus),
		zap.Uint8("addr", cfg.DeviceAddr),
		zap.Int("page_size", cfg.PageSize),
		zap.Int("total_size", cfg.TotalSize),
	)
	return d, nil
}

// Close releases the channel. Closing a nil or already closed Device is ErrParam.
func (d *Device) Close() error {
	const op = "deinit"

	if d == nil || !d.ready {
		return Errorf(KindParam, op, "device not open")
	}

	d.ready = false
	ch := d.ch
	d.ch = nil

	if err := ch.Close(); err != nil {
		return Wrap(KindInit, op, err)
	}
	return nil
}

// Info returns the bound configuration. No device I/O.
func (d *Device) Info() (Config, error) {
	if d == nil || !d.ready {
		return Config{}, Errorf(KindParam, "info", "device not open")
	}
	return d.cfg, nil
}

// checkRange validates the device state and the (addr, n) range.
func (d *Device) checkRange(op string, addr uint16, n int) error {
	if d == nil || !d.ready {
		return Errorf(KindParam, op, "device not open")
	}
	if n <= 0 {
		return Errorf(KindParam, op, "zero length")
	}
	if int(addr)+n > d.cfg.TotalSize {
		return Errorf(KindParam, op, "range 0x%04X+%d exceeds device size %d", addr, n, d.cfg.TotalSize)
	}
	return nil
}

// putPointer writes the 2-byte big-endian address pointer.
func putPointer(dst []byte, addr uint16) {
	dst[0] = byte(addr >> 8)
	dst[1] = byte(addr)
}
