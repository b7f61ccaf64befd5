// internal/channel/modbus/bridge.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/eepromfs/internal/channel"
)

// Gateway mailbox (holding registers). Protocol-locked.
//
//	0x0000        target address (write)
//	0x0001        tx byte count, followed by tx bytes packed big-endian
//	0x0100        rx request byte count (write), performs the bus read
//	0x0101..      rx bytes packed big-endian (read)
const (
	regTarget  uint16 = 0x0000
	regTxCount uint16 = 0x0001
	regRxCount uint16 = 0x0100
	regRxData  uint16 = 0x0101

	// MaxTx is the largest write transaction: 123 registers minus the count register.
	MaxTx = 122 * 2
	// maxRx is the largest piece fetched per read request (125 registers).
	maxRx = 125 * 2
)

// Bridge is an I2C channel tunnelled through a Modbus TCP I/O gateway.
// Requests are serialized; one Bridge is one TCP connection.
type Bridge struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler // nil when built around an injected client
	client  modbus.Client
	closed  bool
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// New connects to the gateway.
func New(cfg Config) (*Bridge, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus bridge: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus bridge: connect %s: %w", cfg.Endpoint, err)
	}

	return &Bridge{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Opener dials the gateway on every call. The bus name is not used:
// the gateway exposes a single I2C port.
func Opener(cfg Config) channel.Opener {
	return func(string) (channel.Channel, error) {
		b, err := New(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

func newBridge(client modbus.Client) *Bridge {
	return &Bridge{client: client}
}

func (b *Bridge) SetTarget(addr uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("modbus bridge: closed")
	}
	if _, err := b.client.WriteSingleRegister(regTarget, uint16(addr)); err != nil {
		return fmt.Errorf("modbus bridge: set target 0x%02X: %w", addr, err)
	}
	return nil
}

// Write sends p as one bus write transaction.
func (b *Bridge) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.New("modbus bridge: closed")
	}
	if len(p) > MaxTx {
		return 0, fmt.Errorf("modbus bridge: write of %d bytes exceeds %d", len(p), MaxTx)
	}

	regs := make([]byte, 2, 2+len(p)+1)
	putU16(regs, uint16(len(p)))
	regs = append(regs, p...)
	if len(p)%2 != 0 {
		regs = append(regs, 0)
	}

	qty := uint16(len(regs) / 2)
	if _, err := b.client.WriteMultipleRegisters(regTxCount, qty, regs); err != nil {
		return 0, fmt.Errorf("modbus bridge: write: %w", err)
	}
	return len(p), nil
}

// Read fills p from the bus. Large reads are fetched in pieces;
// the device pointer carries on between pieces.
func (b *Bridge) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, errors.New("modbus bridge: closed")
	}

	done := 0
	for done < len(p) {
		n := len(p) - done
		if n > maxRx {
			n = maxRx
		}

		if _, err := b.client.WriteSingleRegister(regRxCount, uint16(n)); err != nil {
			return done, fmt.Errorf("modbus bridge: read request: %w", err)
		}

		raw, err := b.client.ReadHoldingRegisters(regRxData, uint16((n+1)/2))
		if err != nil {
			return done, fmt.Errorf("modbus bridge: read: %w", err)
		}
		if len(raw) < n {
			// short piece: report what arrived
			done += copy(p[done:], raw)
			return done, nil
		}

		done += copy(p[done:done+n], raw[:n])
	}
	return done, nil
}

// Close closes the TCP connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.handler == nil {
		return nil
	}
	return b.handler.Close()
}

func putU16(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}
