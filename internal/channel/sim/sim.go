// internal/channel/sim/sim.go
package sim

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tamzrod/eepromfs/internal/channel"
)

var (
	// ErrNACK is returned when the device does not acknowledge a transaction.
	ErrNACK = errors.New("sim: no acknowledge")

	// ErrClosed is returned for any transaction after Close.
	ErrClosed = errors.New("sim: channel closed")
)

// Config describes the simulated part.
type Config struct {
	Addr      uint8 // 7-bit device address that acknowledges
	PageSize  int
	TotalSize int

	// WriteCycle is how long the part NACKs after each data write while it
	// programs the page. 0 means the cycle completes instantly.
	WriteCycle time.Duration

	// Now is the clock used for the write cycle. nil means time.Now.
	Now func() time.Time

	// Image, if set, is loaded on New (when present) and saved on Close.
	Image string
}

// Tx records one bus transaction.
type Tx struct {
	Write bool
	Len   int
}

// EEPROM is an in-memory AT24-class serial EEPROM behind a channel.
//
// Semantics follow the part: a write transaction is a 2-byte big-endian pointer
// optionally followed by data; data wraps inside the page addressed by the
// pointer; reads continue from the pointer and roll over at the end of memory.
type EEPROM struct {
	cfg    Config
	mem    []byte
	ptr    int
	target uint8
	bound  bool
	closed bool

	busy      int // remaining NACKed transactions, <0 forever
	busyUntil time.Time
	now       func() time.Time
	failAfter int // data writes left before one fails, <0 disabled
	readFault bool

	txs   []Tx
	opens int
}

// New builds a part filled with 0xFF (or the saved image).
func New(cfg Config) (*EEPROM, error) {
	if cfg.PageSize <= 0 || cfg.TotalSize <= 0 || cfg.PageSize > cfg.TotalSize {
		return nil, fmt.Errorf("sim: bad geometry page=%d total=%d", cfg.PageSize, cfg.TotalSize)
	}

	e := &EEPROM{
		cfg:       cfg,
		mem:       make([]byte, cfg.TotalSize),
		failAfter: -1,
		now:       cfg.Now,
	}
	if e.now == nil {
		e.now = time.Now
	}
	for i := range e.mem {
		e.mem[i] = 0xFF
	}

	if cfg.Image != "" {
		if err := e.load(cfg.Image); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Opener returns a channel.Opener handing out this part for any bus name.
// The part is reopened (closed flag cleared) on every call.
func (e *EEPROM) Opener() channel.Opener {
	return func(bus string) (channel.Channel, error) {
		e.closed = false
		e.bound = false
		e.opens++
		return e, nil
	}
}

// ---- channel.Channel ----

func (e *EEPROM) SetTarget(addr uint8) error {
	if e.closed {
		return ErrClosed
	}
	if addr > 0x7F {
		return fmt.Errorf("sim: invalid address 0x%02X", addr)
	}
	e.target = addr
	e.bound = true
	return nil
}

func (e *EEPROM) Write(p []byte) (int, error) {
	if err := e.ack(); err != nil {
		return 0, err
	}
	e.txs = append(e.txs, Tx{Write: true, Len: len(p)})

	if len(p) < 2 {
		return 0, fmt.Errorf("sim: write of %d bytes carries no pointer", len(p))
	}

	if len(p) > 2 && e.failAfter >= 0 {
		if e.failAfter == 0 {
			e.failAfter = -1
			return 1, nil
		}
		e.failAfter--
	}

	e.ptr = (int(p[0])<<8 | int(p[1])) % len(e.mem)

	data := p[2:]
	if len(data) == 0 {
		return len(p), nil
	}

	page := e.cfg.PageSize
	base := e.ptr - e.ptr%page
	off := e.ptr % page
	for _, b := range data {
		e.mem[base+off] = b
		off = (off + 1) % page
	}
	e.ptr = base + off

	if e.cfg.WriteCycle > 0 {
		e.busyUntil = e.now().Add(e.cfg.WriteCycle)
	}
	return len(p), nil
}

func (e *EEPROM) Read(p []byte) (int, error) {
	if err := e.ack(); err != nil {
		return 0, err
	}
	e.txs = append(e.txs, Tx{Len: len(p)})

	if e.readFault {
		return len(p) / 2, nil
	}

	for i := range p {
		p[i] = e.mem[e.ptr]
		e.ptr = (e.ptr + 1) % len(e.mem)
	}
	return len(p), nil
}

func (e *EEPROM) Close() error {
	if e.closed {
		return ErrClosed
	}
	e.closed = true
	if e.cfg.Image != "" {
		return e.save(e.cfg.Image)
	}
	return nil
}

// ack models addressing: a closed, unbound, mis-addressed or busy part does not answer.
func (e *EEPROM) ack() error {
	if e.closed {
		return ErrClosed
	}
	if !e.bound || e.target != e.cfg.Addr {
		return ErrNACK
	}
	if e.busy != 0 {
		if e.busy > 0 {
			e.busy--
		}
		return ErrNACK
	}
	if e.now().Before(e.busyUntil) {
		return ErrNACK
	}
	return nil
}

// ---- test and tooling hooks ----

// SetBusy makes the part NACK the next n transactions; n < 0 means forever.
func (e *EEPROM) SetBusy(n int) { e.busy = n }

// FailWriteAfter lets n data writes through, then makes the next one short.
func (e *EEPROM) FailWriteAfter(n int) { e.failAfter = n }

// SetReadFault makes every read return a short count.
func (e *EEPROM) SetReadFault(on bool) { e.readFault = on }

// Transactions returns the bus transactions seen so far.
func (e *EEPROM) Transactions() []Tx { return append([]Tx(nil), e.txs...) }

// ResetTransactions clears the transaction log.
func (e *EEPROM) ResetTransactions() { e.txs = nil }

// Opens returns how many times the part was opened.
func (e *EEPROM) Opens() int { return e.opens }

// Closed reports whether the last opened channel was closed.
func (e *EEPROM) Closed() bool { return e.closed }

// Bytes returns a copy of the memory array.
func (e *EEPROM) Bytes() []byte { return append([]byte(nil), e.mem...) }

// Poke overwrites one byte behind the bus, e.g. to corrupt a payload.
func (e *EEPROM) Poke(addr int, b byte) { e.mem[addr] = b }

// ---- image persistence ----

func (e *EEPROM) load(path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("sim: load image: %w", err)
	}
	if len(raw) != len(e.mem) {
		return fmt.Errorf("sim: image %s is %d bytes, want %d", path, len(raw), len(e.mem))
	}
	copy(e.mem, raw)
	return nil
}

func (e *EEPROM) save(path string) error {
	if err := os.WriteFile(path, e.mem, 0o644); err != nil {
		return fmt.Errorf("sim: save image: %w", err)
	}
	return nil
}
