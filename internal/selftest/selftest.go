// internal/selftest/selftest.go
package selftest

import (
	"bytes"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/eepromfs/internal/eeprom"
)

// Device is what the suite drives. *eeprom.Device satisfies it.
type Device interface {
	Read(addr uint16, buf []byte) error
	Write(addr uint16, data []byte) error
	Erase(addr uint16, length int) error
	WaitReady(timeout time.Duration) error
}

// Fixed test locations. The suite overwrites them.
const (
	BasicAddr     uint16 = 0x1000
	CrossPageAddr uint16 = 0x1FC0
	CrossPageLen         = 128
	EraseAddr     uint16 = 0x2000
	EraseLen             = 32
	ThroughAddr   uint16 = 0x3000
	ThroughLen           = 256
)

const basicText = "Hello, AT24C256 Driver! RK3588 Test."

// Result is the outcome of one test.
type Result struct {
	Name  string
	Err   error // nil means passed
	Bytes int

	WriteTime time.Duration
	ReadTime  time.Duration
}

func (r Result) Passed() bool { return r.Err == nil }

// Report collects all results in run order.
type Report struct {
	Results []Result
}

// Passed counts passing tests.
func (r Report) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed() {
			n++
		}
	}
	return n
}

// OK reports whether every test passed.
func (r Report) OK() bool { return r.Passed() == len(r.Results) }

// Suite runs the device checks.
type Suite struct {
	dev          Device
	readyTimeout time.Duration
	log          *zap.Logger
}

// New builds a suite. readyTimeout bounds the wait after each write.
func New(dev Device, readyTimeout time.Duration, log *zap.Logger) *Suite {
	if log == nil {
		log = zap.NewNop()
	}
	return &Suite{dev: dev, readyTimeout: readyTimeout, log: log}
}

// Run executes every test; a failing test does not stop the others.
func (s *Suite) Run() Report {
	var rep Report
	for _, tc := range []struct {
		name string
		fn   func() Result
	}{
		{"basic read/write", s.basic},
		{"cross-page write", s.crossPage},
		{"erase", s.erase},
		{"throughput", s.throughput},
	} {
		res := tc.fn()
		res.Name = tc.name
		if res.Passed() {
			s.log.Info("selftest passed", zap.String("test", res.Name))
		} else {
			s.log.Warn("selftest failed", zap.String("test", res.Name), zap.Error(res.Err))
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}

func (s *Suite) basic() Result {
	data := append([]byte(basicText), 0)
	return s.roundTrip(BasicAddr, data)
}

func (s *Suite) crossPage() Result {
	data := make([]byte, CrossPageLen)
	for i := range data {
		data[i] = 'A' + byte(i%26)
	}
	return s.roundTrip(CrossPageAddr, data)
}

func (s *Suite) erase() Result {
	res := Result{Bytes: EraseLen}

	start := time.Now()
	if err := s.dev.Erase(EraseAddr, EraseLen); err != nil {
		res.Err = err
		return res
	}
	if err := s.dev.WaitReady(s.readyTimeout); err != nil {
		res.Err = err
		return res
	}
	res.WriteTime = time.Since(start)

	got := make([]byte, EraseLen)
	start = time.Now()
	if err := s.dev.Read(EraseAddr, got); err != nil {
		res.Err = err
		return res
	}
	res.ReadTime = time.Since(start)

	for i, b := range got {
		if b != 0xFF {
			res.Err = eeprom.Errorf(eeprom.KindWrite, "selftest", "erased byte at 0x%04X is 0x%02X", int(EraseAddr)+i, b)
			return res
		}
	}
	return res
}

func (s *Suite) throughput() Result {
	data := make([]byte, ThroughLen)
	for i := range data {
		data[i] = byte(i)
	}
	return s.roundTrip(ThroughAddr, data)
}

// roundTrip writes data, waits for the write cycle, reads back and compares.
func (s *Suite) roundTrip(addr uint16, data []byte) Result {
	res := Result{Bytes: len(data)}

	start := time.Now()
	if err := s.dev.Write(addr, data); err != nil {
		res.Err = err
		return res
	}
	res.WriteTime = time.Since(start)

	if err := s.dev.WaitReady(s.readyTimeout); err != nil {
		res.Err = err
		return res
	}

	got := make([]byte, len(data))
	start = time.Now()
	if err := s.dev.Read(addr, got); err != nil {
		res.Err = err
		return res
	}
	res.ReadTime = time.Since(start)

	if !bytes.Equal(got, data) {
		res.Err = eeprom.Wrap(eeprom.KindRead, "selftest", fmt.Errorf("read back differs at 0x%04X (%d bytes)", addr, len(data)))
	}
	return res
}

// Rate is bytes per second for n bytes over d; zero when d is zero.
func Rate(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / d.Seconds()
}
