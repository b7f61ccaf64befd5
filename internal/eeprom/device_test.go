// internal/eeprom/device_test.go
package eeprom

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/eepromfs/internal/channel"
	"github.com/tamzrod/eepromfs/internal/channel/sim"
)

// helper: a 32 KiB part with 64-byte pages and no settle delay
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.WriteDelay = 0
	return cfg
}

func openSim(t *testing.T, cfg Config) (*Device, *sim.EEPROM) {
	t.Helper()

	part, err := sim.New(sim.Config{
		Addr:      cfg.DeviceAddr,
		PageSize:  cfg.PageSize,
		TotalSize: cfg.TotalSize,
	})
	require.NoError(t, err)

	d, err := Open(cfg, part.Opener())
	require.NoError(t, err)
	t.Cleanup(func() {
		if d.ready {
			_ = d.Close()
		}
	})

	part.ResetTransactions()
	return d, part
}

func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i*7)
	}
	return b
}

// ---- open / close ----

func TestOpen_OpenerFailureIsInitError(t *testing.T) {
	open := func(bus string) (channel.Channel, error) {
		return nil, errors.New("no such device")
	}

	_, err := Open(testConfig(), open)
	require.ErrorIs(t, err, ErrInit)
}

func TestOpen_BindFailureClosesChannel(t *testing.T) {
	fc := &fakeChannel{bindErr: errors.New("ioctl failed")}

	_, err := Open(testConfig(), func(string) (channel.Channel, error) { return fc, nil })
	require.ErrorIs(t, err, ErrInit)
	assert.True(t, fc.closed, "channel must be closed when bind fails")
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 0

	fc := &fakeChannel{}
	_, err := Open(cfg, func(string) (channel.Channel, error) { return fc, nil })
	require.ErrorIs(t, err, ErrParam)
	assert.Zero(t, fc.writes+fc.reads)
}

func TestClose_TwiceIsParamError(t *testing.T) {
	d, part := openSim(t, testConfig())

	require.NoError(t, d.Close())
	assert.True(t, part.Closed())

	require.ErrorIs(t, d.Close(), ErrParam)

	var nilDev *Device
	require.ErrorIs(t, nilDev.Close(), ErrParam)
}

func TestClosedDeviceRejectsOperations(t *testing.T) {
	d, _ := openSim(t, testConfig())
	require.NoError(t, d.Close())

	buf := make([]byte, 4)
	require.ErrorIs(t, d.Read(0, buf), ErrParam)
	require.ErrorIs(t, d.Write(0, buf), ErrParam)
	require.ErrorIs(t, d.Erase(0, 4), ErrParam)
	require.ErrorIs(t, d.EraseAll(nil), ErrParam)
	require.ErrorIs(t, d.WaitReady(time.Millisecond), ErrParam)

	_, err := d.Info()
	require.ErrorIs(t, err, ErrParam)
}

func TestInfo_ReturnsBoundConfig(t *testing.T) {
	cfg := testConfig()
	d, part := openSim(t, cfg)

	got, err := d.Info()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Empty(t, part.Transactions())
}

// ---- read / write ----

func TestWriteRead_RoundTrip(t *testing.T) {
	d, _ := openSim(t, testConfig())

	cases := []struct {
		addr uint16
		n    int
	}{
		{0, 1},
		{0, 64},
		{1, 63},
		{63, 2},
		{100, 300},
		{0x1FC0, 128},
		{32767, 1},
		{32768 - 200, 200},
	}

	for i, c := range cases {
		data := pattern(c.n, byte(i))
		require.NoError(t, d.Write(c.addr, data), "write %+v", c)

		got := make([]byte, c.n)
		require.NoError(t, d.Read(c.addr, got), "read %+v", c)
		require.Equal(t, data, got, "round trip %+v", c)
	}
}

func TestWrite_SplitsAtPageBoundary(t *testing.T) {
	d, part := openSim(t, testConfig())

	data := pattern(16, 1)
	require.NoError(t, d.Write(60, data))

	txs := part.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, 2+4, txs[0].Len)
	assert.Equal(t, 2+12, txs[1].Len)

	// byte-at-a-time reference on a second part
	ref, _ := openSim(t, testConfig())
	for i, b := range data {
		require.NoError(t, ref.Write(uint16(60+i), []byte{b}))
	}

	got := make([]byte, 16)
	want := make([]byte, 16)
	require.NoError(t, d.Read(60, got))
	require.NoError(t, ref.Read(60, want))
	assert.Equal(t, want, got)
	assert.Equal(t, data, got)
}

func TestWrite_ChunksNeverCrossPages(t *testing.T) {
	cfg := testConfig()
	cfg.PageSize = 16
	d, part := openSim(t, cfg)

	require.NoError(t, d.Write(5, pattern(100, 3)))

	addr := 5
	for _, tx := range part.Transactions() {
		n := tx.Len - 2
		assert.LessOrEqual(t, addr%16+n, 16, "chunk at %d len %d crosses a page", addr, n)
		addr += n
	}
	assert.Equal(t, 105, addr)
}

func TestWrite_SettleDelayPerChunk(t *testing.T) {
	cfg := testConfig()
	cfg.WriteDelay = 5 * time.Millisecond
	d, _ := openSim(t, cfg)

	var slept []time.Duration
	d.sleep = func(x time.Duration) { slept = append(slept, x) }

	require.NoError(t, d.Write(60, pattern(16, 0))) // 2 chunks
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, slept)
}

func TestParamErrors_NoTransportIO(t *testing.T) {
	d, part := openSim(t, testConfig())

	require.ErrorIs(t, d.Read(32760, make([]byte, 9)), ErrParam)
	require.ErrorIs(t, d.Write(32760, make([]byte, 9)), ErrParam)
	require.ErrorIs(t, d.Erase(32760, 9), ErrParam)

	require.ErrorIs(t, d.Read(0, nil), ErrParam)
	require.ErrorIs(t, d.Write(0, []byte{}), ErrParam)
	require.ErrorIs(t, d.Erase(0, 0), ErrParam)

	assert.Empty(t, part.Transactions())
}

func TestWrite_PartialFailureKeepsEarlierChunks(t *testing.T) {
	d, part := openSim(t, testConfig())

	data := pattern(128, 9) // chunks: 64 @0, 64 @64
	part.FailWriteAfter(1)

	err := d.Write(0, data)
	require.ErrorIs(t, err, ErrWrite)

	mem := part.Bytes()
	assert.Equal(t, data[:64], mem[:64], "first chunk stays written")
	for _, b := range mem[64:128] {
		require.Equal(t, byte(0xFF), b)
	}
}

func TestRead_ShortTransferIsReadError(t *testing.T) {
	d, part := openSim(t, testConfig())

	part.SetReadFault(true)
	require.ErrorIs(t, d.Read(0, make([]byte, 8)), ErrRead)
}

func TestRead_PointerWriteFailureIsReadError(t *testing.T) {
	d, part := openSim(t, testConfig())

	part.SetBusy(-1)
	err := d.Read(0, make([]byte, 8))
	require.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, sim.ErrNACK)
}

// ---- erase ----

func TestErase_ReadsBackAllOnes(t *testing.T) {
	d, _ := openSim(t, testConfig())

	require.NoError(t, d.Write(0x2000, pattern(32, 0)))
	require.NoError(t, d.Erase(0x2000, 32))

	got := make([]byte, 32)
	require.NoError(t, d.Read(0x2000, got))
	for _, b := range got {
		require.Equal(t, byte(0xFF), b)
	}
}

func TestEraseAll_ReportsProgress(t *testing.T) {
	cfg := testConfig()
	cfg.TotalSize = 10000
	d, part := openSim(t, cfg)

	require.NoError(t, d.Write(5000, pattern(100, 1)))

	var seen []int
	require.NoError(t, d.EraseAll(func(done, total int) {
		assert.Equal(t, 10000, total)
		seen = append(seen, done)
	}))

	assert.Equal(t, []int{4096, 8192, 10000}, seen)
	for _, b := range part.Bytes() {
		require.Equal(t, byte(0xFF), b)
	}
}

// ---- wait ready ----

func TestWaitReady_TimesOut(t *testing.T) {
	d, part := openSim(t, testConfig())
	part.SetBusy(-1)

	start := time.Now()
	err := d.WaitReady(time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestWaitReady_SucceedsAfterBusyCycle(t *testing.T) {
	d, part := openSim(t, testConfig())
	part.SetBusy(3)

	var sleeps int
	d.sleep = func(time.Duration) { sleeps++ }

	require.NoError(t, d.WaitReady(time.Second))
	assert.Equal(t, 3, sleeps)
	assert.Len(t, part.Transactions(), 1, "only the acknowledged probe is a transaction")
}

// openTimedSim opens a part whose write cycle runs on a manual clock.
// The device's sleep advances that clock, so settle delays and ready polling
// take no wall time.
func openTimedSim(t *testing.T, cfg Config, cycle time.Duration) (*Device, *sim.EEPROM) {
	t.Helper()

	clock := time.Unix(0, 0)
	now := func() time.Time { return clock }

	part, err := sim.New(sim.Config{
		Addr:       cfg.DeviceAddr,
		PageSize:   cfg.PageSize,
		TotalSize:  cfg.TotalSize,
		WriteCycle: cycle,
		Now:        now,
	})
	require.NoError(t, err)

	d, err := Open(cfg, part.Opener())
	require.NoError(t, err)
	t.Cleanup(func() {
		if d.ready {
			_ = d.Close()
		}
	})

	d.now = now
	d.sleep = func(x time.Duration) { clock = clock.Add(x) }

	part.ResetTransactions()
	return d, part
}

func TestWaitReady_AfterWriteCycle(t *testing.T) {
	d, _ := openTimedSim(t, testConfig(), 3*time.Millisecond)

	require.NoError(t, d.Write(10, []byte{1, 2, 3}))
	require.NoError(t, d.WaitReady(100*time.Millisecond))

	got := make([]byte, 3)
	require.NoError(t, d.Read(10, got))
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestWrite_CrossPageWithSettleDelayLongerThanCycle(t *testing.T) {
	cfg := testConfig()
	cfg.WriteDelay = 5 * time.Millisecond
	d, part := openTimedSim(t, cfg, 3*time.Millisecond)

	data := pattern(200, 3) // 4 + 64 + 64 + 64 + 4 from 60
	require.NoError(t, d.Write(60, data))
	assert.Len(t, part.Transactions(), 5)

	got := make([]byte, len(data))
	require.NoError(t, d.Read(60, got))
	assert.Equal(t, data, got)
}

func TestWrite_SettleDelayShorterThanCycleFails(t *testing.T) {
	cfg := testConfig()
	cfg.WriteDelay = time.Millisecond
	d, _ := openTimedSim(t, cfg, 3*time.Millisecond)

	err := d.Write(60, pattern(16, 0))
	require.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, sim.ErrNACK)
}

// ---- helpers ----

func TestPageChunk(t *testing.T) {
	cases := []struct {
		addr, remaining, page, want int
	}{
		{0, 10, 64, 10},
		{0, 64, 64, 64},
		{0, 100, 64, 64},
		{60, 16, 64, 4},
		{63, 1, 64, 1},
		{64, 200, 64, 64},
		{65, 200, 64, 63},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, pageChunk(c.addr, c.remaining, c.page), "%+v", c)
	}
}

// ---- fake channel ----

type fakeChannel struct {
	bindErr error
	closed  bool
	writes  int
	reads   int
}

func (f *fakeChannel) SetTarget(uint8) error { return f.bindErr }

func (f *fakeChannel) Write(p []byte) (int, error) {
	f.writes++
	return len(p), nil
}

func (f *fakeChannel) Read(p []byte) (int, error) {
	f.reads++
	return len(p), nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}
