// internal/channel/modbus/bridge_test.go
package modbus

import (
	"errors"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/eepromfs/internal/channel"
	"github.com/tamzrod/eepromfs/internal/channel/sim"
	"github.com/tamzrod/eepromfs/internal/eeprom"
)

// ---- fake gateway ----

// fakeGateway implements the mailbox on top of a simulated part.
// Only the register functions the bridge uses are implemented.
type fakeGateway struct {
	modbus.Client

	part   *sim.EEPROM
	rx     []byte
	writes int
	fail   error
}

func (g *fakeGateway) WriteSingleRegister(address, value uint16) ([]byte, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	switch address {
	case regTarget:
		if err := g.part.SetTarget(uint8(value)); err != nil {
			return nil, err
		}
	case regRxCount:
		g.rx = make([]byte, value)
		n, err := g.part.Read(g.rx)
		if err != nil {
			return nil, err
		}
		g.rx = g.rx[:n]
	default:
		return nil, errors.New("illegal data address")
	}
	return []byte{byte(value >> 8), byte(value)}, nil
}

func (g *fakeGateway) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	if address != regTxCount || len(value) != int(quantity)*2 {
		return nil, errors.New("illegal data address")
	}
	g.writes++
	n := int(value[0])<<8 | int(value[1])
	if _, err := g.part.Write(value[2 : 2+n]); err != nil {
		return nil, err
	}
	return []byte{0, 1, 0, byte(quantity)}, nil
}

func (g *fakeGateway) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	if address != regRxData {
		return nil, errors.New("illegal data address")
	}
	out := make([]byte, int(quantity)*2)
	copy(out, g.rx)
	if len(g.rx) < len(out)-1 {
		out = out[:len(g.rx)]
	}
	return out, nil
}

func newGateway(t *testing.T) *fakeGateway {
	t.Helper()
	part, err := sim.New(sim.Config{Addr: 0x50, PageSize: 64, TotalSize: 32768})
	require.NoError(t, err)
	_, err = part.Opener()("gw")
	require.NoError(t, err)
	return &fakeGateway{part: part}
}

// ---- tests ----

func TestBridge_WriteThenRead(t *testing.T) {
	gw := newGateway(t)
	b := newBridge(gw)

	require.NoError(t, b.SetTarget(0x50))

	n, err := b.Write([]byte{0x01, 0x00, 'h', 'i', '!'})
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = b.Write([]byte{0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	buf := make([]byte, 3)
	n, err = b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("hi!"), buf)
}

func TestBridge_LargeReadInPieces(t *testing.T) {
	gw := newGateway(t)
	for i := 0; i < 600; i++ {
		gw.part.Poke(i, byte(i))
	}

	b := newBridge(gw)
	require.NoError(t, b.SetTarget(0x50))
	_, err := b.Write([]byte{0, 0})
	require.NoError(t, err)

	buf := make([]byte, 600)
	n, err := b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 600, n)
	for i := range buf {
		require.Equal(t, byte(i), buf[i], "byte %d", i)
	}
}

func TestBridge_OversizedWriteRejected(t *testing.T) {
	b := newBridge(newGateway(t))

	_, err := b.Write(make([]byte, MaxTx+1))
	require.Error(t, err)
}

func TestBridge_GatewayErrorSurfaces(t *testing.T) {
	gw := newGateway(t)
	gw.fail = errors.New("gateway timeout")
	b := newBridge(gw)

	_, err := b.Write([]byte{0, 0, 1})
	require.ErrorIs(t, err, gw.fail)

	n, err := b.Read(make([]byte, 4))
	require.ErrorIs(t, err, gw.fail)
	assert.Zero(t, n)
}

func TestBridge_ClosedRejectsIO(t *testing.T) {
	b := newBridge(newGateway(t))
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err := b.Write([]byte{0, 0})
	require.Error(t, err)
	require.Error(t, b.SetTarget(0x50))
}

func TestBridge_DrivesEEPROMDevice(t *testing.T) {
	gw := newGateway(t)
	cfg := eeprom.DefaultConfig()
	cfg.WriteDelay = 0

	dev, err := eeprom.Open(cfg, func(string) (channel.Channel, error) { return newBridge(gw), nil })
	require.NoError(t, err)
	defer dev.Close()

	data := []byte("calibration block spanning a page boundary")
	require.NoError(t, dev.Write(50, data))
	assert.Equal(t, 2, gw.writes, "one gateway write per page chunk")

	got := make([]byte, len(data))
	require.NoError(t, dev.Read(50, got))
	assert.Equal(t, data, got)
}
