// internal/eeprom/ready.go
package eeprom

import (
	"time"

	"go.uber.org/zap"
)

// PollInterval is the pause between ready probes.
const PollInterval = time.Millisecond

// WaitReady polls the device with 1-byte reads until one is acknowledged or
// timeout has elapsed. A device inside its internal write cycle does not
// acknowledge, so this bounds the wait for a pending write to land.
//
// ONE probe per interval. No cancellation: timeout is the only bound.
func (d *Device) WaitReady(timeout time.Duration) error {
	const op = "wait ready"

	if d == nil || !d.ready {
		return Errorf(KindParam, op, "device not open")
	}

	start := d.now()
	var probe [1]byte
	attempts := 0

	for {
		attempts++
		if n, err := d.ch.Read(probe[:]); err == nil && n == 1 {
			return nil
		}

		elapsed := d.now().Sub(start)
		if elapsed >= timeout {
			d.log.Warn("device not ready",
				zap.Duration("timeout", timeout),
				zap.Int("attempts", attempts),
			)
			return Errorf(KindTimeout, op, "no ack after %s (%d probes)", elapsed, attempts)
		}

		d.sleep(PollInterval)
	}
}
