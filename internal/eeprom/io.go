// internal/eeprom/io.go
package eeprom

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"
)

// Read fills buf with len(buf) bytes starting at addr.
//
// Protocol: one transaction writing the 2-byte big-endian pointer,
// then one transaction reading len(buf) bytes.
func (d *Device) Read(addr uint16, buf []byte) error {
	const op = "read"

	if err := d.checkRange(op, addr, len(buf)); err != nil {
		return err
	}

	var ptr [2]byte
	putPointer(ptr[:], addr)

	n, err := d.ch.Write(ptr[:])
	if err != nil {
		return Wrap(KindRead, op, fmt.Errorf("set pointer 0x%04X: %w", addr, err))
	}
	if n != len(ptr) {
		return Errorf(KindRead, op, "set pointer 0x%04X: short write %d/%d", addr, n, len(ptr))
	}

	n, err = d.ch.Read(buf)
	if err != nil {
		return Wrap(KindRead, op, fmt.Errorf("addr 0x%04X: %w", addr, err))
	}
	if n != len(buf) {
		return Errorf(KindRead, op, "addr 0x%04X: short read %d/%d", addr, n, len(buf))
	}

	d.log.Debug("read", zap.Uint16("addr", addr), zap.Int("len", len(buf)))
	return nil
}

// Write stores data starting at addr.
//
// The range is split so that no transaction crosses a page boundary; the device
// would wrap such a write inside the page. Each transaction is pointer + chunk,
// followed by the settle delay. Chunks go out in increasing address order.
// A failed chunk leaves earlier chunks written.
func (d *Device) Write(addr uint16, data []byte) error {
	const op = "write"

	if err := d.checkRange(op, addr, len(data)); err != nil {
		return err
	}

	tx := make([]byte, 2+d.cfg.PageSize)
	cur := int(addr)

	for len(data) > 0 {
		n := pageChunk(cur, len(data), d.cfg.PageSize)

		putPointer(tx, uint16(cur))
		copy(tx[2:], data[:n])
		pkt := tx[:2+n]

		w, err := d.ch.Write(pkt)
		if err != nil {
			return Wrap(KindWrite, op, fmt.Errorf("addr 0x%04X len %d: %w", cur, n, err))
		}
		if w != len(pkt) {
			return Errorf(KindWrite, op, "addr 0x%04X: short write %d/%d", cur, w, len(pkt))
		}

		d.log.Debug("page write", zap.Int("addr", cur), zap.Int("len", n))

		if d.cfg.WriteDelay > 0 {
			d.sleep(d.cfg.WriteDelay)
		}

		cur += n
		data = data[n:]
	}

	return nil
}

// Erase writes 0xFF over [addr, addr+length).
func (d *Device) Erase(addr uint16, length int) error {
	if err := d.checkRange("erase", addr, length); err != nil {
		return err
	}
	return d.Write(addr, bytes.Repeat([]byte{0xFF}, length))
}

// eraseSlice is the slice size used by EraseAll.
const eraseSlice = 4096

// EraseAll erases the whole device in slices, calling progress (if non-nil)
// after each slice with the number of bytes erased so far.
func (d *Device) EraseAll(progress func(done, total int)) error {
	if d == nil || !d.ready {
		return Errorf(KindParam, "erase", "device not open")
	}

	total := d.cfg.TotalSize
	for done := 0; done < total; {
		n := eraseSlice
		if total-done < n {
			n = total - done
		}
		if err := d.Erase(uint16(done), n); err != nil {
			return err
		}
		done += n
		if progress != nil {
			progress(done, total)
		}
	}
	return nil
}

// pageChunk returns how many of the remaining bytes fit in the page containing addr.
func pageChunk(addr, remaining, pageSize int) int {
	n := pageSize - addr%pageSize
	if n > remaining {
		n = remaining
	}
	return n
}
