// internal/channel/channel.go
package channel

// Channel is a byte-oriented transport to one bus, talking to one target at a time.
// Every Write and Read is one bus transaction.
// A short count with a nil error is a short transfer; callers treat it as a failure.
type Channel interface {
	// SetTarget binds subsequent transactions to the 7-bit device address.
	SetTarget(addr uint8) error

	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens a channel to the named bus (e.g. "/dev/i2c-5").
// ONE attempt per call.
type Opener func(bus string) (Channel, error)
