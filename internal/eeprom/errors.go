// internal/eeprom/errors.go
package eeprom

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The zero value is KindUnknown.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInit
	KindParam
	KindMemory
	KindRead
	KindWrite
	KindBusy
	KindTimeout
	KindFormat
	KindChecksum
)

var kindText = map[Kind]string{
	KindUnknown:  "unknown error",
	KindInit:     "initialization failed",
	KindParam:    "invalid parameter",
	KindMemory:   "memory allocation failed",
	KindRead:     "read operation failed",
	KindWrite:    "write operation failed",
	KindBusy:     "device busy",
	KindTimeout:  "operation timeout",
	KindFormat:   "invalid directory format",
	KindChecksum: "checksum mismatch",
}

// String returns the human-readable description of k.
func (k Kind) String() string {
	if s, ok := kindText[k]; ok {
		return s
	}
	return kindText[KindUnknown]
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrInit     = &Error{Kind: KindInit}
	ErrParam    = &Error{Kind: KindParam}
	ErrMemory   = &Error{Kind: KindMemory}
	ErrRead     = &Error{Kind: KindRead}
	ErrWrite    = &Error{Kind: KindWrite}
	ErrBusy     = &Error{Kind: KindBusy}
	ErrTimeout  = &Error{Kind: KindTimeout}
	ErrFormat   = &Error{Kind: KindFormat}
	ErrChecksum = &Error{Kind: KindChecksum}
)

// Error is the failure value returned by the driver and the file index.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "write"
	Err  error  // underlying cause, may be nil
}

// Errorf builds an *Error whose cause is a formatted message.
func Errorf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and op to err. A nil err yields a cause-less *Error.
func Wrap(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := "eeprom: "
	if e.Op != "" {
		msg += e.Op + ": "
	}
	msg += e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Code returns a stable numeric code for the kind, usable as a process exit status.
func (e *Error) Code() uint16 { return uint16(e.Kind) }

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
