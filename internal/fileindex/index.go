// internal/fileindex/index.go
package fileindex

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tamzrod/eepromfs/internal/eeprom"
)

// Storage is the byte-addressable space the index lives in.
// *eeprom.Device satisfies it.
type Storage interface {
	Read(addr uint16, buf []byte) error
	Write(addr uint16, data []byte) error
}

// File is one named blob.
type File struct {
	Name string
	Data []byte
}

// Directory is the decoded header and its entries.
type Directory struct {
	Header  Header
	Entries []Entry
}

// FileError reports one file that could not be recovered.
type FileError struct {
	Entry Entry
	Err   error
}

func (e FileError) Error() string { return e.Entry.Name + ": " + e.Err.Error() }

func (e FileError) Unwrap() error { return e.Err }

// Result is the outcome of ReadFiles. len(Files) is the success count.
type Result struct {
	Files  []File
	Failed []FileError
}

// Index lays out and recovers files over a Storage.
// It holds no directory state between calls: the device is the store.
type Index struct {
	st  Storage
	log *zap.Logger
}

// New builds an Index. A nil logger discards output.
func New(st Storage, log *zap.Logger) *Index {
	if log == nil {
		log = zap.NewNop()
	}
	return &Index{st: st, log: log}
}

// WriteFiles writes each payload contiguously from DataStart in the given order,
// then writes the directory at address 0.
//
// All-or-nothing for the directory: any failure returns before the directory
// is written. Payloads already written stay on the device, unindexed.
// Whatever directory was there before is overwritten, never merged.
func (x *Index) WriteFiles(files []File) ([]Entry, error) {
	const op = "write files"

	if len(files) > MaxFiles {
		return nil, eeprom.Errorf(eeprom.KindParam, op, "%d files exceed the maximum of %d", len(files), MaxFiles)
	}

	entries := make([]Entry, 0, len(files))
	next := DataStart
	total := 0

	for _, f := range files {
		if len(f.Data) > MaxFileSize {
			return nil, eeprom.Errorf(eeprom.KindParam, op,
				"%s: %d bytes exceed the maximum of %d", f.Name, len(f.Data), MaxFileSize)
		}
		// next must stay a valid uint16 address, even for an empty file
		if next >= eeprom.MaxTotalSize || next+len(f.Data) > eeprom.MaxTotalSize {
			return nil, eeprom.Errorf(eeprom.KindParam, op,
				"%s: payload at 0x%04X+%d leaves the address space", f.Name, next, len(f.Data))
		}

		e := Entry{
			Name:     f.Name,
			Address:  uint16(next),
			Size:     uint16(len(f.Data)),
			Checksum: Checksum(f.Data),
		}

		if len(f.Data) > 0 {
			if err := x.st.Write(e.Address, f.Data); err != nil {
				return nil, fmt.Errorf("fileindex: write %s: %w", f.Name, err)
			}
		}

		x.log.Info("file written",
			zap.String("name", e.Name),
			zap.Uint16("addr", e.Address),
			zap.Uint16("size", e.Size),
			zap.Uint8("checksum", e.Checksum),
		)

		entries = append(entries, e)
		next += len(f.Data)
		total += len(f.Data)
	}

	h := Header{
		Magic:     Magic,
		Version:   Version,
		Count:     uint8(len(entries)),
		TotalSize: uint16(total),
	}

	if err := x.st.Write(0, encodeDirectory(h, entries)); err != nil {
		return nil, fmt.Errorf("fileindex: write directory: %w", err)
	}

	x.log.Info("directory written", zap.Int("files", len(entries)), zap.Int("payload", total))
	return entries, nil
}

// ReadIndex reads the header at address 0 and then its entries.
// A bad magic, an unknown version or a count above MaxFiles is ErrFormat,
// detected before any entry is read.
func (x *Index) ReadIndex() (Directory, error) {
	const op = "read index"

	var raw [HeaderSize]byte
	if err := x.st.Read(0, raw[:]); err != nil {
		return Directory{}, fmt.Errorf("fileindex: read header: %w", err)
	}

	h := decodeHeader(raw[:])
	if !h.Valid() {
		return Directory{}, eeprom.Errorf(eeprom.KindFormat, op, "magic % X does not match", h.Magic[:])
	}
	if h.Version != Version {
		return Directory{}, eeprom.Errorf(eeprom.KindFormat, op, "unsupported version %d", h.Version)
	}
	if int(h.Count) > MaxFiles {
		return Directory{}, eeprom.Errorf(eeprom.KindFormat, op, "%d entries exceed the maximum of %d", h.Count, MaxFiles)
	}

	dir := Directory{Header: h, Entries: make([]Entry, 0, h.Count)}
	if h.Count == 0 {
		return dir, nil
	}

	buf := make([]byte, int(h.Count)*EntrySize)
	if err := x.st.Read(HeaderSize, buf); err != nil {
		return Directory{}, fmt.Errorf("fileindex: read entries: %w", err)
	}
	for i := 0; i < int(h.Count); i++ {
		dir.Entries = append(dir.Entries, decodeEntry(buf[i*EntrySize:(i+1)*EntrySize]))
	}

	x.log.Debug("directory read", zap.Int("files", len(dir.Entries)), zap.Uint16("payload", h.TotalSize))
	return dir, nil
}

// ReadFiles reads and verifies every entry's payload.
//
// A checksum mismatch skips that file (recorded in Result.Failed) and the
// rest carry on. Any storage failure aborts the whole call.
func (x *Index) ReadFiles(entries []Entry) (Result, error) {
	const op = "read file"

	var res Result

	for _, e := range entries {
		data := make([]byte, e.Size)
		if e.Size > 0 {
			if err := x.st.Read(e.Address, data); err != nil {
				return Result{}, fmt.Errorf("fileindex: read %s: %w", e.Name, err)
			}
		}

		if sum := Checksum(data); sum != e.Checksum {
			err := eeprom.Errorf(eeprom.KindChecksum, op, "%s: want 0x%02X, got 0x%02X", e.Name, e.Checksum, sum)
			x.log.Warn("checksum mismatch",
				zap.String("name", e.Name),
				zap.Uint8("want", e.Checksum),
				zap.Uint8("got", sum),
			)
			res.Failed = append(res.Failed, FileError{Entry: e, Err: err})
			continue
		}

		x.log.Info("file read", zap.String("name", e.Name), zap.Uint16("size", e.Size))
		res.Files = append(res.Files, File{Name: e.Name, Data: data})
	}

	return res, nil
}
