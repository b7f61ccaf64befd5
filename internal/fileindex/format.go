// internal/fileindex/format.go
package fileindex

import (
	"encoding/binary"
	"fmt"
)

// On-device directory layout constants.
// These values define the format and MUST NOT be configurable.
// All integers are little-endian.

// ---- HEADER ----

// Magic identifies a directory at address 0.
var Magic = [4]byte{'C', 'A', 'M', 0}

// Version is the only directory format version understood.
const Version = 1

// HeaderSize is the encoded header:
// magic[4] version[1] count[1] total_size[2] reserved[8].
const HeaderSize = 16

// ---- ENTRIES ----

// MaxFiles bounds the entry count; the entry slab is always reserved in full.
const MaxFiles = 16

// NameSize is the fixed name field, NUL-padded. At most NameSize-1 name bytes are kept.
const NameSize = 64

// EntrySize is the encoded entry:
// name[64] address[2] size[2] checksum[1] pad[1].
const EntrySize = 70

// ---- PAYLOAD ----

// DataStart is the first payload address, right after the maximum entry slab.
const DataStart = HeaderSize + MaxFiles*EntrySize

// MaxFileSize is the largest payload accepted for one file.
const MaxFileSize = 32 * 1024

// Header is the directory header at address 0.
type Header struct {
	Magic     [4]byte
	Version   uint8
	Count     uint8
	TotalSize uint16 // sum of payload sizes
}

// Valid reports whether the magic matches.
func (h Header) Valid() bool { return h.Magic == Magic }

// Entry locates one file's payload.
type Entry struct {
	Name     string
	Address  uint16
	Size     uint16
	Checksum uint8
}

// End is the first address after the payload.
func (e Entry) End() int { return int(e.Address) + int(e.Size) }

func (e Entry) String() string {
	return fmt.Sprintf("%s @0x%04X size=%d sum=0x%02X", e.Name, e.Address, e.Size, e.Checksum)
}

// ---- codec ----

func encodeHeader(dst []byte, h Header) {
	copy(dst[0:4], h.Magic[:])
	dst[4] = h.Version
	dst[5] = h.Count
	binary.LittleEndian.PutUint16(dst[6:8], h.TotalSize)
	for i := 8; i < HeaderSize; i++ {
		dst[i] = 0
	}
}

func decodeHeader(src []byte) Header {
	var h Header
	copy(h.Magic[:], src[0:4])
	h.Version = src[4]
	h.Count = src[5]
	h.TotalSize = binary.LittleEndian.Uint16(src[6:8])
	return h
}

func encodeEntry(dst []byte, e Entry) {
	name := dst[:NameSize]
	for i := range name {
		name[i] = 0
	}
	n := copy(name[:NameSize-1], e.Name)
	name[n] = 0

	binary.LittleEndian.PutUint16(dst[NameSize:NameSize+2], e.Address)
	binary.LittleEndian.PutUint16(dst[NameSize+2:NameSize+4], e.Size)
	dst[NameSize+4] = e.Checksum
	dst[NameSize+5] = 0
}

func decodeEntry(src []byte) Entry {
	name := src[:NameSize]
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}
	return Entry{
		Name:     string(name[:end]),
		Address:  binary.LittleEndian.Uint16(src[NameSize : NameSize+2]),
		Size:     binary.LittleEndian.Uint16(src[NameSize+2 : NameSize+4]),
		Checksum: src[NameSize+4],
	}
}

// encodeDirectory packs the header and entries into one buffer.
func encodeDirectory(h Header, entries []Entry) []byte {
	buf := make([]byte, HeaderSize+len(entries)*EntrySize)
	encodeHeader(buf, h)
	for i, e := range entries {
		off := HeaderSize + i*EntrySize
		encodeEntry(buf[off:off+EntrySize], e)
	}
	return buf
}

// Checksum folds data with XOR, seeded at zero.
func Checksum(data []byte) uint8 {
	var sum uint8
	for _, b := range data {
		sum ^= b
	}
	return sum
}
