package catalog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const (
	// Magic identifies a catalog file ("DULX" read as little-endian u32).
	Magic uint32 = 0x584C5544
	// Version is the only supported format version.
	Version uint32 = 1
	// HeaderSize is the fixed size of the catalog header in bytes.
	HeaderSize = 16

	// absentLen is the string length marker that also means "absent".
	absentLen = 255
	// MaxStringLen is the longest name or code the writer emits.
	MaxStringLen = 254
)

var (
	// ErrBadMagic indicates the header magic does not match Magic.
	ErrBadMagic = errors.New("bad magic")
	// ErrUnsupportedVersion indicates an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported version")
	// ErrShortHeader indicates the stream ended inside the header.
	ErrShortHeader = errors.New("short header")
	// ErrClosed is returned by a Stream after Close.
	ErrClosed = errors.New("catalog: stream closed")
)

// Header is the fixed 16-byte catalog header.
type Header struct {
	Magic    uint32
	Version  uint32
	Count    uint32
	Reserved uint32
}

// Record is one immutable catalog entry.
type Record struct {
	R, G, B   uint8
	LRVScaled uint16 // LRV × 100
	ID        uint32
	Name      string
	Code      string
	LightText bool // display hint: render text on this colour in a light shade
}

// LRV returns the light reflectance value as a percentage.
func (r Record) LRV() float64 {
	return float64(r.LRVScaled) / 100.0
}

// Label returns "Name (Code)", or just the name when the code is absent.
func (r Record) Label() string {
	if r.Code == "" {
		return r.Name
	}
	return r.Name + " (" + r.Code + ")"
}

// RecordSize is the in-memory size of a Record without its string payload.
const RecordSize = int64(unsafe.Sizeof(Record{}))

// FormatError reports an invalid catalog header. It is fatal to loading.
//
// The underlying error is available via errors.Unwrap.
type FormatError struct {
	Field string
	Got   uint32
	Want  uint32
	cause error
}

func (e *FormatError) Error() string {
	if errors.Is(e.cause, ErrShortHeader) {
		return fmt.Sprintf("catalog: invalid header: %v", e.cause)
	}
	return fmt.Sprintf("catalog: invalid header: %v: %s 0x%08X (want 0x%08X)", e.cause, e.Field, e.Got, e.Want)
}

func (e *FormatError) Unwrap() error { return e.cause }

// ShortReadError reports that the stream ended inside a record.
//
// The underlying error is available via errors.Unwrap.
type ShortReadError struct {
	// Parsed is the number of records read successfully before the failure.
	Parsed int
	// Field is the record field that could not be read.
	Field string
	cause error
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("catalog: short read in %s of record %d: %v", e.Field, e.Parsed, e.cause)
}

func (e *ShortReadError) Unwrap() error { return e.cause }

// ReadHeader reads and validates the catalog header.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, &FormatError{Field: "header", cause: fmt.Errorf("%w: %w", ErrShortHeader, err)}
	}

	h := Header{
		Magic:    binary.LittleEndian.Uint32(buf[0:4]),
		Version:  binary.LittleEndian.Uint32(buf[4:8]),
		Count:    binary.LittleEndian.Uint32(buf[8:12]),
		Reserved: binary.LittleEndian.Uint32(buf[12:16]),
	}

	if h.Magic != Magic {
		return Header{}, &FormatError{Field: "magic", Got: h.Magic, Want: Magic, cause: ErrBadMagic}
	}
	if h.Version != Version {
		return Header{}, &FormatError{Field: "version", Got: h.Version, Want: Version, cause: ErrUnsupportedVersion}
	}

	return h, nil
}

// AppendHeader appends the encoded header to dst.
func AppendHeader(dst []byte, h Header) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, h.Magic)
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = binary.LittleEndian.AppendUint32(dst, h.Count)
	dst = binary.LittleEndian.AppendUint32(dst, h.Reserved)
	return dst
}
