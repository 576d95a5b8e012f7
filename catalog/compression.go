package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the container a catalog blob is stored in.
type Compression uint8

const (
	// CompressionNone is a raw catalog.
	CompressionNone Compression = iota
	// CompressionZstd is a zstd frame (better ratio, the default for uploads).
	CompressionZstd
	// CompressionLZ4 is an LZ4 frame (fastest to inflate).
	CompressionLZ4
)

// MaxInflatedSize bounds the size of a decompressed catalog.
const MaxInflatedSize = 16 << 20

// ErrInflatedTooLarge indicates a compressed catalog exceeds MaxInflatedSize.
var ErrInflatedTooLarge = errors.New("catalog: inflated catalog too large")

var (
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	lz4Magic  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// String returns the compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Unknown(%d)", c)
	}
}

// ParseCompression maps a name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return CompressionNone, fmt.Errorf("catalog: unknown compression %q", name)
	}
}

// Detect reports the container of a blob from its leading bytes.
func Detect(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(prefix, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Open returns a seekable view of the catalog stored in blob.
//
// Raw catalogs are read in place. Compressed catalogs are inflated into
// memory, up to MaxInflatedSize bytes.
func Open(blob io.ReaderAt, size int64) (io.ReadSeeker, Compression, error) {
	var prefix [4]byte
	n, err := blob.ReadAt(prefix[:], 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, CompressionNone, fmt.Errorf("catalog: read prefix: %w", err)
	}

	c := Detect(prefix[:n])
	section := io.NewSectionReader(blob, 0, size)
	if c == CompressionNone {
		return section, c, nil
	}

	var zr io.Reader
	switch c {
	case CompressionZstd:
		dec, err := zstd.NewReader(section, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(MaxInflatedSize))
		if err != nil {
			return nil, c, fmt.Errorf("catalog: zstd reader: %w", err)
		}
		defer dec.Close()
		zr = dec
	case CompressionLZ4:
		zr = lz4.NewReader(section)
	}

	data, err := io.ReadAll(io.LimitReader(zr, MaxInflatedSize+1))
	if err != nil {
		return nil, c, fmt.Errorf("catalog: inflate %s: %w", c, err)
	}
	if len(data) > MaxInflatedSize {
		return nil, c, ErrInflatedTooLarge
	}

	return bytes.NewReader(data), c, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewCompressor wraps w so that bytes written are stored in container c.
// Close must be called to flush the final frame; it does not close w.
func NewCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("catalog: zstd writer: %w", err)
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("catalog: unknown compression %s", c)
	}
}
