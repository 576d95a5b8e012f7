package catalog

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/hupe1980/colormatch/internal/conv"
)

// Writer encodes a catalog. The record count is fixed up front because the
// header precedes the records.
type Writer struct {
	bw       *bufio.Writer
	declared int
	written  int
	buf      []byte
}

// NewWriter writes the header for count records and returns a Writer for them.
func NewWriter(w io.Writer, count int) (*Writer, error) {
	n, err := conv.IntToUint32(count)
	if err != nil {
		return nil, fmt.Errorf("catalog: invalid record count: %w", err)
	}

	bw := bufio.NewWriter(w)
	hdr := AppendHeader(make([]byte, 0, HeaderSize), Header{
		Magic:   Magic,
		Version: Version,
		Count:   n,
	})
	if _, err := bw.Write(hdr); err != nil {
		return nil, fmt.Errorf("catalog: write header: %w", err)
	}

	return &Writer{bw: bw, declared: count, buf: make([]byte, 0, 64)}, nil
}

// Write appends one record. Names and codes longer than MaxStringLen bytes
// are cut at a rune boundary.
func (w *Writer) Write(rec Record) error {
	if w.written >= w.declared {
		return fmt.Errorf("catalog: record %d exceeds declared count %d", w.written, w.declared)
	}

	b := w.buf[:0]
	b = append(b, rec.R, rec.G, rec.B)
	b = binary.LittleEndian.AppendUint16(b, rec.LRVScaled)
	b = binary.LittleEndian.AppendUint32(b, rec.ID)
	b = appendString(b, rec.Name)
	b = appendString(b, rec.Code)
	if rec.LightText {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	w.buf = b

	if _, err := w.bw.Write(b); err != nil {
		return fmt.Errorf("catalog: write record %d: %w", w.written, err)
	}
	w.written++
	return nil
}

// Flush flushes buffered data. It fails if fewer records than declared were written.
func (w *Writer) Flush() error {
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("catalog: flush: %w", err)
	}
	if w.written != w.declared {
		return fmt.Errorf("catalog: wrote %d of %d declared records", w.written, w.declared)
	}
	return nil
}

// Encode writes a complete catalog holding records.
func Encode(w io.Writer, records []Record) error {
	cw, err := NewWriter(w, len(records))
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return cw.Flush()
}

func appendString(b []byte, s string) []byte {
	s = truncate(s, MaxStringLen)
	b = append(b, byte(len(s)))
	return append(b, s...)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
