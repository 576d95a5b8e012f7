package catalog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// Streaming mode keeps names and codes in bounded buffers.
const (
	streamNameMax = 63
	streamCodeMax = 15
)

// decoder parses records from a buffered stream.
//
// In strict mode any short read is an error. In lenient mode a string cut
// short by the end of the stream yields its partial value and sets cut.
type decoder struct {
	br      *bufio.Reader
	strict  bool
	nameMax int
	codeMax int
	scratch [9]byte
}

func newDecoder(br *bufio.Reader, strict bool) *decoder {
	d := &decoder{br: br, strict: strict, nameMax: MaxStringLen + 1, codeMax: MaxStringLen + 1}
	if !strict {
		d.nameMax = streamNameMax
		d.codeMax = streamCodeMax
	}
	return d
}

// next reads one record. ordinal is only used for error reporting.
func (d *decoder) next(ordinal int) (rec Record, cut bool, err error) {
	fixed := d.scratch[:]
	if _, err := io.ReadFull(d.br, fixed); err != nil {
		field := "rgb/lrv/id"
		if errors.Is(err, io.EOF) {
			field = "rgb"
		}
		return Record{}, false, shortRead(ordinal, field, err)
	}

	rec.R, rec.G, rec.B = fixed[0], fixed[1], fixed[2]
	rec.LRVScaled = binary.LittleEndian.Uint16(fixed[3:5])
	rec.ID = binary.LittleEndian.Uint32(fixed[5:9])

	rec.Name, cut, err = d.readString(d.nameMax)
	if err != nil {
		return Record{}, false, shortRead(ordinal, "name", err)
	}
	if cut {
		return rec, true, nil
	}

	rec.Code, cut, err = d.readString(d.codeMax)
	if err != nil {
		return Record{}, false, shortRead(ordinal, "code", err)
	}
	if cut {
		return rec, true, nil
	}

	flag, err := d.br.ReadByte()
	if err != nil {
		if d.strict {
			return Record{}, false, shortRead(ordinal, "light_text", err)
		}
		return rec, true, nil
	}
	rec.LightText = flag != 0

	return rec, false, nil
}

// readString reads a length-prefixed string, keeping at most max bytes.
func (d *decoder) readString(max int) (s string, cut bool, err error) {
	n, err := d.br.ReadByte()
	if err != nil {
		if d.strict {
			return "", false, err
		}
		return "", true, nil
	}
	if n == 0 || n == absentLen {
		return "", false, nil
	}

	length := int(n)
	keep := min(length, max)

	buf := make([]byte, keep)
	read, err := io.ReadFull(d.br, buf)
	if err != nil {
		if d.strict {
			return "", false, err
		}
		return string(buf[:read]), true, nil
	}

	if skip := length - keep; skip > 0 {
		if discarded, err := d.br.Discard(skip); err != nil || discarded != skip {
			if d.strict {
				return "", false, io.ErrUnexpectedEOF
			}
			return string(buf), true, nil
		}
	}

	return string(buf), false, nil
}

func shortRead(ordinal int, field string, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &ShortReadError{Parsed: ordinal, Field: field, cause: err}
}
