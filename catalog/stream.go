package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
)

type streamOptions struct {
	logger     *slog.Logger
	bufferSize int
}

// StreamOption configures NewStream.
type StreamOption func(*streamOptions)

// WithStreamLogger sets the logger of the stream.
func WithStreamLogger(l *slog.Logger) StreamOption {
	return func(o *streamOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithBufferSize sets the read buffer size. Values below 16 are ignored.
func WithBufferSize(n int) StreamOption {
	return func(o *streamOptions) {
		if n >= 16 {
			o.bufferSize = n
		}
	}
}

// Stream reads records one at a time from a seekable source.
//
// Only the current record is held in memory. Names longer than 63 bytes and
// codes longer than 15 bytes are cut; a record cut short by the end of the
// source yields its partial value and ends the stream.
type Stream struct {
	rs     io.ReadSeeker
	br     *bufio.Reader
	dec    *decoder
	header Header
	logger *slog.Logger

	pos    int
	ended  bool
	closed bool
}

// NewStream validates the header and positions the stream at the first record.
func NewStream(rs io.ReadSeeker, opts ...StreamOption) (*Stream, error) {
	o := streamOptions{
		logger:     slog.New(slog.DiscardHandler),
		bufferSize: 4096,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("catalog: seek header: %w", err)
	}

	br := bufio.NewReaderSize(rs, o.bufferSize)

	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	return &Stream{
		rs:     rs,
		br:     br,
		dec:    newDecoder(br, false),
		header: h,
		logger: o.logger,
	}, nil
}

// Header returns the validated header.
func (s *Stream) Header() Header { return s.header }

// Count returns the record count declared by the header.
func (s *Stream) Count() int { return int(s.header.Count) }

// Position returns the ordinal of the next record.
func (s *Stream) Position() int { return s.pos }

// Available reports whether Next may yield another record.
func (s *Stream) Available() bool {
	return !s.closed && !s.ended && s.pos < s.Count()
}

// Next returns the next record, or io.EOF once the declared count is
// exhausted or the source ended early.
func (s *Stream) Next() (Record, error) {
	if s.closed {
		return Record{}, ErrClosed
	}
	if !s.Available() {
		return Record{}, io.EOF
	}

	rec, cut, err := s.dec.next(s.pos)
	if err != nil {
		// A record that never started is the clean end of a short source.
		s.ended = true
		s.logger.Debug("catalog stream ended early", "position", s.pos, "declared", s.Count(), "error", err)
		return Record{}, io.EOF
	}

	s.pos++
	if cut {
		s.ended = true
		s.logger.Debug("catalog stream truncated", "position", s.pos, "declared", s.Count())
	}

	return rec, nil
}

// Reset repositions the stream at the first record.
func (s *Stream) Reset() error {
	if s.closed {
		return ErrClosed
	}
	if _, err := s.rs.Seek(HeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("catalog: seek first record: %w", err)
	}
	s.br.Reset(s.rs)
	s.pos = 0
	s.ended = false
	return nil
}

// At returns record i by replaying the stream from the first record.
func (s *Stream) At(i int) (Record, error) {
	if i < 0 || i >= s.Count() {
		return Record{}, fmt.Errorf("catalog: record %d out of range [0, %d)", i, s.Count())
	}
	if i < s.pos || s.closed {
		if err := s.Reset(); err != nil {
			return Record{}, err
		}
	}

	for {
		rec, err := s.Next()
		if err != nil {
			return Record{}, err
		}
		if s.pos-1 == i {
			return rec, nil
		}
	}
}

// Close releases the stream. The underlying source is closed when it
// implements io.Closer. Close is idempotent.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.br = nil
	if c, ok := s.rs.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
