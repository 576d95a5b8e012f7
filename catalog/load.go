package catalog

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/hupe1980/colormatch/resource"
)

// DefaultProgressEvery is how many records pass between progress log lines.
const DefaultProgressEvery = 500

// maxPrealloc caps the record slice allocated up front. The header count is
// untrusted until the records have been read.
const maxPrealloc = 4096

// Set is a fully materialized catalog.
type Set struct {
	Header  Header
	Records []Record

	leases []*resource.Lease
}

// Len returns the number of records.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// MemoryUsage returns the bytes reserved for the set.
func (s *Set) MemoryUsage() int64 {
	if s == nil {
		return 0
	}
	var total int64
	for _, l := range s.leases {
		total += l.Bytes()
	}
	return total
}

// Release drops the records and returns their reservation. It is idempotent.
func (s *Set) Release() {
	if s == nil {
		return
	}
	for _, l := range s.leases {
		l.Release()
	}
	s.leases = nil
	s.Records = nil
}

type loadOptions struct {
	allocator     *resource.Allocator
	logger        *slog.Logger
	progressEvery int
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithAllocator reserves the memory for the materialized records through a.
func WithAllocator(a *resource.Allocator) LoadOption {
	return func(o *loadOptions) {
		o.allocator = a
	}
}

// WithLoadLogger sets the logger receiving progress lines.
func WithLoadLogger(l *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithProgressEvery sets how many records pass between progress log lines.
func WithProgressEvery(n int) LoadOption {
	return func(o *loadOptions) {
		if n > 0 {
			o.progressEvery = n
		}
	}
}

// Load reads the header and materializes every record.
//
// On a short read or truncated string Load releases everything it reserved
// and returns a *ShortReadError carrying the number of records parsed.
// Memory exhaustion is reported as resource.ErrMemoryLimitExceeded.
func Load(r io.Reader, opts ...LoadOption) (*Set, error) {
	o := loadOptions{
		logger:        slog.New(slog.DiscardHandler),
		progressEvery: DefaultProgressEvery,
	}
	for _, opt := range opts {
		opt(&o)
	}

	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	count := int(h.Count)
	set := &Set{Header: h}

	// Reserve the record array before allocating it.
	lease, err := o.allocator.Reserve(int64(count) * RecordSize)
	if err != nil {
		return nil, fmt.Errorf("catalog: materialize %d records: %w", count, err)
	}
	set.leases = append(set.leases, lease)
	set.Records = make([]Record, 0, min(count, maxPrealloc))

	o.logger.Info("catalog bulk load started", "records", count, "pool", lease.Pool())

	progress := rate.Sometimes{Every: o.progressEvery}
	dec := newDecoder(br, true)

	var payload int64
	for i := 0; i < count; i++ {
		rec, _, err := dec.next(i)
		if err != nil {
			set.Release()
			o.logger.Warn("catalog bulk load aborted", "parsed", i, "records", count, "error", err)
			return nil, err
		}
		set.Records = append(set.Records, rec)
		payload += int64(len(rec.Name) + len(rec.Code))

		progress.Do(func() {
			o.logger.Debug("catalog bulk load progress", "loaded", i+1, "records", count)
		})
	}

	if payload > 0 {
		strings, err := o.allocator.Reserve(payload)
		if err != nil {
			set.Release()
			return nil, fmt.Errorf("catalog: reserve string payload: %w", err)
		}
		set.leases = append(set.leases, strings)
	}

	o.logger.Info("catalog bulk load completed", "records", count, "bytes", set.MemoryUsage())

	return set, nil
}
