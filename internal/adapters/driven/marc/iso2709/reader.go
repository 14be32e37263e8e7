package iso2709

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/custodia-labs/marc-importer/internal/core/domain"
	"github.com/custodia-labs/marc-importer/internal/core/ports/driven"
)

// Ensure Reader and Opener implement the interfaces.
var (
	_ driven.RecordReader       = (*Reader)(nil)
	_ driven.RecordSourceOpener = (*Opener)(nil)
)

const readerBufferSize = 64 * 1024

// Reader streams records from an ISO 2709 source.
type Reader struct {
	r      *bufio.Reader
	closer io.Closer
	err    error
}

// NewReader creates a reader over r. Close closes r when it is an io.Closer.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{r: bufio.NewReaderSize(r, readerBufferSize)}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// HasNext reports whether another record starts in the stream.
// Line breaks and padding between records are skipped.
func (r *Reader) HasNext() bool {
	if r.err != nil {
		return false
	}
	for {
		b, err := r.r.Peek(1)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return false
		}
		switch b[0] {
		case '\n', '\r', ' ', '\t', 0x1A:
			_, _ = r.r.ReadByte()
		default:
			return true
		}
	}
}

// Next reads and decodes the next record. A malformed record is skipped up
// to its terminator so the following record can still be read.
func (r *Reader) Next() (*domain.RawRecord, error) {
	raw, err := r.readRaw()
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// readRaw reads the bytes of one record using the length in its leader.
func (r *Reader) readRaw() ([]byte, error) {
	head := make([]byte, 5)
	if _, err := io.ReadFull(r.r, head); err != nil {
		r.err = err
		return nil, malformed("truncated leader: %v", err)
	}

	length, err := digits(head)
	if err != nil || length <= leaderLen {
		r.resync(head)
		return nil, malformed("invalid record length %q", head)
	}

	raw := make([]byte, length)
	copy(raw, head)
	if n, err := io.ReadFull(r.r, raw[5:]); err != nil {
		if !r.resync(raw[:5+n]) {
			r.err = err
		}
		return nil, malformed("record truncated at %d of %d bytes", 5+n, length)
	}

	if raw[length-1] != recordTerminator {
		r.resync(raw)
		return nil, malformed("record length %d does not end at a terminator", length)
	}
	return raw, nil
}

// resync positions the stream after the first record terminator. Bytes
// already consumed past that terminator are pushed back so the next
// record is not lost. It reports whether a terminator was found in read.
func (r *Reader) resync(read []byte) bool {
	i := bytes.IndexByte(read, recordTerminator)
	if i < 0 {
		r.skipToTerminator()
		return false
	}
	if rest := read[i+1:]; len(rest) > 0 {
		pushed := append([]byte(nil), rest...)
		r.r = bufio.NewReaderSize(io.MultiReader(bytes.NewReader(pushed), r.r), readerBufferSize)
	}
	return true
}

// skipToTerminator discards input through the next record terminator.
func (r *Reader) skipToTerminator() {
	if _, err := r.r.ReadBytes(recordTerminator); err != nil {
		r.err = err
	}
}

// Close releases the underlying source.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Opener opens ISO 2709 files from the local filesystem.
type Opener struct{}

// NewOpener creates a file opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open opens path for reading.
func (o *Opener) Open(path string) (driven.RecordReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceOpen, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceOpen, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrSourceOpen, path)
	}
	return NewReader(f), nil
}
