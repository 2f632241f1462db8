// Package source provides stream.Source implementations.
package source

import (
	"context"
	"io"
	"sync"

	"github.com/dcos/dcos-streamtail/stream"
)

// DefaultBufferSize is the largest chunk a Reader delivers when no size is given.
const DefaultBufferSize = 32 * 1024

// Reader turns an io.ReadCloser into a stream.Source. Every Read performs a
// single read of the underlying reader, so chunk boundaries follow whatever
// the reader hands out.
type Reader struct {
	rc      io.ReadCloser
	bufSize int

	eof       bool
	closeOnce sync.Once
	closeErr  error
}

// NewReader returns a Reader over rc. bufSize below one selects DefaultBufferSize.
func NewReader(rc io.ReadCloser, bufSize int) *Reader {
	if bufSize < 1 {
		bufSize = DefaultBufferSize
	}
	return &Reader{rc: rc, bufSize: bufSize}
}

// Read returns the next chunk. Bytes that arrive together with io.EOF are
// delivered first and the end of the stream is reported by the next call.
func (r *Reader) Read(ctx context.Context) (stream.Chunk, error) {
	if r.eof {
		return stream.Chunk{Done: true}, nil
	}

	buf := make([]byte, r.bufSize)
	for {
		if err := ctx.Err(); err != nil {
			return stream.Chunk{}, err
		}

		n, err := r.rc.Read(buf)
		if err == io.EOF {
			r.eof = true
			if n == 0 {
				return stream.Chunk{Done: true}, nil
			}
			return stream.Chunk{Data: buf[:n]}, nil
		}
		if err != nil {
			return stream.Chunk{}, err
		}
		if n > 0 {
			return stream.Chunk{Data: buf[:n]}, nil
		}
	}
}

// Close releases the underlying reader after the stream has ended. It shares
// its effect with Cancel, so only the first of the two calls closes the reader.
func (r *Reader) Close() error {
	return r.Cancel()
}

// Cancel closes the underlying reader. Only the first call has an effect.
func (r *Reader) Cancel() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.rc.Close()
	})
	return r.closeErr
}
