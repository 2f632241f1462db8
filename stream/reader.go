// Package stream reads a chunked byte stream, decodes it to text and hands every
// decoded fragment to a sink, bounding how long any single read may block.
package stream

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

const (
	// jitteredTimeoutMin and jitteredTimeoutSpan bound the default per-read
	// timeout to [900ms, 1100ms).
	jitteredTimeoutMin  = 900 * time.Millisecond
	jitteredTimeoutSpan = 200 * time.Millisecond
)

var (
	jitterMu   sync.Mutex
	jitterRand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Chunk is one unit delivered by a Source. Data is empty when Done is set.
type Chunk struct {
	Data []byte
	Done bool
}

// Source is a byte stream owned by a single Reader loop.
type Source interface {
	// Read blocks until the next chunk is available, the stream ends or the read fails.
	Read(ctx context.Context) (Chunk, error)
	// Cancel releases the resources held by the source.
	Cancel() error
}

// Sink receives decoded text fragments in stream order.
type Sink interface {
	Accept(text string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(text string)

// Accept calls f(text).
func (f SinkFunc) Accept(text string) {
	f(text)
}

// Option configures a Reader.
type Option func(*Reader) error

// WithTimeout sets the per-read timeout. Zero selects the jittered default.
func WithTimeout(d time.Duration) Option {
	return func(r *Reader) error {
		if d < 0 {
			return ErrInvalidTimeout
		}
		if d > 0 {
			r.timeout = d
		}
		return nil
	}
}

// WithEncoding sets the text encoding of the stream by its WHATWG label.
func WithEncoding(label string) Option {
	return func(r *Reader) error {
		enc, err := LookupEncoding(label)
		if err != nil {
			return err
		}
		r.enc = enc
		return nil
	}
}

// WithLogger sets the logger used for debug output and cancel failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reader) error {
		r.log = l
		return nil
	}
}

// WithMetrics makes the reader record its activity in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Reader) error {
		r.metrics = m
		return nil
	}
}

// Reader is a bounded stream reader. It is safe to query State from other
// goroutines while Run is executing.
type Reader struct {
	timeout time.Duration
	bounded bool
	enc     encoding.Encoding
	log     logrus.FieldLogger
	metrics *Metrics

	mu    sync.Mutex
	state State
}

// New creates a Reader. Without WithTimeout, the per-read timeout is drawn once
// from [900ms, 1100ms) so that readers started together do not share a deadline.
func New(opts ...Option) (*Reader, error) {
	r := &Reader{
		timeout: JitteredTimeout(),
		bounded: true,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.enc == nil {
		enc, err := LookupEncoding(DefaultEncoding)
		if err != nil {
			return nil, err
		}
		r.enc = enc
	}
	return r, nil
}

// JitteredTimeout returns a random duration in [900ms, 1100ms).
func JitteredTimeout() time.Duration {
	jitterMu.Lock()
	defer jitterMu.Unlock()
	return jitteredTimeoutMin + time.Duration(jitterRand.Int63n(int64(jitteredTimeoutSpan)))
}

// Run reads src until it reports the end of the stream, passing every decoded
// chunk to sink.
//
// Every read is raced against the per-read timeout. When the timer wins Run
// cancels src and returns a *TimeoutError. When the read fails, or ctx is
// canceled, Run cancels src and returns a *TransportError. src is never
// canceled after a normal end of stream. There is no deadline for the stream
// as a whole: a source that keeps producing chunks within the timeout keeps
// the loop running.
func Run(ctx context.Context, src Source, sink Sink, opts ...Option) error {
	r, err := New(opts...)
	if err != nil {
		return err
	}
	return r.Run(ctx, src, sink)
}

// Pump is Run without the per-read timeout. A read may block for as long as
// the source or ctx allow.
func Pump(ctx context.Context, src Source, sink Sink, opts ...Option) error {
	r, err := New(opts...)
	if err != nil {
		return err
	}
	r.bounded = false
	return r.Run(ctx, src, sink)
}

// Timeout returns the per-read timeout of r.
func (r *Reader) Timeout() time.Duration {
	return r.timeout
}

// State returns the state of the current or last loop.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reader) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Reader) start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == Reading {
		return false
	}
	r.state = Reading
	return true
}

// Run executes one read loop. See the package level Run.
func (r *Reader) Run(ctx context.Context, src Source, sink Sink) error {
	if !r.start() {
		return ErrBusy
	}

	// Abandoned reads observe this context once the loop returns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dec := newDecoder(r.enc)
	for {
		chunk, err := r.next(ctx, src)
		if err != nil {
			return r.fail(src, err)
		}

		if chunk.Done {
			text, err := dec.flush()
			if err != nil {
				return r.fail(src, &TransportError{Err: err})
			}
			if text != "" {
				sink.Accept(text)
			}
			r.log.Debug("stream ended")
			r.setState(Done)
			return nil
		}

		text, err := dec.decode(chunk.Data)
		if err != nil {
			return r.fail(src, &TransportError{Err: err})
		}
		r.metrics.chunk(len(chunk.Data))
		sink.Accept(text)
	}
}

type readResult struct {
	chunk Chunk
	err   error
}

// next races a single read of src against the per-read timer.
func (r *Reader) next(ctx context.Context, src Source) (Chunk, error) {
	results := make(chan readResult, 1)
	started := time.Now()
	go func() {
		chunk, err := src.Read(ctx)
		results <- readResult{chunk, err}
	}()

	var expired <-chan time.Time
	if r.bounded {
		timer := time.NewTimer(r.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-results:
		if res.err != nil {
			r.metrics.observeRead(outcomeTransport, time.Since(started))
			return Chunk{}, &TransportError{Err: res.err}
		}
		outcome := outcomeChunk
		if res.chunk.Done {
			outcome = outcomeDone
		}
		r.metrics.observeRead(outcome, time.Since(started))
		return res.chunk, nil
	case <-expired:
		r.metrics.observeRead(outcomeTimeout, r.timeout)
		return Chunk{}, &TimeoutError{Limit: r.timeout}
	case <-ctx.Done():
		return Chunk{}, &TransportError{Err: ctx.Err()}
	}
}

func (r *Reader) fail(src Source, err error) error {
	if cerr := src.Cancel(); cerr != nil {
		r.log.WithError(cerr).Debug("could not cancel stream source")
	}
	r.log.WithError(err).Debug("stream read loop failed")
	r.metrics.failure(err)
	r.setState(Failed)
	return err
}
