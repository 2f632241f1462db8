// Package worker runs a bounded stream reader in the background and posts the
// decoded text as messages to its owner.
//
// The owner controls the worker with plain string messages: StartMessage
// begins reading and any other message terminates the worker. Messages going
// the other way are raw decoded text fragments, without acknowledgements.
package worker

import (
	"context"
	"io"
	"sync"

	"github.com/dcos/dcos-streamtail/stream"
	"github.com/sirupsen/logrus"
)

// StartMessage begins a read loop.
const StartMessage = "start"

const messagesBuffer = 16

// OpenFunc opens the source read by a loop. The options it returns are applied
// after the worker's own, so a loop can pick its encoding from the source.
type OpenFunc func(ctx context.Context) (stream.Source, []stream.Option, error)

// Worker reads a stream in the background on request.
type Worker struct {
	open OpenFunc
	opts []stream.Option
	log  logrus.FieldLogger

	ctx      context.Context
	cancel   context.CancelFunc
	messages chan string
	done     chan struct{}
	loops    sync.WaitGroup

	mu         sync.Mutex
	running    bool
	closed     bool
	terminated bool
	err        error
}

// New creates an idle worker. opts configure the reader of every loop.
func New(open OpenFunc, opts ...stream.Option) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		open:     open,
		opts:     opts,
		log:      logrus.WithField("component", "worker"),
		ctx:      ctx,
		cancel:   cancel,
		messages: make(chan string, messagesBuffer),
		done:     make(chan struct{}),
	}
}

// Post delivers a control message to the worker.
func (w *Worker) Post(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminated || w.closed {
		return
	}
	if msg != StartMessage {
		w.terminate()
		return
	}
	if w.running {
		w.log.Debug("Stream already running, ignoring start")
		return
	}

	w.running = true
	w.err = nil
	w.loops.Add(1)
	go w.run()
}

// Close tells the worker that no more control messages will arrive. A running
// loop reads until its stream ends or fails and the worker then terminates.
// An idle worker terminates right away.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.terminated || w.closed {
		return
	}
	w.closed = true
	if !w.running {
		w.terminate()
	}
}

// Messages returns the channel of decoded text. It is closed once the worker terminates.
func (w *Worker) Messages() <-chan string {
	return w.messages
}

// Done is closed once the worker has terminated and its last loop has returned.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Err returns the error that ended the last loop, if any.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Running reports whether a loop is in progress.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// terminate must be called with w.mu held.
func (w *Worker) terminate() {
	w.terminated = true
	w.cancel()
	go func() {
		w.loops.Wait()
		close(w.messages)
		close(w.done)
	}()
}

func (w *Worker) run() {
	defer w.loops.Done()

	err := w.get()
	if err != nil && w.ctx.Err() == nil {
		w.log.WithError(err).Error("Stream failed")
	}

	w.mu.Lock()
	w.running = false
	w.err = err
	if w.closed && !w.terminated {
		w.terminate()
	}
	w.mu.Unlock()
}

func (w *Worker) get() error {
	src, opts, err := w.open(w.ctx)
	if err != nil {
		return err
	}
	r, err := stream.New(append(append([]stream.Option(nil), w.opts...), opts...)...)
	if err != nil {
		if cerr := src.Cancel(); cerr != nil {
			w.log.WithError(cerr).Debug("Could not cancel stream source")
		}
		return err
	}
	if err := r.Run(w.ctx, src, stream.SinkFunc(w.post)); err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			w.log.WithError(err).Debug("Could not close stream source")
		}
	}
	return nil
}

func (w *Worker) post(text string) {
	select {
	case w.messages <- text:
	case <-w.ctx.Done():
	}
}
