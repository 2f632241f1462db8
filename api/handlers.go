package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dcos/dcos-streamtail/source"
	"github.com/dcos/dcos-streamtail/stream"
	"github.com/dcos/dcos-streamtail/worker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const defaultInterval = time.Second

type handler struct {
	interval time.Duration
	now      func() time.Time
	metrics  *stream.Metrics
	upgrader websocket.Upgrader
}

func newHandler(deps *Dependencies) *handler {
	h := &handler{
		interval: deps.Cfg.FlagInterval,
		now:      deps.Now,
		metrics:  deps.Metrics,
	}
	if h.interval <= 0 {
		h.interval = defaultInterval
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Route handlers
// /, an endless chunked stream with one line per interval
func (h *handler) clockHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, "streaming is not supported by the connection", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Transfer-Encoding", "chunked")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	err := h.tick(r.Context(), w, flusher.Flush)
	log.Debugf("Clock stream ended: %s", err)
}

// /worker, websocket accepting "start" and streaming the clock back
func (h *handler) workerHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.WithError(err).Error("Could not upgrade worker connection")
		return
	}
	defer conn.Close()

	wrk := worker.New(h.openClock, stream.WithMetrics(h.metrics), stream.WithTimeout(h.interval+time.Second))
	if err := worker.ServeWS(wrk, conn); err != nil {
		log.WithError(err).Error("Worker connection failed")
	}
}

// openClock returns a source reading the clock stream in process.
func (h *handler) openClock(ctx context.Context) (stream.Source, []stream.Option, error) {
	pr, pw := io.Pipe()
	go func() {
		err := h.tick(ctx, pw, func() {})
		pw.CloseWithError(err)
	}()
	return source.NewReader(pr, 0), nil, nil
}

// tick writes the current time to w every interval until ctx is done or a write fails.
func (h *handler) tick(ctx context.Context, w io.Writer, flush func()) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := fmt.Fprintf(w, "It is now %s\n", h.now().UTC()); err != nil {
				return err
			}
			flush()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func httpError(w http.ResponseWriter, msg string, code int) {
	log.WithField("Code", code).Error(msg)
	http.Error(w, msg, code)
}
