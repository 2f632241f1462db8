package api

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status capture follows https://github.com/weaveworks/common/blob/81a1a4d158e60de72dbead600ec011fb90344f8c/middleware/instrument.go#L110-L136

var requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "streamtail_http_request_duration_seconds",
	Help: "Time from accepting a request until its handler returned. For streams this is the stream lifetime.",
}, []string{"method", "route", "status"})

// metricMiddleware records every request under its route template, so
// /debug/pprof/{profile} is one series whatever profile is asked for.
func metricMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		var rw http.ResponseWriter = rec
		if _, ok := w.(http.Flusher); ok {
			rw = flushingRecorder{rec}
		}

		start := time.Now()
		next.ServeHTTP(rw, r)
		requestDuration.WithLabelValues(r.Method, routeName(r), strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// statusRecorder keeps the first status written. A handler that never calls
// WriteHeader answered with 200.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.written {
		s.status = code
		s.written = true
	}
	s.ResponseWriter.WriteHeader(code)
}

// Hijack hands the connection to the websocket upgrader.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	conn, buf, err := hj.Hijack()
	if err == nil {
		s.status = http.StatusSwitchingProtocols
		s.written = true
	}
	return conn, buf, err
}

// flushingRecorder is only handed out when the wrapped writer can flush, so
// handlers still see whether chunked streaming works.
type flushingRecorder struct {
	*statusRecorder
}

func (f flushingRecorder) Flush() {
	f.ResponseWriter.(http.Flusher).Flush()
}
