// Package sink provides stream.Sink implementations.
package sink

import (
	"io"

	"github.com/dcos/dcos-streamtail/stream"
	"github.com/sirupsen/logrus"
)

// Log returns a sink that logs every fragment at info level.
func Log(logger logrus.FieldLogger) stream.Sink {
	return stream.SinkFunc(func(text string) {
		logger.WithField("stream", text).Info("received chunk")
	})
}

// Writer returns a sink that writes every fragment to w unchanged. Write
// errors are logged, the stream keeps going.
func Writer(w io.Writer) stream.Sink {
	return stream.SinkFunc(func(text string) {
		if _, err := io.WriteString(w, text); err != nil {
			logrus.WithError(err).Error("Could not write chunk")
		}
	})
}

// Chan returns a sink that posts every fragment to ch. It blocks while ch is full.
func Chan(ch chan<- string) stream.Sink {
	return stream.SinkFunc(func(text string) {
		ch <- text
	})
}
