package sink

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestLog(t *testing.T) {
	logger, hook := test.NewNullLogger()

	s := Log(logger)
	s.Accept("It is now 2019")
	s.Accept("")

	require.Len(t, hook.AllEntries(), 2)
	entry := hook.AllEntries()[0]
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "It is now 2019", entry.Data["stream"])
	assert.Equal(t, "received chunk", entry.Message)
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer

	s := Writer(&buf)
	s.Accept("He")
	s.Accept("llo")

	assert.Equal(t, "Hello", buf.String())
}

func TestWriterSwallowsErrors(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	s := Writer(failingWriter{})
	assert.NotPanics(t, func() { s.Accept("lost") })

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "disk full", hook.LastEntry().Data[logrus.ErrorKey].(error).Error())
}

func TestChan(t *testing.T) {
	ch := make(chan string, 2)

	s := Chan(ch)
	s.Accept("a")
	s.Accept("b")

	assert.Equal(t, "a", <-ch)
	assert.Equal(t, "b", <-ch)
}
