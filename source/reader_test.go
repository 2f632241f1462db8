package source

import (
	"context"
	"errors"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/dcos/dcos-streamtail/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	io.Reader
	closed int
}

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestReaderDeliversChunksAndEnd(t *testing.T) {
	r := NewReader(ioutil.NopCloser(strings.NewReader("Hello")), 2)

	var got []string
	for {
		chunk, err := r.Read(context.TODO())
		require.NoError(t, err)
		if chunk.Done {
			break
		}
		got = append(got, string(chunk.Data))
	}

	assert.Equal(t, []string{"He", "ll", "o"}, got)

	chunk, err := r.Read(context.TODO())
	assert.NoError(t, err)
	assert.True(t, chunk.Done)
}

func TestReaderDeliversDataReturnedWithEOF(t *testing.T) {
	r := NewReader(ioutil.NopCloser(iotest.DataErrReader(strings.NewReader("last"))), 0)

	chunk, err := r.Read(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, stream.Chunk{Data: []byte("last")}, chunk)

	chunk, err = r.Read(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, stream.Chunk{Done: true}, chunk)
}

func TestReaderReturnsReadError(t *testing.T) {
	r := NewReader(ioutil.NopCloser(iotest.TimeoutReader(strings.NewReader("abc"))), 0)

	chunk, err := r.Read(context.TODO())
	require.NoError(t, err)
	assert.Equal(t, "abc", string(chunk.Data))

	_, err = r.Read(context.TODO())
	assert.Equal(t, iotest.ErrTimeout, err)
}

func TestReaderHonoursCanceledContext(t *testing.T) {
	r := NewReader(ioutil.NopCloser(strings.NewReader("abc")), 0)
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()

	_, err := r.Read(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestReaderCancelClosesOnce(t *testing.T) {
	rc := &countingCloser{Reader: strings.NewReader("abc")}
	r := NewReader(rc, 0)

	assert.NoError(t, r.Cancel())
	assert.NoError(t, r.Cancel())
	assert.Equal(t, 1, rc.closed)
}

func TestReaderWithBoundedLoop(t *testing.T) {
	rc := &countingCloser{Reader: strings.NewReader("It is now")}
	var fragments []string

	err := stream.Run(context.TODO(), NewReader(rc, 4), stream.SinkFunc(func(text string) {
		fragments = append(fragments, text)
	}))

	require.NoError(t, err)
	assert.Equal(t, []string{"It i", "s no", "w"}, fragments)
	assert.Zero(t, rc.closed)
}
