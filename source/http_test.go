package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dcos/dcos-streamtail/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/jarcoal/httpmock.v1"
)

func chunkedServer(lines []string, pause time.Duration) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
			select {
			case <-time.After(pause):
			case <-r.Context().Done():
				return
			}
		}
	}))
}

func TestGetStreamsBody(t *testing.T) {
	server := chunkedServer([]string{"first", "second"}, 10*time.Millisecond)
	defer server.Close()

	src, err := Get(context.TODO(), http.DefaultClient, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "utf-8", src.Charset())
	assert.Equal(t, server.URL, src.URL())

	var out strings.Builder
	err = stream.Run(context.TODO(), src, stream.SinkFunc(func(text string) {
		out.WriteString(text)
	}), stream.WithTimeout(time.Second))

	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", out.String())
}

func TestGetTimesOutOnStalledStream(t *testing.T) {
	server := chunkedServer([]string{"tick"}, time.Hour)
	defer server.Close()

	src, err := Get(context.TODO(), http.DefaultClient, server.URL)
	require.NoError(t, err)

	var fragments []string
	err = stream.Run(context.TODO(), src, stream.SinkFunc(func(text string) {
		fragments = append(fragments, text)
	}), stream.WithTimeout(100*time.Millisecond))

	assert.True(t, stream.IsTimeout(err))
	assert.Equal(t, []string{"tick\n"}, fragments)
}

func TestGetReturnsErrorOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	src, err := Get(context.TODO(), http.DefaultClient, server.URL+"/missing")
	assert.Nil(t, src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Return code 404. Body: 404 page not found")
}

func TestGetReturnsErrorOnTransportFailure(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	client := &http.Client{Transport: httpmock.DefaultTransport}
	_, err := Get(context.TODO(), client, "http://stream.invalid/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not fetch url http://stream.invalid/")
}

func TestGetReadsCharsetFromContentType(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://stream.local/",
		func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(200, "A\x00")
			if resp.Header == nil {
				resp.Header = http.Header{}
			}
			resp.Header.Set("Content-Type", "text/plain; charset=UTF-16LE")
			return resp, nil
		})

	client := &http.Client{Transport: httpmock.DefaultTransport}
	src, err := Get(context.TODO(), client, "http://stream.local/")
	require.NoError(t, err)
	assert.Equal(t, "UTF-16LE", src.Charset())

	var out strings.Builder
	err = stream.Run(context.TODO(), src, stream.SinkFunc(func(text string) {
		out.WriteString(text)
	}), stream.WithEncoding(src.Charset()))
	require.NoError(t, err)
	assert.Equal(t, "A", out.String())
}

func TestCloseReleasesRequest(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	body := &countingCloser{Reader: strings.NewReader("It is now")}
	var requestCtx context.Context
	httpmock.RegisterResponder("GET", "http://stream.local/",
		func(req *http.Request) (*http.Response, error) {
			requestCtx = req.Context()
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: body}, nil
		})

	client := &http.Client{Transport: httpmock.DefaultTransport}
	src, err := Get(context.TODO(), client, "http://stream.local/")
	require.NoError(t, err)

	require.NoError(t, stream.Run(context.TODO(), src, stream.SinkFunc(func(string) {}), stream.WithTimeout(time.Second)))
	assert.Zero(t, body.closed)
	assert.NoError(t, requestCtx.Err())

	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
	assert.NoError(t, src.Cancel())
	assert.Equal(t, 1, body.closed)
	assert.Equal(t, context.Canceled, requestCtx.Err())
}

func TestCharset(t *testing.T) {
	assert.Equal(t, "", charset(""))
	assert.Equal(t, "", charset("text/plain"))
	assert.Equal(t, "iso-8859-1", charset("text/html; charset=iso-8859-1"))
	assert.Equal(t, "", charset("not a / media type;;"))
}
