package source

import (
	"context"
	"fmt"
	"io/ioutil"
	"mime"
	"net/http"

	streamio "github.com/dcos/dcos-streamtail/io"
	"github.com/sirupsen/logrus"
)

// HTTP is a stream source reading the body of a streamed HTTP response.
type HTTP struct {
	*Reader
	cancel  context.CancelFunc
	url     string
	charset string
}

// Get requests url and returns the response body as a source. The request
// lives until the source is canceled or ctx is done.
func Get(ctx context.Context, client *http.Client, url string) (*HTTP, error) {
	logrus.Debugf("Using URL %s to open a stream", url)

	ctx, cancel := context.WithCancel(ctx)
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("could not create a new HTTP request: %s", err)
	}
	request = request.WithContext(ctx)

	resp, err := client.Do(request)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("could not fetch url %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()

		errMsg := fmt.Sprintf("unable to fetch %s. Return code %d.", url, resp.StatusCode)

		body, e := ioutil.ReadAll(resp.Body)
		if e != nil {
			return nil, fmt.Errorf("%s Could not read body: %s", errMsg, e)
		}
		return nil, fmt.Errorf("%s Body: %s", errMsg, string(body))
	}

	return &HTTP{
		Reader:  NewReader(streamio.ReadCloserWithContext(ctx, resp.Body), 0),
		cancel:  cancel,
		url:     url,
		charset: charset(resp.Header.Get("Content-Type")),
	}, nil
}

// Cancel aborts the request and closes the response body.
func (h *HTTP) Cancel() error {
	h.cancel()
	return h.Reader.Cancel()
}

// Close releases the request and the response body once the stream has
// ended. It may follow a Cancel.
func (h *HTTP) Close() error {
	defer h.cancel()
	return h.Reader.Close()
}

// URL returns the requested url.
func (h *HTTP) URL() string {
	return h.url
}

// Charset returns the charset parameter of the response Content-Type, if any.
func (h *HTTP) Charset() string {
	return h.charset
}

func charset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		logrus.WithError(err).Debugf("Could not parse content type %q", contentType)
		return ""
	}
	return params["charset"]
}
