package util

import (
	"fmt"
	"net/http"
	netUrl "net/url"
	"time"
)

// NewHTTPClient creates a new instance of http.Client. A zero timeout leaves
// the client without an overall deadline, which is what streamed responses need.
func NewHTTPClient(timeout time.Duration, transport http.RoundTripper) *http.Client {
	client := &http.Client{
		Timeout: timeout,
	}

	if transport != nil {
		client.Transport = transport
	}

	// go http client does not copy the headers when it follows the redirect.
	// https://github.com/golang/go/issues/4800
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		for attr, val := range via[0].Header {
			if _, ok := req.Header[attr]; !ok {
				req.Header[attr] = val
			}
		}
		return nil
	}

	return client
}

// UseTLSScheme returns rawURL with its scheme switched to https when use is
// set. ws URLs are switched to wss.
func UseTLSScheme(rawURL string, use bool) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("empty URL")
	}
	u, err := netUrl.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL %s must be absolute", rawURL)
	}
	if !use {
		return rawURL, nil
	}
	switch u.Scheme {
	case "ws", "wss":
		u.Scheme = "wss"
	default:
		u.Scheme = "https"
	}
	return u.String(), nil
}
