package util

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseTLSScheme(t *testing.T) {
	_, err := UseTLSScheme("", false)
	assert.EqualError(t, err, "empty URL")

	_, err = UseTLSScheme("/stream", true)
	assert.EqualError(t, err, "URL /stream must be absolute")

	url, err := UseTLSScheme("http://localhost:8000/", false)
	assert.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/", url)

	url, err = UseTLSScheme("http://localhost:8000/", true)
	assert.NoError(t, err)
	assert.Equal(t, "https://localhost:8000/", url)

	url, err = UseTLSScheme("ws://localhost:8000/worker", true)
	assert.NoError(t, err)
	assert.Equal(t, "wss://localhost:8000/worker", url)

	_, err = UseTLSScheme("http://[::1", true)
	assert.Error(t, err)
}

func TestNewHTTPClientCopiesHeadersOnRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("Authorization")))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewHTTPClient(time.Second, nil)
	assert.Equal(t, time.Second, client.Timeout)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/old", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "token=secret")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "token=secret", string(body))
}
