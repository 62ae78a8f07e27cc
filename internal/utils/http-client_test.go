package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRCCHTTPClientHeaders(t *testing.T) {
	seen := make(chan http.Header, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Clone()
	}))
	defer srv.Close()

	client := NewRCCHTTPClient(HTTPClientConfig{
		Headers: map[string]string{"X-Token": "abc", "range": "bytes=0-"},
	})

	head, err := http.NewRequest(http.MethodHead, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(head)
	require.NoError(t, err)
	resp.Body.Close()
	got := <-seen
	assert.Equal(t, ToolUserAgent, got.Get("User-Agent"))
	assert.Equal(t, "abc", got.Get("X-Token"))
	assert.Empty(t, got.Get("Range"))
	assert.Empty(t, got.Get("Accept-Encoding"))

	ranged, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	ranged.Header.Set("Range", "bytes=10-19")
	resp, err = client.Do(ranged)
	require.NoError(t, err)
	resp.Body.Close()
	got = <-seen
	assert.Equal(t, "bytes=10-19", got.Get("Range"))
	assert.Equal(t, "identity", got.Get("Accept-Encoding"))
}

func TestProxyWithCredentials(t *testing.T) {
	assert.Nil(t, proxyWithCredentials(HTTPClientConfig{}))
	assert.Nil(t, proxyWithCredentials(HTTPClientConfig{ProxyURL: "http://[::1"}))

	u := proxyWithCredentials(HTTPClientConfig{ProxyURL: "http://proxy:8080", ProxyUsername: "alice", ProxyPassword: "pw"})
	require.NotNil(t, u)
	assert.Equal(t, "http://alice:pw@proxy:8080", u.String())

	u = proxyWithCredentials(HTTPClientConfig{ProxyURL: "http://proxy:8080", ProxyUsername: "bob"})
	require.NotNil(t, u)
	assert.Equal(t, "http://bob@proxy:8080", u.String())
}
