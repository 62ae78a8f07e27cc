package rcchttp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/rccget/internal/testutils"
	"github.com/tanq16/rccget/internal/utils"
)

func newSource(t *testing.T, url string) *Source {
	t.Helper()
	src, err := NewSource(url, utils.HTTPClientConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	return src
}

func TestNewSourceRejectsScheme(t *testing.T) {
	_, err := NewSource("ftp://example.com/file.txz", utils.HTTPClientConfig{})
	assert.ErrorIs(t, err, utils.ErrUnsupportedScheme)
}

func TestSize(t *testing.T) {
	data := testutils.GenerateTestData(12345)

	t.Run("head", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{})
		size, err := newSource(t, rs.URL).Size(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(12345), size)
		assert.Empty(t, rs.Ranges())
	})
	t.Run("ranged get fallback", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{NoHead: true})
		size, err := newSource(t, rs.URL).Size(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(12345), size)
		assert.Equal(t, []string{"bytes=0-0"}, rs.Ranges())
	})
	t.Run("unknown total", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{NoLength: true})
		_, err := newSource(t, rs.URL).Size(context.Background())
		assert.ErrorIs(t, err, utils.ErrSizeUnavailable)
	})
	t.Run("not found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()
		_, err := newSource(t, srv.URL).Size(context.Background())
		assert.ErrorIs(t, err, utils.ErrSizeUnavailable)
	})
}

func TestOpenRange(t *testing.T) {
	data := testutils.GenerateTestData(1000)

	t.Run("partial content", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{})
		body, err := newSource(t, rs.URL).OpenRange(context.Background(), 10, 19)
		require.NoError(t, err)
		defer body.Close()
		got, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, data[10:20], got)
	})
	t.Run("full body instead of range", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{IgnoreRange: true})
		_, err := newSource(t, rs.URL).OpenRange(context.Background(), 10, 19)
		assert.ErrorIs(t, err, utils.ErrRangeNotHonored)
	})
	t.Run("unsatisfiable", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{})
		_, err := newSource(t, rs.URL).OpenRange(context.Background(), 5000, 5010)
		assert.ErrorIs(t, err, utils.ErrRangeNotHonored)
	})
	t.Run("server error", func(t *testing.T) {
		rs := testutils.NewRangeServer(t, data, testutils.ServerOptions{
			FailStart: map[int64]int{0: http.StatusInternalServerError},
		})
		_, err := newSource(t, rs.URL).OpenRange(context.Background(), 0, 9)
		require.Error(t, err)
		assert.NotErrorIs(t, err, utils.ErrRangeNotHonored)
		assert.Contains(t, err.Error(), "unexpected status code: 500")
	})
	t.Run("200 with content range", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Range", "bytes 0-3/4")
			w.Write([]byte("abcd"))
		}))
		defer srv.Close()
		body, err := newSource(t, srv.URL).OpenRange(context.Background(), 0, 3)
		require.NoError(t, err)
		defer body.Close()
		got, _ := io.ReadAll(body)
		assert.Equal(t, "abcd", string(got))
	})
}

func TestRequestHeaders(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Header().Set("Content-Range", "bytes 2-5/10")
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("cdef"))
	}))
	defer srv.Close()

	src, err := NewSource(srv.URL, utils.HTTPClientConfig{
		UserAgent: "build-bot/2",
		Headers:   map[string]string{"X-Token": "secret"},
	})
	require.NoError(t, err)
	body, err := src.OpenRange(context.Background(), 2, 5)
	require.NoError(t, err)
	body.Close()

	got := <-headers
	assert.Equal(t, "build-bot/2", got.Get("User-Agent"))
	assert.Equal(t, "bytes=2-5", got.Get("Range"))
	assert.Equal(t, "secret", got.Get("X-Token"))
}
