package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.txt":
			assert.Equal(t, "ticketrag-test", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("hello attachment"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, 64, WithUserAgent("ticketrag-test"))

	t.Run("success", func(t *testing.T) {
		resp, err := f.Fetch(context.Background(), srv.URL+"/ok.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello attachment", string(resp.Body))
		assert.Equal(t, "text/plain", resp.ContentType)
	})

	t.Run("non-2xx carries status and url", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing.pdf")
		var dl *models.DownloadError
		require.True(t, errors.As(err, &dl))
		assert.Equal(t, http.StatusNotFound, dl.StatusCode)
		assert.Equal(t, srv.URL+"/missing.pdf", dl.URL)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("body over limit", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/big")
		var dl *models.DownloadError
		require.True(t, errors.As(err, &dl))
	})

	t.Run("bad scheme", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "ftp://example.com/file")
		var dl *models.DownloadError
		require.True(t, errors.As(err, &dl))
		assert.Zero(t, dl.StatusCode)
	})
}

func TestHTTPFetcher_contextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPFetcher(time.Second, 0).Fetch(ctx, srv.URL)
	require.Error(t, err)
}
