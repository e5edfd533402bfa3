package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibhub/internal/fetch"
)

func TestLocationIQ_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/search.php", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1 Rue A, Paris, 75001, France", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"48.8606","lon":"2.3376","display_name":"1 Rue A, Paris"},{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	p := NewLocationIQ(srv.URL, "secret", fetch.NewClient(time.Second))
	results, err := p.Search(context.Background(), "1 Rue A, Paris, 75001, France")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 48.8606, results[0].Lat, 1e-9)
	assert.InDelta(t, 2.3376, results[0].Lon, 1e-9)
	assert.Equal(t, "1 Rue A, Paris", results[0].DisplayName)
}

func TestLocationIQ_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	results, err := NewLocationIQ(srv.URL, "k", fetch.NewClient(time.Second)).Search(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLocationIQ_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("q") {
		case "limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "garbage":
			_, _ = w.Write([]byte(`not json`))
		case "badlat":
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"2"}]`))
		}
	}))
	defer srv.Close()

	p := NewLocationIQ(srv.URL, "k", fetch.NewClient(time.Second))

	_, err := p.Search(context.Background(), "limited")
	require.Error(t, err)
	assert.True(t, fetch.IsRetryable(err))

	_, err = p.Search(context.Background(), "garbage")
	require.Error(t, err)
	assert.False(t, fetch.IsRetryable(err))

	_, err = p.Search(context.Background(), "badlat")
	assert.Error(t, err)
}
