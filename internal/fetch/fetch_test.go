package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	resp, err := NewClient(time.Second).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "[]", string(resp.Body))
}

func TestClientGet_DecodesLatin1(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		_, _ = w.Write([]byte{'C', 'a', 'f', 0xE9})
	}))
	defer srv.Close()

	resp, err := NewClient(time.Second).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Café", string(resp.Body))
}

func TestClientGet_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))

		resp, err := NewClient(time.Second).Get(context.Background(), srv.URL)
		srv.Close()

		require.Error(t, err)
		require.NotNil(t, resp)
		var fe *Error
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, tt.status, fe.StatusCode)
		assert.Equal(t, tt.retryable, IsRetryable(err), "status %d", tt.status)
	}
}

func TestClientGet_TimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewClient(50*time.Millisecond).Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestIsRetryable_OtherErrors(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}
