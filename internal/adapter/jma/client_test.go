package jma

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestFetchForecast_RequestsAreaDocument(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"timeSeries":[]}]`))
	}))
	defer server.Close()

	body, err := testClient(server.URL).FetchForecast(context.Background(), "130000")
	require.NoError(t, err)
	assert.Equal(t, "/130000.json", gotPath)
	assert.JSONEq(t, `[{"timeSeries":[]}]`, string(body))
}

func TestFetchForecast_UnknownAreaIsNotRetried(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := testClient(server.URL).FetchForecast(context.Background(), "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "area 999999")
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, 1, calls)
}

func TestFetchForecast_RetriesTransportFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	body, err := testClient(server.URL).FetchForecast(context.Background(), "130000")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, 2, calls)
}
