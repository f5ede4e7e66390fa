package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBraveSearch(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")
	_, err := NewBraveSearch("")
	assert.Error(t, err)

	t.Setenv("BRAVE_API_KEY", "env-key")
	b, err := NewBraveSearch("", WithBraveCount(50), WithBraveCountry("GB"), WithBraveLang("fr"))
	require.NoError(t, err)
	assert.Equal(t, "env-key", b.APIKey)
	assert.Equal(t, 20, b.Count)
	assert.Equal(t, "GB", b.Country)
	assert.Equal(t, "fr", b.Lang)
}

func TestBraveSearch_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "morning habits", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		assert.Equal(t, "key", r.Header.Get("X-Subscription-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"web":{"results":[
			{"title":"Habits","url":"https://example.com/habits","description":"Five habits"},
			{"title":"No URL","url":"","description":"skipped"},
			{"title":"Sleep","url":"https://example.com/sleep","description":"Sleep well"}
		]}}`))
	}))
	defer server.Close()

	b, err := NewBraveSearch("key", WithBraveBaseURL(server.URL), WithBraveCount(3))
	require.NoError(t, err)

	results, err := b.Search(context.Background(), "morning habits")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SearchResult{Title: "Habits", URL: "https://example.com/habits", Snippet: "Five habits"}, results[0])
	assert.Equal(t, "https://example.com/sleep", results[1].URL)
}

func TestBraveSearch_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "bad-json" {
			w.Write([]byte("{"))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	b, err := NewBraveSearch("key", WithBraveBaseURL(server.URL))
	require.NoError(t, err)

	_, err = b.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	_, err = b.Search(context.Background(), "bad-json")
	assert.Error(t, err)
}
