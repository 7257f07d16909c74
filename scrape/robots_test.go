package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobotsGuard(t *testing.T) {
	robots := "User-agent: *\nDisallow: /private\n"
	var robotsFetches int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches++
			w.Write([]byte(robots))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	t.Run("allows permitted path", func(t *testing.T) {
		guard := NewRobotsGuard()
		assert.True(t, guard.Allowed(context.Background(), server.URL+"/news/article"))
		assert.Empty(t, guard.BlockedHosts())
	})

	t.Run("blocks disallowed path and records host", func(t *testing.T) {
		guard := NewRobotsGuard()
		assert.False(t, guard.Allowed(context.Background(), server.URL+"/private/report"))

		hosts := guard.BlockedHosts()
		require.Len(t, hosts, 1)
	})

	t.Run("caches policy per host", func(t *testing.T) {
		guard := NewRobotsGuard()
		robotsFetches = 0

		guard.Allowed(context.Background(), server.URL+"/a")
		guard.Allowed(context.Background(), server.URL+"/b")
		guard.Allowed(context.Background(), server.URL+"/c")

		assert.Equal(t, 1, robotsFetches)
	})
}

func TestRobotsGuard_FailOpen(t *testing.T) {
	// Unreachable host: robots.txt fetch fails, guard must allow.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	guard := NewRobotsGuard()
	assert.True(t, guard.Allowed(context.Background(), deadURL+"/anything"))
}

func TestRobotsGuard_MalformedURL(t *testing.T) {
	guard := NewRobotsGuard()
	assert.True(t, guard.Allowed(context.Background(), "::not-a-url"))
}
