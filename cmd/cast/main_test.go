package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>%s</title>
    <link>%s</link>
  </channel>
</rss>`

// newFeedServer serves /hn and /go as feeds; every other path is a 404.
func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hn":
			fmt.Fprintf(w, feedTemplate, "Hacker News", "https://news.ycombinator.com/")
		case "/go":
			fmt.Fprintf(w, feedTemplate, "Go Blog", "https://go.dev/blog/")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig creates a config pointing at a temp database and a seed list
// served by srv. It returns the config path.
func writeConfig(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()

	seeds := fmt.Sprintf(`
[[feed]]
title = "HN"
link = "%[1]s/hn"

[[feed]]
title = "Gone"
link = "%[1]s/missing"
`, srv.URL)
	seedPath := filepath.Join(dir, "feeds.toml")
	require.NoError(t, os.WriteFile(seedPath, []byte(seeds), 0644))

	cfg := fmt.Sprintf(`
database:
  path: %s
fetch:
  timeout: 2s
log:
  level: error
seed:
  path: %s
`, filepath.Join(dir, "rss.sqlite3"), seedPath)
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRSS_SeedsAndLists(t *testing.T) {
	srv := newFeedServer(t)
	cfgPath := writeConfig(t, srv)

	out, err := run(t, "-c", cfgPath, "-f", "text", "rss")
	require.NoError(t, err)
	assert.Contains(t, out, "title=Hacker News")
	assert.Equal(t, 1, strings.Count(out, "\n"), "unavailable seed should be skipped")
}

func TestRSS_AddSubscribeRemove(t *testing.T) {
	srv := newFeedServer(t)
	cfgPath := writeConfig(t, srv)

	out, err := run(t, "-c", cfgPath, "-f", "text", "rss", "add", srv.URL+"/go")
	require.NoError(t, err)
	assert.Contains(t, out, "command=add\taffected=1")

	out, err = run(t, "-c", cfgPath, "-f", "text", "rss", "--subscribe", "go.dev")
	require.NoError(t, err)
	assert.Contains(t, out, "command=subscribe\taffected=1")

	out, err = run(t, "-c", cfgPath, "-f", "text", "rss", "list", "--subscribed")
	require.NoError(t, err)
	assert.Contains(t, out, "title=Go Blog")
	assert.NotContains(t, out, "Hacker News")

	out, err = run(t, "-c", cfgPath, "-f", "text", "rss", "--remove", "ycombinator")
	require.NoError(t, err)
	assert.Contains(t, out, "command=remove\taffected=1")

	out, err = run(t, "-c", cfgPath, "-f", "text", "rss")
	require.NoError(t, err)
	assert.Contains(t, out, "title=Go Blog")
	assert.NotContains(t, out, "Hacker News")
}

func TestRSS_UnknownCommand(t *testing.T) {
	srv := newFeedServer(t)
	cfgPath := writeConfig(t, srv)

	_, err := run(t, "-c", cfgPath, "rss", "refresh")
	assert.Error(t, err)
}

func TestRSS_UnwritableDatabaseIsFatal(t *testing.T) {
	srv := newFeedServer(t)
	cfgPath := writeConfig(t, srv)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := run(t, "-c", cfgPath, "--db", filepath.Join(blocker, "rss.sqlite3"), "rss")
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cast", "config.yaml")

	out, err := run(t, "-c", path, "init-config")
	require.NoError(t, err)
	assert.Contains(t, out, "Created default config")

	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = run(t, "-c", path, "init-config")
	assert.Error(t, err, "existing config must not be overwritten")
}

func TestInvalidLogLevel(t *testing.T) {
	srv := newFeedServer(t)
	cfgPath := writeConfig(t, srv)

	_, err := run(t, "-c", cfgPath, "--log-level", "chatty", "rss")
	assert.Error(t, err)
}
