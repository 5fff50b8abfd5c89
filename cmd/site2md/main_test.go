package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/site2md/internal/config"
)

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>%[1]s/docs/intro</loc></url>
  <url><loc>%[1]s/docs/missing</loc></url>
  <url><loc>%[1]s/blog/post</loc></url>
</urlset>`, server.URL)
	})
	mux.HandleFunc("/docs/intro", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Intro</title></head><body><main>Getting started</main></body></html>`))
	})
	mux.HandleFunc("/blog/post", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Post</title></head><body><div>no region here</div></body></html>`))
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append(args, "--config", writeQuietConfig(t)))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeQuietConfig keeps log output out of the test run.
func writeQuietConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0644))
	return path
}

func TestDigestWritesDocument(t *testing.T) {
	server := newSiteServer(t)
	output := filepath.Join(t.TempDir(), "site.md")

	_, stderr, err := execute(t, "digest", server.URL+"/sitemap.xml", "--output", output, "--workers", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Saved 3 pages (1 failed)")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	doc := string(data)

	intro := strings.Index(doc, "# Intro")
	missing := strings.Index(doc, "# No Title")
	post := strings.Index(doc, "# Post")
	assert.True(t, intro >= 0 && intro < missing && missing < post, "sections out of order:\n%s", doc)
	assert.Contains(t, doc, "Getting started")
	assert.Contains(t, doc, "Error scraping "+server.URL+"/docs/missing")
	assert.Contains(t, doc, "Content not found")
}

func TestDigestToStdoutAsJSON(t *testing.T) {
	server := newSiteServer(t)

	stdout, _, err := execute(t, "digest", server.URL+"/sitemap.xml", "-o", "-", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"title": "Intro"`)
	assert.Contains(t, stdout, `"source": "`+server.URL+`/sitemap.xml"`)
}

func TestDigestNoURLs(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	stdout, stderr, err := execute(t, "digest", server.URL, "-o", "-")
	require.NoError(t, err)
	assert.Contains(t, stderr, noURLsWarning)
	assert.Empty(t, stdout)
}

func TestDigestRejectsBadFormat(t *testing.T) {
	server := newSiteServer(t)

	_, _, err := execute(t, "digest", server.URL+"/sitemap.xml", "--format", "pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSitemapCommand(t *testing.T) {
	server := newSiteServer(t)
	host := strings.TrimPrefix(server.URL, "http://")

	stdout, _, err := execute(t, "sitemap", server.URL+"/sitemap.xml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "- "+host+"\n"), stdout)
	assert.Contains(t, stdout, "\n  - docs\n    - intro\n    - missing\n")
	assert.Contains(t, stdout, "\n  - blog\n    - post\n")

	stdout, _, err = execute(t, "sitemap", server.URL+"/sitemap.xml", "--list")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/docs/intro\n"+server.URL+"/docs/missing\n"+server.URL+"/blog/post\n", stdout)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		format  string
		rootURL string
		want    string
	}{
		{name: "configured", path: "out.md", rootURL: "https://example.com", want: "out.md"},
		{name: "host markdown", format: "markdown", rootURL: "https://example.com/sitemap.xml", want: "example.com.md"},
		{name: "host json", format: "json", rootURL: "https://example.com", want: "example.com.json"},
		{name: "port sanitized", format: "markdown", rootURL: "http://127.0.0.1:8080", want: "127.0.0.1_8080.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Output.Path = tt.path
			cfg.Output.Format = tt.format
			a := &app{cfg: cfg}
			assert.Equal(t, tt.want, a.outputPath(tt.rootURL))
		})
	}
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestRunClosesLogOutput(t *testing.T) {
	tests := []struct {
		name    string
		fn      func() error
		wantErr bool
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "failure", fn: func() error { return errors.New("boom") }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closer := &countingCloser{}
			a := &app{cfg: config.Default(), closer: closer}

			err := a.run(tt.fn)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, closer.closed)

			require.NoError(t, a.close())
			assert.Equal(t, 1, closer.closed)
		})
	}
}
