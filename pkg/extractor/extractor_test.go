package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/site2md/internal/models"
	"github.com/amosWeiskopf/site2md/pkg/crawler"
)

func newExtractor(opts ...Option) *Extractor {
	return New(crawler.New(crawler.Options{}, nil), nil, opts...)
}

func TestExtractSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`
			<!DOCTYPE html>
			<html>
			<head><title> Test Page </title><style>body{color:red}</style></head>
			<body>
				<nav>Navigation</nav>
				<main>
					<h1>Welcome</h1>
					<p>This is <strong>important</strong> content.</p>
					<ul><li>first</li><li>second</li></ul>
					<script>alert("x")</script>
				</main>
				<footer>Footer</footer>
			</body>
			</html>
		`))
	}))
	defer server.Close()

	result := newExtractor().Extract(context.Background(), server.URL)

	assert.True(t, result.Succeeded)
	assert.Equal(t, server.URL, result.URL)
	assert.Equal(t, "Test Page", result.Title)
	assert.Contains(t, result.Body, "Welcome")
	assert.Contains(t, result.Body, "*important*")
	assert.Contains(t, result.Body, "* first")
	assert.Contains(t, result.Body, "* second")
	assert.NotContains(t, result.Body, "Navigation")
	assert.NotContains(t, result.Body, "Footer")
	assert.NotContains(t, result.Body, "alert")
	assert.Empty(t, result.Err)
}

func TestExtractTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	pageURL := server.URL + "/broken"
	result := newExtractor().Extract(context.Background(), pageURL)

	assert.False(t, result.Succeeded)
	assert.Equal(t, models.DefaultTitle, result.Title)
	assert.True(t, strings.HasPrefix(result.Body, "Error scraping "+pageURL+": "))
	assert.Contains(t, result.Body, "500")
	assert.NotEmpty(t, result.Err)
	assert.ErrorIs(t, result.Cause, crawler.ErrStatus)
}

func TestExtractCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main>late</main></body></html>`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newExtractor().Extract(ctx, server.URL)

	assert.False(t, result.Succeeded)
	assert.ErrorIs(t, result.Cause, context.Canceled)
}

func TestExtractUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	pageURL := server.URL + "/gone"
	server.Close()

	result := newExtractor().Extract(context.Background(), pageURL)

	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Body, pageURL)
}

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantTitle string
		wantBody  string
		notInBody string
	}{
		{
			name:      "no region",
			html:      `<html><head><title>T</title></head><body><div>plain</div></body></html>`,
			wantTitle: "T",
			wantBody:  models.ContentNotFound,
		},
		{
			name:      "missing title",
			html:      `<html><body><main>hello</main></body></html>`,
			wantTitle: models.DefaultTitle,
			wantBody:  "hello",
		},
		{
			name:      "main preferred over article",
			html:      `<html><body><article>from article</article><main>from main</main></body></html>`,
			wantTitle: models.DefaultTitle,
			wantBody:  "from main",
			notInBody: "from article",
		},
		{
			name:      "article preferred over content class",
			html:      `<html><body><div class="content">from div</div><article>from article</article></body></html>`,
			wantTitle: models.DefaultTitle,
			wantBody:  "from article",
			notInBody: "from div",
		},
		{
			name:      "any element with content class",
			html:      `<html><body><section class="wide content">from section</section><div>other</div></body></html>`,
			wantTitle: models.DefaultTitle,
			wantBody:  "from section",
			notInBody: "other",
		},
	}

	e := newExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body, err := e.ExtractHTML([]byte(tt.html), "text/html; charset=utf-8")
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, title)
			if tt.wantBody == models.ContentNotFound {
				assert.Equal(t, tt.wantBody, body)
			} else {
				assert.Contains(t, body, tt.wantBody)
			}
			if tt.notInBody != "" {
				assert.NotContains(t, body, tt.notInBody)
			}
		})
	}
}

func TestExtractHTMLCharset(t *testing.T) {
	// "café" encoded as ISO-8859-1
	page := []byte("<html><head><title>caf\xe9</title></head><body><main>ok</main></body></html>")

	title, _, err := newExtractor().ExtractHTML(page, "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "café", title)
}

func TestFallbackWithoutText(t *testing.T) {
	e := newExtractor(WithFallback(FallbackTrafilatura))

	_, body, err := e.ExtractHTML([]byte(`<html><body></body></html>`), "text/html")
	require.NoError(t, err)
	assert.Equal(t, models.ContentNotFound, body)
}

// storyPage has an article-like body but no main, article or .content region.
const storyPage = `<!DOCTYPE html>
<html>
<head><title>Harbor Report</title></head>
<body>
<div id="header"><a href="/">Home</a> <a href="/news">News</a></div>
<div id="story">
<h1>The harbor reopens after the winter storms</h1>
<p>After three weeks of closures, the old harbor reopened on Monday morning as crews finished clearing debris from the northern breakwater. Fishermen who had waited out the storms in town lined the quay before sunrise, eager to get their boats back on the water.</p>
<p>The harbor master said the damage was less severe than first feared. Two of the floating docks will need to be replaced before summer, but the main channel is clear and the navigation lights have been repaired and tested by the coast guard.</p>
<p>Local businesses welcomed the news. The fish market, which had been buying from neighboring ports at higher prices, expects deliveries to return to normal by the end of the week, and the ferry service will resume its regular timetable on Wednesday.</p>
<p>Officials plan to review the storm response at the next council meeting, where residents will be invited to share their experiences and suggest improvements for the coming seasons.</p>
</div>
<div id="footer">Copyright Harbor Gazette</div>
</body>
</html>`

func TestRegionlessPageFallback(t *testing.T) {
	tests := []struct {
		name     string
		fallback Fallback
		check    func(t *testing.T, body string)
	}{
		{
			name:     "none",
			fallback: FallbackNone,
			check: func(t *testing.T, body string) {
				assert.Equal(t, models.ContentNotFound, body)
			},
		},
		{
			name:     "trafilatura",
			fallback: FallbackTrafilatura,
			check: func(t *testing.T, body string) {
				assert.NotEqual(t, models.ContentNotFound, body)
				assert.Contains(t, body, "navigation lights have been repaired")
				assert.Contains(t, body, "ferry service will resume")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body, err := newExtractor(WithFallback(tt.fallback)).ExtractHTML([]byte(storyPage), "text/html; charset=utf-8")
			require.NoError(t, err)
			assert.Equal(t, "Harbor Report", title)
			tt.check(t, body)
		})
	}
}

func TestSelectRegionNone(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body><p>x</p></body></html>`))
	require.NoError(t, err)
	assert.Nil(t, SelectRegion(doc))

	text, err := RegionText(nil)
	require.NoError(t, err)
	assert.Empty(t, text)
}
