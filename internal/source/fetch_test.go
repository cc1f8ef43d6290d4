package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"inner runs", "a  b\t\tc\n\nd", "a b c d"},
		{"leading and trailing", "  padded  ", "padded"},
		{"only whitespace", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanText(tt.in))
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want string
	}{
		{"already absolute", "https://news.example.com/", "https://other.com/a.html", "https://other.com/a.html"},
		{"root relative", "https://news.example.com/world/", "/a/b.html", "https://news.example.com/a/b.html"},
		{"page relative", "https://news.example.com/world/", "b.html", "https://news.example.com/world/b.html"},
		{"empty href", "https://news.example.com/", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, absoluteURL(tt.base, tt.href))
		})
	}
}

func TestParsePublishTime(t *testing.T) {
	got := parsePublishTime("2024-05-17 08:30", "2006-01-02 15:04")
	want := time.Date(2024, 5, 17, 8, 30, 0, 0, time.Local)
	assert.True(t, got.Equal(want))
}

func TestParsePublishTimeISOFallback(t *testing.T) {
	got := parsePublishTime("2024-05-17 08:30:45", "2006年01月02日 15:04")
	want := time.Date(2024, 5, 17, 8, 30, 45, 0, time.Local)
	assert.True(t, got.Equal(want))
}

func TestParsePublishTimeStripsOutletSuffix(t *testing.T) {
	got := parsePublishTime("2024-05-17 08:30 来源：某报", "2006-01-02 15:04")
	want := time.Date(2024, 5, 17, 8, 30, 0, 0, time.Local)
	assert.True(t, got.Equal(want))
}

func TestParsePublishTimeGarbageFallsBackToNow(t *testing.T) {
	before := time.Now()
	got := parsePublishTime("yesterday-ish", "2006-01-02 15:04")
	after := time.Now()
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestSameHost(t *testing.T) {
	tests := []struct {
		name string
		base string
		href string
		want bool
	}{
		{"exact host", "https://news.163.com", "https://news.163.com/a.html", true},
		{"subdomain", "https://163.com", "https://money.163.com/a.html", true},
		{"relative", "https://news.163.com", "/a.html", true},
		{"foreign host", "https://news.163.com", "https://evil.com/a.html", false},
		{"suffix lookalike", "https://163.com", "https://not163.com/a.html", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sameHost(tt.base, tt.href))
		})
	}
}

func TestFetchDocumentRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fetchDocument(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestFetchDocumentSendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body><h1>ok</h1></body></html>"))
	}))
	defer srv.Close()

	doc, err := fetchDocument(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, userAgent, gotUA)
	assert.Equal(t, "ok", doc.Find("h1").Text())
}
