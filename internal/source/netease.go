package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/domain"
)

const neteaseSourceID = "NETEASE"

// NeteaseAdapter crawls news.163.com.
type NeteaseAdapter struct {
	client    *http.Client
	logger    *zap.Logger
	baseURL   string
	siteRoot  string
	listURL   string
	secondary []string
}

// NewNetease builds the Netease adapter with its production endpoints.
func NewNetease(logger *zap.Logger) *NeteaseAdapter {
	base := "https://news.163.com"
	return &NeteaseAdapter{
		client:   newHTTPClient(),
		logger:   logger.With(zap.String("source", neteaseSourceID)),
		baseURL:  base,
		siteRoot: "https://163.com",
		listURL:  base + "/",
		secondary: []string{
			base + "/domestic/",
			base + "/world/",
			base + "/society/",
			"https://money.163.com/",
		},
	}
}

func (a *NeteaseAdapter) SourceID() string { return neteaseSourceID }

func (a *NeteaseAdapter) FetchCandidateLinks(ctx context.Context, maxCount int) ([]string, error) {
	links, err := collectLinks(ctx, a.client, a.logger, a.listURL, a.secondary, maxCount, a.matchLink)
	if err != nil {
		return nil, fmt.Errorf("netease listing: %w", err)
	}
	a.logger.Info("collected candidate links", zap.Int("count", len(links)))
	return links, nil
}

// matchLink keeps article detail pages anywhere under 163.com, not just
// news.163.com: the secondary category pages live on sibling domains such as
// money.163.com and their article links stay on those domains.
func (a *NeteaseAdapter) matchLink(href string) bool {
	return sameHost(a.siteRoot, href) &&
		strings.HasSuffix(href, ".html") &&
		strings.Contains(href, "20") &&
		!strings.Contains(href, "javascript")
}

func (a *NeteaseAdapter) FetchArticle(ctx context.Context, articleURL string) (*domain.Article, error) {
	doc, err := fetchDocument(ctx, a.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := cleanText(doc.Find("h1.post_title, h1").First().Text())
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	body := doc.Find("div.post_body, div.post_text").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("no content found at %s", articleURL)
	}
	body.Find("script, style, .ep-source").Remove()
	content := cleanText(body.Text())
	if content == "" {
		return nil, fmt.Errorf("empty content at %s", articleURL)
	}

	publishTime := time.Now()
	if timeText := doc.Find("div.post_time_source, span.post_time").First().Text(); timeText != "" {
		publishTime = parsePublishTime(timeText, "2006-01-02 15:04")
	}

	imageURL := ""
	if src, ok := doc.Find("div.post_body img, div.post_text img").First().Attr("src"); ok {
		imageURL = absoluteURL(articleURL, src)
	}

	return &domain.Article{
		Title:       title,
		Content:     content,
		SourceID:    neteaseSourceID,
		OriginalURL: articleURL,
		ImageURL:    imageURL,
		PublishTime: publishTime,
		Status:      domain.ArticlePublished,
		CrawlTime:   time.Now(),
	}, nil
}

func (a *NeteaseAdapter) Probe(ctx context.Context) bool {
	if _, err := fetchDocument(ctx, a.client, a.listURL); err != nil {
		a.logger.Warn("probe failed", zap.Error(err))
		return false
	}
	return true
}
