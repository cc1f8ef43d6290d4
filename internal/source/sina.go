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

const sinaSourceID = "SINA"

// SinaAdapter crawls news.sina.com.cn.
type SinaAdapter struct {
	client    *http.Client
	logger    *zap.Logger
	baseURL   string
	listURL   string
	secondary []string
}

// NewSina builds the Sina adapter with its production endpoints.
func NewSina(logger *zap.Logger) *SinaAdapter {
	base := "https://news.sina.com.cn"
	return &SinaAdapter{
		client:  newHTTPClient(),
		logger:  logger.With(zap.String("source", sinaSourceID)),
		baseURL: base,
		listURL: base + "/",
		secondary: []string{
			base + "/china/",
			base + "/world/",
			base + "/society/",
		},
	}
}

func (a *SinaAdapter) SourceID() string { return sinaSourceID }

func (a *SinaAdapter) FetchCandidateLinks(ctx context.Context, maxCount int) ([]string, error) {
	links, err := collectLinks(ctx, a.client, a.logger, a.listURL, a.secondary, maxCount, a.matchLink)
	if err != nil {
		return nil, fmt.Errorf("sina listing: %w", err)
	}
	a.logger.Info("collected candidate links", zap.Int("count", len(links)))
	return links, nil
}

// matchLink keeps .shtml detail pages with a year marker in the path.
func (a *SinaAdapter) matchLink(href string) bool {
	return sameHost(a.baseURL, href) &&
		strings.HasSuffix(href, ".shtml") &&
		strings.Contains(href, "20") &&
		!strings.Contains(href, "javascript")
}

func (a *SinaAdapter) FetchArticle(ctx context.Context, articleURL string) (*domain.Article, error) {
	doc, err := fetchDocument(ctx, a.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := cleanText(doc.Find("h1.main-title, h1").First().Text())
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	body := doc.Find("div.article, div#artibody").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("no content found at %s", articleURL)
	}
	body.Find("script, style, .article-footer").Remove()
	content := cleanText(body.Text())
	if content == "" {
		return nil, fmt.Errorf("empty content at %s", articleURL)
	}

	publishTime := time.Now()
	if timeText := doc.Find("span.date, div.date-source span").First().Text(); timeText != "" {
		publishTime = parsePublishTime(timeText, "2006年01月02日 15:04")
	}

	imageURL := ""
	if src, ok := doc.Find("div.article img, div#artibody img").First().Attr("src"); ok {
		imageURL = absoluteURL(articleURL, src)
	}

	return &domain.Article{
		Title:       title,
		Content:     content,
		SourceID:    sinaSourceID,
		OriginalURL: articleURL,
		ImageURL:    imageURL,
		PublishTime: publishTime,
		Status:      domain.ArticlePublished,
		CrawlTime:   time.Now(),
	}, nil
}

func (a *SinaAdapter) Probe(ctx context.Context) bool {
	if _, err := fetchDocument(ctx, a.client, a.listURL); err != nil {
		a.logger.Warn("probe failed", zap.Error(err))
		return false
	}
	return true
}
