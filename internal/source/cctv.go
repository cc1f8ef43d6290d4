package source

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/domain"
)

const cctvSourceID = "CCTV"

var cctvDatePathRE = regexp.MustCompile(`/20\d{2}/\d{2}/\d{2}/`)

// CctvAdapter crawls news.cctv.com.
type CctvAdapter struct {
	client    *http.Client
	logger    *zap.Logger
	baseURL   string
	listURL   string
	secondary []string
}

// NewCctv builds the CCTV adapter with its production endpoints.
func NewCctv(logger *zap.Logger) *CctvAdapter {
	base := "https://news.cctv.com"
	return &CctvAdapter{
		client:  newHTTPClient(),
		logger:  logger.With(zap.String("source", cctvSourceID)),
		baseURL: base,
		listURL: base + "/",
		secondary: []string{
			base + "/china/",
			base + "/world/",
			base + "/society/",
			base + "/politics/",
		},
	}
}

func (a *CctvAdapter) SourceID() string { return cctvSourceID }

func (a *CctvAdapter) FetchCandidateLinks(ctx context.Context, maxCount int) ([]string, error) {
	links, err := collectLinks(ctx, a.client, a.logger, a.listURL, a.secondary, maxCount, a.matchLink)
	if err != nil {
		return nil, fmt.Errorf("cctv listing: %w", err)
	}
	a.logger.Info("collected candidate links", zap.Int("count", len(links)))
	return links, nil
}

// matchLink keeps detail pages, which carry a /YYYY/MM/DD/ path segment.
func (a *CctvAdapter) matchLink(href string) bool {
	return sameHost(a.baseURL, href) &&
		cctvDatePathRE.MatchString(href) &&
		!strings.Contains(href, "javascript") &&
		!strings.HasSuffix(href, ".jpg") &&
		!strings.HasSuffix(href, ".png")
}

func (a *CctvAdapter) FetchArticle(ctx context.Context, articleURL string) (*domain.Article, error) {
	doc, err := fetchDocument(ctx, a.client, articleURL)
	if err != nil {
		return nil, err
	}

	title := cleanText(doc.Find("div.title h1, h1").First().Text())
	if title == "" {
		return nil, fmt.Errorf("no title found at %s", articleURL)
	}

	body := doc.Find("div.content_area, div.cnt_bd").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("no content found at %s", articleURL)
	}
	body.Find("script, style, .function_code").Remove()
	content := cleanText(body.Text())
	if content == "" {
		return nil, fmt.Errorf("empty content at %s", articleURL)
	}

	publishTime := time.Now()
	if timeText := doc.Find("div.info span.time, span.info_time").First().Text(); timeText != "" {
		publishTime = parsePublishTime(timeText, "2006年01月02日 15:04:05")
	}

	imageURL := ""
	if src, ok := doc.Find("div.content_area img, div.cnt_bd img").First().Attr("src"); ok {
		imageURL = absoluteURL(articleURL, src)
	}

	return &domain.Article{
		Title:       title,
		Content:     content,
		SourceID:    cctvSourceID,
		OriginalURL: articleURL,
		ImageURL:    imageURL,
		PublishTime: publishTime,
		Status:      domain.ArticlePublished,
		CrawlTime:   time.Now(),
	}, nil
}

func (a *CctvAdapter) Probe(ctx context.Context) bool {
	if _, err := fetchDocument(ctx, a.client, a.listURL); err != nil {
		a.logger.Warn("probe failed", zap.Error(err))
		return false
	}
	return true
}
