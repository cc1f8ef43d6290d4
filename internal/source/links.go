package source

import (
	"context"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// collectLinks walks the primary listing page and, if it comes up short,
// a fixed list of secondary category pages, accumulating article links that
// pass the adapter's match filter. The primary fetch failing is fatal;
// secondary page failures are logged and skipped. Links are de-duplicated
// across the whole page set and capped at maxCount.
func collectLinks(ctx context.Context, client *http.Client, logger *zap.Logger,
	primary string, secondary []string, maxCount int, match func(string) bool) ([]string, error) {

	doc, err := fetchDocument(ctx, client, primary)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	appendLinks(doc, primary, maxCount, match, seen, &links)

	if len(links) < maxCount {
		logger.Info("listing page short on links, probing category pages",
			zap.Int("found", len(links)), zap.Int("want", maxCount))

		for _, categoryURL := range secondary {
			if len(links) >= maxCount {
				break
			}
			categoryDoc, err := fetchDocument(ctx, client, categoryURL)
			if err != nil {
				logger.Warn("category page fetch failed, skipping",
					zap.String("url", categoryURL), zap.Error(err))
				continue
			}
			appendLinks(categoryDoc, categoryURL, maxCount, match, seen, &links)
		}
	}

	return links, nil
}

func appendLinks(doc *goquery.Document, pageURL string, maxCount int,
	match func(string) bool, seen map[string]struct{}, links *[]string) {

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		full := absoluteURL(pageURL, href)
		if full == "" || !match(full) {
			return true
		}
		if _, dup := seen[full]; dup {
			return true
		}
		seen[full] = struct{}{}
		*links = append(*links, full)
		return len(*links) < maxCount
	})
}
