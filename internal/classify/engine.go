package classify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/user/news-service/internal/domain"
	"github.com/user/news-service/internal/repository"
)

// Fallback when the default category name cannot be resolved.
const defaultCategoryID = 1

const defaultCategoryName = "Society"

// Preset source → category name mapping, checked before keyword rules.
var sourceCategories = map[string]string{
	"SINA":    "Society",
	"CCTV":    "Politics",
	"NETEASE": "Technology",
}

// Engine assigns categories with three-tier resolution: source rule, then
// keyword rules by ascending priority, then the default category. It holds
// no mutable state and is safe for concurrent callers.
type Engine struct {
	categories repository.CategoryStore
	rules      repository.RuleStore
	logger     *zap.Logger
}

func NewEngine(categories repository.CategoryStore, rules repository.RuleStore, logger *zap.Logger) *Engine {
	return &Engine{categories: categories, rules: rules, logger: logger}
}

// Classify returns the category ID for an article. Store errors degrade to
// "no match" for that tier; the default tier always yields an ID.
func (e *Engine) Classify(ctx context.Context, article *domain.Article) int64 {
	if id, ok := e.classifyBySource(ctx, article.SourceID); ok {
		e.logger.Debug("classified by source rule",
			zap.String("source", article.SourceID), zap.Int64("category_id", id))
		return id
	}

	if id, ok := e.classifyByKeywords(ctx, article.Title, article.Content); ok {
		e.logger.Debug("classified by keyword rule",
			zap.String("title", article.Title), zap.Int64("category_id", id))
		return id
	}

	return e.defaultCategory(ctx)
}

func (e *Engine) classifyBySource(ctx context.Context, sourceID string) (int64, bool) {
	name, ok := sourceCategories[sourceID]
	if !ok {
		return 0, false
	}
	id, found, err := e.categories.FindByName(ctx, name)
	if err != nil {
		e.logger.Warn("category lookup failed", zap.String("name", name), zap.Error(err))
		return 0, false
	}
	return id, found
}

// classifyByKeywords scans enabled KEYWORD rules in ascending priority order
// and returns the first rule any of whose comma-separated keywords appears,
// case-insensitively, in title+" "+body. Rule order decides ties, not
// keyword order.
func (e *Engine) classifyByKeywords(ctx context.Context, title, body string) (int64, bool) {
	rules, err := e.rules.EnabledKeywordRulesByPriority(ctx)
	if err != nil {
		e.logger.Warn("keyword rule load failed", zap.Error(err))
		return 0, false
	}

	text := strings.ToLower(title + " " + body)
	for _, rule := range rules {
		if rule.Keywords == "" {
			continue
		}
		for _, keyword := range strings.Split(rule.Keywords, ",") {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				continue
			}
			if strings.Contains(text, keyword) {
				return rule.TargetCategoryID, true
			}
		}
	}
	return 0, false
}

func (e *Engine) defaultCategory(ctx context.Context) int64 {
	id, found, err := e.categories.FindByName(ctx, defaultCategoryName)
	if err != nil || !found {
		return defaultCategoryID
	}
	return id
}
