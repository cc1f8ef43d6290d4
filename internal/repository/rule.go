package repository

import (
	"context"

	"github.com/user/news-service/internal/domain"
)

// RuleStore reads the admin-owned classification rules. The classifier takes
// a fresh snapshot per run; rules are immutable during a single pass.
type RuleStore interface {
	// EnabledKeywordRulesByPriority returns enabled KEYWORD rules ordered by
	// ascending priority.
	EnabledKeywordRulesByPriority(ctx context.Context) ([]domain.ClassificationRule, error)
}
