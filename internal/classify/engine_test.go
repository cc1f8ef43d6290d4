package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/user/news-service/internal/domain"
)

type fakeCategories struct {
	byName map[string]int64
	err    error
}

func (f *fakeCategories) FindByName(_ context.Context, name string) (int64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.byName[name]
	return id, ok, nil
}

type fakeRules struct {
	rules []domain.ClassificationRule
	err   error
}

func (f *fakeRules) EnabledKeywordRulesByPriority(context.Context) ([]domain.ClassificationRule, error) {
	return f.rules, f.err
}

func newTestEngine(cats *fakeCategories, rules *fakeRules) *Engine {
	return NewEngine(cats, rules, zap.NewNop())
}

func TestClassifySourceRuleWins(t *testing.T) {
	cats := &fakeCategories{byName: map[string]int64{"Politics": 7, "Society": 1}}
	// A keyword rule that would also match must not be consulted.
	rules := &fakeRules{rules: []domain.ClassificationRule{
		{Keywords: "budget", TargetCategoryID: 42, Priority: 1},
	}}
	engine := newTestEngine(cats, rules)

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "CCTV",
		Title:    "National budget announced",
	})
	assert.Equal(t, int64(7), got)
}

func TestClassifyKeywordLowestPriorityWins(t *testing.T) {
	cats := &fakeCategories{byName: map[string]int64{}}
	rules := &fakeRules{rules: []domain.ClassificationRule{
		{Keywords: "games,esports", TargetCategoryID: 5, Priority: 1},
		{Keywords: "esports", TargetCategoryID: 9, Priority: 2},
	}}
	engine := newTestEngine(cats, rules)

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "OTHER",
		Title:    "Esports finals draw record crowd",
	})
	assert.Equal(t, int64(5), got)
}

func TestClassifyKeywordCaseInsensitive(t *testing.T) {
	cats := &fakeCategories{byName: map[string]int64{}}
	rules := &fakeRules{rules: []domain.ClassificationRule{
		{Keywords: "BlockChain", TargetCategoryID: 3, Priority: 1},
	}}
	engine := newTestEngine(cats, rules)

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "OTHER",
		Content:  "the blockchain summit opened today",
	})
	assert.Equal(t, int64(3), got)
}

func TestClassifyDefaultCategory(t *testing.T) {
	cats := &fakeCategories{byName: map[string]int64{"Society": 11}}
	engine := newTestEngine(cats, &fakeRules{})

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "OTHER",
		Title:    "nothing matches",
	})
	assert.Equal(t, int64(11), got)
}

func TestClassifyDefaultFallbackID(t *testing.T) {
	// When even the default category cannot be resolved, the engine still
	// yields a usable ID.
	cats := &fakeCategories{err: errors.New("db down")}
	rules := &fakeRules{err: errors.New("db down")}
	engine := newTestEngine(cats, rules)

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "SINA",
		Title:    "anything",
	})
	assert.Equal(t, int64(defaultCategoryID), got)
}

func TestClassifyRuleErrorDegradesToDefault(t *testing.T) {
	cats := &fakeCategories{byName: map[string]int64{"Society": 1}}
	rules := &fakeRules{err: errors.New("db down")}
	engine := newTestEngine(cats, rules)

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "OTHER",
		Title:    "anything",
	})
	assert.Equal(t, int64(1), got)
}

func TestClassifyEmptyKeywordListsSkipped(t *testing.T) {
	cats := &fakeCategories{byName: map[string]int64{"Society": 1}}
	rules := &fakeRules{rules: []domain.ClassificationRule{
		{Keywords: "", TargetCategoryID: 99, Priority: 1},
		{Keywords: " , ,", TargetCategoryID: 98, Priority: 2},
	}}
	engine := newTestEngine(cats, rules)

	got := engine.Classify(context.Background(), &domain.Article{
		SourceID: "OTHER",
		Title:    "plain story",
	})
	assert.Equal(t, int64(1), got)
}
