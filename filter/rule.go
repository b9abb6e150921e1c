package filter

import (
	"context"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/pkg/dsl"
)

// RuleFilter 按 CEL 规则表达式过滤：任一规则对候选求值为 true 即剔除。
//
// 规则示例：
//   - `item.features.predicted_ctr < 0.01`
//   - `item.meta.content_topic == "spam"`
//   - `item.meta.moderation_status != null && item.meta.moderation_status >= 2`
type RuleFilter struct {
	Rules []string
}

// NewRuleFilter 创建规则过滤器。
func NewRuleFilter(rules []string) *RuleFilter {
	return &RuleFilter{Rules: rules}
}

func (f *RuleFilter) Name() string { return "rule" }

func (f *RuleFilter) ShouldFilter(_ context.Context, rctx *core.RankContext, item *core.Item) (bool, error) {
	for _, rule := range f.Rules {
		if rule == "" {
			continue
		}
		matched, err := dsl.NewEval(item, rctx).Evaluate(rule)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

var _ Filter = (*RuleFilter)(nil)
