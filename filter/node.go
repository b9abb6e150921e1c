package filter

import (
	"context"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/pipeline"
)

// FilterNode 组合多个过滤器。任何一个过滤器命中，该候选就被剔除，
// 并写入 filtered 标签（Source 记录命中的过滤器名），便于调试/观测。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		hit := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				// 单个过滤器出错时跳过，不中断整条链路
				continue
			}
			if ok {
				hit = f.Name()
				break
			}
		}

		if hit != "" {
			item.PutLabel("filtered", core.Label{Value: "true", Source: hit})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
