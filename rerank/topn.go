// Package rerank 提供排序结果上的重排 Node：截断与话题多样性。
package rerank

import (
	"context"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/pipeline"
)

// TopN 截取排序结果的前 N 个候选。
// 通常在 rank 节点之后使用，控制下发数量。
// N <= 0 或候选数不足 N 时不截断。
type TopN struct {
	N int
}

func (n *TopN) Name() string        { return "rerank.topn" }
func (n *TopN) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopN) Process(
	_ context.Context,
	_ *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
