// Package rank 提供包装业务模型的排序 Node。
package rank

import (
	"context"
	"sort"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/model"
	"github.com/feedworks/feedkit/pipeline"
)

// FeedNode 用信息流排序模型给候选打分：
// - 每个候选的行 = 用户侧特征行 ∪ 候选自身字段（候选覆盖同名字段）
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序排序（同分保持原相对顺序）
type FeedNode struct {
	Model *model.FeedRankingModel
}

func (n *FeedNode) Name() string        { return "rank.feed" }
func (n *FeedNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *FeedNode) Process(
	_ context.Context,
	rctx *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	valid := make([]*core.Item, 0, len(items))
	table := core.NewTable(n.Model.Columns()...)
	for _, it := range items {
		if it == nil {
			continue
		}
		row := make(core.Row)
		if rctx != nil {
			for k, v := range rctx.User {
				row[k] = v
			}
		}
		for k, v := range it.Row() {
			row[k] = v
		}
		valid = append(valid, it)
		table.Append(row)
	}
	if len(valid) == 0 {
		return items, nil
	}

	scores, err := n.Model.Predict(table)
	if err != nil {
		return nil, err
	}
	for i, it := range valid {
		it.Score = scores[i]
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		it.Features["ranking_score"] = scores[i]
		it.PutLabel("rank_model", core.Label{Value: "feed_ranking", Source: "rank"})
	}

	// nil 候选沉底，其余按分数降序
	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}
