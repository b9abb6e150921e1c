package rank

import (
	"context"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/model"
	"github.com/feedworks/feedkit/pipeline"
)

// CTRNode 用 CTR 模型给候选补充 predicted_ctr 特征。
// 不排序：通常放在 rank.feed 之前，作为排序模型的上游特征。
type CTRNode struct {
	Model *model.CTRModel
}

func (n *CTRNode) Name() string        { return "rank.ctr" }
func (n *CTRNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CTRNode) Process(
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

	probs, err := n.Model.Predict(table)
	if err != nil {
		return nil, err
	}
	for i, it := range valid {
		if it.Features == nil {
			it.Features = make(map[string]float64)
		}
		it.Features["predicted_ctr"] = probs[i]
		it.PutLabel("ctr_model", core.Label{Value: "ctr", Source: "rank"})
	}
	return items, nil
}
