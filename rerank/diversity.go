package rerank

import (
	"context"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/pipeline"
)

// TopicDiversity 按话题去重（保留每个话题首个出现的候选），
// 避免信息流里同一话题刷屏。话题来源优先级：
// - label["content_topic"].Value
// - meta["content_topic"] (string)
type TopicDiversity struct {
	LabelKey string // 默认 "content_topic"
}

func (n *TopicDiversity) Name() string        { return "rerank.diversity" }
func (n *TopicDiversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopicDiversity) Process(
	_ context.Context,
	_ *core.RankContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	key := n.LabelKey
	if key == "" {
		key = "content_topic"
	}

	seen := make(map[string]bool, 32)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		topic := ""
		if lbl, ok := it.Labels[key]; ok {
			topic = lbl.Value
		}
		if topic == "" && it.Meta != nil {
			if s, ok := it.Meta[key].(string); ok {
				topic = s
			}
		}

		// 无话题的候选不参与去重
		if topic == "" {
			out = append(out, it)
			continue
		}
		if seen[topic] {
			continue
		}
		seen[topic] = true
		out = append(out, it)
	}
	return out, nil
}
