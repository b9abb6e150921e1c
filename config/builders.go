package config

import (
	"fmt"

	"github.com/feedworks/feedkit/filter"
	"github.com/feedworks/feedkit/model"
	"github.com/feedworks/feedkit/pipeline"
	"github.com/feedworks/feedkit/pkg/conv"
	"github.com/feedworks/feedkit/rank"
	"github.com/feedworks/feedkit/rerank"
)

// 内置 Node 的构建器在此注册。
func init() {
	Register("rank.feed", buildFeedNode)
	Register("rank.ctr", buildCTRNode)
	Register("rerank.topn", buildTopNNode)
	Register("rerank.diversity", buildDiversityNode)
	Register("filter.rules", buildRuleFilterNode)
}

func buildFeedNode(config map[string]any) (pipeline.Node, error) {
	path := conv.ConfigGet[string](config, "model_path", "")
	if path == "" {
		return nil, fmt.Errorf("model_path not found")
	}
	m := model.NewFeedRankingModel(0)
	if err := m.Load(path); err != nil {
		return nil, fmt.Errorf("load feed model: %w", err)
	}
	return &rank.FeedNode{Model: m}, nil
}

func buildCTRNode(config map[string]any) (pipeline.Node, error) {
	path := conv.ConfigGet[string](config, "model_path", "")
	if path == "" {
		return nil, fmt.Errorf("model_path not found")
	}
	m := model.NewCTRModel(0)
	if err := m.Load(path); err != nil {
		return nil, fmt.Errorf("load ctr model: %w", err)
	}
	return &rank.CTRNode{Model: m}, nil
}

func buildTopNNode(config map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(config, "n", 0)
	return &rerank.TopN{N: int(n)}, nil
}

func buildDiversityNode(config map[string]any) (pipeline.Node, error) {
	labelKey := conv.ConfigGet[string](config, "label_key", "content_topic")
	return &rerank.TopicDiversity{LabelKey: labelKey}, nil
}

func buildRuleFilterNode(config map[string]any) (pipeline.Node, error) {
	raw, ok := config["rules"].([]any)
	if !ok {
		return nil, fmt.Errorf("rules not found or invalid")
	}
	rules := conv.ConvertSlice(raw, func(v any) (string, bool) { return conv.ToString(v) })
	return &filter.FilterNode{Filters: []filter.Filter{filter.NewRuleFilter(rules)}}, nil
}
