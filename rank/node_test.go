package rank

import (
	"context"
	"math/rand"
	"testing"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/model"
)

// trainFeedModel 用质量分主导排序分数的小样本训练一个排序模型，
// 预测顺序应与 content_quality_score 顺序一致。
func trainFeedModel(t *testing.T) *model.FeedRankingModel {
	t.Helper()
	rng := rand.New(rand.NewSource(7))

	m := model.NewFeedRankingModel(7)
	table := core.NewTable(append(append([]string(nil), m.Columns()...), "ranking_score")...)
	for i := 0; i < 120; i++ {
		quality := rng.Float64()
		row := core.Row{
			"user_age":                 25 + float64(i%30),
			"user_region_encoded":      float64(i % 4),
			"user_device_encoded":      float64(i % 2),
			"user_persona_id":          float64(i % 70),
			"content_type_encoded":     float64(i % 4),
			"content_topic_encoded":    float64(i % 10),
			"content_length":           100 + rng.Float64()*400,
			"content_age_hours":        rng.Float64() * 48,
			"user_engagement_score":    rng.Float64() * 5,
			"content_engagement_score": rng.Float64() * 5,
			"user_satisfaction_score":  1 + rng.Float64()*4,
			"hour_of_day":              float64(i % 24),
			"day_of_week":              float64(i % 7),
			"predicted_ctr":            rng.Float64() * 0.1,
			"predicted_engagement":     rng.Float64() * 5,
			"content_quality_score":    quality,
			"user_interest_score":      rng.Float64(),
			"content_diversity_score":  rng.Float64(),
			"ranking_score":            quality,
		}
		table.Append(row)
	}
	if err := m.Train(table); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	return m
}

func feedUserRow() core.Row {
	return core.Row{
		"user_age":                30.0,
		"user_region_encoded":     1.0,
		"user_device_encoded":     0.0,
		"user_persona_id":         12.0,
		"user_engagement_score":   2.5,
		"user_satisfaction_score": 4.0,
		"user_interest_score":     0.6,
	}
}

func feedItem(id string, quality float64) *core.Item {
	it := core.NewItem(id)
	it.Features["content_type_encoded"] = 1
	it.Features["content_topic_encoded"] = 3
	it.Features["content_length"] = 250
	it.Features["content_age_hours"] = 6
	it.Features["content_engagement_score"] = 3.0
	it.Features["hour_of_day"] = 20
	it.Features["day_of_week"] = 4
	it.Features["predicted_ctr"] = 0.05
	it.Features["predicted_engagement"] = 2.0
	it.Features["content_quality_score"] = quality
	it.Features["content_diversity_score"] = 0.5
	return it
}

func TestFeedNode_Process(t *testing.T) {
	node := &FeedNode{Model: trainFeedModel(t)}
	rctx := &core.RankContext{UserID: "u-1", User: feedUserRow()}

	// 按质量分升序构造，排序后应变为降序
	items := []*core.Item{
		feedItem("low", 0.1),
		feedItem("mid", 0.5),
		feedItem("high", 0.9),
	}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}
	if out[0].ID != "high" || out[2].ID != "low" {
		t.Errorf("order = [%s %s %s], want [high mid low]", out[0].ID, out[1].ID, out[2].ID)
	}
	for i := 0; i < len(out)-1; i++ {
		if out[i].Score < out[i+1].Score {
			t.Errorf("scores not descending at %d: %v < %v", i, out[i].Score, out[i+1].Score)
		}
	}
	for _, it := range out {
		if it.Features["ranking_score"] != it.Score {
			t.Errorf("item %s ranking_score feature = %v, want %v", it.ID, it.Features["ranking_score"], it.Score)
		}
		lbl, ok := it.Labels["rank_model"]
		if !ok || lbl.Value != "feed_ranking" || lbl.Source != "rank" {
			t.Errorf("item %s rank_model label = %+v", it.ID, lbl)
		}
	}
}

func TestFeedNode_MissingFeature(t *testing.T) {
	node := &FeedNode{Model: trainFeedModel(t)}
	rctx := &core.RankContext{User: feedUserRow()}

	it := feedItem("a", 0.5)
	delete(it.Features, "content_quality_score")
	if _, err := node.Process(context.Background(), rctx, []*core.Item{it}); err == nil {
		t.Fatal("expected error when a model column is missing")
	}
}

func TestFeedNode_NilModelPassthrough(t *testing.T) {
	items := []*core.Item{core.NewItem("a")}
	out, err := (&FeedNode{}).Process(context.Background(), nil, items)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
}

func TestFeedNode_NilItemsAndNilFeatures(t *testing.T) {
	node := &FeedNode{Model: trainFeedModel(t)}
	rctx := &core.RankContext{User: feedUserRow()}

	// 特征全部放在 Meta 里、Features 为 nil 的候选也必须能打分
	bare := &core.Item{ID: "bare", Meta: map[string]any{}}
	for k, v := range feedItem("tmp", 0.7).Features {
		bare.Meta[k] = v
	}

	items := []*core.Item{nil, feedItem("a", 0.3), nil, bare}
	out, err := node.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("len(out) = %d, want 4", len(out))
	}
	// nil 候选沉底，有效候选按分数降序
	if out[0] == nil || out[1] == nil {
		t.Fatal("scored items should precede nil items")
	}
	if out[2] != nil || out[3] != nil {
		t.Error("nil items should sink to the tail")
	}
	if out[0].ID != "bare" {
		t.Errorf("out[0] = %s, want bare (higher quality)", out[0].ID)
	}
	if bare.Features["ranking_score"] != bare.Score {
		t.Errorf("ranking_score = %v, want %v", bare.Features["ranking_score"], bare.Score)
	}
}

func TestCTRNode_NilItemsAndNilFeatures(t *testing.T) {
	node := &CTRNode{Model: trainCTRModel(t)}
	rctx := &core.RankContext{User: ctrUserRow()}

	bare := &core.Item{ID: "bare", Meta: map[string]any{
		"content_type_encoded":     1.0,
		"feed_position":            2.0,
		"hour_of_day":              20.0,
		"day_of_week":              4.0,
		"content_engagement_score": 3.0,
	}}

	out, err := node.Process(context.Background(), rctx, []*core.Item{nil, bare})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	ctr, ok := bare.Features["predicted_ctr"]
	if !ok {
		t.Fatal("predicted_ctr not written to item with nil Features map")
	}
	if ctr <= 0 || ctr >= 1 {
		t.Errorf("predicted_ctr = %v, want (0, 1)", ctr)
	}
}

func trainCTRModel(t *testing.T) *model.CTRModel {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	m := model.NewCTRModel(11)
	table := core.NewTable(append(append([]string(nil), m.Columns()...), "click")...)
	for i := 0; i < 120; i++ {
		engagement := rng.Float64() * 5
		click := 0.0
		if engagement > 2.5 {
			click = 1.0
		}
		table.Append(core.Row{
			"user_age":                 20 + float64(i%40),
			"user_region_encoded":      float64(i % 4),
			"user_device_encoded":      float64(i % 2),
			"user_persona_id":          float64(i % 70),
			"content_type_encoded":     float64(i % 4),
			"feed_position":            float64(1 + i%10),
			"hour_of_day":              float64(i % 24),
			"day_of_week":              float64(i % 7),
			"user_engagement_score":    engagement,
			"content_engagement_score": rng.Float64() * 5,
			"click":                    click,
		})
	}
	if err := m.Train(table); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	return m
}

func ctrUserRow() core.Row {
	return core.Row{
		"user_age":              30.0,
		"user_region_encoded":   1.0,
		"user_device_encoded":   0.0,
		"user_persona_id":       5.0,
		"user_engagement_score": 4.0,
	}
}

func TestCTRNode_Process(t *testing.T) {
	node := &CTRNode{Model: trainCTRModel(t)}
	rctx := &core.RankContext{User: ctrUserRow()}
	it := core.NewItem("a")
	it.Features["content_type_encoded"] = 1
	it.Features["feed_position"] = 2
	it.Features["hour_of_day"] = 20
	it.Features["day_of_week"] = 4
	it.Features["content_engagement_score"] = 3.0

	out, err := node.Process(context.Background(), rctx, []*core.Item{it})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	ctr, ok := out[0].Features["predicted_ctr"]
	if !ok {
		t.Fatal("predicted_ctr feature not written")
	}
	if ctr <= 0 || ctr >= 1 {
		t.Errorf("predicted_ctr = %v, want (0, 1)", ctr)
	}
	// CTR 节点只补特征，不改 Score，不排序
	if out[0].Score != 0 {
		t.Errorf("Score = %v, want unchanged 0", out[0].Score)
	}
	if lbl := out[0].Labels["ctr_model"]; lbl.Value != "ctr" {
		t.Errorf("ctr_model label = %+v", lbl)
	}
}
