package model

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/feedworks/feedkit/core"
)

// rankingTable 构造一个带全部排序特征与三个任务标签的特征表。
// 特征由下标确定性生成，标签与 user_engagement_score 强相关，
// 保证小样本下模型可学到信号。
func rankingTable(n int) *core.Table {
	columns := append([]string(nil), feedColumns...)
	columns = append(columns, "feed_position", "click", "engagement_score", "ranking_score")
	table := core.NewTable(columns...)

	for i := 0; i < n; i++ {
		engagement := float64(i%10) / 10.0
		click := 0.0
		if engagement >= 0.5 {
			click = 1.0
		}
		row := core.Row{
			"user_age":                 20.0 + float64(i%40),
			"user_region_encoded":      float64(i % 4),
			"user_device_encoded":      float64(i % 2),
			"user_persona_id":          float64(i % 70),
			"content_type_encoded":     float64(i % 3),
			"content_topic_encoded":    float64(i % 5),
			"content_length":           100.0 + float64(i%200),
			"content_age_hours":        float64(i % 48),
			"user_engagement_score":    engagement,
			"content_engagement_score": float64((i + 3) % 10 / 2),
			"user_satisfaction_score":  0.8,
			"hour_of_day":              float64(i % 24),
			"day_of_week":              float64(i % 7),
			"predicted_ctr":            engagement,
			"predicted_engagement":     engagement * 2,
			"content_quality_score":    1.5,
			"user_interest_score":      engagement / 2,
			"content_diversity_score":  0.5,
			"feed_position":            float64(1 + i%10),
			"click":                    click,
			"engagement_score":         engagement * 3,
			"ranking_score":            engagement*5 + float64(i%3)*0.1,
		}
		table.Append(row)
	}
	return table
}

func TestCTRModel_TrainPredictEvaluate(t *testing.T) {
	data := rankingTable(120)
	m := NewCTRModel(42)
	if err := m.Train(data); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	pred, err := m.Predict(data)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(pred) != data.Len() {
		t.Fatalf("prediction count = %d, want %d", len(pred), data.Len())
	}
	for i, p := range pred {
		if p <= 0 || p >= 1 {
			t.Fatalf("row %d probability %v out of (0, 1)", i, p)
		}
	}

	metrics, err := m.Evaluate(data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if metrics["roc_auc"] < 0.9 {
		t.Errorf("training auc = %v, expected strong separation on this data", metrics["roc_auc"])
	}
	if _, ok := metrics["log_loss"]; !ok {
		t.Error("evaluate should report log_loss")
	}

	// Evaluate 不得改变模型状态
	again, err := m.Predict(data)
	if err != nil {
		t.Fatalf("Predict after Evaluate failed: %v", err)
	}
	if !reflect.DeepEqual(pred, again) {
		t.Error("predictions changed after Evaluate")
	}
}

func TestTrain_MissingFeaturesNamesColumns(t *testing.T) {
	data := rankingTable(30)
	data.Columns = removeColumns(data.Columns, "predicted_ctr", "user_interest_score")

	err := NewFeedRankingModel(1).Train(data)
	if !core.IsMissingFeatures(err) {
		t.Fatalf("expected MISSING_FEATURES, got %v", err)
	}
	got := core.GetDomainError(err).Columns
	want := []string{"predicted_ctr", "user_interest_score"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("missing columns = %v, want %v", got, want)
	}
}

func TestPredict_BeforeTrain(t *testing.T) {
	data := rankingTable(10)
	tests := []struct {
		name    string
		predict func() error
	}{
		{"ctr", func() error { _, err := NewCTRModel(1).Predict(data); return err }},
		{"content", func() error { _, err := NewContentInteractionModel(1).Predict(data); return err }},
		{"feed", func() error { _, err := NewFeedRankingModel(1).Predict(data); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.predict(); !core.IsModelNotTrained(err) {
				t.Errorf("expected MODEL_NOT_TRAINED, got %v", err)
			}
		})
	}
}

func TestContentModel_EvaluateMetrics(t *testing.T) {
	data := rankingTable(100)
	m := NewContentInteractionModel(42)
	if err := m.Train(data); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	metrics, err := m.Evaluate(data)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for _, key := range []string{"mse", "rmse", "mae", "r2"} {
		if _, ok := metrics[key]; !ok {
			t.Errorf("metric %s missing from %v", key, metrics)
		}
	}
	if metrics["rmse"] < 0 || math.Abs(metrics["rmse"]*metrics["rmse"]-metrics["mse"]) > 1e-9 {
		t.Errorf("rmse %v inconsistent with mse %v", metrics["rmse"], metrics["mse"])
	}
}

func TestSaveLoad_PredictionsSurvive(t *testing.T) {
	data := rankingTable(80)
	m := NewFeedRankingModel(42)
	if err := m.Train(data); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	want, err := m.Predict(data)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "feed.json")
	if err := m.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := NewFeedRankingModel(0)
	if err := restored.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, err := restored.Predict(data)
	if err != nil {
		t.Fatalf("Predict after Load failed: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("row %d: loaded prediction %v != original %v", i, got[i], want[i])
		}
	}
}

func TestLoad_CorruptBundleIsAtomic(t *testing.T) {
	data := rankingTable(50)
	m := NewCTRModel(42)
	if err := m.Train(data); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	want, _ := m.Predict(data)

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"name":"ctr","scaler":null}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := m.Load(path); !core.IsPersistence(err) {
		t.Fatalf("expected PERSISTENCE error, got %v", err)
	}

	// 失败的 Load 不得触碰既有状态
	got, err := m.Predict(data)
	if err != nil {
		t.Fatalf("Predict after failed Load: %v", err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Error("model state changed after failed Load")
	}
}

func TestSave_BeforeTrain(t *testing.T) {
	err := NewCTRModel(1).Save(filepath.Join(t.TempDir(), "m.json"))
	if !core.IsModelNotTrained(err) {
		t.Errorf("expected MODEL_NOT_TRAINED, got %v", err)
	}
}

func TestFeatureImportance_SortedDescending(t *testing.T) {
	data := rankingTable(100)
	m := NewFeedRankingModel(42)
	if err := m.Train(data); err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	imp, err := m.FeatureImportance()
	if err != nil {
		t.Fatalf("FeatureImportance failed: %v", err)
	}
	if len(imp) != len(feedColumns) {
		t.Fatalf("importance count = %d, want %d", len(imp), len(feedColumns))
	}
	for i := 1; i < len(imp); i++ {
		if imp[i].Importance > imp[i-1].Importance {
			t.Fatalf("importances not sorted descending at %d: %v", i, imp)
		}
	}
}

func TestRankItems_DescendingAndStable(t *testing.T) {
	data := rankingTable(100)
	m := NewFeedRankingModel(42)
	if err := m.Train(data); err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	userContext := core.Row{
		"user_age":                30.0,
		"user_region_encoded":     1.0,
		"user_device_encoded":     0.0,
		"user_persona_id":         7.0,
		"user_engagement_score":   0.6,
		"user_satisfaction_score": 0.8,
		"hour_of_day":             21.0,
		"day_of_week":             4.0,
		"user_interest_score":     0.3,
		"content_diversity_score": 0.5,
	}
	item := func(id string, engagement float64) core.Row {
		return core.Row{
			"item_id":                  id,
			"content_type_encoded":     1.0,
			"content_topic_encoded":    2.0,
			"content_length":           150.0,
			"content_age_hours":        3.0,
			"content_engagement_score": engagement,
			"predicted_ctr":            engagement,
			"predicted_engagement":     engagement * 2,
			"content_quality_score":    1.5,
		}
	}

	// 两个完全相同的候选（tie）夹一个更强的候选
	items := []core.Row{
		item("first_tie", 0.2),
		item("stronger", 0.9),
		item("second_tie", 0.2),
	}
	ranked, err := m.RankItems(items, userContext)
	if err != nil {
		t.Fatalf("RankItems failed: %v", err)
	}

	for i := 1; i < len(ranked); i++ {
		prev := ranked[i-1]["ranking_score"].(float64)
		cur := ranked[i]["ranking_score"].(float64)
		if cur > prev {
			t.Fatalf("items not sorted descending: %v then %v", prev, cur)
		}
	}
	// 同分候选保持输入相对顺序
	tieOrder := []string{}
	for _, r := range ranked {
		id := r["item_id"].(string)
		if id == "first_tie" || id == "second_tie" {
			tieOrder = append(tieOrder, id)
		}
	}
	if !reflect.DeepEqual(tieOrder, []string{"first_tie", "second_tie"}) {
		t.Errorf("tied items reordered: %v", tieOrder)
	}
}

func removeColumns(columns []string, drop ...string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		skip := false
		for _, d := range drop {
			if c == d {
				skip = true
			}
		}
		if !skip {
			out = append(out, c)
		}
	}
	return out
}
