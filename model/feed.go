package model

import (
	"sort"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/eval"
)

// feedColumns 是信息流排序模型的特征列契约。
// 在内容互动特征之上叠加上游模型输出（predicted_ctr / predicted_engagement）
// 与三个衍生分数。
var feedColumns = []string{
	"user_age",
	"user_region_encoded",
	"user_device_encoded",
	"user_persona_id",
	"content_type_encoded",
	"content_topic_encoded",
	"content_length",
	"content_age_hours",
	"user_engagement_score",
	"content_engagement_score",
	"user_satisfaction_score",
	"hour_of_day",
	"day_of_week",
	"predicted_ctr",
	"predicted_engagement",
	"content_quality_score",
	"user_interest_score",
	"content_diversity_score",
}

// FeedRankingModel 预测信息流排序分数（ranking_score 回归），
// 估计器为梯度提升回归树。RankItems 是在线排序入口。
type FeedRankingModel struct {
	base
}

// NewFeedRankingModel 创建未训练的排序模型。
func NewFeedRankingModel(seed int64) *FeedRankingModel {
	return &FeedRankingModel{base: base{
		name:         "feed_ranking",
		columns:      append([]string(nil), feedColumns...),
		target:       "ranking_score",
		estimator:    NewGBTRegressor(seed),
		newEstimator: func() core.Estimator { return &GBTRegressor{} },
	}}
}

// Train 在带 ranking_score 标签的特征表上训练，并记录训练集 MSE。
func (m *FeedRankingModel) Train(data *core.Table) error {
	if err := m.train(data); err != nil {
		return err
	}
	pred, err := m.predict(data)
	if err != nil {
		return err
	}
	y, err := data.FloatColumn(m.target)
	if err != nil {
		return err
	}
	mse, err := eval.MSE(y, pred)
	if err == nil {
		m.trainMetrics = map[string]float64{"mse": mse}
	}
	return nil
}

// Predict 返回每行的排序分数。
func (m *FeedRankingModel) Predict(data *core.Table) ([]float64, error) {
	return m.predict(data)
}

// Evaluate 计算 mse / rmse / mae / r2 / ndcg，不改变模型状态。
func (m *FeedRankingModel) Evaluate(data *core.Table) (map[string]float64, error) {
	pred, err := m.predict(data)
	if err != nil {
		return nil, err
	}
	y, err := data.FloatColumn(m.target)
	if err != nil {
		return nil, err
	}
	return eval.Ranking(y, pred)
}

// RankItems 为同一个用户上下文对一批候选内容排序：
// 每个候选与用户上下文合并成一行（候选字段覆盖同名上下文字段），
// 打分后把 ranking_score 写回候选，按分数降序返回。
// 同分保持输入相对顺序（稳定排序）。
func (m *FeedRankingModel) RankItems(items []core.Row, userContext core.Row) ([]core.Row, error) {
	if len(items) == 0 {
		return items, nil
	}

	table := core.NewTable(m.columns...)
	for _, item := range items {
		row := make(core.Row, len(userContext)+len(item))
		for k, v := range userContext {
			row[k] = v
		}
		for k, v := range item {
			row[k] = v
		}
		table.Append(row)
	}

	scores, err := m.predict(table)
	if err != nil {
		return nil, err
	}

	ranked := make([]core.Row, len(items))
	for i, item := range items {
		item["ranking_score"] = scores[i]
		ranked[i] = item
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, _ := ranked[i]["ranking_score"].(float64)
		b, _ := ranked[j]["ranking_score"].(float64)
		return a > b
	})
	return ranked, nil
}
