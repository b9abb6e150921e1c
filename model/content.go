package model

import (
	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/eval"
)

// contentColumns 是内容互动模型的特征列契约。
var contentColumns = []string{
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
}

// ContentInteractionModel 预测用户与内容的互动强度（engagement_score 回归）。
// 估计器为随机森林。
type ContentInteractionModel struct {
	base
}

// NewContentInteractionModel 创建未训练的内容互动模型。
func NewContentInteractionModel(seed int64) *ContentInteractionModel {
	return &ContentInteractionModel{base: base{
		name:         "content_interaction",
		columns:      append([]string(nil), contentColumns...),
		target:       "engagement_score",
		estimator:    NewForestRegressor(seed),
		newEstimator: func() core.Estimator { return &ForestRegressor{} },
	}}
}

// Train 在带 engagement_score 标签的特征表上训练，并记录训练集 MSE。
func (m *ContentInteractionModel) Train(data *core.Table) error {
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

// Predict 返回每行的互动强度分数。
func (m *ContentInteractionModel) Predict(data *core.Table) ([]float64, error) {
	return m.predict(data)
}

// Evaluate 计算 mse / rmse / mae / r2，不改变模型状态。
func (m *ContentInteractionModel) Evaluate(data *core.Table) (map[string]float64, error) {
	pred, err := m.predict(data)
	if err != nil {
		return nil, err
	}
	y, err := data.FloatColumn(m.target)
	if err != nil {
		return nil, err
	}
	return eval.Regression(y, pred)
}
