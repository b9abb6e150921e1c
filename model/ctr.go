package model

import (
	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/eval"
)

// ctrColumns 是 CTR 模型的特征列契约，顺序即特征矩阵的列序。
var ctrColumns = []string{
	"user_age",
	"user_region_encoded",
	"user_device_encoded",
	"user_persona_id",
	"content_type_encoded",
	"feed_position",
	"hour_of_day",
	"day_of_week",
	"user_engagement_score",
	"content_engagement_score",
}

// CTRModel 预测点击概率。估计器为梯度提升分类树，
// 输出范围 (0, 1)，可直接作为 CTR 使用。
type CTRModel struct {
	base
}

// NewCTRModel 创建未训练的 CTR 模型。
func NewCTRModel(seed int64) *CTRModel {
	return &CTRModel{base: base{
		name:         "ctr",
		columns:      append([]string(nil), ctrColumns...),
		target:       "click",
		estimator:    NewGBTClassifier(seed),
		newEstimator: func() core.Estimator { return &GBTClassifier{} },
	}}
}

// Train 在带 click 标签的特征表上训练，并记录训练集 AUC。
func (m *CTRModel) Train(data *core.Table) error {
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
	auc, err := eval.ROCAUC(y, pred)
	if err == nil {
		m.trainMetrics = map[string]float64{"roc_auc": auc}
	}
	return nil
}

// Predict 返回每行的点击概率。
func (m *CTRModel) Predict(data *core.Table) ([]float64, error) {
	return m.predict(data)
}

// Evaluate 计算 roc_auc 与 log_loss，不改变模型状态。
func (m *CTRModel) Evaluate(data *core.Table) (map[string]float64, error) {
	pred, err := m.predict(data)
	if err != nil {
		return nil, err
	}
	y, err := data.FloatColumn(m.target)
	if err != nil {
		return nil, err
	}
	auc, err := eval.ROCAUC(y, pred)
	if err != nil {
		return nil, err
	}
	loss, err := eval.LogLoss(y, pred)
	if err != nil {
		return nil, err
	}
	return map[string]float64{"roc_auc": auc, "log_loss": loss}, nil
}
