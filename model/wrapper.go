package model

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/feature"
)

// base 是三个业务模型共用的封装骨架：
// 持有一个估计器和一个标准化器，强制固定的特征列契约，
// 提供 Train / Predict / 持久化与特征重要度。
//
// 状态机只有 "未训练 → 已训练/已加载 → (Predict/Evaluate)*"。
// 不支持并发：调用方需要自行串行化 Train/Load 与 Predict/Evaluate。
type base struct {
	name    string
	columns []string
	target  string

	estimator    core.Estimator
	scaler       *feature.StandardScaler
	trained      bool
	trainMetrics map[string]float64

	// newEstimator 在 Load 时构造同类型的空估计器用于反序列化
	newEstimator func() core.Estimator
}

// Columns 返回声明的特征列（契约列表，只读）。
func (b *base) Columns() []string {
	return append([]string(nil), b.columns...)
}

// Trained 返回模型是否可用于预测。
func (b *base) Trained() bool {
	return b.trained
}

// TrainMetrics 返回最近一次 Train 在训练集上记录的指标。
func (b *base) TrainMetrics() map[string]float64 {
	return b.trainMetrics
}

// train 校验列契约，fit 标准化器与估计器。
// 缺列错误精确列出缺失的列名。
func (b *base) train(data *core.Table) error {
	if missing := data.MissingColumns(b.columns); len(missing) > 0 {
		return core.NewMissingFeaturesError(core.ModuleModel, missing)
	}
	X, err := data.Matrix(b.columns)
	if err != nil {
		return err
	}
	y, err := data.FloatColumn(b.target)
	if err != nil {
		return err
	}

	scaler := feature.NewStandardScaler()
	scaled, err := scaler.FitTransform(X)
	if err != nil {
		return err
	}
	if err := b.estimator.Fit(scaled, y); err != nil {
		return err
	}

	b.scaler = scaler
	b.trained = true
	return nil
}

// predict 校验列契约并应用已 fit 的标准化器与估计器。
// 标准化器只 transform，绝不在预测路径上重新 fit。
func (b *base) predict(data *core.Table) ([]float64, error) {
	if !b.trained {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"model "+b.name+" is not trained; call Train or Load first")
	}
	if missing := data.MissingColumns(b.columns); len(missing) > 0 {
		return nil, core.NewMissingFeaturesError(core.ModuleModel, missing)
	}
	X, err := data.Matrix(b.columns)
	if err != nil {
		return nil, err
	}
	scaled, err := b.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return b.estimator.Predict(scaled)
}

// bundle 是持久化格式：估计器、标准化器与特征列一体保存。
type bundle struct {
	Name           string                  `json:"name"`
	Estimator      json.RawMessage         `json:"estimator"`
	Scaler         *feature.StandardScaler `json:"scaler"`
	FeatureColumns []string                `json:"feature_columns"`
}

// Export 导出模型 bundle 为 JSON blob。
func (b *base) Export() ([]byte, error) {
	if !b.trained {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"cannot save an untrained model")
	}
	est, err := json.Marshal(b.estimator)
	if err != nil {
		return nil, persistenceError("encode estimator: " + err.Error())
	}
	data, err := json.Marshal(bundle{
		Name:           b.name,
		Estimator:      est,
		Scaler:         b.scaler,
		FeatureColumns: b.columns,
	})
	if err != nil {
		return nil, persistenceError("encode model bundle: " + err.Error())
	}
	return data, nil
}

// Import 从 JSON blob 恢复模型。全量解码成功后才替换内存状态：
// 任一部分解码失败都不触碰现有的估计器/标准化器/列契约。
func (b *base) Import(data []byte) error {
	var staged bundle
	if err := json.Unmarshal(data, &staged); err != nil {
		return persistenceError("decode model bundle: " + err.Error())
	}
	if staged.Scaler == nil || !staged.Scaler.Fitted() || len(staged.FeatureColumns) == 0 {
		return persistenceError("model bundle is missing scaler or feature columns")
	}
	estimator := b.newEstimator()
	if err := json.Unmarshal(staged.Estimator, estimator); err != nil {
		return persistenceError("decode estimator: " + err.Error())
	}

	b.estimator = estimator
	b.scaler = staged.Scaler
	b.columns = staged.FeatureColumns
	b.trained = true
	return nil
}

// Save 把模型 bundle 写入文件。
func (b *base) Save(path string) error {
	data, err := b.Export()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return persistenceError("write model bundle: " + err.Error())
	}
	return nil
}

// Load 从文件恢复模型 bundle。
func (b *base) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return persistenceError("read model bundle: " + err.Error())
	}
	return b.Import(data)
}

// Importance 是单个特征的重要度。
type Importance struct {
	Column     string  `json:"column"`
	Importance float64 `json:"importance"`
}

// FeatureImportance 返回 (列名, 重要度) 对，按重要度降序（稳定排序）。
func (b *base) FeatureImportance() ([]Importance, error) {
	if !b.trained {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"model "+b.name+" is not trained")
	}
	values := b.estimator.FeatureImportances()
	out := make([]Importance, len(b.columns))
	for i, col := range b.columns {
		imp := 0.0
		if i < len(values) {
			imp = values[i]
		}
		out[i] = Importance{Column: col, Importance: imp}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	return out, nil
}

func persistenceError(msg string) *core.DomainError {
	return &core.DomainError{
		Module:  core.ModuleModel,
		Code:    core.ErrorCodePersistence,
		Message: msg,
	}
}
