package core

// Estimator 是监督学习估计器的最小抽象：拟合特征矩阵，输出每行一个预测值。
// 具体实现可以是本地模型（梯度提升树、随机森林）或远程推理服务。
//
// 设计原则：
//   - 定义在领域层（core），由 model 包实现
//   - X 为 [样本][特征] 形式的数值矩阵，行与 y 一一对应
//   - Fit 之前调用 Predict 属于前置条件违反，返回 MODEL_NOT_TRAINED
type Estimator interface {
	// Name 返回估计器名称（用于日志/持久化）
	Name() string

	// Fit 拟合训练数据
	Fit(X [][]float64, y []float64) error

	// Predict 返回每行一个预测值（回归分数或正类概率）
	Predict(X [][]float64) ([]float64, error)

	// FeatureImportances 返回与训练特征一一对应的重要度（归一化到和为 1）。
	// 未训练时返回 nil。
	FeatureImportances() []float64
}

// Classifier 是二分类估计器：在 Estimator 之上补充概率输出。
// Predict 返回正类概率（与 PredictProba 一致），便于直接作为 CTR 使用。
type Classifier interface {
	Estimator

	// PredictProba 返回每行正类概率，范围 (0, 1)
	PredictProba(X [][]float64) ([]float64, error)
}
