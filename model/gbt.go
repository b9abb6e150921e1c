package model

import (
	"math"

	"github.com/feedworks/feedkit/core"
)

// GBTRegressor 是梯度提升回归树。
//
// 训练流程：
//  1. 初始预测取目标均值 (Init)
//  2. 每轮对当前残差拟合一棵浅回归树
//  3. 预测值按学习率累加: F_m = F_{m-1} + lr * tree_m(x)
//
// 默认配置 n_estimators=100, learning_rate=0.1, max_depth=3。
type GBTRegressor struct {
	NEstimators  int              `json:"n_estimators"`
	LearningRate float64          `json:"learning_rate"`
	MaxDepth     int              `json:"max_depth"`
	Seed         int64            `json:"seed"`
	Init         float64          `json:"init"`
	Trees        []*TreeRegressor `json:"trees"`
}

// NewGBTRegressor 创建默认配置的梯度提升回归器。
func NewGBTRegressor(seed int64) *GBTRegressor {
	return &GBTRegressor{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
		Seed:         seed,
	}
}

func (m *GBTRegressor) Name() string { return "gbt_regressor" }

// Fit 以残差提升方式训练 NEstimators 棵树。
func (m *GBTRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArgument,
			"training matrix is empty or does not match targets")
	}

	m.Init = mean(y)
	m.Trees = make([]*TreeRegressor, 0, m.NEstimators)

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.Init
	}
	residual := make([]float64, len(y))

	for round := 0; round < m.NEstimators; round++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := NewTreeRegressor(m.MaxDepth, m.Seed+int64(round))
		if err := tree.Fit(X, residual); err != nil {
			return err
		}
		m.Trees = append(m.Trees, tree)
		for i, x := range X {
			pred[i] += m.LearningRate * tree.Root.leafFor(x).Value
		}
	}
	return nil
}

// Predict 返回累加后的回归分数。
func (m *GBTRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"gradient boosting model is not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		score := m.Init
		for _, tree := range m.Trees {
			score += m.LearningRate * tree.Root.leafFor(x).Value
		}
		out[i] = score
	}
	return out, nil
}

// FeatureImportances 对各棵树的分裂增益求和后归一化。
func (m *GBTRegressor) FeatureImportances() []float64 {
	return sumTreeImportances(m.Trees)
}

// GBTClassifier 是二分类的梯度提升树：对 log-odds 做加法提升。
//
// 训练流程：
//  1. 初始 log-odds = log(p / (1-p))，p 为正类占比
//  2. 每轮对伪残差 (y - sigmoid(F)) 拟合树结构
//  3. 叶子值按牛顿步替换: sum(residual) / sum(p*(1-p))
//  4. PredictProba = sigmoid(F)
type GBTClassifier struct {
	NEstimators  int              `json:"n_estimators"`
	LearningRate float64          `json:"learning_rate"`
	MaxDepth     int              `json:"max_depth"`
	Seed         int64            `json:"seed"`
	Init         float64          `json:"init"` // 初始 log-odds
	Trees        []*TreeRegressor `json:"trees"`
}

// NewGBTClassifier 创建默认配置的梯度提升分类器。
func NewGBTClassifier(seed int64) *GBTClassifier {
	return &GBTClassifier{
		NEstimators:  100,
		LearningRate: 0.1,
		MaxDepth:     3,
		Seed:         seed,
	}
}

func (m *GBTClassifier) Name() string { return "gbt_classifier" }

// Fit 训练二分类提升模型。y 的取值约定为 0 或 1。
func (m *GBTClassifier) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArgument,
			"training matrix is empty or does not match targets")
	}
	for _, v := range y {
		if v != 0 && v != 1 {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArgument,
				"classifier targets must be 0 or 1")
		}
	}

	p := mean(y)
	// 单一类别退化为常数模型，避免 log(0)
	p = math.Min(math.Max(p, 1e-6), 1-1e-6)
	m.Init = math.Log(p / (1 - p))
	m.Trees = make([]*TreeRegressor, 0, m.NEstimators)

	logits := make([]float64, len(y))
	for i := range logits {
		logits[i] = m.Init
	}
	residual := make([]float64, len(y))
	hessian := make([]float64, len(y))

	for round := 0; round < m.NEstimators; round++ {
		for i := range y {
			prob := sigmoid(logits[i])
			residual[i] = y[i] - prob
			hessian[i] = prob * (1 - prob)
		}
		tree := NewTreeRegressor(m.MaxDepth, m.Seed+int64(round))
		if err := tree.Fit(X, residual); err != nil {
			return err
		}
		newtonLeaves(tree, X, residual, hessian)
		m.Trees = append(m.Trees, tree)
		for i, x := range X {
			logits[i] += m.LearningRate * tree.Root.leafFor(x).Value
		}
	}
	return nil
}

// Predict 返回正类概率，与 PredictProba 一致。
func (m *GBTClassifier) Predict(X [][]float64) ([]float64, error) {
	return m.PredictProba(X)
}

// PredictProba 返回每行的正类概率。
func (m *GBTClassifier) PredictProba(X [][]float64) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"gradient boosting model is not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		z := m.Init
		for _, tree := range m.Trees {
			z += m.LearningRate * tree.Root.leafFor(x).Value
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}

// FeatureImportances 对各棵树的分裂增益求和后归一化。
func (m *GBTClassifier) FeatureImportances() []float64 {
	return sumTreeImportances(m.Trees)
}

// newtonLeaves 把树的叶子值替换为牛顿步: sum(residual) / sum(hessian)。
// 树结构（分裂点）保持拟合残差时的形状不变。
func newtonLeaves(tree *TreeRegressor, X [][]float64, residual, hessian []float64) {
	num := make(map[*treeNode]float64)
	den := make(map[*treeNode]float64)
	for i, x := range X {
		leaf := tree.Root.leafFor(x)
		num[leaf] += residual[i]
		den[leaf] += hessian[i]
	}
	for leaf, n := range num {
		if d := den[leaf]; d > 0 {
			leaf.Value = n / d
		}
	}
}

func sumTreeImportances(trees []*TreeRegressor) []float64 {
	if len(trees) == 0 {
		return nil
	}
	total := make([]float64, len(trees[0].Gains))
	for _, tree := range trees {
		for i, g := range tree.Gains {
			total[i] += g
		}
	}
	return normalizeImportances(total)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
