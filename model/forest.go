package model

import (
	"math"
	"math/rand"

	"github.com/feedworks/feedkit/core"
)

// ForestRegressor 是随机森林回归器：bootstrap 行抽样 + 分裂时列抽样，
// 预测取各树输出的均值。默认配置 n_estimators=100, max_depth=5。
type ForestRegressor struct {
	NEstimators int              `json:"n_estimators"`
	MaxDepth    int              `json:"max_depth"`
	Seed        int64            `json:"seed"`
	Trees       []*TreeRegressor `json:"trees"`
}

// NewForestRegressor 创建默认配置的随机森林。
func NewForestRegressor(seed int64) *ForestRegressor {
	return &ForestRegressor{
		NEstimators: 100,
		MaxDepth:    5,
		Seed:        seed,
	}
}

func (m *ForestRegressor) Name() string { return "forest_regressor" }

// Fit 训练 NEstimators 棵互相独立的树，每棵在 bootstrap 样本上拟合。
func (m *ForestRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArgument,
			"training matrix is empty or does not match targets")
	}

	cols := len(X[0])
	maxFeatures := int(math.Ceil(math.Sqrt(float64(cols))))
	rng := rand.New(rand.NewSource(m.Seed))
	m.Trees = make([]*TreeRegressor, 0, m.NEstimators)

	bootX := make([][]float64, len(X))
	bootY := make([]float64, len(y))
	for round := 0; round < m.NEstimators; round++ {
		for i := range X {
			j := rng.Intn(len(X))
			bootX[i] = X[j]
			bootY[i] = y[j]
		}
		tree := NewTreeRegressor(m.MaxDepth, m.Seed+int64(round))
		tree.MaxFeatures = maxFeatures
		if err := tree.Fit(bootX, bootY); err != nil {
			return err
		}
		m.Trees = append(m.Trees, tree)
	}
	return nil
}

// Predict 返回各树预测的均值。
func (m *ForestRegressor) Predict(X [][]float64) ([]float64, error) {
	if len(m.Trees) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"forest is not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, tree := range m.Trees {
			sum += tree.Root.leafFor(x).Value
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out, nil
}

// FeatureImportances 对各棵树的分裂增益求和后归一化。
func (m *ForestRegressor) FeatureImportances() []float64 {
	return sumTreeImportances(m.Trees)
}
