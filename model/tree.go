// Package model 在仓库内实现估计器（决策树、梯度提升树、随机森林）
// 以及三个业务模型封装（CTR、内容互动、信息流排序）。
//
// 估计器全部实现 core.Estimator / core.Classifier 接口，状态可通过
// encoding/json 序列化，随模型 bundle 一起持久化。
package model

import (
	"math"
	"math/rand"
	"sort"

	"github.com/feedworks/feedkit/core"
)

// treeNode 是回归树的节点。叶子节点只有 Value 有意义。
type treeNode struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// leafFor 沿分裂路径下行，返回样本落入的叶子。
func (n *treeNode) leafFor(x []float64) *treeNode {
	node := n
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// TreeRegressor 是 CART 回归树：以方差缩减（SSE 增益）选择分裂点。
//
// 作为梯度提升与随机森林的基学习器使用：
//   - MaxDepth / MinSamplesSplit 控制树的复杂度
//   - MaxFeatures > 0 时每次分裂只考察随机抽取的特征子集（森林用）
//   - Gains 累计每个特征的分裂增益，是特征重要度的原始数据
type TreeRegressor struct {
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MaxFeatures     int       `json:"max_features"` // 0 表示全部特征
	Root            *treeNode `json:"root"`
	Gains           []float64 `json:"gains"`

	rng *rand.Rand
}

// NewTreeRegressor 创建未训练的回归树。
func NewTreeRegressor(maxDepth int, seed int64) *TreeRegressor {
	return &TreeRegressor{
		MaxDepth:        maxDepth,
		MinSamplesSplit: 2,
		rng:             rand.New(rand.NewSource(seed)),
	}
}

func (t *TreeRegressor) Name() string { return "tree" }

// Fit 构建回归树。X 为 [样本][特征] 矩阵，y 与行一一对应。
func (t *TreeRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidArgument,
			"training matrix is empty or does not match targets")
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	t.Gains = make([]float64, len(X[0]))
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	t.Root = t.build(X, y, idx, 0)
	return nil
}

// Predict 返回每行的叶子均值。
func (t *TreeRegressor) Predict(X [][]float64) ([]float64, error) {
	if t.Root == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeModelNotTrained,
			"tree is not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = t.Root.leafFor(x).Value
	}
	return out, nil
}

// FeatureImportances 返回按分裂增益归一化的特征重要度，未训练时为 nil。
func (t *TreeRegressor) FeatureImportances() []float64 {
	return normalizeImportances(t.Gains)
}

// build 递归构建子树。idx 是当前节点包含的样本下标。
func (t *TreeRegressor) build(X [][]float64, y []float64, idx []int, depth int) *treeNode {
	mean := subsetMean(y, idx)
	if depth >= t.MaxDepth || len(idx) < t.MinSamplesSplit {
		return &treeNode{Leaf: true, Value: mean}
	}

	feature, threshold, gain := t.bestSplit(X, y, idx)
	if gain <= 0 {
		return &treeNode{Leaf: true, Value: mean}
	}
	t.Gains[feature] += gain

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      t.build(X, y, left, depth+1),
		Right:     t.build(X, y, right, depth+1),
	}
}

// bestSplit 在候选特征上穷举分裂点，返回 SSE 增益最大的 (特征, 阈值, 增益)。
// 阈值取排序后相邻取值的中点。无有效分裂时增益为 0。
func (t *TreeRegressor) bestSplit(X [][]float64, y []float64, idx []int) (int, float64, float64) {
	features := t.candidateFeatures(len(X[0]))

	total := subsetSSE(y, idx)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	type pair struct{ x, y float64 }
	pairs := make([]pair, len(idx))

	for _, f := range features {
		for i, sample := range idx {
			pairs[i] = pair{x: X[sample][f], y: y[sample]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].x < pairs[j].x })

		// 前缀累计量支持 O(1) 求左右子集的 SSE
		n := float64(len(pairs))
		sum, sumSq := 0.0, 0.0
		for _, p := range pairs {
			sum += p.y
			sumSq += p.y * p.y
		}
		leftSum, leftSq := 0.0, 0.0
		for i := 0; i < len(pairs)-1; i++ {
			leftSum += pairs[i].y
			leftSq += pairs[i].y * pairs[i].y
			if pairs[i].x == pairs[i+1].x {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			leftSSE := leftSq - leftSum*leftSum/nl
			rightSum := sum - leftSum
			rightSSE := (sumSq - leftSq) - rightSum*rightSum/nr
			gain := total - leftSSE - rightSSE
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (pairs[i].x + pairs[i+1].x) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures 返回本次分裂考察的特征集。
// MaxFeatures > 0 时做无放回随机抽样（随机森林的列抽样）。
func (t *TreeRegressor) candidateFeatures(total int) []int {
	all := make([]int, total)
	for i := range all {
		all[i] = i
	}
	if t.MaxFeatures <= 0 || t.MaxFeatures >= total || t.rng == nil {
		return all
	}
	t.rng.Shuffle(total, func(i, j int) { all[i], all[j] = all[j], all[i] })
	picked := all[:t.MaxFeatures]
	return picked
}

// 以下是小工具函数，梯度提升与森林也会用到。

func subsetMean(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}

func subsetSSE(y []float64, idx []int) float64 {
	mean := subsetMean(y, idx)
	sse := 0.0
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return sse
}

func normalizeImportances(gains []float64) []float64 {
	if gains == nil {
		return nil
	}
	total := 0.0
	for _, g := range gains {
		total += g
	}
	out := make([]float64, len(gains))
	if total == 0 {
		return out
	}
	for i, g := range gains {
		out[i] = g / total
	}
	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
