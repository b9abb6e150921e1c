// Package eval 提供离线评估指标：回归（MSE/RMSE/MAE/R²）、
// 二分类（precision/recall/F1/ROC-AUC/log loss）与排序（NDCG）。
// 全部为纯函数，不持有状态。
package eval

import (
	"math"
	"sort"

	"github.com/feedworks/feedkit/core"
)

const module = "eval"

// MSE 计算均方误差。
func MSE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return sum / float64(len(yTrue)), nil
}

// RMSE 计算均方根误差。
func RMSE(yTrue, yPred []float64) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE 计算平均绝对误差。
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	sum := 0.0
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue)), nil
}

// R2 计算决定系数 R²。真实值为常数（总平方和为 0）时定义为 0。
func R2(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	m := 0.0
	for _, v := range yTrue {
		m += v
	}
	m /= float64(len(yTrue))

	ssRes, ssTot := 0.0, 0.0
	for i := range yTrue {
		r := yTrue[i] - yPred[i]
		t := yTrue[i] - m
		ssRes += r * r
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// Precision 计算二分类精确率。yPred 为概率，threshold 为判正阈值。
// 无正预测时定义为 0。
func Precision(yTrue, yPred []float64, threshold float64) (float64, error) {
	tp, fp, _, err := confusion(yTrue, yPred, threshold)
	if err != nil {
		return 0, err
	}
	if tp+fp == 0 {
		return 0, nil
	}
	return float64(tp) / float64(tp+fp), nil
}

// Recall 计算二分类召回率。无正样本时定义为 0。
func Recall(yTrue, yPred []float64, threshold float64) (float64, error) {
	tp, _, fn, err := confusion(yTrue, yPred, threshold)
	if err != nil {
		return 0, err
	}
	if tp+fn == 0 {
		return 0, nil
	}
	return float64(tp) / float64(tp+fn), nil
}

// F1 计算精确率与召回率的调和平均。
func F1(yTrue, yPred []float64, threshold float64) (float64, error) {
	p, err := Precision(yTrue, yPred, threshold)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred, threshold)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}

// ROCAUC 按秩统计量（Mann–Whitney U）计算 AUC，并列分数取平均秩。
// 只有单一类别时 AUC 无定义，返回 INVALID_ARGUMENT。
func ROCAUC(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return yPred[order[a]] < yPred[order[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yPred[order[j]] == yPred[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // 1-based 平均秩
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	pos, rankSum := 0, 0.0
	for i, label := range yTrue {
		if label == 1 {
			pos++
			rankSum += ranks[i]
		}
	}
	neg := n - pos
	if pos == 0 || neg == 0 {
		return 0, core.NewDomainError(module, core.ErrorCodeInvalidArgument,
			"roc auc is undefined with a single class")
	}
	u := rankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg)), nil
}

// LogLoss 计算交叉熵损失，概率裁剪到 [eps, 1-eps] 避免 log(0)。
func LogLoss(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	const eps = 1e-15
	sum := 0.0
	for i := range yTrue {
		p := math.Min(math.Max(yPred[i], eps), 1-eps)
		sum += yTrue[i]*math.Log(p) + (1-yTrue[i])*math.Log(1-p)
	}
	return -sum / float64(len(yTrue)), nil
}

// NDCG 计算归一化折损累积增益：按预测分数降序排列真实相关度，
// 线性增益 + log2 折损，除以理想排序的 DCG。理想 DCG 为 0 时定义为 0。
func NDCG(yTrue, yPred []float64) (float64, error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, err
	}
	n := len(yTrue)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return yPred[order[a]] > yPred[order[b]] })

	dcg := 0.0
	for rank, i := range order {
		dcg += yTrue[i] / math.Log2(float64(rank)+2)
	}

	ideal := append([]float64(nil), yTrue...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	idcg := 0.0
	for rank, rel := range ideal {
		idcg += rel / math.Log2(float64(rank)+2)
	}
	if idcg == 0 {
		return 0, nil
	}
	return dcg / idcg, nil
}

func confusion(yTrue, yPred []float64, threshold float64) (tp, fp, fn int, err error) {
	if err := checkLengths(yTrue, yPred); err != nil {
		return 0, 0, 0, err
	}
	for i := range yTrue {
		predicted := yPred[i] >= threshold
		actual := yTrue[i] == 1
		switch {
		case predicted && actual:
			tp++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		}
	}
	return tp, fp, fn, nil
}

func checkLengths(yTrue, yPred []float64) error {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return core.NewDomainError(module, core.ErrorCodeInvalidArgument,
			"metric inputs are empty or length-mismatched")
	}
	return nil
}
