package eval

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Regression 一次性计算回归任务的常用指标。
func Regression(yTrue, yPred []float64) (map[string]float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	r2, err := R2(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		"mse":  mse,
		"rmse": math.Sqrt(mse),
		"mae":  mae,
		"r2":   r2,
	}, nil
}

// Classification 一次性计算二分类任务的常用指标，yPred 为正类概率。
func Classification(yTrue, yPred []float64) (map[string]float64, error) {
	const threshold = 0.5
	precision, err := Precision(yTrue, yPred, threshold)
	if err != nil {
		return nil, err
	}
	recall, err := Recall(yTrue, yPred, threshold)
	if err != nil {
		return nil, err
	}
	f1, err := F1(yTrue, yPred, threshold)
	if err != nil {
		return nil, err
	}
	auc, err := ROCAUC(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	loss, err := LogLoss(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	return map[string]float64{
		"precision": precision,
		"recall":    recall,
		"f1":        f1,
		"roc_auc":   auc,
		"log_loss":  loss,
	}, nil
}

// Ranking 一次性计算排序任务的常用指标。
func Ranking(yTrue, yPred []float64) (map[string]float64, error) {
	metrics, err := Regression(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	ndcg, err := NDCG(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	metrics["ndcg"] = ndcg
	return metrics, nil
}

// Report 把指标 map 渲染为按 key 排序的多行文本，便于日志输出。
func Report(name string, metrics map[string]float64) string {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", name)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %-10s %.6f\n", k, metrics[k])
	}
	return b.String()
}
