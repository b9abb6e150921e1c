package feature

import (
	"math"

	"github.com/feedworks/feedkit/core"
)

// StandardScaler 是特征标准化器（Standardization）。
// 公式: z = (x - μ) / σ，按列计算；σ 为 0 的常量列只做中心化（x - μ），不做除法。
//
// fit 状态（均值/标准差）随模型 bundle 一起持久化：
// 训练阶段 FitTransform，推理阶段只 Transform，绝不重新 fit。
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// NewStandardScaler 创建未 fit 的标准化器。
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fitted 返回是否已 fit。
func (s *StandardScaler) Fitted() bool {
	return s != nil && len(s.Mean) > 0
}

// Fit 按列计算均值与总体标准差。
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"cannot fit scaler on an empty matrix")
	}
	cols := len(X[0])
	mean := make([]float64, cols)
	std := make([]float64, cols)

	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}

	s.Mean = mean
	s.Std = std
	return nil
}

// Transform 应用已 fit 的标准化参数，返回新矩阵。
// 未 fit 或列数不符返回 INVALID_ARGUMENT。
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if !s.Fitted() {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"scaler is not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
				"matrix width does not match fitted scaler")
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			if s.Std[j] == 0 {
				scaled[j] = v - s.Mean[j]
				continue
			}
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform 先 fit 再 transform，训练阶段使用。
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
