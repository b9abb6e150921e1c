package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/feedworks/feedkit/core"
)

// stepData 构造一个单特征阶跃函数数据集：x < 0.5 时 y=lo，否则 y=hi。
func stepData(n int, lo, hi float64) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		X[i] = []float64{x}
		if x < 0.5 {
			y[i] = lo
		} else {
			y[i] = hi
		}
	}
	return X, y
}

func TestTreeRegressor_LearnsStepFunction(t *testing.T) {
	X, y := stepData(100, 1.0, 5.0)
	tree := NewTreeRegressor(3, 1)
	if err := tree.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := tree.Predict([][]float64{{0.1}, {0.9}})
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if math.Abs(pred[0]-1.0) > 1e-9 || math.Abs(pred[1]-5.0) > 1e-9 {
		t.Errorf("predictions = %v, want [1, 5]", pred)
	}
}

func TestTreeRegressor_PredictBeforeFit(t *testing.T) {
	tree := NewTreeRegressor(3, 1)
	if _, err := tree.Predict([][]float64{{1}}); !core.IsModelNotTrained(err) {
		t.Errorf("expected MODEL_NOT_TRAINED, got %v", err)
	}
}

func TestGBTRegressor_ReducesTrainingError(t *testing.T) {
	// y = 2x + 1 上的回归：提升后误差应远小于常数基线
	n := 80
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		X[i] = []float64{x}
		y[i] = 2*x + 1
	}

	m := NewGBTRegressor(7)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	pred, err := m.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	baseline, boosted := 0.0, 0.0
	for i := range y {
		d := y[i] - m.Init
		baseline += d * d
		d = y[i] - pred[i]
		boosted += d * d
	}
	if boosted >= baseline/10 {
		t.Errorf("boosted SSE %v did not improve over baseline %v", boosted, baseline)
	}
}

func TestGBTClassifier_SeparatesClasses(t *testing.T) {
	X, y := stepData(100, 0, 1)
	m := NewGBTClassifier(7)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	probs, err := m.PredictProba([][]float64{{0.1}, {0.9}})
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	for _, p := range probs {
		if p <= 0 || p >= 1 {
			t.Fatalf("probability %v out of (0, 1)", p)
		}
	}
	if probs[0] >= 0.5 || probs[1] <= 0.5 {
		t.Errorf("probs = %v, want p(0.1) < 0.5 < p(0.9)", probs)
	}
}

func TestGBTClassifier_RejectsNonBinaryTargets(t *testing.T) {
	m := NewGBTClassifier(1)
	err := m.Fit([][]float64{{1}, {2}}, []float64{0, 0.5})
	if !core.IsInvalidArgument(err) {
		t.Errorf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestForestRegressor_Deterministic(t *testing.T) {
	X, y := stepData(60, 1, 3)

	a := NewForestRegressor(42)
	b := NewForestRegressor(42)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	predA, _ := a.Predict(X)
	predB, _ := b.Predict(X)
	for i := range predA {
		if predA[i] != predB[i] {
			t.Fatalf("same seed produced different predictions at row %d: %v vs %v", i, predA[i], predB[i])
		}
	}
}

func TestFeatureImportances_NormalizedAndAligned(t *testing.T) {
	// 第二列与目标强相关，第一列是常数噪声
	n := 60
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)
		X[i] = []float64{1.0, x}
		if x < 0.5 {
			y[i] = 0
		} else {
			y[i] = 10
		}
	}

	m := NewGBTRegressor(3)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	imp := m.FeatureImportances()
	if len(imp) != 2 {
		t.Fatalf("importances length = %d, want 2", len(imp))
	}
	sum := imp[0] + imp[1]
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("importances sum = %v, want 1", sum)
	}
	if imp[1] <= imp[0] {
		t.Errorf("informative feature should dominate: %v", imp)
	}
}

func TestEstimators_JSONRoundTrip(t *testing.T) {
	X, y := stepData(50, 0, 1)

	tests := []struct {
		name    string
		fit     core.Estimator
		restore func() core.Estimator
	}{
		{"gbt_regressor", NewGBTRegressor(1), func() core.Estimator { return &GBTRegressor{} }},
		{"gbt_classifier", NewGBTClassifier(1), func() core.Estimator { return &GBTClassifier{} }},
		{"forest", NewForestRegressor(1), func() core.Estimator { return &ForestRegressor{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fit.Fit(X, y); err != nil {
				t.Fatalf("Fit failed: %v", err)
			}
			blob, err := json.Marshal(tt.fit)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			restored := tt.restore()
			if err := json.Unmarshal(blob, restored); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			want, _ := tt.fit.Predict(X)
			got, err := restored.Predict(X)
			if err != nil {
				t.Fatalf("restored Predict failed: %v", err)
			}
			for i := range want {
				if want[i] != got[i] {
					t.Fatalf("row %d: restored prediction %v != original %v", i, got[i], want[i])
				}
			}
		})
	}
}
