package feature

import (
	"sort"

	"github.com/feedworks/feedkit/core"
	"github.com/feedworks/feedkit/pkg/conv"
)

// Preprocessor 在特征工程之前做基础清洗：缺失值填充、IQR 离群剔除、
// 时间列补充，以及按时间顺序的训练/测试切分。
type Preprocessor struct {
	// TestSize 是测试集占比，默认 0.2
	TestSize float64
}

// NewPreprocessor 创建预处理器。
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{TestSize: 0.2}
}

// Preprocess 执行缺失值填充、离群剔除与时间列补充，返回清洗后的新表。
func (p *Preprocessor) Preprocess(table *core.Table) (*core.Table, error) {
	out := &core.Table{Columns: append([]string(nil), table.Columns...), Rows: table.Rows}
	p.fillMissing(out)
	out = p.trimOutliers(out)
	if err := p.addTimeColumns(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Split 按 timestamp 升序做时间切分：前 (1-TestSize) 为训练集，其余为测试集。
// 不做随机打散，保持与线上时间序一致。
func (p *Preprocessor) Split(table *core.Table) (train, test *core.Table, err error) {
	testSize := p.TestSize
	if testSize <= 0 || testSize >= 1 {
		testSize = 0.2
	}

	type stamped struct {
		row core.Row
		at  int64
	}
	rows := make([]stamped, 0, table.Len())
	for _, row := range table.Rows {
		ts, err := parseTimestamp(row["timestamp"])
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, stamped{row: row, at: ts.UnixNano()})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at < rows[j].at })

	splitIdx := int(float64(len(rows)) * (1 - testSize))
	train = core.NewTable(table.Columns...)
	test = core.NewTable(table.Columns...)
	for i, r := range rows {
		if i < splitIdx {
			train.Append(r.row)
		} else {
			test.Append(r.row)
		}
	}
	return train, test, nil
}

// fillMissing 对数值列用中位数填充缺失值（nil 或缺 key）。
// 类别列不在此处理：空类别由 Engineer 显式拒绝。
func (p *Preprocessor) fillMissing(table *core.Table) {
	for _, col := range table.Columns {
		values := make([]float64, 0, table.Len())
		numeric := false
		for _, row := range table.Rows {
			if v, ok := conv.ToFloat64(row[col]); ok {
				values = append(values, v)
				numeric = true
			}
		}
		if !numeric || len(values) == len(table.Rows) {
			continue
		}
		// 只有在该列整体呈数值时才填充，字符串列跳过
		if !columnIsNumeric(table, col, len(values)) {
			continue
		}
		med := median(values)
		for _, row := range table.Rows {
			if _, ok := conv.ToFloat64(row[col]); !ok {
				row[col] = med
			}
		}
	}
}

// trimOutliers 用 IQR 规则剔除数值列上的离群行：
// 保留 [Q1 - 1.5*IQR, Q3 + 1.5*IQR] 区间内的行。
func (p *Preprocessor) trimOutliers(table *core.Table) *core.Table {
	keep := make([]bool, table.Len())
	for i := range keep {
		keep[i] = true
	}

	for _, col := range table.Columns {
		values := make([]float64, 0, table.Len())
		for _, row := range table.Rows {
			if v, ok := conv.ToFloat64(row[col]); ok {
				values = append(values, v)
			}
		}
		if len(values) != table.Len() {
			continue // 非纯数值列跳过
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		q1 := percentile(sorted, 0.25)
		q3 := percentile(sorted, 0.75)
		iqr := q3 - q1
		lo := q1 - 1.5*iqr
		hi := q3 + 1.5*iqr
		for i, v := range values {
			if v < lo || v > hi {
				keep[i] = false
			}
		}
	}

	out := core.NewTable(table.Columns...)
	for i, row := range table.Rows {
		if keep[i] {
			out.Append(row)
		}
	}
	return out
}

// addTimeColumns 从 timestamp 补充时间列（hour/day/month/year/dayofweek/is_weekend）。
func (p *Preprocessor) addTimeColumns(table *core.Table) error {
	if !table.HasColumn("timestamp") {
		return nil
	}
	for _, row := range table.Rows {
		ts, err := parseTimestamp(row["timestamp"])
		if err != nil {
			return err
		}
		dow := (int(ts.Weekday()) + 6) % 7
		row["hour"] = ts.Hour()
		row["day"] = ts.Day()
		row["month"] = int(ts.Month())
		row["year"] = ts.Year()
		row["dayofweek"] = dow
		if dow >= 5 {
			row["is_weekend"] = 1
		} else {
			row["is_weekend"] = 0
		}
	}
	for _, c := range []string{"hour", "day", "month", "year", "dayofweek", "is_weekend"} {
		table.AddColumn(c)
	}
	return nil
}

func columnIsNumeric(table *core.Table, col string, numericCount int) bool {
	nonNil := 0
	for _, row := range table.Rows {
		if v, ok := row[col]; ok && v != nil {
			nonNil++
		}
	}
	return numericCount == nonNil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return percentile(sorted, 0.5)
}

// percentile 计算已排序切片的分位数（线性插值）。
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
