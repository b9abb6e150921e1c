package core

import (
	"sort"

	"github.com/feedworks/feedkit/pkg/conv"
)

// Row 是一条记录：列名 -> 值。值可以是数值、字符串类别或 time.Time 时间戳。
type Row = map[string]any

// Table 是共享同一列模式的有序记录集合。
// 列顺序只影响展示，不影响语义；所有按列取值都通过列名完成。
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable 创建一个空表，columns 为展示用的列顺序。
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns, Rows: make([]Row, 0)}
}

// Len 返回行数。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append 追加一行。
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// HasColumn 检查列是否在列模式中声明。
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn 在列模式尾部登记一个新列（已存在则忽略）。
// 列值由调用方逐行写入 Rows。
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// MissingColumns 返回 required 中不在列模式里的列名（升序），全部存在时返回 nil。
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, c := range required {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	sort.Strings(missing)
	return missing
}

// Matrix 按给定列顺序抽取数值矩阵，每行一条记录。
// 缺列返回 MISSING_FEATURES；值无法转为 float64 返回 INVALID_ARGUMENT。
func (t *Table) Matrix(columns []string) ([][]float64, error) {
	if missing := t.MissingColumns(columns); len(missing) > 0 {
		return nil, NewMissingFeaturesError(ModuleFeature, missing)
	}
	out := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		vec := make([]float64, len(columns))
		for j, c := range columns {
			v, ok := conv.ToFloat64(row[c])
			if !ok {
				return nil, NewDomainError(ModuleFeature, ErrorCodeInvalidArgument,
					"column "+c+" has a non-numeric value")
			}
			vec[j] = v
		}
		out[i] = vec
	}
	return out, nil
}

// FloatColumn 抽取单列数值向量。缺列返回 MISSING_FEATURES。
func (t *Table) FloatColumn(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, NewMissingFeaturesError(ModuleFeature, []string{name})
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, ok := conv.ToFloat64(row[name])
		if !ok {
			return nil, NewDomainError(ModuleFeature, ErrorCodeInvalidArgument,
				"column "+name+" has a non-numeric value")
		}
		out[i] = v
	}
	return out, nil
}
