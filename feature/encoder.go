// Package feature 把原始交互记录转换为可供估计器使用的数值特征表：
// 类别编码、衍生分数计算、时间字段抽取，以及编码器状态的持久化。
package feature

import (
	"sort"

	"github.com/feedworks/feedkit/core"
)

// LabelEncoder 是类别编码器：将类别值映射为稠密整数编码（0, 1, 2, ...）。
//
// 编码约定：fit 时对观察到的去重类别按字典序排序，索引即编码。
// 同一份类别集合无论输入顺序如何，编码结果一致，fit 后 Transform/Inverse 可往返。
type LabelEncoder struct {
	Classes []string // 排序后的类别表，索引即编码

	index map[string]int
}

// NewLabelEncoder 从既有类别表重建编码器（用于 load 路径）。
func NewLabelEncoder(classes []string) *LabelEncoder {
	e := &LabelEncoder{}
	e.setClasses(classes)
	return e
}

// Fit 记录 values 中的去重类别并建立编码映射，覆盖旧状态。
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	e.setClasses(classes)
}

// Fitted 返回编码器是否已经 fit 过。
func (e *LabelEncoder) Fitted() bool {
	return e != nil && e.index != nil
}

// Transform 返回类别的整数编码。
// fit 阶段未见过的类别返回 UNSEEN_CATEGORY：这是前置条件违反，不做静默编码。
func (e *LabelEncoder) Transform(value string) (int, error) {
	if !e.Fitted() {
		return 0, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"label encoder is not fitted")
	}
	code, ok := e.index[value]
	if !ok {
		return 0, &core.DomainError{
			Module:  core.ModuleFeature,
			Code:    core.ErrorCodeUnseenCategory,
			Message: "category " + value + " was not seen during fit",
			Columns: []string{value},
		}
	}
	return code, nil
}

// Inverse 返回编码对应的类别。
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if !e.Fitted() {
		return "", core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidArgument,
			"label encoder is not fitted")
	}
	if code < 0 || code >= len(e.Classes) {
		return "", core.NewDomainError(core.ModuleFeature, core.ErrorCodeUnseenCategory,
			"code out of range")
	}
	return e.Classes[code], nil
}

func (e *LabelEncoder) setClasses(classes []string) {
	e.Classes = classes
	e.index = make(map[string]int, len(classes))
	for i, c := range classes {
		e.index[c] = i
	}
}
