package core

import (
	"fmt"
	"strings"
)

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - 生成器错误：INVALID_ARGUMENT
//   - 特征工程错误：UNSEEN_CATEGORY, INVALID_TIMESTAMP
//   - 模型错误：MISSING_FEATURES, MODEL_NOT_TRAINED
//   - 持久化错误：PERSISTENCE
type DomainError struct {
	Code    string   // 错误代码（如 "MISSING_FEATURES", "MODEL_NOT_TRAINED"）
	Message string   // 错误消息
	Module  string   // 模块名称（如 "synth", "feature", "model"）
	Columns []string // 相关列名（仅列约束类错误使用）
}

func (e *DomainError) Error() string {
	if len(e.Columns) > 0 {
		return fmt.Sprintf("%s: %s: [%s]", e.Module, e.Message, strings.Join(e.Columns, ", "))
	}
	return e.Message
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*DomainError)
	return ok
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// NewMissingFeaturesError 创建特征列缺失错误，columns 为缺失的列名（升序）。
func NewMissingFeaturesError(module string, columns []string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    ErrorCodeMissingFeatures,
		Message: "missing required feature columns",
		Columns: columns,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeInternal     = "INTERNAL"      // 内部错误

	// 数据 / 模型错误代码
	ErrorCodeInvalidArgument  = "INVALID_ARGUMENT"  // 输入无效（非法样本数、空值类别等）
	ErrorCodeMissingFeatures  = "MISSING_FEATURES"  // 声明的特征列缺失
	ErrorCodeUnseenCategory   = "UNSEEN_CATEGORY"   // transform 时遇到 fit 阶段未见过的类别
	ErrorCodeInvalidTimestamp = "INVALID_TIMESTAMP" // 时间戳无法解析
	ErrorCodeModelNotTrained  = "MODEL_NOT_TRAINED" // 模型未训练 / 未加载就调用 predict
	ErrorCodePersistence      = "PERSISTENCE"       // save/load 的 I/O 或反序列化失败
)

// 模块名称常量
const (
	ModuleSynth   = "synth"   // 合成数据模块
	ModuleFeature = "feature" // 特征模块
	ModuleModel   = "model"   // 模型模块
	ModuleStore   = "store"   // 存储模块
	ModuleTrainer = "trainer" // 训练模块
)

// 通用错误检查函数

// IsInvalidArgument 检查错误是否为 INVALID_ARGUMENT
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrorCodeInvalidArgument)
}

// IsMissingFeatures 检查错误是否为 MISSING_FEATURES
func IsMissingFeatures(err error) bool {
	return hasCode(err, ErrorCodeMissingFeatures)
}

// IsUnseenCategory 检查错误是否为 UNSEEN_CATEGORY
func IsUnseenCategory(err error) bool {
	return hasCode(err, ErrorCodeUnseenCategory)
}

// IsInvalidTimestamp 检查错误是否为 INVALID_TIMESTAMP
func IsInvalidTimestamp(err error) bool {
	return hasCode(err, ErrorCodeInvalidTimestamp)
}

// IsModelNotTrained 检查错误是否为 MODEL_NOT_TRAINED
func IsModelNotTrained(err error) bool {
	return hasCode(err, ErrorCodeModelNotTrained)
}

// IsPersistence 检查错误是否为 PERSISTENCE
func IsPersistence(err error) bool {
	return hasCode(err, ErrorCodePersistence)
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
