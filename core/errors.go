package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - Embedding 错误：NOT_FOUND（batch 缺失特征）
//   - Model/Config 错误：INVALID_CONFIG（塔配置 / 特征维度非法）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_CONFIG"）
	Message string // 错误消息
	Module  string // 模块名称（如 "model", "embedding", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// IsDomainError 检查错误（或其包装链）是否为 DomainError 类型
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError 从错误链中取出 DomainError，取不到则返回 nil
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
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

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在（缺失特征 / 缺失 key）
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效（batch 长度不一致等）
	ErrorCodeInvalidConfig = "INVALID_CONFIG" // 配置无效（嵌入维度不一致、塔配置非法等）
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleFeature   = "feature"   // 特征模块
	ModuleEmbedding = "embedding" // 嵌入模块
	ModuleModel     = "model"     // 模型模块
	ModuleConfig    = "config"    // 配置模块
)

// ErrStoreNotFound 是存储层 key 不存在的标准错误。
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// 通用错误检查函数

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidInput
	}
	return false
}

// IsInvalidConfig 检查错误是否为 INVALID_CONFIG
func IsInvalidConfig(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeInvalidConfig
	}
	return false
}
