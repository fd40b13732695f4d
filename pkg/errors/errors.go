// Package errors 提供统一的错误处理框架
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code 错误码
type Code string

const (
	// 通用错误码
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeTimeout      Code = "TIMEOUT"

	// 模型与求解相关
	CodeNoFeasibleSolution Code = "NO_FEASIBLE_SOLUTION"
	CodeSolverError        Code = "SOLVER_ERROR"
	CodeSolverUnavailable  Code = "SOLVER_UNAVAILABLE"
	CodeInvalidTimeRange   Code = "INVALID_TIME_RANGE"
	CodeInvalidState       Code = "INVALID_STATE"

	// 数据相关
	CodeDataError      Code = "DATA_ERROR"
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeValidationFail Code = "VALIDATION_FAILED"
)

// AppError 应用错误
type AppError struct {
	Code    Code                   `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails 添加详细信息
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithField 添加字段
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// New 创建新错误
func New(code Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(err error, code Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is 检查错误是否为特定类型
func Is(err error, code Code) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode 获取错误码
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsRecordLevel 数据错误只影响单条记录，不中断整个运行
func IsRecordLevel(err error) bool {
	return Is(err, CodeDataError)
}

// InvalidInput 创建输入无效错误
func InvalidInput(field, reason string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("字段 '%s' 无效: %s", field, reason))
}

// DataError 创建数据错误（记录级）
func DataError(record, field, reason string) *AppError {
	return New(CodeDataError, fmt.Sprintf("记录 '%s' 字段 '%s' 无法解析: %s", record, field, reason)).
		WithField("record", record).
		WithField("field", field)
}

// NoFeasibleSolution 创建无可行解错误
func NoFeasibleSolution(reason string) *AppError {
	return New(CodeNoFeasibleSolution, reason)
}

// SolverError 创建求解器错误
func SolverError(solver string, cause error) *AppError {
	return Wrap(cause, CodeSolverError, fmt.Sprintf("求解器 %s 执行失败", solver)).WithField("solver", solver)
}

// InvalidState 创建状态错误
func InvalidState(from, to string) *AppError {
	return New(CodeInvalidState, fmt.Sprintf("非法状态转换: %s -> %s", from, to))
}

// ValidationErrors 验证错误集合
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// ValidationError 单个验证错误
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error 实现 error 接口
func (ve *ValidationErrors) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "验证失败"
	case 1:
		return fmt.Sprintf("验证失败: %s - %s", ve.Errors[0].Field, ve.Errors[0].Message)
	}
	return fmt.Sprintf("验证失败: %s - %s 等 %d 项", ve.Errors[0].Field, ve.Errors[0].Message, len(ve.Errors))
}

// Add 添加验证错误
func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors 检查是否有错误
func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

// ToAppError 转换为 AppError，全部问题逐行放在 Details 中
func (ve *ValidationErrors) ToAppError() *AppError {
	lines := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		lines[i] = e.Field + ": " + e.Message
	}
	err := New(CodeValidationFail, ve.Error()).WithDetails(strings.Join(lines, "\n"))
	err.Fields = make(map[string]interface{}, len(ve.Errors))
	for _, e := range ve.Errors {
		err.Fields[e.Field] = e.Message
	}
	return err
}
