package errors

import (
	"errors"
	"fmt"
)

// Kind 错误分类
// 设计说明：
// 1. 固定的几类错误，HTTP边界按Kind穷举映射状态码
// 2. Code是更细的业务错误码，客户端用它区分具体原因
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

// String 实现Stringer接口
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（不要直接暴露HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Fields携带结构化上下文（如库存不足的图书ID），随响应返回
// 4. Err是内部错误，仅记录到日志，不返回给客户端（防止泄露敏感信息）
type AppError struct {
	Kind    Kind           `json:"-"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"` // 非0时覆盖Kind默认的HTTP状态码
	Fields  map[string]any `json:"fields,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 预定义错误按Code比较，WithField派生出的副本仍然匹配原始错误
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// New 创建新的AppError，Kind由错误码推导
func New(code int, message string) *AppError {
	return &AppError{
		Kind:    kindFromCode(code),
		Code:    code,
		Message: message,
	}
}

// Validation 参数/输入错误
func Validation(code int, message string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: message}
}

// NotFound 资源不存在
func NotFound(code int, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

// Conflict 与当前状态冲突（库存不足、额度用尽、状态不允许等）
func Conflict(code int, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// Forbidden 已登录但无权操作
func Forbidden(code int, message string) *AppError {
	return &AppError{Kind: KindForbidden, Code: code, Message: message}
}

// Internal 内部错误
func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Code: ErrCodeInternal, Message: message, Err: err}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
// 用途：将底层错误转换为业务错误，隐藏实现细节
func Wrap(err error, message string) *AppError {
	return Internal(message, err)
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return Internal(fmt.Sprintf(format, args...), err)
}

// WithStatus 返回覆盖HTTP状态码的副本
func (e *AppError) WithStatus(status int) *AppError {
	cp := *e
	cp.Status = status
	return &cp
}

// WithMessage 返回替换提示信息的副本
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// WithField 返回附加结构化字段的副本，不修改预定义错误本身
func (e *AppError) WithField(key string, value any) *AppError {
	cp := *e
	cp.Fields = make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[key] = value
	return &cp
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 4xxxx: 客户端错误（参数错误、业务规则校验失败）
// - 5xxxx: 服务端错误（数据库异常、外部服务调用失败）

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误

	// 认证授权错误（40100-40199）
	ErrCodeUnauthorized    = 40100 // 未登录
	ErrCodeInvalidToken    = 40101 // Token无效
	ErrCodeTokenExpired    = 40102 // Token过期
	ErrCodeInvalidPassword = 40103 // 密码错误
	ErrCodeForbidden       = 40104 // 无权限

	// 资源错误（40400-40499）
	ErrCodeNotFound          = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound      = 40401 // 用户不存在
	ErrCodeBookNotFound      = 40402 // 图书不存在
	ErrCodeOrderNotFound     = 40403 // 订单不存在
	ErrCodePromotionNotFound = 40404 // 促销码不存在
	ErrCodeInvoiceNotFound   = 40405 // 发票不存在
	ErrCodeShippingNotFound  = 40406 // 配送方式不存在

	// 业务规则错误（40000-40099）
	ErrCodeBusinessError       = 40000 // 业务错误(通用)
	ErrCodeInsufficientStock   = 40001 // 库存不足
	ErrCodeInvalidOrderStatus  = 40002 // 订单状态非法
	ErrCodeEmailDuplicate      = 40003 // 邮箱已存在
	ErrCodeISBNDuplicate       = 40004 // ISBN已存在
	ErrCodeWeakPassword        = 40005 // 密码强度不足
	ErrCodeDuplicateEntry      = 40009 // 重复记录(通用)
	ErrCodePromotionNotActive  = 40010 // 促销未开始
	ErrCodePromotionExpired    = 40011 // 促销已过期
	ErrCodePromotionExhausted  = 40012 // 促销次数已用完
	ErrCodePromotionBelowMin   = 40013 // 未达到最低消费
	ErrCodePromotionOverlap    = 40014 // 促销时间段与其他促销重叠
	ErrCodeInFlight            = 40015 // 相同请求正在处理
	ErrCodeIdempotencyMismatch = 40016 // 幂等键被其他用户使用
	ErrCodeInvalidTransition   = 40017 // 订单状态不允许此操作

	// 参数错误（40900-40999）
	ErrCodeInvalidParams   = 40900 // 参数错误
	ErrCodeBindError       = 40901 // 参数绑定失败
	ErrCodeInvalidPrice    = 40910 // 价格超出范围
	ErrCodeInvalidStock    = 40911 // 库存值非法
	ErrCodeInvalidISBN     = 40912 // ISBN格式错误
	ErrCodeInvalidItems    = 40913 // 明细数量非法
	ErrCodeEmptyItems      = 40916 // 明细为空
	ErrCodeMissingUser     = 40914 // 缺少下单用户ID
	ErrCodeInvalidPromo    = 40915 // 促销定义非法
	ErrCodeMissingAssignee = 40917 // 缺少配送指派ID
	ErrCodeMissingBookID   = 40918 // 缺少图书ID
	ErrCodeMissingStaff    = 40919 // 缺少开票员工ID
	ErrCodeQuotaBelowUsage = 40920 // 可用次数少于已使用次数
)

// kindFromCode 按错误码区间推导Kind（兼容旧的New调用）
func kindFromCode(code int) Kind {
	switch {
	case code >= 40900 && code < 41000:
		return KindValidation
	case code >= 40400 && code < 40500:
		return KindNotFound
	case code == ErrCodeForbidden:
		return KindForbidden
	case code >= 40100 && code < 40200:
		return KindUnauthorized
	case code >= 40000 && code < 40100:
		return KindConflict
	default:
		return KindInternal
	}
}

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	// 认证授权
	ErrUnauthorized    = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken    = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired    = New(ErrCodeTokenExpired, "Token已过期")
	ErrInvalidPassword = New(ErrCodeInvalidPassword, "密码错误")
	ErrForbidden       = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrUserNotFound = New(ErrCodeUserNotFound, "用户不存在")

	// 业务规则
	ErrEmailDuplicate = New(ErrCodeEmailDuplicate, "邮箱已被注册")
	ErrWeakPassword   = Validation(ErrCodeWeakPassword, "密码强度不足（需8-20位，包含字母和数字）")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// KindOf 返回错误的分类，非AppError视为内部错误
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return GetAppError(err).Kind
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
