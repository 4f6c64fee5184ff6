package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于客户端判断错误类型（业务错误码，不是HTTP状态码）
// 2. Message是用户友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给客户端
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
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

// Is 按业务错误码比较
// 预定义错误是同一个指针，但Wrap之后的副本也应该能被errors.Is识别
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、网络错误）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
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
	ErrCodeUnauthorized = 40100 // 未登录
	ErrCodeInvalidToken = 40101 // Token无效
	ErrCodeTokenExpired = 40102 // Token过期
	ErrCodeTokenRevoked = 40103 // Token已注销
	ErrCodeForbidden    = 40104 // 无权限
	ErrCodeNotBorrowed  = 40105 // 未借阅过，不能评论

	// 资源错误（40400-40499）
	ErrCodeNotFound       = 40400 // 资源不存在(通用)
	ErrCodeUserNotFound   = 40401 // 用户不存在
	ErrCodeBookNotFound   = 40402 // 图书不存在
	ErrCodeLoanNotFound   = 40403 // 借阅记录不存在
	ErrCodeReviewNotFound = 40404 // 评论不存在
	ErrCodeNotInWishlist  = 40405 // 不在心愿单中

	// 业务冲突（40000-40099）
	ErrCodeBusinessError   = 40000 // 业务错误(通用)
	ErrCodeUnavailable     = 40001 // 暂无可借副本
	ErrCodeAlreadyOnLoan   = 40002 // 已借阅该书且未归还
	ErrCodeAlreadyReturned = 40003 // 已归还
	ErrCodeAlreadyReviewed = 40004 // 已评论过该书
	ErrCodeISBNDuplicate   = 40005 // ISBN已存在
	ErrCodeBookOnLoan      = 40006 // 图书仍有未归还的借阅
	ErrCodeInWishlist      = 40007 // 已在心愿单中
	ErrCodeEmailDuplicate  = 40008 // 邮箱已存在
	ErrCodeDuplicateEntry  = 40009 // 重复记录(通用)

	// 参数错误（40900-40999）
	ErrCodeInvalidParams = 40900 // 参数错误
	ErrCodeBindError     = 40901 // 参数绑定失败
	ErrCodeTooManyCalls  = 40902 // 请求过于频繁
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")

	// 认证授权
	ErrUnauthorized = New(ErrCodeUnauthorized, "请先登录")
	ErrInvalidToken = New(ErrCodeInvalidToken, "无效的Token")
	ErrTokenExpired = New(ErrCodeTokenExpired, "Token已过期")
	ErrTokenRevoked = New(ErrCodeTokenRevoked, "Token已失效，请重新登录")
	ErrForbidden    = New(ErrCodeForbidden, "无权限访问")

	// 资源不存在
	ErrNotFound     = New(ErrCodeNotFound, "资源不存在")
	ErrUserNotFound = New(ErrCodeUserNotFound, "用户不存在")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
	ErrBindError     = New(ErrCodeBindError, "参数格式错误")
	ErrTooManyCalls  = New(ErrCodeTooManyCalls, "请求过于频繁，请稍后再试")
)

// =========================================
// 错误分类
// =========================================

// Kind 错误类别，调用方按类别决定如何处理（都不会在服务内部重试）
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindValidation
	KindUnavailable
)

// String 实现Stringer接口
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Kind 根据业务错误码归类
func (e *AppError) Kind() Kind {
	switch e.Code {
	case ErrCodeUnauthorized, ErrCodeInvalidToken, ErrCodeTokenExpired, ErrCodeTokenRevoked:
		return KindUnauthenticated
	case ErrCodeForbidden, ErrCodeNotBorrowed:
		return KindForbidden
	case ErrCodeUnavailable:
		return KindUnavailable
	case ErrCodeInvalidParams, ErrCodeBindError, ErrCodeTooManyCalls:
		return KindValidation
	}

	switch {
	case e.Code >= 40400 && e.Code < 40500:
		return KindNotFound
	case e.Code >= 40000 && e.Code < 40100:
		return KindConflict
	case e.Code >= 40900 && e.Code < 41000:
		return KindValidation
	default:
		return KindInternal
	}
}

// HTTPStatus 错误对应的HTTP状态码
func (e *AppError) HTTPStatus() int {
	if e.Code == ErrCodeTooManyCalls {
		return http.StatusTooManyRequests
	}
	switch e.Kind() {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindUnavailable:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus 实现grpc status接口，status.FromError/status.Convert会直接使用它
// 业务错误码放在ErrorInfo的Metadata中，内部错误不外泄
func (e *AppError) GRPCStatus() *status.Status {
	var code codes.Code
	switch e.Kind() {
	case KindNotFound:
		code = codes.NotFound
	case KindUnauthenticated:
		code = codes.Unauthenticated
	case KindForbidden:
		code = codes.PermissionDenied
	case KindConflict:
		code = codes.AlreadyExists
	case KindValidation:
		code = codes.InvalidArgument
	case KindUnavailable:
		code = codes.FailedPrecondition
	default:
		code = codes.Internal
	}

	st := status.New(code, e.Message)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason: e.Kind().String(),
		Domain: "library",
		Metadata: map[string]string{
			"code": strconv.Itoa(e.Code),
		},
	})
	if err != nil {
		return st
	}
	return detailed
}

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

// KindOf 任意error的类别
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return GetAppError(err).Kind()
}
