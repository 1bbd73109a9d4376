package order

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	ErrOrderNotFound = apperrors.NotFound(apperrors.ErrCodeOrderNotFound, "订单不存在")

	ErrInvalidStatusTransition = apperrors.Conflict(apperrors.ErrCodeInvalidTransition, "订单状态不允许此操作")

	ErrInvalidStatus = apperrors.Validation(apperrors.ErrCodeInvalidOrderStatus, "订单状态参数不正确")

	ErrMissingUser = apperrors.Validation(apperrors.ErrCodeMissingUser, "缺少下单用户")

	ErrMissingAssignee = apperrors.Validation(apperrors.ErrCodeMissingAssignee, "订单ID、配送员ID和指派人ID都不能为空")

	ErrNotOwner = apperrors.Forbidden(apperrors.ErrCodeForbidden, "只能操作自己的订单")

	ErrAssignmentNotFound = apperrors.NotFound(apperrors.ErrCodeNotFound, "配送指派不存在")

	// ErrRequestInFlight 相同Idempotency-Key的请求还在处理中
	ErrRequestInFlight = apperrors.Conflict(apperrors.ErrCodeInFlight, "相同的下单请求正在处理，请稍后重试")

	// ErrIdempotencyKeyReused 同一个Idempotency-Key对应了不同的下单内容
	ErrIdempotencyKeyReused = apperrors.Conflict(apperrors.ErrCodeIdempotencyMismatch, "Idempotency-Key已用于其他下单请求")
)
