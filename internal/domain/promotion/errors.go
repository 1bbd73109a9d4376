package promotion

import (
	"net/http"

	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	ErrPromotionNotFound = apperrors.NotFound(apperrors.ErrCodePromotionNotFound, "促销码不存在")

	// 时间窗口和最低消费属于"当前不可用"，按400返回；次数用完按409返回
	ErrNotYetActive = apperrors.Conflict(apperrors.ErrCodePromotionNotActive, "促销尚未开始").WithStatus(http.StatusBadRequest)

	ErrExpired = apperrors.Conflict(apperrors.ErrCodePromotionExpired, "促销已过期").WithStatus(http.StatusBadRequest)

	ErrQuotaExhausted = apperrors.Conflict(apperrors.ErrCodePromotionExhausted, "促销码使用次数已用完")

	ErrBelowMinimum = apperrors.Conflict(apperrors.ErrCodePromotionBelowMin, "未达到促销最低消费金额").WithStatus(http.StatusBadRequest)

	ErrOverlap = apperrors.Conflict(apperrors.ErrCodePromotionOverlap, "图书已参与时间段重叠的其他促销")

	ErrDuplicateCode = apperrors.Conflict(apperrors.ErrCodeDuplicateEntry, "促销码已存在")

	ErrInvalidPromotion = apperrors.Validation(apperrors.ErrCodeInvalidPromo, "促销定义不合法")

	ErrQuotaBelowUsage = apperrors.Validation(apperrors.ErrCodeQuotaBelowUsage, "可用次数不能少于已使用次数")

	ErrInvalidAmount = apperrors.Validation(apperrors.ErrCodeInvalidParams, "订单金额不能为负数")
)
