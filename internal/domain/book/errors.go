package book

import (
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	ErrBookNotFound = apperrors.NotFound(apperrors.ErrCodeBookNotFound, "图书不存在")

	ErrISBNDuplicate = apperrors.Conflict(apperrors.ErrCodeISBNDuplicate, "ISBN号已存在")

	ErrInvalidPrice = apperrors.Validation(apperrors.ErrCodeInvalidPrice, "价格必须在0.01元到9999.99元之间")

	ErrInvalidStock = apperrors.Validation(apperrors.ErrCodeInvalidStock, "库存不能为负数")

	ErrInvalidISBN = apperrors.Validation(apperrors.ErrCodeInvalidISBN, "ISBN格式不正确")

	// ErrInsufficientStock 库存不足，Ledger会附带book_id/title/available/requested字段
	ErrInsufficientStock = apperrors.Conflict(apperrors.ErrCodeInsufficientStock, "库存不足")
)
