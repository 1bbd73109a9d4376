package inventory

import (
	"errors"

	"github.com/xiebiao/bookshop/internal/domain/book"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	ErrEmptyLines = apperrors.Validation(apperrors.ErrCodeEmptyItems, "明细不能为空")

	ErrInvalidQuantity = apperrors.Validation(apperrors.ErrCodeInvalidItems, "购买数量必须大于0")

	ErrMissingBookID = apperrors.Validation(apperrors.ErrCodeMissingBookID, "缺少图书ID")
)

// withBookID 给图书相关的业务错误补上book_id字段，其它错误原样返回
func withBookID(err error, id uint) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, book.ErrBookNotFound) || errors.Is(err, book.ErrInsufficientStock) {
		if _, ok := appErr.Fields["book_id"]; !ok {
			return appErr.WithField("book_id", id)
		}
	}
	return err
}
