// Package money 金额格式化，系统内部金额统一以分为单位的int64存储
package money

import "github.com/shopspring/decimal"

// Yuan 分 → 元，保留两位小数（1999 → "19.99"）
func Yuan(fen int64) string {
	return decimal.New(fen, -2).StringFixed(2)
}
