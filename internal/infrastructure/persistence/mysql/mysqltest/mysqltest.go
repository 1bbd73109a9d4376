// Package mysqltest 为仓储和用例测试提供内存SQLite数据库
//
// SQLite不支持SELECT ... FOR UPDATE，驱动会忽略Locking子句；
// 连接数限制为1，同一时刻只有一个事务在执行。
package mysqltest

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
)

// New 创建已迁移表结构的内存数据库，测试结束时关闭
func New(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:bookshop_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, mysql.Migrate(db))
	return db
}

// SeedBook 插入一本图书并返回ID
func SeedBook(t *testing.T, db *gorm.DB, isbn, title string, price int64, stock int) uint {
	t.Helper()
	m := &mysql.BookModel{
		ISBN:        isbn,
		Title:       title,
		Author:      "测试作者",
		Publisher:   "测试出版社",
		Price:       price,
		Stock:       stock,
		PublisherID: 1,
	}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}

// Stock 读取当前库存
func Stock(t *testing.T, db *gorm.DB, bookID uint) int {
	t.Helper()
	var m mysql.BookModel
	require.NoError(t, db.Select("stock").First(&m, bookID).Error)
	return m.Stock
}

// SeedShipping 插入配送方式
func SeedShipping(t *testing.T, db *gorm.DB, name string, fee int64, active bool) uint {
	t.Helper()
	m := &mysql.ShippingMethodModel{Name: name, Fee: fee, Active: active}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}

// PromotionSeed 测试促销参数
type PromotionSeed struct {
	Code         string
	DiscountType string
	Discount     decimal.Decimal
	Start, End   time.Time
	MinPrice     *int64
	Quantity     *int
	UsedQuantity int
	BookIDs      []uint
}

// SeedPromotion 插入促销及图书关联
func SeedPromotion(t *testing.T, db *gorm.DB, s PromotionSeed) uint {
	t.Helper()
	m := &mysql.PromotionModel{
		Code:         s.Code,
		Name:         s.Code,
		DiscountType: s.DiscountType,
		Discount:     s.Discount,
		StartDate:    dateOnly(s.Start),
		EndDate:      dateOnly(s.End),
		MinPrice:     s.MinPrice,
		Quantity:     s.Quantity,
		UsedQuantity: s.UsedQuantity,
	}
	require.NoError(t, db.Omit("Books").Create(m).Error)
	for _, id := range s.BookIDs {
		require.NoError(t, db.Create(&mysql.PromotionBookModel{PromotionID: m.ID, BookID: id}).Error)
	}
	return m.ID
}

// UsedQuantity 读取促销已使用次数
func UsedQuantity(t *testing.T, db *gorm.DB, promotionID uint) int {
	t.Helper()
	var m mysql.PromotionModel
	require.NoError(t, db.Select("used_quantity").First(&m, promotionID).Error)
	return m.UsedQuantity
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
