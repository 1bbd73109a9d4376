package mysql

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookshop/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 2. debug模式打印SQL
// 3. database.auto_migrate为true时自动迁移表结构
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("数据库连接成功",
		zap.String("host", cfg.Database.Host),
		zap.String("db", cfg.Database.DBName))

	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return db, nil
}

// Migrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，生产环境应使用版本化的迁移脚本
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&BookModel{},
		&OrderModel{},
		&OrderItemModel{},
		&OrderAssignmentModel{},
		&InvoiceModel{},
		&InvoiceItemModel{},
		&PromotionModel{},
		&PromotionBookModel{},
		&ShippingMethodModel{},
	)
}

// UserModel 用户表
// domain/user.User是领域实体，不依赖GORM；仓储负责两者之间的转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	Role      string         `gorm:"size:20;not null;default:customer;comment:角色"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string {
	return "users"
}

// BookModel 图书表，价格以分为单位
type BookModel struct {
	ID          uint           `gorm:"primaryKey"`
	ISBN        string         `gorm:"uniqueIndex;size:20;not null;comment:ISBN号"`
	Title       string         `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Author      string         `gorm:"index:idx_search;size:100;not null;comment:作者"`
	Publisher   string         `gorm:"size:100;not null;comment:出版社"`
	Price       int64          `gorm:"index:idx_list;not null;comment:价格(分)"`
	Stock       int            `gorm:"default:0;not null;comment:库存数量"`
	CoverURL    string         `gorm:"size:500;comment:封面图片URL"`
	Description string         `gorm:"type:text;comment:图书描述"`
	PublisherID uint           `gorm:"index;not null;comment:上架员工ID"`
	CreatedAt   time.Time      `gorm:"index:idx_list;comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index;comment:删除时间(软删除)"`
}

func (BookModel) TableName() string {
	return "books"
}

// OrderModel 订单表，与OrderItemModel一对多
type OrderModel struct {
	ID               uint             `gorm:"primaryKey"`
	OrderNo          string           `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID           uint             `gorm:"index;not null;comment:下单用户ID"`
	Status           int              `gorm:"index;default:1;comment:订单状态(1待确认2已确认3配送中4已送达5已取消)"`
	Subtotal         int64            `gorm:"not null;comment:商品金额(分)"`
	ShippingFee      int64            `gorm:"not null;default:0;comment:运费(分)"`
	Discount         int64            `gorm:"not null;default:0;comment:优惠(分)"`
	Total            int64            `gorm:"not null;comment:实付金额(分)"`
	PromotionID      *uint            `gorm:"index;comment:促销ID"`
	PromotionCode    string           `gorm:"size:32;comment:促销码"`
	ShippingMethodID uint             `gorm:"comment:配送方式ID"`
	ShippingAddress  string           `gorm:"size:500;comment:收货地址"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time        `gorm:"index;comment:创建时间"`
	UpdatedAt        time.Time        `gorm:"comment:更新时间"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 订单明细，Price为下单时的单价快照
type OrderItemModel struct {
	ID       uint  `gorm:"primaryKey"`
	OrderID  uint  `gorm:"index;not null;comment:订单ID"`
	BookID   uint  `gorm:"index;not null;comment:图书ID"`
	Quantity int   `gorm:"not null;comment:购买数量"`
	Price    int64 `gorm:"not null;comment:下单时单价(分)"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// OrderAssignmentModel 配送指派，每个订单一条
type OrderAssignmentModel struct {
	ID          uint       `gorm:"primaryKey"`
	OrderID     uint       `gorm:"uniqueIndex;not null;comment:订单ID"`
	ShipperID   uint       `gorm:"index;not null;comment:配送员ID"`
	AssignedBy  uint       `gorm:"not null;comment:指派人ID"`
	AssignedAt  time.Time  `gorm:"not null;comment:指派时间"`
	CompletedAt *time.Time `gorm:"comment:送达时间"`
}

func (OrderAssignmentModel) TableName() string {
	return "order_assignments"
}

// InvoiceModel 门店发票表
type InvoiceModel struct {
	ID            uint               `gorm:"primaryKey"`
	InvoiceNo     string             `gorm:"uniqueIndex;size:32;not null;comment:发票号"`
	StaffID       uint               `gorm:"index;not null;comment:开票员工ID"`
	CustomerName  string             `gorm:"size:100;comment:顾客姓名"`
	CustomerPhone string             `gorm:"size:20;comment:顾客电话"`
	Subtotal      int64              `gorm:"not null;comment:商品金额(分)"`
	Discount      int64              `gorm:"not null;default:0;comment:优惠(分)"`
	Total         int64              `gorm:"not null;comment:实付金额(分)"`
	PromotionID   *uint              `gorm:"index;comment:促销ID"`
	PromotionCode string             `gorm:"size:32;comment:促销码"`
	Items         []InvoiceItemModel `gorm:"foreignKey:InvoiceID"`
	CreatedAt     time.Time          `gorm:"index;comment:开票时间"`
}

func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel 发票明细
type InvoiceItemModel struct {
	ID        uint  `gorm:"primaryKey"`
	InvoiceID uint  `gorm:"index;not null;comment:发票ID"`
	BookID    uint  `gorm:"index;not null;comment:图书ID"`
	Quantity  int   `gorm:"not null;comment:数量"`
	Price     int64 `gorm:"not null;comment:单价(分)"`
}

func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// PromotionModel 促销表
// Discount用decimal存储：percent为百分数，fixed为金额（分）
// StartDate/EndDate只保存日期（UTC零点）
type PromotionModel struct {
	ID           uint                 `gorm:"primaryKey"`
	Code         string               `gorm:"uniqueIndex;size:32;not null;comment:促销码"`
	Name         string               `gorm:"size:100;comment:名称"`
	DiscountType string               `gorm:"size:10;not null;comment:优惠类型(percent|fixed)"`
	Discount     decimal.Decimal      `gorm:"type:decimal(12,2);not null;comment:优惠力度"`
	StartDate    time.Time            `gorm:"type:date;index:idx_window;not null;comment:开始日期"`
	EndDate      time.Time            `gorm:"type:date;index:idx_window;not null;comment:结束日期(含)"`
	MinPrice     *int64               `gorm:"comment:最低消费(分)"`
	Quantity     *int                 `gorm:"comment:可用次数"`
	UsedQuantity int                  `gorm:"not null;default:0;comment:已使用次数"`
	Books        []PromotionBookModel `gorm:"foreignKey:PromotionID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PromotionModel) TableName() string {
	return "promotions"
}

// PromotionBookModel 促销与图书的关联
type PromotionBookModel struct {
	PromotionID uint `gorm:"primaryKey;autoIncrement:false"`
	BookID      uint `gorm:"primaryKey;autoIncrement:false;index"`
}

func (PromotionBookModel) TableName() string {
	return "promotion_books"
}

// ShippingMethodModel 配送方式（由运营直接维护，接口只读）
type ShippingMethodModel struct {
	ID     uint   `gorm:"primaryKey"`
	Name   string `gorm:"size:50;not null;comment:名称"`
	Fee    int64  `gorm:"not null;default:0;comment:运费(分)"`
	Active bool   `gorm:"not null;comment:是否启用"`
}

func (ShippingMethodModel) TableName() string {
	return "shipping_methods"
}
