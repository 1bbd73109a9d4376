package mysql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/invoice"
	"github.com/xiebiao/bookshop/internal/domain/order"
	"github.com/xiebiao/bookshop/internal/domain/promotion"
	"github.com/xiebiao/bookshop/internal/domain/shipping"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql/mysqltest"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

func TestBookRepository_UpdateStock(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	ctx := context.Background()
	id := mysqltest.SeedBook(t, db, "9787111111111", "Go语言编程", 5900, 5)

	require.NoError(t, repo.UpdateStock(ctx, id, -3))
	assert.Equal(t, 2, mysqltest.Stock(t, db, id))

	err := repo.UpdateStock(ctx, id, -3)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.Equal(t, 2, mysqltest.Stock(t, db, id), "失败的扣减不能改动库存")

	require.NoError(t, repo.UpdateStock(ctx, id, -2))
	assert.Equal(t, 0, mysqltest.Stock(t, db, id))

	err = repo.UpdateStock(ctx, 9999, 1)
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}

func TestBookRepository_CreateAndQuery(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	ctx := context.Background()

	b := book.NewBook("9787222222222", "数据库系统", "张三", "机械工业出版社", 8800, 10, "", "", 7)
	require.NoError(t, repo.Create(ctx, b))
	require.NotZero(t, b.ID)

	dup := book.NewBook("9787222222222", "另一本", "李四", "人民邮电出版社", 100, 1, "", "", 7)
	assert.ErrorIs(t, repo.Create(ctx, dup), book.ErrISBNDuplicate)

	found, err := repo.FindByISBN(ctx, "9787222222222")
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	mysqltest.SeedBook(t, db, "9787333333333", "编译原理", 6600, 3)

	list, total, err := repo.List(ctx, book.ListParams{Page: 1, PageSize: 10, Keyword: "编译"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "编译原理", list[0].Title)
}

func TestBookRepository_UpdateKeepsStock(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	ctx := context.Background()
	id := mysqltest.SeedBook(t, db, "9787444444444", "算法导论", 12800, 4)

	b, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NoError(t, b.UpdatePrice(9900))
	b.Stock = 100
	require.NoError(t, repo.Update(ctx, b))

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(9900), got.Price)
	assert.Equal(t, 4, got.Stock)
}

func TestTxManager_Rollback(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewBookRepository(db)
	txm := mysql.NewTxManager(db)
	ctx := context.Background()
	id := mysqltest.SeedBook(t, db, "9787555555555", "网络是怎样连接的", 4900, 5)

	boom := errors.New("boom")
	err := txm.Transaction(ctx, func(ctx context.Context) error {
		if err := repo.UpdateStock(ctx, id, -5); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, mysqltest.Stock(t, db, id))

	err = txm.Transaction(ctx, func(ctx context.Context) error {
		_, err := repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		return repo.UpdateStock(ctx, id, -1)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, mysqltest.Stock(t, db, id))
}

func TestOrderRepository_CreateAndAssignment(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewOrderRepository(db)
	txm := mysql.NewTxManager(db)
	ctx := context.Background()

	promoID := uint(3)
	o := order.NewOrder(order.GenerateOrderNo(), 42, []order.OrderItem{
		{BookID: 1, Quantity: 2, Price: 1000},
		{BookID: 2, Quantity: 1, Price: 500},
	})
	o.ApplyCharges(800, 300)
	o.PromotionID = &promoID
	o.PromotionCode = "SPRING"
	o.ShippingAddress = "北京市海淀区"
	require.NoError(t, repo.Create(ctx, o))
	require.NotZero(t, o.ID)
	assert.NotZero(t, o.Items[0].ID)

	found, err := repo.FindByOrderNo(ctx, o.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), found.Subtotal)
	assert.Equal(t, int64(3000), found.Total)
	require.NotNil(t, found.PromotionID)
	assert.Equal(t, promoID, *found.PromotionID)
	assert.Len(t, found.Items, 2)

	err = txm.Transaction(ctx, func(ctx context.Context) error {
		locked, err := repo.LockByID(ctx, o.ID)
		if err != nil {
			return err
		}
		assert.Len(t, locked.Items, 2)
		if err := locked.Confirm(); err != nil {
			return err
		}
		if err := locked.StartDelivery(); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, locked); err != nil {
			return err
		}
		return repo.SaveAssignment(ctx, order.NewAssignment(o.ID, 7, 1))
	})
	require.NoError(t, err)

	// 重新指派覆盖原记录
	second := order.NewAssignment(o.ID, 8, 2)
	require.NoError(t, repo.SaveAssignment(ctx, second))
	a, err := repo.FindAssignment(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(8), a.ShipperID)
	assert.Equal(t, uint(2), a.AssignedBy)
	assert.Equal(t, second.ID, a.ID)
	assert.Nil(t, a.CompletedAt)

	var count int64
	require.NoError(t, db.Model(&mysql.OrderAssignmentModel{}).Where("order_id = ?", o.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.CompleteAssignment(ctx, o.ID, time.Now()))
	a, err = repo.FindAssignment(ctx, o.ID)
	require.NoError(t, err)
	assert.NotNil(t, a.CompletedAt)

	assert.ErrorIs(t, repo.CompleteAssignment(ctx, 9999, time.Now()), order.ErrAssignmentNotFound)

	got, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusDelivering, got.Status)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_List(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewOrderRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		o := order.NewOrder(order.GenerateOrderNo(), 1, []order.OrderItem{{BookID: 1, Quantity: 1, Price: 100}})
		require.NoError(t, repo.Create(ctx, o))
	}
	other := order.NewOrder(order.GenerateOrderNo(), 2, []order.OrderItem{{BookID: 1, Quantity: 1, Price: 100}})
	require.NoError(t, repo.Create(ctx, other))
	_, err := other.Cancel()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(ctx, other))

	list, total, err := repo.List(ctx, order.ListParams{UserID: 1, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)

	_, total, err = repo.List(ctx, order.ListParams{Status: order.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestPromotionRepository(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewPromotionRepository(db)
	ctx := context.Background()

	qty := 1
	p := &promotion.Promotion{
		Code:         "SPRING",
		Name:         "春季促销",
		DiscountType: promotion.DiscountPercent,
		Discount:     decimal.NewFromFloat(12.5),
		StartDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Quantity:     &qty,
		BookIDs:      []uint{1, 2},
	}
	require.NoError(t, repo.Create(ctx, p))
	require.NotZero(t, p.ID)

	dup := *p
	dup.ID = 0
	err := repo.Create(ctx, &dup)
	assert.ErrorIs(t, err, promotion.ErrDuplicateCode)

	got, err := repo.FindByCode(ctx, "SPRING")
	require.NoError(t, err)
	assert.True(t, got.Discount.Equal(decimal.NewFromFloat(12.5)))
	assert.Equal(t, []uint{1, 2}, got.BookIDs)
	assert.Equal(t, "2026-03-31", got.EndDate.Format(time.DateOnly))

	// 区间重叠查询
	ids, err := repo.FindConflictingBookIDs(ctx, []uint{2, 3},
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, ids)

	ids, err = repo.FindConflictingBookIDs(ctx, []uint{1, 2},
		time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = repo.FindConflictingBookIDs(ctx, []uint{1, 2}, p.StartDate, p.EndDate, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ids, "更新时排除自身")

	// 使用次数受quantity约束
	require.NoError(t, repo.IncrementUsage(ctx, p.ID))
	assert.ErrorIs(t, repo.IncrementUsage(ctx, p.ID), promotion.ErrQuotaExhausted)
	assert.Equal(t, 1, mysqltest.UsedQuantity(t, db, p.ID))
	assert.ErrorIs(t, repo.IncrementUsage(ctx, 9999), promotion.ErrPromotionNotFound)

	// 更新替换图书关联，不修改已使用次数
	got.BookIDs = []uint{3}
	got.Quantity = nil
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, updated.BookIDs)
	assert.Nil(t, updated.Quantity)
	assert.Equal(t, 1, updated.UsedQuantity)
	require.NoError(t, repo.IncrementUsage(ctx, p.ID))

	list, total, err := repo.List(ctx, promotion.ListParams{Keyword: "SPR"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	_, err = repo.LockByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, promotion.ErrPromotionNotFound)

	locked, err := repo.LockByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, locked.BookIDs)
	assert.Equal(t, 2, locked.UsedQuantity)
	_, err = repo.LockByID(ctx, 9999)
	assert.ErrorIs(t, err, promotion.ErrPromotionNotFound)

	// 实体上的used_quantity已过期时，UPDATE条件仍以库中的值为准
	stale := *locked
	stale.UsedQuantity = 0
	one := 1
	stale.Quantity = &one
	assert.ErrorIs(t, repo.Update(ctx, &stale), promotion.ErrQuotaBelowUsage)
	current, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, current.Quantity)

	two := 2
	stale.Quantity = &two
	require.NoError(t, repo.Update(ctx, &stale))

	ghost := stale
	ghost.ID = 9999
	assert.ErrorIs(t, repo.Update(ctx, &ghost), promotion.ErrPromotionNotFound)
}

func TestUserRepository(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewUserRepository(db)
	ctx := context.Background()

	u := user.NewUser("a@example.com", "hash", "小明")
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, user.RoleCustomer, u.Role)

	err := repo.Create(ctx, user.NewUser("a@example.com", "hash", "小红"))
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)

	staff := user.NewUser("s@example.com", "hash", "店员")
	staff.Role = user.RoleStaff
	require.NoError(t, repo.Create(ctx, staff))
	got, err := repo.FindByEmail(ctx, "s@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStaff, got.Role)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestInvoiceRepository(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewInvoiceRepository(db)
	ctx := context.Background()

	inv := invoice.NewInvoice(5, "王五", "13800000000", []invoice.InvoiceItem{
		{BookID: 1, Quantity: 2, Price: 1500},
	})
	inv.ApplyDiscount(500)
	require.NoError(t, repo.Create(ctx, inv))
	require.NotZero(t, inv.ID)

	got, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), got.Subtotal)
	assert.Equal(t, int64(2500), got.Total)
	require.Len(t, got.Items, 1)

	_, total, err := repo.List(ctx, invoice.ListParams{StaffID: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(ctx, invoice.ListParams{StaffID: 6})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
}

func TestShippingRepository(t *testing.T) {
	db := mysqltest.New(t)
	repo := mysql.NewShippingRepository(db)
	ctx := context.Background()

	express := mysqltest.SeedShipping(t, db, "快递", 1000, true)
	mysqltest.SeedShipping(t, db, "自提点", 0, true)
	retired := mysqltest.SeedShipping(t, db, "平邮", 500, false)

	m, err := repo.FindByID(ctx, express)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), m.Fee)

	_, err = repo.FindByID(ctx, retired)
	assert.ErrorIs(t, err, shipping.ErrMethodNotFound)

	methods, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 2)
	assert.Equal(t, "自提点", methods[0].Name)

	fee, err := shipping.FeeFor(ctx, repo, 0)
	require.NoError(t, err)
	assert.Zero(t, fee)
}
