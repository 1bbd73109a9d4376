package book_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/bookshop/internal/application/book"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql/mysqltest"
)

func TestPublishAndQueryBooks(t *testing.T) {
	db := mysqltest.New(t)
	service := book.NewService(mysql.NewBookRepository(db))
	publish := appbook.NewPublishBookUseCase(service, zap.NewNop())
	get := appbook.NewGetBookUseCase(service)
	list := appbook.NewListBooksUseCase(service)
	ctx := context.Background()

	view, err := publish.Execute(ctx, appbook.PublishBookRequest{
		ISBN:        " 978-7-111-11111-1 ",
		Title:       "Go语言编程",
		Author:      "许式伟",
		Publisher:   "人民邮电出版社",
		Price:       5900,
		Stock:       10,
		PublisherID: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "59.00", view.PriceYuan)

	_, err = publish.Execute(ctx, appbook.PublishBookRequest{ISBN: "123", Title: "x", Price: 100})
	assert.ErrorIs(t, err, book.ErrInvalidISBN)

	got, err := get.Execute(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go语言编程", got.Title)

	resp, err := list.Execute(ctx, appbook.ListBooksRequest{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.PageSize)
	assert.EqualValues(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Page)
}

func TestAdjustStock(t *testing.T) {
	db := mysqltest.New(t)
	uc := appbook.NewAdjustStockUseCase(inventory.NewLedger(mysql.NewBookRepository(db)), mysql.NewTxManager(db), zap.NewNop())
	ctx := context.Background()
	id := mysqltest.SeedBook(t, db, "9787111111111", "A", 1000, 2)

	resp, err := uc.Execute(ctx, appbook.AdjustStockRequest{BookID: id, Delta: 5, OperatorID: 100})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Stock)

	_, err = uc.Execute(ctx, appbook.AdjustStockRequest{BookID: id, Delta: -8, OperatorID: 100})
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.Equal(t, 7, mysqltest.Stock(t, db, id))

	_, err = uc.Execute(ctx, appbook.AdjustStockRequest{BookID: 9999, Delta: 1})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
}
