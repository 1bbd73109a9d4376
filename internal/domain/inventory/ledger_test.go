package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/inventory"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/mysql/mysqltest"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

type fixture struct {
	ledger *inventory.Ledger
	tx     *mysql.TxManager
}

func newFixture(t *testing.T) (fixture, func(id uint) int, func(isbn, title string, stock int) uint) {
	db := mysqltest.New(t)
	f := fixture{
		ledger: inventory.NewLedger(mysql.NewBookRepository(db)),
		tx:     mysql.NewTxManager(db),
	}
	stock := func(id uint) int { return mysqltest.Stock(t, db, id) }
	seed := func(isbn, title string, s int) uint { return mysqltest.SeedBook(t, db, isbn, title, 1000, s) }
	return f, stock, seed
}

func (f fixture) reserve(lines ...inventory.Line) ([]*book.Book, error) {
	var books []*book.Book
	err := f.tx.Transaction(context.Background(), func(ctx context.Context) error {
		var err error
		books, err = f.ledger.Reserve(ctx, lines)
		return err
	})
	return books, err
}

func TestReserve_MergesAndDecrements(t *testing.T) {
	f, stock, seed := newFixture(t)
	a := seed("9787000000001", "A", 5)
	b := seed("9787000000002", "B", 1)

	books, err := f.reserve(
		inventory.Line{BookID: b, Quantity: 1},
		inventory.Line{BookID: a, Quantity: 2},
		inventory.Line{BookID: a, Quantity: 1},
	)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, a, books[0].ID, "按ID升序加锁")
	assert.Equal(t, 2, books[0].Stock)
	assert.Equal(t, 2, stock(a))
	assert.Equal(t, 0, stock(b))
}

func TestReserve_StockFiveScenario(t *testing.T) {
	f, stock, seed := newFixture(t)
	id := seed("9787000000003", "《Go》", 5)

	_, err := f.reserve(inventory.Line{BookID: id, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, stock(id))

	_, err = f.reserve(inventory.Line{BookID: id, Quantity: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	appErr := apperrors.GetAppError(err)
	assert.Equal(t, id, appErr.Fields["book_id"])
	assert.Equal(t, 2, appErr.Fields["available"])
	assert.Equal(t, 3, appErr.Fields["requested"])
	assert.Equal(t, 2, stock(id))
}

func TestReserve_MultiLineFailureIsAtomic(t *testing.T) {
	f, stock, seed := newFixture(t)
	a := seed("9787000000004", "A", 10)
	b := seed("9787000000005", "B", 1)

	_, err := f.reserve(
		inventory.Line{BookID: a, Quantity: 4},
		inventory.Line{BookID: b, Quantity: 2},
	)
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.Equal(t, 10, stock(a))
	assert.Equal(t, 1, stock(b))
}

func TestReserve_Validation(t *testing.T) {
	f, _, seed := newFixture(t)
	id := seed("9787000000006", "A", 1)

	_, err := f.reserve()
	assert.ErrorIs(t, err, inventory.ErrEmptyLines)

	_, err = f.reserve(inventory.Line{BookID: id, Quantity: 0})
	assert.ErrorIs(t, err, inventory.ErrInvalidQuantity)

	_, err = f.reserve(inventory.Line{BookID: 0, Quantity: 1})
	assert.ErrorIs(t, err, inventory.ErrMissingBookID)

	_, err = f.reserve(inventory.Line{BookID: 9999, Quantity: 1})
	assert.ErrorIs(t, err, book.ErrBookNotFound)
	assert.Equal(t, uint(9999), apperrors.GetAppError(err).Fields["book_id"])
}

func TestReleaseRestoresStock(t *testing.T) {
	f, stock, seed := newFixture(t)
	id := seed("9787000000007", "A", 5)

	_, err := f.reserve(inventory.Line{BookID: id, Quantity: 5})
	require.NoError(t, err)

	err = f.tx.Transaction(context.Background(), func(ctx context.Context) error {
		return f.ledger.Release(ctx, []inventory.Line{{BookID: id, Quantity: 5}})
	})
	require.NoError(t, err)
	assert.Equal(t, 5, stock(id))
}

func TestAdjust(t *testing.T) {
	f, stock, seed := newFixture(t)
	id := seed("9787000000008", "A", 2)
	ctx := context.Background()

	var got int
	err := f.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		got, err = f.ledger.Adjust(ctx, id, 8)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 10, got)
	assert.Equal(t, 10, stock(id))

	err = f.tx.Transaction(ctx, func(ctx context.Context) error {
		_, err := f.ledger.Adjust(ctx, id, -11)
		return err
	})
	assert.ErrorIs(t, err, book.ErrInsufficientStock)
	assert.Equal(t, 10, stock(id))

	_, err = f.ledger.Adjust(ctx, 0, 1)
	assert.ErrorIs(t, err, inventory.ErrMissingBookID)
}
