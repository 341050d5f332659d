package usecase_test

import (
	"context"
	"testing"
	"time"

	"salesapi/internal/domain/event"
	"salesapi/internal/domain/model"
	repo "salesapi/internal/repository"
	"salesapi/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mocks（衝突回避の命名）
// =====================

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) List(ctx context.Context, q repo.ListQuery) ([]model.Cart, int64, error) {
	args := m.Called(ctx, q)
	carts, _ := args.Get(0).([]model.Cart)
	return carts, args.Get(1).(int64), args.Error(2)
}

func (m *CartRepoMock) FindByID(ctx context.Context, id int64) (model.Cart, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	args := m.Called(ctx, cart)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Update(ctx context.Context, cart model.Cart, expectedRevision int64) (model.Cart, error) {
	args := m.Called(ctx, cart, expectedRevision)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type CartProductRepoMock struct{ mock.Mock }

func (m *CartProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *CartProductRepoMock) List(ctx context.Context, q repo.ListQuery) ([]model.Product, int64, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) ListByCategory(ctx context.Context, category string, q repo.ListQuery) ([]model.Product, int64, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Categories(ctx context.Context) ([]string, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Update(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in CartUsecase tests")
}

func (m *CartProductRepoMock) Delete(ctx context.Context, id int64) error {
	panic("not used in CartUsecase tests")
}

// 発行されたイベントをそのまま溜める
type eventsRecorder struct {
	created   []event.CartCreated
	modified  []event.CartModified
	cancelled []event.CartCancelled
	lines     []event.LineCancelled
}

func (r *eventsRecorder) PublishCartCreated(ev event.CartCreated)   { r.created = append(r.created, ev) }
func (r *eventsRecorder) PublishCartModified(ev event.CartModified) { r.modified = append(r.modified, ev) }
func (r *eventsRecorder) PublishCartCancelled(ev event.CartCancelled) {
	r.cancelled = append(r.cancelled, ev)
}
func (r *eventsRecorder) PublishLineCancelled(ev event.LineCancelled) {
	r.lines = append(r.lines, ev)
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newCartUsecase(cartRepo *CartRepoMock, productRepo *CartProductRepoMock, events *eventsRecorder) *usecase.CartUsecase {
	return usecase.NewCartUsecase(cartRepo, productRepo, events, &fixedClock{t: testNow})
}

func productWithPrice(id int64, price string) model.Product {
	return model.Product{ID: id, Title: "p", Price: decimal.RequireFromString(price)}
}

func assertErrStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
}

// =====================
// Create
// =====================

func TestCartUsecase_Create_RepricesAndEmitsCreated(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "10.00"), nil)

	var saved model.Cart
	cartRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.Cart) }).
		Return(model.Cart{ID: 7, UserID: 3, Total: decimal.RequireFromString("45.00")}, nil)

	out, err := uc.Create(context.Background(), usecase.CartInput{
		UserID: 3,
		Lines:  []usecase.CartLineInput{{ProductID: 1, Quantity: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.ID)

	// 保存前に値付けが済んでいる: qty5 → 10%引き、45.00
	require.Len(t, saved.Lines, 1)
	assert.True(t, saved.Lines[0].Discount.Equal(decimal.RequireFromString("0.1")))
	assert.True(t, saved.Lines[0].Total.Equal(decimal.RequireFromString("45.00")))
	assert.True(t, saved.Total.Equal(decimal.RequireFromString("45.00")))

	// CartCreatedが1件だけ、金額つきで出る
	require.Len(t, events.created, 1)
	assert.Equal(t, int64(7), events.created[0].CartID)
	assert.Equal(t, testNow, events.created[0].CreatedAt)
	assert.True(t, events.created[0].TotalAmount.Equal(decimal.RequireFromString("45.00")))
}

func TestCartUsecase_Create_MultiLineTotalIsSum(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "50.00"), nil)
	productRepo.On("FindByID", mock.Anything, int64(2)).Return(productWithPrice(2, "25.00"), nil)

	cartRepo.On("Create", mock.Anything, mock.Anything).
		Return(model.Cart{ID: 1, Total: decimal.RequireFromString("150.00")}, nil)

	// 2*50 + 2*25 = 150.00、割引なし
	_, err := uc.Create(context.Background(), usecase.CartInput{
		UserID: 1,
		Lines: []usecase.CartLineInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 2},
		},
	})
	require.NoError(t, err)

	require.Len(t, events.created, 1)
	assert.True(t, events.created[0].TotalAmount.Equal(decimal.RequireFromString("150.00")))
}

func TestCartUsecase_Create_PersistFailureEmitsNothing(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "10.00"), nil)
	cartRepo.On("Create", mock.Anything, mock.Anything).
		Return(model.Cart{}, assert.AnError)

	_, err := uc.Create(context.Background(), usecase.CartInput{
		UserID: 1,
		Lines:  []usecase.CartLineInput{{ProductID: 1, Quantity: 1}},
	})

	assertErrStatus(t, err, 500)
	assert.Empty(t, events.created)
}

func TestCartUsecase_Create_UnknownProductRejectedBeforePersist(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	productRepo.On("FindByID", mock.Anything, int64(99)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.Create(context.Background(), usecase.CartInput{
		UserID: 1,
		Lines:  []usecase.CartLineInput{{ProductID: 99, Quantity: 1}},
	})

	assertErrStatus(t, err, 400)
	cartRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, events.created)
}

func TestCartUsecase_Create_QuantityOverLimitRejected(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "10.00"), nil)

	_, err := uc.Create(context.Background(), usecase.CartInput{
		UserID: 1,
		Lines:  []usecase.CartLineInput{{ProductID: 1, Quantity: 21}},
	})

	assertErrStatus(t, err, 400)
	cartRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, events.created)
}

func TestCartUsecase_Create_EmptyLinesRejected(t *testing.T) {
	uc := newCartUsecase(new(CartRepoMock), new(CartProductRepoMock), &eventsRecorder{})

	_, err := uc.Create(context.Background(), usecase.CartInput{UserID: 1})
	assertErrStatus(t, err, 400)
}

func TestCartUsecase_Create_DuplicateProductRejected(t *testing.T) {
	uc := newCartUsecase(new(CartRepoMock), new(CartProductRepoMock), &eventsRecorder{})

	_, err := uc.Create(context.Background(), usecase.CartInput{
		UserID: 1,
		Lines: []usecase.CartLineInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 1, Quantity: 2},
		},
	})
	assertErrStatus(t, err, 400)
}

// =====================
// Update
// =====================

func TestCartUsecase_Update_RepricesAndEmitsModified(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	existing := model.Cart{
		ID:       5,
		UserID:   3,
		Revision: 2,
		Lines:    []model.CartLine{{ID: 1, CartID: 5, ProductID: 1, Quantity: 5}},
	}
	cartRepo.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)
	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "10.00"), nil)

	var saved model.Cart
	cartRepo.On("Update", mock.Anything, mock.Anything, int64(2)).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.Cart) }).
		Return(model.Cart{ID: 5, Revision: 3, Total: decimal.RequireFromString("96.00")}, nil)

	// qty 5 → 12 で 20%引きに変わる
	out, err := uc.Update(context.Background(), 5, usecase.CartInput{
		Lines: []usecase.CartLineInput{{ProductID: 1, Quantity: 12}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Revision)

	require.Len(t, saved.Lines, 1)
	assert.Equal(t, int64(12), saved.Lines[0].Quantity)
	assert.True(t, saved.Lines[0].Discount.Equal(decimal.RequireFromString("0.2")))
	assert.True(t, saved.Total.Equal(decimal.RequireFromString("96.00")))

	require.Len(t, events.modified, 1)
	assert.Equal(t, int64(5), events.modified[0].CartID)
	assert.True(t, events.modified[0].TotalAmount.Equal(decimal.RequireFromString("96.00")))
	assert.Empty(t, events.created)
}

func TestCartUsecase_Update_OmittedLinesKeepExisting(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	existing := model.Cart{
		ID:       5,
		UserID:   3,
		Revision: 2,
		Lines:    []model.CartLine{{ID: 1, CartID: 5, ProductID: 1, Quantity: 5}},
	}
	cartRepo.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)
	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "10.00"), nil)

	var saved model.Cart
	cartRepo.On("Update", mock.Anything, mock.Anything, int64(2)).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.Cart) }).
		Return(model.Cart{ID: 5, UserID: 9, Revision: 3, Total: decimal.RequireFromString("45.00")}, nil)

	// linesなしで所有者だけ付け替える。明細は消えない。
	out, err := uc.Update(context.Background(), 5, usecase.CartInput{UserID: 9})
	require.NoError(t, err)
	assert.Equal(t, int64(9), out.UserID)

	assert.Equal(t, int64(9), saved.UserID)
	require.Len(t, saved.Lines, 1)
	assert.Equal(t, int64(1), saved.Lines[0].ProductID)
	assert.Equal(t, int64(5), saved.Lines[0].Quantity)
	assert.True(t, saved.Total.Equal(decimal.RequireFromString("45.00")))

	require.Len(t, events.modified, 1)
	assert.True(t, events.modified[0].TotalAmount.Equal(decimal.RequireFromString("45.00")))
}

func TestCartUsecase_Update_EmptyLinesClearCart(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	existing := model.Cart{
		ID:       5,
		UserID:   3,
		Revision: 2,
		Lines:    []model.CartLine{{ID: 1, CartID: 5, ProductID: 1, Quantity: 5}},
	}
	cartRepo.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)

	var saved model.Cart
	cartRepo.On("Update", mock.Anything, mock.Anything, int64(2)).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.Cart) }).
		Return(model.Cart{ID: 5, UserID: 3, Revision: 3, Total: decimal.Zero}, nil)

	// 空配列は「すべて外す」の明示
	_, err := uc.Update(context.Background(), 5, usecase.CartInput{Lines: []usecase.CartLineInput{}})
	require.NoError(t, err)

	assert.Empty(t, saved.Lines)
	assert.True(t, saved.Total.IsZero())

	require.Len(t, events.modified, 1)
	assert.True(t, events.modified[0].TotalAmount.IsZero())
}

func TestCartUsecase_Update_NotFound(t *testing.T) {
	cartRepo := new(CartRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, new(CartProductRepoMock), events)

	cartRepo.On("FindByID", mock.Anything, int64(9)).Return(model.Cart{}, repo.ErrNotFound)

	_, err := uc.Update(context.Background(), 9, usecase.CartInput{
		Lines: []usecase.CartLineInput{{ProductID: 1, Quantity: 1}},
	})

	assertErrStatus(t, err, 404)
	assert.Empty(t, events.modified)
}

func TestCartUsecase_Update_RevisionConflict(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	existing := model.Cart{ID: 5, UserID: 3, Revision: 2}
	cartRepo.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)
	productRepo.On("FindByID", mock.Anything, int64(1)).Return(productWithPrice(1, "10.00"), nil)
	cartRepo.On("Update", mock.Anything, mock.Anything, int64(2)).
		Return(model.Cart{}, repo.ErrConflict)

	_, err := uc.Update(context.Background(), 5, usecase.CartInput{
		Lines: []usecase.CartLineInput{{ProductID: 1, Quantity: 1}},
	})

	assertErrStatus(t, err, 409)
	assert.Empty(t, events.modified)
}

// =====================
// Delete / RemoveLine
// =====================

func TestCartUsecase_Delete_EmitsCancelled(t *testing.T) {
	cartRepo := new(CartRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, new(CartProductRepoMock), events)

	cartRepo.On("Delete", mock.Anything, int64(4)).Return(nil)

	err := uc.Delete(context.Background(), 4)
	require.NoError(t, err)

	require.Len(t, events.cancelled, 1)
	assert.Equal(t, int64(4), events.cancelled[0].CartID)
	assert.Equal(t, testNow, events.cancelled[0].CancelledAt)
}

func TestCartUsecase_Delete_NotFoundEmitsNothing(t *testing.T) {
	cartRepo := new(CartRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, new(CartProductRepoMock), events)

	cartRepo.On("Delete", mock.Anything, int64(4)).Return(repo.ErrNotFound)

	err := uc.Delete(context.Background(), 4)

	assertErrStatus(t, err, 404)
	assert.Empty(t, events.cancelled)
}

func TestCartUsecase_RemoveLine_RepricesRemainderAndEmits(t *testing.T) {
	cartRepo := new(CartRepoMock)
	productRepo := new(CartProductRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, productRepo, events)

	existing := model.Cart{
		ID:       5,
		UserID:   3,
		Revision: 1,
		Lines: []model.CartLine{
			{ID: 1, CartID: 5, ProductID: 1, Quantity: 2},
			{ID: 2, CartID: 5, ProductID: 2, Quantity: 4},
		},
	}
	cartRepo.On("FindByID", mock.Anything, int64(5)).Return(existing, nil)
	productRepo.On("FindByID", mock.Anything, int64(2)).Return(productWithPrice(2, "5.00"), nil)

	var saved model.Cart
	cartRepo.On("Update", mock.Anything, mock.Anything, int64(1)).
		Run(func(args mock.Arguments) { saved = args.Get(1).(model.Cart) }).
		Return(model.Cart{ID: 5, Revision: 2, Total: decimal.RequireFromString("18.00")}, nil)

	_, err := uc.RemoveLine(context.Background(), 5, 1)
	require.NoError(t, err)

	// 残りは商品2のみ: 4 * 5.00 * 0.9 = 18.00
	require.Len(t, saved.Lines, 1)
	assert.Equal(t, int64(2), saved.Lines[0].ProductID)
	assert.True(t, saved.Total.Equal(decimal.RequireFromString("18.00")))

	require.Len(t, events.lines, 1)
	assert.Equal(t, int64(5), events.lines[0].CartID)
	assert.Equal(t, int64(1), events.lines[0].ProductID)
}

func TestCartUsecase_RemoveLine_MissingLine(t *testing.T) {
	cartRepo := new(CartRepoMock)
	events := &eventsRecorder{}
	uc := newCartUsecase(cartRepo, new(CartProductRepoMock), events)

	cartRepo.On("FindByID", mock.Anything, int64(5)).Return(model.Cart{ID: 5, Revision: 1}, nil)

	_, err := uc.RemoveLine(context.Background(), 5, 42)

	assertErrStatus(t, err, 404)
	assert.Empty(t, events.lines)
}

// =====================
// Get / List
// =====================

func TestCartUsecase_Get_NotFound(t *testing.T) {
	cartRepo := new(CartRepoMock)
	uc := newCartUsecase(cartRepo, new(CartProductRepoMock), &eventsRecorder{})

	cartRepo.On("FindByID", mock.Anything, int64(1)).Return(model.Cart{}, repo.ErrNotFound)

	_, err := uc.Get(context.Background(), 1)
	assertErrStatus(t, err, 404)
}

func TestCartUsecase_List_PaginationMetadata(t *testing.T) {
	cartRepo := new(CartRepoMock)
	uc := newCartUsecase(cartRepo, new(CartProductRepoMock), &eventsRecorder{})

	cartRepo.On("List", mock.Anything, repo.ListQuery{Page: 2, Size: 10, Sort: "date desc"}).
		Return([]model.Cart{{ID: 11}}, int64(25), nil)

	out, err := uc.List(context.Background(), usecase.ListInput{Page: 2, Size: 10, Sort: "date desc"})
	require.NoError(t, err)

	assert.Equal(t, int64(25), out.TotalItems)
	assert.Equal(t, 2, out.CurrentPage)
	assert.Equal(t, 3, out.TotalPages) // ceil(25/10)
	require.Len(t, out.Data, 1)
}
