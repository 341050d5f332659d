package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"salesapi/internal/domain/event"
	"salesapi/internal/domain/model"
	"salesapi/internal/pricing"
	repo "salesapi/internal/repository"

	"github.com/shopspring/decimal"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// イベントを発行する約束。失敗しても戻ってこない（best-effort）。
type EventPublisher interface {
	PublishCartCreated(ev event.CartCreated)
	PublishCartModified(ev event.CartModified)
	PublishCartCancelled(ev event.CartCancelled)
	PublishLineCancelled(ev event.LineCancelled)
}

// CartUsecase はカートの生成・更新・削除を取り仕切る。
// 値付け→永続化→イベント発行の順を守り、
// イベントは永続化が成功した後にだけ発行する。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	events      EventPublisher
	clock       Clock
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	productRepo repo.ProductRepository,
	events EventPublisher,
	clock Clock,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		events:      events,
		clock:       clock,
	}
}

type CartLineInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CartInput struct {
	UserID int64           `json:"user_id"`
	Date   time.Time       `json:"date"`
	Lines  []CartLineInput `json:"lines"`
}

func (u *CartUsecase) List(ctx context.Context, in ListInput) (repo.Page[model.Cart], error) {
	q := in.query()

	items, total, err := u.cartRepo.List(ctx, q)
	if err != nil {
		return repo.Page[model.Cart]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return repo.NewPage(items, total, q), nil
}

func (u *CartUsecase) Get(ctx context.Context, id int64) (model.Cart, error) {
	if id <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid cart id")
	}

	cart, err := u.cartRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cart, nil
}

// Create はカートを新規作成する。
// 永続化に失敗したらイベントは出さない（存在しないカートの通知を防ぐ）。
func (u *CartUsecase) Create(ctx context.Context, in CartInput) (model.Cart, error) {
	if in.UserID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	if len(in.Lines) == 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "cart has no lines")
	}
	if err := validateLines(in.Lines); err != nil {
		return model.Cart{}, err
	}

	priced, total, err := u.reprice(ctx, in.Lines)
	if err != nil {
		return model.Cart{}, err
	}

	date := in.Date
	if date.IsZero() {
		date = u.clock.Now()
	}

	created, err := u.cartRepo.Create(ctx, model.Cart{
		UserID: in.UserID,
		Date:   date,
		Total:  total,
		Lines:  toModelLines(0, priced),
	})
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.events.PublishCartCreated(event.CartCreated{
		CartID:      created.ID,
		CreatedAt:   u.clock.Now(),
		TotalAmount: created.Total,
	})
	return created, nil
}

// Update は明細を商品ID単位で差し替えてから全体を値付けし直す。
// 読んだ時点のrevisionのまま書けなければ409で返す。
func (u *CartUsecase) Update(ctx context.Context, id int64, in CartInput) (model.Cart, error) {
	if id <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid cart id")
	}

	existing, err := u.cartRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// linesが省略されたら既存の明細を維持する。空配列は明示的なクリア。
	lines := in.Lines
	if lines == nil {
		lines = make([]CartLineInput, 0, len(existing.Lines))
		for _, line := range existing.Lines {
			lines = append(lines, CartLineInput{ProductID: line.ProductID, Quantity: line.Quantity})
		}
	}
	if err := validateLines(lines); err != nil {
		return model.Cart{}, err
	}

	priced, total, err := u.reprice(ctx, lines)
	if err != nil {
		return model.Cart{}, err
	}

	if in.UserID > 0 {
		existing.UserID = in.UserID
	}
	if !in.Date.IsZero() {
		existing.Date = in.Date
	}
	existing.Total = total
	existing.Lines = toModelLines(existing.ID, priced)

	updated, err := u.cartRepo.Update(ctx, existing, existing.Revision)
	if err != nil {
		return model.Cart{}, translateWriteError(err)
	}

	u.events.PublishCartModified(event.CartModified{
		CartID:      updated.ID,
		ModifiedAt:  u.clock.Now(),
		TotalAmount: updated.Total,
	})
	return updated, nil
}

// Delete は明細ごとカートを消す。成功後にCartCancelledを発行する。
func (u *CartUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid cart id")
	}

	err := u.cartRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.events.PublishCartCancelled(event.CartCancelled{
		CartID:      id,
		CancelledAt: u.clock.Now(),
	})
	return nil
}

// RemoveLine は1明細だけ取り除き、残りを値付けし直す。
func (u *CartUsecase) RemoveLine(ctx context.Context, cartID, productID int64) (model.Cart, error) {
	if cartID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid cart id")
	}
	if productID <= 0 {
		return model.Cart{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	existing, err := u.cartRepo.FindByID(ctx, cartID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	remaining := make([]CartLineInput, 0, len(existing.Lines))
	found := false
	for _, line := range existing.Lines {
		if line.ProductID == productID {
			found = true
			continue
		}
		remaining = append(remaining, CartLineInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	if !found {
		return model.Cart{}, NewHTTPError(http.StatusNotFound, "line not found")
	}

	priced, total, err := u.reprice(ctx, remaining)
	if err != nil {
		return model.Cart{}, err
	}

	existing.Total = total
	existing.Lines = toModelLines(existing.ID, priced)

	updated, err := u.cartRepo.Update(ctx, existing, existing.Revision)
	if err != nil {
		return model.Cart{}, translateWriteError(err)
	}

	u.events.PublishLineCancelled(event.LineCancelled{
		CartID:      cartID,
		ProductID:   productID,
		CancelledAt: u.clock.Now(),
	})
	return updated, nil
}

func validateLines(lines []CartLineInput) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID <= 0 {
			return NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if line.Quantity < 1 {
			return NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if _, dup := seen[line.ProductID]; dup {
			return NewHTTPError(http.StatusBadRequest, "duplicate product in cart")
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

// reprice は現在の単価を集めて値付けエンジンにかける。
// 値付けの失敗は永続化の前なので、ここで弾けば部分更新は起きない。
func (u *CartUsecase) reprice(ctx context.Context, lines []CartLineInput) ([]pricing.Priced, decimal.Decimal, error) {
	prices := make(map[int64]decimal.Decimal, len(lines))
	for _, line := range lines {
		if _, ok := prices[line.ProductID]; ok {
			continue
		}
		p, err := u.productRepo.FindByID(ctx, line.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			continue // lookupがfalseを返し、値付け側でエラーになる
		}
		if err != nil {
			return nil, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		prices[line.ProductID] = p.Price
	}

	plain := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		plain = append(plain, pricing.Line{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	priced, total, err := pricing.Reprice(plain, func(productID int64) (decimal.Decimal, bool) {
		price, ok := prices[productID]
		return price, ok
	})
	if err != nil {
		return nil, decimal.Zero, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return priced, total, nil
}

func translateWriteError(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "cart not found")
	case errors.Is(err, repo.ErrConflict):
		return NewHTTPError(http.StatusConflict, "cart was modified concurrently")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

func toModelLines(cartID int64, priced []pricing.Priced) []model.CartLine {
	lines := make([]model.CartLine, 0, len(priced))
	for _, p := range priced {
		lines = append(lines, model.CartLine{
			CartID:    cartID,
			ProductID: p.ProductID,
			Quantity:  p.Quantity,
			Discount:  p.Discount,
			Total:     p.Total,
		})
	}
	return lines
}
