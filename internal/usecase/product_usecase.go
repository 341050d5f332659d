package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"salesapi/internal/domain/model"
	repo "salesapi/internal/repository"
	"salesapi/internal/sortspec"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 一覧系の共通入力。pageとsizeは不正値なら既定に倒す。
type ListInput struct {
	Page int
	Size int
	Sort string
}

func (in ListInput) query() repo.ListQuery {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Size < 1 {
		in.Size = 10
	}
	return repo.ListQuery{Page: in.Page, Size: in.Size, Sort: in.Sort}
}

type ProductUsecase struct {
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo}
}

type ProductInput struct {
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      model.Rating    `json:"rating"`
}

func validateProductInput(in ProductInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return NewHTTPError(http.StatusBadRequest, "title is required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) List(ctx context.Context, in ListInput) (repo.Page[model.Product], error) {
	q := in.query()

	items, total, err := u.productRepo.List(ctx, q)
	if err != nil {
		return repo.Page[model.Product]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return repo.NewPage(items, total, q), nil
}

func (u *ProductUsecase) ListByCategory(ctx context.Context, category string, in ListInput) (repo.Page[model.Product], error) {
	if strings.TrimSpace(category) == "" {
		return repo.Page[model.Product]{}, NewHTTPError(http.StatusBadRequest, "category is required")
	}

	q := in.query()

	items, total, err := u.productRepo.ListByCategory(ctx, category, q)
	if err != nil {
		return repo.Page[model.Product]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return repo.NewPage(items, total, q), nil
}

func (u *ProductUsecase) Categories(ctx context.Context) ([]string, error) {
	categories, err := u.productRepo.Categories(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	// DISTINCTの結果は順不同なので名前順に揃える
	sortspec.Sort(categories, "name", map[string]func(a, b string) int{
		"name": strings.Compare,
	})
	return categories, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		Category:    in.Category,
		Image:       in.Image,
		Rating:      in.Rating,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	updated, err := u.productRepo.Update(ctx, model.Product{
		ID:          id,
		Title:       in.Title,
		Price:       in.Price,
		Description: in.Description,
		Category:    in.Category,
		Image:       in.Image,
		Rating:      in.Rating,
	})
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.productRepo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
