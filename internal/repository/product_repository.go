package repository

import (
	"context"
	"errors"

	"salesapi/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// ListQuery は一覧系の共通パラメータ。Sort はsortspec形式の文字列。
type ListQuery struct {
	Page int
	Size int
	Sort string
}

func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.Size
}

// Page はページング付きの取得結果。
type Page[T any] struct {
	Data        []T   `json:"data"`
	TotalItems  int64 `json:"totalItems"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
}

// NewPage は件数とクエリから TotalPages = ceil(totalItems/size) を埋める。
func NewPage[T any](data []T, totalItems int64, q ListQuery) Page[T] {
	totalPages := 0
	if q.Size > 0 {
		totalPages = int((totalItems + int64(q.Size) - 1) / int64(q.Size))
	}
	return Page[T]{
		Data:        data,
		TotalItems:  totalItems,
		CurrentPage: q.Page,
		TotalPages:  totalPages,
	}
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ListQuery) ([]model.Product, int64, error)
	ListByCategory(ctx context.Context, category string, q ListQuery) ([]model.Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) (model.Product, error)
	Delete(ctx context.Context, id int64) error
}
