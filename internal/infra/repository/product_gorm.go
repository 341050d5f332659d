package repository

import (
	"context"
	"errors"
	"strings"

	"salesapi/internal/domain/model"
	repo "salesapi/internal/repository"
	"salesapi/internal/sortspec"

	"gorm.io/gorm"
)

// sortspecで受け付けるフィールド名→カラム名（小文字で引く）
var productSortColumns = map[string]string{
	"id":       "id",
	"title":    "title",
	"price":    "price",
	"category": "category",
	"rate":     "rating_rate",
	"count":    "rating_count",
}

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 商品をソート/ページング付きで返す。
func (r *ProductGormRepository) List(ctx context.Context, q repo.ListQuery) ([]model.Product, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&model.Product{}), q)
}

// カテゴリで絞った一覧。
func (r *ProductGormRepository) ListByCategory(ctx context.Context, category string, q repo.ListQuery) ([]model.Product, int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("category ILIKE ?", strings.TrimSpace(category))
	return r.list(ctx, tx, q)
}

func (r *ProductGormRepository) list(_ context.Context, tx *gorm.DB, q repo.ListQuery) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	if order := sortspec.Clause(q.Sort, productSortColumns); order != "" {
		tx = tx.Order(order)
	}
	tx = tx.Order("id asc")

	if err := tx.Offset(q.Offset()).Limit(q.Size).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return products, total, nil
}

// 登録済みのカテゴリ名を重複なしで返す。
func (r *ProductGormRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string

	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Distinct("category").
		Order("category asc").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}

	return categories, nil
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（評価サマリ込み）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) (model.Product, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"title":        p.Title,
		"price":        p.Price,
		"description":  p.Description,
		"category":     p.Category,
		"image":        p.Image,
		"rating_rate":  p.Rating.Rate,
		"rating_count": p.Rating.Count,
	})
	if res.Error != nil {
		return model.Product{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Product{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, p.ID)
}

// 商品削除
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
