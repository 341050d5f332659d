package repository

import (
	"context"
	"errors"

	"salesapi/internal/domain/model"
	repo "salesapi/internal/repository"
	"salesapi/internal/sortspec"

	"gorm.io/gorm"
)

var cartSortColumns = map[string]string{
	"id":     "id",
	"userid": "user_id",
	"date":   "date",
	"total":  "total",
}

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// カートを明細込みで一覧取得。
func (r *CartGormRepository) List(ctx context.Context, q repo.ListQuery) ([]model.Cart, int64, error) {
	var carts []model.Cart
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Cart{})

	if err := tx.Count(&total).Error; err != nil {
		return []model.Cart{}, 0, err
	}

	if order := sortspec.Clause(q.Sort, cartSortColumns); order != "" {
		tx = tx.Order(order)
	}
	tx = tx.Order("id asc")

	err := tx.Preload("Lines").
		Offset(q.Offset()).Limit(q.Size).
		Find(&carts).Error
	if err != nil {
		return []model.Cart{}, 0, err
	}

	return carts, total, nil
}

// 明細込みで1件取得。
func (r *CartGormRepository) FindByID(ctx context.Context, id int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&cart, id).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// カートと明細をまとめて作成。
func (r *CartGormRepository) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	if err := r.db.WithContext(ctx).Create(&cart).Error; err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

// カート本体と明細を1トランザクションで差し替える。
// revisionがexpectedRevisionから進んでいたら何も書かずに ErrConflict。
func (r *CartGormRepository) Update(ctx context.Context, cart model.Cart, expectedRevision int64) (model.Cart, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Cart{}).
			Where("id = ? AND revision = ?", cart.ID, expectedRevision).
			Updates(map[string]interface{}{
				"user_id":  cart.UserID,
				"date":     cart.Date,
				"total":    cart.Total,
				"revision": expectedRevision + 1,
			})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			// 消えたのか、revisionが進んだのかを区別する
			var exists int64
			if err := tx.Model(&model.Cart{}).
				Where("id = ?", cart.ID).
				Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return repo.ErrNotFound
			}
			return repo.ErrConflict
		}

		// 新しい明細セットに無い商品の行を消す
		productIDs := make([]int64, 0, len(cart.Lines))
		for _, line := range cart.Lines {
			productIDs = append(productIDs, line.ProductID)
		}

		del := tx.Where("cart_id = ?", cart.ID)
		if len(productIDs) > 0 {
			del = del.Where("product_id NOT IN ?", productIDs)
		}
		if err := del.Delete(&model.CartLine{}).Error; err != nil {
			return err
		}

		// 残りは商品単位でupsert
		for _, line := range cart.Lines {
			res := tx.Model(&model.CartLine{}).
				Where("cart_id = ? AND product_id = ?", cart.ID, line.ProductID).
				Updates(map[string]interface{}{
					"quantity": line.Quantity,
					"discount": line.Discount,
					"total":    line.Total,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				continue
			}

			newLine := model.CartLine{
				CartID:    cart.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Discount:  line.Discount,
				Total:     line.Total,
			}
			if err := tx.Create(&newLine).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return model.Cart{}, err
	}

	return r.FindByID(ctx, cart.ID)
}

// 明細を先に外してからカート本体を消す。
func (r *CartGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart model.Cart
		if err := tx.First(&cart, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		if err := tx.Where("cart_id = ?", id).Delete(&model.CartLine{}).Error; err != nil {
			return err
		}

		return tx.Delete(&model.Cart{}, id).Error
	})
}
