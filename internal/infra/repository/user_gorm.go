package repository

import (
	"context"
	"errors"

	"salesapi/internal/domain/model"
	repo "salesapi/internal/repository"
	"salesapi/internal/sortspec"

	"gorm.io/gorm"
)

var userSortColumns = map[string]string{
	"id":       "id",
	"username": "username",
	"email":    "email",
	"status":   "status",
	"role":     "role",
	"city":     "addr_city",
}

type UserGormRepository struct {
	db *gorm.DB
}

// DI
func NewUserGormRepository(db *gorm.DB) *UserGormRepository {
	return &UserGormRepository{db: db}
}

func (r *UserGormRepository) List(ctx context.Context, q repo.ListQuery) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.User{})

	if err := tx.Count(&total).Error; err != nil {
		return []model.User{}, 0, err
	}

	if order := sortspec.Clause(q.Sort, userSortColumns); order != "" {
		tx = tx.Order(order)
	}
	tx = tx.Order("id asc")

	if err := tx.Offset(q.Offset()).Limit(q.Size).Find(&users).Error; err != nil {
		return []model.User{}, 0, err
	}

	return users, total, nil
}

func (r *UserGormRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, repo.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserGormRepository) FindByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, repo.ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserGormRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserGormRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"email":          u.Email,
		"username":       u.Username,
		"password_hash":  u.PasswordHash,
		"name_firstname": u.Name.Firstname,
		"name_lastname":  u.Name.Lastname,
		"addr_city":      u.Address.City,
		"addr_street":    u.Address.Street,
		"addr_number":    u.Address.Number,
		"addr_zipcode":   u.Address.Zipcode,
		"addr_geo_lat":   u.Address.Geolocation.Lat,
		"addr_geo_long":  u.Address.Geolocation.Long,
		"phone":          u.Phone,
		"status":         u.Status,
		"role":           u.Role,
	})
	if res.Error != nil {
		return model.User{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.User{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, u.ID)
}

func (r *UserGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
