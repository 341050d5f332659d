package repository

import (
	"context"

	"salesapi/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	List(ctx context.Context, q ListQuery) ([]model.User, int64, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	// ログイン用。usernameは一意。
	FindByUsername(ctx context.Context, username string) (model.User, error)

	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
}
