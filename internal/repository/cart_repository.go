package repository

import (
	"context"
	"errors"

	"salesapi/internal/domain/model"
)

// 読んだ時点のrevisionが書き込みまでに進んでいた
var ErrConflict = errors.New("conflict")

// カートと明細の永続化を約束。明細はカートと一緒に読み書きする。
type CartRepository interface {
	List(ctx context.Context, q ListQuery) ([]model.Cart, int64, error)
	// FindByID は明細込みで1件取得する。
	FindByID(ctx context.Context, id int64) (model.Cart, error)

	// Create はカートと明細を1トランザクションで保存する。
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)

	// Update は expectedRevision が一致する場合だけ、明細の差し替えと
	// 合計・revisionの更新を1トランザクションで行う。
	// 進んでいたら ErrConflict、消えていたら ErrNotFound。
	Update(ctx context.Context, cart model.Cart, expectedRevision int64) (model.Cart, error)

	// Delete は明細を先に外してからカート本体を消す。
	Delete(ctx context.Context, id int64) error
}
