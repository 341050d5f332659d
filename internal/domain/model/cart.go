package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart はユーザー1人の買い物かご。
// Total は常に明細小計の和で、呼び出し側が直接セットすることはない。
// Revision は楽観ロック用のカウンタで、更新のたびに+1される。
type Cart struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"not null;index" json:"user_id"`
	Date      time.Time       `gorm:"not null" json:"date"`
	Revision  int64           `gorm:"not null;default:0" json:"revision"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Lines     []CartLine      `gorm:"foreignKey:CartID" json:"lines"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// CartLine はカートの明細。カートと生死を共にする。
// Discount と Total は値付けエンジンが導出した値。
type CartLine struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64           `gorm:"not null;index" json:"cart_id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	Discount  decimal.Decimal `gorm:"type:numeric(4,2);not null" json:"discount"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
}
