package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rating は商品の評価サマリ。
type Rating struct {
	Rate  float64 `gorm:"column:rating_rate;not null;default:0" json:"rate"`
	Count int     `gorm:"column:rating_count;not null;default:0" json:"count"`
}

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(100);index" json:"category"`
	Image       string          `gorm:"type:text" json:"image"`
	Rating      Rating          `gorm:"embedded" json:"rating"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
