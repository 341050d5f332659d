package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// カート系イベントはすべて1つのexchangeに流し、routing keyで種類を分ける。
const Exchange = "sales.exchange"

const (
	KeyCartCreated   = "sales.created"
	KeyCartModified  = "sales.modified"
	KeyCartCancelled = "sales.cancelled"
	KeyLineCancelled = "items.cancelled"
)

// CartCreated はカート作成の成功後に1回だけ発行される。
type CartCreated struct {
	CartID      int64           `json:"cart_id"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type CartModified struct {
	CartID      int64           `json:"cart_id"`
	ModifiedAt  time.Time       `json:"modified_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type CartCancelled struct {
	CartID      int64     `json:"cart_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type LineCancelled struct {
	CartID      int64     `json:"cart_id"`
	ProductID   int64     `json:"product_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}
