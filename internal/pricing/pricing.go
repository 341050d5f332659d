package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// 1明細あたりの購入上限
const MaxQuantityPerLine = 20

var (
	// 参照先の商品が存在しない
	ErrProductNotFound = errors.New("product not found")
	// 上限超え
	ErrQuantityLimitExceeded = errors.New("cannot purchase more than 20 units per line")
	// 数量が1未満
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Line は値付け前の明細（商品と数量）。
type Line struct {
	ProductID int64
	Quantity  int64
}

// Priced は値付け後の明細。
type Priced struct {
	ProductID int64
	Quantity  int64
	Discount  decimal.Decimal
	Total     decimal.Decimal
}

// Lookup は商品IDから現在の単価を引く。見つからなければ false。
type Lookup func(productID int64) (decimal.Decimal, bool)

var (
	discount10 = decimal.NewFromFloat(0.10)
	discount20 = decimal.NewFromFloat(0.20)
	one        = decimal.NewFromInt(1)
)

// Discount は数量に応じた割引率を返す。
//
//	1〜3:   0%
//	4〜9:   10%
//	10〜20: 20%
//	21〜:   エラー
func Discount(quantity int64) (decimal.Decimal, error) {
	switch {
	case quantity < 1:
		return decimal.Zero, ErrInvalidQuantity
	case quantity > MaxQuantityPerLine:
		return decimal.Zero, ErrQuantityLimitExceeded
	case quantity >= 10:
		return discount20, nil
	case quantity >= 4:
		return discount10, nil
	default:
		return decimal.Zero, nil
	}
}

// Reprice は全明細の割引と小計、カート合計を計算する。
// 入力と単価だけで決まる純粋な計算で、どれか1明細でも弾かれたら全体を失敗させる。
// 小計は 数量×単価×(1-割引率) を小数第2位（通貨の最小単位）に丸め、
// 合計は小計の正確な和。
func Reprice(lines []Line, lookup Lookup) ([]Priced, decimal.Decimal, error) {
	priced := make([]Priced, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		disc, err := Discount(line.Quantity)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("product %d: %w", line.ProductID, err)
		}

		unitPrice, ok := lookup(line.ProductID)
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("product %d: %w", line.ProductID, ErrProductNotFound)
		}

		lineTotal := unitPrice.
			Mul(decimal.NewFromInt(line.Quantity)).
			Mul(one.Sub(disc)).
			Round(2)

		priced = append(priced, Priced{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Discount:  disc,
			Total:     lineTotal,
		})
		total = total.Add(lineTotal)
	}

	return priced, total, nil
}
