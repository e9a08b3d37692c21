package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// 最小通貨単位から表示用の金額へ（例: 24900 sek -> "249.00 SEK"）
func FormatMoney(minor int64, currency string) string {
	return decimal.New(minor, -2).StringFixed(2) + " " + strings.ToUpper(currency)
}

func MinorToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
