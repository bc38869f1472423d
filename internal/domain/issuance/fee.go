// internal/domain/issuance/fee.go
package issuance

import (
	"github.com/shopspring/decimal"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

var lamportsPerSOL = decimal.NewFromInt(LamportsPerSOL)

// FeePolicy は手数料計算の係数。値オブジェクトなので共有してよい。
type FeePolicy struct {
	BaseFee      decimal.Decimal
	PerToggleFee decimal.Decimal
}

// DefaultFeePolicy: base 0.1 SOL + 0.1 SOL / toggle
var DefaultFeePolicy = FeePolicy{
	BaseFee:      decimal.New(1, -1),
	PerToggleFee: decimal.New(1, -1),
}

// FeeQuote は FeePolicy から決定的に導出される見積り。保存はせず毎回再計算する。
type FeeQuote struct {
	BaseFee        decimal.Decimal `json:"baseFee"`
	PerToggleFee   decimal.Decimal `json:"perToggleFee"`
	EnabledToggles []Toggle        `json:"enabledToggles"`
	TotalFee       decimal.Decimal `json:"totalFee"`
}

// QuoteFee quotes with DefaultFeePolicy.
func QuoteFee(t FeatureToggles) FeeQuote {
	return DefaultFeePolicy.Quote(t)
}

// Quote returns BaseFee + PerToggleFee × (number of enabled toggles).
// 負の係数は 0 として扱うので TotalFee >= BaseFee が常に成り立つ。
func (p FeePolicy) Quote(t FeatureToggles) FeeQuote {
	base := nonNegative(p.BaseFee)
	per := nonNegative(p.PerToggleFee)
	enabled := t.Enabled()

	total := base.Add(per.Mul(decimal.NewFromInt(int64(len(enabled)))))

	return FeeQuote{
		BaseFee:        base,
		PerToggleFee:   per,
		EnabledToggles: enabled,
		TotalFee:       total,
	}
}

// TotalLamports converts TotalFee to lamports, truncating sub-lamport digits.
func (q FeeQuote) TotalLamports() uint64 {
	l := q.TotalFee.Mul(lamportsPerSOL).Truncate(0)
	if l.Sign() <= 0 {
		return 0
	}
	return uint64(l.IntPart())
}

// Float returns TotalFee as float64 for the JSON `totalFee: number` field.
func (q FeeQuote) Float() float64 {
	f, _ := q.TotalFee.Float64()
	return f
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.Sign() < 0 {
		return decimal.Zero
	}
	return d
}
