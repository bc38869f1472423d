package issuance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuoteFee(t *testing.T) {
	test := func(name string, toggles FeatureToggles, expectedTotal string, expectedCount int) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			q := QuoteFee(toggles)
			assert.True(t, decimal.RequireFromString(expectedTotal).Equal(q.TotalFee), "total=%s", q.TotalFee)
			assert.Len(t, q.EnabledToggles, expectedCount)
			assert.True(t, q.TotalFee.GreaterThanOrEqual(q.BaseFee))

			expected := q.BaseFee.Add(q.PerToggleFee.Mul(decimal.NewFromInt(int64(expectedCount))))
			assert.True(t, expected.Equal(q.TotalFee))
		})
	}

	test("none", FeatureToggles{}, "0.1", 0)
	test("modifyCreator", FeatureToggles{ModifyCreator: true}, "0.2", 1)
	test("revokeFreeze", FeatureToggles{RevokeFreeze: true}, "0.2", 1)
	test("revokeMint+revokeUpdate", FeatureToggles{RevokeMint: true, RevokeUpdate: true}, "0.3", 2)
	test("three", FeatureToggles{ModifyCreator: true, RevokeFreeze: true, RevokeUpdate: true}, "0.4", 3)
	test("all", FeatureToggles{ModifyCreator: true, RevokeFreeze: true, RevokeMint: true, RevokeUpdate: true}, "0.5", 4)
}

func TestQuoteFeeIsIdempotent(t *testing.T) {
	toggles := FeatureToggles{RevokeFreeze: true, RevokeMint: true}
	a := QuoteFee(toggles)
	b := QuoteFee(toggles)
	assert.True(t, a.TotalFee.Equal(b.TotalFee))
	assert.Equal(t, a.EnabledToggles, b.EnabledToggles)
	assert.Equal(t, a.TotalLamports(), b.TotalLamports())
}

func TestQuoteFeeIsOrderIndependent(t *testing.T) {
	// トグルの評価順を入れ替えても合計は同じ
	all := []func(*FeatureToggles){
		func(f *FeatureToggles) { f.ModifyCreator = true },
		func(f *FeatureToggles) { f.RevokeFreeze = true },
		func(f *FeatureToggles) { f.RevokeMint = true },
		func(f *FeatureToggles) { f.RevokeUpdate = true },
	}
	orders := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}

	var first *FeeQuote
	for _, order := range orders {
		var toggles FeatureToggles
		for _, i := range order {
			all[i](&toggles)
		}
		q := QuoteFee(toggles)
		if first == nil {
			first = &q
			continue
		}
		assert.True(t, first.TotalFee.Equal(q.TotalFee))
	}
}

func TestFeeQuoteTotalLamports(t *testing.T) {
	q := QuoteFee(FeatureToggles{ModifyCreator: true, RevokeFreeze: true, RevokeMint: true, RevokeUpdate: true})
	assert.Equal(t, uint64(500_000_000), q.TotalLamports())
	assert.InDelta(t, 0.5, q.Float(), 1e-12)
}

func TestFeePolicyNegativeCoefficients(t *testing.T) {
	p := FeePolicy{BaseFee: decimal.NewFromInt(-1), PerToggleFee: decimal.NewFromInt(-1)}
	q := p.Quote(FeatureToggles{RevokeMint: true})
	assert.True(t, q.TotalFee.IsZero())
	assert.Equal(t, uint64(0), q.TotalLamports())
}
