package firestore

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

func TestFeeRecordDocKeepsExactAmounts(t *testing.T) {
	toggles := issuance.FeatureToggles{RevokeFreeze: true, RevokeUpdate: true}
	q := issuance.QuoteFee(toggles)
	rec := issuance.NewFeeRecord("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL", toggles, q, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	doc := feeRecordToDoc(rec)
	assert.Equal(t, "0.3", doc.TotalFee)

	got, err := feeRecordFromDoc(rec.ID, doc)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.3").Equal(got.TotalFee))
	assert.True(t, got.RevokeFreeze)
	assert.False(t, got.RevokeMint)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.Equal(t, rec.ID, got.ID)
}

func TestFeeRecordFromDocRejectsBadAmount(t *testing.T) {
	_, err := feeRecordFromDoc("r1", feeRecordDoc{BaseFee: "0.1", PerToggleFee: "0.1", TotalFee: "abc"})
	assert.Error(t, err)
}

func TestRecordRepositoryNilClient(t *testing.T) {
	var r *RecordRepositoryFS
	assert.Error(t, r.RecordFee(context.Background(), issuance.FeeRecord{}))
	assert.Error(t, r.RecordListingRequest(context.Background(), issuance.ListingRequest{}))
	_, err := r.ListFeeRecords(context.Background(), "x")
	assert.Error(t, err)
}
