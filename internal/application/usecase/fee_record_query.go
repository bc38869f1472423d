// internal/application/usecase/fee_record_query.go
package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

var ErrFeeRecordsNotConfigured = errors.New("fee_record_query: record reader not configured")

// FeeRecordQuery serves GET /fee-records.
type FeeRecordQuery struct {
	reader issuance.RecordReader
}

func NewFeeRecordQuery(reader issuance.RecordReader) *FeeRecordQuery {
	return &FeeRecordQuery{reader: reader}
}

// ListByMint returns the fee rows written for mintAddress, oldest first.
func (q *FeeRecordQuery) ListByMint(ctx context.Context, mintAddress string) ([]issuance.FeeRecord, error) {
	if q == nil || q.reader == nil {
		return nil, ErrFeeRecordsNotConfigured
	}
	mint := strings.TrimSpace(mintAddress)
	if !issuance.IsValidAddress(mint) {
		return nil, &issuance.ValidationError{Field: "mintAddress", Cause: issuance.ErrInvalidAddress}
	}
	recs, err := q.reader.ListFeeRecords(ctx, mint)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []issuance.FeeRecord{}
	}
	return recs, nil
}
