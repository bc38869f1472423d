// internal/domain/issuance/repository_port.go
package issuance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeRecord は mint ごとの手数料内訳。オンチェーン確認とは独立に、
// トランザクション組み立て直後に書き込まれる。
type FeeRecord struct {
	ID            string          `json:"id"`
	MintAddress   string          `json:"mintAddress"`
	OwnerAddress  string          `json:"ownerAddress"`
	BaseFee       decimal.Decimal `json:"baseFee"`
	PerToggleFee  decimal.Decimal `json:"perToggleFee"`
	ModifyCreator bool            `json:"modifyCreator"`
	RevokeFreeze  bool            `json:"revokeFreeze"`
	RevokeMint    bool            `json:"revokeMint"`
	RevokeUpdate  bool            `json:"revokeUpdate"`
	TotalFee      decimal.Decimal `json:"totalFee"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ListingRequest は DEX 上場依頼の行。
type ListingRequest struct {
	ID           string    `json:"id"`
	MintAddress  string    `json:"mintAddress"`
	OwnerAddress string    `json:"ownerAddress"`
	Venue        string    `json:"venue"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	VenueRaydium         = "raydium"
	ListingStatusPending = "pending"
)

// NewFeeRecord builds the row for mintAddress from a quote.
func NewFeeRecord(mintAddress, ownerAddress string, t FeatureToggles, q FeeQuote, now time.Time) FeeRecord {
	return FeeRecord{
		ID:            uuid.NewString(),
		MintAddress:   strings.TrimSpace(mintAddress),
		OwnerAddress:  strings.TrimSpace(ownerAddress),
		BaseFee:       q.BaseFee,
		PerToggleFee:  q.PerToggleFee,
		ModifyCreator: t.ModifyCreator,
		RevokeFreeze:  t.RevokeFreeze,
		RevokeMint:    t.RevokeMint,
		RevokeUpdate:  t.RevokeUpdate,
		TotalFee:      q.TotalFee,
		CreatedAt:     now.UTC(),
	}
}

// NewListingRequest validates both addresses and builds a pending row.
func NewListingRequest(mintAddress, ownerAddress string, now time.Time) (ListingRequest, error) {
	mint := strings.TrimSpace(mintAddress)
	if !IsValidAddress(mint) {
		return ListingRequest{}, invalid("mintAddress", ErrInvalidAddress)
	}
	owner := strings.TrimSpace(ownerAddress)
	if !IsValidAddress(owner) {
		return ListingRequest{}, invalid("ownerAddress", ErrInvalidAddress)
	}
	return ListingRequest{
		ID:           uuid.NewString(),
		MintAddress:  mint,
		OwnerAddress: owner,
		Venue:        VenueRaydium,
		Status:       ListingStatusPending,
		CreatedAt:    now.UTC(),
	}, nil
}

// RecordWriter は帳簿テーブルへの追記のみを行うポート。
// 実装: Firestore / PostgreSQL
type RecordWriter interface {
	RecordFee(ctx context.Context, rec FeeRecord) error
	RecordListingRequest(ctx context.Context, req ListingRequest) error
}

// RecordReader は手数料行の参照用ポート。
type RecordReader interface {
	ListFeeRecords(ctx context.Context, mintAddress string) ([]FeeRecord, error)
}

// RecordRepository combines both sides.
type RecordRepository interface {
	RecordWriter
	RecordReader
}

var (
	ErrRecordConflict = errors.New("issuance: record already exists")
)

// RecordsTableDDL defines the append-only bookkeeping tables (PostgreSQL).
const RecordsTableDDL = `
BEGIN;

CREATE TABLE IF NOT EXISTS fee_records (
  id              UUID        PRIMARY KEY,
  mint_address    TEXT        NOT NULL,
  owner_address   TEXT        NOT NULL,
  base_fee        NUMERIC(20,9) NOT NULL,
  per_toggle_fee  NUMERIC(20,9) NOT NULL,
  modify_creator  BOOLEAN     NOT NULL DEFAULT FALSE,
  revoke_freeze   BOOLEAN     NOT NULL DEFAULT FALSE,
  revoke_mint     BOOLEAN     NOT NULL DEFAULT FALSE,
  revoke_update   BOOLEAN     NOT NULL DEFAULT FALSE,
  total_fee       NUMERIC(20,9) NOT NULL,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  CONSTRAINT chk_fee_records_mint_non_empty CHECK (char_length(trim(mint_address)) > 0),
  CONSTRAINT chk_fee_records_total_ge_base  CHECK (total_fee >= base_fee)
);

CREATE INDEX IF NOT EXISTS idx_fee_records_mint_address ON fee_records(mint_address);

CREATE TABLE IF NOT EXISTS listing_requests (
  id              UUID        PRIMARY KEY,
  mint_address    TEXT        NOT NULL,
  owner_address   TEXT        NOT NULL,
  venue           TEXT        NOT NULL DEFAULT 'raydium',
  status          TEXT        NOT NULL DEFAULT 'pending',
  created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),

  CONSTRAINT chk_listing_requests_mint_non_empty CHECK (char_length(trim(mint_address)) > 0)
);

CREATE INDEX IF NOT EXISTS idx_listing_requests_mint_address ON listing_requests(mint_address);

COMMIT;
`
