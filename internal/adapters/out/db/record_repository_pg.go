// internal/adapters/out/db/record_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// RecordRepositoryPG implements issuance.RecordRepository with PostgreSQL.
type RecordRepositoryPG struct {
	DB *sql.DB
}

func NewRecordRepositoryPG(db *sql.DB) *RecordRepositoryPG {
	return &RecordRepositoryPG{DB: db}
}

// Migrate creates the bookkeeping tables if they do not exist.
func (r *RecordRepositoryPG) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, issuance.RecordsTableDDL); err != nil {
		return fmt.Errorf("record_repository_pg: migrate: %w", err)
	}
	return nil
}

func (r *RecordRepositoryPG) RecordFee(ctx context.Context, rec issuance.FeeRecord) error {
	const q = `
INSERT INTO fee_records (
  id, mint_address, owner_address,
  base_fee, per_toggle_fee,
  modify_creator, revoke_freeze, revoke_mint, revoke_update,
  total_fee, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.DB.ExecContext(ctx, q,
		strings.TrimSpace(rec.ID),
		strings.TrimSpace(rec.MintAddress),
		strings.TrimSpace(rec.OwnerAddress),
		rec.BaseFee,
		rec.PerToggleFee,
		rec.ModifyCreator,
		rec.RevokeFreeze,
		rec.RevokeMint,
		rec.RevokeUpdate,
		rec.TotalFee,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return issuance.ErrRecordConflict
		}
		return fmt.Errorf("record_repository_pg: insert fee record: %w", err)
	}
	return nil
}

func (r *RecordRepositoryPG) RecordListingRequest(ctx context.Context, req issuance.ListingRequest) error {
	const q = `
INSERT INTO listing_requests (
  id, mint_address, owner_address, venue, status, created_at
) VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.DB.ExecContext(ctx, q,
		strings.TrimSpace(req.ID),
		strings.TrimSpace(req.MintAddress),
		strings.TrimSpace(req.OwnerAddress),
		req.Venue,
		req.Status,
		req.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return issuance.ErrRecordConflict
		}
		return fmt.Errorf("record_repository_pg: insert listing request: %w", err)
	}
	return nil
}

func (r *RecordRepositoryPG) ListFeeRecords(ctx context.Context, mintAddress string) ([]issuance.FeeRecord, error) {
	const q = `
SELECT
  id, mint_address, owner_address,
  base_fee, per_toggle_fee,
  modify_creator, revoke_freeze, revoke_mint, revoke_update,
  total_fee, created_at
FROM fee_records
WHERE mint_address = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, q, strings.TrimSpace(mintAddress))
	if err != nil {
		return nil, fmt.Errorf("record_repository_pg: list fee records: %w", err)
	}
	defer rows.Close()

	out := make([]issuance.FeeRecord, 0, 2)
	for rows.Next() {
		var rec issuance.FeeRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.MintAddress,
			&rec.OwnerAddress,
			&rec.BaseFee,
			&rec.PerToggleFee,
			&rec.ModifyCreator,
			&rec.RevokeFreeze,
			&rec.RevokeMint,
			&rec.RevokeUpdate,
			&rec.TotalFee,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("record_repository_pg: scan fee record: %w", err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record_repository_pg: list fee records: %w", err)
	}
	return out, nil
}

// isUniqueViolation は PostgreSQL 一意制約違反（duplicate key）を検知する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
