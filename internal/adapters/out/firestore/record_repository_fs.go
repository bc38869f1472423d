// internal/adapters/out/firestore/record_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	feeRecordsCollection      = "fee_records"
	listingRequestsCollection = "listing_requests"
)

// RecordRepositoryFS is the Firestore implementation of issuance.RecordRepository.
// 行は追記のみ（Create）。同一 ID の再書き込みは ErrRecordConflict。
type RecordRepositoryFS struct {
	Client *firestore.Client
}

func NewRecordRepositoryFS(client *firestore.Client) *RecordRepositoryFS {
	return &RecordRepositoryFS{Client: client}
}

// 金額は精度を落とさないよう文字列で保存する
type feeRecordDoc struct {
	MintAddress   string    `firestore:"mintAddress"`
	OwnerAddress  string    `firestore:"ownerAddress"`
	BaseFee       string    `firestore:"baseFee"`
	PerToggleFee  string    `firestore:"perToggleFee"`
	ModifyCreator bool      `firestore:"modifyCreator"`
	RevokeFreeze  bool      `firestore:"revokeFreeze"`
	RevokeMint    bool      `firestore:"revokeMint"`
	RevokeUpdate  bool      `firestore:"revokeUpdate"`
	TotalFee      string    `firestore:"totalFee"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

type listingRequestDoc struct {
	MintAddress  string    `firestore:"mintAddress"`
	OwnerAddress string    `firestore:"ownerAddress"`
	Venue        string    `firestore:"venue"`
	Status       string    `firestore:"status"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

func (r *RecordRepositoryFS) fees() *firestore.CollectionRef {
	return r.Client.Collection(feeRecordsCollection)
}

func (r *RecordRepositoryFS) listings() *firestore.CollectionRef {
	return r.Client.Collection(listingRequestsCollection)
}

// RecordFee appends one fee row keyed by rec.ID.
func (r *RecordRepositoryFS) RecordFee(ctx context.Context, rec issuance.FeeRecord) error {
	if r == nil || r.Client == nil {
		return errors.New("RecordRepositoryFS: nil firestore client")
	}
	ref := r.fees().NewDoc()
	if id := strings.TrimSpace(rec.ID); id != "" {
		ref = r.fees().Doc(id)
	}
	if _, err := ref.Create(ctx, feeRecordToDoc(rec)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return issuance.ErrRecordConflict
		}
		return fmt.Errorf("firestore: create fee record: %w", err)
	}
	return nil
}

// RecordListingRequest appends one listing row keyed by req.ID.
func (r *RecordRepositoryFS) RecordListingRequest(ctx context.Context, req issuance.ListingRequest) error {
	if r == nil || r.Client == nil {
		return errors.New("RecordRepositoryFS: nil firestore client")
	}
	ref := r.listings().NewDoc()
	if id := strings.TrimSpace(req.ID); id != "" {
		ref = r.listings().Doc(id)
	}
	_, err := ref.Create(ctx, listingRequestDoc{
		MintAddress:  req.MintAddress,
		OwnerAddress: req.OwnerAddress,
		Venue:        req.Venue,
		Status:       req.Status,
		CreatedAt:    req.CreatedAt.UTC(),
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return issuance.ErrRecordConflict
		}
		return fmt.Errorf("firestore: create listing request: %w", err)
	}
	return nil
}

// ListFeeRecords returns rows for mintAddress ordered by createdAt.
// 複合インデックスを避けるため並び替えはメモリ上で行う。
func (r *RecordRepositoryFS) ListFeeRecords(ctx context.Context, mintAddress string) ([]issuance.FeeRecord, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("RecordRepositoryFS: nil firestore client")
	}

	iter := r.fees().Where("mintAddress", "==", strings.TrimSpace(mintAddress)).Documents(ctx)
	defer iter.Stop()

	out := make([]issuance.FeeRecord, 0, 2)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore: list fee records: %w", err)
		}
		var raw feeRecordDoc
		if err := doc.DataTo(&raw); err != nil {
			return nil, fmt.Errorf("firestore: decode fee record %s: %w", doc.Ref.ID, err)
		}
		rec, err := feeRecordFromDoc(doc.Ref.ID, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func feeRecordToDoc(rec issuance.FeeRecord) feeRecordDoc {
	return feeRecordDoc{
		MintAddress:   rec.MintAddress,
		OwnerAddress:  rec.OwnerAddress,
		BaseFee:       rec.BaseFee.String(),
		PerToggleFee:  rec.PerToggleFee.String(),
		ModifyCreator: rec.ModifyCreator,
		RevokeFreeze:  rec.RevokeFreeze,
		RevokeMint:    rec.RevokeMint,
		RevokeUpdate:  rec.RevokeUpdate,
		TotalFee:      rec.TotalFee.String(),
		CreatedAt:     rec.CreatedAt.UTC(),
	}
}

func feeRecordFromDoc(id string, raw feeRecordDoc) (issuance.FeeRecord, error) {
	parse := func(field, v string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("firestore: fee record %s has invalid %s %q: %w", id, field, v, err)
		}
		return d, nil
	}
	base, err := parse("baseFee", raw.BaseFee)
	if err != nil {
		return issuance.FeeRecord{}, err
	}
	per, err := parse("perToggleFee", raw.PerToggleFee)
	if err != nil {
		return issuance.FeeRecord{}, err
	}
	total, err := parse("totalFee", raw.TotalFee)
	if err != nil {
		return issuance.FeeRecord{}, err
	}
	return issuance.FeeRecord{
		ID:            id,
		MintAddress:   strings.TrimSpace(raw.MintAddress),
		OwnerAddress:  strings.TrimSpace(raw.OwnerAddress),
		BaseFee:       base,
		PerToggleFee:  per,
		ModifyCreator: raw.ModifyCreator,
		RevokeFreeze:  raw.RevokeFreeze,
		RevokeMint:    raw.RevokeMint,
		RevokeUpdate:  raw.RevokeUpdate,
		TotalFee:      total,
		CreatedAt:     raw.CreatedAt.UTC(),
	}, nil
}
