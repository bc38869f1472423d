// internal/application/usecase/listing_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

var ErrListingOwnerNotHolder = errors.New("listing_usecase: owner does not hold the mint")

// ListingUsecase records /list-raydium requests.
// 行の書き込みと通知は fire-and-forget。holder チェックは任意（verifier が nil なら省略）。
type ListingUsecase struct {
	books    *Bookkeeper
	verifier HolderVerifier
	notifier ListingNotifier

	now func() time.Time
}

func NewListingUsecase(books *Bookkeeper, verifier HolderVerifier, notifier ListingNotifier) *ListingUsecase {
	return &ListingUsecase{
		books:    books,
		verifier: verifier,
		notifier: notifier,
		now:      time.Now,
	}
}

// RequestListing validates both addresses, optionally checks the owner
// holds the mint on chain, and queues the listing row.
func (u *ListingUsecase) RequestListing(ctx context.Context, mintAddress, ownerAddress string) (issuance.ListingRequest, error) {
	req, err := issuance.NewListingRequest(mintAddress, ownerAddress, u.now())
	if err != nil {
		return issuance.ListingRequest{}, err
	}

	if u.verifier != nil {
		ok, err := u.verifier.HoldsMint(ctx, req.OwnerAddress, req.MintAddress)
		if err != nil {
			return issuance.ListingRequest{}, fmt.Errorf("listing_usecase: holder check: %w", err)
		}
		if !ok {
			return issuance.ListingRequest{}, &issuance.ValidationError{Field: "ownerAddress", Cause: ErrListingOwnerNotHolder}
		}
	}

	u.books.RecordListingRequest(req)

	if u.notifier != nil {
		n := u.notifier
		u.books.Go("notifyListingRequested", req.MintAddress, func(ctx context.Context) error {
			return n.NotifyListingRequested(ctx, req)
		})
	}

	log.Printf("[listing_usecase] requested venue=%s mint=%s owner=%s", req.Venue, maskShort(req.MintAddress), maskShort(req.OwnerAddress))
	return req, nil
}
