package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

func TestRequestListing(t *testing.T) {
	records := &memRecords{}
	books := NewBookkeeper(records, 0, 0)
	notifier := &fakeNotifier{}

	u := NewListingUsecase(books, fakeVerifier{holds: true}, notifier)
	req, err := u.RequestListing(context.Background(), testMint, " "+testOwner+" ")
	require.NoError(t, err)
	books.Wait()

	assert.Equal(t, issuance.VenueRaydium, req.Venue)
	assert.Equal(t, issuance.ListingStatusPending, req.Status)
	require.Len(t, records.listings, 1)
	assert.Equal(t, testMint, records.listings[0].MintAddress)
	assert.Equal(t, testOwner, records.listings[0].OwnerAddress)
	require.Len(t, notifier.got, 1)
}

func TestRequestListingRejects(t *testing.T) {
	test := func(name, mint, owner string, verifier HolderVerifier, validation bool) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			records := &memRecords{}
			books := NewBookkeeper(records, 0, 0)
			_, err := NewListingUsecase(books, verifier, nil).RequestListing(context.Background(), mint, owner)
			books.Wait()

			require.Error(t, err)
			assert.Equal(t, validation, issuance.IsValidation(err))
			assert.Empty(t, records.listings)
		})
	}

	test("bad mint", "xyz", testOwner, nil, true)
	test("bad owner", testMint, "", nil, true)
	test("not a holder", testMint, testOwner, fakeVerifier{holds: false}, true)
	test("rpc failure", testMint, testOwner, fakeVerifier{err: errors.New("timeout")}, false)
}

func TestRequestListingNotifierFailureIsSwallowed(t *testing.T) {
	records := &memRecords{}
	books := NewBookkeeper(records, time.Second, 1)
	u := NewListingUsecase(books, nil, &fakeNotifier{fail: true})

	_, err := u.RequestListing(context.Background(), testMint, testOwner)
	require.NoError(t, err)
	require.NoError(t, books.Close(context.Background()))
	assert.Len(t, records.listings, 1)
}

func TestFeeRecordQuery(t *testing.T) {
	records := &memRecords{}
	q := issuance.QuoteFee(issuance.FeatureToggles{RevokeFreeze: true})
	require.NoError(t, records.RecordFee(context.Background(), issuance.NewFeeRecord(testMint, testOwner, issuance.FeatureToggles{RevokeFreeze: true}, q, time.Now())))

	got, err := NewFeeRecordQuery(records).ListByMint(context.Background(), testMint)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].TotalFee.Equal(q.TotalFee))

	got, err = NewFeeRecordQuery(records).ListByMint(context.Background(), testOwner)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = NewFeeRecordQuery(records).ListByMint(context.Background(), "bad")
	assert.True(t, issuance.IsValidation(err))

	_, err = NewFeeRecordQuery(nil).ListByMint(context.Background(), testMint)
	assert.ErrorIs(t, err, ErrFeeRecordsNotConfigured)
}

func TestBookkeeperCloseHonorsContext(t *testing.T) {
	books := NewBookkeeper(&memRecords{}, time.Second, 1)
	release := make(chan struct{})
	books.Go("slow", testMint, func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, books.Close(ctx), context.DeadlineExceeded)

	close(release)
	books.Wait()
}

func TestBookkeeperNilWriter(t *testing.T) {
	books := NewBookkeeper(nil, 0, 0)
	books.RecordFee(issuance.FeeRecord{MintAddress: testMint})
	books.RecordListingRequest(issuance.ListingRequest{MintAddress: testMint})
	books.Wait()

	var nilBooks *Bookkeeper
	nilBooks.RecordFee(issuance.FeeRecord{})
	nilBooks.Wait()
}

func TestBookkeeperBoundsInFlight(t *testing.T) {
	books := NewBookkeeper(&memRecords{}, time.Second, 2)
	release := make(chan struct{})
	var running, peak atomic.Int32

	slow := func(ctx context.Context) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return nil
	}

	books.Go("slow", testMint, slow)
	books.Go("slow", testMint, slow)

	// 3 本目は枠が空くまで戻らない
	third := make(chan struct{})
	go func() {
		books.Go("slow", testMint, slow)
		close(third)
	}()
	select {
	case <-third:
		t.Fatal("third write started while two were in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-third
	require.NoError(t, books.Close(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestBookkeeperDropsAfterClose(t *testing.T) {
	books := NewBookkeeper(&memRecords{}, time.Second, 1)
	require.NoError(t, books.Close(context.Background()))

	var called atomic.Bool
	books.Go("late", testMint, func(context.Context) error {
		called.Store(true)
		return nil
	})
	books.Wait()
	assert.False(t, called.Load())
}
