package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

func scenarioInput() issuance.IssuanceInput {
	return issuance.IssuanceInput{
		Name:          "Test",
		Symbol:        "TST",
		Decimals:      9,
		InitialSupply: "1,000,000,000",
		OwnerAddress:  testOwner,
		Toggles:       issuance.FeatureToggles{ModifyCreator: true, RevokeFreeze: true, RevokeMint: true, RevokeUpdate: true},
	}
}

type issuanceDeps struct {
	ledger    *fakeLedger
	builder   *fakeBuilder
	signer    *fakeSigner
	records   *memRecords
	books     *Bookkeeper
	publisher *fakePublisher
}

func newIssuanceDeps() issuanceDeps {
	records := &memRecords{}
	return issuanceDeps{
		ledger:    newFakeLedger(),
		builder:   &fakeBuilder{},
		signer:    newFakeSigner(),
		records:   records,
		books:     NewBookkeeper(records, 0, 0),
		publisher: &fakePublisher{},
	}
}

func (d issuanceDeps) usecase() *IssuanceUsecase {
	return NewIssuanceUsecase(d.ledger, d.builder, d.signer, issuance.DefaultFeePolicy, d.books).
		WithMetadataPublisher(d.publisher)
}

func TestIssuancePrepareScenario(t *testing.T) {
	d := newIssuanceDeps()

	res, err := d.usecase().Prepare(context.Background(), scenarioInput())
	require.NoError(t, err)
	d.books.Wait()

	assert.True(t, decimal.RequireFromString("0.5").Equal(res.Quote.TotalFee))
	assert.Equal(t, testMint, res.Pair.MintAddress)

	assert.Equal(t, 1, d.builder.calls)
	assert.Equal(t, uint64(500_000_000), d.builder.lastFee)
	assert.Equal(t, d.ledger.blockhash, d.builder.lastEnv.RecentBlockhash)
	assert.Equal(t, d.ledger.rent, d.builder.lastEnv.MintRentLamports)

	// 手数料行は mint address で書かれる
	require.Len(t, d.records.fees, 1)
	rec := d.records.fees[0]
	assert.Equal(t, testMint, rec.MintAddress)
	assert.Equal(t, testOwner, rec.OwnerAddress)
	assert.True(t, rec.TotalFee.Equal(res.Quote.TotalFee))
	assert.True(t, rec.RevokeFreeze)

	require.Len(t, d.publisher.docs, 1)
	assert.Equal(t, uint64(1_000_000_000), d.publisher.docs[0].Supply)
}

func TestIssuancePrepareValidationBuildsNothing(t *testing.T) {
	d := newIssuanceDeps()
	in := scenarioInput()
	in.Decimals = 12

	_, err := d.usecase().Prepare(context.Background(), in)
	d.books.Wait()

	require.Error(t, err)
	assert.True(t, issuance.IsValidation(err))
	assert.Equal(t, 0, d.builder.calls)
	assert.Empty(t, d.records.fees)
}

func TestIssuancePrepareConfigurationError(t *testing.T) {
	d := newIssuanceDeps()
	d.signer.keysErr = &issuance.ConfigurationError{Key: "SOLANA_FEE_COLLECTION_KEY", Cause: issuance.ErrCredentialMissing}

	_, err := d.usecase().Prepare(context.Background(), scenarioInput())
	assert.True(t, issuance.IsConfiguration(err))
	assert.Equal(t, 0, d.builder.calls)
}

func TestIssuancePrepareLedgerError(t *testing.T) {
	d := newIssuanceDeps()
	d.ledger.blockhashErr = errors.New("rpc unavailable")

	_, err := d.usecase().Prepare(context.Background(), scenarioInput())
	require.Error(t, err)
	assert.False(t, issuance.IsValidation(err))
	assert.False(t, issuance.IsConfiguration(err))
}

func TestIssuancePrepareSwallowsPersistenceError(t *testing.T) {
	d := newIssuanceDeps()
	d.records.err = errors.New("firestore unavailable")

	res, err := d.usecase().Prepare(context.Background(), scenarioInput())
	d.books.Wait()

	require.NoError(t, err)
	assert.Equal(t, testMint, res.Pair.MintAddress)
}

func TestIssuanceQuote(t *testing.T) {
	d := newIssuanceDeps()
	q := d.usecase().Quote(issuance.FeatureToggles{RevokeMint: true})
	assert.True(t, decimal.RequireFromString("0.2").Equal(q.TotalFee))
}
