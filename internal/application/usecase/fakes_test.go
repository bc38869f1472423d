package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	testOwner = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	testMint  = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	testFeeTo = "SysvarRent111111111111111111111111111111111"
)

// fakeLedger: signed bytes の先頭 1 byte で fee(0x01) / mint(0x02) を区別する。
type fakeLedger struct {
	mu sync.Mutex

	blockhash    string
	blockhashErr error
	rent         uint64
	rentErr      error

	balances   map[string]uint64
	sendErr    map[byte]error
	confirm    map[string]issuance.Confirmation
	confirmErr error

	sent []string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		blockhash: "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
		rent:      1_461_600,
		balances:  map[string]uint64{},
		sendErr:   map[byte]error{},
		confirm:   map[string]issuance.Confirmation{},
	}
}

func (f *fakeLedger) LatestBlockhash(context.Context) (string, error) {
	return f.blockhash, f.blockhashErr
}

func (f *fakeLedger) MintRentLamports(context.Context) (uint64, error) { return f.rent, f.rentErr }

func (f *fakeLedger) Balance(_ context.Context, address string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[address], nil
}

func (f *fakeLedger) Send(ctx context.Context, signed []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	tag := signed[0]
	if err := f.sendErr[tag]; err != nil {
		return "", err
	}
	sig := map[byte]string{0x01: "sig-fee", 0x02: "sig-mint"}[tag]
	f.sent = append(f.sent, sig)
	return sig, nil
}

func (f *fakeLedger) AwaitConfirmation(_ context.Context, signature string, _ time.Duration) (issuance.Confirmation, error) {
	if f.confirmErr != nil {
		return "", f.confirmErr
	}
	if c, ok := f.confirm[signature]; ok {
		return c, nil
	}
	return issuance.ConfirmationConfirmed, nil
}

func (f *fakeLedger) sentSignatures() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.sent...)
}

type fakeSigner struct {
	keysErr    error
	prepareErr error
	prepared   PreparedPair
	calls      int
	lastPolicy SigningPolicy
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{
		prepared: PreparedPair{
			MintAddress: testMint,
			Fee: PreparedLeg{
				Leg:          issuance.LegFee,
				Signed:       []byte{0x01},
				Signature:    "sig-fee",
				Requirements: []BalanceRequirement{{Address: testOwner, Lamports: 500_000_000}},
			},
			Mint: PreparedLeg{
				Leg:          issuance.LegMint,
				Signed:       []byte{0x02},
				Signature:    "sig-mint",
				Requirements: []BalanceRequirement{{Address: testFeeTo, Lamports: 1_471_600}},
			},
		},
	}
}

func (f *fakeSigner) AuthorityKeys() (AuthorityKeys, error) {
	if f.keysErr != nil {
		return AuthorityKeys{}, f.keysErr
	}
	return AuthorityKeys{TokenCreation: testFeeTo, FeeCollection: testMint}, nil
}

func (f *fakeSigner) Prepare(pair issuance.UnsignedTransactionPair, policy SigningPolicy) (PreparedPair, error) {
	f.calls++
	f.lastPolicy = policy
	if f.prepareErr != nil {
		return PreparedPair{}, f.prepareErr
	}
	p := f.prepared
	p.MintAddress = pair.MintAddress
	return p, nil
}

type fakeBuilder struct {
	calls   int
	lastEnv BuildEnv
	lastFee uint64
	err     error
}

func (f *fakeBuilder) BuildIssuance(req issuance.TokenIssuanceRequest, quote issuance.FeeQuote, env BuildEnv) (issuance.UnsignedTransactionPair, error) {
	f.calls++
	f.lastEnv = env
	f.lastFee = quote.TotalLamports()
	if f.err != nil {
		return issuance.UnsignedTransactionPair{}, f.err
	}
	return issuance.UnsignedTransactionPair{
		FeeTransaction:  []byte{0x01},
		MintTransaction: []byte{0x02},
		MintAddress:     testMint,
	}, nil
}

type memRecords struct {
	mu       sync.Mutex
	fees     []issuance.FeeRecord
	listings []issuance.ListingRequest
	err      error
}

func (m *memRecords) RecordFee(_ context.Context, rec issuance.FeeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.fees = append(m.fees, rec)
	return nil
}

func (m *memRecords) RecordListingRequest(_ context.Context, req issuance.ListingRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.listings = append(m.listings, req)
	return nil
}

func (m *memRecords) ListFeeRecords(_ context.Context, mint string) ([]issuance.FeeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []issuance.FeeRecord
	for _, r := range m.fees {
		if r.MintAddress == mint {
			out = append(out, r)
		}
	}
	return out, m.err
}

type fakeVerifier struct {
	holds bool
	err   error
}

func (f fakeVerifier) HoldsMint(context.Context, string, string) (bool, error) { return f.holds, f.err }

type fakeNotifier struct {
	mu   sync.Mutex
	got  []issuance.ListingRequest
	fail bool
}

func (f *fakeNotifier) NotifyListingRequested(_ context.Context, req issuance.ListingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp down")
	}
	f.got = append(f.got, req)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	docs []TokenMetadataDocument
}

func (f *fakePublisher) PublishTokenMetadata(_ context.Context, doc TokenMetadataDocument) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = append(f.docs, doc)
	return "https://storage.googleapis.com/bucket/tokens/" + doc.MintAddress + ".json", nil
}
