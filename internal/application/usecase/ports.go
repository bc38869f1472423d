// internal/application/usecase/ports.go
package usecase

import (
	"context"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// ============================================================
// Ports
// 外部依存（Solana / Firestore / GCS / SendGrid 等）は interface に閉じ込め、
// Usecase は手順（オーケストレーション）のみを担う。
// ============================================================

// LedgerClient is the minimal chain capability the usecases need.
type LedgerClient interface {
	LatestBlockhash(ctx context.Context) (string, error)
	MintRentLamports(ctx context.Context) (uint64, error)
	Balance(ctx context.Context, address string) (uint64, error)

	// Send submits fully signed wire bytes and returns the transaction signature.
	Send(ctx context.Context, signed []byte) (string, error)

	// AwaitConfirmation blocks until the signature is confirmed, rejected, or
	// the timeout elapses. A non-nil error only reports a broken client;
	// slow or unreachable nodes end in ConfirmationTimedOut.
	AwaitConfirmation(ctx context.Context, signature string, timeout time.Duration) (issuance.Confirmation, error)
}

// AuthorityKeys are the base58 public keys of the two server-held signers.
type AuthorityKeys struct {
	TokenCreation string
	FeeCollection string
}

// BuildEnv carries values fetched from the ledger before building.
type BuildEnv struct {
	RecentBlockhash  string
	MintRentLamports uint64
	Authorities      AuthorityKeys
}

// TransactionBuilder generates a fresh mint identifier and builds the
// unsigned transaction pair. No network calls.
type TransactionBuilder interface {
	BuildIssuance(req issuance.TokenIssuanceRequest, quote issuance.FeeQuote, env BuildEnv) (issuance.UnsignedTransactionPair, error)
}

// BalanceRequirement is a lamport amount an account must hold for a leg to land.
type BalanceRequirement struct {
	Address  string
	Lamports uint64
}

// PreparedLeg is one transaction after server-side signing.
type PreparedLeg struct {
	Leg          issuance.Leg
	Signed       []byte
	Signature    string // fee payer signature (= transaction id)
	Missing      []string
	Requirements []BalanceRequirement
	Err          error // signing failure for this leg only
}

// PreparedPair is the output of TransactionSigner.Prepare.
type PreparedPair struct {
	MintAddress string
	Fee         PreparedLeg
	Mint        PreparedLeg
}

// SigningPolicy bounds what the server keys co-sign for one pair.
type SigningPolicy struct {
	// MaxMintRentLamports は mint アカウント作成で authority が負担してよい上限
	// （現在の rent-exempt 最小額）。
	MaxMintRentLamports uint64
	// MinFeeLamports は fee leg の Transfer 額の下限。
	MinFeeLamports uint64
	// OwnerAddress が空でなければ、fee の支払者と ATA の owner に一致を要求する。
	OwnerAddress string
	// 帳簿上 revoke 済みのはずの authority（FeeRecord から）。
	RequireMintRevoked   bool
	RequireFreezeRevoked bool
}

// TransactionSigner holds the two server signing keys.
type TransactionSigner interface {
	// AuthorityKeys fails with *issuance.ConfigurationError when a key is
	// missing or malformed.
	AuthorityKeys() (AuthorityKeys, error)

	// Prepare checks credentials (ConfigurationError), decodes both
	// transactions and checks each matches the issuance shape under policy
	// (ValidationError), then signs each leg with its authority. Per-leg
	// signing failures are reported in PreparedLeg.Err, not as the returned
	// error.
	Prepare(pair issuance.UnsignedTransactionPair, policy SigningPolicy) (PreparedPair, error)
}

// MetadataPublisher stores the off-chain token metadata document.
type MetadataPublisher interface {
	PublishTokenMetadata(ctx context.Context, doc TokenMetadataDocument) (string, error)
}

// TokenMetadataDocument is the JSON published per mint.
type TokenMetadataDocument struct {
	MintAddress  string                  `json:"mint"`
	Name         string                  `json:"name"`
	Symbol       string                  `json:"symbol"`
	Decimals     uint8                   `json:"decimals"`
	Supply       uint64                  `json:"supply"`
	OwnerAddress string                  `json:"owner"`
	Toggles      issuance.FeatureToggles `json:"toggles"`
	CreatedAt    time.Time               `json:"createdAt"`
}

// ListingNotifier tells an operator that a listing was requested.
type ListingNotifier interface {
	NotifyListingRequested(ctx context.Context, req issuance.ListingRequest) error
}

// HolderVerifier checks on-chain that owner holds a positive balance of mint.
type HolderVerifier interface {
	HoldsMint(ctx context.Context, ownerAddress, mintAddress string) (bool, error)
}
