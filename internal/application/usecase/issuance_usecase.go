// internal/application/usecase/issuance_usecase.go
package usecase

/*
責任と機能:
- /create-token の入力を検証し、手数料を見積もり、未署名の 2 トランザクション
  （fee 支払い + mint 作成）を組み立てて返す。
- ネットワーク（blockhash / rent）は LedgerClient、組み立ては TransactionBuilder に任せる。
- 手数料行の書き込み・メタデータ公開は Bookkeeper で fire-and-forget。
  （オンチェーンの結果とは独立に書かれる）
*/

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

var ErrIssuanceNotConfigured = errors.New("issuance_usecase: not configured")

// IssuanceResult is what /create-token returns.
type IssuanceResult struct {
	Pair  issuance.UnsignedTransactionPair
	Quote issuance.FeeQuote
}

type IssuanceUsecase struct {
	ledger   LedgerClient
	builder  TransactionBuilder
	signer   TransactionSigner
	policy   issuance.FeePolicy
	books    *Bookkeeper
	metadata MetadataPublisher

	now func() time.Time
}

func NewIssuanceUsecase(
	ledger LedgerClient,
	builder TransactionBuilder,
	signer TransactionSigner,
	policy issuance.FeePolicy,
	books *Bookkeeper,
) *IssuanceUsecase {
	return &IssuanceUsecase{
		ledger:  ledger,
		builder: builder,
		signer:  signer,
		policy:  policy,
		books:   books,
		now:     time.Now,
	}
}

// WithMetadataPublisher enables off-chain metadata publishing after build.
func (u *IssuanceUsecase) WithMetadataPublisher(p MetadataPublisher) *IssuanceUsecase {
	u.metadata = p
	return u
}

// Quote is the pure fee calculation (GET /fee-quote).
func (u *IssuanceUsecase) Quote(t issuance.FeatureToggles) issuance.FeeQuote {
	return u.policy.Quote(t)
}

// Prepare validates input and builds the unsigned transaction pair.
//
// Errors:
//   - *issuance.ValidationError    入力不備
//   - *issuance.ConfigurationError 署名鍵の欠落・不正
//   - その他                         ledger への問い合わせ失敗など
func (u *IssuanceUsecase) Prepare(ctx context.Context, in issuance.IssuanceInput) (IssuanceResult, error) {
	if u == nil || u.ledger == nil || u.builder == nil || u.signer == nil {
		return IssuanceResult{}, ErrIssuanceNotConfigured
	}

	req, err := issuance.NewTokenIssuanceRequest(in)
	if err != nil {
		return IssuanceResult{}, err
	}

	keys, err := u.signer.AuthorityKeys()
	if err != nil {
		return IssuanceResult{}, err
	}

	quote := u.policy.Quote(req.Toggles)

	blockhash, err := u.ledger.LatestBlockhash(ctx)
	if err != nil {
		return IssuanceResult{}, fmt.Errorf("issuance_usecase: latest blockhash: %w", err)
	}
	rent, err := u.ledger.MintRentLamports(ctx)
	if err != nil {
		return IssuanceResult{}, fmt.Errorf("issuance_usecase: mint rent: %w", err)
	}

	pair, err := u.builder.BuildIssuance(req, quote, BuildEnv{
		RecentBlockhash:  blockhash,
		MintRentLamports: rent,
		Authorities:      keys,
	})
	if err != nil {
		if issuance.IsValidation(err) {
			return IssuanceResult{}, err
		}
		return IssuanceResult{}, fmt.Errorf("issuance_usecase: build: %w", err)
	}

	now := u.now()
	log.Printf(
		"[issuance_usecase] prepared mint=%s owner=%s decimals=%d supply=%d toggles=%v totalFee=%s",
		maskShort(pair.MintAddress),
		maskShort(req.OwnerAddress),
		req.Decimals,
		req.InitialSupply,
		quote.EnabledToggles,
		quote.TotalFee.String(),
	)

	u.books.RecordFee(issuance.NewFeeRecord(pair.MintAddress, req.OwnerAddress, req.Toggles, quote, now))

	if u.metadata != nil {
		doc := TokenMetadataDocument{
			MintAddress:  pair.MintAddress,
			Name:         req.Name,
			Symbol:       req.Symbol,
			Decimals:     req.Decimals,
			Supply:       req.InitialSupply,
			OwnerAddress: req.OwnerAddress,
			Toggles:      req.Toggles,
			CreatedAt:    now.UTC(),
		}
		pub := u.metadata
		u.books.Go("publishTokenMetadata", pair.MintAddress, func(ctx context.Context) error {
			uri, err := pub.PublishTokenMetadata(ctx, doc)
			if err == nil {
				log.Printf("[issuance_usecase] metadata published mint=%s uri=%s", maskShort(doc.MintAddress), uri)
			}
			return err
		})
	}

	return IssuanceResult{Pair: pair, Quote: quote}, nil
}
