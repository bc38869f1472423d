// internal/application/usecase/submission_usecase.go
package usecase

/*
責任と機能:
- /execute-transactions: サーバー保持の 2 鍵で fee / mint トランザクションに署名し、
  fee → mint の順に独立して送信する（saga。ロールバックはしない）。
- 鍵の欠落・不正は送信前に ConfigurationError（payload の decode より先）、
  payload 不正や発行形から外れた命令は ValidationError。
- 各レッグの送信失敗（残高不足・RPC 障害・blockhash 失効・reject・timeout）は
  LedgerSubmissionError として LegReport に記録し、もう一方のレッグは必ず試行する。
- 呼び出し元が切断しても送信中の処理は止めない（context.WithoutCancel）。
*/

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

var ErrSubmissionNotConfigured = errors.New("submission_usecase: not configured")

const defaultConfirmTimeout = 60 * time.Second

type SubmissionUsecase struct {
	ledger         LedgerClient
	signer         TransactionSigner
	confirmTimeout time.Duration

	policy  issuance.FeePolicy
	records issuance.RecordReader // optional
}

func NewSubmissionUsecase(ledger LedgerClient, signer TransactionSigner, confirmTimeout time.Duration) *SubmissionUsecase {
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	return &SubmissionUsecase{
		ledger:         ledger,
		signer:         signer,
		confirmTimeout: confirmTimeout,
		policy:         issuance.DefaultFeePolicy,
	}
}

// WithFeePolicy sets the policy whose base fee is the minimum fee transfer.
func (u *SubmissionUsecase) WithFeePolicy(p issuance.FeePolicy) *SubmissionUsecase {
	u.policy = p
	return u
}

// WithFeeRecords lets the fee leg be checked against the FeeRecord written
// at build time (total fee, owner, revoked authorities).
func (u *SubmissionUsecase) WithFeeRecords(r issuance.RecordReader) *SubmissionUsecase {
	u.records = r
	return u
}

// ExecuteEncoded checks credentials before decoding the base64 payload, so a
// missing key is reported even when the payload is also malformed.
func (u *SubmissionUsecase) ExecuteEncoded(ctx context.Context, enc issuance.EncodedPair) (issuance.SubmissionResult, error) {
	if u == nil || u.ledger == nil || u.signer == nil {
		return issuance.SubmissionResult{}, ErrSubmissionNotConfigured
	}
	if _, err := u.signer.AuthorityKeys(); err != nil {
		return issuance.SubmissionResult{}, err
	}
	pair, err := issuance.DecodePair(enc)
	if err != nil {
		return issuance.SubmissionResult{}, err
	}
	return u.Execute(ctx, pair)
}

// Execute runs the fee leg, then the mint leg, and classifies the outcome.
// Errors are returned only before anything is submitted: ConfigurationError,
// ValidationError, or a ledger error while reading the rent minimum.
func (u *SubmissionUsecase) Execute(ctx context.Context, pair issuance.UnsignedTransactionPair) (issuance.SubmissionResult, error) {
	if u == nil || u.ledger == nil || u.signer == nil {
		return issuance.SubmissionResult{}, ErrSubmissionNotConfigured
	}
	if _, err := u.signer.AuthorityKeys(); err != nil {
		return issuance.SubmissionResult{}, err
	}

	policy, err := u.signingPolicy(ctx, pair.MintAddress)
	if err != nil {
		return issuance.SubmissionResult{}, err
	}

	prepared, err := u.signer.Prepare(pair, policy)
	if err != nil {
		return issuance.SubmissionResult{}, err
	}

	// 送信開始後はクライアント切断で中断しない
	ctx = context.WithoutCancel(ctx)

	log.Printf("[submission] start mint=%s", maskShort(prepared.MintAddress))

	fee := u.runLeg(ctx, prepared.Fee)
	mint := u.runLeg(ctx, prepared.Mint)

	res := issuance.NewSubmissionResult(prepared.MintAddress, fee, mint)
	log.Printf(
		"[submission] done mint=%s outcome=%s feeSig=%s mintSig=%s",
		maskShort(res.MintAddress),
		res.Outcome,
		maskShort(res.FeeSignature),
		maskShort(res.MintSignature),
	)
	return res, nil
}

func (u *SubmissionUsecase) runLeg(ctx context.Context, leg PreparedLeg) issuance.LegReport {
	rep := issuance.LegReport{Leg: leg.Leg}

	fail := func(cause error) issuance.LegReport {
		lerr := &issuance.LedgerSubmissionError{Leg: leg.Leg, Cause: cause}
		log.Printf("[submission] WARN: %v", lerr)
		rep.Error = lerr.Error()
		return rep
	}

	if leg.Err != nil {
		return fail(leg.Err)
	}
	if len(leg.Missing) > 0 {
		masked := make([]string, 0, len(leg.Missing))
		for _, m := range leg.Missing {
			masked = append(masked, maskShort(m))
		}
		return fail(fmt.Errorf("%w: %s", issuance.ErrMissingCoSignature, strings.Join(masked, ",")))
	}

	// 残高の事前チェック
	for _, req := range leg.Requirements {
		bal, err := u.ledger.Balance(ctx, req.Address)
		if err != nil {
			return fail(fmt.Errorf("balance %s: %w", maskShort(req.Address), err))
		}
		if bal < req.Lamports {
			return fail(fmt.Errorf("%w: %s has %d lamports, needs %d", issuance.ErrInsufficientBalance, maskShort(req.Address), bal, req.Lamports))
		}
	}

	sig, err := u.ledger.Send(ctx, leg.Signed)
	if err != nil {
		return fail(err)
	}
	rep.Submitted = sig
	log.Printf("[submission] %s submitted sig=%s", leg.Leg, maskShort(sig))

	conf, err := u.ledger.AwaitConfirmation(ctx, sig, u.confirmTimeout)
	if err != nil {
		return fail(fmt.Errorf("await confirmation: %w", err))
	}
	rep.Confirmation = conf

	switch conf {
	case issuance.ConfirmationConfirmed:
		log.Printf("[submission] %s confirmed sig=%s", leg.Leg, maskShort(sig))
	case issuance.ConfirmationRejected:
		return fail(issuance.ErrTransactionRejected)
	default:
		rep.Confirmation = issuance.ConfirmationTimedOut
		return fail(fmt.Errorf("%w after %s", issuance.ErrConfirmationTimeout, u.confirmTimeout))
	}
	return rep
}

// signingPolicy: rent 上限は現在の rent-exempt 最小額、fee 下限は base fee。
// FeeRecord があればその合計額・owner・revoke 指定で締める。
func (u *SubmissionUsecase) signingPolicy(ctx context.Context, mintAddress string) (SigningPolicy, error) {
	rent, err := u.ledger.MintRentLamports(ctx)
	if err != nil {
		return SigningPolicy{}, fmt.Errorf("submission_usecase: mint rent: %w", err)
	}
	p := SigningPolicy{
		MaxMintRentLamports: rent,
		MinFeeLamports:      u.policy.Quote(issuance.FeatureToggles{}).TotalLamports(),
	}
	if u.records == nil {
		return p, nil
	}

	recs, err := u.records.ListFeeRecords(ctx, strings.TrimSpace(mintAddress))
	if err != nil {
		log.Printf("[submission] WARN: fee records mint=%s: %v (base fee applies)", maskShort(mintAddress), err)
		return p, nil
	}
	for _, r := range recs {
		if l := (issuance.FeeQuote{TotalFee: r.TotalFee}).TotalLamports(); l > p.MinFeeLamports {
			p.MinFeeLamports = l
		}
		if r.OwnerAddress != "" {
			p.OwnerAddress = r.OwnerAddress
		}
		p.RequireMintRevoked = p.RequireMintRevoked || r.RevokeMint
		p.RequireFreezeRevoked = p.RequireFreezeRevoked || r.RevokeFreeze
	}
	return p, nil
}
