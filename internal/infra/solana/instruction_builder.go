// internal/infra/solana/instruction_builder.go
package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"

	usecase "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	// SPL Memo program (v2)
	memoProgramID = "MemoSq4gqABAXKb96qnH1TxQ5vdVqPmC3vs3FMzaD2B"

	// Associated Token Account Program
	associatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
)

var (
	ErrBuildBlockhashEmpty = errors.New("instruction_builder: recent blockhash is empty")
	ErrBuildAuthorityEmpty = errors.New("instruction_builder: authority public key is empty")
	ErrBuildRentZero       = errors.New("instruction_builder: mint rent lamports is zero")
)

// BuildParams はネットワークから取得済みの値をまとめたもの。
// ビルダー自身は RPC を呼ばない。
type BuildParams struct {
	RecentBlockhash   string
	MintRentLamports  uint64
	TokenCreationAuth common.PublicKey // mint tx の fee payer / mint authority
	FeeCollectionAuth common.PublicKey // fee tx の fee payer / 手数料受取先
	FeeLamports       uint64
}

// TransactionBuilder implements usecase.TransactionBuilder.
// NewMint は mint keypair の生成関数（テストで差し替え可能）。
type TransactionBuilder struct {
	NewMint func() types.Account
}

var _ usecase.TransactionBuilder = (*TransactionBuilder)(nil)

func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{NewMint: types.NewAccount}
}

// BuildIssuance generates a fresh mint keypair and builds both transactions.
// The keypair is discarded after its signature is placed.
func (b *TransactionBuilder) BuildIssuance(
	req issuance.TokenIssuanceRequest,
	quote issuance.FeeQuote,
	env usecase.BuildEnv,
) (issuance.UnsignedTransactionPair, error) {
	newMint := b.NewMint
	if newMint == nil {
		newMint = types.NewAccount
	}
	if !issuance.IsValidAddress(env.Authorities.TokenCreation) || !issuance.IsValidAddress(env.Authorities.FeeCollection) {
		return issuance.UnsignedTransactionPair{}, ErrBuildAuthorityEmpty
	}
	return BuildIssuanceTransactions(req, newMint(), BuildParams{
		RecentBlockhash:   env.RecentBlockhash,
		MintRentLamports:  env.MintRentLamports,
		TokenCreationAuth: common.PublicKeyFromString(env.Authorities.TokenCreation),
		FeeCollectionAuth: common.PublicKeyFromString(env.Authorities.FeeCollection),
		FeeLamports:       quote.TotalLamports(),
	})
}

// BuildIssuanceTransactions assembles the fee transaction and the mint
// transaction for one issuance request.
//
// Mint transaction instruction order (fixed):
//  1. system.CreateAccount   (mint, rent-exempt)
//  2. token.InitializeMint   (freeze authority omitted when RevokeFreeze)
//  3. CreateAssociatedTokenAccount (owner)
//  4. token.MintTo           (initialSupply * 10^decimals)
//  5. token.SetAuthority     (mint authority -> none, only when RevokeMint)
//
// The mint keypair signs its own slot here; every other slot is left as
// 64 zero bytes for the co-signers.
func BuildIssuanceTransactions(
	req issuance.TokenIssuanceRequest,
	mint types.Account,
	params BuildParams,
) (issuance.UnsignedTransactionPair, error) {
	if err := validateForBuild(req); err != nil {
		return issuance.UnsignedTransactionPair{}, err
	}
	if strings.TrimSpace(params.RecentBlockhash) == "" {
		return issuance.UnsignedTransactionPair{}, ErrBuildBlockhashEmpty
	}
	var zero common.PublicKey
	if params.TokenCreationAuth == zero || params.FeeCollectionAuth == zero {
		return issuance.UnsignedTransactionPair{}, ErrBuildAuthorityEmpty
	}
	if params.MintRentLamports == 0 {
		return issuance.UnsignedTransactionPair{}, ErrBuildRentZero
	}
	if len(mint.PrivateKey) != ed25519.PrivateKeySize {
		return issuance.UnsignedTransactionPair{}, fmt.Errorf("instruction_builder: mint keypair is not initialized")
	}

	amount, err := issuance.ScaleSupply(req.InitialSupply, req.Decimals)
	if err != nil {
		return issuance.UnsignedTransactionPair{}, err
	}

	owner := common.PublicKeyFromString(req.OwnerAddress)
	mintAddr := mint.PublicKey.ToBase58()

	// ---- fee transaction ----
	feeMsg := types.NewMessage(types.NewMessageParam{
		FeePayer:        params.FeeCollectionAuth,
		RecentBlockhash: params.RecentBlockhash,
		Instructions: []types.Instruction{
			system.Transfer(system.TransferParam{
				From:   owner,
				To:     params.FeeCollectionAuth,
				Amount: params.FeeLamports,
			}),
			buildMemoIx(mintAddr),
		},
	})
	feeTx := newUnsignedTransaction(feeMsg)
	feeBytes, err := feeTx.Serialize()
	if err != nil {
		return issuance.UnsignedTransactionPair{}, fmt.Errorf("instruction_builder: serialize fee tx: %w", err)
	}

	// ---- mint transaction ----
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint.PublicKey)
	if err != nil {
		return issuance.UnsignedTransactionPair{}, fmt.Errorf("instruction_builder: FindAssociatedTokenAddress: %w", err)
	}

	var freezeAuth *common.PublicKey
	if !req.Toggles.RevokeFreeze {
		fa := params.TokenCreationAuth
		freezeAuth = &fa
	}

	mintIxs := []types.Instruction{
		// 1) Mint アカウント作成
		system.CreateAccount(system.CreateAccountParam{
			From:     params.TokenCreationAuth,
			New:      mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: params.MintRentLamports,
			Space:    token.MintAccountSize,
		}),
		// 2) Mint 初期化
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   req.Decimals,
			Mint:       mint.PublicKey,
			MintAuth:   params.TokenCreationAuth,
			FreezeAuth: freezeAuth,
		}),
		// 3) Owner の ATA 作成
		associated_token_account.CreateAssociatedTokenAccount(
			associated_token_account.CreateAssociatedTokenAccountParam{
				Funder:                 params.TokenCreationAuth,
				Owner:                  owner,
				Mint:                   mint.PublicKey,
				AssociatedTokenAccount: ata,
			},
		),
		// 4) 初期供給をミント
		token.MintTo(token.MintToParam{
			Mint:   mint.PublicKey,
			To:     ata,
			Auth:   params.TokenCreationAuth,
			Amount: amount,
		}),
	}
	if req.Toggles.RevokeMint {
		// 5) 追加発行できないよう mint authority を放棄
		mintIxs = append(mintIxs, token.SetAuthority(token.SetAuthorityParam{
			Account:  mint.PublicKey,
			NewAuth:  nil,
			AuthType: token.AuthorityTypeMintTokens,
			Auth:     params.TokenCreationAuth,
		}))
	}

	mintMsg := types.NewMessage(types.NewMessageParam{
		FeePayer:        params.TokenCreationAuth,
		RecentBlockhash: params.RecentBlockhash,
		Instructions:    mintIxs,
	})
	mintTx := newUnsignedTransaction(mintMsg)
	if err := SignTransaction(&mintTx, mint); err != nil {
		return issuance.UnsignedTransactionPair{}, fmt.Errorf("instruction_builder: mint keypair sign: %w", err)
	}
	mintBytes, err := mintTx.Serialize()
	if err != nil {
		return issuance.UnsignedTransactionPair{}, fmt.Errorf("instruction_builder: serialize mint tx: %w", err)
	}

	return issuance.UnsignedTransactionPair{
		FeeTransaction:  feeBytes,
		MintTransaction: mintBytes,
		MintAddress:     mintAddr,
	}, nil
}

// validateForBuild re-checks the request; it may have been built by hand
// rather than through NewTokenIssuanceRequest.
func validateForBuild(req issuance.TokenIssuanceRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &issuance.ValidationError{Field: "tokenName", Cause: issuance.ErrNameEmpty}
	}
	if strings.TrimSpace(req.Symbol) == "" {
		return &issuance.ValidationError{Field: "tokenSymbol", Cause: issuance.ErrSymbolEmpty}
	}
	if req.Decimals > issuance.MaxDecimals {
		return &issuance.ValidationError{Field: "decimals", Cause: issuance.ErrDecimalsOutOfRange}
	}
	if req.InitialSupply == 0 {
		return &issuance.ValidationError{Field: "initialSupply", Cause: issuance.ErrSupplyInvalid}
	}
	if !issuance.IsValidAddress(req.OwnerAddress) {
		return &issuance.ValidationError{Field: "ownerAddress", Cause: issuance.ErrInvalidAddress}
	}
	return nil
}

// buildMemoIx builds an SPL memo instruction without signer accounts.
func buildMemoIx(memo string) types.Instruction {
	return types.Instruction{
		ProgramID: common.PublicKeyFromString(memoProgramID),
		Accounts:  []types.AccountMeta{},
		Data:      []byte(memo),
	}
}

// newUnsignedTransaction allocates one zero signature per required signer.
func newUnsignedTransaction(msg types.Message) types.Transaction {
	n := int(msg.Header.NumRequireSignatures)
	sigs := make([]types.Signature, n)
	for i := range sigs {
		sigs[i] = make([]byte, ed25519.SignatureSize)
	}
	return types.Transaction{Signatures: sigs, Message: msg}
}
