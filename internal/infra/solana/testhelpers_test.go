package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	usecase "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const testBlockhash = "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N"

func testAccount(t *testing.T, seed byte) types.Account {
	t.Helper()
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = seed
	}
	acc, err := types.AccountFromBytes(ed25519.NewKeyFromSeed(s))
	require.NoError(t, err)
	return acc
}

func secretBase58(acc types.Account) string {
	return base58.Encode(acc.PrivateKey)
}

type fixture struct {
	owner    types.Account
	creation types.Account
	fee      types.Account
	mint     types.Account
	creds    SignerCredentials
}

func newFixture(t *testing.T) fixture {
	f := fixture{
		owner:    testAccount(t, 1),
		creation: testAccount(t, 2),
		fee:      testAccount(t, 3),
		mint:     testAccount(t, 4),
	}
	f.creds = SignerCredentials{
		TokenCreationKey: secretBase58(f.creation),
		FeeCollectionKey: secretBase58(f.fee),
	}
	return f
}

func (f fixture) request(toggles issuance.FeatureToggles) issuance.TokenIssuanceRequest {
	return issuance.TokenIssuanceRequest{
		Name:          "Test",
		Symbol:        "TST",
		Decimals:      9,
		InitialSupply: 1_000_000_000,
		OwnerAddress:  f.owner.PublicKey.ToBase58(),
		Toggles:       toggles,
	}
}

func (f fixture) params(feeLamports uint64) BuildParams {
	return BuildParams{
		RecentBlockhash:   testBlockhash,
		MintRentLamports:  1_461_600,
		TokenCreationAuth: f.creation.PublicKey,
		FeeCollectionAuth: f.fee.PublicKey,
		FeeLamports:       feeLamports,
	}
}

func (f fixture) build(t *testing.T, toggles issuance.FeatureToggles) issuance.UnsignedTransactionPair {
	t.Helper()
	q := issuance.QuoteFee(toggles)
	pair, err := BuildIssuanceTransactions(f.request(toggles), f.mint, f.params(q.TotalLamports()))
	require.NoError(t, err)
	return pair
}

// ownerSign simulates the client wallet co-signing the fee transaction.
func (f fixture) ownerSign(t *testing.T, pair issuance.UnsignedTransactionPair) issuance.UnsignedTransactionPair {
	t.Helper()
	tx, err := types.TransactionDeserialize(pair.FeeTransaction)
	require.NoError(t, err)
	require.NoError(t, SignTransaction(&tx, f.owner))
	b, err := tx.Serialize()
	require.NoError(t, err)
	pair.FeeTransaction = b
	return pair
}

func programOf(msg types.Message, ins types.CompiledInstruction) string {
	return msg.Accounts[ins.ProgramIDIndex].ToBase58()
}

// signingPolicy is the policy the submission usecase derives for a pair built
// by f.build with no fee record on file.
func (f fixture) signingPolicy() usecase.SigningPolicy {
	return usecase.SigningPolicy{
		MaxMintRentLamports: 1_461_600,
		MinFeeLamports:      100_000_000,
	}
}

// issuanceMintIxs returns the four mint-leg instructions for f.mint so tests
// can tamper with them.
func (f fixture) issuanceMintIxs(t *testing.T) []types.Instruction {
	t.Helper()
	ata, _, err := common.FindAssociatedTokenAddress(f.owner.PublicKey, f.mint.PublicKey)
	require.NoError(t, err)
	freeze := f.creation.PublicKey
	return []types.Instruction{
		system.CreateAccount(system.CreateAccountParam{
			From:     f.creation.PublicKey,
			New:      f.mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: 1_461_600,
			Space:    token.MintAccountSize,
		}),
		token.InitializeMint(token.InitializeMintParam{
			Decimals:   9,
			Mint:       f.mint.PublicKey,
			MintAuth:   f.creation.PublicKey,
			FreezeAuth: &freeze,
		}),
		associated_token_account.CreateAssociatedTokenAccount(associated_token_account.CreateAssociatedTokenAccountParam{
			Funder:                 f.creation.PublicKey,
			Owner:                  f.owner.PublicKey,
			Mint:                   f.mint.PublicKey,
			AssociatedTokenAccount: ata,
		}),
		token.MintTo(token.MintToParam{
			Mint:   f.mint.PublicKey,
			To:     ata,
			Auth:   f.creation.PublicKey,
			Amount: 1_000,
		}),
	}
}

// rawTx serializes an unsigned transaction paid by payer.
func rawTx(t *testing.T, payer common.PublicKey, ixs ...types.Instruction) []byte {
	t.Helper()
	tx := newUnsignedTransaction(types.NewMessage(types.NewMessageParam{
		FeePayer:        payer,
		RecentBlockhash: testBlockhash,
		Instructions:    ixs,
	}))
	raw, err := tx.Serialize()
	require.NoError(t, err)
	return raw
}
