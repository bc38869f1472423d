package solana

import (
	"crypto/ed25519"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	usecase "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

func TestIssuanceSignerPrepare(t *testing.T) {
	f := newFixture(t)
	pair := f.ownerSign(t, f.build(t, allToggles))

	s := NewIssuanceSigner(f.creds)
	prepared, err := s.Prepare(pair, f.signingPolicy())
	require.NoError(t, err)

	assert.Equal(t, pair.MintAddress, prepared.MintAddress)
	for _, leg := range []struct {
		name   string
		signed []byte
		sig    string
		signer types.Account
	}{
		{"fee", prepared.Fee.Signed, prepared.Fee.Signature, f.fee},
		{"mint", prepared.Mint.Signed, prepared.Mint.Signature, f.creation},
	} {
		tx, err := types.TransactionDeserialize(leg.signed)
		require.NoError(t, err, leg.name)
		data, err := tx.Message.Serialize()
		require.NoError(t, err)

		// fee payer の署名が tx id になる
		assert.Equal(t, base58.Encode(tx.Signatures[0]), leg.sig, leg.name)
		assert.True(t, ed25519.Verify(ed25519.PublicKey(leg.signer.PublicKey.Bytes()), data, tx.Signatures[0]), leg.name)
	}

	assert.NoError(t, prepared.Fee.Err)
	assert.NoError(t, prepared.Mint.Err)
	assert.Empty(t, prepared.Fee.Missing)
	assert.Empty(t, prepared.Mint.Missing)
}

func TestIssuanceSignerBalanceRequirements(t *testing.T) {
	f := newFixture(t)
	pair := f.ownerSign(t, f.build(t, allToggles))

	prepared, err := NewIssuanceSigner(f.creds).Prepare(pair, f.signingPolicy())
	require.NoError(t, err)

	need := map[string]uint64{}
	for _, r := range prepared.Fee.Requirements {
		need[r.Address] = r.Lamports
	}
	assert.Equal(t, uint64(10_000), need[f.fee.PublicKey.ToBase58()])
	assert.Equal(t, uint64(500_000_000), need[f.owner.PublicKey.ToBase58()])

	need = map[string]uint64{}
	for _, r := range prepared.Mint.Requirements {
		need[r.Address] = r.Lamports
	}
	assert.Equal(t, uint64(10_000+1_461_600), need[f.creation.PublicKey.ToBase58()])
}

func TestIssuanceSignerMissingOwnerSignature(t *testing.T) {
	f := newFixture(t)
	pair := f.build(t, issuance.FeatureToggles{})

	prepared, err := NewIssuanceSigner(f.creds).Prepare(pair, f.signingPolicy())
	require.NoError(t, err)
	assert.Equal(t, []string{f.owner.PublicKey.ToBase58()}, prepared.Fee.Missing)
	assert.Empty(t, prepared.Mint.Missing)
}

func TestIssuanceSignerConfigurationBeforeDecode(t *testing.T) {
	f := newFixture(t)

	// 鍵が無ければ壊れた payload でも ConfigurationError が先
	_, err := NewIssuanceSigner(SignerCredentials{FeeCollectionKey: f.creds.FeeCollectionKey}).Prepare(issuance.UnsignedTransactionPair{
		FeeTransaction:  []byte{1, 2, 3},
		MintTransaction: []byte{4, 5, 6},
		MintAddress:     f.mint.PublicKey.ToBase58(),
	}, f.signingPolicy())
	assert.True(t, issuance.IsConfiguration(err))
	assert.ErrorIs(t, err, issuance.ErrCredentialMissing)
}

func TestIssuanceSignerRejects(t *testing.T) {
	f := newFixture(t)
	pair := f.ownerSign(t, f.build(t, issuance.FeatureToggles{}))
	s := NewIssuanceSigner(f.creds)

	t.Run("mint not embedded", func(t *testing.T) {
		p := pair
		p.MintAddress = testAccount(t, 9).PublicKey.ToBase58()
		_, err := s.Prepare(p, f.signingPolicy())
		assert.True(t, issuance.IsValidation(err))
		assert.ErrorIs(t, err, issuance.ErrMintNotEmbedded)
	})

	t.Run("garbage transaction", func(t *testing.T) {
		p := pair
		p.MintTransaction = []byte{0xff, 0x00}
		_, err := s.Prepare(p, f.signingPolicy())
		assert.True(t, issuance.IsValidation(err))
		assert.ErrorIs(t, err, issuance.ErrTransactionFormat)
	})

	t.Run("transfer from authority", func(t *testing.T) {
		// fee collection authority から送金させる payload には署名しない
		p := pair
		p.FeeTransaction = rawTx(t, f.fee.PublicKey,
			system.Transfer(system.TransferParam{From: f.fee.PublicKey, To: f.owner.PublicKey, Amount: 1_000_000_000}),
			buildMemoIx(pair.MintAddress),
		)
		_, err := s.Prepare(p, f.signingPolicy())
		assert.True(t, issuance.IsValidation(err))
		assert.ErrorIs(t, err, issuance.ErrUnexpectedProgram)
	})
}

func TestIssuanceSignerMintLegShape(t *testing.T) {
	f := newFixture(t)
	pair := f.ownerSign(t, f.build(t, issuance.FeatureToggles{}))
	s := NewIssuanceSigner(f.creds)

	victim := testAccount(t, 7).PublicKey
	victimATA, _, err := common.FindAssociatedTokenAddress(f.owner.PublicKey, victim)
	require.NoError(t, err)
	attacker := testAccount(t, 8).PublicKey

	test := func(name string, tamper func([]types.Instruction) []types.Instruction) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := pair
			p.MintTransaction = rawTx(t, f.creation.PublicKey, tamper(f.issuanceMintIxs(t))...)
			prepared, err := s.Prepare(p, f.signingPolicy())
			assert.True(t, issuance.IsValidation(err), "err=%v", err)
			assert.ErrorIs(t, err, issuance.ErrUnexpectedProgram)
			assert.Nil(t, prepared.Mint.Signed)
		})
	}

	test("extra mint to another mint", func(ixs []types.Instruction) []types.Instruction {
		return append(ixs, token.MintTo(token.MintToParam{Mint: victim, To: victimATA, Auth: f.creation.PublicKey, Amount: 1 << 62}))
	})
	test("mint to another mint in place of supply", func(ixs []types.Instruction) []types.Instruction {
		ixs[3] = token.MintTo(token.MintToParam{Mint: victim, To: victimATA, Auth: f.creation.PublicKey, Amount: 1 << 62})
		return ixs
	})
	test("authority handed over on another mint", func(ixs []types.Instruction) []types.Instruction {
		return append(ixs, token.SetAuthority(token.SetAuthorityParam{Account: victim, NewAuth: &attacker, AuthType: token.AuthorityTypeMintTokens, Auth: f.creation.PublicKey}))
	})
	test("authority handed over on this mint", func(ixs []types.Instruction) []types.Instruction {
		return append(ixs, token.SetAuthority(token.SetAuthorityParam{Account: f.mint.PublicKey, NewAuth: &attacker, AuthType: token.AuthorityTypeMintTokens, Auth: f.creation.PublicKey}))
	})
	test("freeze another account", func(ixs []types.Instruction) []types.Instruction {
		return append(ixs, token.FreezeAccount(token.FreezeAccountParam{Account: victimATA, Mint: victim, Auth: f.creation.PublicKey}))
	})
	test("create account drains authority", func(ixs []types.Instruction) []types.Instruction {
		ixs[0] = system.CreateAccount(system.CreateAccountParam{
			From:     f.creation.PublicKey,
			New:      f.mint.PublicKey,
			Owner:    common.TokenProgramID,
			Lamports: 500_000_000_000,
			Space:    token.MintAccountSize,
		})
		return ixs
	})
	test("create account for attacker", func(ixs []types.Instruction) []types.Instruction {
		return append([]types.Instruction{system.CreateAccount(system.CreateAccountParam{
			From:     f.creation.PublicKey,
			New:      attacker,
			Owner:    common.SystemProgramID,
			Lamports: 1_461_600,
		})}, ixs[1:]...)
	})
	test("create account owned by system program", func(ixs []types.Instruction) []types.Instruction {
		ixs[0] = system.CreateAccount(system.CreateAccountParam{
			From:     f.creation.PublicKey,
			New:      f.mint.PublicKey,
			Owner:    common.SystemProgramID,
			Lamports: 1_461_600,
			Space:    token.MintAccountSize,
		})
		return ixs
	})
	test("mint authority handed to attacker", func(ixs []types.Instruction) []types.Instruction {
		ixs[1] = token.InitializeMint(token.InitializeMintParam{Decimals: 9, Mint: f.mint.PublicKey, MintAuth: attacker})
		return ixs
	})
	test("supply only", func(ixs []types.Instruction) []types.Instruction {
		return ixs[3:]
	})

	t.Run("untampered instructions are signed", func(t *testing.T) {
		p := pair
		p.MintTransaction = rawTx(t, f.creation.PublicKey, f.issuanceMintIxs(t)...)
		prepared, err := s.Prepare(p, f.signingPolicy())
		require.NoError(t, err)
		assert.NotEmpty(t, prepared.Mint.Signed)
	})
}

func TestIssuanceSignerRevokedAuthorities(t *testing.T) {
	f := newFixture(t)
	s := NewIssuanceSigner(f.creds)

	revoked := f.signingPolicy()
	revoked.RequireMintRevoked = true
	revoked.RequireFreezeRevoked = true

	t.Run("revokes present", func(t *testing.T) {
		pair := f.ownerSign(t, f.build(t, allToggles))
		policy := revoked
		policy.MinFeeLamports = issuance.QuoteFee(allToggles).TotalLamports()
		_, err := s.Prepare(pair, policy)
		assert.NoError(t, err)
	})

	t.Run("revokes missing", func(t *testing.T) {
		pair := f.ownerSign(t, f.build(t, issuance.FeatureToggles{}))
		_, err := s.Prepare(pair, revoked)
		assert.True(t, issuance.IsValidation(err))
		assert.ErrorIs(t, err, issuance.ErrUnexpectedProgram)
	})
}

func TestIssuanceSignerFeeLegShape(t *testing.T) {
	f := newFixture(t)
	pair := f.ownerSign(t, f.build(t, issuance.FeatureToggles{}))
	s := NewIssuanceSigner(f.creds)
	mintAddr := pair.MintAddress
	other := testAccount(t, 5).PublicKey

	test := func(name string, feeTx []byte, policy func(*usecase.SigningPolicy), expect error) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			p := pair
			if feeTx != nil {
				p.FeeTransaction = feeTx
			}
			pol := f.signingPolicy()
			if policy != nil {
				policy(&pol)
			}
			_, err := s.Prepare(p, pol)
			assert.True(t, issuance.IsValidation(err), "err=%v", err)
			assert.ErrorIs(t, err, expect)
		})
	}

	test("memo only", rawTx(t, f.fee.PublicKey, buildMemoIx(mintAddr)), nil, issuance.ErrUnexpectedProgram)
	test("transfer to someone else",
		rawTx(t, f.fee.PublicKey,
			system.Transfer(system.TransferParam{From: f.owner.PublicKey, To: other, Amount: 100_000_000}),
			buildMemoIx(mintAddr),
		), nil, issuance.ErrUnexpectedProgram)
	test("paid by another fee payer",
		rawTx(t, other,
			system.Transfer(system.TransferParam{From: f.owner.PublicKey, To: f.fee.PublicKey, Amount: 100_000_000}),
			buildMemoIx(mintAddr),
		), nil, issuance.ErrUnexpectedProgram)
	test("below base fee",
		rawTx(t, f.fee.PublicKey,
			system.Transfer(system.TransferParam{From: f.owner.PublicKey, To: f.fee.PublicKey, Amount: 1}),
			buildMemoIx(mintAddr),
		), nil, issuance.ErrFeeBelowQuote)
	test("below recorded total", nil, func(p *usecase.SigningPolicy) {
		p.MinFeeLamports = 500_000_000
	}, issuance.ErrFeeBelowQuote)
	test("recorded owner differs", nil, func(p *usecase.SigningPolicy) {
		p.OwnerAddress = other.ToBase58()
	}, issuance.ErrOwnerMismatch)
	test("fee payer is not the token account owner",
		rawTx(t, f.fee.PublicKey,
			system.Transfer(system.TransferParam{From: other, To: f.fee.PublicKey, Amount: 100_000_000}),
			buildMemoIx(mintAddr),
		), nil, issuance.ErrOwnerMismatch)

	t.Run("recorded owner matches", func(t *testing.T) {
		pol := f.signingPolicy()
		pol.OwnerAddress = f.owner.PublicKey.ToBase58()
		_, err := s.Prepare(pair, pol)
		assert.NoError(t, err)
	})
}

func TestAuthorityKeys(t *testing.T) {
	f := newFixture(t)
	keys, err := NewIssuanceSigner(f.creds).AuthorityKeys()
	require.NoError(t, err)
	assert.Equal(t, f.creation.PublicKey.ToBase58(), keys.TokenCreation)
	assert.Equal(t, f.fee.PublicKey.ToBase58(), keys.FeeCollection)

	_, err = NewIssuanceSigner(SignerCredentials{}).AuthorityKeys()
	assert.True(t, issuance.IsConfiguration(err))
}
