// internal/infra/solana/issuance_signer.go
package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	usecase "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	// 1 署名あたりのネットワーク手数料（lamports）
	lamportsPerSignature uint64 = 5000

	systemInstructionCreateAccount uint32 = 0
	systemInstructionTransfer      uint32 = 2
)

// IssuanceSigner implements usecase.TransactionSigner with the two
// server-held keys.
type IssuanceSigner struct {
	creds SignerCredentials
}

var _ usecase.TransactionSigner = (*IssuanceSigner)(nil)

func NewIssuanceSigner(creds SignerCredentials) *IssuanceSigner {
	return &IssuanceSigner{creds: creds}
}

func (s *IssuanceSigner) AuthorityKeys() (usecase.AuthorityKeys, error) {
	a, err := ParseAuthorities(s.creds)
	if err != nil {
		return usecase.AuthorityKeys{}, err
	}
	return usecase.AuthorityKeys{
		TokenCreation: a.TokenCreation.PublicKey.ToBase58(),
		FeeCollection: a.FeeCollection.PublicKey.ToBase58(),
	}, nil
}

// Prepare: credentials -> decode -> mint embedded -> exact leg shape -> per-leg sign.
func (s *IssuanceSigner) Prepare(pair issuance.UnsignedTransactionPair, policy usecase.SigningPolicy) (usecase.PreparedPair, error) {
	auth, err := ParseAuthorities(s.creds)
	if err != nil {
		return usecase.PreparedPair{}, err
	}

	feeTx, err := DecodeTransaction("feeTransaction", pair.FeeTransaction)
	if err != nil {
		return usecase.PreparedPair{}, err
	}
	mintTx, err := DecodeTransaction("tokenTransaction", pair.MintTransaction)
	if err != nil {
		return usecase.PreparedPair{}, err
	}

	if !issuance.IsValidAddress(pair.MintAddress) {
		return usecase.PreparedPair{}, &issuance.ValidationError{Field: "mintAddress", Cause: issuance.ErrInvalidAddress}
	}
	if !ContainsMint(feeTx, pair.MintAddress) {
		return usecase.PreparedPair{}, &issuance.ValidationError{Field: "feeTransaction", Cause: issuance.ErrMintNotEmbedded}
	}
	if !ContainsMint(mintTx, pair.MintAddress) {
		return usecase.PreparedPair{}, &issuance.ValidationError{Field: "tokenTransaction", Cause: issuance.ErrMintNotEmbedded}
	}

	mint := common.PublicKeyFromString(pair.MintAddress)
	owner, err := verifyFeeLeg(feeTx, mint, auth.FeeCollection.PublicKey, policy)
	if err != nil {
		return usecase.PreparedPair{}, err
	}
	if err := verifyMintLeg(mintTx, mint, owner, auth.TokenCreation.PublicKey, policy); err != nil {
		return usecase.PreparedPair{}, err
	}

	return usecase.PreparedPair{
		MintAddress: pair.MintAddress,
		Fee:         prepareLeg(issuance.LegFee, feeTx, auth.FeeCollection),
		Mint:        prepareLeg(issuance.LegMint, mintTx, auth.TokenCreation),
	}, nil
}

// legInstruction is a compiled instruction with its account indexes resolved.
type legInstruction struct {
	program  common.PublicKey
	accounts []common.PublicKey
	data     []byte
}

func resolveInstructions(field string, tx types.Transaction) ([]legInstruction, error) {
	msg := tx.Message
	out := make([]legInstruction, 0, len(msg.Instructions))
	for i, ins := range msg.Instructions {
		if ins.ProgramIDIndex < 0 || ins.ProgramIDIndex >= len(msg.Accounts) {
			return nil, &issuance.ValidationError{Field: field, Cause: fmt.Errorf("%w: instruction %d has no program", issuance.ErrTransactionFormat, i)}
		}
		li := legInstruction{program: msg.Accounts[ins.ProgramIDIndex], data: ins.Data}
		for _, idx := range ins.Accounts {
			if idx < 0 || idx >= len(msg.Accounts) {
				return nil, &issuance.ValidationError{Field: field, Cause: fmt.Errorf("%w: instruction %d account out of range", issuance.ErrTransactionFormat, i)}
			}
			li.accounts = append(li.accounts, msg.Accounts[idx])
		}
		out = append(out, li)
	}
	return out, nil
}

func unexpected(field string, format string, args ...any) error {
	return &issuance.ValidationError{Field: field, Cause: fmt.Errorf("%w: "+format, append([]any{issuance.ErrUnexpectedProgram}, args...)...)}
}

// verifyFeeLeg accepts exactly what BuildIssuanceTransactions emits for the
// fee leg: Transfer(owner -> fee authority, >= MinFeeLamports) then
// Memo(mint). It returns the paying owner.
func verifyFeeLeg(tx types.Transaction, mint, feeAuth common.PublicKey, policy usecase.SigningPolicy) (common.PublicKey, error) {
	const field = "feeTransaction"
	var none common.PublicKey

	if payer, ok := FeePayer(tx); !ok || payer != feeAuth {
		return none, unexpected(field, "fee payer is not the fee collection authority")
	}
	ins, err := resolveInstructions(field, tx)
	if err != nil {
		return none, err
	}
	if len(ins) != 2 {
		return none, unexpected(field, "expected 2 instructions, got %d", len(ins))
	}

	transfer := ins[0]
	if transfer.program != common.SystemProgramID ||
		len(transfer.data) != 12 ||
		binary.LittleEndian.Uint32(transfer.data[:4]) != systemInstructionTransfer ||
		len(transfer.accounts) != 2 {
		return none, unexpected(field, "instruction 0 is not a system transfer")
	}
	from, to := transfer.accounts[0], transfer.accounts[1]
	if to != feeAuth || from == feeAuth {
		return none, unexpected(field, "transfer must pay the fee collection authority")
	}
	if owner := policy.OwnerAddress; owner != "" && from.ToBase58() != owner {
		return none, &issuance.ValidationError{Field: field, Cause: issuance.ErrOwnerMismatch}
	}
	if paid := binary.LittleEndian.Uint64(transfer.data[4:12]); paid < policy.MinFeeLamports {
		return none, &issuance.ValidationError{Field: field, Cause: fmt.Errorf("%w: %d < %d lamports", issuance.ErrFeeBelowQuote, paid, policy.MinFeeLamports)}
	}

	memo := ins[1]
	if memo.program != common.PublicKeyFromString(memoProgramID) || string(memo.data) != mint.ToBase58() {
		return none, unexpected(field, "instruction 1 is not the mint memo")
	}
	return from, nil
}

// verifyMintLeg accepts exactly the mint leg BuildIssuanceTransactions emits:
//  1. CreateAccount(authority -> mint, <= MaxMintRentLamports, MintAccountSize, token program)
//  2. InitializeMint(mint, mint authority = authority)
//  3. CreateAssociatedTokenAccount(owner, mint)
//  4. MintTo(mint -> owner ATA)
//  5. SetAuthority(mint, MintTokens -> none)   RevokeMint のときのみ
//
// Any other token instruction would run with the authority's signature
// against mints it already controls.
func verifyMintLeg(tx types.Transaction, mint, owner, auth common.PublicKey, policy usecase.SigningPolicy) error {
	const field = "tokenTransaction"

	if payer, ok := FeePayer(tx); !ok || payer != auth {
		return unexpected(field, "fee payer is not the token creation authority")
	}
	ins, err := resolveInstructions(field, tx)
	if err != nil {
		return err
	}
	if len(ins) != 4 && len(ins) != 5 {
		return unexpected(field, "expected 4 or 5 instructions, got %d", len(ins))
	}

	// 1) CreateAccount
	create := ins[0]
	if create.program != common.SystemProgramID ||
		len(create.data) != 52 ||
		binary.LittleEndian.Uint32(create.data[:4]) != systemInstructionCreateAccount ||
		len(create.accounts) != 2 ||
		create.accounts[0] != auth || create.accounts[1] != mint {
		return unexpected(field, "instruction 0 is not the mint account creation")
	}
	if lamports := binary.LittleEndian.Uint64(create.data[4:12]); lamports > policy.MaxMintRentLamports {
		return unexpected(field, "mint account funding %d exceeds rent-exempt minimum %d", lamports, policy.MaxMintRentLamports)
	}
	if space := binary.LittleEndian.Uint64(create.data[12:20]); space != token.MintAccountSize {
		return unexpected(field, "mint account space %d", space)
	}
	if common.PublicKeyFromBytes(create.data[20:52]) != common.TokenProgramID {
		return unexpected(field, "mint account is not owned by the token program")
	}

	// 2) InitializeMint
	initIx := ins[1]
	if initIx.program != common.TokenProgramID ||
		len(initIx.data) != 67 ||
		token.Instruction(initIx.data[0]) != token.InstructionInitializeMint ||
		len(initIx.accounts) == 0 || initIx.accounts[0] != mint ||
		common.PublicKeyFromBytes(initIx.data[2:34]) != auth {
		return unexpected(field, "instruction 1 is not the mint initialization")
	}
	switch initIx.data[34] {
	case 0:
	case 1:
		if policy.RequireFreezeRevoked || common.PublicKeyFromBytes(initIx.data[35:67]) != auth {
			return unexpected(field, "unexpected freeze authority")
		}
	default:
		return unexpected(field, "malformed freeze authority option")
	}

	// 3) CreateAssociatedTokenAccount
	ataIx := ins[2]
	if ataIx.program != common.PublicKeyFromString(associatedTokenProgramID) ||
		len(ataIx.accounts) < 4 ||
		len(ataIx.data) > 1 || (len(ataIx.data) == 1 && ataIx.data[0] != 0) ||
		ataIx.accounts[0] != auth || ataIx.accounts[3] != mint {
		return unexpected(field, "instruction 2 is not the owner token account creation")
	}
	if ataIx.accounts[2] != owner {
		return &issuance.ValidationError{Field: field, Cause: issuance.ErrOwnerMismatch}
	}
	ata, _, err := common.FindAssociatedTokenAddress(owner, mint)
	if err != nil || ataIx.accounts[1] != ata {
		return unexpected(field, "owner token account is not the associated address")
	}

	// 4) MintTo
	mintTo := ins[3]
	if mintTo.program != common.TokenProgramID ||
		len(mintTo.data) != 9 ||
		token.Instruction(mintTo.data[0]) != token.InstructionMintTo ||
		len(mintTo.accounts) != 3 ||
		mintTo.accounts[0] != mint || mintTo.accounts[1] != ata || mintTo.accounts[2] != auth {
		return unexpected(field, "instruction 3 is not the initial supply mint")
	}

	// 5) mint authority の放棄
	if len(ins) == 4 {
		if policy.RequireMintRevoked {
			return unexpected(field, "mint authority revoke is missing")
		}
		return nil
	}
	revoke := ins[4]
	if revoke.program != common.TokenProgramID ||
		len(revoke.data) != 35 ||
		token.Instruction(revoke.data[0]) != token.InstructionSetAuthority ||
		token.AuthorityType(revoke.data[1]) != token.AuthorityTypeMintTokens ||
		revoke.data[2] != 0 ||
		len(revoke.accounts) != 2 ||
		revoke.accounts[0] != mint || revoke.accounts[1] != auth {
		return unexpected(field, "instruction 4 is not the mint authority revoke")
	}
	return nil
}

func prepareLeg(leg issuance.Leg, tx types.Transaction, signer types.Account) usecase.PreparedLeg {
	out := usecase.PreparedLeg{Leg: leg}

	if err := SignTransaction(&tx, signer); err != nil {
		out.Err = fmt.Errorf("%s leg: %w", leg, err)
		return out
	}
	signed, err := tx.Serialize()
	if err != nil {
		out.Err = fmt.Errorf("%s leg: serialize: %w", leg, err)
		return out
	}

	out.Signed = signed
	if len(tx.Signatures) > 0 {
		out.Signature = base58.Encode(tx.Signatures[0])
	}
	out.Missing = MissingSignatures(tx)
	out.Requirements = BalanceRequirements(tx)
	return out
}

// BalanceRequirements sums the lamports each account must hold: system
// transfers and account creations it funds, plus signature fees for the fee
// payer.
func BalanceRequirements(tx types.Transaction) []usecase.BalanceRequirement {
	msg := tx.Message
	systemProgram := common.SystemProgramID

	order := make([]string, 0, 2)
	need := make(map[string]uint64)
	add := func(pub common.PublicKey, lamports uint64) {
		k := pub.ToBase58()
		if _, ok := need[k]; !ok {
			order = append(order, k)
		}
		need[k] += lamports
	}

	if payer, ok := FeePayer(tx); ok {
		add(payer, lamportsPerSignature*uint64(msg.Header.NumRequireSignatures))
	}

	for _, ins := range msg.Instructions {
		if ins.ProgramIDIndex < 0 || ins.ProgramIDIndex >= len(msg.Accounts) {
			continue
		}
		if msg.Accounts[ins.ProgramIDIndex] != systemProgram {
			continue
		}
		if len(ins.Data) < 12 || len(ins.Accounts) == 0 {
			continue
		}
		kind := binary.LittleEndian.Uint32(ins.Data[:4])
		if kind != systemInstructionTransfer && kind != systemInstructionCreateAccount {
			continue
		}
		fromIdx := ins.Accounts[0]
		if fromIdx < 0 || fromIdx >= len(msg.Accounts) {
			continue
		}
		add(msg.Accounts[fromIdx], binary.LittleEndian.Uint64(ins.Data[4:12]))
	}

	out := make([]usecase.BalanceRequirement, 0, len(order))
	for _, k := range order {
		out = append(out, usecase.BalanceRequirement{Address: k, Lamports: need[k]})
	}
	return out
}
