// internal/domain/issuance/entity.go
package issuance

import (
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// Policy
const (
	MaxDecimals = 9

	// Solana pubkey は 32 byte。base58 表記の長さはおおむね 32..44。
	PubkeyLen      = 32
	Base58MinLen   = 32
	Base58MaxLen   = 44
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
)

// FeatureToggles は発行時に選択できるオプション。
// 有効なトグルごとに手数料が加算される。
type FeatureToggles struct {
	ModifyCreator bool `json:"modifyCreator"`
	RevokeFreeze  bool `json:"revokeFreeze"`
	RevokeMint    bool `json:"revokeMint"`
	RevokeUpdate  bool `json:"revokeUpdate"`
}

// Toggle names one feature toggle.
type Toggle string

const (
	ToggleModifyCreator Toggle = "modifyCreator"
	ToggleRevokeFreeze  Toggle = "revokeFreeze"
	ToggleRevokeMint    Toggle = "revokeMint"
	ToggleRevokeUpdate  Toggle = "revokeUpdate"
)

// Enabled returns the enabled toggles in a fixed order.
func (t FeatureToggles) Enabled() []Toggle {
	out := make([]Toggle, 0, 4)
	if t.ModifyCreator {
		out = append(out, ToggleModifyCreator)
	}
	if t.RevokeFreeze {
		out = append(out, ToggleRevokeFreeze)
	}
	if t.RevokeMint {
		out = append(out, ToggleRevokeMint)
	}
	if t.RevokeUpdate {
		out = append(out, ToggleRevokeUpdate)
	}
	return out
}

// IssuanceInput はリクエスト境界から渡される未検証の入力。
// InitialSupply は "1,000,000" のような整形済み文字列も受け付ける。
type IssuanceInput struct {
	Name          string
	Symbol        string
	Decimals      int
	InitialSupply string
	OwnerAddress  string
	Toggles       FeatureToggles
}

// TokenIssuanceRequest は検証済みの発行リクエスト。
// NewTokenIssuanceRequest 以外から組み立てないこと。
type TokenIssuanceRequest struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply uint64
	OwnerAddress  string
	Toggles       FeatureToggles
}

// NewTokenIssuanceRequest validates in and returns an immutable request.
// All failures are *ValidationError.
func NewTokenIssuanceRequest(in IssuanceInput) (TokenIssuanceRequest, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return TokenIssuanceRequest{}, invalid("tokenName", ErrNameEmpty)
	}
	symbol := strings.TrimSpace(in.Symbol)
	if symbol == "" {
		return TokenIssuanceRequest{}, invalid("tokenSymbol", ErrSymbolEmpty)
	}
	if in.Decimals < 0 || in.Decimals > MaxDecimals {
		return TokenIssuanceRequest{}, invalid("decimals", ErrDecimalsOutOfRange)
	}
	supply, err := ParseSupply(in.InitialSupply)
	if err != nil {
		return TokenIssuanceRequest{}, err
	}
	if _, err := ScaleSupply(supply, uint8(in.Decimals)); err != nil {
		return TokenIssuanceRequest{}, err
	}
	owner := strings.TrimSpace(in.OwnerAddress)
	if !IsValidAddress(owner) {
		return TokenIssuanceRequest{}, invalid("ownerAddress", ErrInvalidAddress)
	}

	return TokenIssuanceRequest{
		Name:          name,
		Symbol:        symbol,
		Decimals:      uint8(in.Decimals),
		InitialSupply: supply,
		OwnerAddress:  owner,
		Toggles:       in.Toggles,
	}, nil
}

// ParseSupply strips formatting characters (",", "_", spaces) and parses a
// positive integer.
func ParseSupply(raw string) (uint64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '_', ' ', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, invalid("initialSupply", ErrSupplyInvalid)
	}
	n, err := strconv.ParseUint(cleaned, 10, 64)
	if err != nil || n == 0 {
		return 0, invalid("initialSupply", ErrSupplyInvalid)
	}
	return n, nil
}

// ScaleSupply returns supply × 10^decimals in base units.
func ScaleSupply(supply uint64, decimals uint8) (uint64, error) {
	if decimals > MaxDecimals {
		return 0, invalid("decimals", ErrDecimalsOutOfRange)
	}
	out := supply
	for i := uint8(0); i < decimals; i++ {
		if out > ^uint64(0)/10 {
			return 0, invalid("initialSupply", ErrSupplyOverflow)
		}
		out *= 10
	}
	return out, nil
}

// IsValidAddress checks the fixed base58 alphabet and that the decoded value
// is exactly a 32-byte public key.
func IsValidAddress(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < Base58MinLen || len(s) > Base58MaxLen {
		return false
	}
	if !IsBase58(s) {
		return false
	}
	b, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(b) == PubkeyLen
}

// IsBase58 reports whether every character of s is in the base58 alphabet.
func IsBase58(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !strings.ContainsRune(base58Alphabet, rune(s[i])) {
			return false
		}
	}
	return true
}
