// internal/domain/issuance/transaction.go
package issuance

import (
	"encoding/base64"
	"strings"
)

// UnsignedTransactionPair は Instruction Builder の成果物。
// MintAddress は 1 リクエストにつき 1 回だけ生成され、両トランザクションに埋め込まれる。
type UnsignedTransactionPair struct {
	FeeTransaction  []byte
	MintTransaction []byte
	MintAddress     string
}

// EncodedPair is the base64 wire form used across the request/execution boundary.
type EncodedPair struct {
	FeeTransaction   string `json:"feeTransaction"`
	TokenTransaction string `json:"tokenTransaction"`
	MintAddress      string `json:"mintAddress"`
}

// EncodePair encodes both payloads with standard base64.
func EncodePair(p UnsignedTransactionPair) EncodedPair {
	return EncodedPair{
		FeeTransaction:   base64.StdEncoding.EncodeToString(p.FeeTransaction),
		TokenTransaction: base64.StdEncoding.EncodeToString(p.MintTransaction),
		MintAddress:      p.MintAddress,
	}
}

// DecodePair reverses EncodePair. Failures are *ValidationError.
func DecodePair(e EncodedPair) (UnsignedTransactionPair, error) {
	fee, err := decodeTx("feeTransaction", e.FeeTransaction)
	if err != nil {
		return UnsignedTransactionPair{}, err
	}
	mint, err := decodeTx("tokenTransaction", e.TokenTransaction)
	if err != nil {
		return UnsignedTransactionPair{}, err
	}
	addr := strings.TrimSpace(e.MintAddress)
	if !IsValidAddress(addr) {
		return UnsignedTransactionPair{}, invalid("mintAddress", ErrInvalidAddress)
	}
	return UnsignedTransactionPair{
		FeeTransaction:  fee,
		MintTransaction: mint,
		MintAddress:     addr,
	}, nil
}

func decodeTx(field, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, invalid(field, ErrTransactionEmpty)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, invalid(field, ErrTransactionBase64)
	}
	if len(b) == 0 {
		return nil, invalid(field, ErrTransactionEmpty)
	}
	return b, nil
}
