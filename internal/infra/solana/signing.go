// internal/infra/solana/signing.go
package solana

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

var ErrSignerNotRequired = errors.New("signing: account is not a required signer of this transaction")

// DecodeTransaction parses wire bytes into a blocto transaction.
func DecodeTransaction(field string, raw []byte) (types.Transaction, error) {
	tx, err := types.TransactionDeserialize(raw)
	if err != nil {
		return types.Transaction{}, &issuance.ValidationError{Field: field, Cause: fmt.Errorf("%w: %v", issuance.ErrTransactionFormat, err)}
	}
	if int(tx.Message.Header.NumRequireSignatures) != len(tx.Signatures) {
		return types.Transaction{}, &issuance.ValidationError{
			Field: field,
			Cause: fmt.Errorf("%w: signature count %d does not match header %d", issuance.ErrTransactionFormat, len(tx.Signatures), tx.Message.Header.NumRequireSignatures),
		}
	}
	return tx, nil
}

// SignTransaction signs the message with signer and stores the signature in
// the slot that belongs to signer's public key. Other slots are untouched.
func SignTransaction(tx *types.Transaction, signer types.Account) error {
	idx := signerIndex(tx.Message, signer.PublicKey)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSignerNotRequired, maskShort(signer.PublicKey.ToBase58()))
	}
	data, err := tx.Message.Serialize()
	if err != nil {
		return fmt.Errorf("signing: serialize message: %w", err)
	}
	for len(tx.Signatures) <= idx {
		tx.Signatures = append(tx.Signatures, make([]byte, 64))
	}
	tx.Signatures[idx] = signer.Sign(data)
	return nil
}

// MissingSignatures returns required signers whose slot is still zero,
// excluding the accounts listed in willSign.
func MissingSignatures(tx types.Transaction, willSign ...common.PublicKey) []string {
	n := int(tx.Message.Header.NumRequireSignatures)
	out := make([]string, 0)
	for i := 0; i < n && i < len(tx.Message.Accounts); i++ {
		acc := tx.Message.Accounts[i]
		if containsKey(willSign, acc) {
			continue
		}
		if i >= len(tx.Signatures) || isZeroSignature(tx.Signatures[i]) {
			out = append(out, acc.ToBase58())
		}
	}
	return out
}

// ContainsMint reports whether the mint address appears in the transaction,
// either as an account key or as memo data.
func ContainsMint(tx types.Transaction, mintAddress string) bool {
	mint := common.PublicKeyFromString(mintAddress)
	for _, acc := range tx.Message.Accounts {
		if acc == mint {
			return true
		}
	}
	memo := []byte(mintAddress)
	for _, ins := range tx.Message.Instructions {
		if bytes.Equal(ins.Data, memo) {
			return true
		}
	}
	return false
}

// FeePayer is the first account of the message.
func FeePayer(tx types.Transaction) (common.PublicKey, bool) {
	if len(tx.Message.Accounts) == 0 {
		return common.PublicKey{}, false
	}
	return tx.Message.Accounts[0], true
}

func signerIndex(msg types.Message, pub common.PublicKey) int {
	n := int(msg.Header.NumRequireSignatures)
	for i := 0; i < n && i < len(msg.Accounts); i++ {
		if msg.Accounts[i] == pub {
			return i
		}
	}
	return -1
}

func containsKey(keys []common.PublicKey, k common.PublicKey) bool {
	for _, x := range keys {
		if x == k {
			return true
		}
	}
	return false
}

func isZeroSignature(sig []byte) bool {
	for _, b := range sig {
		if b != 0 {
			return false
		}
	}
	return true
}
