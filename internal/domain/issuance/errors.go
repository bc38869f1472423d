// internal/domain/issuance/errors.go
package issuance

import (
	"errors"
	"fmt"
)

// 個別の原因を表す sentinel エラー。
// ValidationError などの分類エラーに Cause として包んで返す。
var (
	ErrNameEmpty          = errors.New("issuance: tokenName is empty")
	ErrSymbolEmpty        = errors.New("issuance: tokenSymbol is empty")
	ErrDecimalsOutOfRange = errors.New("issuance: decimals must be between 0 and 9")
	ErrSupplyInvalid      = errors.New("issuance: initialSupply must be a positive integer")
	ErrSupplyOverflow     = errors.New("issuance: initialSupply scaled by decimals overflows u64")
	ErrInvalidAddress     = errors.New("issuance: address is not a valid base58 public key")
	ErrTransactionEmpty   = errors.New("issuance: transaction payload is empty")
	ErrTransactionBase64  = errors.New("issuance: transaction payload is not valid base64")
	ErrTransactionFormat  = errors.New("issuance: transaction payload is not a valid ledger transaction")
	ErrMintNotEmbedded    = errors.New("issuance: mintAddress is not embedded in transaction")
	ErrUnexpectedProgram  = errors.New("issuance: transaction contains an instruction this service does not sign")
	ErrFeeBelowQuote      = errors.New("issuance: fee transfer is below the quoted fee")
	ErrOwnerMismatch      = errors.New("issuance: transaction owner does not match the issuance owner")

	ErrCredentialMissing   = errors.New("issuance: signing credential is not configured")
	ErrCredentialMalformed = errors.New("issuance: signing credential is malformed")

	ErrMissingCoSignature  = errors.New("issuance: transaction is missing a required co-signature")
	ErrInsufficientBalance = errors.New("issuance: fee payer balance is insufficient")
	ErrConfirmationTimeout = errors.New("issuance: confirmation timed out")
	ErrTransactionRejected = errors.New("issuance: transaction was rejected by the ledger")
)

// ValidationError はユーザーが修正できる入力不備（HTTP 400）。
type ValidationError struct {
	Field string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %v", e.Cause)
	}
	return fmt.Sprintf("validation error (%s): %v", e.Field, e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// ConfigurationError はサーバー側シークレットの欠落・不正（HTTP 500, 運用者が修正）。
type ConfigurationError struct {
	Key   string
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Key, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// LedgerSubmissionError は片方のレッグでの送信失敗。
// フロー全体は止めず、署名なし (absent) として記録される。
type LedgerSubmissionError struct {
	Leg   Leg
	Cause error
}

func (e *LedgerSubmissionError) Error() string {
	return fmt.Sprintf("ledger submission error (%s): %v", e.Leg, e.Cause)
}

func (e *LedgerSubmissionError) Unwrap() error { return e.Cause }

// PersistenceError は帳簿書き込みの失敗。ログのみで呼び出し元には返さない。
type PersistenceError struct {
	Op          string
	MintAddress string
	Cause       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error (%s mint=%s): %v", e.Op, e.MintAddress, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

func invalid(field string, cause error) error {
	return &ValidationError{Field: field, Cause: cause}
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfiguration reports whether err (or anything it wraps) is a ConfigurationError.
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}
