// internal/infra/solana/keys.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	KeyTokenCreation = "SOLANA_TOKEN_CREATION_KEY"
	KeyFeeCollection = "SOLANA_FEE_COLLECTION_KEY"
)

// SignerCredentials は起動時に一度だけ読み込むサーバー側の署名鍵（生の文字列）。
// 値として扱い、読み込み後は変更しない。全リクエストで読み取り専用に共有される。
type SignerCredentials struct {
	TokenCreationKey string
	FeeCollectionKey string
}

// String never prints secret material.
func (c SignerCredentials) String() string {
	return fmt.Sprintf("SignerCredentials{tokenCreation:%t feeCollection:%t}",
		strings.TrimSpace(c.TokenCreationKey) != "",
		strings.TrimSpace(c.FeeCollectionKey) != "",
	)
}

// GoString keeps %#v from leaking the keys as well.
func (c SignerCredentials) GoString() string { return c.String() }

// IssuanceAuthorities は検証済みの 2 つの署名アカウント。
//   - TokenCreation: mint トランザクションの fee payer / mint authority
//   - FeeCollection: fee トランザクションの fee payer / 手数料の受取先
type IssuanceAuthorities struct {
	TokenCreation types.Account
	FeeCollection types.Account
}

// ParseAuthorities validates both credentials. Any failure is a
// *issuance.ConfigurationError so that callers can fail fast before
// touching the ledger.
func ParseAuthorities(c SignerCredentials) (IssuanceAuthorities, error) {
	tc, err := ParseSigningKey(KeyTokenCreation, c.TokenCreationKey)
	if err != nil {
		return IssuanceAuthorities{}, err
	}
	fc, err := ParseSigningKey(KeyFeeCollection, c.FeeCollectionKey)
	if err != nil {
		return IssuanceAuthorities{}, err
	}
	if tc.PublicKey == fc.PublicKey {
		return IssuanceAuthorities{}, &issuance.ConfigurationError{
			Key:   KeyFeeCollection,
			Cause: fmt.Errorf("%w: fee collection key must differ from token creation key", issuance.ErrCredentialMalformed),
		}
	}
	return IssuanceAuthorities{TokenCreation: tc, FeeCollection: fc}, nil
}

// ParseSigningKey accepts a base58 encoded 64-byte secret key, or the
// solana-keygen JSON array form ([u8;64]).
func ParseSigningKey(name, raw string) (types.Account, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return types.Account{}, &issuance.ConfigurationError{Key: name, Cause: issuance.ErrCredentialMissing}
	}

	var keyBytes []byte
	if strings.HasPrefix(s, "[") {
		b, err := decodeKeypairJSON([]byte(s))
		if err != nil {
			return types.Account{}, &issuance.ConfigurationError{Key: name, Cause: fmt.Errorf("%w: %v", issuance.ErrCredentialMalformed, err)}
		}
		keyBytes = b
	} else {
		if !issuance.IsBase58(s) {
			return types.Account{}, &issuance.ConfigurationError{Key: name, Cause: fmt.Errorf("%w: not base58", issuance.ErrCredentialMalformed)}
		}
		b, err := base58.Decode(s)
		if err != nil {
			return types.Account{}, &issuance.ConfigurationError{Key: name, Cause: fmt.Errorf("%w: %v", issuance.ErrCredentialMalformed, err)}
		}
		keyBytes = b
	}

	if len(keyBytes) != ed25519.PrivateKeySize {
		return types.Account{}, &issuance.ConfigurationError{
			Key:   name,
			Cause: fmt.Errorf("%w: unexpected key length: got %d, want %d", issuance.ErrCredentialMalformed, len(keyBytes), ed25519.PrivateKeySize),
		}
	}

	// seed から導出した公開鍵と後半 32 byte が一致しない鍵は壊れている
	derived := ed25519.NewKeyFromSeed(keyBytes[:ed25519.SeedSize]).Public().(ed25519.PublicKey)
	if !derived.Equal(ed25519.PublicKey(keyBytes[ed25519.SeedSize:])) {
		return types.Account{}, &issuance.ConfigurationError{Key: name, Cause: fmt.Errorf("%w: public half does not match seed", issuance.ErrCredentialMalformed)}
	}

	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, &issuance.ConfigurationError{Key: name, Cause: fmt.Errorf("%w: %v", issuance.ErrCredentialMalformed, err)}
	}
	return acc, nil
}

// SecretSource tells LoadSignerCredentials where each key comes from.
// Secret Manager のバージョン名が設定されていればそちらを優先する。
type SecretSource struct {
	TokenCreationKey    string // env の生値
	FeeCollectionKey    string
	TokenCreationSecret string // "projects/<p>/secrets/<s>/versions/latest"
	FeeCollectionSecret string
}

// LoadSignerCredentials resolves the two keys once at process start.
// 取得に失敗した鍵は空のまま返し、実際の検証は ParseAuthorities に任せる
// （起動は止めず、送信時に ConfigurationError として表面化させる）。
func LoadSignerCredentials(ctx context.Context, sm *secretmanager.Client, src SecretSource) SignerCredentials {
	creds := SignerCredentials{
		TokenCreationKey: strings.TrimSpace(src.TokenCreationKey),
		FeeCollectionKey: strings.TrimSpace(src.FeeCollectionKey),
	}

	if name := strings.TrimSpace(src.TokenCreationSecret); name != "" {
		v, err := accessSecret(ctx, sm, name)
		if err != nil {
			log.Printf("[solana.keys] WARN: token creation key secret unavailable: %v", err)
		} else {
			creds.TokenCreationKey = v
		}
	}
	if name := strings.TrimSpace(src.FeeCollectionSecret); name != "" {
		v, err := accessSecret(ctx, sm, name)
		if err != nil {
			log.Printf("[solana.keys] WARN: fee collection key secret unavailable: %v", err)
		} else {
			creds.FeeCollectionKey = v
		}
	}

	// 公開鍵のみログに出す
	if a, err := ParseAuthorities(creds); err == nil {
		log.Printf(
			"[solana.keys] authorities loaded tokenCreation=%s feeCollection=%s",
			maskShort(a.TokenCreation.PublicKey.ToBase58()),
			maskShort(a.FeeCollection.PublicKey.ToBase58()),
		)
	} else {
		log.Printf("[solana.keys] WARN: authorities not usable: %v", err)
	}
	return creds
}

func accessSecret(ctx context.Context, sm *secretmanager.Client, name string) (string, error) {
	if sm == nil {
		return "", errors.New("secret manager client is nil")
	}
	resp, err := sm.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("AccessSecretVersion %s: %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return "", fmt.Errorf("secret %s has no payload", name)
	}
	return strings.TrimSpace(string(resp.Payload.Data)), nil
}

// decodeKeypairJSON は solana-keygen 形式の keypair JSON から 64 byte を復元する。
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}
	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("byte out of range at %d: %d", i, v)
		}
		b[i] = byte(v)
	}
	return b, nil
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
