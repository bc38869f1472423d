// internal/infra/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	RecordBackendFirestore = "firestore"
	RecordBackendPostgres  = "postgres"
	RecordBackendNone      = "none"
)

// Config はアプリケーション全体の環境変数設定を保持する。
// 署名鍵の生値を含むので %v でログに出さないこと（String は秘匿する）。
type Config struct {
	Port string

	// GCP
	GCPProjectID             string
	GCPCreds                 string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	FirebaseProjectID        string

	// Solana
	SolanaRPCURL string

	// 署名鍵: 直接指定（base58）か Secret Manager のバージョン名
	TokenCreationKey    string
	FeeCollectionKey    string
	TokenCreationSecret string
	FeeCollectionSecret string

	// 帳簿
	RecordBackend string
	DatabaseURL   string

	// メタデータ公開（どちらか。両方空ならスキップ）
	TokenMetadataBucket string
	ArweaveBaseURL      string
	ArweaveAPIKey       string

	// 上場依頼メール
	SendGridAPIKey  string
	SendGridFrom    string
	ListingNotifyTo string

	AuthRequired        bool
	CORSAllowOrigin     string
	ListingVerifyHolder bool

	ConfirmTimeout     time.Duration
	BookkeepingTimeout time.Duration

	BaseFeeSOL      string
	PerToggleFeeSOL string
}

// Load は環境変数を読み込み Config を返す。値の検証は Validate で行う。
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT"))

	return &Config{
		Port: getenvDefault("PORT", "8080"),

		GCPProjectID:             defaultProject,
		GCPCreds:                 os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		FirebaseProjectID:        getenvDefault("FIREBASE_PROJECT_ID", defaultProject),

		SolanaRPCURL: strings.TrimSpace(os.Getenv("SOLANA_RPC_URL")),

		TokenCreationKey:    os.Getenv("SOLANA_TOKEN_CREATION_KEY"),
		FeeCollectionKey:    os.Getenv("SOLANA_FEE_COLLECTION_KEY"),
		TokenCreationSecret: strings.TrimSpace(os.Getenv("SOLANA_TOKEN_CREATION_KEY_SECRET")),
		FeeCollectionSecret: strings.TrimSpace(os.Getenv("SOLANA_FEE_COLLECTION_KEY_SECRET")),

		RecordBackend: strings.ToLower(getenvDefault("RECORD_BACKEND", RecordBackendFirestore)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),

		TokenMetadataBucket: strings.TrimSpace(os.Getenv("TOKEN_METADATA_BUCKET")),
		ArweaveBaseURL:      strings.TrimSpace(os.Getenv("ARWEAVE_BASE_URL")),
		ArweaveAPIKey:       os.Getenv("ARWEAVE_API_KEY"),

		SendGridAPIKey:  os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:    strings.TrimSpace(os.Getenv("SENDGRID_FROM")),
		ListingNotifyTo: strings.TrimSpace(os.Getenv("LISTING_NOTIFY_TO")),

		AuthRequired:        getenvBool("AUTH_REQUIRED"),
		CORSAllowOrigin:     strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGIN")),
		ListingVerifyHolder: getenvBool("LISTING_VERIFY_HOLDER"),

		ConfirmTimeout:     getenvDuration("CONFIRM_TIMEOUT", 60*time.Second),
		BookkeepingTimeout: getenvDuration("BOOKKEEPING_TIMEOUT", 15*time.Second),

		BaseFeeSOL:      getenvDefault("BASE_FEE_SOL", "0.1"),
		PerToggleFeeSOL: getenvDefault("PER_TOGGLE_FEE_SOL", "0.1"),
	}
}

// Validate performs hard validation.
// 署名鍵の欠落はここでは落とさない（リクエスト時に ConfigurationError として返す）。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil")
	}
	if p, err := strconv.Atoi(strings.TrimSpace(c.Port)); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("config: PORT must be a TCP port (got %q)", c.Port)
	}

	switch c.RecordBackend {
	case RecordBackendFirestore:
		if strings.TrimSpace(c.FirestoreProjectID) == "" {
			return fmt.Errorf("config: FIRESTORE_PROJECT_ID (or GCP_PROJECT_ID) is required for RECORD_BACKEND=firestore")
		}
	case RecordBackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("config: DATABASE_URL is required for RECORD_BACKEND=postgres")
		}
	case RecordBackendNone:
	default:
		return fmt.Errorf("config: RECORD_BACKEND must be firestore, postgres or none (got %q)", c.RecordBackend)
	}

	if u := c.SolanaRPCURL; u != "" && !(strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")) {
		return fmt.Errorf("config: SOLANA_RPC_URL must start with http:// or https:// (got %q)", u)
	}
	if u := c.ArweaveBaseURL; u != "" && !(strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")) {
		return fmt.Errorf("config: ARWEAVE_BASE_URL must start with http:// or https:// (got %q)", u)
	}
	if strings.ContainsAny(c.TokenMetadataBucket, " \t\r\n") {
		return fmt.Errorf("config: TOKEN_METADATA_BUCKET contains whitespace (got %q)", c.TokenMetadataBucket)
	}

	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("config: CONFIRM_TIMEOUT must be positive")
	}
	if c.BookkeepingTimeout <= 0 {
		return fmt.Errorf("config: BOOKKEEPING_TIMEOUT must be positive")
	}

	if _, err := c.FeePolicy(); err != nil {
		return err
	}
	return nil
}

// FeePolicy parses BASE_FEE_SOL / PER_TOGGLE_FEE_SOL.
func (c *Config) FeePolicy() (issuance.FeePolicy, error) {
	base, err := parseSOL("BASE_FEE_SOL", c.BaseFeeSOL)
	if err != nil {
		return issuance.FeePolicy{}, err
	}
	per, err := parseSOL("PER_TOGGLE_FEE_SOL", c.PerToggleFeeSOL)
	if err != nil {
		return issuance.FeePolicy{}, err
	}
	return issuance.FeePolicy{BaseFee: base, PerToggleFee: per}, nil
}

// String は秘匿値を伏せた表現を返す。
func (c *Config) String() string {
	if c == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"Config{port=%s project=%s rpc=%s backend=%s bucket=%s arweave=%t sendgrid=%t auth=%t holderCheck=%t tokenCreationKey=%s feeCollectionKey=%s}",
		c.Port, c.FirestoreProjectID, c.SolanaRPCURL, c.RecordBackend, c.TokenMetadataBucket,
		c.ArweaveBaseURL != "", c.SendGridAPIKey != "", c.AuthRequired, c.ListingVerifyHolder,
		presence(c.TokenCreationKey, c.TokenCreationSecret), presence(c.FeeCollectionKey, c.FeeCollectionSecret),
	)
}

func presence(raw, secret string) string {
	switch {
	case strings.TrimSpace(raw) != "":
		return "env"
	case secret != "":
		return "secretmanager"
	default:
		return "missing"
	}
}

func parseSOL(name, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: %s must be a decimal SOL amount (got %q)", name, v)
	}
	if d.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("config: %s must not be negative (got %q)", name, v)
	}
	if d.Exponent() < -9 {
		return decimal.Zero, fmt.Errorf("config: %s has more than 9 decimal places (got %q)", name, v)
	}
	return d, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	// 不正値は Validate で弾く
	return -1
}
