// internal/adapters/out/gcs/token_metadata_gcs.go
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
)

// TOKEN_METADATA_BUCKET が空のときのフォールバック。
const defaultTokenMetadataBucket = "mememint-token-metadata"

// TokenMetadataGCS は mint ごとのメタデータ JSON を GCS に置く。
//   - object: tokens/<mint>.json
//   - usecase.MetadataPublisher を満たす
type TokenMetadataGCS struct {
	Client *storage.Client
	Bucket string
}

func NewTokenMetadataGCS(client *storage.Client, bucket string) *TokenMetadataGCS {
	return &TokenMetadataGCS{Client: client, Bucket: strings.TrimSpace(bucket)}
}

func (r *TokenMetadataGCS) bucket() string {
	if b := strings.TrimSpace(r.Bucket); b != "" {
		return b
	}
	return defaultTokenMetadataBucket
}

// PublishTokenMetadata uploads doc and returns its public URL.
func (r *TokenMetadataGCS) PublishTokenMetadata(ctx context.Context, doc usecase.TokenMetadataDocument) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("TokenMetadataGCS: nil storage client")
	}
	objectPath, err := metadataObjectPath(doc.MintAddress)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("TokenMetadataGCS: encode: %w", err)
	}

	bucket := r.bucket()
	w := r.Client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=300"

	_, err = w.Write(body)
	if cerr := w.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		log.Printf("[gcs] token metadata upload FAILED bucket=%s object=%s err=%v", bucket, objectPath, err)
		return "", fmt.Errorf("TokenMetadataGCS: upload %s: %w", objectPath, err)
	}

	return publicURL(bucket, objectPath), nil
}

func metadataObjectPath(mint string) (string, error) {
	m := strings.TrimSpace(mint)
	if m == "" || strings.ContainsAny(m, "/\\") {
		return "", fmt.Errorf("TokenMetadataGCS: invalid mint %q", mint)
	}
	return "tokens/" + m + ".json", nil
}

func publicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", strings.TrimSpace(bucket), strings.TrimLeft(objectPath, "/"))
}
