// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
)

var ErrBaseURLEmpty = errors.New("arweave: baseURL is empty; endpoint not configured")

// HTTPUploader は Irys Uploader などの HTTP API 経由で Arweave に JSON を置く。
// usecase.MetadataPublisher を満たす。
type HTTPUploader struct {
	client  *http.Client
	baseURL string // 例: "https://irys-uploader-xxxx.a.run.app"
	apiKey  string
}

func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// PublishTokenMetadata encodes doc and uploads it; the returned value is the gateway URI.
func (u *HTTPUploader) PublishTokenMetadata(ctx context.Context, doc usecase.TokenMetadataDocument) (string, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("arweave: encode metadata: %w", err)
	}
	return u.UploadJSON(ctx, body)
}

// UploadJSON posts metadataJSON to <baseURL>/upload/json and returns the uri field.
func (u *HTTPUploader) UploadJSON(ctx context.Context, metadataJSON []byte) (string, error) {
	if len(metadataJSON) == 0 {
		return "", errors.New("arweave: metadataJSON is empty")
	}
	if u.baseURL == "" {
		return "", ErrBaseURLEmpty
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload/json", bytes.NewReader(metadataJSON))
	if err != nil {
		return "", fmt.Errorf("arweave: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arweave: upload metadata: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[arweave] upload metadata FAILED status=%d body=%s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("arweave: upload metadata failed: status=%d", resp.StatusCode)
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("arweave: decode upload response: %w", err)
	}
	if strings.TrimSpace(res.URI) == "" {
		return "", errors.New("arweave: upload response has empty uri")
	}

	log.Printf("[arweave] UploadJSON OK uri=%s", res.URI)
	return res.URI, nil
}
