// internal/platform/di/infra.go
package di

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"cloud.google.com/go/firestore"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	appcfg "github.com/AlbionAI/mememint-24-sub000/internal/infra/config"
	"github.com/AlbionAI/mememint-24-sub000/internal/infra/database"
)

// Infra owns the external clients (Close-managed).
//   - Firestore / PostgreSQL: RECORD_BACKEND に応じてどちらか（strict）
//   - GCS: TOKEN_METADATA_BUCKET があれば（best-effort）
//   - SecretManager: *_SECRET が設定されていれば（best-effort）
//   - Firebase Auth: AUTH_REQUIRED=true なら（strict。未初期化のまま公開しない）
type Infra struct {
	Config *appcfg.Config

	Firestore     *firestore.Client
	DB            *database.DB
	GCS           *storage.Client
	SecretManager *secretmanager.Client
	FirebaseAuth  *firebaseauth.Client
}

func NewInfra(ctx context.Context, cfg *appcfg.Config) (*Infra, error) {
	inf := &Infra{Config: cfg}

	// Credentials file (optional; mainly for local dev)
	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.GCPCreds)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Printf("[di.infra] Using credentials file for GCP clients: %s", filepath.Base(credFile))
	} else {
		log.Printf("[di.infra] Using Application Default Credentials (no credentials file configured)")
	}

	// 1) Record backend (strict)
	switch cfg.RecordBackend {
	case appcfg.RecordBackendFirestore:
		fsClient, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("di.infra: firestore.NewClient failed (project=%s): %w", cfg.FirestoreProjectID, err)
		}
		inf.Firestore = fsClient
		log.Printf("[di.infra] Firestore connected project=%s", cfg.FirestoreProjectID)
	case appcfg.RecordBackendPostgres:
		db, err := database.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("di.infra: %w", err)
		}
		inf.DB = db
	default:
		log.Printf("[di.infra] WARN: RECORD_BACKEND=%s; fee records and listing requests are not persisted", cfg.RecordBackend)
	}

	// 2) Secret Manager (best-effort)
	if cfg.TokenCreationSecret != "" || cfg.FeeCollectionSecret != "" {
		sm, err := secretmanager.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[di.infra] WARN: secretmanager.NewClient failed: %v (signing keys from env only)", err)
		} else {
			inf.SecretManager = sm
		}
	}

	// 3) GCS (best-effort)
	if cfg.TokenMetadataBucket != "" {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Printf("[di.infra] WARN: storage.NewClient failed: %v (metadata publishing disabled)", err)
		} else {
			inf.GCS = gcsClient
			log.Printf("[di.infra] GCS storage client initialized bucket=%s", cfg.TokenMetadataBucket)
		}
	}

	// 4) Firebase Auth (strict when required)
	if cfg.AuthRequired {
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, clientOpts...)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("di.infra: firebase app init failed: %w", err)
		}
		authClient, err := fbApp.Auth(ctx)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("di.infra: firebase auth init failed: %w", err)
		}
		inf.FirebaseAuth = authClient
		log.Printf("[di.infra] Firebase Auth initialized project=%s", cfg.FirebaseProjectID)
	}

	return inf, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.DB != nil {
		_ = i.DB.Close()
	}
	if i.GCS != nil {
		_ = i.GCS.Close()
	}
	if i.SecretManager != nil {
		_ = i.SecretManager.Close()
	}
	return nil
}
