// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"log"

	httpin "github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http"
	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http/middleware"
	dbrepo "github.com/AlbionAI/mememint-24-sub000/internal/adapters/out/db"
	fsrepo "github.com/AlbionAI/mememint-24-sub000/internal/adapters/out/firestore"
	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/out/gcs"
	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/out/mail"
	uc "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
	"github.com/AlbionAI/mememint-24-sub000/internal/infra/arweave"
	appcfg "github.com/AlbionAI/mememint-24-sub000/internal/infra/config"
	solanainfra "github.com/AlbionAI/mememint-24-sub000/internal/infra/solana"
)

const bookkeepingMaxInFlight = 8

// Container wires config → infra → adapters → usecases.
type Container struct {
	Config *appcfg.Config
	Infra  *Infra

	Books        *uc.Bookkeeper
	IssuanceUC   *uc.IssuanceUsecase
	SubmissionUC *uc.SubmissionUsecase
	ListingUC    *uc.ListingUsecase
	FeeRecordsQ  *uc.FeeRecordQuery

	auth *middleware.AuthMiddleware
}

func NewContainer(ctx context.Context) (*Container, error) {
	cfg := appcfg.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("[di] %s", cfg.String())

	policy, err := cfg.FeePolicy()
	if err != nil {
		return nil, err
	}

	inf, err := NewInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Infra: inf}

	// ─────────────────────────────────────────────
	// Records (append-only)
	// ─────────────────────────────────────────────
	var records issuance.RecordRepository
	switch {
	case inf.Firestore != nil:
		records = fsrepo.NewRecordRepositoryFS(inf.Firestore)
	case inf.DB != nil:
		pg := dbrepo.NewRecordRepositoryPG(inf.DB.Client)
		if err := pg.Migrate(ctx); err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("di: %w", err)
		}
		records = pg
	}

	var writer issuance.RecordWriter
	if records != nil {
		writer = records
		c.FeeRecordsQ = uc.NewFeeRecordQuery(records)
	}
	c.Books = uc.NewBookkeeper(writer, cfg.BookkeepingTimeout, bookkeepingMaxInFlight)

	// ─────────────────────────────────────────────
	// Solana
	// ─────────────────────────────────────────────
	creds := solanainfra.LoadSignerCredentials(ctx, inf.SecretManager, solanainfra.SecretSource{
		TokenCreationKey:    cfg.TokenCreationKey,
		FeeCollectionKey:    cfg.FeeCollectionKey,
		TokenCreationSecret: cfg.TokenCreationSecret,
		FeeCollectionSecret: cfg.FeeCollectionSecret,
	})
	signer := solanainfra.NewIssuanceSigner(creds)
	ledger := solanainfra.NewLedgerClientSolana(cfg.SolanaRPCURL)
	builder := solanainfra.NewTransactionBuilder()

	c.IssuanceUC = uc.NewIssuanceUsecase(ledger, builder, signer, policy, c.Books)
	if pub := metadataPublisher(cfg, inf); pub != nil {
		c.IssuanceUC.WithMetadataPublisher(pub)
	}

	c.SubmissionUC = uc.NewSubmissionUsecase(ledger, signer, cfg.ConfirmTimeout).WithFeePolicy(policy)
	if records != nil {
		c.SubmissionUC.WithFeeRecords(records)
	}

	// ─────────────────────────────────────────────
	// Listing
	// ─────────────────────────────────────────────
	var verifier uc.HolderVerifier
	if cfg.ListingVerifyHolder {
		verifier = solanainfra.NewOnchainWalletReader(solanainfra.NewJSONRPCClient(cfg.SolanaRPCURL))
	}
	var notifier uc.ListingNotifier
	if cfg.SendGridAPIKey != "" && cfg.ListingNotifyTo != "" {
		notifier = mail.NewListingNotifier(mail.NewSendGridClient(cfg.SendGridAPIKey, ""), cfg.SendGridFrom, cfg.ListingNotifyTo)
		log.Printf("[di] listing notifier enabled")
	}
	c.ListingUC = uc.NewListingUsecase(c.Books, verifier, notifier)

	if inf.FirebaseAuth != nil {
		c.auth = &middleware.AuthMiddleware{Verifier: inf.FirebaseAuth}
	}

	return c, nil
}

// metadataPublisher prefers Arweave when configured, then GCS.
func metadataPublisher(cfg *appcfg.Config, inf *Infra) uc.MetadataPublisher {
	switch {
	case cfg.ArweaveBaseURL != "":
		log.Printf("[di] metadata publisher: arweave baseURL=%s", cfg.ArweaveBaseURL)
		return arweave.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey)
	case inf.GCS != nil:
		log.Printf("[di] metadata publisher: gcs bucket=%s", cfg.TokenMetadataBucket)
		return gcs.NewTokenMetadataGCS(inf.GCS, cfg.TokenMetadataBucket)
	default:
		log.Printf("[di] metadata publisher not configured")
		return nil
	}
}

// RouterDeps exposes the usecases to the HTTP router.
func (c *Container) RouterDeps() httpin.RouterDeps {
	deps := httpin.RouterDeps{
		IssuanceUC:   c.IssuanceUC,
		SubmissionUC: c.SubmissionUC,
		ListingUC:    c.ListingUC,
		Auth:         c.auth,
	}
	if c.FeeRecordsQ != nil {
		deps.FeeRecordsQ = c.FeeRecordsQ
	}
	return deps
}

// Close drains in-flight bookkeeping writes, then closes clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Books.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("di: bookkeeping drain: %w", err))
	}
	if err := c.Infra.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
