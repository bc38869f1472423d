// internal/infra/solana/ledger_client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	usecase "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

var ErrLedgerNotConfigured = errors.New("ledger_client: not configured")

const (
	defaultPollInterval   = 1500 * time.Millisecond
	defaultConfirmTimeout = 60 * time.Second
)

// LedgerClientSolana implements usecase.LedgerClient.
// 送信・残高・rent は blocto client、確認待ちは JSON-RPC の getSignatureStatuses を使う。
type LedgerClientSolana struct {
	RPC          *client.Client
	Statuses     RPCClient
	PollInterval time.Duration
}

var _ usecase.LedgerClient = (*LedgerClientSolana)(nil)

// NewLedgerClientSolana resolves an empty rpcURL to devnet.
func NewLedgerClientSolana(rpcURL string) *LedgerClientSolana {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = rpc.DevnetRPCEndpoint
	}
	return &LedgerClientSolana{
		RPC:          client.NewClient(u),
		Statuses:     NewJSONRPCClient(u),
		PollInterval: defaultPollInterval,
	}
}

func (l *LedgerClientSolana) LatestBlockhash(ctx context.Context) (string, error) {
	if l == nil || l.RPC == nil {
		return "", ErrLedgerNotConfigured
	}
	latest, err := l.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("ledger_client: GetLatestBlockhash: %w", err)
	}
	return latest.Blockhash, nil
}

func (l *LedgerClientSolana) MintRentLamports(ctx context.Context) (uint64, error) {
	if l == nil || l.RPC == nil {
		return 0, ErrLedgerNotConfigured
	}
	rent, err := l.RPC.GetMinimumBalanceForRentExemption(ctx, token.MintAccountSize)
	if err != nil {
		return 0, fmt.Errorf("ledger_client: GetMinimumBalanceForRentExemption: %w", err)
	}
	return rent, nil
}

func (l *LedgerClientSolana) Balance(ctx context.Context, address string) (uint64, error) {
	if l == nil || l.RPC == nil {
		return 0, ErrLedgerNotConfigured
	}
	addr := strings.TrimSpace(address)
	if addr == "" {
		return 0, fmt.Errorf("ledger_client: address is empty")
	}
	bal, err := l.RPC.GetBalance(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("ledger_client: GetBalance: %w", err)
	}
	return bal, nil
}

func (l *LedgerClientSolana) Send(ctx context.Context, signed []byte) (string, error) {
	if l == nil || l.RPC == nil {
		return "", ErrLedgerNotConfigured
	}
	tx, err := types.TransactionDeserialize(signed)
	if err != nil {
		return "", fmt.Errorf("ledger_client: deserialize: %w", err)
	}
	sig, err := l.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("ledger_client: SendTransaction: %w", err)
	}
	return sig, nil
}

// AwaitConfirmation polls getSignatureStatuses until the signature reaches
// "confirmed", lands with an error, or timeout elapses. RPC failures while
// polling are logged and retried.
func (l *LedgerClientSolana) AwaitConfirmation(ctx context.Context, signature string, timeout time.Duration) (issuance.Confirmation, error) {
	if l == nil || l.Statuses == nil {
		return "", ErrLedgerNotConfigured
	}
	sig := strings.TrimSpace(signature)
	if sig == "" {
		return "", fmt.Errorf("ledger_client: signature is empty")
	}
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}
	interval := l.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		statuses, err := l.Statuses.GetSignatureStatuses(ctx, []string{sig})
		if err != nil {
			if ctx.Err() != nil {
				return issuance.ConfirmationTimedOut, nil
			}
			log.Printf("[ledger_client] WARN: getSignatureStatuses sig=%s err=%v", maskShort(sig), err)
		} else if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Failed() {
				log.Printf("[ledger_client] rejected sig=%s err=%s", maskShort(sig), string(st.Err))
				return issuance.ConfirmationRejected, nil
			}
			if st.Confirmed() {
				return issuance.ConfirmationConfirmed, nil
			}
		}

		select {
		case <-ctx.Done():
			return issuance.ConfirmationTimedOut, nil
		case <-ticker.C:
		}
	}
}
