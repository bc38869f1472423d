package solana

import (
	"context"
	"fmt"
	"strings"

	usecase "github.com/AlbionAI/mememint-24-sub000/internal/application/usecase"
)

// OnchainWalletReaderImpl implements usecase.HolderVerifier:
//
//	HoldsMint(ctx, ownerAddress, mintAddress) (bool, error)
type OnchainWalletReaderImpl struct {
	Client RPCClient
}

var _ usecase.HolderVerifier = (*OnchainWalletReaderImpl)(nil)

func NewOnchainWalletReader(client RPCClient) *OnchainWalletReaderImpl {
	return &OnchainWalletReaderImpl{Client: client}
}

// ListOwnedTokenMints fetches token accounts by owner and returns a
// deduplicated list of mint addresses with a non-zero balance.
func (r *OnchainWalletReaderImpl) ListOwnedTokenMints(ctx context.Context, walletAddress string) ([]string, error) {
	if r == nil || r.Client == nil {
		return nil, fmt.Errorf("solana wallet reader: client not configured")
	}
	addr := strings.TrimSpace(walletAddress)
	if addr == "" {
		return nil, fmt.Errorf("solana wallet reader: walletAddress is empty")
	}

	res, err := r.Client.GetTokenAccountsByOwner(ctx, addr, TokenProgramID)
	if err != nil {
		return nil, err
	}

	// dedup while keeping stable order
	seen := make(map[string]struct{}, len(res.Value))
	out := make([]string, 0, len(res.Value))

	for _, v := range res.Value {
		mint := strings.TrimSpace(v.Account.Data.Parsed.Info.Mint)
		amt := strings.TrimSpace(v.Account.Data.Parsed.Info.TokenAmount.Amount)

		if mint == "" || amt == "" || amt == "0" {
			continue
		}
		if _, ok := seen[mint]; ok {
			continue
		}
		seen[mint] = struct{}{}
		out = append(out, mint)
	}
	return out, nil
}

func (r *OnchainWalletReaderImpl) HoldsMint(ctx context.Context, ownerAddress, mintAddress string) (bool, error) {
	mints, err := r.ListOwnedTokenMints(ctx, ownerAddress)
	if err != nil {
		return false, err
	}
	want := strings.TrimSpace(mintAddress)
	for _, m := range mints {
		if m == want {
			return true, nil
		}
	}
	return false, nil
}
