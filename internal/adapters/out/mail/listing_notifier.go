// internal/adapters/out/mail/listing_notifier.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

// ListingNotifier は上場依頼を運用者にメールで知らせる。
// usecase.ListingNotifier を満たす。
type ListingNotifier struct {
	client EmailClient
	from   string
	to     string
}

func NewListingNotifier(client EmailClient, from, to string) *ListingNotifier {
	return &ListingNotifier{
		client: client,
		from:   strings.TrimSpace(from),
		to:     strings.TrimSpace(to),
	}
}

func (n *ListingNotifier) NotifyListingRequested(ctx context.Context, req issuance.ListingRequest) error {
	if n == nil || n.client == nil {
		return errors.New("listing_notifier: email client is nil")
	}
	subject := fmt.Sprintf("[listing] %s request for %s", req.Venue, req.MintAddress)
	return n.client.Send(ctx, n.from, n.to, subject, listingBody(req))
}

func listingBody(req issuance.ListingRequest) string {
	var b strings.Builder
	b.WriteString("A listing request was received.\n\n")
	fmt.Fprintf(&b, "Request ID : %s\n", req.ID)
	fmt.Fprintf(&b, "Venue      : %s\n", req.Venue)
	fmt.Fprintf(&b, "Mint       : %s\n", req.MintAddress)
	fmt.Fprintf(&b, "Owner      : %s\n", req.OwnerAddress)
	fmt.Fprintf(&b, "Status     : %s\n", req.Status)
	fmt.Fprintf(&b, "Requested  : %s\n", req.CreatedAt.UTC().Format(time.RFC3339))
	return b.String()
}
