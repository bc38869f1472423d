// internal/application/usecase/bookkeeper.go
package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/AlbionAI/mememint-24-sub000/internal/domain/issuance"
)

const (
	defaultBookkeepingTimeout = 15 * time.Second
	defaultBookkeepingWorkers = 8
)

// Bookkeeper runs side writes (帳簿行・メタデータ公開・通知) in the background.
// 失敗はログのみで呼び出し側には返さない。オンチェーン処理をブロックしない。
// リクエストの ctx からは切り離し、timeout で上限をかける。
type Bookkeeper struct {
	writer  issuance.RecordWriter
	timeout time.Duration
	sem     chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewBookkeeper: writer may be nil (rows are then only logged).
func NewBookkeeper(writer issuance.RecordWriter, timeout time.Duration, maxInFlight int) *Bookkeeper {
	if timeout <= 0 {
		timeout = defaultBookkeepingTimeout
	}
	if maxInFlight <= 0 {
		maxInFlight = defaultBookkeepingWorkers
	}
	return &Bookkeeper{
		writer:  writer,
		timeout: timeout,
		sem:     make(chan struct{}, maxInFlight),
	}
}

// RecordFee inserts the fee breakdown row for rec.MintAddress.
func (b *Bookkeeper) RecordFee(rec issuance.FeeRecord) {
	if b == nil {
		return
	}
	if b.writer == nil {
		log.Printf("[bookkeeper] WARN: no record writer; fee row dropped mint=%s total=%s", maskShort(rec.MintAddress), rec.TotalFee.String())
		return
	}
	b.Go("recordFee", rec.MintAddress, func(ctx context.Context) error {
		return b.writer.RecordFee(ctx, rec)
	})
}

// RecordListingRequest inserts the listing request row.
func (b *Bookkeeper) RecordListingRequest(req issuance.ListingRequest) {
	if b == nil {
		return
	}
	if b.writer == nil {
		log.Printf("[bookkeeper] WARN: no record writer; listing row dropped mint=%s", maskShort(req.MintAddress))
		return
	}
	b.Go("recordListingRequest", req.MintAddress, func(ctx context.Context) error {
		return b.writer.RecordListingRequest(ctx, req)
	})
}

// Go runs fn detached from any request context.
// 同時実行数は maxInFlight まで。枠が空くまで呼び出し側で待つので、
// goroutine は枠を取ってから起動する。Close 後の呼び出しは捨てる。
func (b *Bookkeeper) Go(op, mintAddress string, fn func(ctx context.Context) error) {
	if b == nil || fn == nil {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		log.Printf("[bookkeeper] WARN: closed; %s dropped mint=%s", op, maskShort(mintAddress))
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	b.sem <- struct{}{}
	go func() {
		defer b.wg.Done()
		defer func() { <-b.sem }()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		start := time.Now()
		err := fn(ctx)
		if err == nil {
			log.Printf("[bookkeeper] %s ok mint=%s elapsed=%s", op, maskShort(mintAddress), time.Since(start))
			return
		}
		perr := &issuance.PersistenceError{Op: op, MintAddress: mintAddress, Cause: err}
		if errors.Is(err, issuance.ErrRecordConflict) {
			log.Printf("[bookkeeper] WARN: %v (duplicate ignored)", perr)
			return
		}
		log.Printf("[bookkeeper] ERROR: %v", perr)
	}()
}

// Wait blocks until every pending write has finished. Callers must not
// start new writes concurrently; use Close for shutdown.
func (b *Bookkeeper) Wait() {
	if b == nil {
		return
	}
	b.wg.Wait()
}

// Close stops accepting writes, then waits for pending ones or until ctx is done.
func (b *Bookkeeper) Close(ctx context.Context) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
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
