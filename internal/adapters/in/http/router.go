// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http/handlers"
	"github.com/AlbionAI/mememint-24-sub000/internal/adapters/in/http/middleware"
)

// RouterDeps collects the usecases injected from the DI container.
// nil の usecase に対応するルートはマウントしない。
type RouterDeps struct {
	IssuanceUC   handlers.IssuancePreparer
	SubmissionUC handlers.TransactionExecutor
	ListingUC    handlers.ListingRequester
	FeeRecordsQ  handlers.FeeRecordLister

	// Auth が nil でなければ POST ルートに Bearer 検証を掛ける（AUTH_REQUIRED=true）
	Auth *middleware.AuthMiddleware
}

// NewRouter sets up HTTP routing for the launch endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	// Health check (always on)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	protect := func(h http.Handler) http.Handler {
		if deps.Auth == nil {
			return h
		}
		return deps.Auth.Handler(h)
	}

	if deps.IssuanceUC != nil {
		token := handlers.NewTokenHandler(deps.IssuanceUC)
		mux.Handle("/create-token", protect(token))
		mux.Handle("/fee-quote", token)
	}

	if deps.SubmissionUC != nil {
		mux.Handle("/execute-transactions", protect(handlers.NewTransactionHandler(deps.SubmissionUC)))
	}

	if deps.ListingUC != nil {
		mux.Handle("/list-raydium", protect(handlers.NewListingHandler(deps.ListingUC)))
	}

	if deps.FeeRecordsQ != nil {
		mux.Handle("/fee-records", handlers.NewRecordHandler(deps.FeeRecordsQ))
	}

	return middleware.Recover(mux)
}
