// Package acquire walks the upstream resource graph and fills the cache.
//
// Stages run strictly in order because each derives its fetch keys from the
// previous stage's output:
//
//	financial years -> budgets -> payable/receivable -> accounts
//	  -> per-account years -> statements -> transaction details
//
// A resource is fetched only when its key is absent from the cache, so a rerun
// after an interruption resumes at the first missing resource.
package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/condoexport/internal/cache"
)

// Stage names, in execution order.
const (
	StageFinancialYears = "financial-years"
	StageBudgets        = "balance-budgets"
	StageBalances       = "balances"
	StageAccounts       = "all-accounts"
	StageAccountYears   = "account-financial-years"
	StageStatements     = "account-statements"
	StageTransactions   = "transaction-data"
)

// Fetcher is the upstream API. Each method returns the raw JSON body.
type Fetcher interface {
	FinancialYears(ctx context.Context) ([]byte, error)
	BalanceBudget(ctx context.Context, yearShortID string) ([]byte, error)
	PayableBalances(ctx context.Context) ([]byte, error)
	ReceivableBalances(ctx context.Context) ([]byte, error)
	AllAccounts(ctx context.Context) ([]byte, error)
	AccountFinancialYears(ctx context.Context, accountNumber int64) ([]byte, error)
	AccountStatement(ctx context.Context, accountNumber int64, yearShortID string) ([]byte, error)
	TransactionData(ctx context.Context, transactionNumber int64) ([]byte, error)
}

// Stats counts how each resource was obtained during one run.
type Stats struct {
	Fetched      int
	Cached       int
	Statements   int
	Transactions int
}

// Service runs the acquisition pipeline.
type Service struct {
	fetcher  Fetcher
	store    cache.Store
	delay    time.Duration
	progress Progress
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewService creates an acquisition Service. delay is applied after every
// statement and transaction detail that was actually fetched.
func NewService(fetcher Fetcher, store cache.Store, delay time.Duration, progress Progress) *Service {
	if progress == nil {
		progress = noProgress{}
	}
	return &Service{
		fetcher:  fetcher,
		store:    store,
		delay:    delay,
		progress: progress,
		sleep:    sleepContext,
	}
}

// run carries one pipeline execution's counters.
type run struct {
	*Service
	stats Stats
}

// Run executes every stage. The first failure aborts the run; everything
// cached before it stays on disk.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	r := &run{Service: s}

	years, err := r.financialYears(ctx)
	if err != nil {
		return r.stats, err
	}
	if err := r.budgets(ctx, years); err != nil {
		return r.stats, err
	}
	if err := r.balances(ctx); err != nil {
		return r.stats, err
	}
	accounts, err := r.accounts(ctx)
	if err != nil {
		return r.stats, err
	}
	accountYears, err := r.accountYears(ctx, accounts)
	if err != nil {
		return r.stats, err
	}

	pairs := StatementPairs(accounts, accountYears)
	statements, err := r.statements(ctx, pairs)
	if err != nil {
		return r.stats, err
	}
	reportUnknownAccounts(accounts, statements)

	ids := UniqueTransactionNumbers(statements)
	slog.Info("unique transaction ids found", "count", len(ids))
	if err := r.transactions(ctx, ids); err != nil {
		return r.stats, err
	}

	return r.stats, nil
}

// load returns the decoded resource for key, fetching and caching it first
// when absent. A fetched body is cached only after it decodes as T, so a
// malformed response is never persisted.
func load[T any](ctx context.Context, r *run, stage string, key cache.Key, n, total int, throttle bool, fetch func(context.Context) ([]byte, error)) (T, error) {
	var zero T
	if r.store.Has(key) {
		data, err := r.store.Read(key)
		if err != nil {
			return zero, err
		}
		v, err := decode[T](key, data)
		if err != nil {
			return zero, err
		}
		r.stats.Cached++
		r.progress.Resource(stage, key, SourceCache, n, total)
		return v, nil
	}

	slog.Debug("fetching", "stage", stage, "key", string(key))
	data, err := fetch(ctx)
	if err != nil {
		return zero, fmt.Errorf("fetching %s: %w", key, err)
	}
	v, err := decode[T](key, data)
	if err != nil {
		return zero, err
	}
	if err := r.store.Write(key, data); err != nil {
		return zero, fmt.Errorf("caching %s: %w", key, err)
	}
	r.stats.Fetched++
	r.progress.Resource(stage, key, SourceNetwork, n, total)

	if throttle && r.delay > 0 {
		if err := r.sleep(ctx, r.delay); err != nil {
			return zero, err
		}
	}
	return v, nil
}

func decode[T any](key cache.Key, data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parsing %s: %w", key, err)
	}
	return v, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
