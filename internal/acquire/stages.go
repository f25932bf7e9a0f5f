package acquire

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mtlprog/condoexport/internal/cache"
	"github.com/mtlprog/condoexport/internal/domain"
)

// StatementPair identifies one statement to fetch.
type StatementPair struct {
	AccountNumber int64
	YearShortID   string
}

func (r *run) financialYears(ctx context.Context) ([]domain.FinancialYear, error) {
	years, err := load[domain.FinancialYears](ctx, r, StageFinancialYears, cache.FinancialYearsKey, 1, 1, false, r.fetcher.FinancialYears)
	if err != nil {
		return nil, err
	}
	r.progress.StageDone(StageFinancialYears, len(years.Data))
	return years.Data, nil
}

func (r *run) budgets(ctx context.Context, years []domain.FinancialYear) error {
	for i, year := range years {
		shortID := string(year.ShortID)
		key := cache.BalanceBudgetKey(string(year.DisplayLabel))
		_, err := load[domain.Accounts](ctx, r, StageBudgets, key, i+1, len(years), false, func(ctx context.Context) ([]byte, error) {
			return r.fetcher.BalanceBudget(ctx, shortID)
		})
		if err != nil {
			return err
		}
	}
	r.progress.StageDone(StageBudgets, len(years))
	return nil
}

func (r *run) balances(ctx context.Context) error {
	if _, err := load[domain.Accounts](ctx, r, StageBalances, cache.PayableBalancesKey, 1, 2, false, r.fetcher.PayableBalances); err != nil {
		return err
	}
	if _, err := load[domain.Accounts](ctx, r, StageBalances, cache.ReceivableBalancesKey, 2, 2, false, r.fetcher.ReceivableBalances); err != nil {
		return err
	}
	r.progress.StageDone(StageBalances, 2)
	return nil
}

func (r *run) accounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := load[domain.Accounts](ctx, r, StageAccounts, cache.AllAccountsKey, 1, 1, false, r.fetcher.AllAccounts)
	if err != nil {
		return nil, err
	}
	r.progress.StageDone(StageAccounts, len(accounts.Data))
	return accounts.Data, nil
}

func (r *run) accountYears(ctx context.Context, accounts []domain.Account) (map[int64][]domain.FinancialYear, error) {
	result := make(map[int64][]domain.FinancialYear, len(accounts))
	for i, account := range accounts {
		number := account.AccountNumber
		key := cache.AccountFinancialYearsKey(number)
		years, err := load[domain.AccountFinancialYears](ctx, r, StageAccountYears, key, i+1, len(accounts), false, func(ctx context.Context) ([]byte, error) {
			return r.fetcher.AccountFinancialYears(ctx, number)
		})
		if err != nil {
			return nil, err
		}
		result[number] = years.Data
	}
	r.progress.StageDone(StageAccountYears, len(accounts))
	return result, nil
}

func (r *run) statements(ctx context.Context, pairs []StatementPair) ([]domain.AccountStatement, error) {
	var statements []domain.AccountStatement
	for i, pair := range pairs {
		key := cache.StatementKey(pair.AccountNumber, pair.YearShortID)
		parsed, err := load[domain.AccountStatements](ctx, r, StageStatements, key, i+1, len(pairs), true, func(ctx context.Context) ([]byte, error) {
			return r.fetcher.AccountStatement(ctx, pair.AccountNumber, pair.YearShortID)
		})
		if err != nil {
			return nil, err
		}
		statements = append(statements, parsed.Data...)
	}
	r.stats.Statements = len(pairs)
	r.progress.StageDone(StageStatements, len(pairs))
	return statements, nil
}

func (r *run) transactions(ctx context.Context, ids []int64) error {
	for i, id := range ids {
		key := cache.TransactionDataKey(id)
		_, err := load[domain.TransactionDetails](ctx, r, StageTransactions, key, i+1, len(ids), true, func(ctx context.Context) ([]byte, error) {
			return r.fetcher.TransactionData(ctx, id)
		})
		if err != nil {
			return err
		}
	}
	r.stats.Transactions = len(ids)
	r.progress.StageDone(StageTransactions, len(ids))
	return nil
}

// StatementPairs is the statement fetch set: every account paired with each
// of its financial years that has data, in account enumeration order.
func StatementPairs(accounts []domain.Account, accountYears map[int64][]domain.FinancialYear) []StatementPair {
	return lo.FlatMap(accounts, func(a domain.Account, _ int) []StatementPair {
		withData := lo.Filter(accountYears[a.AccountNumber], func(y domain.FinancialYear, _ int) bool {
			return y.UserHasData
		})
		return lo.Map(withData, func(y domain.FinancialYear, _ int) StatementPair {
			return StatementPair{AccountNumber: a.AccountNumber, YearShortID: string(y.ShortID)}
		})
	})
}

// UniqueTransactionNumbers returns every transaction number referenced by the
// statements, once each, in first-seen order.
func UniqueTransactionNumbers(statements []domain.AccountStatement) []int64 {
	all := lo.FlatMap(statements, func(s domain.AccountStatement, _ int) []int64 {
		return lo.Map(s.Transactions, func(t domain.Transaction, _ int) int64 {
			return t.TransactionNumber
		})
	})
	return lo.Uniq(all)
}

// reportUnknownAccounts warns about statements whose account is missing from
// the global enumeration.
func reportUnknownAccounts(accounts []domain.Account, statements []domain.AccountStatement) {
	known := lo.SliceToMap(accounts, func(a domain.Account) (int64, bool) {
		return a.AccountNumber, true
	})
	for _, s := range statements {
		if !known[s.AccountNumber] {
			slog.Warn("statement references unknown account", "account", s.AccountNumber)
		}
	}
}
