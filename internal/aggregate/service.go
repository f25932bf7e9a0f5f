// Package aggregate turns the acquisition cache into export tables.
// It reads only from the cache and never touches the network.
package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/condoexport/internal/cache"
	"github.com/mtlprog/condoexport/internal/domain"
	"github.com/mtlprog/condoexport/internal/table"
)

// Table names double as relative export paths.
const (
	TableFinancialYears     = "financial-years"
	TableAccountStatements  = "account-statements"
	TableAccounts           = "accounts"
	TablePayableBalances    = "payable-balances"
	TableReceivableBalances = "receivable-balances"
	TableTransactions       = "transactions"
	BudgetsDir              = "annual-budgets"

	// excludedTransactionField is internal upstream state not meant for export.
	excludedTransactionField = "refusedData"
)

// Result holds every materialized table plus the anomalies found on the way.
type Result struct {
	FinancialYears     table.Table
	AccountStatements  table.Table
	Accounts           table.Table
	PayableBalances    table.Table
	ReceivableBalances table.Table
	Budgets            []table.Table
	Transactions       table.Table
	Anomalies          []Anomaly
}

// Tables returns all tables in export order.
func (r Result) Tables() []table.Table {
	tables := []table.Table{
		r.FinancialYears,
		r.AccountStatements,
		r.Accounts,
		r.PayableBalances,
		r.ReceivableBalances,
	}
	tables = append(tables, r.Budgets...)
	return append(tables, r.Transactions)
}

// Err joins every anomaly under ErrIntegrity, or returns nil when there are none.
func (r Result) Err() error {
	if len(r.Anomalies) == 0 {
		return nil
	}
	errs := lo.Map(r.Anomalies, func(a Anomaly, _ int) error { return a })
	return fmt.Errorf("%w: %w", ErrIntegrity, errors.Join(errs...))
}

// Service builds export tables from a cache.
type Service struct {
	store cache.Reader
}

// NewService creates an aggregation Service over store.
func NewService(store cache.Reader) *Service {
	return &Service{store: store}
}

// accountAccumulator merges one account's statements across years.
type accountAccumulator struct {
	accountType  domain.AccountType
	balance      decimal.Decimal
	address      string
	source       cache.Key
	transactions []domain.Transaction
}

type aggregation struct {
	store     cache.Reader
	anomalies anomalies
}

// Aggregate reads the whole cache and builds every table. A missing or
// malformed input file aborts the aggregation with an error naming it.
func (s *Service) Aggregate() (Result, error) {
	a := &aggregation{store: s.store}
	var res Result

	var years domain.FinancialYears
	if err := cache.ReadJSON(s.store, cache.FinancialYearsKey, &years); err != nil {
		return Result{}, fmt.Errorf("loading financial years: %w", err)
	}
	res.FinancialYears = passThrough(TableFinancialYears, years.Data, func(y domain.FinancialYear) table.Row { return y.Fields })

	current, ok := a.currentYear(years.Data)
	if !ok {
		slog.Warn("no current financial year, balances and addresses default to empty")
	}

	byAccount, err := a.accumulateStatements(current, ok)
	if err != nil {
		return Result{}, err
	}
	res.AccountStatements = a.accountStatementsTable(byAccount)

	var accounts domain.Accounts
	if err := cache.ReadJSON(s.store, cache.AllAccountsKey, &accounts); err != nil {
		return Result{}, fmt.Errorf("loading accounts: %w", err)
	}
	a.checkStatementAccounts(accounts.Data, byAccount)
	res.Accounts = a.accountsTable(accounts.Data, byAccount)

	if res.PayableBalances, err = a.balancesTable(TablePayableBalances, cache.PayableBalancesKey); err != nil {
		return Result{}, err
	}
	if res.ReceivableBalances, err = a.balancesTable(TableReceivableBalances, cache.ReceivableBalancesKey); err != nil {
		return Result{}, err
	}
	if res.Budgets, err = a.budgetTables(); err != nil {
		return Result{}, err
	}
	if res.Transactions, err = a.transactionsTable(); err != nil {
		return Result{}, err
	}

	res.Anomalies = a.anomalies.list
	return res, nil
}

func (a *aggregation) currentYear(years []domain.FinancialYear) (domain.FinancialYear, bool) {
	currents := lo.Filter(years, func(y domain.FinancialYear, _ int) bool { return y.IsCurrent })
	if len(currents) > 1 {
		labels := lo.Map(currents, func(y domain.FinancialYear, _ int) string { return string(y.ShortID) })
		a.anomalies.report(Anomaly{
			Kind:   AnomalyMultipleCurrentYears,
			Source: cache.FinancialYearsKey,
			Detail: fmt.Sprintf("years %s are all current, using %s", strings.Join(labels, ", "), labels[0]),
		})
	}
	return domain.CurrentYear(years)
}

// accumulateStatements merges every cached statement by account. Transactions
// are appended as found; balance, address and type come only from the
// current year's statement.
func (a *aggregation) accumulateStatements(current domain.FinancialYear, hasCurrent bool) (map[int64]*accountAccumulator, error) {
	keys, err := a.store.List(cache.StatementsDir)
	if err != nil {
		return nil, err
	}

	byAccount := make(map[int64]*accountAccumulator)
	for _, key := range keys {
		_, yearShortID, ok := cache.ParseStatementKey(key)
		if !ok {
			continue
		}

		var statements domain.AccountStatements
		if err := cache.ReadJSON(a.store, key, &statements); err != nil {
			return nil, fmt.Errorf("loading statement: %w", err)
		}

		isCurrent := hasCurrent && yearShortID == cache.PathSegment(string(current.ShortID))
		for _, st := range statements.Data {
			acc, ok := byAccount[st.AccountNumber]
			if !ok {
				acc = &accountAccumulator{accountType: st.AccountType, source: key}
				byAccount[st.AccountNumber] = acc
			}
			acc.transactions = append(acc.transactions, st.Transactions...)
			if isCurrent {
				acc.balance = st.Balance
				acc.address = st.Address
				acc.accountType = st.AccountType
				acc.source = key
			}
		}
	}
	return byAccount, nil
}

func (a *aggregation) checkStatementAccounts(accounts []domain.Account, byAccount map[int64]*accountAccumulator) {
	known := lo.KeyBy(accounts, func(acc domain.Account) int64 { return acc.AccountNumber })
	for _, number := range sortedKeys(byAccount) {
		if _, ok := known[number]; !ok {
			a.anomalies.report(Anomaly{
				Kind:   AnomalyUnknownAccount,
				Source: byAccount[number].source,
				Detail: fmt.Sprintf("account %d is not in the account list", number),
			})
		}
	}
}

// typeName resolves an account type code, reporting codes outside the enumeration.
func (a *aggregation) typeName(code domain.AccountType, source cache.Key) string {
	name, err := code.Name()
	if err != nil {
		a.anomalies.report(Anomaly{Kind: AnomalyUnknownAccountType, Source: source, Detail: err.Error()})
		return ""
	}
	return name
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func passThrough[T any](name string, items []T, fields func(T) table.Row) table.Table {
	rows := lo.Map(items, func(item T, _ int) table.Row { return fields(item).Clone() })
	return table.Table{Name: name, Rows: rows}
}
