package aggregate

import (
	"cmp"
	"encoding/json"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/mtlprog/condoexport/internal/cache"
	"github.com/mtlprog/condoexport/internal/domain"
	"github.com/mtlprog/condoexport/internal/table"
)

type statementLine struct {
	accountNumber int64
	date          string
	row           table.Row
}

// accountStatementsTable flattens every accumulated transaction, ordered by
// transaction date then account number. Dates are compared as strings; the
// API formats them sortably.
func (a *aggregation) accountStatementsTable(byAccount map[int64]*accountAccumulator) table.Table {
	var lines []statementLine
	for _, number := range sortedKeys(byAccount) {
		acc := byAccount[number]
		typeName := a.typeName(acc.accountType, acc.source)
		for _, tx := range acc.transactions {
			var row table.Row
			row.SetInt("accountNumber", number)
			row.SetInt("accountType", int64(acc.accountType))
			row.SetString("accountTypeName", typeName)
			fields := tx.Fields.Clone()
			fields.Delete(excludedTransactionField)
			row.Merge(fields)
			lines = append(lines, statementLine{accountNumber: number, date: tx.TransactionDate, row: row})
		}
	}

	slices.SortStableFunc(lines, func(x, y statementLine) int {
		if c := strings.Compare(x.date, y.date); c != 0 {
			return c
		}
		return cmp.Compare(x.accountNumber, y.accountNumber)
	})

	rows := make([]table.Row, len(lines))
	for i, l := range lines {
		rows[i] = l.row
	}
	return table.Table{Name: TableAccountStatements, Rows: rows}
}

// accountsTable joins the account list with the current-year balance and address.
func (a *aggregation) accountsTable(accounts []domain.Account, byAccount map[int64]*accountAccumulator) table.Table {
	rows := make([]table.Row, 0, len(accounts))
	for _, account := range accounts {
		var row table.Row
		row.SetString("accountTypeName", a.typeName(account.AccountType, cache.AllAccountsKey))
		row.Merge(account.Fields)
		row.SetString("unitNumber", account.TrimmedUnitNumber())

		balance, address := "0", ""
		if acc, ok := byAccount[account.AccountNumber]; ok {
			balance, address = acc.balance.String(), acc.address
		}
		row.Set("balance", json.RawMessage(balance))
		row.SetString("address", address)
		rows = append(rows, row)
	}
	return table.Table{Name: TableAccounts, Rows: rows}
}

// balancesTable passes a payable or receivable snapshot through with the type name joined.
func (a *aggregation) balancesTable(name string, key cache.Key) (table.Table, error) {
	var balances domain.Accounts
	if err := cache.ReadJSON(a.store, key, &balances); err != nil {
		return table.Table{}, fmt.Errorf("loading %s: %w", name, err)
	}

	rows := make([]table.Row, 0, len(balances.Data))
	for _, b := range balances.Data {
		var row table.Row
		row.SetString("accountTypeName", a.typeName(b.AccountType, key))
		row.Merge(b.Fields)
		row.SetString("unitNumber", b.TrimmedUnitNumber())
		rows = append(rows, row)
	}
	return table.Table{Name: name, Rows: rows}, nil
}

// budgetTables builds one table per cached financial year budget.
func (a *aggregation) budgetTables() ([]table.Table, error) {
	keys, err := a.store.List(cache.BalanceBudgetsDir)
	if err != nil {
		return nil, err
	}

	tables := make([]table.Table, 0, len(keys))
	for _, key := range keys {
		var budget domain.Accounts
		if err := cache.ReadJSON(a.store, key, &budget); err != nil {
			return nil, fmt.Errorf("loading budget: %w", err)
		}
		rows := make([]table.Row, 0, len(budget.Data))
		for _, line := range budget.Data {
			var row table.Row
			row.SetString("accountTypeName", a.typeName(line.AccountType, key))
			row.Merge(line.Fields)
			rows = append(rows, row)
		}
		tables = append(tables, table.Table{Name: path.Join(BudgetsDir, key.Base()), Rows: rows})
	}
	return tables, nil
}

// transactionsTable unions every cached transaction detail, ordered by date only.
func (a *aggregation) transactionsTable() (table.Table, error) {
	keys, err := a.store.List(cache.TransactionDataDir)
	if err != nil {
		return table.Table{}, err
	}

	var details []domain.TransactionDetail
	for _, key := range keys {
		var parsed domain.TransactionDetails
		if err := cache.ReadJSON(a.store, key, &parsed); err != nil {
			return table.Table{}, fmt.Errorf("loading transaction detail: %w", err)
		}
		details = append(details, parsed.Data...)
	}

	slices.SortStableFunc(details, func(x, y domain.TransactionDetail) int {
		return strings.Compare(x.TransactionDate, y.TransactionDate)
	})
	return passThrough(TableTransactions, details, func(d domain.TransactionDetail) table.Row { return d.Fields }), nil
}
