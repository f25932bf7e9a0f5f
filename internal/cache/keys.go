package cache

import (
	"path"
	"strconv"
	"strings"
)

// Key is a slash separated cache path relative to the store root.
// Keys are derived from resource identity only, so reruns land on the same file.
type Key string

const (
	root = "financials"

	FinancialYearsKey     Key = root + "/get-financial-years.json"
	PayableBalancesKey    Key = root + "/get-payable-balances.json"
	ReceivableBalancesKey Key = root + "/get-receivable-balances.json"
	AllAccountsKey        Key = root + "/get-all-accounts.json"

	BalanceBudgetsDir  Key = root + "/get-balance-budgets"
	StatementsDir      Key = root + "/get-account-statements"
	TransactionDataDir Key = root + "/get-account-statement-transaction-data"

	accountYearsFile = "financial-years.json"
	ext              = ".json"
)

// BalanceBudgetKey is keyed by the year's display label, not its short id.
func BalanceBudgetKey(displayLabel string) Key {
	return join(BalanceBudgetsDir, segment(displayLabel)+ext)
}

// AccountFinancialYearsKey is the account-scoped financial year index.
func AccountFinancialYearsKey(accountNumber int64) Key {
	return join(StatementsDir, strconv.FormatInt(accountNumber, 10), accountYearsFile)
}

// StatementKey addresses one (account, year) statement.
func StatementKey(accountNumber int64, yearShortID string) Key {
	return join(StatementsDir, strconv.FormatInt(accountNumber, 10), segment(yearShortID)+ext)
}

// TransactionDataKey addresses one transaction detail.
func TransactionDataKey(transactionNumber int64) Key {
	return join(TransactionDataDir, strconv.FormatInt(transactionNumber, 10)+ext)
}

// ParseStatementKey extracts the account number and year short id from a
// statement key. The per-account financial year index shares the directory
// and is rejected.
func ParseStatementKey(k Key) (accountNumber int64, yearShortID string, ok bool) {
	rest, found := strings.CutPrefix(string(k), string(StatementsDir)+"/")
	if !found {
		return 0, "", false
	}
	dir, file, found := strings.Cut(rest, "/")
	if !found || strings.Contains(file, "/") || file == accountYearsFile || !strings.HasSuffix(file, ext) {
		return 0, "", false
	}
	n, err := strconv.ParseInt(dir, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return n, strings.TrimSuffix(file, ext), true
}

// Base returns the file name of k without the .json extension.
func (k Key) Base() string {
	return strings.TrimSuffix(path.Base(string(k)), ext)
}

func join(dir Key, parts ...string) Key {
	return Key(path.Join(append([]string{string(dir)}, parts...)...))
}

// PathSegment returns the file name stem used for a label or short id.
func PathSegment(s string) string {
	return segment(s)
}

// segment keeps a label inside a single path element.
func segment(s string) string {
	s = strings.NewReplacer("/", "-", "\\", "-").Replace(s)
	if s == "" || s == "." || s == ".." {
		s = "_" + s
	}
	return s
}
