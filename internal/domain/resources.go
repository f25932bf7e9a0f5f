package domain

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/condoexport/internal/table"
)

// Envelope is the {"data": ...} wrapper around every upstream response.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// Text decodes either a JSON string or a JSON number into its textual form.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case string(data) == "null":
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(n.String())
	}
	return nil
}

// FinancialYear is one accounting period. ShortID is the internal id used in
// request paths; DisplayLabel is what users see.
type FinancialYear struct {
	ShortID      Text `json:"nomAbrege"`
	DisplayLabel Text `json:"displayYears"`
	IsCurrent    bool `json:"isCurrent"`
	UserHasData  bool `json:"userHasData"`

	Fields table.Row `json:"-"`
}

func (y *FinancialYear) UnmarshalJSON(data []byte) error {
	type plain FinancialYear
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Fields); err != nil {
		return err
	}
	*y = FinancialYear(p)
	return nil
}

// Account is a ledger account from the global enumeration. The same shape is
// used for budget lines and payable/receivable balances, which all carry an
// account number, a type code and an optional unit number.
type Account struct {
	AccountNumber int64       `json:"accountNumber"`
	AccountType   AccountType `json:"accountType"`
	UnitNumber    *string     `json:"unitNumber"`

	Fields table.Row `json:"-"`
}

func (a *Account) UnmarshalJSON(data []byte) error {
	type plain Account
	p := plain{AccountType: AccountTypeMissing}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Fields); err != nil {
		return err
	}
	*a = Account(p)
	return nil
}

// TrimmedUnitNumber returns the unit number without surrounding whitespace, or "" when absent.
func (a Account) TrimmedUnitNumber() string {
	if a.UnitNumber == nil {
		return ""
	}
	return strings.TrimSpace(*a.UnitNumber)
}

// AccountStatement is one account's activity within one financial year.
type AccountStatement struct {
	AccountNumber int64           `json:"accountNumber"`
	AccountType   AccountType     `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Address       string          `json:"address"`
	Transactions  []Transaction   `json:"transactions"`
}

func (s *AccountStatement) UnmarshalJSON(data []byte) error {
	type plain AccountStatement
	p := plain{AccountType: AccountTypeMissing}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = AccountStatement(p)
	return nil
}

// Transaction is a statement line. The same TransactionNumber may appear in
// several statements.
type Transaction struct {
	TransactionNumber int64  `json:"transactionNumber"`
	TransactionDate   string `json:"transactionDate"`

	Fields table.Row `json:"-"`
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Fields); err != nil {
		return err
	}
	*t = Transaction(p)
	return nil
}

// TransactionDetail is one record of a transaction detail response.
// It only needs the date for ordering; everything else passes through.
type TransactionDetail = Transaction

// Response payloads as cached on disk.
type (
	FinancialYears        = Envelope[[]FinancialYear]
	Accounts              = Envelope[[]Account]
	AccountStatements     = Envelope[[]AccountStatement]
	TransactionDetails    = Envelope[[]TransactionDetail]
	AccountFinancialYears = Envelope[[]FinancialYear]
)

// CurrentYear returns the year marked current and whether one was found.
func CurrentYear(years []FinancialYear) (FinancialYear, bool) {
	for _, y := range years {
		if y.IsCurrent {
			return y, true
		}
	}
	return FinancialYear{}, false
}
