package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownAccountType indicates an account type code outside the known enumeration.
var ErrUnknownAccountType = errors.New("unknown account type")

// AccountType is the numeric ledger account classification used upstream.
// The mapping was inferred from the web app's budget filters and may differ
// between associations.
type AccountType int

const (
	AccountTypeAssets      AccountType = 0
	AccountTypeExpenses    AccountType = 1
	AccountTypeReceivables AccountType = 2
	AccountTypeLiabilities AccountType = 3
	AccountTypeRevenues    AccountType = 4
	AccountTypeSuppliers   AccountType = 5
	AccountTypeCapital     AccountType = 6
	AccountTypeOwners      AccountType = 7

	// AccountTypeMissing marks a record whose accountType is absent or null.
	AccountTypeMissing AccountType = -1
)

var accountTypeNames = [...]string{
	AccountTypeAssets:      "Assets",
	AccountTypeExpenses:    "Expenses",
	AccountTypeReceivables: "Receivables",
	AccountTypeLiabilities: "Liabilities",
	AccountTypeRevenues:    "Revenues",
	AccountTypeSuppliers:   "Suppliers",
	AccountTypeCapital:     "Capital",
	AccountTypeOwners:      "Owners",
}

// Valid reports whether t is one of the eight known codes.
func (t AccountType) Valid() bool {
	return t >= 0 && int(t) < len(accountTypeNames)
}

// Name returns the display name for t, or ErrUnknownAccountType.
func (t AccountType) Name() (string, error) {
	if t == AccountTypeMissing {
		return "", fmt.Errorf("%w: missing", ErrUnknownAccountType)
	}
	if !t.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownAccountType, int(t))
	}
	return accountTypeNames[t], nil
}

// String implements fmt.Stringer.
func (t AccountType) String() string {
	if t == AccountTypeMissing {
		return "AccountType(missing)"
	}
	name, err := t.Name()
	if err != nil {
		return fmt.Sprintf("AccountType(%d)", int(t))
	}
	return name
}

// UnmarshalJSON decodes a numeric code. null decodes to AccountTypeMissing.
func (t *AccountType) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*t = AccountTypeMissing
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding account type: %w", err)
	}
	*t = AccountType(n)
	return nil
}
