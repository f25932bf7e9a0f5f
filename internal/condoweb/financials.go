package condoweb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Every method returns the raw JSON body so callers can cache it verbatim.

// FinancialYears lists the association's financial years.
func (c *Client) FinancialYears(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/financials/get-financial-years")
}

// BalanceBudget returns the budget lines of one financial year.
func (c *Client) BalanceBudget(ctx context.Context, yearShortID string) ([]byte, error) {
	return c.get(ctx, "/financials/get-balance-budgets/"+url.PathEscape(yearShortID))
}

// PayableBalances returns the payable balances snapshot.
func (c *Client) PayableBalances(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/financials/get-payable-balances")
}

// ReceivableBalances returns the receivable balances snapshot.
func (c *Client) ReceivableBalances(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/financials/get-receivable-balances")
}

// AllAccounts enumerates every ledger account.
func (c *Client) AllAccounts(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/financials/get-all-accounts")
}

// AccountFinancialYears lists the financial years for one account, flagged with userHasData.
func (c *Client) AccountFinancialYears(ctx context.Context, accountNumber int64) ([]byte, error) {
	return c.get(ctx, fmt.Sprintf("/financials/get-financial-years/%d/", accountNumber))
}

// AccountStatement returns one account's statement for one financial year.
func (c *Client) AccountStatement(ctx context.Context, accountNumber int64, yearShortID string) ([]byte, error) {
	q := url.Values{}
	q.Set("isNextYear", "false")
	q.Set("associationId", c.creds.AssociationID)
	q.Set("shortenedName", yearShortID)
	return c.get(ctx, fmt.Sprintf("/financials/get-account-statement/%d?%s", accountNumber, q.Encode()))
}

// TransactionData returns the detail records of one transaction. The account
// number is a placeholder; the transaction number alone identifies the record.
func (c *Client) TransactionData(ctx context.Context, transactionNumber int64) ([]byte, error) {
	form := url.Values{}
	form.Set("transactionNumber", strconv.FormatInt(transactionNumber, 10))
	form.Set("accountNumber", "0")
	form.Set("associationId", c.creds.AssociationID)
	return c.postForm(ctx, "/financials/get-account-statement-transaction-data", form)
}
