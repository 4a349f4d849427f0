package service

import (
	"context"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

const (
	myLoansLimit     = 100
	defaultLoanLimit = 50
)

func (c *Circulation) GetLoan(ctx context.Context, loanID string, caller auth.Caller) (model.Loan, error) {
	loan, err := c.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return model.Loan{}, err
	}
	if err := c.policy.Authorize(caller, ActionViewLoan, loan.MemberID); err != nil {
		return model.Loan{}, err
	}
	return loan.Effective(c.now()), nil
}

func (c *Circulation) MyLoans(ctx context.Context, caller auth.Caller, status model.LoanStatus) ([]model.Loan, error) {
	loans, err := c.store.ListLoans(ctx, model.LoanFilter{
		MemberID: caller.MemberID,
		Status:   status,
		Page:     model.Page{Limit: myLoansLimit},
	})
	if err != nil {
		return nil, err
	}
	return c.effective(loans), nil
}

func (c *Circulation) ListLoans(ctx context.Context, caller auth.Caller, filter model.LoanFilter) ([]model.Loan, error) {
	if err := c.policy.Authorize(caller, ActionListLoans, ""); err != nil {
		return nil, err
	}
	filter.Page = model.NewPage(filter.Page.Skip, filter.Page.Limit, defaultLoanLimit)
	loans, err := c.store.ListLoans(ctx, filter)
	if err != nil {
		return nil, err
	}
	return c.effective(loans), nil
}

// ListTransactions shows staff the whole log and everyone else only their own entries.
func (c *Circulation) ListTransactions(ctx context.Context, caller auth.Caller, filter model.TransactionFilter) ([]model.Transaction, error) {
	if !c.policy.Allowed(caller, ActionAllTransactions, "") {
		filter.MemberID = caller.MemberID
	}
	filter.Page = model.NewPage(filter.Page.Skip, filter.Page.Limit, defaultLoanLimit)
	return c.store.ListTransactions(ctx, filter)
}

func (c *Circulation) effective(loans []model.Loan) []model.Loan {
	now := c.now()
	for i := range loans {
		loans[i] = loans[i].Effective(now)
	}
	return loans
}
