package service

import (
	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

type Action string

const (
	ActionReturnLoan Action = "loan.return"
	ActionRenewLoan  Action = "loan.renew"
	ActionViewLoan   Action = "loan.view"

	ActionBorrowFor       Action = "loan.borrow_for"
	ActionListLoans       Action = "loan.list"
	ActionAllTransactions Action = "transaction.list_all"
	ActionManageCatalog   Action = "catalog.manage"

	ActionManageUsers Action = "user.manage"
)

type rule uint8

const (
	ownerOrStaff rule = iota
	staffOnly
	adminOnly
)

var rules = map[Action]rule{
	ActionReturnLoan:      ownerOrStaff,
	ActionRenewLoan:       ownerOrStaff,
	ActionViewLoan:        ownerOrStaff,
	ActionBorrowFor:       staffOnly,
	ActionListLoans:       staffOnly,
	ActionAllTransactions: staffOnly,
	ActionManageCatalog:   staffOnly,
	ActionManageUsers:     adminOnly,
}

// Policy is the single place role and ownership checks are made.
type Policy struct{}

// Authorize fails with errs.ErrNotAuthorized unless caller may perform action
// on a record owned by ownerID. ownerID is ignored for role-only actions.
func (Policy) Authorize(caller auth.Caller, action Action, ownerID string) error {
	r, ok := rules[action]
	if !ok {
		return errs.ErrNotAuthorized
	}
	switch r {
	case ownerOrStaff:
		if caller.IsStaff() || (caller.MemberID != "" && caller.MemberID == ownerID) {
			return nil
		}
	case staffOnly:
		if caller.IsStaff() {
			return nil
		}
	case adminOnly:
		if caller.IsAdmin() {
			return nil
		}
	}
	return errs.ErrNotAuthorized
}

// Allowed is Authorize as a predicate.
func (p Policy) Allowed(caller auth.Caller, action Action, ownerID string) bool {
	return p.Authorize(caller, action, ownerID) == nil
}
