package service

import (
	"time"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

const (
	FinePerDay int64 = 5000

	MaxRenewals         = 2
	RenewPeriod         = 14 * 24 * time.Hour
	MaxRenewOverdueDays = 3

	day = 24 * time.Hour
)

// OverdueDays counts whole days elapsed past dueAt, zero when at is not after it.
func OverdueDays(dueAt, at time.Time) int {
	if !at.After(dueAt) {
		return 0
	}
	return int(at.Sub(dueAt) / day)
}

func Fine(dueAt, at time.Time) (days int, amount int64) {
	days = OverdueDays(dueAt, at)
	return days, int64(days) * FinePerDay
}

// checkMember runs the member side of the borrow preconditions.
func checkMember(m model.Member, activeLoans int, now time.Time) error {
	if activeLoans >= m.Subscription.MaxLoans {
		return errs.ErrLoanLimit
	}
	if m.Subscription.Expired(now) {
		return errs.ErrSubscriptionExpired
	}
	return nil
}

func checkCopy(cp model.Copy, m model.Member) error {
	if cp.Status != model.CopyAvailable {
		return errs.ErrCopyNotAvailable
	}
	if cp.BranchID != m.BranchID {
		return errs.ErrWrongBranch
	}
	return nil
}

func newLoan(id string, m model.Member, cp model.Copy, now time.Time) model.Loan {
	return model.Loan{
		ID:         id,
		BranchID:   m.BranchID,
		MemberID:   m.ID,
		CopyID:     cp.ID,
		BookID:     cp.BookID,
		BorrowedAt: now,
		DueAt:      now.Add(time.Duration(m.Subscription.LoanDuration) * day),
		Status:     model.LoanActive,
	}
}

func returnLoan(l model.Loan, now time.Time) model.Loan {
	l.ReturnedAt = &now
	l.Status = model.LoanReturned
	l.OverdueDays, l.FineAmount = Fine(l.DueAt, now)
	return l
}

// renewLoan extends the due date. An overdue mark is cleared.
func renewLoan(l model.Loan, now time.Time) (model.Loan, error) {
	if l.RenewCount >= MaxRenewals {
		return model.Loan{}, errs.ErrRenewLimit
	}
	if OverdueDays(l.DueAt, now) > MaxRenewOverdueDays {
		return model.Loan{}, errs.ErrTooOverdue
	}
	l.DueAt = l.DueAt.Add(RenewPeriod)
	l.RenewCount++
	l.Status = model.LoanActive
	return l, nil
}
