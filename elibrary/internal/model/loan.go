package model

import "time"

type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

// Open reports whether the loan still holds its copy.
func (s LoanStatus) Open() bool {
	return s == LoanActive || s == LoanOverdue
}

func (s LoanStatus) Valid() bool {
	return s == LoanActive || s == LoanOverdue || s == LoanReturned
}

type Loan struct {
	ID          string     `json:"id" db:"id"`
	BranchID    string     `json:"branchId" db:"branch_id"`
	MemberID    string     `json:"memberId" db:"member_id"`
	CopyID      string     `json:"copyId" db:"copy_id"`
	BookID      string     `json:"bookId" db:"book_id"`
	BorrowedAt  time.Time  `json:"borrowedAt" db:"borrowed_at"`
	DueAt       time.Time  `json:"dueAt" db:"due_at"`
	ReturnedAt  *time.Time `json:"returnedAt" db:"returned_at"`
	Status      LoanStatus `json:"status" db:"status"`
	RenewCount  int        `json:"renewCount" db:"renew_count"`
	OverdueDays int        `json:"overdueDays" db:"overdue_days"`
	FineAmount  int64      `json:"fineAmount" db:"fine_amount"`
}

// Effective returns the loan as seen at now: an active loan past its due
// date reads as overdue even before the sweeper persisted it.
func (l Loan) Effective(now time.Time) Loan {
	if l.Status == LoanActive && now.After(l.DueAt) {
		l.Status = LoanOverdue
	}
	return l
}

type LoanFilter struct {
	MemberID string
	BranchID string
	Status   LoanStatus
	Page     Page
}

type BorrowRequest struct {
	CopyID   string `json:"copyId" validate:"required"`
	MemberID string `json:"memberId"`
}

type TransactionType string

const (
	TxBorrow TransactionType = "borrow"
	TxReturn TransactionType = "return"
	TxRenew  TransactionType = "renew"
	TxFine   TransactionType = "fine"
)

const FineStatusPending = "pending"

// Transaction is an append-only circulation log entry.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	BranchID    string          `json:"branchId" db:"branch_id"`
	Type        TransactionType `json:"type" db:"type"`
	MemberID    string          `json:"memberId" db:"member_id"`
	CopyID      string          `json:"copyId,omitempty" db:"copy_id"`
	LoanID      string          `json:"loanId" db:"loan_id"`
	Amount      *int64          `json:"amount,omitempty" db:"amount"`
	Description string          `json:"description,omitempty" db:"description"`
	Status      string          `json:"status,omitempty" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

type TransactionFilter struct {
	MemberID string
	BranchID string
	Type     TransactionType
	Page     Page
}
