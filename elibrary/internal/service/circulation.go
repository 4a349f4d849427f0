package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
	"github.com/Astemirdum/elibrary-service/pkg/kafka"
	"github.com/Astemirdum/elibrary-service/pkg/metrics"
)

// Circulation enacts borrow, return and renew. Each action commits its loan,
// copy and transaction writes in one database transaction.
type Circulation struct {
	store   CirculationStore
	policy  Policy
	pub     kafka.Publisher
	metrics *metrics.Circulation
	log     *zap.Logger
	now     func() time.Time
}

type CirculationOption func(c *Circulation)

func WithClock(now func() time.Time) CirculationOption {
	return func(c *Circulation) {
		c.now = now
	}
}

func WithPublisher(pub kafka.Publisher) CirculationOption {
	return func(c *Circulation) {
		c.pub = pub
	}
}

func WithMetrics(m *metrics.Circulation) CirculationOption {
	return func(c *Circulation) {
		c.metrics = m
	}
}

func NewCirculation(store CirculationStore, log *zap.Logger, opts ...CirculationOption) *Circulation {
	c := &Circulation{
		store: store,
		pub:   kafka.NewNopPublisher(),
		log:   log.Named("circulation"),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Circulation) Borrow(ctx context.Context, copyID string, member model.Member) (model.Loan, error) {
	const action = "borrow"
	now := c.now()
	var (
		loan model.Loan
		txs  []model.Transaction
	)
	err := c.store.InTx(ctx, func(ctx context.Context) error {
		m, err := c.store.LockMember(ctx, member.ID)
		if err != nil {
			return err
		}
		active, err := c.store.CountActiveLoans(ctx, m.ID)
		if err != nil {
			return err
		}
		if err := checkMember(m, active, now); err != nil {
			return err
		}
		cp, err := c.store.FindCopyByID(ctx, copyID)
		if err != nil {
			return err
		}
		if err := checkCopy(cp, m); err != nil {
			return err
		}
		swapped, err := c.store.SwapCopyStatus(ctx, cp.ID, model.CopyAvailable, model.CopyBorrowed)
		if err != nil {
			return err
		}
		if !swapped {
			return errs.ErrCopyNotAvailable
		}

		id, err := c.store.NextID(ctx, model.IDLoan)
		if err != nil {
			return err
		}
		loan = newLoan(id, m, cp, now)
		if err := c.store.InsertLoan(ctx, loan); err != nil {
			return err
		}
		tx, err := c.appendTx(ctx, model.Transaction{
			BranchID:  loan.BranchID,
			Type:      model.TxBorrow,
			MemberID:  loan.MemberID,
			CopyID:    loan.CopyID,
			LoanID:    loan.ID,
			CreatedAt: now,
		})
		txs = append(txs, tx)
		return err
	})
	if err != nil {
		return model.Loan{}, c.reject(action, err)
	}
	c.committed(ctx, action, txs)
	return loan, nil
}

func (c *Circulation) Return(ctx context.Context, loanID string, caller auth.Caller) (model.Loan, error) {
	const action = "return"
	now := c.now()
	var (
		loan model.Loan
		txs  []model.Transaction
	)
	err := c.store.InTx(ctx, func(ctx context.Context) error {
		prev, err := c.openLoan(ctx, loanID, caller, ActionReturnLoan)
		if err != nil {
			return err
		}
		loan = returnLoan(prev, now)
		if err := c.store.UpdateLoan(ctx, prev, loan); err != nil {
			return err
		}
		if err := c.store.SetCopyStatus(ctx, loan.CopyID, model.CopyAvailable); err != nil {
			return err
		}

		tx, err := c.appendTx(ctx, model.Transaction{
			BranchID:  loan.BranchID,
			Type:      model.TxReturn,
			MemberID:  loan.MemberID,
			CopyID:    loan.CopyID,
			LoanID:    loan.ID,
			CreatedAt: now,
		})
		if err != nil {
			return err
		}
		txs = append(txs, tx)
		if loan.FineAmount == 0 {
			return nil
		}
		amount := loan.FineAmount
		tx, err = c.appendTx(ctx, model.Transaction{
			BranchID:    loan.BranchID,
			Type:        model.TxFine,
			MemberID:    loan.MemberID,
			LoanID:      loan.ID,
			Amount:      &amount,
			Description: fmt.Sprintf("Overdue fine for %d days", loan.OverdueDays),
			Status:      model.FineStatusPending,
			CreatedAt:   now,
		})
		txs = append(txs, tx)
		return err
	})
	if err != nil {
		return model.Loan{}, c.reject(action, err)
	}
	c.metrics.AddFine(loan.FineAmount)
	c.committed(ctx, action, txs)
	return loan, nil
}

func (c *Circulation) Renew(ctx context.Context, loanID string, caller auth.Caller) (model.Loan, error) {
	const action = "renew"
	now := c.now()
	var (
		loan model.Loan
		txs  []model.Transaction
	)
	err := c.store.InTx(ctx, func(ctx context.Context) error {
		prev, err := c.openLoan(ctx, loanID, caller, ActionRenewLoan)
		if err != nil {
			return err
		}
		if loan, err = renewLoan(prev, now); err != nil {
			return err
		}
		if err := c.store.UpdateLoan(ctx, prev, loan); err != nil {
			return err
		}
		tx, err := c.appendTx(ctx, model.Transaction{
			BranchID:    loan.BranchID,
			Type:        model.TxRenew,
			MemberID:    loan.MemberID,
			CopyID:      loan.CopyID,
			LoanID:      loan.ID,
			Description: fmt.Sprintf("Renewal #%d", loan.RenewCount),
			CreatedAt:   now,
		})
		txs = append(txs, tx)
		return err
	})
	if err != nil {
		return model.Loan{}, c.reject(action, err)
	}
	c.committed(ctx, action, txs)
	return loan, nil
}

// openLoan loads a loan the caller may act on and that is not yet returned.
func (c *Circulation) openLoan(ctx context.Context, loanID string, caller auth.Caller, action Action) (model.Loan, error) {
	loan, err := c.store.FindLoanByID(ctx, loanID)
	if err != nil {
		return model.Loan{}, err
	}
	if err := c.policy.Authorize(caller, action, loan.MemberID); err != nil {
		return model.Loan{}, err
	}
	if loan.Status == model.LoanReturned {
		return model.Loan{}, errs.ErrAlreadyReturned
	}
	return loan, nil
}

func (c *Circulation) appendTx(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	id, err := c.store.NextID(ctx, model.IDTransaction)
	if err != nil {
		return model.Transaction{}, err
	}
	tx.ID = id
	if err := c.store.AppendTransaction(ctx, tx); err != nil {
		return model.Transaction{}, err
	}
	return tx, nil
}

func (c *Circulation) reject(action string, err error) error {
	kind := errs.Kind(err)
	c.metrics.IncRejection(action, kind)
	if kind == "internal" {
		c.log.Error(action, zap.Error(err))
		return errors.Wrap(err, action)
	}
	c.log.Debug(action+" rejected", zap.String("kind", kind), zap.Error(err))
	return err
}

// committed runs the after-commit side effects. Publishing is best effort and
// outlives the request: the transactions are already durable.
func (c *Circulation) committed(ctx context.Context, action string, txs []model.Transaction) {
	ctx = context.WithoutCancel(ctx)
	c.metrics.IncAction(action)
	events := make([]kafka.EventCirculation, 0, len(txs))
	for _, tx := range txs {
		events = append(events, newEvent(tx))
	}
	if err := c.pub.Publish(ctx, events...); err != nil {
		c.log.Warn("publish circulation events", zap.String("action", action), zap.Error(err))
	}
}

func newEvent(tx model.Transaction) kafka.EventCirculation {
	ev := kafka.EventCirculation{
		EventID:       uuid.NewString(),
		TransactionID: tx.ID,
		Type:          string(tx.Type),
		LoanID:        tx.LoanID,
		MemberID:      tx.MemberID,
		CopyID:        tx.CopyID,
		BranchID:      tx.BranchID,
		Timestamp:     tx.CreatedAt,
	}
	if tx.Amount != nil {
		ev.Amount = *tx.Amount
	}
	return ev
}
