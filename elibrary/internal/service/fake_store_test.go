package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
)

// memStore is an in-memory store. InTx serializes callers and restores the
// previous state when fn fails.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	seq     map[model.IDKind]int64
	members map[string]model.Member
	books   map[string]model.Book
	copies  map[string]model.Copy
	loans   map[string]model.Loan
	txs     []model.Transaction

	failAppend error
}

func newMemStore() *memStore {
	return &memStore{
		seq:     make(map[model.IDKind]int64),
		members: make(map[string]model.Member),
		books:   make(map[string]model.Book),
		copies:  make(map[string]model.Copy),
		loans:   make(map[string]model.Loan),
	}
}

type snapshot struct {
	members map[string]model.Member
	copies  map[string]model.Copy
	loans   map[string]model.Loan
	txs     []model.Transaction
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := snapshot{
		members: cloneMap(s.members),
		copies:  cloneMap(s.copies),
		loans:   cloneMap(s.loans),
		txs:     append([]model.Transaction(nil), s.txs...),
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.members, s.copies, s.loans, s.txs = snap.members, snap.copies, snap.loans, snap.txs
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) NextID(_ context.Context, kind model.IDKind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[kind]++
	return model.FormatID(kind, s.seq[kind]), nil
}

func (s *memStore) FindMemberByID(_ context.Context, id string) (model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return model.Member{}, errs.ErrMemberNotFound
	}
	return m, nil
}

func (s *memStore) LockMember(ctx context.Context, id string) (model.Member, error) {
	return s.FindMemberByID(ctx, id)
}

func (s *memStore) FindMemberByEmail(_ context.Context, email string) (model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if strings.EqualFold(m.Email, email) {
			return m, nil
		}
	}
	return model.Member{}, errs.ErrMemberNotFound
}

func (s *memStore) CountActiveLoans(_ context.Context, memberID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.loans {
		if l.MemberID == memberID && l.Status.Open() {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateMember(_ context.Context, m model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.members {
		if strings.EqualFold(other.Email, m.Email) {
			return errs.ErrEmailTaken
		}
	}
	s.members[m.ID] = m
	return nil
}

func (s *memStore) UpdateMember(_ context.Context, id string, upd model.MemberUpdate) (model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return model.Member{}, errs.ErrMemberNotFound
	}
	if upd.FullName != nil {
		m.FullName = *upd.FullName
	}
	if upd.BranchID != nil {
		m.BranchID = *upd.BranchID
	}
	if upd.Subscription != nil {
		m.Subscription = *upd.Subscription
	}
	s.members[id] = m
	return m, nil
}

func (s *memStore) DeleteMember(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[id]; !ok {
		return errs.ErrMemberNotFound
	}
	delete(s.members, id)
	return nil
}

func (s *memStore) ListMembers(_ context.Context, _ model.MemberFilter) ([]model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindCopyByID(_ context.Context, id string) (model.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.copies[id]
	if !ok {
		return model.Copy{}, errs.ErrCopyNotFound
	}
	return cp, nil
}

func (s *memStore) SetCopyStatus(_ context.Context, id string, status model.CopyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.copies[id]
	if !ok {
		return errs.ErrCopyNotFound
	}
	cp.Status = status
	s.copies[id] = cp
	return nil
}

func (s *memStore) SwapCopyStatus(_ context.Context, id string, from, to model.CopyStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.copies[id]
	if !ok || cp.Status != from {
		return false, nil
	}
	cp.Status = to
	s.copies[id] = cp
	return true, nil
}

func (s *memStore) InsertLoan(_ context.Context, loan model.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loans[loan.ID]; ok {
		return fmt.Errorf("duplicate key value violates loans_pkey: %s", loan.ID)
	}
	for _, l := range s.loans {
		if l.CopyID == loan.CopyID && l.Status.Open() {
			return errs.ErrCopyNotAvailable
		}
	}
	s.loans[loan.ID] = loan
	return nil
}

func (s *memStore) FindLoanByID(_ context.Context, id string) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.loans[id]
	if !ok {
		return model.Loan{}, errs.ErrLoanNotFound
	}
	return l, nil
}

func (s *memStore) UpdateLoan(_ context.Context, prev, next model.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.loans[prev.ID]
	if !ok || cur.Status == model.LoanReturned || cur.RenewCount != prev.RenewCount {
		return errs.ErrStaleLoan
	}
	s.loans[prev.ID] = next
	return nil
}

func (s *memStore) ListLoans(_ context.Context, filter model.LoanFilter) ([]model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Loan, 0)
	for _, l := range s.loans {
		if filter.MemberID != "" && l.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) MarkOverdue(_ context.Context) (int64, error) {
	return 0, nil
}

func (s *memStore) AppendTransaction(_ context.Context, tx model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAppend != nil {
		return s.failAppend
	}
	s.txs = append(s.txs, tx)
	return nil
}

func (s *memStore) ListTransactions(_ context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Transaction, 0)
	for _, tx := range s.txs {
		if filter.MemberID != "" && tx.MemberID != filter.MemberID {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (s *memStore) transactions() []model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Transaction(nil), s.txs...)
}

func (s *memStore) copyStatus(id string) model.CopyStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copies[id].Status
}

// racingStore lets transactions interleave. Every borrower reads the copy
// before any of them writes, so only the status swap and the open loan
// check can stop a double borrow.
type racingStore struct {
	*memStore
	readers  sync.WaitGroup
	skipSwap bool
}

func newRacingStore(s *memStore, borrowers int) *racingStore {
	r := &racingStore{memStore: s}
	r.readers.Add(borrowers)
	return r
}

func (r *racingStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *racingStore) FindCopyByID(ctx context.Context, id string) (model.Copy, error) {
	cp, err := r.memStore.FindCopyByID(ctx, id)
	r.readers.Done()
	r.readers.Wait()
	return cp, err
}

// SwapCopyStatus with skipSwap set behaves like a plain write, leaving the
// open loan check as the only guard.
func (r *racingStore) SwapCopyStatus(ctx context.Context, id string, from, to model.CopyStatus) (bool, error) {
	if r.skipSwap {
		return true, r.memStore.SetCopyStatus(ctx, id, to)
	}
	return r.memStore.SwapCopyStatus(ctx, id, from, to)
}

var _ CirculationStore = (*memStore)(nil)
var _ CirculationStore = (*racingStore)(nil)
var _ AccountStore = (*memStore)(nil)
