package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/elibrary-service/elibrary/internal/errs"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/model"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

const defaultUserLimit = 50

type TokenIssuer interface {
	Issue(c auth.Caller, now time.Time) (string, time.Time, error)
}

// Accounts covers registration, login and admin user management.
type Accounts struct {
	store  AccountStore
	issuer TokenIssuer
	policy Policy
	log    *zap.Logger
	now    func() time.Time
	cost   int
}

func NewAccounts(store AccountStore, issuer TokenIssuer, log *zap.Logger) *Accounts {
	return &Accounts{
		store:  store,
		issuer: issuer,
		log:    log.Named("accounts"),
		now:    time.Now,
		cost:   bcrypt.DefaultCost,
	}
}

func (a *Accounts) Register(ctx context.Context, req model.RegisterRequest) (model.Member, error) {
	if _, err := a.store.FindMemberByEmail(ctx, req.Email); err == nil {
		return model.Member{}, errs.ErrEmailTaken
	} else if !errors.Is(err, errs.ErrMemberNotFound) {
		return model.Member{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return model.Member{}, errors.Wrap(err, "hash password")
	}
	id, err := a.store.NextID(ctx, model.IDMember)
	if err != nil {
		return model.Member{}, err
	}
	branch := strings.TrimSpace(req.BranchID)
	if branch == "" {
		branch = model.DefaultBranch
	}
	now := a.now()
	m := model.Member{
		ID:           id,
		Email:        strings.ToLower(req.Email),
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        req.Phone,
		BranchID:     branch,
		Role:         auth.RoleMember,
		Subscription: model.DefaultSubscription(now),
		JoinedAt:     now,
	}
	if err := a.store.CreateMember(ctx, m); err != nil {
		return model.Member{}, err
	}
	a.log.Info("member registered", zap.String("id", m.ID))
	return m, nil
}

func (a *Accounts) Login(ctx context.Context, req model.LoginRequest) (model.Token, error) {
	m, err := a.store.FindMemberByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, errs.ErrMemberNotFound) {
			return model.Token{}, errs.ErrInvalidCredentials
		}
		return model.Token{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.Password)); err != nil {
		return model.Token{}, errs.ErrInvalidCredentials
	}
	now := a.now()
	token, exp, err := a.issuer.Issue(m.Caller(), now)
	if err != nil {
		return model.Token{}, errors.Wrap(err, "issue token")
	}
	return model.Token{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(exp.Sub(now).Seconds()),
	}, nil
}

func (a *Accounts) Me(ctx context.Context, caller auth.Caller) (model.Member, error) {
	return a.store.FindMemberByID(ctx, caller.MemberID)
}

// ActiveMember resolves the caller to a member allowed to use circulation.
func (a *Accounts) ActiveMember(ctx context.Context, caller auth.Caller) (model.Member, error) {
	m, err := a.store.FindMemberByID(ctx, caller.MemberID)
	if err != nil {
		return model.Member{}, err
	}
	if !m.Subscription.Active {
		return model.Member{}, errs.ErrSubscriptionInactive
	}
	return m, nil
}

// BorrowerFor picks who a borrow is made for: the caller, or with staff rights any member.
func (a *Accounts) BorrowerFor(ctx context.Context, caller auth.Caller, memberID string) (model.Member, error) {
	if memberID == "" || memberID == caller.MemberID {
		return a.ActiveMember(ctx, caller)
	}
	if err := a.policy.Authorize(caller, ActionBorrowFor, memberID); err != nil {
		return model.Member{}, err
	}
	m, err := a.store.FindMemberByID(ctx, memberID)
	if err != nil {
		return model.Member{}, err
	}
	if !m.Subscription.Active {
		return model.Member{}, errs.ErrSubscriptionInactive
	}
	return m, nil
}

func (a *Accounts) ListUsers(ctx context.Context, caller auth.Caller, filter model.MemberFilter) ([]model.Member, error) {
	if err := a.policy.Authorize(caller, ActionManageUsers, ""); err != nil {
		return nil, err
	}
	filter.Page = model.NewPage(filter.Page.Skip, filter.Page.Limit, defaultUserLimit)
	return a.store.ListMembers(ctx, filter)
}

func (a *Accounts) CreateUser(ctx context.Context, caller auth.Caller, req model.RegisterRequest) (model.Member, error) {
	if err := a.policy.Authorize(caller, ActionManageUsers, ""); err != nil {
		return model.Member{}, err
	}
	return a.Register(ctx, req)
}

func (a *Accounts) UpdateUser(ctx context.Context, caller auth.Caller, id string, upd model.MemberUpdate) (model.Member, error) {
	if err := a.policy.Authorize(caller, ActionManageUsers, ""); err != nil {
		return model.Member{}, err
	}
	return a.store.UpdateMember(ctx, id, upd)
}

func (a *Accounts) DeleteUser(ctx context.Context, caller auth.Caller, id string) error {
	if err := a.policy.Authorize(caller, ActionManageUsers, ""); err != nil {
		return err
	}
	return a.store.DeleteMember(ctx, id)
}
