package model

import (
	"time"

	"github.com/Astemirdum/elibrary-service/pkg/auth"
)

const (
	TierBasic = "BASIC"

	DefaultBranch       = "HN"
	DefaultMaxLoans     = 5
	DefaultLoanDuration = 14
)

type Member struct {
	ID           string       `json:"id" db:"id"`
	Email        string       `json:"email" db:"email"`
	PasswordHash string       `json:"-" db:"password_hash"`
	FullName     string       `json:"fullName" db:"full_name"`
	Phone        string       `json:"phone" db:"phone"`
	BranchID     string       `json:"branchId" db:"branch_id"`
	Role         auth.Role    `json:"role" db:"role"`
	Subscription Subscription `json:"subscription" db:"-"`
	JoinedAt     time.Time    `json:"joinedAt" db:"joined_at"`
}

type Subscription struct {
	Tier         string     `json:"tier" db:"sub_tier"`
	Active       bool       `json:"active" db:"sub_active"`
	StartDate    *time.Time `json:"startDate" db:"sub_start_date"`
	EndDate      *time.Time `json:"endDate" db:"sub_end_date"`
	MaxLoans     int        `json:"maxLoans" db:"sub_max_loans"`
	LoanDuration int        `json:"loanDuration" db:"sub_loan_duration"`
}

// Expired reports whether the subscription window closed before now.
// An unset end date never expires.
func (s Subscription) Expired(now time.Time) bool {
	return s.EndDate != nil && s.EndDate.Before(now)
}

// DefaultSubscription is granted on self registration.
func DefaultSubscription(now time.Time) Subscription {
	start := now
	end := now.AddDate(1, 0, 0)
	return Subscription{
		Tier:         TierBasic,
		Active:       true,
		StartDate:    &start,
		EndDate:      &end,
		MaxLoans:     DefaultMaxLoans,
		LoanDuration: DefaultLoanDuration,
	}
}

func (m Member) Caller() auth.Caller {
	return auth.Caller{MemberID: m.ID, Email: m.Email, Role: m.Role}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	BranchID string `json:"branchId"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type MemberUpdate struct {
	FullName     *string       `json:"fullName,omitempty"`
	Phone        *string       `json:"phone,omitempty"`
	BranchID     *string       `json:"branchId,omitempty"`
	Role         *string       `json:"role,omitempty" validate:"omitempty,oneof=MEMBER STAFF ADMIN member staff admin"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

type MemberFilter struct {
	Query string
	Role  string
	Page  Page
}
