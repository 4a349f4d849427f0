package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleMember Role = "MEMBER"
	RoleStaff  Role = "STAFF"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole normalizes a stored role. Roles are compared case-insensitively.
func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

func (r Role) Is(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// Caller is the authenticated identity a request acts on behalf of.
type Caller struct {
	MemberID string
	Email    string
	Role     Role
}

func (c Caller) IsStaff() bool {
	return c.Role.Is(RoleStaff) || c.Role.Is(RoleAdmin)
}

func (c Caller) IsAdmin() bool {
	return c.Role.Is(RoleAdmin)
}

type Config struct {
	Secret   string        `yaml:"secret" envconfig:"AUTH_SECRET" default:"change-me-in-production-min-32-chars"`
	TokenTTL time.Duration `yaml:"tokenTTL" envconfig:"AUTH_TOKEN_TTL" default:"24h"`
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid authentication credentials")
	ErrTokenExpired = errors.New("token expired")
	ErrNoCaller     = errors.New("caller is not set")
)

type Issuer struct {
	key []byte
	ttl time.Duration
}

func NewIssuer(cfg Config) *Issuer {
	return &Issuer{key: []byte(cfg.Secret), ttl: cfg.TokenTTL}
}

// Issue signs an HS256 access token for the caller.
func (i *Issuer) Issue(c Caller, now time.Time) (string, time.Time, error) {
	exp := now.Add(i.ttl)
	claims := &Claims{
		Email: c.Email,
		Role:  string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.MemberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return token, exp, nil
}

func (i *Issuer) Parse(tokenStr string) (Caller, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return i.key, nil
	})
	if err != nil {
		var vErr *jwt.ValidationError
		if errors.As(err, &vErr) && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return Caller{}, ErrTokenExpired
		}
		return Caller{}, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return Caller{}, ErrInvalidToken
	}
	return Caller{
		MemberID: claims.Subject,
		Email:    claims.Email,
		Role:     ParseRole(claims.Role),
	}, nil
}

type ctxKey int

const callerKey ctxKey = iota + 1

func SetCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

func GetCaller(ctx context.Context) (Caller, error) {
	c, ok := ctx.Value(callerKey).(Caller)
	if !ok {
		return Caller{}, ErrNoCaller
	}
	return c, nil
}
