package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is malformed, expired, or fails verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// AccessClaims holds JWT claims for the access token. Role travels as its
// integer wire value; CompanyID is empty for accounts without a company.
type AccessClaims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id,omitempty"`
	Role      int16  `json:"role"`
}

// Identity is the verified content of an access token.
type Identity struct {
	AccountID string
	CompanyID string
	Role      int16
}

// TokenProvider issues and validates HS256 access tokens using a shared server secret.
// Validation is stateless; refresh tokens are opaque and handled elsewhere (see opaque.go).
type TokenProvider struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given shared secret.
func NewTokenProvider(secret []byte, issuer string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:    secret,
		issuer:    issuer,
		accessTTL: accessTTL,
	}
}

// IssueAccess issues a short-lived access JWT for the given account, company, and role.
// Returns the signed token and its expiration time.
func (p *TokenProvider) IssueAccess(accountID, companyID string, role int16) (token string, expiresAt time.Time, err error) {
	now := time.Now().UTC()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		CompanyID: companyID,
		Role:      role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	return token, expiresAt, err
}

// ValidateAccess parses and validates the access token (signature, exp, iss).
// Any failure maps to ErrInvalidToken; callers must not distinguish further.
func (p *TokenProvider) ValidateAccess(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	return &Identity{
		AccountID: claims.Subject,
		CompanyID: claims.CompanyID,
		Role:      claims.Role,
	}, nil
}
