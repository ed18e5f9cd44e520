package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moody/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const (
	accessAudience = "moody-api"
	stateAudience  = "moody-spotify-state"
	issuerName     = "moody"

	// StateTTL bounds the Spotify consent round trip.
	StateTTL = 10 * time.Minute
)

// Claims are the JWT claims of an access token.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// Expiry returns the expiry claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Issuer signs and parses tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerOption configures an [Issuer].
type IssuerOption func(*Issuer)

// WithNow overrides the clock used for issuing and validating tokens.
func WithNow(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer creates an [Issuer] whose access tokens live for ttl.
func NewIssuer(secret string, ttl time.Duration, opts ...IssuerOption) *Issuer {
	i := &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TTL returns the access token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs an access token for userID.
func (i *Issuer) Issue(userID, email string) (string, *Claims, error) {
	now := i.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        shared.GenerateID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token, err := i.sign(claims)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// IssueState signs the OAuth state parameter that ties a Spotify callback to userID.
func (i *Issuer) IssueState(userID string) (string, error) {
	now := i.now()
	return i.sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuerName,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{stateAudience},
		ID:        shared.GenerateID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(StateTTL)),
	}})
}

func (i *Issuer) sign(claims *Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Parse validates an access token.
//
// Expired tokens wrap [shared.ErrTokenExpired]; every other failure wraps [shared.ErrUnauthorized].
func (i *Issuer) Parse(token string) (*Claims, error) {
	return i.parse(token, accessAudience)
}

// ParseState validates a state parameter and returns the user it was issued for.
func (i *Issuer) ParseState(state string) (string, error) {
	claims, err := i.parse(state, stateAudience)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (i *Issuer) parse(token, audience string) (*Claims, error) {
	claims := &Claims{}
	keyFunc := func(*jwt.Token) (any, error) { return i.secret, nil }
	_, err := jwt.ParseWithClaims(token, claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	default:
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: token is missing subject or id", shared.ErrUnauthorized)
	}
	return claims, nil
}
