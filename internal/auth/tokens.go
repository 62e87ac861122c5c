package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Tokens signs and verifies HS256 access tokens whose subject is the admin username.
type Tokens struct {
	Secret    []byte
	Issuer    string
	Audience  string
	TTL       time.Duration
	ClockSkew time.Duration
}

// Sign issues a token for username valid from now for the configured TTL.
func (t Tokens) Sign(username string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(t.TTL)
	tok, err := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Subject(username).
		Issuer(t.Issuer).
		Audience([]string{t.Audience}).
		IssuedAt(now).
		NotBefore(now.Add(-t.ClockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, t.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// Parse verifies the signature and claims of raw and returns its subject.
// Only HS256 is accepted.
func (t Tokens) Parse(raw string, now time.Time) (string, error) {
	alg, err := tokenAlgorithm(raw)
	if err != nil {
		return "", err
	}
	if alg != jwa.HS256 {
		return "", fmt.Errorf("auth: unexpected token algorithm %s", alg)
	}
	tok, err := jwt.ParseString(raw, jwt.WithKey(jwa.HS256, t.Secret), jwt.WithValidate(false))
	if err != nil {
		return "", err
	}
	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
	}
	if t.ClockSkew > 0 {
		opts = append(opts, jwt.WithAcceptableSkew(t.ClockSkew))
	}
	if t.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.Issuer))
	}
	if t.Audience != "" {
		opts = append(opts, jwt.WithAudience(t.Audience))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		return "", err
	}
	if tok.Subject() == "" {
		return "", errors.New("auth: token has no subject")
	}
	return tok.Subject(), nil
}

func tokenAlgorithm(raw string) (jwa.SignatureAlgorithm, error) {
	msg, err := jws.ParseString(raw)
	if err != nil {
		return "", err
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return "", errors.New("auth: token must carry exactly one signature")
	}
	headers := sigs[0].ProtectedHeaders()
	if headers == nil || headers.Algorithm() == "" {
		return "", errors.New("auth: token missing algorithm")
	}
	if headers.Algorithm() == jwa.NoSignature {
		return "", errors.New("auth: token uses none algorithm")
	}
	return headers.Algorithm(), nil
}
