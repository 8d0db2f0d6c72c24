package magiclink

import (
	"errors"
	"fmt"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const linkAudience = "signin"

// linkClaims is the payload of the oobCode carried by a sign-in link.
type linkClaims struct {
	jwt.RegisteredClaims
}

type tokenCodec struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func (c tokenCodec) issue(email string) (token string, id string, err error) {
	now := c.now()
	id = uuid.NewString()
	claims := linkClaims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   email,
		Audience:  jwt.ClaimStrings{linkAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        id,
	}}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", "", fmt.Errorf("sign link token: %w", err)
	}
	return token, id, nil
}

// parse verifies signature, audience, issuer and expiry. Expired tokens map to
// domainauth.ErrLinkExpired, anything else unverifiable to domainauth.ErrLinkInvalid.
func (c tokenCodec) parse(token string) (linkClaims, error) {
	var claims linkClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(linkAudience),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return claims, domainauth.ErrLinkExpired
	default:
		return claims, fmt.Errorf("%w: %v", domainauth.ErrLinkInvalid, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return claims, domainauth.ErrLinkInvalid
	}
	return claims, nil
}
