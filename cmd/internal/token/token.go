// Package token issues and validates the locally-signed session tokens
// handed out after the identity provider has authenticated a user. The
// token embeds the user's profile and role so request handling never has
// to call back into the provider.
package token

import (
	"errors"
	"time"

	"telefonia/cmd/internal/domain/entity"
	"telefonia/cmd/internal/utils/apierror"

	"github.com/golang-jwt/jwt/v5"
)

const validity = time.Hour

type Claims struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Phone    string `json:"phone"`
	Active   bool   `json:"active"`
	Admin    bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Email is carried in the registered subject claim.
func (c *Claims) Email() string {
	return c.Subject
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Issue signs a one-hour session token carrying the user's profile claims.
func (c *Codec) Issue(user *entity.User) (string, error) {
	now := c.now().UTC()
	claims := &Claims{
		Name:     user.Name,
		Lastname: user.Lastname,
		Phone:    user.Phone,
		Active:   user.Active,
		Admin:    user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

// Validate verifies the signature and expiry of a session token and
// rejects tokens belonging to deactivated users.
func (c *Codec) Validate(raw string) (*Claims, apierror.ErrorResponse) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apierror.ExpiredTokenError
		}
		return nil, apierror.InvalidAuthTokenError
	}

	if !tok.Valid || claims.Subject == "" {
		return nil, apierror.InvalidAuthTokenError
	}

	if !claims.Active {
		return nil, apierror.InactiveUserError
	}
	return claims, nil
}

// ValidateAdmin is Validate with an additional administrator-role check.
func (c *Codec) ValidateAdmin(raw string) (*Claims, apierror.ErrorResponse) {
	claims, apierr := c.Validate(raw)
	if apierr != nil {
		return nil, apierr
	}

	if !claims.Admin {
		return nil, apierror.NotAuthorizedError
	}
	return claims, nil
}
