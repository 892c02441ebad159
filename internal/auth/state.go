package auth

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errBadState = errors.New("invalid oauth state")

// loginState rides in an HttpOnly cookie between start and callback, so any
// instance can finish a login another instance began.
type loginState struct {
	Nonce    string `json:"nonce"`
	Verifier string `json:"verifier"`
	jwt.RegisteredClaims
}

type stateCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (c stateCodec) encode(nonce, verifier string) (string, error) {
	now := c.now().UTC()
	claims := loginState{
		Nonce:    nonce,
		Verifier: verifier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// decode verifies the cookie and checks it belongs to the returned state.
func (c stateCodec) decode(raw, returnedState string) (loginState, error) {
	var claims loginState
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return loginState{}, fmt.Errorf("%w: %v", errBadState, err)
	}
	if claims.Nonce == "" || !hmac.Equal([]byte(claims.Nonce), []byte(returnedState)) {
		return loginState{}, fmt.Errorf("%w: state mismatch", errBadState)
	}
	return claims, nil
}
