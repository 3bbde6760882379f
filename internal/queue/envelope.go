package queue

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const envelopeIssuer = "shelter"

// ErrBadEnvelope is returned by Verify for unsigned, tampered or foreign
// messages.
var ErrBadEnvelope = errors.New("invalid event envelope")

type eventClaims struct {
	Event FeedRequestDecidedEvent `json:"evt"`
	jwt.RegisteredClaims
}

// Sign wraps ev in an HS256 JWT so consumers can tell our messages from
// anything else that lands on the queue.
func Sign(secret []byte, ev FeedRequestDecidedEvent) (string, error) {
	claims := eventClaims{
		Event: ev,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   envelopeIssuer,
			Subject:  FeedRequestQueue,
			ID:       strconv.FormatInt(ev.RequestID, 10),
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Verify checks the signature and issuer of raw and returns the event.
func Verify(secret []byte, raw string) (FeedRequestDecidedEvent, error) {
	var claims eventClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(envelopeIssuer))
	if err != nil || !tok.Valid {
		return FeedRequestDecidedEvent{}, ErrBadEnvelope
	}
	return claims.Event, nil
}
