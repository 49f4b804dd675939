// Package auth implements token verification for the connection gateway.
//
// Tokens are compact JWS objects signed with HMAC-SHA256 against a shared
// secret fetched from the secret store at startup. Verification is done by
// hand rather than through a JWT library: the wire contract is pinned to this
// exact procedure (raw base64url segments, 32-byte signature, constant-time
// compare, strict expiry) and must not drift with library defaults such as
// "alg" negotiation or expiry leeway.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Claims is the validated payload of an accepted token.
type Claims struct {
	Sub      string `json:"sub"`
	Username string `json:"username"`
	Exp      int64  `json:"exp"`
	Iat      int64  `json:"iat"`
}

var (
	ErrMalformedToken = errors.New("auth: malformed token")
	ErrBadSignature   = errors.New("auth: signature verification failed")
	ErrMissingSubject = errors.New("auth: missing 'sub' claim")
	ErrTokenExpired   = errors.New("auth: token expired")
)

// Verifier validates HMAC-SHA256 signed tokens against a shared secret.
// A Verifier with an empty key means the server runs without authentication
// (dev mode); callers decide that before invoking Verify.
type Verifier struct {
	key []byte
	now func() time.Time
}

// NewVerifier creates a Verifier for the given shared secret.
func NewVerifier(key string) *Verifier {
	return &Verifier{key: []byte(key), now: time.Now}
}

// Verify checks the token signature and expiry and returns its claims.
func (v *Verifier) Verify(token string) (*Claims, error) {
	dot1 := strings.IndexByte(token, '.')
	if dot1 < 0 {
		return nil, ErrMalformedToken
	}
	dot2 := strings.IndexByte(token[dot1+1:], '.')
	if dot2 < 0 {
		return nil, ErrMalformedToken
	}
	dot2 += dot1 + 1

	signedPart := token[:dot2]
	signatureB64 := token[dot2+1:]

	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(signedPart))
	expected := mac.Sum(nil)

	actual, err := base64.RawURLEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, ErrMalformedToken
	}
	if len(actual) != sha256.Size {
		return nil, ErrBadSignature
	}
	if subtle.ConstantTimeCompare(expected, actual) != 1 {
		return nil, ErrBadSignature
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(token[dot1+1 : dot2])
	if err != nil {
		return nil, ErrMalformedToken
	}

	var claims Claims
	if err := json.Unmarshal(payloadJSON, &claims); err != nil {
		return nil, ErrMalformedToken
	}
	if claims.Sub == "" {
		return nil, ErrMissingSubject
	}

	// Expired once the wall clock has passed exp; exp == now is still valid.
	if claims.Exp > 0 && v.now().Unix() > claims.Exp {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}
