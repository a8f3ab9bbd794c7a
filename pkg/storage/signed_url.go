package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("malformed download token")
	ErrTokenSignature = errors.New("invalid download token signature")
	ErrTokenExpired   = errors.New("download token expired")
)

// Grant is the content of a verified download token.
type Grant struct {
	Key       string
	ExpiresAt time.Time
}

// SignedURLSigner issues HMAC-SHA256 tokens of the form payload.signature, where the
// payload is base64url("key|unix-expiry").
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token granting access to key until now+ttl.
func (s *SignedURLSigner) Sign(key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("key required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	payload := base64.RawURLEncoding.EncodeToString([]byte(key + "|" + strconv.FormatInt(expiresAt.Unix(), 10)))
	return payload + "." + s.sign(payload), expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *SignedURLSigner) Verify(token string) (Grant, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok || payload == "" || sig == "" {
		return Grant{}, ErrTokenMalformed
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(payload))) {
		return Grant{}, ErrTokenSignature
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Grant{}, ErrTokenMalformed
	}
	idx := strings.LastIndexByte(string(raw), '|')
	if idx <= 0 {
		return Grant{}, ErrTokenMalformed
	}
	exp, err := strconv.ParseInt(string(raw[idx+1:]), 10, 64)
	if err != nil {
		return Grant{}, ErrTokenMalformed
	}
	grant := Grant{Key: string(raw[:idx]), ExpiresAt: time.Unix(exp, 0).UTC()}
	if s.now().After(grant.ExpiresAt) {
		return Grant{}, ErrTokenExpired
	}
	return grant, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
