package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidLink covers malformed tokens and bad signatures.
	ErrInvalidLink = errors.New("invalid download link")
	// ErrExpiredLink is returned once a token is past its expiry.
	ErrExpiredLink = errors.New("download link expired")
)

// Link is the payload carried by a signed download token.
type Link struct {
	Owner     string
	Path      string
	ExpiresAt time.Time
}

// LinkSigner issues HMAC-signed tokens that reference a stored artifact and
// the job or marksheet that owns it.
type LinkSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewLinkSigner defaults the TTL to one hour.
func NewLinkSigner(secret string, ttl time.Duration) *LinkSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LinkSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports how long issued links stay valid.
func (s *LinkSigner) TTL() time.Duration {
	return s.ttl
}

// Sign returns a token of the form owner.expiry.path.signature where owner and
// path are base64url encoded.
func (s *LinkSigner) Sign(owner, path string) (string, time.Time, error) {
	if owner == "" || path == "" {
		return "", time.Time{}, fmt.Errorf("owner and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	encodedOwner := base64.RawURLEncoding.EncodeToString([]byte(owner))
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	signature := s.sign(encodedOwner, ts, encodedPath)
	return strings.Join([]string{encodedOwner, ts, encodedPath, signature}, "."), expiresAt, nil
}

// Verify checks the signature and expiry of token.
func (s *LinkSigner) Verify(token string) (*Link, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, ErrInvalidLink
	}
	encodedOwner, ts, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(encodedOwner, ts, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidLink
	}
	owner, err := base64.RawURLEncoding.DecodeString(encodedOwner)
	if err != nil {
		return nil, ErrInvalidLink
	}
	path, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return nil, ErrInvalidLink
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, ErrInvalidLink
	}
	link := &Link{Owner: string(owner), Path: string(path), ExpiresAt: time.Unix(expUnix, 0)}
	if s.now().After(link.ExpiresAt) {
		return link, ErrExpiredLink
	}
	return link, nil
}

func (s *LinkSigner) sign(owner, ts, path string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(owner + "|" + ts + "|" + path))
	return hex.EncodeToString(mac.Sum(nil))
}
