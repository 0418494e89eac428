package utils // package utils provides helpers for hashing, session values and random tokens

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // HS256 signing method: HMAC-SHA256 with a constant-time Verify
)

var errEmptySecret = errors.New("session secret must not be empty")

// sessionPayload is the JSON carried in the first segment of a session
// value.  Ts and Exp are epoch milliseconds.
type sessionPayload struct {
	UserID string `json:"userId"`
	Ts     int64  `json:"ts"`
	Exp    int64  `json:"exp"`
}

// SessionCodec mints and checks session values of the form
// base64url(payload) "." base64url(HMAC-SHA256(secret, payload segment)).
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionCodec returns a codec signing with secret.  Values it creates
// stop verifying ttl after issuance.
func NewSessionCodec(secret []byte, ttl time.Duration) (*SessionCodec, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &SessionCodec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL is the server-side lifetime of values minted by this codec.
func (s *SessionCodec) TTL() time.Duration { return s.ttl }

// Create builds a signed session value for userID.
func (s *SessionCodec) Create(userID string) (string, error) {
	now := s.now()
	raw, err := json.Marshal(sessionPayload{
		UserID: userID,
		Ts:     now.UnixMilli(),
		Exp:    now.Add(s.ttl).UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	sig, err := jwt.SigningMethodHS256.Sign(payload, s.secret)
	if err != nil {
		return "", err
	}
	return payload + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify returns the user id carried by value.  Any defect (segment count,
// signature, encoding, JSON, user id type, expiry) yields ok == false with
// no further detail.
func (s *SessionCodec) Verify(value string) (userID string, ok bool) {
	parts := strings.Split(value, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[1])
	if err != nil {
		return "", false
	}
	if err := jwt.SigningMethodHS256.Verify(parts[0], sig, s.secret); err != nil {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", false
	}
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", false
	}
	if p.UserID == "" || p.Exp == 0 || s.now().UnixMilli() >= p.Exp {
		return "", false
	}
	return p.UserID, true
}
