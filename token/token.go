package token

import (
	"bookbyblock-backend/model"
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

var (
	ErrInvalidInput     = errors.New("invalid ticket reference")
	ErrMalformedToken   = errors.New("malformed token payload")
	ErrInvalidSignature = errors.New("token signature mismatch")
	ErrExpired          = errors.New("token expired")
)

// Service issues and verifies short-lived entry tokens. A token binds one
// ticket reference to a narrow time window and is signed with a symmetric
// secret, so nothing about an issued token needs to be stored server side.
// The signed window makes a screenshotted code stale within seconds; it does
// not by itself prevent replay inside the window, that is the burn's job.
type Service struct {
	secret     []byte
	window     time.Duration
	nonceBytes int
	now        func() time.Time
	entropy    io.Reader
}

func NewService(secret []byte, window time.Duration, nonceBytes int) *Service {
	return &Service{
		secret:     secret,
		window:     window,
		nonceBytes: nonceBytes,
		now:        time.Now,
		entropy:    rand.Reader,
	}
}

// WithClock replaces the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue mints a signed payload for ticketRef, valid for the service window.
// The caller is responsible for checking the ticket still exists.
func (s *Service) Issue(ticketRef string) (*model.TokenPayload, error) {
	if _, _, err := model.ParseTicketRef(ticketRef); err != nil {
		return nil, fmt.Errorf("issue: %v: %w", err, ErrInvalidInput)
	}

	nonce := make([]byte, s.nonceBytes)
	if _, err := io.ReadFull(s.entropy, nonce); err != nil {
		return nil, fmt.Errorf("issue: error reading nonce entropy: %w", err)
	}

	issuedAt := s.now().UnixMilli()
	p := &model.TokenPayload{
		TicketRef: ticketRef,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt + s.window.Milliseconds(),
		Nonce:     hex.EncodeToString(nonce),
	}
	p.Signature = hex.EncodeToString(s.sign(p))

	return p, nil
}

// Verification is the outcome of a successful Verify.
type Verification struct {
	TicketRef string
	IssuedAt  int64
	ExpiresAt int64
	Nonce     string
}

// Verify checks an untrusted payload as received from a scanning client.
// Signature is checked before expiry so a forged payload can never learn
// which of its fields was wrong.
func (s *Service) Verify(raw []byte) (*Verification, error) {
	var p model.TokenPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("verify: error unmarshalling payload: %v: %w", err, ErrMalformedToken)
	}

	if p.TicketRef == "" || p.Nonce == "" || p.Signature == "" || p.IssuedAt <= 0 || p.ExpiresAt <= 0 {
		return nil, fmt.Errorf("verify: missing payload fields: %w", ErrMalformedToken)
	}

	got, err := hex.DecodeString(p.Signature)
	if err != nil {
		return nil, fmt.Errorf("verify: signature is not hex: %w", ErrMalformedToken)
	}

	if !hmac.Equal(got, s.sign(&p)) {
		return nil, fmt.Errorf("verify: %w", ErrInvalidSignature)
	}

	if s.now().UnixMilli() > p.ExpiresAt {
		return nil, fmt.Errorf("verify: %w", ErrExpired)
	}

	return &Verification{
		TicketRef: p.TicketRef,
		IssuedAt:  p.IssuedAt,
		ExpiresAt: p.ExpiresAt,
		Nonce:     p.Nonce,
	}, nil
}

func (s *Service) sign(p *model.TokenPayload) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(canonical(p))
	return mac.Sum(nil)
}

// canonical serializes the signed fields in fixed order. Every field is
// length-prefixed, so no value can smuggle a delimiter and collide with a
// different field split.
func canonical(p *model.TokenPayload) []byte {
	var b bytes.Buffer
	for _, field := range []string{
		p.TicketRef,
		strconv.FormatInt(p.IssuedAt, 10),
		strconv.FormatInt(p.ExpiresAt, 10),
		p.Nonce,
	} {
		fmt.Fprintf(&b, "%d:%s;", len(field), field)
	}
	return b.Bytes()
}
