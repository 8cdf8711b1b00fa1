package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidOTP         = errors.New("invalid or expired code")
)

type Accounts interface {
	GetByEmail(ctx context.Context, email string) (*storage.Account, error)
	Create(ctx context.Context, a *storage.Account) error
	SaveSession(ctx context.Context, token, accountID string, expiresAt time.Time) error
	SessionAccount(ctx context.Context, token string) (*storage.Account, error)
	DeleteSession(ctx context.Context, token string) error
}

// OTPSender delivers one-time codes; the legacy webhook endpoint sends the
// actual email.
type OTPSender interface {
	SendOTP(ctx context.Context, email, otp string) error
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type EventType string

const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
)

// Event is published on the session-change stream.
type Event struct {
	Type EventType
	User User
}

type otpEntry struct {
	code      string
	expiresAt time.Time
}

// Service owns sign-in, opaque session tokens, and the OTP email flow.
type Service struct {
	accounts Accounts
	otp      OTPSender
	ttl      time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	subs []chan Event
	otps map[string]otpEntry
}

func NewService(accounts Accounts, otp OTPSender, sessionTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		accounts: accounts,
		otp:      otp,
		ttl:      sessionTTL,
		logger:   logger,
		otps:     make(map[string]otpEntry),
	}
}

func (s *Service) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.openSession(ctx, acc)
}

// Session resolves a token to its user; an unknown or expired token reads
// as domain.ErrNotSignedIn.
func (s *Service) Session(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, domain.ErrNotSignedIn
	}
	acc, err := s.accounts.SessionAccount(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotSignedIn
		}
		return nil, err
	}
	return &User{ID: acc.ID, Email: acc.Email}, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	acc, err := s.accounts.SessionAccount(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil // already gone
		}
		return err
	}
	if err := s.accounts.DeleteSession(ctx, token); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.publish(Event{Type: EventSignedOut, User: User{ID: acc.ID, Email: acc.Email}})
	return nil
}

// RequestOTP generates a six-digit code and hands it to the legacy endpoint
// for delivery. The code is held in memory until VerifyOTP or expiry.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	code, err := sixDigits()
	if err != nil {
		return err
	}
	if err := s.otp.SendOTP(ctx, email, code); err != nil {
		s.logger.Warn("otp delivery failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return fmt.Errorf("send otp: %w", err)
	}

	s.mu.Lock()
	s.otps[email] = otpEntry{code: code, expiresAt: time.Now().Add(5 * time.Minute)}
	s.mu.Unlock()
	return nil
}

func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	s.mu.Lock()
	entry, ok := s.otps[email]
	if ok && (entry.code != code || time.Now().After(entry.expiresAt)) {
		ok = false
	}
	if ok {
		delete(s.otps, email)
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrInvalidOTP
	}

	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.openSession(ctx, acc)
}

// Subscribe returns a session-change stream. Slow consumers drop events
// rather than block sign-in.
func (s *Service) Subscribe() <-chan Event {
	ch := make(chan Event, 8)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Service) openSession(ctx context.Context, acc *storage.Account) (*Session, error) {
	sess := &Session{
		Token:     uuid.NewString(),
		User:      User{ID: acc.ID, Email: acc.Email},
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.accounts.SaveSession(ctx, sess.Token, acc.ID, sess.ExpiresAt); err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventSignedIn, User: sess.User})
	s.logger.Info("session opened", zap.String("user_id", acc.ID))
	return sess, nil
}

func (s *Service) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func sixDigits() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashPassword is used by account provisioning tooling.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
